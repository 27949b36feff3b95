// 通知サービスのエントリポイント。
// ユーザーの通知設定に基づいて配信可否を判定し、送信の試行を
// 通知ログとして記録する。
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/nao1215/notifier/internal/notification"
)

func main() {
	// .envが存在する場合のみ読み込む（本番環境では環境変数を直接設定する）
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	server, err := notification.NewServer(port)
	if err != nil {
		log.Fatalf("通知サーバーの初期化に失敗: %v", err)
	}

	log.Printf("通知サービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("通知サービスの起動に失敗: %v", err)
	}
}
