// 通知設定サービスのエントリポイント。
// ユーザーごとの通知設定のCRUDと、通知サービス向けの内部参照APIを提供する。
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/nao1215/notifier/internal/preference"
)

func main() {
	// .envが存在する場合のみ読み込む（本番環境では環境変数を直接設定する）
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	server, err := preference.NewServer(port)
	if err != nil {
		log.Fatalf("通知設定サーバーの初期化に失敗: %v", err)
	}

	log.Printf("通知設定サービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("通知設定サービスの起動に失敗: %v", err)
	}
}
