package preference

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。
const schema = `
CREATE TABLE IF NOT EXISTS user_preferences (
    -- 設定対象のユーザーID
    user_id TEXT PRIMARY KEY,
    -- ユーザーのメールアドレス
    email TEXT NOT NULL UNIQUE,
    -- マーケティング通知のオプトイン
    opt_in_marketing INTEGER NOT NULL DEFAULT 0,
    -- ニュースレター通知のオプトイン
    opt_in_newsletter INTEGER NOT NULL DEFAULT 0,
    -- 更新情報通知のオプトイン
    opt_in_updates INTEGER NOT NULL DEFAULT 0,
    -- 通知のまとめ送り頻度（daily/weekly/monthly/never）
    frequency TEXT NOT NULL DEFAULT 'weekly',
    -- メールチャネルの配信許可
    channel_email INTEGER NOT NULL DEFAULT 0,
    -- SMSチャネルの配信許可
    channel_sms INTEGER NOT NULL DEFAULT 0,
    -- プッシュ通知チャネルの配信許可
    channel_push INTEGER NOT NULL DEFAULT 0,
    -- ユーザーのタイムゾーン
    timezone TEXT NOT NULL,
    -- レコードの作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    -- レコードの最終更新日時
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

-- メールアドレスでの検索を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_user_preferences_email
    ON user_preferences(email);
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
