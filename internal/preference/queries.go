package preference

import (
	"context"
	"database/sql"
	"time"
)

// Queries はユーザー通知設定テーブルへのクエリをまとめた構造体。
type Queries struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewQueries は新しいクエリ実行オブジェクトを生成する。
func NewQueries(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// UserPreference はuser_preferencesテーブルの1行を表す。
// 真偽値カラムはSQLiteのINTEGER（0/1）で保持する。
type UserPreference struct {
	UserID          string
	Email           string
	OptInMarketing  int64
	OptInNewsletter int64
	OptInUpdates    int64
	Frequency       string
	ChannelEmail    int64
	ChannelSMS      int64
	ChannelPush     int64
	Timezone        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreatePreferenceParams はCreatePreferenceのパラメータ。
type CreatePreferenceParams struct {
	UserID          string
	Email           string
	OptInMarketing  int64
	OptInNewsletter int64
	OptInUpdates    int64
	Frequency       string
	ChannelEmail    int64
	ChannelSMS      int64
	ChannelPush     int64
	Timezone        string
}

// CreatePreference はユーザー通知設定を新規作成する。
func (q *Queries) CreatePreference(ctx context.Context, params CreatePreferenceParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO user_preferences (
			user_id, email,
			opt_in_marketing, opt_in_newsletter, opt_in_updates,
			frequency,
			channel_email, channel_sms, channel_push,
			timezone
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.UserID, params.Email,
		params.OptInMarketing, params.OptInNewsletter, params.OptInUpdates,
		params.Frequency,
		params.ChannelEmail, params.ChannelSMS, params.ChannelPush,
		params.Timezone,
	)
	return err
}

// GetPreferenceByUserID はユーザーIDで通知設定を1件取得する。
// 見つからない場合はsql.ErrNoRowsを返す。
func (q *Queries) GetPreferenceByUserID(ctx context.Context, userID string) (UserPreference, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT user_id, email,
			opt_in_marketing, opt_in_newsletter, opt_in_updates,
			frequency,
			channel_email, channel_sms, channel_push,
			timezone, created_at, updated_at
		FROM user_preferences
		WHERE user_id = ?`,
		userID,
	)

	var p UserPreference
	err := row.Scan(
		&p.UserID, &p.Email,
		&p.OptInMarketing, &p.OptInNewsletter, &p.OptInUpdates,
		&p.Frequency,
		&p.ChannelEmail, &p.ChannelSMS, &p.ChannelPush,
		&p.Timezone, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// UpdatePreferenceParams はUpdatePreferenceのパラメータ。
type UpdatePreferenceParams struct {
	UserID          string
	Email           string
	OptInMarketing  int64
	OptInNewsletter int64
	OptInUpdates    int64
	Frequency       string
	ChannelEmail    int64
	ChannelSMS      int64
	ChannelPush     int64
	Timezone        string
}

// UpdatePreference はユーザー通知設定を更新し、updated_atを現在時刻に進める。
func (q *Queries) UpdatePreference(ctx context.Context, params UpdatePreferenceParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE user_preferences
		SET email = ?,
			opt_in_marketing = ?, opt_in_newsletter = ?, opt_in_updates = ?,
			frequency = ?,
			channel_email = ?, channel_sms = ?, channel_push = ?,
			timezone = ?,
			updated_at = datetime('now')
		WHERE user_id = ?`,
		params.Email,
		params.OptInMarketing, params.OptInNewsletter, params.OptInUpdates,
		params.Frequency,
		params.ChannelEmail, params.ChannelSMS, params.ChannelPush,
		params.Timezone,
		params.UserID,
	)
	return err
}

// DeletePreference はユーザー通知設定を削除する。
func (q *Queries) DeletePreference(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM user_preferences WHERE user_id = ?`, userID)
	return err
}
