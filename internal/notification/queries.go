package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/notifier/pkg/contract"
)

// ErrInvalidLog は通知ログの必須フィールドが欠けているか、
// 列挙型の値が不正であることを表す。永続化前の検証で返される。
var ErrInvalidLog = errors.New("通知ログのデータが不正です")

// Queries は通知ログテーブルへのクエリをまとめた構造体。
type Queries struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewQueries は新しいクエリ実行オブジェクトを生成する。
func NewQueries(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// NotificationLog はnotification_logsテーブルの1行を表す。
// 一度書き込んだ行は更新しない。再送が必要な場合は新しい行を作成する。
type NotificationLog struct {
	ID            string
	UserID        string
	Type          string
	Channel       string
	Status        string
	SentAt        sql.NullTime
	FailureReason sql.NullString
	Metadata      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateNotificationLogParams はCreateNotificationLogのパラメータ。
type CreateNotificationLogParams struct {
	ID            string
	UserID        string
	Type          string
	Channel       string
	Status        string
	SentAt        sql.NullTime
	FailureReason sql.NullString
	Metadata      string
	CreatedAt     time.Time
}

// validateCreateParams は通知ログの必須フィールドと列挙型の値を検証する。
// 不正なデータをテーブルに書き込まないよう、永続化の前に必ず呼び出す。
func validateCreateParams(params CreateNotificationLogParams) error {
	if params.ID == "" {
		return fmt.Errorf("%w: idが空です", ErrInvalidLog)
	}
	if params.UserID == "" {
		return fmt.Errorf("%w: user_idが空です", ErrInvalidLog)
	}
	if _, err := contract.ParseType(params.Type); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLog, err)
	}
	if _, err := contract.ParseChannel(params.Channel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLog, err)
	}
	if _, err := contract.ParseStatus(params.Status); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLog, err)
	}
	if params.Metadata == "" {
		return fmt.Errorf("%w: metadataが空です", ErrInvalidLog)
	}
	return nil
}

// CreateNotificationLog は通知ログを1件追記する。
// 検証に失敗した場合はErrInvalidLogを返し、何も書き込まない。
func (q *Queries) CreateNotificationLog(ctx context.Context, params CreateNotificationLogParams) error {
	if err := validateCreateParams(params); err != nil {
		return err
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO notification_logs (
			id, user_id, type, channel, status,
			sent_at, failure_reason, metadata,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.ID, params.UserID, params.Type, params.Channel, params.Status,
		params.SentAt, params.FailureReason, params.Metadata,
		params.CreatedAt, params.CreatedAt,
	)
	return err
}

// ListNotificationLogsByUserID はユーザーの通知ログを作成日時の降順で取得する。
// ログが存在しない場合は空スライスを返す。
func (q *Queries) ListNotificationLogsByUserID(ctx context.Context, userID string) ([]NotificationLog, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, type, channel, status,
			sent_at, failure_reason, metadata,
			created_at, updated_at
		FROM notification_logs
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	logs := make([]NotificationLog, 0)
	for rows.Next() {
		var l NotificationLog
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Type, &l.Channel, &l.Status,
			&l.SentAt, &l.FailureReason, &l.Metadata,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// TypeStatusCount は種別×ステータスの組み合わせごとの件数を表す。
type TypeStatusCount struct {
	Type   string
	Status string
	Count  int64
}

// CountLogsByTypeAndStatus は全通知ログを種別×ステータスで集計する。
// 件数が0の組み合わせは結果に含まれない。
func (q *Queries) CountLogsByTypeAndStatus(ctx context.Context) ([]TypeStatusCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT type, status, COUNT(*)
		FROM notification_logs
		GROUP BY type, status`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make([]TypeStatusCount, 0)
	for rows.Next() {
		var c TypeStatusCount
		if err := rows.Scan(&c.Type, &c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
