// Package contract は通知サービスと設定サービスの間で共有する型定義を提供する。
// 通知種別・チャネル・ステータスの列挙型と、APIレスポンスの共通エンベロープを含む。
package contract

import (
	"fmt"
	"time"
)

// Type は通知の種別を表す。種別ごとにユーザーのオプトイン設定で配信可否が決まる。
type Type string

const (
	// TypeMarketing はマーケティング通知を表す。
	TypeMarketing Type = "marketing"
	// TypeNewsletter はニュースレター通知を表す。
	TypeNewsletter Type = "newsletter"
	// TypeUpdates は更新情報通知を表す。
	TypeUpdates Type = "updates"
)

// ParseType は文字列を通知種別に変換する。未知の値はエラーを返す。
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeMarketing, TypeNewsletter, TypeUpdates:
		return Type(s), nil
	default:
		return "", fmt.Errorf("未知の通知種別です: %q", s)
	}
}

// Channel は通知の配信チャネルを表す。
type Channel string

const (
	// ChannelEmail はメールによる配信を表す。
	ChannelEmail Channel = "email"
	// ChannelSMS はSMSによる配信を表す。
	ChannelSMS Channel = "sms"
	// ChannelPush はプッシュ通知による配信を表す。
	ChannelPush Channel = "push"
)

// ParseChannel は文字列を配信チャネルに変換する。未知の値はエラーを返す。
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return Channel(s), nil
	default:
		return "", fmt.Errorf("未知の配信チャネルです: %q", s)
	}
}

// Status は通知試行の結果ステータスを表す。
// pendingは構築直後の状態で、永続化される時点ではsentかfailedに確定している。
type Status string

const (
	// StatusPending は送信前の状態を表す。
	StatusPending Status = "pending"
	// StatusSent は送信に成功したことを表す。
	StatusSent Status = "sent"
	// StatusFailed は送信に失敗したことを表す。
	StatusFailed Status = "failed"
)

// ParseStatus は文字列を通知ステータスに変換する。未知の値はエラーを返す。
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusSent, StatusFailed:
		return Status(s), nil
	default:
		return "", fmt.Errorf("未知の通知ステータスです: %q", s)
	}
}

// Frequency は通知のまとめ送り頻度を表す。設定レコードに保持されるが、
// 配信判定には使用しない（種別とチャネルのみで判定する）。
type Frequency string

const (
	// FrequencyDaily は毎日の配信を表す。
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly は毎週の配信を表す。
	FrequencyWeekly Frequency = "weekly"
	// FrequencyMonthly は毎月の配信を表す。
	FrequencyMonthly Frequency = "monthly"
	// FrequencyNever は配信しないことを表す。
	FrequencyNever Frequency = "never"
)

// ParseFrequency は文字列を配信頻度に変換する。未知の値はエラーを返す。
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyNever:
		return Frequency(s), nil
	default:
		return "", fmt.Errorf("未知の配信頻度です: %q", s)
	}
}

// ChannelPreferences はチャネルごとの配信許可設定を表す。
type ChannelPreferences struct {
	// Email はメール配信の許可。
	Email bool `json:"email"`
	// SMS はSMS配信の許可。
	SMS bool `json:"sms"`
	// Push はプッシュ通知配信の許可。
	Push bool `json:"push"`
}

// Enabled は指定チャネルの配信が許可されているかを返す。
// チャネルを追加した場合はこのswitchに分岐を追加すること。
func (c ChannelPreferences) Enabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return c.Email
	case ChannelSMS:
		return c.SMS
	case ChannelPush:
		return c.Push
	default:
		return false
	}
}

// PreferenceSettings は通知種別ごとのオプトインとチャネル設定を表す。
type PreferenceSettings struct {
	// Marketing はマーケティング通知のオプトイン。
	Marketing bool `json:"marketing"`
	// Newsletter はニュースレター通知のオプトイン。
	Newsletter bool `json:"newsletter"`
	// Updates は更新情報通知のオプトイン。
	Updates bool `json:"updates"`
	// Frequency は通知のまとめ送り頻度。
	Frequency Frequency `json:"frequency"`
	// Channels はチャネルごとの配信許可設定。
	Channels ChannelPreferences `json:"channels"`
}

// OptedIn は指定種別の通知にオプトインしているかを返す。
// 種別を追加した場合はこのswitchに分岐を追加すること。
func (p PreferenceSettings) OptedIn(t Type) bool {
	switch t {
	case TypeMarketing:
		return p.Marketing
	case TypeNewsletter:
		return p.Newsletter
	case TypeUpdates:
		return p.Updates
	default:
		return false
	}
}

// UserPreference はユーザーごとの通知設定レコードを表す。
// 設定サービスが所有し、通知サービスは内部API経由で読み取り専用で参照する。
type UserPreference struct {
	// UserID はユーザーの一意識別子。
	UserID string `json:"userId"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
	// Preferences は通知種別・チャネルごとの設定。
	Preferences PreferenceSettings `json:"preferences"`
	// Timezone はユーザーのタイムゾーン（例: "Asia/Tokyo"）。
	Timezone string `json:"timezone"`
	// CreatedAt はレコードの作成日時。
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt はレコードの最終更新日時。
	UpdatedAt time.Time `json:"updatedAt"`
}

// Response はAPIレスポンスの共通エンベロープ。
// statusは "success"（成功）、"fail"（業務上の否定結果）、"error"（エラー）のいずれか。
type Response struct {
	// Status はレスポンスの種別。
	Status string `json:"status"`
	// Message は人間向けの説明メッセージ。
	Message string `json:"message"`
	// Data はレスポンス本体のデータ。省略可能。
	Data any `json:"data,omitempty"`
	// Error はエラー詳細。status=errorの場合のみ設定される。
	Error string `json:"error,omitempty"`
}

// Success は成功レスポンスを生成する。
func Success(message string, data any) Response {
	return Response{Status: "success", Message: message, Data: data}
}

// Fail は業務上の否定結果（同意拒否や送信失敗など）を表すレスポンスを生成する。
// エラーではなく正常な判定結果として扱う。
func Fail(message string) Response {
	return Response{Status: "fail", Message: message}
}

// Error はエラーレスポンスを生成する。
func Error(message string) Response {
	return Response{Status: "error", Message: message, Error: message}
}
