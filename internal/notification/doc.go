// Package notification は通知配信サービスの内部実装を提供する。
//
// ユーザーの通知設定を参照して配信可否を判定し、許可された通知のみ送信を試行する。
// 送信を試行した通知は成否にかかわらず通知ログに記録し、
// ユーザーごとのログ一覧と種別×ステータス別の集計を提供する。
package notification
