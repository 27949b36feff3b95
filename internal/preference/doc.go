// Package preference はユーザー通知設定サービスの内部実装を提供する。
//
// ユーザーごとの通知設定（種別オプトイン・チャネル許可・頻度）のCRUDと、
// 通知サービスが配信判定に使用する内部参照APIを提供する。
package preference
