package notification

import "github.com/nao1215/notifier/pkg/contract"

// consentDecision は同意判定の結果を表す。
type consentDecision int

const (
	// consentAllowed は配信が許可されていることを表す。
	consentAllowed consentDecision = iota
	// consentDeniedByType は通知種別のオプトアウトにより拒否されたことを表す。
	consentDeniedByType
	// consentDeniedByChannel はチャネルの配信拒否により拒否されたことを表す。
	consentDeniedByChannel
)

// evaluateConsent はユーザー設定に基づいて通知の配信可否を判定する。
// 判定順序は固定で、まず種別のオプトイン、次にチャネルの許可を確認する。
// 種別のオプトアウトはチャネル設定に優先する（「マーケティングは一切不要」が
// チャネルの許可より粗い粒度のゲートとして先に効く）。
// 副作用を持たない純粋な判定関数。
func evaluateConsent(prefs contract.PreferenceSettings, nType contract.Type, channel contract.Channel) consentDecision {
	if !prefs.OptedIn(nType) {
		return consentDeniedByType
	}
	if !prefs.Channels.Enabled(channel) {
		return consentDeniedByChannel
	}
	return consentAllowed
}
