package notification

import (
	"testing"

	"github.com/nao1215/notifier/pkg/contract"
)

// TestEvaluateConsent は配信可否判定のテスト。
func TestEvaluateConsent(t *testing.T) {
	t.Parallel()

	// 種別のオプトインとチャネルの許可が両方ある場合のみ配信が許可される
	tests := []struct {
		name    string
		prefs   contract.PreferenceSettings
		nType   contract.Type
		channel contract.Channel
		want    consentDecision
	}{
		{
			name: "種別とチャネルの両方が許可されている場合は配信可",
			prefs: contract.PreferenceSettings{
				Newsletter: true,
				Channels:   contract.ChannelPreferences{Email: true},
			},
			nType:   contract.TypeNewsletter,
			channel: contract.ChannelEmail,
			want:    consentAllowed,
		},
		{
			name: "種別をオプトアウトしている場合は種別拒否",
			prefs: contract.PreferenceSettings{
				Marketing: false,
				Channels:  contract.ChannelPreferences{Email: true},
			},
			nType:   contract.TypeMarketing,
			channel: contract.ChannelEmail,
			want:    consentDeniedByType,
		},
		{
			name: "種別は許可だがチャネルが拒否されている場合はチャネル拒否",
			prefs: contract.PreferenceSettings{
				Updates:  true,
				Channels: contract.ChannelPreferences{SMS: false},
			},
			nType:   contract.TypeUpdates,
			channel: contract.ChannelSMS,
			want:    consentDeniedByChannel,
		},
		{
			name: "種別とチャネルの両方が拒否されている場合は種別拒否が優先される",
			prefs: contract.PreferenceSettings{
				Marketing: false,
				Channels:  contract.ChannelPreferences{Push: false},
			},
			nType:   contract.TypeMarketing,
			channel: contract.ChannelPush,
			want:    consentDeniedByType,
		},
		{
			name: "チャネル拒否の判定は種別のオプトイン後にのみ行われる",
			prefs: contract.PreferenceSettings{
				Newsletter: true,
				Channels:   contract.ChannelPreferences{Email: true, SMS: false, Push: false},
			},
			nType:   contract.TypeNewsletter,
			channel: contract.ChannelPush,
			want:    consentDeniedByChannel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := evaluateConsent(tt.prefs, tt.nType, tt.channel); got != tt.want {
				t.Errorf("evaluateConsent() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestEvaluateConsentAllCombinations は全種別×全チャネルの組み合わせで
// 判定が設定値と一致することを検証する。
func TestEvaluateConsentAllCombinations(t *testing.T) {
	t.Parallel()

	types := []contract.Type{contract.TypeMarketing, contract.TypeNewsletter, contract.TypeUpdates}
	channels := []contract.Channel{contract.ChannelEmail, contract.ChannelSMS, contract.ChannelPush}

	prefs := contract.PreferenceSettings{
		Marketing:  true,
		Newsletter: false,
		Updates:    true,
		Channels:   contract.ChannelPreferences{Email: true, SMS: false, Push: true},
	}

	for _, nType := range types {
		for _, channel := range channels {
			got := evaluateConsent(prefs, nType, channel)

			switch {
			case !prefs.OptedIn(nType):
				if got != consentDeniedByType {
					t.Errorf("evaluateConsent(%s, %s) = %v, want consentDeniedByType", nType, channel, got)
				}
			case !prefs.Channels.Enabled(channel):
				if got != consentDeniedByChannel {
					t.Errorf("evaluateConsent(%s, %s) = %v, want consentDeniedByChannel", nType, channel, got)
				}
			default:
				if got != consentAllowed {
					t.Errorf("evaluateConsent(%s, %s) = %v, want consentAllowed", nType, channel, got)
				}
			}
		}
	}
}

// TestEvaluateConsentIsPure は同じ入力に対して常に同じ結果を返すことを検証する。
func TestEvaluateConsentIsPure(t *testing.T) {
	t.Parallel()

	prefs := contract.PreferenceSettings{
		Updates:  true,
		Channels: contract.ChannelPreferences{Push: true},
	}

	first := evaluateConsent(prefs, contract.TypeUpdates, contract.ChannelPush)
	for i := 0; i < 10; i++ {
		if got := evaluateConsent(prefs, contract.TypeUpdates, contract.ChannelPush); got != first {
			t.Fatalf("evaluateConsent()の結果が呼び出しごとに変化した: %v != %v", got, first)
		}
	}
}
