package notification

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/nao1215/notifier/pkg/contract"
)

// Content は通知の本文を表す。監査用にログのmetadataとして保存される。
type Content struct {
	// Subject は通知の件名。
	Subject string `json:"subject"`
	// Body は通知の本文。
	Body string `json:"body"`
}

// Sender は通知の送信を行うインターフェース。
// 送信は1回のみ試行し、リトライや部分的な結果は扱わない。
// nilを返した場合は送信成功、エラーを返した場合は送信失敗として扱う。
// 実運用ではチャネルごとの送信基盤（SMTPクライアント・SMSゲートウェイ・
// プッシュ通知基盤）をこのインターフェースの背後に実装する。
// 配信I/Oを行ってよいのはSenderの実装のみで、トランスポートの詳細は
// オーケストレータ側に漏らさない。
type Sender interface {
	// Send は指定チャネルで通知を送信する。
	Send(ctx context.Context, channel contract.Channel, content Content) error
}

// SimulatedSender は送信をシミュレートするSender実装。
// 外部I/Oは行わず、固定確率で成功する。
type SimulatedSender struct {
	// successRate は送信が成功する確率（0.0〜1.0）。
	successRate float64
}

// NewSimulatedSender は成功率90%のシミュレート送信を生成する。
func NewSimulatedSender() *SimulatedSender {
	return &SimulatedSender{successRate: 0.9}
}

// Send は送信をシミュレートする。successRateの確率で成功する。
func (s *SimulatedSender) Send(_ context.Context, channel contract.Channel, _ Content) error {
	if rand.Float64() < s.successRate {
		return nil
	}
	return fmt.Errorf("simulated %s delivery failure", channel)
}
