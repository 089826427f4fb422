package payment

import (
	"context"
	"errors"
)

// 返金結果。RefundIDはゲートウェイ側の識別子。
type RefundResult struct {
	RefundID string
	Status   string
}

// 返金コラボレータ。キャンセル処理のトランザクション境界の中で同期的に呼ぶ。
// 失敗したら呼び出し側は状態を一切コミットしてはいけない。
type RefundGateway interface {
	Refund(ctx context.Context, transactionRef string) (RefundResult, error)
}

// 期限内に応答がなかった。返金されたとみなしてはいけない。
// リトライはキャンセル操作ごと呼び出し側がやり直す。
var ErrTimeout = errors.New("payment: refund timed out")
