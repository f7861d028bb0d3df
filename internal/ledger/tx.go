package ledger

import (
	"time"
)

// TxKind 交易类型
type TxKind string

const (
	TxCreate TxKind = "create"
	TxClaim  TxKind = "claim"
)

// TxStatus 交易状态
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// Terminal 是否为最终状态
func (s TxStatus) Terminal() bool {
	return s == TxConfirmed || s == TxFailed
}

// TxHandle 已提交交易的句柄
type TxHandle struct {
	Hash        string    `json:"hash"`
	Kind        TxKind    `json:"kind"`
	PacketID    string    `json:"packet_id,omitempty"` // 领取交易对应的红包
	SubmittedAt time.Time `json:"submitted_at"`
}

// TxEvent 交易状态变化
type TxEvent struct {
	Handle      TxHandle `json:"handle"`
	Status      TxStatus `json:"status"`
	BlockNumber uint64   `json:"block_number,omitempty"`
	Err         error    `json:"-"`
}
