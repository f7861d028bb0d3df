// Package models 红包数据模型
package models

import (
	"fmt"
	"math/big"
	"time"
)

// Packet 链上红包（来自索引服务的只读投影，客户端从不修改）
type Packet struct {
	ID              string   `json:"id"`               // 红包 ID，十进制字符串，保留大整数精度
	Creator         string   `json:"creator"`          // 创建者地址
	TotalAmount     *big.Int `json:"total_amount"`     // 总金额（最小单位）
	TotalCount      *big.Int `json:"total_count"`      // 总份数
	ClaimedCount    *big.Int `json:"claimed_count"`    // 已领取份数
	RemainingAmount *big.Int `json:"remaining_amount"` // 剩余金额（最小单位）
	Claimers        []string `json:"claimers"`         // 领取者地址，按领取顺序
}

// Claim 领取记录
type Claim struct {
	ID             string    `json:"id"`
	PacketID       string    `json:"packet_id"`
	Claimer        string    `json:"claimer"`
	Amount         *big.Int  `json:"amount"`
	BlockNumber    uint64    `json:"block_number"`
	BlockTimestamp time.Time `json:"block_timestamp"`
	TxHash         string    `json:"tx_hash"`
}

// Eligibility 某地址对某红包的领取资格（派生值，不存储）
type Eligibility struct {
	PacketID   string `json:"packet_id"`
	Viewer     string `json:"viewer"`
	Exhausted  bool   `json:"exhausted"`
	Checked    bool   `json:"checked"` // 是否实际查询过链上 hasUserClaimed
	HasClaimed bool   `json:"has_claimed"`
	Eligible   bool   `json:"eligible"`
}

// ParsePacketID 将十进制字符串 ID 解析为大整数
func ParsePacketID(id string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(id, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("无效的红包 ID: %q", id)
	}
	return n, nil
}
