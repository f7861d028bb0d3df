// Package derive 红包展示状态派生：纯函数，无网络访问
package derive

import (
	"math/big"

	"github.com/smysle/redpacket-go/internal/models"
)

var hundred = big.NewInt(100)

// RemainingCount 剩余份数 = 总份数 - 已领取份数，永不为负
func RemainingCount(p *models.Packet) *big.Int {
	r := new(big.Int).Sub(p.TotalCount, p.ClaimedCount)
	if r.Sign() < 0 {
		return new(big.Int)
	}
	return r
}

// IsExhausted 是否已抢光
func IsExhausted(p *models.Packet) bool {
	return RemainingCount(p).Sign() == 0
}

// ProgressPercent 领取进度 floor(claimed*100/total)，total 为 0 时返回 0
func ProgressPercent(p *models.Packet) int {
	if p.TotalCount.Sign() == 0 {
		return 0
	}
	v := new(big.Int).Mul(p.ClaimedCount, hundred)
	v.Quo(v, p.TotalCount)
	switch {
	case v.Sign() < 0:
		return 0
	case v.Cmp(hundred) > 0:
		return 100
	}
	return int(v.Int64())
}

// Claimable 过滤出仍可领取的红包，保持原顺序
func Claimable(packets []models.Packet) []models.Packet {
	out := make([]models.Packet, 0, len(packets))
	for i := range packets {
		if !IsExhausted(&packets[i]) {
			out = append(out, packets[i])
		}
	}
	return out
}

// StatusTag 状态标签
func StatusTag(p *models.Packet) string {
	if IsExhausted(p) {
		return "已完成"
	}
	return "进行中"
}
