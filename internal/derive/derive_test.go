package derive

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smysle/redpacket-go/internal/models"
)

func bi(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad int " + s)
	}
	return n
}

func packet(id, total, claimed string) models.Packet {
	return models.Packet{
		ID:              id,
		Creator:         "0x1234567890abcdef1234567890abcdef12345678",
		TotalAmount:     bi("1000000000000000000"),
		TotalCount:      bi(total),
		ClaimedCount:    bi(claimed),
		RemainingAmount: bi("500000000000000000"),
	}
}

func TestRemainingCount(t *testing.T) {
	tests := []struct {
		name           string
		total, claimed string
		expected       string
	}{
		{"未领取", "3", "0", "3"},
		{"部分领取", "3", "1", "2"},
		{"已抢光", "3", "3", "0"},
		{"超出安全整数范围", "18446744073709551617", "1", "18446744073709551616"},
		{"数据异常不为负", "3", "5", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := packet("1", tt.total, tt.claimed)
			got := RemainingCount(&p)
			assert.Equal(t, tt.expected, got.String())
			assert.GreaterOrEqual(t, got.Sign(), 0)
		})
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		total, claimed string
		expected       int
	}{
		{"0", "0", 0},
		{"3", "0", 0},
		{"3", "1", 33},
		{"3", "2", 66},
		{"3", "3", 100},
		{"100", "99", 99},
	}

	for _, tt := range tests {
		t.Run(tt.claimed+"/"+tt.total, func(t *testing.T) {
			p := packet("1", tt.total, tt.claimed)
			assert.Equal(t, tt.expected, ProgressPercent(&p))
		})
	}
}

func TestIsExhausted(t *testing.T) {
	full := packet("1", "3", "3")
	open := packet("2", "3", "2")
	assert.True(t, IsExhausted(&full))
	assert.False(t, IsExhausted(&open))
	assert.Equal(t, "已完成", StatusTag(&full))
	assert.Equal(t, "进行中", StatusTag(&open))
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"0", "0"},
		{"1", "< 0.0001"},
		{"99999999999999", "< 0.0001"},
		{"100000000000000", "0.0001"},
		{"1500000000000000", "0.0015"},
		{"1000000000000000000", "1.0000"},
		{"123456789000000000000", "123.4568"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatAmount(bi(tt.raw), 18))
		})
	}

	assert.Equal(t, "0", FormatAmount(nil, 18))
}

func TestFormatAmountPrecision(t *testing.T) {
	assert.Equal(t, "< 0.000001", FormatAmountPrecision(bi("1"), 18, DetailPrecision))
	assert.Equal(t, "0.001500", FormatAmountPrecision(bi("1500000000000000"), 18, DetailPrecision))
	assert.Equal(t, "1.234567", FormatAmountPrecision(bi("1234567000000000000"), 18, DetailPrecision))
	assert.Equal(t, "0", FormatAmountPrecision(bi("0"), 18, DetailPrecision))
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "0.0015", FormatUnits(bi("1500000000000000"), 18))
	assert.Equal(t, "1", FormatUnits(bi("1000000000000000000"), 18))
	assert.Equal(t, "0.000000000000000001", FormatUnits(bi("1"), 18))
}

func TestAddressAbbreviation(t *testing.T) {
	addr := "0x1234567890abcdef1234567890abcdef12345678"
	assert.Equal(t, "0x1234...5678", ShortAddress(addr))
	assert.Equal(t, "0x12345678...12345678", HistoryAddress(addr))
	assert.Equal(t, "0xabc", ShortAddress("0xabc"))
}

func TestClaimable(t *testing.T) {
	packets := []models.Packet{
		packet("3", "3", "1"),
		packet("2", "3", "3"),
		packet("1", "5", "0"),
	}

	got := Claimable(packets)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "1", got[1].ID)
	// 日志视图仍然保留全部
	assert.Len(t, packets, 3)
}

func TestButtonFor(t *testing.T) {
	viewer := "0x00000000000000000000000000000000000000aa"
	tests := []struct {
		name     string
		el       models.Eligibility
		expected ButtonState
	}{
		{"已抢光优先", models.Eligibility{Viewer: viewer, Exhausted: true, HasClaimed: true}, ButtonExhausted},
		{"已抢光未领取", models.Eligibility{Viewer: viewer, Exhausted: true}, ButtonExhausted},
		{"已领取", models.Eligibility{Viewer: viewer, HasClaimed: true}, ButtonClaimed},
		{"未连接钱包", models.Eligibility{}, ButtonDisconnected},
		{"可领取", models.Eligibility{Viewer: viewer, Eligible: true}, ButtonClaimable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ButtonFor(tt.el)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.expected == ButtonClaimable, got.Enabled())
		})
	}

	assert.Equal(t, "🎊 已抢光", ButtonExhausted.Label())
}

func TestNewPacketView(t *testing.T) {
	p := packet("7", "3", "3")
	p.Claimers = []string{"0xa", "0xb", "0xc"}

	v := NewPacketView(&p, ViewOptions{Decimals: 18, Symbol: "BNB"})
	assert.Equal(t, "7", v.ID)
	assert.Equal(t, "0x1234...5678", v.CreatorShort)
	assert.Equal(t, "1.0000", v.TotalAmount)
	assert.Equal(t, "1.000000", v.TotalAmountDetail)
	assert.Equal(t, "0.5000", v.RemainingAmount)
	assert.Equal(t, "0", v.RemainingCount)
	assert.Equal(t, 100, v.ProgressPercent)
	assert.True(t, v.Exhausted)
	assert.Equal(t, "已完成", v.Status)

	// 视图持有独立的切片
	v.Claimers[0] = "0xz"
	assert.Equal(t, "0xa", p.Claimers[0])
}

func TestNewClaimView(t *testing.T) {
	c := models.Claim{
		ID:             "0xabc-1",
		PacketID:       "7",
		Claimer:        "0x1234567890abcdef1234567890abcdef12345678",
		Amount:         bi("1500000000000000"),
		BlockTimestamp: time.Unix(1700000000, 0),
		TxHash:         "0xdeadbeef",
	}

	v := NewClaimView(&c, ViewOptions{Decimals: 18, ExplorerURL: "https://testnet.bscscan.com/", Location: time.UTC})
	assert.Equal(t, "0x12345678...12345678", v.ClaimerShort)
	assert.Equal(t, "0.0015", v.Amount)
	assert.Equal(t, "2023-11-14 22:13:20", v.Time)
	assert.Equal(t, "https://testnet.bscscan.com/tx/0xdeadbeef", v.ExplorerURL)

	assert.Empty(t, TxURL("", "0xdeadbeef"))
}
