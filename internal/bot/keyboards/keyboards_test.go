package keyboards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smysle/redpacket-go/internal/derive"
)

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 3, TotalPages(23, 10))
}

func TestCalculatePageRange(t *testing.T) {
	tests := []struct {
		total, current int
		start, end     int
	}{
		{total: 3, current: 1, start: 1, end: 3},
		{total: 10, current: 1, start: 1, end: 5},
		{total: 10, current: 5, start: 3, end: 7},
		{total: 10, current: 10, start: 6, end: 10},
	}

	for _, tt := range tests {
		p := NewPaginator(tt.total, tt.current, "history|1|%d")
		start, end := p.calculatePageRange()
		assert.Equal(t, tt.start, start, "total=%d current=%d", tt.total, tt.current)
		assert.Equal(t, tt.end, end, "total=%d current=%d", tt.total, tt.current)
	}
}

func TestHistoryPagination(t *testing.T) {
	markup := HistoryPagination("12", 2, 3)
	require.Len(t, markup.InlineKeyboard, 3)

	pages := markup.InlineKeyboard[0]
	require.Len(t, pages, 3)
	assert.Equal(t, "history|12|1", pages[0].Unique)
	assert.Equal(t, "·2·", pages[1].Text)

	single := HistoryPagination("12", 1, 1)
	assert.Len(t, single.InlineKeyboard, 1)
}

func TestPacketListKeyboard(t *testing.T) {
	markup := PacketListKeyboard([]PacketButton{
		{ID: "5", Button: derive.ButtonClaimable},
		{ID: "4", Button: derive.ButtonClaimed},
	})
	require.Len(t, markup.InlineKeyboard, 3)

	assert.Equal(t, "🎁 点击领取 #5", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "claim|5", markup.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "toggle|5", markup.InlineKeyboard[0][1].Unique)

	assert.Equal(t, "✅ 已领取 #4", markup.InlineKeyboard[1][0].Text)
	assert.Equal(t, "noop", markup.InlineKeyboard[1][0].Unique)
}

func TestPacketDetailKeyboard(t *testing.T) {
	open := PacketDetailKeyboard("8", derive.ButtonClaimable)
	assert.Len(t, open.InlineKeyboard, 3)

	done := PacketDetailKeyboard("8", derive.ButtonExhausted)
	assert.Len(t, done.InlineKeyboard, 2)
	assert.Equal(t, "history|8|1", done.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "card|8", done.InlineKeyboard[0][1].Unique)
}
