package derive

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	SummaryPrecision int32 = 4 // 列表、卡片
	DetailPrecision  int32 = 6 // 详情面板
)

// FormatAmount 以 4 位小数格式化最小单位金额
func FormatAmount(raw *big.Int, decimals int32) string {
	return FormatAmountPrecision(raw, decimals, SummaryPrecision)
}

// FormatAmountPrecision 按指定小数位格式化。
// 0 显示为 "0"；非零但小于最小可显示单位的显示为 "< 0.0001"，不显示成 "0.0000"。
func FormatAmountPrecision(raw *big.Int, decimals, precision int32) string {
	if raw == nil || raw.Sign() == 0 {
		return "0"
	}
	d := decimal.NewFromBigInt(raw, -decimals)
	smallest := decimal.New(1, -precision)
	if d.Abs().LessThan(smallest) {
		return "< " + smallest.StringFixed(precision)
	}
	return d.StringFixed(precision)
}

// FormatUnits 完整精度的十进制表示，去掉末尾的 0
func FormatUnits(raw *big.Int, decimals int32) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -decimals).String()
}
