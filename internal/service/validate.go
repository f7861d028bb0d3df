package service

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/smysle/redpacket-go/internal/errs"
)

// MaxPacketCount 单个红包最多份数
const MaxPacketCount = 100

var (
	amountPattern = regexp.MustCompile(`^\d+\.?\d*$`)
	countPattern  = regexp.MustCompile(`^[1-9]\d*$`)
)

// CreateRequest 校验后的创建参数
type CreateRequest struct {
	Deposit     *big.Int // 最小单位
	TotalShares *big.Int
}

// ValidateCreate 校验创建红包的输入：金额为正的十进制数，个数为 1-100 的整数
func ValidateCreate(amount, count string, decimals int32) (CreateRequest, error) {
	amount = strings.TrimSpace(amount)
	count = strings.TrimSpace(count)

	if amount == "" || !amountPattern.MatchString(amount) {
		return CreateRequest{}, &errs.ValidationError{Field: "amount", Message: "请输入有效的金额"}
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(amount, "."))
	if err != nil {
		return CreateRequest{}, &errs.ValidationError{Field: "amount", Message: "请输入有效的金额"}
	}
	if !d.IsPositive() {
		return CreateRequest{}, &errs.ValidationError{Field: "amount", Message: "红包金额必须大于 0"}
	}
	deposit := d.Shift(decimals)
	if !deposit.Equal(deposit.Truncate(0)) {
		return CreateRequest{}, &errs.ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("金额最多支持 %d 位小数", decimals),
		}
	}

	if count == "" || !countPattern.MatchString(count) {
		return CreateRequest{}, &errs.ValidationError{Field: "count", Message: "请输入有效的红包个数"}
	}
	n, err := strconv.Atoi(count)
	if err != nil || n < 1 || n > MaxPacketCount {
		return CreateRequest{}, &errs.ValidationError{
			Field:   "count",
			Message: fmt.Sprintf("红包个数必须在 1-%d 之间", MaxPacketCount),
		}
	}

	return CreateRequest{
		Deposit:     deposit.BigInt(),
		TotalShares: big.NewInt(int64(n)),
	}, nil
}
