package service

import "errors"

var (
	ErrWalletNotConnected = errors.New("请先连接钱包")
	ErrPacketNotFound     = errors.New("红包不存在")
	ErrPacketExhausted    = errors.New("红包已被抢光")
	ErrAlreadyClaimed     = errors.New("您已领取过此红包")
	ErrClosed             = errors.New("服务已关闭")
)

// 用户可见的提示文案
const (
	msgLoadFailed     = "加载红包失败"
	msgHistoryFailed  = "加载领取记录失败"
	msgCreatorFailed  = "查询创建记录失败"
	msgEligibility    = "查询领取状态失败"
	msgClaimSuccess   = "🎉 恭喜发财，红包领取成功！"
	msgClaimFailed    = "领取失败"
	msgCreateFailed   = "创建红包失败"
	msgCreateSuccessF = "🎊 红包创建成功！交易哈希: %s..."
	msgClaimSubmitted = "领取交易已提交，等待确认"
	msgCreateSubmit   = "创建交易已提交，等待确认"
)
