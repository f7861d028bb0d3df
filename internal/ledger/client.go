// Package ledger 红包合约客户端：链上读取、交易提交与确认
package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-co-op/gocron"

	"github.com/smysle/redpacket-go/internal/errs"
	"github.com/smysle/redpacket-go/internal/metrics"
	"github.com/smysle/redpacket-go/pkg/logger"
)

// ErrReadOnly 未配置私钥
var ErrReadOnly = errors.New("未配置签名私钥，无法发送交易")

// Backend 合约调用与回执查询，*ethclient.Client 满足该接口
type Backend interface {
	bind.ContractBackend
	ReceiptFetcher
}

// Options 客户端参数
type Options struct {
	Contract     string
	ChainID      int64
	PrivateKey   string // 十六进制私钥，可带 0x；为空则只读
	PollInterval time.Duration
}

// Client 红包合约客户端
type Client struct {
	contract *bind.BoundContract
	address  common.Address
	chainID  *big.Int
	key      *ecdsa.PrivateKey
	from     common.Address
	watcher  *Watcher
	closeFn  func()
}

// Dial 连接 RPC 节点并创建客户端，交易确认轮询挂在 cron 上
func Dial(ctx context.Context, rpcURL string, opts Options, cron *gocron.Scheduler) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接 RPC 节点失败: %w", err)
	}

	c, err := New(ec, opts, NewWatcher(cron, ec, opts.PollInterval))
	if err != nil {
		ec.Close()
		return nil, err
	}
	c.closeFn = ec.Close

	logger.Info().
		Str("rpc", rpcURL).
		Str("contract", c.address.Hex()).
		Int64("chain_id", opts.ChainID).
		Bool("read_only", c.key == nil).
		Msg("已连接红包合约")
	return c, nil
}

// New 基于已有后端创建客户端
func New(backend Backend, opts Options, watcher *Watcher) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(RedPacketABI))
	if err != nil {
		return nil, fmt.Errorf("解析合约 ABI 失败: %w", err)
	}

	if !common.IsHexAddress(opts.Contract) {
		return nil, fmt.Errorf("无效的合约地址: %q", opts.Contract)
	}
	address := common.HexToAddress(opts.Contract)

	c := &Client{
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		address:  address,
		chainID:  big.NewInt(opts.ChainID),
		watcher:  watcher,
	}

	if opts.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(opts.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("解析私钥失败: %w", err)
		}
		c.key = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}

	return c, nil
}

// Close 关闭 RPC 连接
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// Address 当前签名钱包地址，只读时为空
func (c *Client) Address() string {
	if c.key == nil {
		return ""
	}
	return c.from.Hex()
}

// HasClaimed 链上查询 viewer 是否已领取该红包
func (c *Client) HasClaimed(ctx context.Context, packetID *big.Int, viewer string) (bool, error) {
	if !common.IsHexAddress(viewer) {
		return false, &errs.QueryError{Source: "ledger", Op: methodHasClaimed, Err: fmt.Errorf("无效地址: %q", viewer)}
	}

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodHasClaimed, packetID, common.HexToAddress(viewer))
	metrics.ObserveLedgerCall(methodHasClaimed, err)
	if err != nil {
		return false, &errs.QueryError{Source: "ledger", Op: methodHasClaimed, Err: err}
	}

	if len(out) != 1 {
		return false, &errs.QueryError{Source: "ledger", Op: methodHasClaimed, Err: fmt.Errorf("返回值数量异常: %d", len(out))}
	}
	claimed, ok := out[0].(bool)
	if !ok {
		return false, &errs.QueryError{Source: "ledger", Op: methodHasClaimed, Err: fmt.Errorf("返回值类型异常: %T", out[0])}
	}
	return claimed, nil
}

// CreatePacket 创建红包：存入 deposit，分成 totalShares 份
func (c *Client) CreatePacket(ctx context.Context, totalShares, deposit *big.Int) (TxHandle, error) {
	return c.transact(ctx, TxCreate, "", methodCreate, deposit, totalShares)
}

// ClaimPacket 领取红包
func (c *Client) ClaimPacket(ctx context.Context, packetID *big.Int) (TxHandle, error) {
	return c.transact(ctx, TxClaim, packetID.String(), methodClaim, nil, packetID)
}

// WatchTransaction 跟踪交易状态：先发出 pending，然后 confirmed 或 failed，最后关闭
func (c *Client) WatchTransaction(ctx context.Context, h TxHandle) <-chan TxEvent {
	return c.watcher.Watch(ctx, h)
}

func (c *Client) transact(ctx context.Context, kind TxKind, packetID, method string, value *big.Int, args ...interface{}) (TxHandle, error) {
	if c.key == nil {
		return TxHandle{}, &errs.SubmissionError{Op: method, Err: ErrReadOnly}
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return TxHandle{}, &errs.SubmissionError{Op: method, Err: err}
	}
	opts.Context = ctx
	opts.Value = value

	tx, err := c.contract.Transact(opts, method, args...)
	metrics.ObserveLedgerCall(method, err)
	if err != nil {
		return TxHandle{}, &errs.SubmissionError{Op: method, Err: err}
	}

	h := TxHandle{
		Hash:        tx.Hash().Hex(),
		Kind:        kind,
		PacketID:    packetID,
		SubmittedAt: time.Now(),
	}

	logger.Info().
		Str("tx", h.Hash).
		Str("method", method).
		Str("packet_id", packetID).
		Msg("交易已提交")

	return h, nil
}
