package ledger

import (
	"context"
	"encoding/hex"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-co-op/gocron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smysle/redpacket-go/internal/errs"
)

const contractAddr = "0x00000000000000000000000000000000000000c0"

// fakeBackend 只实现 hasUserClaimed 调用需要的方法
type fakeBackend struct {
	Backend
	claimed bool
	calls   []ethereum.CallMsg
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	parsed, err := abi.JSON(strings.NewReader(RedPacketABI))
	if err != nil {
		return nil, err
	}
	return parsed.Methods[methodHasClaimed].Outputs.Pack(f.claimed)
}

func (f *fakeBackend) CodeAt(ctx context.Context, account common.Address, block *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func TestHasClaimed(t *testing.T) {
	backend := &fakeBackend{claimed: true}
	c, err := New(backend, Options{Contract: contractAddr, ChainID: 97}, nil)
	require.NoError(t, err)

	viewer := "0x00000000000000000000000000000000000000aa"
	claimed, err := c.HasClaimed(context.Background(), big.NewInt(7), viewer)
	require.NoError(t, err)
	assert.True(t, claimed)

	require.Len(t, backend.calls, 1)
	parsed, err := abi.JSON(strings.NewReader(RedPacketABI))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(contractAddr), *backend.calls[0].To)
	assert.Equal(t, parsed.Methods[methodHasClaimed].ID, backend.calls[0].Data[:4])
}

func TestHasClaimed_InvalidViewer(t *testing.T) {
	backend := &fakeBackend{}
	c, err := New(backend, Options{Contract: contractAddr}, nil)
	require.NoError(t, err)

	_, err = c.HasClaimed(context.Background(), big.NewInt(1), "bob")
	require.Error(t, err)
	assert.True(t, errs.IsQuery(err))
	assert.Empty(t, backend.calls)
}

func TestReadOnlyClientRefusesWrites(t *testing.T) {
	c, err := New(&fakeBackend{}, Options{Contract: contractAddr}, nil)
	require.NoError(t, err)
	assert.Empty(t, c.Address())

	_, err = c.ClaimPacket(context.Background(), big.NewInt(1))
	require.Error(t, err)
	assert.True(t, errs.IsSubmission(err))
	assert.ErrorIs(t, err, ErrReadOnly)

	_, err = c.CreatePacket(context.Background(), big.NewInt(3), big.NewInt(1e15))
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestNew_SignerAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	c, err := New(&fakeBackend{}, Options{
		Contract:   contractAddr,
		ChainID:    97,
		PrivateKey: "0x" + hex.EncodeToString(crypto.FromECDSA(key)),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), c.Address())
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(&fakeBackend{}, Options{Contract: "nope"}, nil)
	assert.Error(t, err)

	_, err = New(&fakeBackend{}, Options{Contract: contractAddr, PrivateKey: "zz"}, nil)
	assert.Error(t, err)
}

// fakeFetcher 前 pending 次返回 NotFound，之后返回指定状态的回执
type fakeFetcher struct {
	mu      sync.Mutex
	pending int
	status  uint64
	calls   int
}

func (f *fakeFetcher) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.pending {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{Status: f.status, BlockNumber: big.NewInt(42), TxHash: hash}, nil
}

func newCron(t *testing.T) *gocron.Scheduler {
	t.Helper()
	s := gocron.NewScheduler(time.UTC)
	s.StartAsync()
	t.Cleanup(s.Stop)
	return s
}

func collect(t *testing.T, ch <-chan TxEvent) []TxEvent {
	t.Helper()
	var events []TxEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("等待交易事件超时，已收到 %d 个", len(events))
			return events
		}
	}
}

func TestWatcher_Confirmed(t *testing.T) {
	fetcher := &fakeFetcher{pending: 2, status: types.ReceiptStatusSuccessful}
	w := NewWatcher(newCron(t), fetcher, 10*time.Millisecond)

	h := TxHandle{Hash: "0x01", Kind: TxClaim, PacketID: "7"}
	events := collect(t, w.Watch(context.Background(), h))

	require.Len(t, events, 2)
	assert.Equal(t, TxPending, events[0].Status)
	assert.Equal(t, TxConfirmed, events[1].Status)
	assert.Equal(t, uint64(42), events[1].BlockNumber)
	assert.Equal(t, "7", events[1].Handle.PacketID)
	assert.True(t, events[1].Status.Terminal())
}

func TestWatcher_Reverted(t *testing.T) {
	fetcher := &fakeFetcher{status: types.ReceiptStatusFailed}
	w := NewWatcher(newCron(t), fetcher, 10*time.Millisecond)

	events := collect(t, w.Watch(context.Background(), TxHandle{Hash: "0x02", Kind: TxCreate}))
	require.Len(t, events, 2)
	assert.Equal(t, TxFailed, events[1].Status)
	assert.ErrorIs(t, events[1].Err, ErrReverted)
}

func TestWatcher_ContextCancelled(t *testing.T) {
	fetcher := &fakeFetcher{pending: 1 << 30}
	w := NewWatcher(newCron(t), fetcher, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	ch := w.Watch(ctx, TxHandle{Hash: "0x03", Kind: TxClaim})
	cancel()

	events := collect(t, ch)
	require.Len(t, events, 2)
	assert.Equal(t, TxFailed, events[1].Status)
	assert.ErrorIs(t, events[1].Err, context.Canceled)
}
