// Package testutil provides shared fakes and helpers for package tests.
package testutil

import (
	"context"
	"math/big"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/cryptodevs/nftmint/internal/contract"
	"github.com/cryptodevs/nftmint/internal/ledger"
)

// TestDB creates a temporary ledger database that is automatically cleaned up.
func TestDB(t *testing.T) *ledger.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "cryptodevs-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := ledger.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SentTx records one write submitted to a FakeGateway.
type SentTx struct {
	Method string
	From   common.Address
	Value  *big.Int
	Tx     *types.Transaction
}

// FakeGateway is an in-memory contract. Mined writes change its state the
// way the real contract would.
type FakeGateway struct {
	mu sync.Mutex

	OwnerAddr common.Address
	Started   bool
	End       uint64
	Minted    uint64
	// PresaleLength is added to the mining time to set End.
	PresaleLength time.Duration

	ReadErr error
	SendErr error
	MineErr error
	// Block, when non-nil, holds WaitMined until it is closed or ctx ends.
	Block chan struct{}

	Sent    []SentTx
	reads   atomic.Int64
	nonce   uint64
	pending map[common.Hash]string
}

var _ contract.Gateway = (*FakeGateway)(nil)

// Reads returns how many read calls were served.
func (g *FakeGateway) Reads() int64 { return g.reads.Load() }

// SetMinted changes the counter under the lock.
func (g *FakeGateway) SetMinted(n uint64) {
	g.mu.Lock()
	g.Minted = n
	g.mu.Unlock()
}

// SetPresale changes the presale window under the lock.
func (g *FakeGateway) SetPresale(started bool, end uint64) {
	g.mu.Lock()
	g.Started = started
	g.End = end
	g.mu.Unlock()
}

// SetReadErr makes every read fail with err (nil clears it).
func (g *FakeGateway) SetReadErr(err error) {
	g.mu.Lock()
	g.ReadErr = err
	g.mu.Unlock()
}

// SentCopy returns the recorded writes.
func (g *FakeGateway) SentCopy() []SentTx {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SentTx(nil), g.Sent...)
}

func (g *FakeGateway) read() error {
	g.reads.Add(1)
	return g.ReadErr
}

func (g *FakeGateway) Owner(context.Context) (common.Address, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.read(); err != nil {
		return common.Address{}, err
	}
	return g.OwnerAddr, nil
}

func (g *FakeGateway) PresaleStarted(context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.read(); err != nil {
		return false, err
	}
	return g.Started, nil
}

func (g *FakeGateway) PresaleEnded(context.Context) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.read(); err != nil {
		return 0, err
	}
	return g.End, nil
}

func (g *FakeGateway) TokenIDs(context.Context) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.read(); err != nil {
		return 0, err
	}
	return g.Minted, nil
}

func (g *FakeGateway) Snapshot(context.Context) (*contract.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.read(); err != nil {
		return nil, err
	}
	return &contract.Snapshot{
		Owner:          g.OwnerAddr,
		PresaleStarted: g.Started,
		PresaleEnd:     g.End,
		TokenIDs:       g.Minted,
	}, nil
}

func (g *FakeGateway) StartPresale(opts *bind.TransactOpts) (*types.Transaction, error) {
	return g.send("startPresale", opts)
}

func (g *FakeGateway) PresaleMint(opts *bind.TransactOpts) (*types.Transaction, error) {
	return g.send("presaleMint", opts)
}

func (g *FakeGateway) Mint(opts *bind.TransactOpts) (*types.Transaction, error) {
	return g.send("mint", opts)
}

func (g *FakeGateway) send(method string, opts *bind.TransactOpts) (*types.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.SendErr != nil {
		return nil, g.SendErr
	}
	value := new(big.Int)
	if opts.Value != nil {
		value.Set(opts.Value)
	}
	raw := types.NewTx(&types.LegacyTx{
		Nonce:    g.nonce,
		Value:    value,
		Gas:      100_000,
		GasPrice: big.NewInt(1),
		Data:     []byte(method),
	})
	g.nonce++
	tx, err := opts.Signer(opts.From, raw)
	if err != nil {
		return nil, err
	}
	if g.pending == nil {
		g.pending = make(map[common.Hash]string)
	}
	g.pending[tx.Hash()] = method
	g.Sent = append(g.Sent, SentTx{Method: method, From: opts.From, Value: value, Tx: tx})
	return tx, nil
}

func (g *FakeGateway) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if g.Block != nil {
		select {
		case <-g.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.MineErr != nil {
		return nil, g.MineErr
	}
	switch g.pending[tx.Hash()] {
	case "startPresale":
		g.Started = true
		length := g.PresaleLength
		if length == 0 {
			length = 5 * time.Minute
		}
		g.End = uint64(time.Now().Add(length).Unix())
	case "presaleMint", "mint":
		g.Minted++
	}
	delete(g.pending, tx.Hash())
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(int64(g.nonce)),
	}, nil
}

// FakeNode is a session.Node backed by a FakeGateway.
type FakeNode struct {
	Chain    *big.Int
	GW       contract.Gateway
	ChainErr error
	Closed   atomic.Bool
}

func (n *FakeNode) ChainID(context.Context) (*big.Int, error) {
	if n.ChainErr != nil {
		return nil, n.ChainErr
	}
	return n.Chain, nil
}

func (n *FakeNode) Gateway() contract.Gateway { return n.GW }

func (n *FakeNode) Close() { n.Closed.Store(true) }
