// Package contract is the Go gateway to the CryptoDevs sale contract.
// Reads are batched through w3; writes go through a go-ethereum bound contract.
package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

// MaxTokenIDs is the collection cap enforced by the contract.
const MaxTokenIDs = 20

// MintPrice is the value attached to presaleMint and mint: 0.01 ether in wei.
var MintPrice = big.NewInt(params.Ether / 100)

// Price returns a copy of MintPrice so callers can hand it to TransactOpts.
func Price() *big.Int {
	return new(big.Int).Set(MintPrice)
}

// Snapshot is one round-trip read of the sale state.
type Snapshot struct {
	Owner          common.Address
	PresaleStarted bool
	// PresaleEnd is the unix timestamp (seconds) at which presale closes.
	// Zero until startPresale has been mined.
	PresaleEnd uint64
	TokenIDs   uint64
}

// Reader is the read-only half of the gateway.
type Reader interface {
	Owner(ctx context.Context) (common.Address, error)
	PresaleStarted(ctx context.Context) (bool, error)
	PresaleEnded(ctx context.Context) (uint64, error)
	TokenIDs(ctx context.Context) (uint64, error)
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Writer submits state-changing calls. Each returns as soon as the node
// accepted the transaction; WaitMined blocks for its receipt.
type Writer interface {
	StartPresale(opts *bind.TransactOpts) (*types.Transaction, error)
	PresaleMint(opts *bind.TransactOpts) (*types.Transaction, error)
	Mint(opts *bind.TransactOpts) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// Gateway is the full contract surface used by the service.
type Gateway interface {
	Reader
	Writer
}

// Verify *CryptoDevs satisfies Gateway at compile time.
var _ Gateway = (*CryptoDevs)(nil)
