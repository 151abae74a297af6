package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"
	"github.com/lmittmann/w3/w3types"
)

var (
	funcOwner          = w3.MustNewFunc("owner()", "address")
	funcPresaleStarted = w3.MustNewFunc("presaleStarted()", "bool")
	funcPresaleEnded   = w3.MustNewFunc("presaleEnded()", "uint256")
	funcTokenIds       = w3.MustNewFunc("tokenIds()", "uint256")
)

// ErrReverted is returned by WaitMined when the transaction was mined with a
// failed status.
var ErrReverted = errors.New("contract: transaction reverted")

// Backend is what the bound contract needs from a node connection.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// CryptoDevs is a gateway bound to one deployed CryptoDevs contract.
type CryptoDevs struct {
	address common.Address
	abi     abi.ABI
	bound   *bind.BoundContract
	backend Backend
	reader  *w3.Client
}

// New binds the contract at addr. backend carries writes and receipts,
// reader carries the batched eth_call reads.
func New(addr common.Address, backend Backend, reader *w3.Client) (*CryptoDevs, error) {
	parsed, err := abi.JSON(strings.NewReader(CryptoDevsABI))
	if err != nil {
		return nil, fmt.Errorf("contract: parse abi: %w", err)
	}
	return &CryptoDevs{
		address: addr,
		abi:     parsed,
		bound:   bind.NewBoundContract(addr, parsed, backend, backend, backend),
		backend: backend,
		reader:  reader,
	}, nil
}

// Address returns the contract address.
func (c *CryptoDevs) Address() common.Address { return c.address }

func (c *CryptoDevs) call(ctx context.Context, calls ...w3types.RPCCaller) error {
	if err := c.reader.CallCtx(ctx, calls...); err != nil {
		return fmt.Errorf("contract: eth_call %s: %w", c.address.Hex(), err)
	}
	return nil
}

// ──────────────────────────────────────────────
//  Read methods
// ──────────────────────────────────────────────

func (c *CryptoDevs) Owner(ctx context.Context) (common.Address, error) {
	var owner common.Address
	if err := c.call(ctx, eth.CallFunc(c.address, funcOwner).Returns(&owner)); err != nil {
		return common.Address{}, err
	}
	return owner, nil
}

func (c *CryptoDevs) PresaleStarted(ctx context.Context) (bool, error) {
	var started bool
	if err := c.call(ctx, eth.CallFunc(c.address, funcPresaleStarted).Returns(&started)); err != nil {
		return false, err
	}
	return started, nil
}

// PresaleEnded returns the presale end timestamp in seconds. The contract
// names the getter after the field, not after a boolean.
func (c *CryptoDevs) PresaleEnded(ctx context.Context) (uint64, error) {
	var end big.Int
	if err := c.call(ctx, eth.CallFunc(c.address, funcPresaleEnded).Returns(&end)); err != nil {
		return 0, err
	}
	return end.Uint64(), nil
}

func (c *CryptoDevs) TokenIDs(ctx context.Context) (uint64, error) {
	var ids big.Int
	if err := c.call(ctx, eth.CallFunc(c.address, funcTokenIds).Returns(&ids)); err != nil {
		return 0, err
	}
	return ids.Uint64(), nil
}

// Snapshot reads owner, presale window and token counter in one batch.
func (c *CryptoDevs) Snapshot(ctx context.Context) (*Snapshot, error) {
	var (
		snap     Snapshot
		end, ids big.Int
	)
	err := c.call(ctx,
		eth.CallFunc(c.address, funcOwner).Returns(&snap.Owner),
		eth.CallFunc(c.address, funcPresaleStarted).Returns(&snap.PresaleStarted),
		eth.CallFunc(c.address, funcPresaleEnded).Returns(&end),
		eth.CallFunc(c.address, funcTokenIds).Returns(&ids),
	)
	if err != nil {
		return nil, err
	}
	snap.PresaleEnd = end.Uint64()
	snap.TokenIDs = ids.Uint64()
	return &snap, nil
}

// ──────────────────────────────────────────────
//  Write methods
// ──────────────────────────────────────────────

// StartPresale opens the presale window (owner only).
func (c *CryptoDevs) StartPresale(opts *bind.TransactOpts) (*types.Transaction, error) {
	return c.bound.Transact(opts, "startPresale")
}

// PresaleMint mints one token for a whitelisted caller. opts.Value must
// carry the price.
func (c *CryptoDevs) PresaleMint(opts *bind.TransactOpts) (*types.Transaction, error) {
	return c.bound.Transact(opts, "presaleMint")
}

// Mint mints one token after presale has ended. opts.Value must carry the
// price.
func (c *CryptoDevs) Mint(opts *bind.TransactOpts) (*types.Transaction, error) {
	return c.bound.Transact(opts, "mint")
}

// WaitMined blocks until tx is mined or ctx is done.
func (c *CryptoDevs) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("contract: wait mined %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s", ErrReverted, tx.Hash().Hex())
	}
	return receipt, nil
}
