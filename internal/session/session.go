// Package session owns the wallet connection: it dials the node once,
// enforces the required chain, and hands out read-only or signing
// connections to the contract.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/cryptodevs/nftmint/internal/apperr"
	"github.com/cryptodevs/nftmint/internal/contract"
	"github.com/cryptodevs/nftmint/internal/mintstate"
)

// Node is a dialled RPC endpoint with the contract bound to it.
type Node interface {
	ChainID(ctx context.Context) (*big.Int, error)
	Gateway() contract.Gateway
	Close()
}

// Dialer opens a Node. It is called at most once per successful Provider.
type Dialer func(ctx context.Context) (Node, error)

// AlertFunc is told about a chain mismatch so it can be surfaced to the user.
type AlertFunc func(want, got uint64)

// Connection is the handle returned by Acquire. Signer is nil for
// read-only connections.
type Connection struct {
	Gateway contract.Gateway
	ChainID *big.Int
	Address common.Address
	Signer  *bind.TransactOpts
}

// ReadOnly reports whether the connection can sign.
func (c *Connection) ReadOnly() bool { return c.Signer == nil }

// Provider lazily establishes and caches the node connection.
type Provider struct {
	dial    Dialer
	keyring Keyring
	chainID uint64
	store   *mintstate.Store
	alert   AlertFunc
	logger  *slog.Logger

	mu    sync.Mutex
	node  Node
	chain *big.Int
}

// Option configures a Provider.
type Option func(*Provider)

// WithKeyring sets the signing wallet. Without one only read-only
// connections are available.
func WithKeyring(k Keyring) Option {
	return func(p *Provider) { p.keyring = k }
}

// WithAlert sets the wrong-network callback.
func WithAlert(fn AlertFunc) Option {
	return func(p *Provider) { p.alert = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider returns a provider that requires chainID and records the
// connection in store.
func NewProvider(dial Dialer, chainID uint64, store *mintstate.Store, opts ...Option) *Provider {
	p := &Provider{
		dial:    dial,
		chainID: chainID,
		store:   store,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Address returns the wallet address, or the zero address without a keyring.
func (p *Provider) Address() common.Address {
	if p.keyring == nil {
		return common.Address{}
	}
	return p.keyring.Address()
}

// Acquire returns a connection to the contract, dialling on first use.
// A chain mismatch fails with apperr.ErrWrongNetwork and is never retried
// here; the operator has to point the service at the right node.
func (p *Provider) Acquire(ctx context.Context, requireSigner bool) (*Connection, error) {
	node, chain, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}

	if !chain.IsUint64() || chain.Uint64() != p.chainID {
		got := chain.Uint64()
		p.logger.Error("session: wrong network",
			slog.Uint64("want_chain_id", p.chainID),
			slog.Uint64("got_chain_id", got))
		if p.alert != nil {
			p.alert(p.chainID, got)
		}
		return nil, fmt.Errorf("%w: change the network to chain %d (node reports %d)", apperr.ErrWrongNetwork, p.chainID, got)
	}

	conn := &Connection{
		Gateway: node.Gateway(),
		ChainID: new(big.Int).Set(chain),
		Address: p.Address(),
	}

	if requireSigner {
		if p.keyring == nil {
			return nil, apperr.ErrNoSigner
		}
		opts, err := p.keyring.TransactOpts(conn.ChainID)
		if err != nil {
			return nil, fmt.Errorf("session: signer: %w", err)
		}
		opts.Context = ctx
		conn.Signer = opts
	}

	if _, err := p.store.Dispatch(mintstate.Connected(conn.Address.Hex())); err != nil {
		return nil, err
	}
	return conn, nil
}

func (p *Provider) connect(ctx context.Context) (Node, *big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.node != nil {
		return p.node, p.chain, nil
	}

	node, err := p.dial(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("session: dial: %w", err)
	}
	chain, err := node.ChainID(ctx)
	if err != nil {
		node.Close()
		return nil, nil, fmt.Errorf("session: chain id: %w", err)
	}

	p.node = node
	p.chain = chain
	p.logger.Info("session: connected", slog.String("chain_id", chain.String()))
	return node, chain, nil
}

// Close releases the node connection, if any.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.node != nil {
		p.node.Close()
		p.node = nil
	}
}
