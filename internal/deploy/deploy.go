// Package deploy creates a new CryptoDevs contract on chain.
package deploy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/cryptodevs/nftmint/internal/checksum"
	"github.com/cryptodevs/nftmint/internal/contract"
	"github.com/cryptodevs/nftmint/internal/ledger"
)

// Params are the constructor arguments.
type Params struct {
	// MetadataURL is the base URI tokens resolve their metadata under.
	MetadataURL string
	// Whitelist is the address of the previously deployed whitelist contract.
	Whitelist common.Address
}

// Recorder stores the outcome of a deployment. *ledger.DB implements it.
type Recorder interface {
	RecordDeployment(d ledger.Deployment) error
}

// Result describes a mined deployment.
type Result struct {
	Address  common.Address
	TxHash   common.Hash
	Block    uint64
	Checksum string
}

// Deployer sends the creation transaction and waits for it.
type Deployer struct {
	backend  contract.Backend
	chainID  uint64
	recorder Recorder
	timeout  time.Duration
	out      io.Writer
	logger   *slog.Logger
}

// Option configures a Deployer.
type Option func(*Deployer)

// WithRecorder persists successful deployments.
func WithRecorder(r Recorder) Option {
	return func(d *Deployer) { d.recorder = r }
}

// WithTimeout bounds submission plus mining.
func WithTimeout(t time.Duration) Option {
	return func(d *Deployer) { d.timeout = t }
}

// WithOutput sets where the contract address is printed.
func WithOutput(w io.Writer) Option {
	return func(d *Deployer) { d.out = w }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Deployer) { d.logger = l }
}

// New returns a deployer for the chain behind backend.
func New(backend contract.Backend, chainID uint64, opts ...Option) *Deployer {
	d := &Deployer{
		backend: backend,
		chainID: chainID,
		timeout: 5 * time.Minute,
		out:     os.Stdout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deploy creates one new contract instance. Every call deploys a fresh,
// independent contract.
func (d *Deployer) Deploy(ctx context.Context, signer *bind.TransactOpts, art *Artifact, p Params) (*Result, error) {
	parsed, code, err := art.Parse()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	signer.Context = ctx

	addr, tx, _, err := bind.DeployContract(signer, parsed, code, d.backend, p.MetadataURL, p.Whitelist)
	if err != nil {
		return nil, fmt.Errorf("deploy: send: %w", err)
	}
	d.logger.Info("deploy: submitted",
		slog.String("tx", tx.Hash().Hex()),
		slog.String("address", addr.Hex()))
	fmt.Fprintln(d.out, "Crypto Devs Contract Address:", addr.Hex())

	receipt, err := bind.WaitMined(ctx, d.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("deploy: wait mined %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("deploy: %s: %w", tx.Hash().Hex(), contract.ErrReverted)
	}

	res := &Result{
		Address:  addr,
		TxHash:   tx.Hash(),
		Checksum: checksum.Code(code),
	}
	if receipt.BlockNumber != nil {
		res.Block = receipt.BlockNumber.Uint64()
	}

	if d.recorder != nil {
		err := d.recorder.RecordDeployment(ledger.Deployment{
			Address:     addr.Hex(),
			TxHash:      tx.Hash().Hex(),
			ChainID:     d.chainID,
			Checksum:    res.Checksum,
			MetadataURL: p.MetadataURL,
			Whitelist:   p.Whitelist.Hex(),
		})
		if err != nil {
			d.logger.Warn("deploy: ledger record failed", slog.String("error", err.Error()))
		}
	}
	return res, nil
}
