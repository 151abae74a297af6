// Package actions implements the user-triggered operations of the dapp:
// connecting the wallet, starting the presale and minting.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/cryptodevs/nftmint/internal/apperr"
	"github.com/cryptodevs/nftmint/internal/contract"
	"github.com/cryptodevs/nftmint/internal/ledger"
	"github.com/cryptodevs/nftmint/internal/metrics"
	"github.com/cryptodevs/nftmint/internal/mintstate"
	"github.com/cryptodevs/nftmint/internal/session"
)

// Method names as they appear in the ledger and metrics.
const (
	MethodStartPresale = "startPresale"
	MethodPresaleMint  = "presaleMint"
	MethodMint         = "mint"
)

// Acquirer hands out contract connections. *session.Provider implements it.
type Acquirer interface {
	Acquire(ctx context.Context, requireSigner bool) (*session.Connection, error)
}

// Refresher forces a state poll. *poller.Poller implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Notifier receives one-shot user notifications.
type Notifier interface {
	PublishMint(txHash string)
}

// Result describes a mined transaction.
type Result struct {
	Method string `json:"method"`
	TxHash string `json:"txHash"`
	Block  uint64 `json:"block"`
}

// Handlers runs actions against the contract and keeps the store in step.
type Handlers struct {
	sessions  Acquirer
	store     *mintstate.Store
	refresher Refresher
	recorder  ledger.Recorder
	notifier  Notifier
	txTimeout time.Duration
	logger    *slog.Logger
}

// Option configures Handlers.
type Option func(*Handlers)

// WithRefresher sets the poller used after successful actions.
func WithRefresher(r Refresher) Option {
	return func(h *Handlers) { h.refresher = r }
}

// WithRecorder persists every submitted transaction.
func WithRecorder(r ledger.Recorder) Option {
	return func(h *Handlers) { h.recorder = r }
}

// WithNotifier sets who is told about successful mints.
func WithNotifier(n Notifier) Option {
	return func(h *Handlers) { h.notifier = n }
}

// WithTxTimeout bounds submission plus mining of one transaction.
func WithTxTimeout(d time.Duration) Option {
	return func(h *Handlers) { h.txTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handlers) { h.logger = l }
}

// New returns handlers with a 5 minute transaction timeout.
func New(sessions Acquirer, store *mintstate.Store, opts ...Option) *Handlers {
	h := &Handlers{
		sessions:  sessions,
		store:     store,
		txTimeout: 5 * time.Minute,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Connect establishes the session, resolves whether the wallet owns the
// contract and polls the sale state once.
func (h *Handlers) Connect(ctx context.Context) (mintstate.State, error) {
	conn, err := h.sessions.Acquire(ctx, false)
	if err != nil {
		h.logger.Error("actions: connect failed", slog.String("error", err.Error()))
		return h.store.State(), err
	}

	owner, err := conn.Gateway.Owner(ctx)
	if err != nil {
		h.logger.Error("actions: read owner failed", slog.String("error", err.Error()))
	} else {
		isOwner := conn.Address != (common.Address{}) && owner == conn.Address
		if _, err := h.store.Dispatch(mintstate.OwnerResolved(isOwner)); err != nil {
			return h.store.State(), err
		}
	}

	h.refresh(ctx)
	return h.store.State(), nil
}

// StartPresale opens the presale. Only the contract owner can do this;
// the contract rejects anyone else.
func (h *Handlers) StartPresale(ctx context.Context) (*Result, error) {
	res, err := h.run(ctx, MethodStartPresale, nil, contract.Writer.StartPresale)
	if err != nil {
		return nil, err
	}
	h.refresh(ctx)
	return res, nil
}

// PresaleMint mints one token for a whitelisted wallet during presale.
func (h *Handlers) PresaleMint(ctx context.Context) (*Result, error) {
	return h.mint(ctx, MethodPresaleMint, contract.Writer.PresaleMint)
}

// Mint mints one token after presale has ended.
func (h *Handlers) Mint(ctx context.Context) (*Result, error) {
	return h.mint(ctx, MethodMint, contract.Writer.Mint)
}

type sendFunc func(contract.Writer, *bind.TransactOpts) (*types.Transaction, error)

func (h *Handlers) mint(ctx context.Context, method string, send sendFunc) (*Result, error) {
	res, err := h.run(ctx, method, contract.Price(), send)
	if err != nil {
		return nil, err
	}
	if h.notifier != nil {
		h.notifier.PublishMint(res.TxHash)
	}
	h.refresh(ctx)
	return res, nil
}

// run submits one transaction inside the loading window. Loading is always
// cleared before run returns.
func (h *Handlers) run(ctx context.Context, method string, value *big.Int, send sendFunc) (*Result, error) {
	conn, err := h.sessions.Acquire(ctx, true)
	if err != nil {
		h.logger.Error("actions: acquire signer failed", slog.String("method", method), slog.String("error", err.Error()))
		return nil, err
	}

	if _, err := h.store.Dispatch(mintstate.ActionStarted()); err != nil {
		return nil, err
	}
	defer func() {
		if _, err := h.store.Dispatch(mintstate.ActionFinished()); err != nil {
			h.logger.Error("actions: leave loading", slog.String("error", err.Error()))
		}
	}()

	txCtx, cancel := context.WithTimeout(ctx, h.txTimeout)
	defer cancel()

	opts := conn.Signer
	opts.Context = txCtx
	opts.Value = value

	log := h.logger.With(slog.String("method", method), slog.String("from", opts.From.Hex()))

	tx, err := send(conn.Gateway, opts)
	if err != nil {
		metrics.TxFailed.WithLabelValues(method).Inc()
		log.Error("actions: submit failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", method, apperr.ErrTxFailed)
	}
	submitted := time.Now()
	metrics.TxSubmitted.WithLabelValues(method).Inc()
	hash := tx.Hash().Hex()
	log.Info("actions: submitted", slog.String("tx", hash))

	h.record(ledger.Tx{
		Hash:     hash,
		Method:   method,
		Sender:   opts.From.Hex(),
		ValueWei: tx.Value().String(),
	})

	receipt, err := conn.Gateway.WaitMined(txCtx, tx)
	if err != nil {
		metrics.TxFailed.WithLabelValues(method).Inc()
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timed out waiting for receipt"
		}
		log.Error("actions: not mined", slog.String("tx", hash), slog.String("error", reason))
		h.fail(hash, reason)
		return nil, fmt.Errorf("%s: %w", method, apperr.ErrTxFailed)
	}
	metrics.TxConfirmDuration.Observe(time.Since(submitted).Seconds())

	var block uint64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	log.Info("actions: mined", slog.String("tx", hash), slog.Uint64("block", block))
	h.confirm(hash, block)

	return &Result{Method: method, TxHash: hash, Block: block}, nil
}

func (h *Handlers) refresh(ctx context.Context) {
	if h.refresher == nil {
		return
	}
	if err := h.refresher.Refresh(ctx); err != nil {
		h.logger.Warn("actions: refresh failed", slog.String("error", err.Error()))
	}
}

func (h *Handlers) record(t ledger.Tx) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.RecordTx(t); err != nil {
		h.logger.Warn("actions: ledger record failed", slog.String("tx", t.Hash), slog.String("error", err.Error()))
	}
}

func (h *Handlers) confirm(hash string, block uint64) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.ConfirmTx(hash, block); err != nil {
		h.logger.Warn("actions: ledger confirm failed", slog.String("tx", hash), slog.String("error", err.Error()))
	}
}

func (h *Handlers) fail(hash, reason string) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.FailTx(hash, reason); err != nil {
		h.logger.Warn("actions: ledger update failed", slog.String("tx", hash), slog.String("error", err.Error()))
	}
}
