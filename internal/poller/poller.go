// Package poller keeps the mint state in sync with the contract.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/cryptodevs/nftmint/internal/metrics"
	"github.com/cryptodevs/nftmint/internal/mintstate"
	"github.com/cryptodevs/nftmint/internal/session"
)

// Acquirer hands out contract connections. *session.Provider implements it.
type Acquirer interface {
	Acquire(ctx context.Context, requireSigner bool) (*session.Connection, error)
}

// Poller periodically reads the presale window and the minted counter.
// It waits for the session to connect and stops by itself once presale is
// observed both started and ended.
type Poller struct {
	sessions Acquirer
	store    *mintstate.Store
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithReadTimeout bounds the reads of a single tick.
func WithReadTimeout(d time.Duration) Option {
	return func(p *Poller) { p.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// New returns a poller with a 5s interval and a 10s read timeout.
func New(sessions Acquirer, store *mintstate.Store, opts ...Option) *Poller {
	p := &Poller{
		sessions: sessions,
		store:    store,
		interval: 5 * time.Second,
		timeout:  10 * time.Second,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run blocks until ctx is cancelled or presale has ended. Read failures
// are logged and the loop carries on at the next tick.
func (p *Poller) Run(ctx context.Context) error {
	select {
	case <-p.store.Connected():
	case <-ctx.Done():
		return nil
	}

	p.logger.Info("poller: started", slog.Duration("interval", p.interval))
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("poller: tick failed", slog.String("error", err.Error()))
		}
		if finished(p.store.State()) {
			p.logger.Info("poller: presale ended, stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			p.logger.Info("poller: stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Refresh performs one tick immediately. Both read sequences run
// concurrently; a failure in one does not discard the other's result.
func (p *Poller) Refresh(ctx context.Context) error {
	start := time.Now()
	metrics.PollTicks.Inc()
	defer func() { metrics.PollDuration.Observe(time.Since(start).Seconds()) }()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.sessions.Acquire(ctx, false)
	if err != nil {
		metrics.PollErrors.WithLabelValues("session").Inc()
		return fmt.Errorf("poller: acquire: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error { return p.readWindow(ctx, conn) })
	g.Go(func() error { return p.readMinted(ctx, conn) })
	err = g.Wait()

	p.observe()
	return err
}

// Sync reads owner, presale window and minted counter in one batched call
// and applies all three. One-shot readers use it instead of Refresh so the
// owner view is resolved too.
func (p *Poller) Sync(ctx context.Context) error {
	metrics.PollTicks.Inc()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.sessions.Acquire(ctx, false)
	if err != nil {
		metrics.PollErrors.WithLabelValues("session").Inc()
		return fmt.Errorf("poller: acquire: %w", err)
	}

	snap, err := conn.Gateway.Snapshot(ctx)
	if err != nil {
		return p.readFailed("snapshot", err)
	}

	isOwner := conn.Address != (common.Address{}) && snap.Owner == conn.Address
	for _, t := range []mintstate.Transition{
		mintstate.OwnerResolved(isOwner),
		mintstate.PresaleObserved(snap.PresaleStarted, snap.PresaleEnd, p.now()),
		mintstate.MintedObserved(snap.TokenIDs),
	} {
		if _, err := p.store.Dispatch(t); err != nil {
			return err
		}
	}
	p.observe()
	return nil
}

func (p *Poller) observe() {
	s := p.store.State()
	metrics.TokensMinted.Set(float64(s.Minted))
	if s.PresaleStarted && !s.PresaleEnded {
		metrics.PresaleActive.Set(1)
	} else {
		metrics.PresaleActive.Set(0)
	}
}

func (p *Poller) readWindow(ctx context.Context, conn *session.Connection) error {
	if s := p.store.State(); s.PresaleStarted && s.PresaleEnded {
		return nil
	}

	started, err := conn.Gateway.PresaleStarted(ctx)
	if err != nil {
		return p.readFailed("presale_started", err)
	}
	var end uint64
	if started {
		if end, err = conn.Gateway.PresaleEnded(ctx); err != nil {
			return p.readFailed("presale_ended", err)
		}
	}
	_, err = p.store.Dispatch(mintstate.PresaleObserved(started, end, p.now()))
	return err
}

func (p *Poller) readMinted(ctx context.Context, conn *session.Connection) error {
	n, err := conn.Gateway.TokenIDs(ctx)
	if err != nil {
		return p.readFailed("token_ids", err)
	}
	_, err = p.store.Dispatch(mintstate.MintedObserved(n))
	return err
}

func (p *Poller) readFailed(read string, err error) error {
	metrics.PollErrors.WithLabelValues(read).Inc()
	p.logger.Error("poller: read failed", slog.String("read", read), slog.String("error", err.Error()))
	return fmt.Errorf("poller: %s: %w", read, err)
}

func finished(s mintstate.State) bool {
	return s.PresaleStarted && s.PresaleEnded
}
