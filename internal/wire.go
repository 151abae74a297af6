package internal

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/cryptodevs/nftmint/internal/metadata"
	"github.com/cryptodevs/nftmint/internal/mintstate"
	"github.com/cryptodevs/nftmint/internal/poller"
	"github.com/cryptodevs/nftmint/internal/session"
	pkgconfig "github.com/cryptodevs/nftmint/pkg/config"
)

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// newKeyring returns nil when the wallet section is empty, which makes
// every connection read-only.
func newKeyring(cfg WalletConfig) (session.Keyring, error) {
	switch {
	case cfg.PrivateKey != "":
		return session.NewHexKeyring(cfg.PrivateKey)
	case cfg.KeystorePath != "":
		pass := []byte(cfg.Passphrase)
		if len(pass) == 0 {
			var err error
			if pass, err = session.PromptPassphrase(); err != nil {
				return nil, err
			}
		}
		return session.NewKeystoreKeyring(cfg.KeystorePath, pass)
	default:
		return nil, nil
	}
}

// chainStack is the session provider and poller every command that talks
// to the deployed contract shares.
type chainStack struct {
	store    *mintstate.Store
	sessions *session.Provider
	poller   *poller.Poller
}

func newChainStack(cfg *Config, logger *slog.Logger, opts ...session.Option) (*chainStack, error) {
	addr, err := cfg.Chain.Contract()
	if err != nil {
		return nil, err
	}
	keyring, err := newKeyring(cfg.Wallet)
	if err != nil {
		return nil, fmt.Errorf("init wallet: %w", err)
	}

	store := mintstate.NewStore()
	opts = append(opts, session.WithLogger(logger))
	if keyring != nil {
		opts = append(opts, session.WithKeyring(keyring))
	}
	sessions := session.NewProvider(session.EthDialer(cfg.Chain.RPCURL, addr), cfg.Chain.ChainID, store, opts...)

	p := poller.New(sessions, store,
		poller.WithInterval(cfg.Poller.Interval),
		poller.WithReadTimeout(cfg.Poller.ReadTimeout),
		poller.WithLogger(logger),
	)
	return &chainStack{store: store, sessions: sessions, poller: p}, nil
}

func collection(cfg MetadataConfig) metadata.Collection {
	return metadata.Collection{
		NamePrefix:  cfg.NamePrefix,
		Description: cfg.Description,
		ImageBase:   cfg.ImageBaseURL,
		ImageExt:    cfg.ImageExt,
	}.WithDefaults()
}

// loadCollection re-reads the metadata section of the config file at path.
func loadCollection(path string) (metadata.Collection, error) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		return metadata.Collection{}, err
	}
	return collection(cfg.Metadata), nil
}
