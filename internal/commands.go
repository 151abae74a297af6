package internal

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/cryptodevs/nftmint/internal/apperr"
	"github.com/cryptodevs/nftmint/internal/deploy"
	"github.com/cryptodevs/nftmint/internal/ledger"
	"github.com/cryptodevs/nftmint/internal/mcpserver"
	"github.com/cryptodevs/nftmint/internal/metadata"
	"github.com/cryptodevs/nftmint/internal/mintstate"
)

// Deploy sends the CryptoDevs creation transaction once and records the
// result. It is not idempotent: every call deploys a new contract.
func Deploy(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := newLogger(os.Stderr, cfg.App.LogLevel)

	if err := cfg.Deploy.Ready(); err != nil {
		return fmt.Errorf("deploy config: %w", err)
	}
	keyring, err := newKeyring(cfg.Wallet)
	if err != nil {
		return fmt.Errorf("init wallet: %w", err)
	}
	if keyring == nil {
		return apperr.ErrNoSigner
	}

	art, err := deploy.LoadArtifact(cfg.Deploy.ArtifactPath)
	if err != nil {
		return err
	}

	client, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Chain.RPCURL, err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}
	if !chainID.IsUint64() || chainID.Uint64() != cfg.Chain.ChainID {
		return fmt.Errorf("%w: want chain %d, node reports %s", apperr.ErrWrongNetwork, cfg.Chain.ChainID, chainID)
	}

	signer, err := keyring.TransactOpts(chainID)
	if err != nil {
		return fmt.Errorf("signer: %w", err)
	}

	db, err := ledger.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer db.Close()

	d := deploy.New(client, cfg.Chain.ChainID,
		deploy.WithRecorder(db),
		deploy.WithTimeout(cfg.Deploy.Timeout),
		deploy.WithOutput(app.output),
		deploy.WithLogger(logger),
	)
	_, err = d.Deploy(ctx, signer, art, deploy.Params{
		MetadataURL: cfg.Deploy.MetadataURL,
		Whitelist:   common.HexToAddress(cfg.Deploy.WhitelistAddress),
	})
	return err
}

// Status connects once, reads the contract and prints the view the page
// would show.
func Status(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := newLogger(os.Stderr, cfg.App.LogLevel)

	chain, err := newChainStack(cfg, logger)
	if err != nil {
		return err
	}
	defer chain.sessions.Close()

	if err := chain.poller.Sync(ctx); err != nil {
		return err
	}
	s := chain.store.State()

	p := mintstate.Present(mintstate.Render(s))
	fmt.Fprintf(app.output, "Contract:  %s (chain %d)\n", cfg.Chain.ContractAddress, cfg.Chain.ChainID)
	fmt.Fprintf(app.output, "Account:   %s (owner: %t)\n", s.Address, s.IsOwner)
	fmt.Fprintf(app.output, "Minted:    %d/%d have been minted\n", s.Minted, s.Cap)
	fmt.Fprintf(app.output, "Presale:   started=%t ended=%t end=%d\n", s.PresaleStarted, s.PresaleEnded, s.PresaleEnd)
	fmt.Fprintf(app.output, "View:      %s\n", p.View)
	if p.Notice != "" {
		fmt.Fprintf(app.output, "Notice:    %s\n", p.Notice)
	}
	if p.Button != "" {
		fmt.Fprintf(app.output, "Action:    %s (POST %s)\n", p.Button, p.Action)
	}
	return nil
}

// ServeMCP runs the MCP server on stdin/stdout. Logs go to stderr so they
// never interleave with the protocol stream.
func ServeMCP(_ context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := newLogger(os.Stderr, cfg.App.LogLevel)

	db, err := ledger.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer db.Close()

	chain, err := newChainStack(cfg, logger)
	if err != nil {
		return err
	}
	defer chain.sessions.Close()

	srv := mcpserver.New(chain.store, chain.poller, db, metadata.NewResponder(collection(cfg.Metadata)))
	return srv.ServeStdio()
}
