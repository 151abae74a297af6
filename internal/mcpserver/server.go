// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Crypto Devs sale to LLM tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cryptodevs/nftmint/internal/contract"
	"github.com/cryptodevs/nftmint/internal/ledger"
	"github.com/cryptodevs/nftmint/internal/metadata"
	"github.com/cryptodevs/nftmint/internal/mintstate"
)

const abiResourceURI = "cryptodevs://contract-abi"

// Syncer reads owner, presale window and counter once. *poller.Poller
// implements it.
type Syncer interface {
	Sync(ctx context.Context) error
}

// TxLister pages through recorded transactions. *ledger.DB implements it.
type TxLister interface {
	ListTxs(limit, offset int) ([]ledger.Tx, error)
}

// Server wraps the MCP server with the read-only sale tools.
type Server struct {
	mcp       *server.MCPServer
	store     *mintstate.Store
	syncer    Syncer
	txs       TxLister
	meta      *metadata.Responder
}

// New creates a new MCP server with all tools registered. syncer and txs
// may be nil.
func New(store *mintstate.Store, syncer Syncer, txs TxLister, meta *metadata.Responder) *Server {
	s := &Server{store: store, syncer: syncer, txs: txs, meta: meta}

	s.mcp = server.NewMCPServer(
		"Crypto Devs",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_mint_state",
		mcp.WithDescription("Read the owner, presale window and minted counter from the contract and "+
			"return the current state together with the view a user would see."),
	), s.getMintState)

	s.mcp.AddTool(mcp.NewTool("get_token_metadata",
		mcp.WithDescription("Return the OpenSea metadata document for a token."),
		mcp.WithString("token_id", mcp.Required(), mcp.Description("Token identifier, e.g. 5")),
	), s.getTokenMetadata)

	s.mcp.AddTool(mcp.NewTool("list_transactions",
		mcp.WithDescription("List transactions submitted by this service, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of transactions (default 20)")),
	), s.listTransactions)

	s.mcp.AddResource(
		mcp.NewResource(abiResourceURI, "CryptoDevs contract ABI",
			mcp.WithResourceDescription("ABI of the CryptoDevs sale contract."),
			mcp.WithMIMEType("application/json"),
		),
		s.readABIResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type mintStateResult struct {
	State mintstate.State        `json:"state"`
	View  mintstate.Presentation `json:"view"`
	Price string                 `json:"price_wei"`
}

func (s *Server) getMintState(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.syncer != nil {
		if err := s.syncer.Sync(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	st := s.store.State()
	out, _ := json.MarshalIndent(mintStateResult{
		State: st,
		View:  mintstate.Present(mintstate.Render(st)),
		Price: contract.Price().String(),
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getTokenMetadata(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenID, err := req.RequireString("token_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(s.meta.Respond(tokenID), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTransactions(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.txs == nil {
		return mcp.NewToolResultText("[]"), nil
	}
	limit := req.GetInt("limit", 20)
	txs, err := s.txs.ListTxs(limit, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(txs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readABIResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      abiResourceURI,
			MIMEType: "application/json",
			Text:     contract.CryptoDevsABI,
		},
	}, nil
}
