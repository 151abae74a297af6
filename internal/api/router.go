package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/cryptodevs/nftmint/internal/metadata"
	"github.com/cryptodevs/nftmint/internal/mintstate"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Store    *mintstate.Store
	Actions  Actions
	Ledger   TxLister
	Metadata *metadata.Responder
	// Events, if non-nil, is mounted at GET /dapp/events.
	Events http.Handler

	Contract common.Address
	ChainID  uint64

	AuthEnabled bool
	Token       string
}

// NewRouter creates a chi router with the page, the metadata endpoint and
// the dapp API. Only the state-changing action routes require auth.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d)

	r := chi.NewRouter()

	// Server-rendered page.
	r.Get("/", h.Page)

	// Token metadata (public, always 200).
	r.Get("/api/{tokenId}", h.TokenMetadata)

	r.Route("/dapp", func(r chi.Router) {
		r.Get("/state", h.State)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/qr.png", h.QRCode)
		if d.Events != nil {
			r.Get("/events", d.Events.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.AuthEnabled, d.Token))
			r.Post("/connect", h.Connect)
			r.Post("/presale/start", h.StartPresale)
			r.Post("/presale/mint", h.PresaleMint)
			r.Post("/mint", h.Mint)
		})
	})

	return r
}
