package api

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cryptodevs/nftmint/internal/actions"
	"github.com/cryptodevs/nftmint/internal/ledger"
	"github.com/cryptodevs/nftmint/internal/metadata"
	"github.com/cryptodevs/nftmint/internal/mintstate"
)

// Actions are the user-triggered operations. *actions.Handlers implements it.
type Actions interface {
	Connect(ctx context.Context) (mintstate.State, error)
	StartPresale(ctx context.Context) (*actions.Result, error)
	PresaleMint(ctx context.Context) (*actions.Result, error)
	Mint(ctx context.Context) (*actions.Result, error)
}

// TxLister pages through recorded transactions. *ledger.DB implements it.
type TxLister interface {
	ListTxs(limit, offset int) ([]ledger.Tx, error)
}

// StateResponse is the body of GET /dapp/state.
type StateResponse struct {
	State mintstate.State        `json:"state"`
	View  mintstate.Presentation `json:"view"`
}

// ActionResponse is the body of a successful action.
type ActionResponse struct {
	Result *actions.Result        `json:"result,omitempty"`
	State  mintstate.State        `json:"state"`
	View   mintstate.Presentation `json:"view"`
}

// Handler holds API route handlers.
type Handler struct {
	deps Deps
	page *pageRenderer
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	if d.Metadata == nil {
		d.Metadata = metadata.NewResponder(metadata.DefaultCollection())
	}
	return &Handler{deps: d, page: newPageRenderer()}
}

func (h *Handler) snapshot() StateResponse {
	s := h.deps.Store.State()
	return StateResponse{State: s, View: mintstate.Present(mintstate.Render(s))}
}

// TokenMetadata handles GET /api/{tokenId}.
//
//	@Summary		Token metadata
//	@Tags			metadata
//	@Produce		json
//	@Param			tokenId	path		string	true	"Token ID"
//	@Success		200		{object}	metadata.Document
//	@Router			/api/{tokenId} [get]
func (h *Handler) TokenMetadata(w http.ResponseWriter, r *http.Request) {
	// chi routes on RawPath when it is set, leaving the param escaped;
	// otherwise the param comes from the already decoded Path.
	tokenID := chi.URLParam(r, "tokenId")
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(tokenID); err == nil {
			tokenID = decoded
		}
	}
	writeJSON(w, http.StatusOK, h.deps.Metadata.Respond(tokenID))
}

// State handles GET /dapp/state.
//
//	@Summary		Current mint state and rendered view
//	@Tags			dapp
//	@Produce		json
//	@Success		200	{object}	StateResponse
//	@Router			/dapp/state [get]
func (h *Handler) State(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot())
}

// ListTransactions handles GET /dapp/transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	if h.deps.Ledger == nil {
		writeJSON(w, http.StatusOK, map[string]any{"transactions": []ledger.Tx{}})
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	txs, err := h.deps.Ledger.ListTxs(limit, offset)
	if err != nil {
		slog.Error("list transactions failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

// Connect handles POST /dapp/connect.
//
//	@Summary		Connect the wallet and load the sale state
//	@Tags			dapp
//	@Produce		json
//	@Success		200	{object}	ActionResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/dapp/connect [post]
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	_, err := h.deps.Actions.Connect(r.Context())
	h.respond(w, r, nil, err)
}

// StartPresale handles POST /dapp/presale/start.
func (h *Handler) StartPresale(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Actions.StartPresale(r.Context())
	h.respond(w, r, res, err)
}

// PresaleMint handles POST /dapp/presale/mint.
func (h *Handler) PresaleMint(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Actions.PresaleMint(r.Context())
	h.respond(w, r, res, err)
}

// Mint handles POST /dapp/mint.
func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Actions.Mint(r.Context())
	h.respond(w, r, res, err)
}

// respond answers JSON clients with the outcome, and browsers that posted
// the page's form with a redirect back to the page.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, res *actions.Result, err error) {
	if isFormPost(r) {
		target := "/"
		if err != nil {
			_, msg := actionError(err)
			target += "?error=" + url.QueryEscape(msg)
		} else if res != nil && (res.Method == actions.MethodMint || res.Method == actions.MethodPresaleMint) {
			target += "?minted=1"
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	if err != nil {
		status, msg := actionError(err)
		writeJSON(w, status, errorBody(msg))
		return
	}
	snap := h.snapshot()
	writeJSON(w, http.StatusOK, ActionResponse{Result: res, State: snap.State, View: snap.View})
}

func isFormPost(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}
