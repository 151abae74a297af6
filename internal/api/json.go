package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cryptodevs/nftmint/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// actionError maps an action failure to a status and a message that is
// safe to show to the user.
func actionError(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrBusy):
		return http.StatusConflict, "another transaction is in progress"
	case errors.Is(err, apperr.ErrWrongNetwork):
		return http.StatusConflict, err.Error()
	case errors.Is(err, apperr.ErrNotConnected):
		return http.StatusConflict, "wallet is not connected"
	case errors.Is(err, apperr.ErrNoSigner):
		return http.StatusForbidden, "no wallet configured for signing"
	case errors.Is(err, apperr.ErrTxFailed):
		return http.StatusBadGateway, "transaction failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
