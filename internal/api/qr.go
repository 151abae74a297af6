package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/skip2/go-qrcode"

	"github.com/cryptodevs/nftmint/internal/contract"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// mintLink returns an EIP-681 payment link that calls method on the
// contract with the mint price attached.
func (h *Handler) mintLink(method string) string {
	return fmt.Sprintf("ethereum:%s@%d/%s?value=%s",
		h.deps.Contract.Hex(), h.deps.ChainID, method, contract.Price().String())
}

// QRCode handles GET /dapp/qr.png. It encodes a wallet deep link for the
// public mint, or for presaleMint with ?method=presaleMint.
func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	method := "mint"
	if r.URL.Query().Get("method") == "presaleMint" {
		method = "presaleMint"
	}
	size := defaultQRSize
	if s, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && s > 0 {
		size = min(s, maxQRSize)
	}

	qr, err := qrcode.New(h.mintLink(method), qrcode.Medium)
	if err != nil {
		slog.Error("qr encode failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	png, err := qr.PNG(size)
	if err != nil {
		slog.Error("qr png failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
