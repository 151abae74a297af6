package api

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/cryptodevs/nftmint/internal/mintstate"
)

//go:embed templates/index.html
var templateFS embed.FS

type pageData struct {
	State    mintstate.State
	View     mintstate.Presentation
	Alert    string
	Image    string
	ShowQR   bool
	QRMethod string
}

type pageRenderer struct {
	tmpl *template.Template
}

func newPageRenderer() *pageRenderer {
	return &pageRenderer{
		tmpl: template.Must(template.ParseFS(templateFS, "templates/index.html")),
	}
}

// Page handles GET /, the server-rendered dapp page.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot()
	data := pageData{
		State: snap.State,
		View:  snap.View,
		Image: h.deps.Metadata.Respond("0").Image,
	}

	q := r.URL.Query()
	switch {
	case q.Get("error") != "":
		data.Alert = q.Get("error")
	case q.Get("minted") != "":
		data.Alert = "You successfully minted a Crypto Dev!"
	}

	switch snap.View.View {
	case mintstate.ViewPresaleMint:
		data.ShowQR, data.QRMethod = true, "presaleMint"
	case mintstate.ViewPublicMint:
		data.ShowQR, data.QRMethod = true, "mint"
	}

	var buf bytes.Buffer
	if err := h.page.tmpl.Execute(&buf, data); err != nil {
		slog.Error("render page failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
