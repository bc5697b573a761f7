package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers the client-area routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler, auth func(http.Handler) http.Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.Handle("POST /module/clientarea", auth(http.HandlerFunc(h.ClientArea)))
}
