package feed

import (
	"context"
	"log/slog"
	"net/http"

	feedUC "postlabor-feed/internal/usecase/feed"
)

// Controller is the part of *feed.Controller the handlers use.
type Controller interface {
	Snapshot() feedUC.Snapshot
	Refresh(ctx context.Context)
}

// Register registers the feed routes with mux.
// refreshLimit may be nil to skip rate limiting of POST /feed/refresh.
func Register(mux *http.ServeMux, ctrl Controller, refreshLimit func(http.Handler) http.Handler, logger *slog.Logger) {
	mux.Handle("GET /feed", SnapshotHandler{Ctrl: ctrl})
	mux.Handle("GET /feed/items/{id}", ItemHandler{Ctrl: ctrl})

	var refresh http.Handler = RefreshHandler{Ctrl: ctrl, Logger: logger}
	if refreshLimit != nil {
		refresh = refreshLimit(refresh)
	}
	mux.Handle("POST /feed/refresh", refresh)
}
