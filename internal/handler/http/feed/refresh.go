package feed

import (
	"log/slog"
	"net/http"

	"postlabor-feed/internal/handler/http/requestid"
	"postlabor-feed/internal/handler/http/respond"
)

// RefreshHandler serves POST /feed/refresh. Logger may be nil.
type RefreshHandler struct {
	Ctrl   Controller
	Logger *slog.Logger
}

// ServeHTTP schedules a refresh and returns immediately.
// @Summary      Refresh the feed
// @Description  Issues a new fetch. The result is applied asynchronously; poll GET /feed for the outcome.
// @Tags         feed
// @Produce      json
// @Success      202 {object} RefreshDTO "Refresh scheduled"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Router       /feed/refresh [post]
func (h RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Ctrl.Refresh(r.Context())
	if h.Logger != nil {
		h.Logger.Info("manual refresh requested",
			slog.String("request_id", requestid.FromContext(r.Context())))
	}
	respond.JSON(w, http.StatusAccepted, RefreshDTO{Status: "refresh scheduled"})
}
