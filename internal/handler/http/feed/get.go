package feed

import (
	"fmt"
	"net/http"

	"postlabor-feed/internal/domain/entity"
	"postlabor-feed/internal/handler/http/pathutil"
	"postlabor-feed/internal/handler/http/respond"
)

// SnapshotHandler serves GET /feed from the controller's current snapshot.
type SnapshotHandler struct{ Ctrl Controller }

// ServeHTTP returns the current feed snapshot.
// @Summary      Current feed state
// @Description  Returns the phase, the held batch, the selection and the refresh state. No backend call is made.
// @Tags         feed
// @Produce      json
// @Success      200 {object} SnapshotDTO "Feed snapshot"
// @Router       /feed [get]
func (h SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, toSnapshotDTO(h.Ctrl.Snapshot()))
}

// ItemHandler serves GET /feed/items/{id} from the held batch.
type ItemHandler struct{ Ctrl Controller }

// ServeHTTP returns one item of the held batch.
// @Summary      Feed item
// @Description  Looks the id up in the currently held batch. No backend call is made.
// @Tags         feed
// @Produce      json
// @Param        id path int true "Item ID"
// @Success      200 {object} ItemDTO "Item"
// @Failure      400 {string} string "Bad request - invalid item ID"
// @Failure      404 {string} string "Not found - item is not in the held batch"
// @Router       /feed/items/{id} [get]
func (h ItemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	item, ok := entity.FindItem(h.Ctrl.Snapshot().Items, id)
	if !ok {
		respond.SafeError(w, http.StatusNotFound, fmt.Errorf("item %d: %w", id, entity.ErrNotFound))
		return
	}
	respond.JSON(w, http.StatusOK, NewItemDTO(item))
}
