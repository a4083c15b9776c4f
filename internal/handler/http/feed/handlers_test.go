package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"postlabor-feed/internal/domain/entity"
	feedUC "postlabor-feed/internal/usecase/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu        sync.Mutex
	snap      feedUC.Snapshot
	refreshes int
}

func (f *fakeController) Snapshot() feedUC.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeController) Refresh(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

func sampleSnapshot() feedUC.Snapshot {
	created := time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)
	items := []entity.ContentItem{
		{
			ID:           2,
			Title:        "Automation and the wage share",
			Summary:      "Labor's share kept falling.",
			Sources:      []entity.SourceRef{{Title: "BLS", URL: "https://www.bls.gov/", Date: "2025-10-01"}},
			KeyFacts:     []string{"56% labor share"},
			ImageURL:     "https://img.example.com/2.png",
			CreatedAt:    created,
			CreatedAtRaw: "2025-11-15T12:00:00Z",
		},
		{ID: 1, Title: "UBI pilots"},
	}
	selected := entity.ContentItem{ID: 9, Title: "gone"}
	return feedUC.Snapshot{
		Phase:     feedUC.PhaseReady,
		Items:     items,
		Selected:  &selected,
		LastError: "research backend returned status 503",
		UpdatedAt: created,
		Mode:      feedUC.ModeLatest,
		Seq:       4,
	}
}

func newMux(ctrl Controller) *http.ServeMux {
	mux := http.NewServeMux()
	Register(mux, ctrl, nil, nil)
	return mux
}

func TestSnapshotHandler(t *testing.T) {
	ctrl := &fakeController{snap: sampleSnapshot()}
	rec := httptest.NewRecorder()
	newMux(ctrl).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got SnapshotDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

	assert.Equal(t, "ready", got.Phase)
	assert.Equal(t, "latest", got.Mode)
	assert.True(t, got.Dangling)
	assert.Equal(t, uint64(4), got.Seq)
	assert.Equal(t, "research backend returned status 503", got.LastError)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Automation and the wage share", got.Items[0].Topic)
	assert.Equal(t, []string{"56% labor share"}, got.Items[0].KeyStats)
	require.NotNil(t, got.Items[0].ImageURL)
	assert.Equal(t, "https://img.example.com/2.png", *got.Items[0].ImageURL)
	assert.Nil(t, got.Items[1].ImageURL)
	assert.Equal(t, []SourceDTO{}, got.Items[1].Sources)
	require.NotNil(t, got.Selected)
	assert.Equal(t, int64(9), got.Selected.ID)
}

func TestSnapshotHandler_Loading(t *testing.T) {
	ctrl := &fakeController{snap: feedUC.Snapshot{Phase: feedUC.PhaseLoading, Mode: feedUC.ModeLatest}}
	rec := httptest.NewRecorder()
	newMux(ctrl).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var raw map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	assert.Equal(t, "loading", raw["phase"])
	assert.Equal(t, []any{}, raw["items"])
	assert.Nil(t, raw["updated_at"])
	assert.Nil(t, raw["selected"])
}

func TestItemHandler(t *testing.T) {
	ctrl := &fakeController{snap: sampleSnapshot()}
	mux := newMux(ctrl)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantID   int64
	}{
		{"found", "/feed/items/2", http.StatusOK, 2},
		{"not in held batch", "/feed/items/9", http.StatusNotFound, 0},
		{"non numeric", "/feed/items/abc", http.StatusBadRequest, 0},
		{"zero", "/feed/items/0", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.NotEmpty(t, body["error"])
				assert.NotEqual(t, "internal server error", body["error"])
				return
			}
			var item ItemDTO
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&item))
			assert.Equal(t, tt.wantID, item.ID)
			assert.Equal(t, "2025-11-15T12:00:00Z", item.CreatedAt)
		})
	}
}

func TestRefreshHandler(t *testing.T) {
	ctrl := &fakeController{snap: sampleSnapshot()}
	rec := httptest.NewRecorder()
	newMux(ctrl).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/feed/refresh", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, ctrl.refreshes)

	rec = httptest.NewRecorder()
	newMux(ctrl).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed/refresh", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, 1, ctrl.refreshes)
}

func TestRefreshHandler_Limited(t *testing.T) {
	ctrl := &fakeController{}
	mux := http.NewServeMux()
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	Register(mux, ctrl, deny, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/feed/refresh", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Zero(t, ctrl.refreshes)
}

func TestNewItemDTO_FormatsParsedTimeWhenRawMissing(t *testing.T) {
	item := entity.ContentItem{ID: 3, CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))}
	assert.Equal(t, "2025-01-02T02:04:05Z", NewItemDTO(item).CreatedAt)
}
