// Package server exposes a loaded timeline over a small read-only JSON API.
// Every view is recomputed from the current dataset on request; the only
// mutating endpoint swaps in a freshly loaded dataset.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"k8s.io/klog/v2"

	"github.com/hurttlocker/chronomap/internal/cluster"
	"github.com/hurttlocker/chronomap/internal/filter"
	"github.com/hurttlocker/chronomap/internal/ingest"
	"github.com/hurttlocker/chronomap/internal/timeline"
)

const (
	defaultEventsLimit = 1000
	maxEventsLimit     = 10000
	maxEventsOffset    = 1000000

	// yearPad widens the facet year bounds on both sides.
	yearPad = 5

	shutdownTimeout = 5 * time.Second
)

// Config holds settings for the API server.
type Config struct {
	Holder *ingest.Holder
	Listen string
	// View supplies the radius, orbit radius, zoom and mode used when a
	// request does not set them.
	View cluster.ViewOptions
}

// EventsResult is the /api/events payload.
type EventsResult struct {
	LoadID string           `json:"load_id"`
	Total  int              `json:"total"`
	Offset int              `json:"offset"`
	Events []timeline.Event `json:"events"`
}

// ClustersResult is the /api/clusters payload.
type ClustersResult struct {
	LoadID string `json:"load_id"`
	Total  int    `json:"total"`
	cluster.View
}

// FacetsResult is the /api/facets payload.
type FacetsResult struct {
	filter.Facets
	MinYear int `json:"min_year"`
	MaxYear int `json:"max_year"`
}

// NewHandler builds the API mux.
func NewHandler(cfg Config) http.Handler {
	mux := http.NewServeMux()
	h := cfg.Holder

	mux.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
		handleEventsAPI(w, r, h)
	})
	mux.HandleFunc("/api/clusters", func(w http.ResponseWriter, r *http.Request) {
		handleClustersAPI(w, r, h, cfg.View)
	})
	mux.HandleFunc("/api/facets", func(w http.ResponseWriter, r *http.Request) {
		handleFacetsAPI(w, r, h)
	})
	mux.HandleFunc("/api/export", func(w http.ResponseWriter, r *http.Request) {
		handleExportAPI(w, r, h)
	})
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		handleStatsAPI(w, r, h)
	})
	mux.HandleFunc("/api/reload", func(w http.ResponseWriter, r *http.Request) {
		handleReloadAPI(w, r, h)
	})
	return mux
}

// Serve runs the API server until ctx is cancelled. Request contexts derive
// from ctx, so handlers log through the caller's logger.
func Serve(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           NewHandler(cfg),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Listen, err)
	}
	fmt.Printf("🗺️  Chronomap API: http://%s/api/events\n", ln.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func handleEventsAPI(w http.ResponseWriter, r *http.Request, h *ingest.Holder) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ds, ok := currentDataset(w, h)
	if !ok {
		return
	}
	crit, err := ParseCriteria(r.URL.Query())
	if err != nil {
		writeJSON(w, 400, map[string]string{"error": err.Error()})
		return
	}
	visible := filter.Apply(ds.Events, crit)

	if r.URL.Query().Get("format") == "geojson" {
		writeGeoJSON(w, cluster.EventsGeoJSON(visible))
		return
	}

	limit := parseBoundedInt(r.URL.Query().Get("limit"), defaultEventsLimit, 1, maxEventsLimit)
	offset := parseBoundedInt(r.URL.Query().Get("offset"), 0, 0, maxEventsOffset)
	page := visible[min(offset, len(visible)):]
	if len(page) > limit {
		page = page[:limit]
	}

	writeJSON(w, 200, EventsResult{
		LoadID: ds.LoadID,
		Total:  len(visible),
		Offset: offset,
		Events: page,
	})
}

func handleClustersAPI(w http.ResponseWriter, r *http.Request, h *ingest.Holder, defaults cluster.ViewOptions) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ds, ok := currentDataset(w, h)
	if !ok {
		return
	}
	q := r.URL.Query()
	crit, err := ParseCriteria(q)
	if err != nil {
		writeJSON(w, 400, map[string]string{"error": err.Error()})
		return
	}
	opts, err := ParseView(q, defaults)
	if err != nil {
		writeJSON(w, 400, map[string]string{"error": err.Error()})
		return
	}

	visible := filter.Apply(ds.Events, crit)
	view := cluster.Render(visible, opts)
	klog.FromContext(r.Context()).V(1).Info("Rendered clusters",
		"events", len(visible), "groups", len(view.Groups), "zoom", view.Zoom)

	if q.Get("format") == "geojson" {
		writeGeoJSON(w, cluster.MarkersGeoJSON(view.Markers))
		return
	}
	writeJSON(w, 200, ClustersResult{LoadID: ds.LoadID, Total: len(visible), View: view})
}

func handleFacetsAPI(w http.ResponseWriter, r *http.Request, h *ingest.Holder) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ds, ok := currentDataset(w, h)
	if !ok {
		return
	}
	out := FacetsResult{Facets: filter.BuildFacets(ds.Events)}
	if q := r.URL.Query().Get("q"); q != "" {
		out.People = filter.SearchPeople(out.People, q)
	}
	out.MinYear, out.MaxYear, _ = filter.YearBounds(ds.Events, yearPad)
	writeJSON(w, 200, out)
}

func handleExportAPI(w http.ResponseWriter, r *http.Request, h *ingest.Holder) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ds, ok := currentDataset(w, h)
	if !ok {
		return
	}
	crit, err := ParseCriteria(r.URL.Query())
	if err != nil {
		writeJSON(w, 400, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(200)
	fmt.Fprintln(w, filter.FormatText(filter.Apply(ds.Events, crit)))
}

func handleStatsAPI(w http.ResponseWriter, r *http.Request, h *ingest.Holder) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ds, ok := currentDataset(w, h)
	if !ok {
		return
	}
	writeJSON(w, 200, ds.Stats())
}

func handleReloadAPI(w http.ResponseWriter, r *http.Request, h *ingest.Holder) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	log := klog.FromContext(r.Context())
	ds, err := h.Reload(r.Context())
	if err != nil {
		log.Error(err, "Reload failed")
		writeJSON(w, 502, map[string]string{"error": err.Error()})
		return
	}
	log.Info("Reloaded dataset", "loadID", ds.LoadID, "events", len(ds.Events))
	writeJSON(w, 200, ds.Stats())
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, 405, map[string]string{"error": "method not allowed"})
	return false
}

func currentDataset(w http.ResponseWriter, h *ingest.Holder) (*ingest.Dataset, bool) {
	ds, err := h.Current()
	if err != nil {
		writeJSON(w, 503, map[string]string{"error": err.Error()})
		return nil, false
	}
	return ds, true
}

func writeGeoJSON(w http.ResponseWriter, fc interface{ MarshalJSON() ([]byte, error) }) {
	data, err := fc.MarshalJSON()
	if err != nil {
		writeJSON(w, 500, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(200)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
