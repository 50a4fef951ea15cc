// scale_test.go: Scale & performance testing with synthetic timelines.
// Run: go test ./scripts/bench/ -run TestScale -v -timeout 10m
//
// Generates synthetic CSVs at 1K and 10K rows, then measures loading,
// filtering, clustering and export.
package bench

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"strconv"
	"testing"
	"time"

	"k8s.io/klog/v2/ktesting"

	"github.com/hurttlocker/chronomap/internal/cluster"
	"github.com/hurttlocker/chronomap/internal/filter"
	"github.com/hurttlocker/chronomap/internal/ingest"
	"github.com/hurttlocker/chronomap/internal/timeline"
)

// ScaleTier defines a test tier.
type ScaleTier struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// ScaleResult stores benchmark results for a tier.
type ScaleResult struct {
	Tier         string  `json:"tier"`
	Rows         int     `json:"rows"`
	Events       int     `json:"events"`
	People       int     `json:"people"`
	LoadMs       float64 `json:"load_ms"`
	LoadPerSec   float64 `json:"load_per_sec"`
	FilterP50    float64 `json:"filter_p50_ms"`
	ClusterP50   float64 `json:"cluster_p50_ms"`
	ClusterP99   float64 `json:"cluster_p99_ms"`
	ExportMs     float64 `json:"export_ms"`
	VisibleAvg   float64 `json:"visible_avg"`
	GroupsAvg    float64 `json:"groups_avg"`
	FallbackRate float64 `json:"fallback_rate"`
}

var tiers = []ScaleTier{
	{"small", 1000},
	{"medium", 10000},
}

var places = []timeline.Place{
	{Name: "Jerusalem", Lat: 31.7683, Lon: 35.2137},
	{Name: "Bethlehem", Lat: 31.7054, Lon: 35.2024},
	{Name: "Nazareth", Lat: 32.6996, Lon: 35.3035},
	{Name: "Capernaum", Lat: 32.8803, Lon: 35.5733},
	{Name: "Damascus", Lat: 33.5138, Lon: 36.2765},
	{Name: "Antioch", Lat: 36.2021, Lon: 36.1606},
	{Name: "Tarsus", Lat: 36.9177, Lon: 34.8928},
	{Name: "Ephesus", Lat: 37.9395, Lon: 27.3417},
	{Name: "Corinth", Lat: 37.9061, Lon: 22.8781},
	{Name: "Athens", Lat: 37.9838, Lon: 23.7275},
	{Name: "Philippi", Lat: 41.0131, Lon: 24.2864},
	{Name: "Thessalonica", Lat: 40.6401, Lon: 22.9444},
	{Name: "Rome", Lat: 41.9028, Lon: 12.4964},
	{Name: "Alexandria", Lat: 31.2001, Lon: 29.9187},
	{Name: "Caesarea", Lat: 32.5000, Lon: 34.8920},
}

var categories = []string{"Life", "Mission", "Travel", "Imprisonment", "Writing", ""}

func generateCSV(rng *rand.Rand, rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"Person", "Location", "Date", "Event", "Category", "Certainty", "Reference", "Lat", "Lon"})

	people := rows / 8
	for i := 0; i < rows; i++ {
		// Zipf-like: a few people carry most of the events.
		p := int(float64(people) * rng.Float64() * rng.Float64())
		person := fmt.Sprintf("Person %d", p)
		if rng.Intn(200) == 0 {
			person = ""
		}

		loc := places[rng.Intn(len(places))].Name
		if rng.Intn(50) == 0 {
			loc = fmt.Sprintf("Lost City %d", i)
		}
		var lat, lon string
		if rng.Intn(20) == 0 {
			lat = strconv.FormatFloat(30+rng.Float64()*12, 'f', 4, 64)
			lon = strconv.FormatFloat(12+rng.Float64()*25, 'f', 4, 64)
		}

		year := -50 + rng.Intn(150)
		date := strconv.Itoa(year)
		if rng.Intn(4) == 0 {
			date = fmt.Sprintf("ca. %d CE", year)
		}

		w.Write([]string{
			person,
			loc,
			date,
			fmt.Sprintf("Event %d", i),
			categories[rng.Intn(len(categories))],
			strconv.Itoa(1 + rng.Intn(4)),
			fmt.Sprintf("example.org/ref/%d; https://example.com/%d", i, i),
			lat,
			lon,
		})
	}
	w.Flush()
	return buf.Bytes()
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func benchmarkAtScale(t *testing.T, tier ScaleTier) ScaleResult {
	t.Helper()
	_, ctx := ktesting.NewTestContext(t)
	rng := rand.New(rand.NewSource(42))
	data := generateCSV(rng, tier.Rows)
	table := timeline.NewLocationTable(places)

	result := ScaleResult{Tier: tier.Name, Rows: tier.Rows}

	t.Logf("[%s] Loading %d rows...", tier.Name, tier.Rows)
	start := time.Now()
	ds, err := ingest.Build(ctx, "synthetic.csv", data, table, timeline.DefaultProcessOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	elapsed := time.Since(start)
	result.LoadMs = ms(elapsed)
	result.LoadPerSec = float64(tier.Rows) / elapsed.Seconds()
	result.Events = len(ds.Events)
	result.People = ds.Stats().People
	result.FallbackRate = float64(ds.FallbackCount) / float64(len(ds.Events))
	t.Logf("[%s] Load: %d events in %.1fms (%.0f rows/sec)", tier.Name, result.Events, result.LoadMs, result.LoadPerSec)

	// Sweep the year slider the way a user scrubbing the timeline would.
	minYear, maxYear, _ := filter.YearBounds(ds.Events, 5)
	var filterTimes, clusterTimes []float64
	var visibleTotal, groupsTotal int
	for year := minYear; year <= maxYear; year += 5 {
		y := year
		fs := time.Now()
		visible := filter.Apply(ds.Events, filter.Criteria{Year: &y})
		filterTimes = append(filterTimes, ms(time.Since(fs)))

		cs := time.Now()
		view := cluster.Render(visible, cluster.ViewOptions{})
		clusterTimes = append(clusterTimes, ms(time.Since(cs)))

		visibleTotal += len(visible)
		groupsTotal += len(view.Groups)
	}
	sort.Float64s(filterTimes)
	sort.Float64s(clusterTimes)
	result.FilterP50 = percentile(filterTimes, 0.5)
	result.ClusterP50 = percentile(clusterTimes, 0.5)
	result.ClusterP99 = percentile(clusterTimes, 0.99)
	result.VisibleAvg = float64(visibleTotal) / float64(len(clusterTimes))
	result.GroupsAvg = float64(groupsTotal) / float64(len(clusterTimes))
	t.Logf("[%s] Filter P50=%.2fms, Cluster P50=%.2fms P99=%.2fms (avg %.0f visible, %.1f groups)",
		tier.Name, result.FilterP50, result.ClusterP50, result.ClusterP99, result.VisibleAvg, result.GroupsAvg)

	es := time.Now()
	text := filter.FormatText(ds.Events)
	result.ExportMs = ms(time.Since(es))
	t.Logf("[%s] Export: %d bytes in %.1fms", tier.Name, len(text), result.ExportMs)

	return result
}

func TestScale(t *testing.T) {
	if testing.Short() {
		t.Skip("scale test skipped in short mode")
	}
	var results []ScaleResult

	for _, tier := range tiers {
		t.Run(tier.Name, func(t *testing.T) {
			results = append(results, benchmarkAtScale(t, tier))
		})
	}

	report := map[string]interface{}{
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"platform":     runtime.GOOS + "/" + runtime.GOARCH,
		"go_version":   runtime.Version(),
		"tiers":        results,
	}
	if outPath := os.Getenv("CHRONOMAP_SCALE_REPORT"); outPath != "" {
		jsonBytes, _ := json.MarshalIndent(report, "", "  ")
		if err := os.WriteFile(outPath, jsonBytes, 0o644); err != nil {
			t.Errorf("writing report: %v", err)
		} else {
			t.Logf("\nScale report written to %s", outPath)
		}
	}

	t.Log("\n=== SCALE BENCHMARK SUMMARY ===")
	t.Log("Tier       |   Rows | Load/sec | Cluster P50 | Cluster P99 | Export")
	t.Log("-----------|--------|----------|-------------|-------------|-------")
	for _, r := range results {
		t.Logf("%-10s | %6d | %8.0f | %9.2fms | %9.2fms | %5.1fms",
			r.Tier, r.Rows, r.LoadPerSec, r.ClusterP50, r.ClusterP99, r.ExportMs)
	}

	// Performance gates
	for _, r := range results {
		if r.Tier == "medium" {
			if r.LoadMs > 2000 {
				t.Errorf("[%s] load too slow: %.1fms (target: <2000ms)", r.Tier, r.LoadMs)
			}
			if r.ClusterP99 > 200 {
				t.Errorf("[%s] cluster P99 too high: %.1fms (target: <200ms)", r.Tier, r.ClusterP99)
			}
		}
	}
}
