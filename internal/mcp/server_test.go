package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"k8s.io/klog/v2/ktesting"

	"github.com/hurttlocker/chronomap/internal/ingest"
	"github.com/hurttlocker/chronomap/internal/timeline"
)

const testCSV = `Person,Location,Date,Event,Category,Certainty,Reference
Paul,Tarsus,5,Born in Tarsus,Life,2,
Paul,Damascus,34,Conversion on the road to Damascus,Mission,1,biblegateway.com/acts-9
,Jerusalem,35,Row without a person,,,
Peter,Capernaum,30,Called as a disciple,Mission,abc,
Paul,Rome,62,Arrives in Rome,Mission,5,
Thomas,Atlantis,unknown,Travels east,,3,
`

func testTable() timeline.LocationTable {
	return timeline.NewLocationTable([]timeline.Place{
		{Name: "Jerusalem", Lat: 31.7683, Lon: 35.2137},
		{Name: "Tarsus", Lat: 36.9177, Lon: 34.8928},
		{Name: "Damascus", Lat: 33.5138, Lon: 36.2765},
		{Name: "Capernaum", Lat: 32.8803, Lon: 35.5733},
		{Name: "Rome", Lat: 41.9028, Lon: 12.4964},
	})
}

func loadTestData(ctx context.Context) (*ingest.Dataset, error) {
	return ingest.Build(ctx, "test.csv", []byte(testCSV), testTable(), timeline.DefaultProcessOptions())
}

// helper: create a server over a freshly loaded dataset
func setupTestServer(t *testing.T) *server.MCPServer {
	t.Helper()
	_, ctx := ktesting.NewTestContext(t)
	h := ingest.NewHolder(loadTestData)
	if _, err := h.Reload(ctx); err != nil {
		t.Fatalf("loading test dataset: %v", err)
	}
	return NewServer(ServerConfig{Holder: h, Version: "test"})
}

func TestNewServer(t *testing.T) {
	if srv := setupTestServer(t); srv == nil {
		t.Fatal("NewServer returned nil")
	}
}

// callTool is a helper that invokes an MCP tool through the JSON-RPC entry point.
func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]interface{}) *mcplib.CallToolResult {
	t.Helper()

	result := srv.HandleMessage(context.Background(), mustMarshal(t, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      name,
			"arguments": args,
		},
	}))

	respBytes, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}

	var resp struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nraw: %s", err, string(respBytes))
	}
	if resp.Error != nil {
		t.Fatalf("JSON-RPC error: %d %s", resp.Error.Code, resp.Error.Message)
	}

	callResult := &mcplib.CallToolResult{IsError: resp.Result.IsError}
	for _, c := range resp.Result.Content {
		if c.Type == "text" {
			callResult.Content = append(callResult.Content, mcplib.NewTextContent(c.Text))
		}
	}
	return callResult
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func getTextContent(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no text content found")
	return ""
}

type eventsPayload struct {
	LoadID string           `json:"load_id"`
	Total  int              `json:"total"`
	Events []timeline.Event `json:"events"`
}

func decodeEvents(t *testing.T, result *mcplib.CallToolResult) eventsPayload {
	t.Helper()
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", getTextContent(t, result))
	}
	var p eventsPayload
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &p); err != nil {
		t.Fatalf("parsing events payload: %v", err)
	}
	return p
}

// ==================== timeline_events Tests ====================

func TestEventsTool(t *testing.T) {
	srv := setupTestServer(t)

	all := decodeEvents(t, callTool(t, srv, "timeline_events", map[string]interface{}{}))
	if all.Total != 5 || all.LoadID == "" {
		t.Fatalf("unexpected payload: total=%d load=%q", all.Total, all.LoadID)
	}

	year := decodeEvents(t, callTool(t, srv, "timeline_events", map[string]interface{}{
		"year": float64(40),
	}))
	if year.Total != 1 || year.Events[0].Location != "Damascus" {
		t.Fatalf("unexpected year 40 events: %+v", year.Events)
	}

	people := decodeEvents(t, callTool(t, srv, "timeline_events", map[string]interface{}{
		"people": []string{"Peter", "Thomas"},
	}))
	if people.Total != 2 {
		t.Fatalf("expected 2 events for Peter and Thomas, got %d", people.Total)
	}

	none := decodeEvents(t, callTool(t, srv, "timeline_events", map[string]interface{}{
		"categories": []string{},
	}))
	if none.Total != 0 {
		t.Fatalf("an empty category list should select nothing, got %d", none.Total)
	}

	limited := decodeEvents(t, callTool(t, srv, "timeline_events", map[string]interface{}{
		"limit": float64(2),
	}))
	if limited.Total != 5 || len(limited.Events) != 2 {
		t.Fatalf("expected 2 of 5 events, got %d of %d", len(limited.Events), limited.Total)
	}
}

func TestEventsToolRangeNeedsBothEnds(t *testing.T) {
	srv := setupTestServer(t)

	result := callTool(t, srv, "timeline_events", map[string]interface{}{"from": float64(30)})
	if !result.IsError {
		t.Fatal("expected error for a half-open range")
	}

	ok := decodeEvents(t, callTool(t, srv, "timeline_events", map[string]interface{}{
		"from": float64(30),
		"to":   float64(34),
	}))
	if ok.Total != 3 {
		t.Fatalf("expected 3 events overlapping 30-34, got %d", ok.Total)
	}
}

func TestEventsToolBadYear(t *testing.T) {
	srv := setupTestServer(t)

	for _, args := range []map[string]interface{}{
		{"year": "abc"},
		{"year": true},
		{"from": "x", "to": float64(34)},
		{"from": float64(30), "to": []interface{}{34}},
		{"limit": "many"},
	} {
		result := callTool(t, srv, "timeline_events", args)
		if !result.IsError {
			t.Errorf("expected error for %v", args)
			continue
		}
		if text := getTextContent(t, result); !strings.Contains(text, "invalid") {
			t.Errorf("args %v: error %q does not name the invalid argument", args, text)
		}
	}

	// null reads as absent
	all := decodeEvents(t, callTool(t, srv, "timeline_events", map[string]interface{}{"year": nil}))
	none := decodeEvents(t, callTool(t, srv, "timeline_events", map[string]interface{}{}))
	if all.Total != none.Total {
		t.Fatalf("null year should not filter: got %d, want %d", all.Total, none.Total)
	}
}

func TestEventsToolGeoJSON(t *testing.T) {
	srv := setupTestServer(t)

	text := getTextContent(t, callTool(t, srv, "timeline_events", map[string]interface{}{
		"format":       "geojson",
		"person_query": "pa",
	}))
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal([]byte(text), &fc); err != nil {
		t.Fatalf("parsing geojson: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 3 {
		t.Fatalf("unexpected geojson: %s with %d features", fc.Type, len(fc.Features))
	}
}

// ==================== timeline_clusters Tests ====================

func TestClustersTool(t *testing.T) {
	srv := setupTestServer(t)

	result := callTool(t, srv, "timeline_clusters", map[string]interface{}{"zoom": float64(2)})
	if result.IsError {
		t.Fatalf("unexpected error: %s", getTextContent(t, result))
	}
	var payload struct {
		Groups  int `json:"groups"`
		Markers []struct {
			Label string `json:"label"`
			Count int    `json:"count"`
		} `json:"markers"`
	}
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Groups != 2 || len(payload.Markers) != 2 {
		t.Fatalf("expected 2 groups and 2 markers, got %d and %d", payload.Groups, len(payload.Markers))
	}
	if payload.Markers[0].Label != "4 People Here" || payload.Markers[0].Count != 4 {
		t.Fatalf("unexpected bubble marker: %+v", payload.Markers[0])
	}

	spread := callTool(t, srv, "timeline_clusters", map[string]interface{}{
		"zoom": float64(2),
		"mode": "spread",
	})
	if err := json.Unmarshal([]byte(getTextContent(t, spread)), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Markers) != 5 {
		t.Fatalf("expected 5 spread markers, got %d", len(payload.Markers))
	}
}

func TestClustersToolErrors(t *testing.T) {
	srv := setupTestServer(t)

	for _, args := range []map[string]interface{}{
		{"mode": "zigzag"},
		{"radius": float64(0)},
		{"to": float64(10)},
		{"zoom": "near"},
		{"radius": "wide"},
	} {
		if result := callTool(t, srv, "timeline_clusters", args); !result.IsError {
			t.Errorf("expected error for %v", args)
		}
	}
}

// ==================== facets / export / reload Tests ====================

func TestFacetsTool(t *testing.T) {
	srv := setupTestServer(t)

	var payload struct {
		Categories []string `json:"categories"`
		People     []string `json:"people"`
		MinYear    int      `json:"min_year"`
		MaxYear    int      `json:"max_year"`
	}
	text := getTextContent(t, callTool(t, srv, "timeline_facets", map[string]interface{}{}))
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatal(err)
	}
	if strings.Join(payload.People, ",") != "Paul,Peter,Thomas" {
		t.Fatalf("unexpected people %v", payload.People)
	}
	if payload.MinYear != -5 || payload.MaxYear != 67 {
		t.Fatalf("unexpected bounds %d..%d", payload.MinYear, payload.MaxYear)
	}

	text = getTextContent(t, callTool(t, srv, "timeline_facets", map[string]interface{}{"person_query": "tho"}))
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatal(err)
	}
	if strings.Join(payload.People, ",") != "Thomas" {
		t.Fatalf("unexpected filtered people %v", payload.People)
	}
}

func TestExportTool(t *testing.T) {
	srv := setupTestServer(t)

	text := getTextContent(t, callTool(t, srv, "timeline_export", map[string]interface{}{
		"people": []string{"Thomas"},
	}))
	want := "[unknown] Thomas: Travels east (Atlantis) | Certainty: Guess"
	if text != want {
		t.Fatalf("expected %q, got %q", want, text)
	}

	empty := getTextContent(t, callTool(t, srv, "timeline_export", map[string]interface{}{
		"year": float64(1000),
	}))
	if empty != "No matching events." {
		t.Fatalf("unexpected empty export %q", empty)
	}
}

func TestReloadTool(t *testing.T) {
	srv := setupTestServer(t)

	before := decodeEvents(t, callTool(t, srv, "timeline_events", map[string]interface{}{}))
	result := callTool(t, srv, "timeline_reload", map[string]interface{}{})
	if result.IsError {
		t.Fatalf("reload failed: %s", getTextContent(t, result))
	}
	var st ingest.Stats
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &st); err != nil {
		t.Fatal(err)
	}
	if st.LoadID == before.LoadID || st.Events != 5 {
		t.Fatalf("expected a new load with 5 events, got %+v", st)
	}
}

func TestToolsWithoutDataset(t *testing.T) {
	h := ingest.NewHolder(func(ctx context.Context) (*ingest.Dataset, error) {
		return nil, errors.New("source unavailable")
	})
	srv := NewServer(ServerConfig{Holder: h})

	for _, name := range []string{"timeline_events", "timeline_clusters", "timeline_facets", "timeline_export", "timeline_reload"} {
		if result := callTool(t, srv, name, map[string]interface{}{}); !result.IsError {
			t.Errorf("%s: expected tool error without a dataset", name)
		}
	}
}

// ==================== Resource Tests ====================

func TestSummaryResource(t *testing.T) {
	srv := setupTestServer(t)

	result := srv.HandleMessage(context.Background(), mustMarshal(t, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "resources/read",
		"params": map[string]interface{}{
			"uri": summaryURI,
		},
	}))

	respBytes, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	var resp struct {
		Result struct {
			Contents []struct {
				Text string `json:"text"`
			} `json:"contents"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nraw: %s", err, string(respBytes))
	}
	if len(resp.Result.Contents) == 0 {
		t.Fatalf("no resource contents: %s", respBytes)
	}

	var summary struct {
		Stats       ingest.Stats          `json:"stats"`
		Diagnostics []timeline.Diagnostic `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(resp.Result.Contents[0].Text), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Stats.RowsDropped != 1 || summary.Stats.FallbackCount != 1 {
		t.Fatalf("unexpected stats: %+v", summary.Stats)
	}
	if len(summary.Diagnostics) == 0 {
		t.Fatal("expected a diagnostic for the fallback location")
	}
}
