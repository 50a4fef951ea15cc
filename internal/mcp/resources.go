package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hurttlocker/chronomap/internal/ingest"
)

const summaryURI = "chronomap://summary"

func registerSummaryResource(s *server.MCPServer, h *ingest.Holder) {
	resource := mcp.NewResource(
		summaryURI,
		"Timeline Summary",
		mcp.WithResourceDescription("Load identity, row accounting and diagnostics for the current timeline dataset."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ds, err := h.Current()
		if err != nil {
			return nil, err
		}
		payload := map[string]interface{}{
			"stats":       ds.Stats(),
			"diagnostics": ds.Diagnostics,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}
