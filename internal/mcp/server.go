package mcp

import (
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FitTracker", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FitTracker training server. Browse session templates, the workout schedule, per-session progress and training volume. Dates are local calendar dates (YYYY-MM-DD)."),
	)

	h := &handlers{ds: ds, log: log, now: time.Now}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListSessionTemplates, Handler: h.listSessionTemplates},
		server.ServerTool{Tool: toolGetSchedule, Handler: h.getSchedule},
		server.ServerTool{Tool: toolGetSessionProgress, Handler: h.getSessionProgress},
		server.ServerTool{Tool: toolParsePrescription, Handler: h.parsePrescription},
		server.ServerTool{Tool: toolGetTrainingSummary, Handler: h.getTrainingSummary},
		server.ServerTool{Tool: toolGetDataStats, Handler: h.getDataStats},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resToday, Handler: h.today},
		server.ServerResource{Resource: resTemplateCatalog, Handler: h.templateCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
	now func() time.Time
}

// --- Resource definitions ---

var resToday = mcp.NewResource(
	"fittracker://today",
	"Today",
	mcp.WithResourceDescription("Sessions scheduled for today with status, estimated duration and completion progress"),
	mcp.WithMIMEType("application/json"),
)

var resTemplateCatalog = mcp.NewResource(
	"fittracker://template_catalog",
	"Template Catalog",
	mcp.WithResourceDescription("All session templates keyed by day, with tags, exercise counts, estimated minutes and trained muscles"),
	mcp.WithMIMEType("application/json"),
)
