// Package mcpserver exposes the query pipeline as MCP tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/entity"
	"github.com/alexanderramin/itopnl/internal/formatter"
	"github.com/alexanderramin/itopnl/internal/service"
)

// Version is set at build time via ldflags.
var Version = "dev"

const serverName = "itop-nl-query"

// QueryService is the part of the pipeline the tools call into.
type QueryService interface {
	Process(ctx context.Context, req service.Request) string
	DescribeClass(ctx context.Context, class string) string
	DiscoverValues(ctx context.Context, class, field, search string, limit int) string
	ListOperations(ctx context.Context) string
	Registry() *entity.Registry
}

// New creates the MCP server with every tool registered.
func New(svc QueryService, defaultLimit int) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	s.AddTools(Tools(svc, defaultLimit)...)
	return s
}

// Serve runs the server on stdin and stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

const instructions = `Query an iTop ITSM instance in plain English.
Use smart_query when you do not know the class; it detects one. The query_* tools pin a class.
Use describe_class and discover_field_values to see which fields and stored values exist before phrasing filters.
Every answer is display text that discloses the OQL it ran and any filter it skipped or corrected.`

// Tools returns every tool with its handler.
func Tools(svc QueryService, defaultLimit int) []server.ServerTool {
	h := &handlers{svc: svc, defaultLimit: max(defaultLimit, 1)}

	tools := []server.ServerTool{{Tool: smartQueryTool(), Handler: h.smartQuery}}
	for _, p := range svc.Registry().All() {
		if p.ToolName == "" {
			continue
		}
		tools = append(tools, server.ServerTool{Tool: entityTool(p), Handler: h.entityQuery(p.Class)})
	}
	return append(tools,
		server.ServerTool{Tool: describeClassTool(), Handler: h.describeClass},
		server.ServerTool{Tool: discoverValuesTool(), Handler: h.discoverValues},
		server.ServerTool{Tool: listOperationsTool(), Handler: h.listOperations},
	)
}

func formatEnum() []string {
	out := make([]string, len(domain.ValidOutputFormats))
	for i, f := range domain.ValidOutputFormats {
		out[i] = string(f)
	}
	return out
}

func queryOptions(description string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description(`The request in plain English, e.g. "open incidents for the network team this week"`),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum records to return (at least 1)"),
		),
		mcp.WithString("format",
			mcp.Description("Output layout"),
			mcp.Enum(formatEnum()...),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	}
}

func smartQueryTool() mcp.Tool {
	opts := queryOptions("Answer a natural-language question about iTop data. The class is detected from the wording " +
		"(tickets, changes, servers, people, ...) unless force_class is given.")
	opts = append(opts, mcp.WithString("force_class",
		mcp.Description("iTop class to query instead of the detected one, e.g. UserRequest"),
	))
	return mcp.NewTool("smart_query", opts...)
}

func entityTool(p *entity.Profile) mcp.Tool {
	desc := p.ToolDescription
	if desc == "" {
		desc = fmt.Sprintf("Query iTop %s in natural language.", strings.ToLower(p.Title))
	}
	return mcp.NewTool(p.ToolName, queryOptions(desc)...)
}

func describeClassTool() mcp.Tool {
	return mcp.NewTool("describe_class",
		mcp.WithDescription("Show the fields of an iTop class with sample values, taken from one stored record."),
		mcp.WithString("class", mcp.Required(), mcp.Description("iTop class name, e.g. Server")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

func discoverValuesTool() mcp.Tool {
	return mcp.NewTool("discover_field_values",
		mcp.WithDescription("List the distinct values stored in one field of an iTop class. "+
			"With search, also report which stored value a word like \"active\" maps to."),
		mcp.WithString("class", mcp.Required(), mcp.Description("iTop class name, e.g. Server")),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field name, e.g. status")),
		mcp.WithString("search", mcp.Description("Word to match against the stored values")),
		mcp.WithNumber("limit", mcp.Description("Maximum distinct values to report")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

func listOperationsTool() mcp.Tool {
	return mcp.NewTool("list_operations",
		mcp.WithDescription("List the REST operations the iTop endpoint supports."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

type handlers struct {
	svc          QueryService
	defaultLimit int
}

func (h *handlers) smartQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.query(ctx, request, request.GetString("force_class", ""))
}

func (h *handlers) entityQuery(class string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return h.query(ctx, request, class)
	}
}

func (h *handlers) query(ctx context.Context, request mcp.CallToolRequest, class string) (*mcp.CallToolResult, error) {
	q, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(formatter.FormatError(err)), nil
	}
	return mcp.NewToolResultText(h.svc.Process(ctx, service.Request{
		Query:      q,
		ForceClass: class,
		Limit:      request.GetInt("limit", h.defaultLimit),
		Format:     request.GetString("format", ""),
	})), nil
}

func (h *handlers) describeClass(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class, err := request.RequireString("class")
	if err != nil {
		return mcp.NewToolResultError(formatter.FormatError(err)), nil
	}
	return mcp.NewToolResultText(h.svc.DescribeClass(ctx, class)), nil
}

func (h *handlers) discoverValues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class, err := request.RequireString("class")
	if err != nil {
		return mcp.NewToolResultError(formatter.FormatError(err)), nil
	}
	field, err := request.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(formatter.FormatError(err)), nil
	}
	return mcp.NewToolResultText(h.svc.DiscoverValues(ctx, class, field,
		request.GetString("search", ""), request.GetInt("limit", 0))), nil
}

func (h *handlers) listOperations(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(h.svc.ListOperations(ctx)), nil
}
