// Package mcpserver exposes the blog's posts to LLM clients as MCP tools
// over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/postservice"
)

const (
	formatURI          = "folio://post-format"
	defaultSearchLimit = 20
)

// Server wraps the MCP server with folio tools.
type Server struct {
	mcp *server.MCPServer
	svc *postservice.Service
}

// New creates an MCP server with every folio tool registered.
func New(svc *postservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"folio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List all blog posts, newest first, with id, title, date and preview."),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read a post's markdown source, front matter included."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post id: the file name without its extension")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("render_post",
		mcp.WithDescription("Render a post's body the way the site displays it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post id")),
		mcp.WithString("format",
			mcp.Description("Output format: html (default) or nodes (JSON display tree)"),
			mcp.Enum("html", "nodes"),
		),
	), s.renderPost)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Full-text search through post titles, previews and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("get_post_contract",
		mcp.WithDescription("Returns the post file format: front matter fields and markdown conventions."),
	), s.getPostContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Post Format Contract",
			mcp.WithResourceDescription("Format every post file in the posts directory follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(id string, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("post not found: %s", id))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listPosts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	posts, err := s.svc.ListPosts(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(posts)
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.GetPost(ctx, id)
	if err != nil {
		return errorResult(id, err), nil
	}
	raw, err := frontmatter.Compose(frontmatter.Metadata{
		Title:   p.Title,
		Date:    p.Date,
		Preview: p.Preview,
		Extra:   p.Extra,
	}, p.Body)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) renderPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := strings.ToLower(req.GetString("format", "html"))
	if format != "html" && format != "nodes" {
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}

	detail, err := s.svc.RenderPost(ctx, id)
	if err != nil {
		return errorResult(id, err), nil
	}
	if format == "nodes" {
		return jsonResult(detail.Nodes)
	}
	return mcp.NewToolResultText(detail.HTML), nil
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", defaultSearchLimit)
	results, err := s.svc.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getPostContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}
