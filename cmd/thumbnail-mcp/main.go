// Package main exposes the thumbnail wizard as MCP tools over stdio, so an
// assistant can list styles and generate thumbnails on a user's behalf.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/fpang/yt-thumbnail-wizard/internal/auth"
	"github.com/fpang/yt-thumbnail-wizard/internal/config"
	"github.com/fpang/yt-thumbnail-wizard/internal/local"
	"github.com/fpang/yt-thumbnail-wizard/internal/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// stdout carries the protocol; logs go to stderr.
		logging.Init()
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logging.InitWith(cfg.LogLevel, "json", os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := local.Build(ctx, cfg, local.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}

	server := newServer(&tools{env: env, owner: cfg.Owner})
	logging.NewStartupLogger("thumbnail-mcp").
		Config("backend", cfg.Backend).
		Config("version", version).
		Log()
	if err := server.Run(auth.WithOwner(ctx, cfg.Owner), &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("MCP server stopped")
	}
}

func newServer(t *tools) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "thumbnail-wizard", Version: version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_styles",
		Description: "List the thumbnail styles that can be passed to generate_thumbnail.",
	}, t.listStyles)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_style",
		Description: "Look up a style id and return its display name and preview image URL.",
	}, t.resolveStyle)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_thumbnail",
		Description: "Generate a YouTube thumbnail from a face image URL and details about the video.",
	}, t.generateThumbnail)
	return server
}
