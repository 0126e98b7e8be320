// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/postservice"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// newRepository opens the posts directory and wraps it in a repository.
func newRepository(cfg *Config, logger *slog.Logger) (*storage.FS, *content.Repository, error) {
	store, err := storage.NewFS(cfg.Posts.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w: %w", apperr.ErrStoreUnavailable, err)
	}
	repo := content.NewRepository(store,
		content.WithPattern(cfg.Posts.Pattern),
		content.WithRefresh(content.Refresh(cfg.Posts.Refresh), cfg.Posts.TTL, cfg.Posts.CacheSize),
		content.WithLogger(logger),
	)
	return store, repo, nil
}

// newService wires the repository, renderer and index. The caller closes
// the returned DB.
func newService(ctx context.Context, cfg *Config, logger *slog.Logger) (*postservice.Service, *content.Repository, *index.DB, error) {
	store, repo, err := newRepository(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init index: %w", err)
	}

	renderer := render.New(cfg.Render.Options(), render.SiteOverrides())
	svc := postservice.NewService(repo, renderer, db, store.Root(), logger)

	if _, err := svc.Reindex(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return svc, repo, db, nil
}

// Run starts the HTTP server and the posts watcher.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stdout, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("posts_path", cfg.Posts.Path),
		slog.String("refresh", cfg.Posts.Refresh),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, repo, db, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)
	r := api.NewSiteRouter(svc, apiRouter, cfg.Posts.AssetsPath,
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		root := cfg.Posts.Path
		err := index.Watch(gCtx, db, repo, root, logger, func(kind, id string) {
			broker.PublishPostEvent(sse.Change(kind), id)
		})
		if err != nil {
			logger.Error("watcher failed, live reload disabled", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio. Logs go to stderr because stdout
// carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, app.config.App.LogLevel)

	svc, _, db, err := newService(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc, app.version).ServeStdio()
}

// RunList prints the post listing, newest first.
func RunList(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, app.config.App.LogLevel)

	_, repo, err := newRepository(app.config, logger)
	if err != nil {
		return err
	}
	posts, err := repo.ListAll(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tID\tTITLE")
	for _, p := range posts {
		date := p.Date.String()
		if date == "" {
			date = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", date, p.ID, p.Title)
	}
	return tw.Flush()
}

// RunRender prints the HTML of one post.
func RunRender(ctx context.Context, id string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, app.config.App.LogLevel)

	_, repo, err := newRepository(app.config, logger)
	if err != nil {
		return err
	}
	p, err := repo.LoadOne(ctx, id)
	if err != nil {
		return err
	}
	renderer := render.New(app.config.Render.Options(), render.SiteOverrides())
	return render.WriteHTML(app.out, renderer.Render(p.Body))
}
