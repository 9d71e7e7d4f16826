// Package main runs the wizard API and the generation proxy on one local
// HTTP server, backed by a style directory and an in-process store or by
// the same AWS resources the Lambdas use.
//
// Endpoints:
//
//	POST /api/generate           generation proxy
//	/api/sessions/...            wizard sessions
//	GET  /api/styles             style catalog
//	/api/thumbnails/...          history of the configured owner
//	GET  /styles/<file>          style assets (memory backend)
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/yt-thumbnail-wizard/internal/auth"
	"github.com/fpang/yt-thumbnail-wizard/internal/config"
	"github.com/fpang/yt-thumbnail-wizard/internal/generate"
	"github.com/fpang/yt-thumbnail-wizard/internal/local"
	"github.com/fpang/yt-thumbnail-wizard/internal/logging"
	"github.com/fpang/yt-thumbnail-wizard/internal/webapi"
)

var (
	addrFlag        string
	backendFlag     string
	stylesDirFlag   string
	ownerFlag       string
	anonymousFlag   bool
	skipValidateKey bool
)

var rootCmd = &cobra.Command{
	Use:   "wizard-server",
	Short: "Local server for the thumbnail wizard",
	Long: `wizard-server hosts the wizard API and the generation proxy on one port.

Examples:
  wizard-server
  wizard-server --addr :9090 --styles-dir ./assets/styles
  wizard-server --backend aws`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (default from config, :8080)")
	rootCmd.Flags().StringVar(&backendFlag, "backend", "", "memory or aws")
	rootCmd.Flags().StringVar(&stylesDirFlag, "styles-dir", "", "directory of style images (memory backend)")
	rootCmd.Flags().StringVar(&ownerFlag, "owner", "", "identity requests act as")
	rootCmd.Flags().BoolVar(&anonymousFlag, "anonymous", false, "serve requests without an owner")
	rootCmd.Flags().BoolVar(&skipValidateKey, "skip-key-check", false, "do not probe the Gemini API key at startup")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.InitWith(cfg.LogLevel, "", os.Stderr)

	ctx := cmd.Context()
	env, err := local.Build(ctx, cfg, local.Options{
		StyleBaseURL: localBaseURL(cfg.Addr) + "/styles",
		ValidateKey:  !skipValidateKey,
	})
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	wizardAPI := webapi.NewServer(webapi.Config{
		Sessions:  env.Store,
		Records:   env.Store,
		Styles:    env.Styles,
		Generator: env.Generate,
		Uploads:   uploadsOf(env),
		Events:    env.Events,
	}).Routes()

	mux := http.NewServeMux()
	mux.Handle(generate.Route, generate.NewHandler(env.Generate))
	if cfg.Backend == config.BackendMemory {
		mux.Handle("/styles/", http.StripPrefix("/styles/", http.FileServer(http.Dir(cfg.StylesDir))))
	}
	mux.Handle("/", wizardAPI)

	owner := cfg.Owner
	if anonymousFlag {
		owner = ""
	}
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      gzhttp.GzipHandler(withLogging(withOwner(owner, mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logging.NewStartupLogger("wizard-server").
		Config("backend", cfg.Backend).
		Config("addr", cfg.Addr).
		Config("stylesDir", cfg.StylesDir).
		Config("generationMode", cfg.GenerationMode).
		S3Bucket("styles", cfg.StyleBucket).
		S3Bucket("uploads", cfg.UploadBucket).
		DynamoTable("store", cfg.DynamoTable).
		EventBus("events", cfg.EventBus).
		Feature("owner", owner != "").
		Log()
	fmt.Printf("\n  Thumbnail wizard API: %s/api\n\n", localBaseURL(cfg.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func applyFlags(cfg *config.Config) {
	if addrFlag != "" {
		cfg.Addr = addrFlag
	}
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	if stylesDirFlag != "" {
		cfg.StylesDir = stylesDirFlag
	}
	if ownerFlag != "" {
		cfg.Owner = ownerFlag
	}
}

// uploadsOf keeps a nil bucket out of the interface.
func uploadsOf(env *local.Env) webapi.FaceUploads {
	if env.Uploads == nil {
		return nil
	}
	return env.Uploads
}

// localBaseURL turns a listen address into the URL a browser on this
// machine would use.
func localBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// withOwner stands in for the API Gateway JWT authorizer.
func withOwner(owner string, next http.Handler) http.Handler {
	if owner == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(auth.WithOwner(r.Context(), owner)))
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	})
}
