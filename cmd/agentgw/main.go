package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	agentgateway "github.com/launchpath/agent-gateway"
	"github.com/launchpath/agent-gateway/internal/execlog"
	"github.com/launchpath/agent-gateway/internal/logging"
	"github.com/launchpath/agent-gateway/internal/provider"
	"github.com/launchpath/agent-gateway/internal/retry"
	"github.com/launchpath/agent-gateway/internal/version"
)

const usage = `agentgw — AI-request gateway for the job-search assistant

Usage:
  agentgw                     Run the server (config from AGENTGW_CONFIG)
  agentgw validate <config>   Validate a configuration file (JSON/YAML)
  agentgw version             Print version info
`

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "validate":
			cmdValidate()
			return
		case "version":
			fmt.Println(version.String())
			return
		case "help", "-h", "--help":
			fmt.Print(usage)
			return
		}
	}
	serve()
}

func cmdValidate() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: agentgw validate <config-file>")
		os.Exit(1)
	}
	cfg, err := agentgateway.LoadConfig(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid: %v\n", err)
		os.Exit(1)
	}
	if err := agentgateway.ValidateConfig(*cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Config is valid.")
}

func serve() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := agentgateway.DefaultConfig()
	if path := os.Getenv("AGENTGW_CONFIG"); path != "" {
		loaded, err := agentgateway.LoadConfig(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if err := agentgateway.ValidateConfig(*loaded); err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
		cfg = *loaded
		log.Printf("Config loaded: store=%s", cfg.Store.Driver)
	}
	if p := os.Getenv("PORT"); p != "" {
		cfg.Listen = ":" + p
	}

	stores, err := openStores(cfg)
	if err != nil {
		log.Fatalf("Failed to open stores: %v", err)
	}
	defer stores.Close()

	keyEnv := cfg.Provider.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "PROVIDER_API_KEY"
	}
	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		// Requests will fail with an upstream error event rather than a
		// crash, but the operator should know at startup.
		log.Printf("Warning: %s is not set; upstream calls will fail", keyEnv)
	}
	completer := provider.NewClient(cfg.Provider.BaseURL, apiKey, nil, retry.Options{
		Retries:  cfg.Retry.Attempts,
		MinDelay: time.Duration(cfg.Retry.MinDelayMS) * time.Millisecond,
		MaxDelay: time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond,
	})

	gw, err := agentgateway.New(cfg, agentgateway.Deps{
		Cache:     stores.Cache,
		RateLimit: stores.RateLimit,
		ExecLog:   stores.ExecLog,
		Completer: completer,
	})
	if err != nil {
		log.Fatalf("Failed to create gateway: %v", err)
	}

	var corsOrigins []string
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsOrigins = strings.Split(origins, ",")
	} else {
		corsOrigins = cfg.CORSOrigins
	}

	r := newRouter(gw, stores.ExecReader, corsOrigins)

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second, // SSE responses outlive ordinary requests
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Println("Shutting down gracefully…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("agentgw %s listening on %s (store=%s)", version.Short(), cfg.Listen, cfg.Store.Driver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stop()
		log.Fatalf("Server error: %v", err) //nolint:gocritic
	}
	log.Println("Server stopped.")
}

// newRouter builds the HTTP router.
func newRouter(gw *agentgateway.Gateway, execReader execlog.Reader, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware)
	r.Use(corsMiddleware(corsOrigins...))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/v1/agents/{agent}", agentHandler(gw))
	r.Get("/v1/executions", executionsHandler(execReader))

	return r
}
