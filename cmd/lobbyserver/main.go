// Package main provides the lobby server: it wires together configuration,
// the wire-codec registry, the WebSocket acceptor, the game-assembly
// scheduler, the host manager client, and the match record store.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atlas-remake/lobby/internal/config"
	"github.com/atlas-remake/lobby/internal/connection"
	"github.com/atlas-remake/lobby/internal/hosting"
	"github.com/atlas-remake/lobby/internal/lobby"
	"github.com/atlas-remake/lobby/internal/observability"
	"github.com/atlas-remake/lobby/internal/protocol"
	"github.com/atlas-remake/lobby/internal/server"
	"github.com/atlas-remake/lobby/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	noStore := flag.Bool("no-store", false, "run without the match record store")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// Initialize logger
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting lobby server",
		zap.String("listener", cfg.Listener.Addr()),
		zap.String("hosting_mode", cfg.Hosting.Mode),
	)

	ctx := context.Background()

	// Metrics registry
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(promReg)

	// Match record store (optional)
	var pool *postgres.Pool
	var recorder lobby.MatchRecorder
	if !*noStore {
		dbStart := time.Now()
		pool, err = postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		recorder = postgres.NewMatchRepository(pool.DB())
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
	}

	// Queue set: built-ins, optionally overlaid with YAML templates
	queues := lobby.DefaultQueues()
	if cfg.Lobby.QueueTemplateDir != "" {
		queues, err = lobby.LoadQueuesFromDir(cfg.Lobby.QueueTemplateDir)
		if err != nil {
			logger.Fatal("loading queue templates", zap.Error(err))
		}
		logger.Info("queue templates loaded",
			zap.String("dir", cfg.Lobby.QueueTemplateDir),
		)
	}

	// Host manager client
	var host hosting.Client
	switch cfg.Hosting.Mode {
	case "remote":
		host = hosting.NewRemoteClient(cfg.Hosting.ControlAddress, cfg.Hosting.RequestTimeout, logger)
	default:
		host = &hosting.LocalClient{Addr: cfg.Hosting.GameServerAddress}
	}

	// Build services
	registry := protocol.DefaultRegistry()
	hub := connection.NewHub()
	manager := lobby.NewManager(queues, hub, host, recorder, metrics, logger, lobby.Options{
		TickInterval:          cfg.Lobby.TickInterval,
		DefaultLoadoutTimeout: cfg.Lobby.DefaultLoadoutTimeout,
		HostRequestTimeout:    cfg.Lobby.HostRequestTimeout,
	})
	acceptor := connection.NewAcceptor(
		connection.AcceptorConfig{
			Addr:         cfg.Listener.Addr(),
			WriteTimeout: cfg.Listener.WriteTimeout,
		},
		hub, registry,
		connection.InboundHandlerFunc(manager.OnClientMessage),
		logger,
	)
	ops := newOpsServer(cfg.Ops.Addr(), promReg, pool)

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	if pool != nil {
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func(ctx context.Context) error {
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
						if err := pool.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("database health check failed", zap.Error(err))
						}
					}
				}
			},
			StopFn: func() {
				pool.Close()
			},
		})
	}

	lifecycle.Add("scheduler", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			return manager.Run(ctx)
		},
	})

	lifecycle.Add("acceptor", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			return acceptor.ListenAndServe()
		},
		StopFn: func() {
			acceptor.Stop()
		},
	})

	lifecycle.Add("ops", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			return ops.ListenAndServe()
		},
		StopFn: func() {
			ops.Stop()
		},
	})

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("listener_addr", cfg.Listener.Addr()),
		zap.String("ops_addr", cfg.Ops.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// opsServer exposes /metrics and /healthz on a separate listener.
type opsServer struct {
	srv *http.Server
}

func newOpsServer(addr string, promReg *prometheus.Registry, pool *postgres.Pool) *opsServer {
	router := mux.NewRouter()
	router.Path("/metrics").Handler(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	router.Path("/healthz").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			if err := pool.Health(r.Context(), 2*time.Second); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	return &opsServer{srv: &http.Server{Addr: addr, Handler: router}}
}

func (o *opsServer) ListenAndServe() error {
	if err := o.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (o *opsServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.srv.Shutdown(ctx)
}
