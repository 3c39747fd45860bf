package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"zweigbib/internal/bibliography"
	"zweigbib/internal/browse"
	"zweigbib/internal/source"
	synchub "zweigbib/internal/sync"
	"zweigbib/pkg/utils"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default ./config.yaml or ~/.zweigbib/config.yaml)")
	flag.Parse()

	cfg, err := utils.LoadConfig(*cfgFile)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger := utils.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := bibliography.NewStore(source.NewMux(cfg.FetchTimeout, cfg.FetchAttempts), logger)
	reload := func(ctx context.Context) error {
		return store.Load(ctx, cfg.Source)
	}

	hub := synchub.NewHub(logger)
	synchub.Attach(hub, store)
	tcpSrv := synchub.NewServer(cfg.TCPAddr, hub, logger)

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/ws", synchub.WSHandler(hub, logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "source": cfg.Source})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		st := store.Status()
		if st.State != bibliography.Loaded {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"load":        st,
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"load":        st,
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	h := browse.NewHandler(store, reload, logger)
	router.GET("/", h.Index)
	h.RegisterRoutes(router.Group("/api"))

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("http api listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Listeners are attached, so the first load is broadcast like any other.
	go func() {
		if err := reload(ctx); err != nil {
			logger.Error("initial load failed", "source", cfg.Source, "error", err)
		}
	}()

	if cfg.Watch {
		switch source.KindOf(cfg.Source) {
		case source.KindFile, source.KindSQLite:
			go func() {
				err := source.WatchFile(ctx, source.FilePath(cfg.Source), logger, func() {
					if err := reload(ctx); err != nil && !errors.Is(err, bibliography.ErrLoadInProgress) {
						logger.Error("reload failed", "source", cfg.Source, "error", err)
					}
				})
				if err != nil {
					logger.Error("watch failed", "source", cfg.Source, "error", err)
				}
			}()
		default:
			logger.Warn("watch ignored for remote source", "source", cfg.Source)
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
		stop()
	}

	logger.Info("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	hub.Close()

	wg.Wait()
	logger.Info("servers stopped")
}
