package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aylabs/musicore/pkg/api"
	"github.com/aylabs/musicore/pkg/cache"
	"github.com/aylabs/musicore/pkg/pipeline"
	"github.com/aylabs/musicore/pkg/store"
)

// serveCommand creates the serve command for running the API server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		configPath string
		redisAddr  string
		mongoURI   string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engraving API server",
		Long: `Run the engraving API server.

The server exposes score storage and layout computation over HTTP. By
default it uses an in-memory score store and the local file cache; point it
at Redis (--redis-addr) and MongoDB (--mongo-uri) for multi-instance
deployments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") && fileCfg.Server.Addr != "" {
				addr = fileCfg.Server.Addr
			}
			if redisAddr == "" {
				redisAddr = fileCfg.Server.RedisAddr
			}
			if mongoURI == "" {
				mongoURI = fileCfg.Server.MongoURI
			}
			return c.runServe(cmd.Context(), addr, redisAddr, mongoURI, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML config file")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address for the layout cache (host:port)")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI for score storage")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable layout caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, redisAddr, mongoURI string, noCache bool) error {
	layoutCache, err := c.newServerCache(ctx, redisAddr, noCache)
	if err != nil {
		return err
	}

	scoreStore, err := c.newServerStore(ctx, mongoURI)
	if err != nil {
		return err
	}
	defer scoreStore.Close()

	runner := pipeline.NewRunner(layoutCache, nil, c.Logger)
	defer runner.Close()

	server := api.NewServer(runner, scoreStore, c.Logger)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

// newServerCache selects the layout cache backend: Redis when configured,
// otherwise the local file cache.
func (c *CLI) newServerCache(ctx context.Context, redisAddr string, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: redisAddr})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.Logger.Info("using redis cache", "addr", redisAddr)
		return rc, nil
	}
	return newCache(false)
}

// newServerStore selects the score store backend: MongoDB when configured,
// otherwise in-memory.
func (c *CLI) newServerStore(ctx context.Context, mongoURI string) (store.Store, error) {
	if mongoURI != "" {
		ms, err := store.NewMongoStore(ctx, store.MongoConfig{URI: mongoURI})
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		c.Logger.Info("using mongodb store")
		return ms, nil
	}
	c.Logger.Warn("no --mongo-uri given, scores are stored in memory")
	return store.NewMemoryStore(), nil
}
