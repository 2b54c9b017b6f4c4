package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/citychat"
	"github.com/aretw0/citychat/internal/config"
	"github.com/aretw0/citychat/internal/metrics"
	"github.com/aretw0/citychat/pkg/adapters/file"
	"github.com/aretw0/citychat/pkg/adapters/memory"
	"github.com/aretw0/citychat/pkg/adapters/redis"
	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/gateway"
	"github.com/aretw0/citychat/pkg/graph"
	"github.com/aretw0/citychat/pkg/menu"
	"github.com/aretw0/citychat/pkg/persistence/middleware"
	"github.com/aretw0/citychat/pkg/ports"
)

// Components is everything a command needs to host conversations.
type Components struct {
	Engine  *citychat.Engine
	Metrics *metrics.Metrics
	Config  *config.Config

	closers []func() error
}

// Close releases backing connections.
func (c *Components) Close() error {
	var errs []error
	for _, fn := range c.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// Build wires the engine from the configuration: graph, gateway, session
// store (with its middlewares and locker), metrics and debug hooks.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...citychat.Option) (*Components, error) {
	c := &Components{Config: cfg}

	g, err := LoadGraph(cfg.Graph.Path)
	if err != nil {
		return nil, err
	}

	store, locker, err := c.createStore(ctx, cfg.Session, logger)
	if err != nil {
		return nil, err
	}

	c.Metrics = metrics.New(liveSessions(store, logger))

	hooks := c.Metrics.Hooks()
	if logger.Enabled(ctx, slog.LevelDebug) {
		hooks = hooks.Merge(createDebugHooks(logger))
	}

	opts := []citychat.Option{
		citychat.WithLogger(logger),
		citychat.WithGraph(g),
		citychat.WithGateway(createGateway(cfg.Backend, logger)),
		citychat.WithStore(store),
		citychat.WithLifecycleHooks(hooks),
	}
	if locker != nil {
		opts = append(opts, citychat.WithLocker(locker))
	}

	c.Engine, err = citychat.New(append(opts, extra...)...)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return c, nil
}

// LoadGraph reads a YAML conversation tree, or returns the built-in one when
// path is empty.
func LoadGraph(path string) (*graph.Graph, error) {
	if path == "" {
		return menu.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph: %w", err)
	}
	defer f.Close()

	g, err := graph.LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph %s: %w", path, err)
	}
	return g, nil
}

func createGateway(cfg config.Backend, logger *slog.Logger) *gateway.Client {
	return gateway.New(
		gateway.WithBaseURL(cfg.BaseURL),
		gateway.WithPasteURL(cfg.PasteURL),
		gateway.WithShareURL(cfg.ShareURL),
		gateway.WithQueryField(cfg.QueryField),
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		gateway.WithLogger(logger),
	)
}

func (c *Components) createStore(ctx context.Context, cfg config.Session, logger *slog.Logger) (ports.SessionStore, ports.DistributedLocker, error) {
	var (
		store  ports.SessionStore
		locker ports.DistributedLocker
	)

	switch cfg.Store {
	case config.StoreRedis:
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithTTL(cfg.TTL),
			redis.WithPrefix(cfg.RedisPrefix),
		)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("redis unavailable at %s: %w", cfg.RedisAddr, err)
		}
		c.closers = append(c.closers, rs.Close)
		store = rs
		locker = redis.NewLocker(rs.Client(), cfg.RedisPrefix)
		logger.Info("Using redis session store", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
	case config.StoreFile:
		fs := file.New(cfg.Dir)
		store = fs
		logger.Info("Using file session store", "dir", fs.BasePath)
	default:
		store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.Redact)
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		keys, err := cfg.Keys()
		if err != nil {
			return nil, nil, err
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    keys[0],
			FallbackKeys: keys[1:],
		})
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), locker, nil
}

// liveSessions samples the store size for the live sessions gauge.
func liveSessions(store ports.SessionStore, logger *slog.Logger) func() float64 {
	return func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		ids, err := store.List(ctx)
		if err != nil {
			logger.Warn("Failed to count sessions", "err", err)
			return 0
		}
		return float64(len(ids))
	}
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Enter Node", "session_id", e.SessionID, "node", e.Node)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("Leave Node", "session_id", e.SessionID, "node", e.Node)
		},
		OnFetch: func(ctx context.Context, e *domain.FetchEvent) {
			if e.IsError {
				logger.Debug("Backend Call (Error)", "session_id", e.SessionID, "operation", e.Operation, "duration", e.Duration)
			} else {
				logger.Debug("Backend Call (Success)", "session_id", e.SessionID, "operation", e.Operation, "duration", e.Duration)
			}
		},
	}
}
