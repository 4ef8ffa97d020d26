package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/codewandler/crux-go/adapters/crux"
	"github.com/codewandler/crux-go/core/cache"
	"github.com/codewandler/crux-go/core/mcp"
	"github.com/codewandler/crux-go/core/tools"
	"github.com/codewandler/crux-go/internal/config"
	"github.com/codewandler/crux-go/ports/pricing"
)

type (
	// Config assembles an App. Only Settings and Log are commonly set; the
	// remaining fields override pieces of the default wiring.
	Config struct {
		// Settings is the full process configuration. The zero value means
		// [config.Defaults].
		Settings config.Settings
		Log      *slog.Logger
		// Version is reported to clients during the initialize handshake.
		Version string
		// Source overrides the upstream client built from Settings.API,
		// for tests.
		Source pricing.Source
		// Metrics, when set, receives store events.
		Metrics cache.Metrics
	}

	// App is the assembled pricing server: store, upstream source, category
	// manager, tool registry and MCP front end.
	App struct {
		log      *slog.Logger
		store    *cache.Store
		manager  *cache.Manager
		registry *tools.Registry
		server   *mcp.Server
	}
)

// New wires an App from cfg. Zero Settings take [config.Defaults]; a nil
// Log means [slog.Default].
func New(cfg Config) (*App, error) {
	if cfg.Settings == (config.Settings{}) {
		cfg.Settings = config.Defaults()
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	st := cfg.Settings

	storeOpts := []cache.Option{
		cache.WithMaxSize(st.Cache.MaxSize),
		cache.WithCleanupInterval(st.Cache.CleanupInterval),
		cache.WithLogger(cfg.Log),
	}
	if cfg.Metrics != nil {
		storeOpts = append(storeOpts, cache.WithMetrics(cfg.Metrics))
	}
	store := cache.New(storeOpts...)

	source := cfg.Source
	if source == nil {
		source = crux.New(crux.Config{
			BaseURL:    st.API.BaseURL,
			APIKey:     st.API.Key,
			Timeout:    st.API.Timeout,
			MaxRetries: st.API.MaxRetries,
			RetryDelay: st.API.RetryDelay,
			RPM:        st.RateLimit.RPM,
			Burst:      st.RateLimit.Burst,
			Log:        cfg.Log,
		})
	}

	manager := cache.NewManager(store, cache.TTLs{
		Price:    st.Cache.TTLPrice,
		Metadata: st.Cache.TTLMetadata,
		History:  st.Cache.TTLHistory,
		Static:   st.Cache.TTLStatic,
	})

	registry := tools.NewRegistry()
	if err := tools.RegisterPricing(registry, tools.PricingDeps{
		Source:  source,
		Store:   store,
		Manager: manager,
		Log:     cfg.Log,
	}); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	return &App{
		log:      cfg.Log,
		store:    store,
		manager:  manager,
		registry: registry,
		server: mcp.NewServer(mcp.Options{
			Log:      cfg.Log,
			Name:     st.Server.Name,
			Version:  cfg.Version,
			Registry: registry,
		}),
	}, nil
}

// Store returns the underlying cache store.
func (a *App) Store() *cache.Store { return a.store }

// Manager returns the category façade over the store.
func (a *App) Manager() *cache.Manager { return a.manager }

// Registry returns the tool registry.
func (a *App) Registry() *tools.Registry { return a.registry }

// Serve runs the MCP server over r and w with the expiry reaper running,
// and logs a final cache stats snapshot on the way out. It returns nil when
// the client closes its end or ctx is cancelled.
func (a *App) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	a.store.StartReaper()
	defer a.store.StopReaper()

	err := a.server.Serve(ctx, r, w)

	snap := a.store.Stats()
	a.log.Info("cache stats at shutdown",
		slog.Int64("hits", snap.Hits),
		slog.Int64("misses", snap.Misses),
		slog.Float64("hit_rate", snap.HitRate),
		slog.Int("entries", snap.Entries),
		slog.Int64("evictions", snap.Evictions),
		slog.Int64("expirations", snap.Expirations),
	)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
