package cached

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/codewandler/crux-go/core/cache"
	"github.com/codewandler/crux-go/core/sf"
)

// Func is the shape of an operation the combinator wraps: given arguments it
// either returns a value or fails.
type Func[A, T any] func(ctx context.Context, args A) (T, error)

type config[A any] struct {
	ttl    time.Duration
	prefix string
	keyFn  func(A) string
	skipFn func(A) bool
	sf     bool
	log    *slog.Logger
}

// Option configures a wrapped operation.
type Option[A any] func(*config[A])

// WithTTL sets the lifetime of values stored by the wrapped operation. Zero
// leaves the store's default TTL in effect.
func WithTTL[A any](d time.Duration) Option[A] {
	return func(c *config[A]) {
		c.ttl = d
	}
}

// WithPrefix namespaces the derived keys.
func WithPrefix[A any](p string) Option[A] {
	return func(c *config[A]) {
		c.prefix = p
	}
}

// WithKeyFunc replaces the default argument-hashing key derivation.
func WithKeyFunc[A any](fn func(A) string) Option[A] {
	return func(c *config[A]) {
		c.keyFn = fn
	}
}

// WithSkip bypasses the cache entirely, lookup and store both, for calls
// whose arguments match the predicate.
func WithSkip[A any](fn func(A) bool) Option[A] {
	return func(c *config[A]) {
		c.skipFn = fn
	}
}

// WithSingleFlight deduplicates concurrent fetches of the same key: one
// caller fetches, the rest wait for its result. Off by default, matching
// the store's documented behavior where concurrent misses both fetch and
// the last store wins.
func WithSingleFlight[A any]() Option[A] {
	return func(c *config[A]) {
		c.sf = true
	}
}

// WithLogger sets the logger for key-derivation warnings.
func WithLogger[A any](l *slog.Logger) Option[A] {
	return func(c *config[A]) {
		c.log = l
	}
}

// Wrap returns a function of fn's shape that consults store before calling
// fn and stores successful results after.
//
// Keys default to name plus a content hash of the arguments, namespaced by
// [WithPrefix]. Fetch failures propagate unchanged and are never cached. A
// stored value whose dynamic type does not match T is dropped and refetched;
// the store counts that lookup as a hit before the drop.
func Wrap[A, T any](store *cache.Store, name string, fn Func[A, T], opts ...Option[A]) Func[A, T] {
	cfg := config[A]{
		log: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(&cfg)
	}

	group := sf.New[T]()

	keyFor := func(args A) string {
		if cfg.keyFn != nil {
			return cache.Key(cfg.prefix, cfg.keyFn(args))
		}
		return cache.Key(cfg.prefix, name+":"+hashArgs(cfg.log, name, args))
	}

	var setOpts []cache.SetOption
	if cfg.ttl > 0 {
		setOpts = []cache.SetOption{cache.WithTTL(cfg.ttl)}
	}

	fetch := func(ctx context.Context, args A, key string) (T, error) {
		v, err := fn(ctx, args)
		if err != nil {
			var zero T
			return zero, err
		}
		store.Set(key, v, setOpts...)
		return v, nil
	}

	return func(ctx context.Context, args A) (T, error) {
		if cfg.skipFn != nil && cfg.skipFn(args) {
			return fn(ctx, args)
		}

		key := keyFor(args)
		if v, ok := store.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
			// Drop the mistyped entry so it cannot keep registering hits
			// if the refetch fails.
			store.Delete(key)
		}

		if !cfg.sf {
			return fetch(ctx, args, key)
		}

		return group.Do(key, func() (T, error) {
			return fetch(ctx, args, key)
		})
	}
}

// hashArgs derives the key suffix from the call arguments. Arguments that
// cannot be serialized degrade to their raw fmt form rather than failing
// the call.
func hashArgs[A any](log *slog.Logger, name string, args A) string {
	b, err := json.Marshal(args)
	if err != nil {
		log.Warn("cache key serialization failed, using raw form",
			slog.String("operation", name),
			slog.Any("error", err))
		b = fmt.Appendf(nil, "%v", args)
	}
	return cache.Hash(b)
}
