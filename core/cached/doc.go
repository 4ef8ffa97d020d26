// Package cached provides a generic cache-aside combinator: it wraps any
// fetch-shaped operation so repeated calls with identical arguments are
// served from a shared [cache.Store] instead of hitting the upstream.
//
// # Usage
//
//	type Args struct {
//	    TokenID string `json:"token_id"`
//	}
//
//	getInfo := cached.Wrap(store, "get_asset_info",
//	    func(ctx context.Context, a Args) (*pricing.AssetInfo, error) {
//	        return src.AssetInfo(ctx, a.TokenID)
//	    },
//	    cached.WithPrefix[Args]("metadata"),
//	    cached.WithTTL[Args](5*time.Minute),
//	)
//
//	info, err := getInfo(ctx, Args{TokenID: id})
//
// The wrapped function keeps the original's shape and failure behavior:
// errors propagate unchanged and are never cached, so a failed fetch is
// retried on the next call.
//
// # Keying
//
// By default the key is the operation name plus a fixed-width content hash
// of the arguments, derived from their canonical JSON form, so identical
// arguments always map to the same entry regardless of field or map
// ordering. [WithKeyFunc] substitutes a custom derivation, [WithPrefix]
// namespaces the keys for bulk clearing.
//
// # Concurrency
//
// The wrapper never holds store locks across a fetch. Two concurrent calls
// that miss on the same key both invoke the underlying operation unless
// [WithSingleFlight] is set, in which case they collapse into one fetch.
package cached
