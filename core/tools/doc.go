// Package tools defines the callable tool surface exposed to MCP clients:
// named definitions with JSON input schemas, and a [Registry] that
// dispatches calls to their handlers.
//
// [RegisterPricing] builds the full pricing tool set on top of a
// [pricing.Source] and the caching layer. Fetch tools are wrapped with
// [cached.Wrap], so repeated calls with identical arguments are served from
// the cache at the TTL of their data category (price, metadata, history or
// static); volatile operations call the source directly.
//
// # Usage
//
//	reg := tools.NewRegistry()
//	err := tools.RegisterPricing(reg, tools.PricingDeps{
//	    Source:  client,
//	    Store:   store,
//	    Manager: manager,
//	})
//
//	defs := reg.List()                                  // tools/list
//	out, err := reg.Dispatch(ctx, "get_erg_price", nil) // tools/call
package tools
