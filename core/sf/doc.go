// Package sf wraps [golang.org/x/sync/singleflight] with typed results.
//
// A [Group] allows at most one execution of a function per key at a time.
// Concurrent callers of [Group.Do] with the same key block until the first
// call completes and then receive its result. The cached package uses a
// Group to stop a herd of identical fetches from hitting the upstream API
// when a popular entry expires.
//
// # Usage
//
//	group := sf.New[*Quote]()
//
//	quote, err := group.Do("price:erg", func() (*Quote, error) {
//	    return fetchQuote(ctx, "erg")
//	})
//
// The type parameter keeps call sites free of assertions.
package sf
