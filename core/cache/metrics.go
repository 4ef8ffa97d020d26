package cache

// Metrics receives store events. Implementations must not call back into the
// store: every method runs with the store lock held.
type Metrics interface {
	Hit()
	Miss()
	Eviction()
	Expiration()
	// Entries and Size report the store's totals after a mutation.
	Entries(n int)
	Size(bytes int64)
}

type nopMetrics struct{}

func (nopMetrics) Hit()        {}
func (nopMetrics) Miss()       {}
func (nopMetrics) Eviction()   {}
func (nopMetrics) Expiration() {}
func (nopMetrics) Entries(int) {}
func (nopMetrics) Size(int64)  {}

// NewNopMetrics returns a Metrics sink that discards every event.
func NewNopMetrics() Metrics { return nopMetrics{} }

var _ Metrics = nopMetrics{}
