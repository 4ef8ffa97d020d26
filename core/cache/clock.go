package cache

import "time"

// Clock abstracts the time source so expiration behavior is testable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
