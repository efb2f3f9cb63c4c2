package resilience

import "golang.org/x/sync/singleflight"

// SingleFlight deduplicates concurrent calls for the same key, e.g. two
// workers asking for the same athlete profile.
type SingleFlight struct {
	group singleflight.Group
}

func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	return g.group.Do(key, fn)
}

func (g *SingleFlight) Forget(key string) {
	g.group.Forget(key)
}
