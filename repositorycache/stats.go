package repositorycache

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Stats is a point-in-time snapshot of the repository counters.
type Stats struct {
	Hits             int64
	Misses           int64
	StoreErrors      int64
	AdvisoryFailures int64
	Corruptions      int64
}

type counters struct {
	hits             *xsync.Counter
	misses           *xsync.Counter
	storeErrors      *xsync.Counter
	advisoryFailures *xsync.Counter
	corruptions      *xsync.Counter
}

func newCounters() *counters {
	return &counters{
		hits:             xsync.NewCounter(),
		misses:           xsync.NewCounter(),
		storeErrors:      xsync.NewCounter(),
		advisoryFailures: xsync.NewCounter(),
		corruptions:      xsync.NewCounter(),
	}
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:             c.hits.Value(),
		Misses:           c.misses.Value(),
		StoreErrors:      c.storeErrors.Value(),
		AdvisoryFailures: c.advisoryFailures.Value(),
		Corruptions:      c.corruptions.Value(),
	}
}
