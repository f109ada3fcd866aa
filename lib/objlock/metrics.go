package objlock

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

var (
	bidsRecorded   = metrics.GetOrCreateCounter(`objlock_bids_recorded_total`)
	bucketsEvicted = metrics.GetOrCreateCounter(`objlock_bid_buckets_evicted_total`)
	expiredPurged  = metrics.GetOrCreateCounter(`objlock_expired_lockers_purged_total`)
)

// observe counts a finished lock class call by operation and result code
func observe(op string, err error) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`objlock_calls_total{op=%q,result=%q}`, op, CodeOf(err))).Inc()
}

// RegisterLedgerGauge exposes the bucket count of l as objlock_bid_buckets.
// Only the first registered ledger is reported.
func RegisterLedgerGauge(l *BidLedger) {
	metrics.GetOrCreateGauge(`objlock_bid_buckets`, func() float64 {
		return float64(l.Len())
	})
}
