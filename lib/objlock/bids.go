package objlock

import (
	"sync"
	"time"

	"github.com/ValentinKolb/objlock/lib/db/util"
	"github.com/jonboulle/clockwork"
)

// --------------------------------------------------------------------------
// Bid Ledger
// --------------------------------------------------------------------------

// bidRecord is the latest bid of one locker for one lock
type bidRecord struct {
	amount     int32
	expiration time.Time
}

// bucketKey addresses the bids for one lock on one object
type bucketKey struct {
	oid  string
	name string
}

// BidLedgerOptions configures a BidLedger
type BidLedgerOptions struct {
	SweepEvery uint64          // Ledger operations between two sweeps (0 = never sweep automatically)
	SweepBatch int             // Maximum number of buckets evicted per automatic sweep
	Clock      clockwork.Clock // Time source of automatic sweeps (nil = real clock)
}

// DefaultBidLedgerOptions returns the default ledger options
func DefaultBidLedgerOptions() *BidLedgerOptions {
	return &BidLedgerOptions{
		SweepEvery: 128,
		SweepBatch: 16,
		Clock:      clockwork.NewRealClock(),
	}
}

// BidLedger tracks outstanding bids for exclusive locks across all objects of
// a server process. It is not persisted. Objects are addressed by their
// durable id (objclass.DurableID), so one ledger can serve several pools.
//
// A single mutex guards the whole ledger. Bids are rare compared to plain
// lock traffic, so contention stays low.
type BidLedger struct {
	mu      sync.Mutex
	bids    map[string]map[string]map[EntityName]bidRecord // durable object id -> lock name -> locker
	buckets *util.MapHeap[bucketKey]                       // priority: latest expiration in the bucket (unix nanos)
	ops     uint64
	opts    BidLedgerOptions
}

// NewBidLedger creates an empty ledger. opts may be nil.
func NewBidLedger(opts *BidLedgerOptions) *BidLedger {
	if opts == nil {
		opts = DefaultBidLedgerOptions()
	}
	o := *opts
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.SweepBatch <= 0 {
		o.SweepBatch = 1
	}
	return &BidLedger{
		bids:    make(map[string]map[string]map[EntityName]bidRecord),
		buckets: util.NewMapHeap[bucketKey](),
		opts:    o,
	}
}

// RecordBid inserts or overwrites the bid of who for the lock name on oid.
func (l *BidLedger) RecordBid(oid, name string, who EntityName, amount int32, expiration time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	byName, ok := l.bids[oid]
	if !ok {
		byName = make(map[string]map[EntityName]bidRecord)
		l.bids[oid] = byName
	}
	bucket, ok := byName[name]
	if !ok {
		bucket = make(map[EntityName]bidRecord)
		byName[name] = bucket
	}
	bucket[who] = bidRecord{amount: amount, expiration: expiration}
	l.reindex(bucketKey{oid, name}, bucket)

	bidsRecorded.Inc()
	l.tick()
}

// IsLowestUnexpired drops every bid for the lock that expired before now and
// reports whether no remaining bid is strictly lower than amount. Equal
// amounts all pass.
func (l *BidLedger) IsLowestUnexpired(oid, name string, who EntityName, amount int32, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.tick()

	key := bucketKey{oid, name}
	bucket := l.bids[oid][name]

	lowest := true
	for bidder, rec := range bucket {
		if rec.expiration.Before(now) {
			delete(bucket, bidder)
			continue
		}
		if rec.amount < amount {
			log.Debugf("bid %d of %s on %s/%s outbid by %s (%d)", amount, who, oid, name, bidder, rec.amount)
			lowest = false
		}
	}

	if len(bucket) == 0 {
		l.drop(key)
	} else {
		l.reindex(key, bucket)
	}
	return lowest
}

// Sweep evicts every bucket whose bids all expired before now and returns
// the number of evicted buckets.
func (l *BidLedger) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweep(now, -1)
}

// Len returns the number of (object, lock name) buckets in the ledger
func (l *BidLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buckets.Len()
}

// --------------------------------------------------------------------------
// Internal helpers (caller holds l.mu)
// --------------------------------------------------------------------------

// tick counts a ledger operation and runs a bounded sweep every SweepEvery operations
func (l *BidLedger) tick() {
	l.ops++
	if l.opts.SweepEvery == 0 || l.ops%l.opts.SweepEvery != 0 {
		return
	}
	if n := l.sweep(l.opts.Clock.Now(), l.opts.SweepBatch); n > 0 {
		log.Debugf("bid ledger sweep evicted %d buckets", n)
	}
}

// sweep evicts up to limit expired buckets (limit < 0 = no limit)
func (l *BidLedger) sweep(now time.Time, limit int) int {
	evicted := 0
	for limit < 0 || evicted < limit {
		oldest, ok := l.buckets.Peek()
		if !ok || oldest.Priority >= now.UnixNano() {
			break
		}
		l.drop(oldest.Key)
		evicted++
	}
	bucketsEvicted.Add(evicted)
	return evicted
}

// reindex sets the heap priority of a bucket to its latest expiration
func (l *BidLedger) reindex(key bucketKey, bucket map[EntityName]bidRecord) {
	var latest int64
	first := true
	for _, rec := range bucket {
		if exp := rec.expiration.UnixNano(); first || exp > latest {
			latest = exp
			first = false
		}
	}
	l.buckets.AddItem(key, latest)
}

// drop removes a bucket from the ledger and the heap
func (l *BidLedger) drop(key bucketKey) {
	l.buckets.RemoveByKey(key)
	if byName, ok := l.bids[key.oid]; ok {
		delete(byName, key.name)
		if len(byName) == 0 {
			delete(l.bids, key.oid)
		}
	}
}
