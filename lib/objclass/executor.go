package objclass

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/ValentinKolb/objlock/lib/db/util"
	"github.com/ValentinKolb/objlock/lib/xattr"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("objclass")

var (
	// ErrInvalidObject is returned for empty object ids or ids containing a NUL byte
	ErrInvalidObject = errors.New("objclass: invalid object id")
	// ErrConflict is returned if the changes of a method could not be
	// committed because another writer modified the object meanwhile
	ErrConflict = errors.New("objclass: object modified concurrently")
)

// ExecutorOptions configures an Executor
type ExecutorOptions struct {
	Stripes int    // Number of mutex stripes (0 = 16 per CPU)
	PoolID  uint64 // Id of the pool the executor serves, part of Context.DurableID
}

// Executor runs object class methods against the objects of one storage
// pool. At most one method runs per object at a time, methods on different
// objects run concurrently unless their ids hash to the same stripe.
type Executor struct {
	attrs   xattr.IAttrStore
	pool    uint64
	seed    uint64
	stripes []sync.Mutex
}

// NewExecutor creates an executor for the objects stored in attrs
func NewExecutor(attrs xattr.IAttrStore, opts *ExecutorOptions) *Executor {
	var o ExecutorOptions
	if opts != nil {
		o = *opts
	}
	if o.Stripes <= 0 {
		o.Stripes = 16 * runtime.NumCPU()
	}
	return &Executor{
		attrs:   attrs,
		pool:    o.PoolID,
		seed:    util.GenerateSeed(),
		stripes: make([]sync.Mutex, o.Stripes),
	}
}

// PoolID returns the id of the pool the executor serves
func (e *Executor) PoolID() uint64 {
	return e.pool
}

// Exec runs fn with exclusive access to the object oid.
//
// The attribute changes of fn are committed in one transaction after fn
// returns, also if fn failed. The error returned by fn is passed through
// unchanged. If fn succeeded but the commit lost against another writer of
// the same pool, Exec returns an error wrapping ErrConflict and none of the
// changes are applied.
func (e *Executor) Exec(oid string, origin Origin, fn func(Context) error) error {
	if oid == "" || strings.IndexByte(oid, 0) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidObject, oid)
	}

	mu := &e.stripes[uint64(util.HashString(oid, e.seed))%uint64(len(e.stripes))]
	mu.Lock()
	defer mu.Unlock()

	log.Debugf("exec on %s for %s", DurableID(e.pool, oid), origin.Name)

	batch := e.attrs.Begin(oid)
	err := fn(&objectContext{oid: oid, pool: e.pool, origin: origin, batch: batch})

	cerr := batch.Commit()
	switch {
	case cerr == nil:
		return err
	case err != nil:
		log.Warningf("dropping changes of failed method on %s: %v", DurableID(e.pool, oid), cerr)
		return err
	case errors.Is(cerr, xattr.ErrConflict):
		log.Infof("commit conflict on %s: %v", DurableID(e.pool, oid), cerr)
		return fmt.Errorf("%w: %v", ErrConflict, cerr)
	default:
		return fmt.Errorf("objclass: commit on %s failed: %w", DurableID(e.pool, oid), cerr)
	}
}
