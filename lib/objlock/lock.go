package objlock

import (
	"strings"

	"github.com/ValentinKolb/objlock/lib/objclass"
	"github.com/jonboulle/clockwork"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("objlock")

// Class implements the lock methods. Every method expects to run inside
// objclass.Executor.Exec, which serializes all calls for one object.
type Class struct {
	ledger *BidLedger
	clock  clockwork.Clock
}

// NewClass creates the lock class. The ledger is shared by all objects the
// class serves, clock may be nil for the real clock.
func NewClass(ledger *BidLedger, clock clockwork.Clock) *Class {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ledger == nil {
		ledger = NewBidLedger(&BidLedgerOptions{SweepEvery: 128, SweepBatch: 16, Clock: clock})
	}
	return &Class{ledger: ledger, clock: clock}
}

// --------------------------------------------------------------------------
// Acquire / Renew
// --------------------------------------------------------------------------

// Lock acquires or renews the lock op.Name for the requester of hctx.
func (c *Class) Lock(hctx objclass.Context, op LockOp) (err error) {
	defer func() { observe("lock", err) }()

	if err := validateLockOp(op); err != nil {
		return err
	}

	// bids live outside the pool, so they are keyed by the pool qualified id
	did := hctx.DurableID()
	origin := hctx.Origin()
	now := c.clock.Now()

	log.Debugf("lock %s/%s type=%s cookie=%q tag=%q by %s", did, op.Name, op.Type, op.Cookie, op.Tag, origin.Name)

	// the bid is kept even if this attempt fails, so competitors see it
	if op.Bid != nil {
		c.ledger.RecordBid(did, op.Name, origin.Name, op.Bid.Amount, now.Add(op.Bid.Duration))
	}

	info, err := c.readLock(hctx, op.Name)
	if err != nil {
		return err
	}

	// a tag mismatch must not be hidden behind a renewal
	if len(info.Lockers) > 0 && op.Tag != info.Tag {
		return errorf(RetCBusy, "lock %s is held with tag %q", op.Name, info.Tag)
	}

	id := LockerID{Locker: origin.Name, Cookie: op.Cookie}
	_, renewing := info.Lockers[id]
	switch {
	case renewing && op.Flags&(FlagMayRenew|FlagMustRenew) == 0:
		return errorf(RetCExists, "%s already holds lock %s", id, op.Name)
	case renewing:
		delete(info.Lockers, id)
	case op.Flags&FlagMustRenew != 0:
		return errorf(RetCNotFound, "%s does not hold lock %s", id, op.Name)
	}

	if len(info.Lockers) > 0 {
		if op.Type.IsExclusive() {
			return errorf(RetCBusy, "lock %s is already held", op.Name)
		}
		if info.Type != op.Type {
			return errorf(RetCBusy, "lock %s is held as %s", op.Name, info.Type)
		}
	}

	if !renewing && op.Bid != nil {
		if !c.ledger.IsLowestUnexpired(did, op.Name, origin.Name, op.Bid.Amount, now) {
			return errorf(RetCBusy, "bid %d for lock %s is not the lowest", op.Bid.Amount, op.Name)
		}
	}

	li := LockerInfo{
		Addr:        origin.Addr.Legacy(),
		Description: op.Description,
	}
	if op.Duration > 0 {
		li.Expiration = now.Add(op.Duration)
	}

	info.Type = op.Type
	info.Tag = op.Tag
	info.Lockers[id] = li

	return c.writeLock(hctx, op.Name, info)
}

func validateLockOp(op LockOp) error {
	if !op.Type.IsValid() {
		return errorf(RetCInvalidArgument, "invalid lock type %s", op.Type)
	}
	if op.Name == "" {
		return errorf(RetCInvalidArgument, "lock name must not be empty")
	}
	if op.Flags&FlagMayRenew != 0 && op.Flags&FlagMustRenew != 0 {
		return errorf(RetCInvalidArgument, "flags may-renew and must-renew are mutually exclusive")
	}
	if op.Duration < 0 {
		return errorf(RetCInvalidArgument, "negative lock duration %s", op.Duration)
	}
	if op.Bid != nil {
		if !op.Type.IsExclusive() {
			return errorf(RetCInvalidArgument, "bids are only allowed on exclusive locks")
		}
		if op.Bid.Amount < 0 {
			return errorf(RetCInvalidArgument, "negative bid amount %d", op.Bid.Amount)
		}
		if op.Bid.Duration < 0 {
			return errorf(RetCInvalidArgument, "negative bid duration %s", op.Bid.Duration)
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Release
// --------------------------------------------------------------------------

// Unlock releases the caller's entry with the given cookie.
func (c *Class) Unlock(hctx objclass.Context, name, cookie string) (err error) {
	defer func() { observe("unlock", err) }()
	return c.removeLocker(hctx, name, hctx.Origin().Name, cookie)
}

// BreakLock releases the entry of another locker.
func (c *Class) BreakLock(hctx objclass.Context, name string, locker EntityName, cookie string) (err error) {
	defer func() { observe("break_lock", err) }()
	log.Infof("%s breaks lock %s/%s of %s", hctx.Origin().Name, hctx.DurableID(), name, locker)
	return c.removeLocker(hctx, name, locker, cookie)
}

func (c *Class) removeLocker(hctx objclass.Context, name string, locker EntityName, cookie string) error {
	info, err := c.readLock(hctx, name)
	if err != nil {
		return err
	}

	id := LockerID{Locker: locker, Cookie: cookie}
	if _, ok := info.Lockers[id]; !ok {
		return errorf(RetCNotFound, "%s does not hold lock %s", id, name)
	}
	delete(info.Lockers, id)

	if info.Type.IsEphemeral() {
		if len(info.Lockers) != 0 {
			panic("objlock: ephemeral lock " + name + " on " + hctx.DurableID() + " still has lockers after release")
		}
		return c.removeLock(hctx, name)
	}
	return c.writeLock(hctx, name, info)
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

// GetInfo returns the current record of a lock with expired lockers removed.
// A lock that does not exist is reported as type none without lockers.
func (c *Class) GetInfo(hctx objclass.Context, name string) (info LockInfo, err error) {
	defer func() { observe("get_info", err) }()
	return c.readLock(hctx, name)
}

// ListLocks returns the names of all lock records on the object in ascending order.
func (c *Class) ListLocks(hctx objclass.Context) (names []string, err error) {
	defer func() { observe("list_locks", err) }()

	attrs, err := hctx.ListXattrs()
	if err != nil {
		log.Errorf("error listing xattrs on %s: %v", hctx.DurableID(), err)
		return nil, errorf(RetCIO, "failed to list locks: %v", err)
	}

	// attrs is sorted and the prefix keeps the order
	names = make([]string, 0, len(attrs))
	for _, attr := range attrs {
		if name, ok := strings.CutPrefix(attr, LockPrefix); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// AssertLocked fails with ErrBusy unless the caller holds the lock with the
// given type, tag and cookie.
func (c *Class) AssertLocked(hctx objclass.Context, name string, typ LockType, tag, cookie string) (err error) {
	defer func() { observe("assert_locked", err) }()
	_, _, err = c.checkHeld(hctx, name, typ, tag, cookie)
	return err
}

// SetCookie moves the caller's entry from cookie to newCookie, keeping its
// expiration, address and description.
func (c *Class) SetCookie(hctx objclass.Context, name string, typ LockType, tag, cookie, newCookie string) (err error) {
	defer func() { observe("set_cookie", err) }()

	info, id, err := c.checkHeld(hctx, name, typ, tag, cookie)
	if err != nil {
		return err
	}

	newID := LockerID{Locker: id.Locker, Cookie: newCookie}
	if _, inUse := info.Lockers[newID]; inUse {
		return errorf(RetCBusy, "cookie %q is already in use on lock %s", newCookie, name)
	}

	info.Lockers[newID] = info.Lockers[id]
	delete(info.Lockers, id)
	return c.writeLock(hctx, name, info)
}

// checkHeld loads a lock and verifies the caller holds it as described
func (c *Class) checkHeld(hctx objclass.Context, name string, typ LockType, tag, cookie string) (LockInfo, LockerID, error) {
	if !typ.IsValid() {
		return LockInfo{}, LockerID{}, errorf(RetCInvalidArgument, "invalid lock type %s", typ)
	}
	if name == "" {
		return LockInfo{}, LockerID{}, errorf(RetCInvalidArgument, "lock name must not be empty")
	}

	info, err := c.readLock(hctx, name)
	if err != nil {
		return LockInfo{}, LockerID{}, err
	}

	id := LockerID{Locker: hctx.Origin().Name, Cookie: cookie}
	switch {
	case len(info.Lockers) == 0:
		return info, id, errorf(RetCBusy, "lock %s is not held", name)
	case info.Type != typ:
		return info, id, errorf(RetCBusy, "lock %s is held as %s, not %s", name, info.Type, typ)
	case info.Tag != tag:
		return info, id, errorf(RetCBusy, "lock %s is held with tag %q", name, info.Tag)
	}
	if _, ok := info.Lockers[id]; !ok {
		return info, id, errorf(RetCBusy, "%s does not hold lock %s", id, name)
	}
	return info, id, nil
}
