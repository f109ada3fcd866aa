package objlock

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/ValentinKolb/objlock/lib/db"
	"github.com/ValentinKolb/objlock/lib/db/engines/maple"
	"github.com/ValentinKolb/objlock/lib/objclass"
	"github.com/ValentinKolb/objlock/lib/store"
	"github.com/ValentinKolb/objlock/lib/store/lstore"
	"github.com/ValentinKolb/objlock/lib/xattr"
	"github.com/jonboulle/clockwork"
)

// --------------------------------------------------------------------------
// Test Harness
// --------------------------------------------------------------------------

type harness struct {
	clock  clockwork.FakeClock
	ledger *BidLedger
	class  *Class
	exec   *objclass.Executor
	pool   store.IStore
}

func newHarness() *harness {
	clock := clockwork.NewFakeClock()
	pool := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
	ledger := NewBidLedger(&BidLedgerOptions{SweepEvery: 0, Clock: clock})
	return &harness{
		clock:  clock,
		ledger: ledger,
		class:  NewClass(ledger, clock),
		exec:   objclass.NewExecutor(xattr.NewAttrStore(pool), &objclass.ExecutorOptions{PoolID: 1}),
		pool:   pool,
	}
}

// did returns the ledger key of an object of the harness pool
func (h *harness) did(oid string) string {
	return objclass.DurableID(h.exec.PoolID(), oid)
}

func (h *harness) client(num uint64) IClient {
	return NewLocalClient(h.exec, h.class, objclass.Origin{
		Name: objclass.ClientName(num),
		Addr: EntityAddr{Type: objclass.AddrTypeMsgr2, Addr: fmt.Sprintf("10.0.0.%d:6800", num), Nonce: uint32(num)},
	})
}

func exclusive(name, cookie string) LockOp {
	return LockOp{Name: name, Type: LockTypeExclusive, Cookie: cookie}
}

func shared(name, cookie, tag string) LockOp {
	return LockOp{Name: name, Type: LockTypeShared, Cookie: cookie, Tag: tag}
}

func expectCode(t *testing.T, err error, want RetCode) {
	t.Helper()
	if got := CodeOf(err); got != want {
		t.Fatalf("expected %s, got %s (%v)", want, got, err)
	}
}

// --------------------------------------------------------------------------
// Validation
// --------------------------------------------------------------------------

func TestLockValidation(t *testing.T) {
	tests := []struct {
		name string
		op   LockOp
	}{
		{"type none", LockOp{Name: "l", Type: LockTypeNone}},
		{"unknown type", LockOp{Name: "l", Type: LockType(9)}},
		{"empty name", LockOp{Name: "", Type: LockTypeExclusive}},
		{"contradicting flags", LockOp{Name: "l", Type: LockTypeExclusive, Flags: FlagMayRenew | FlagMustRenew}},
		{"bid on shared", LockOp{Name: "l", Type: LockTypeShared, Bid: &Bid{Amount: 1, Duration: time.Second}}},
		{"negative bid", LockOp{Name: "l", Type: LockTypeExclusive, Bid: &Bid{Amount: -1, Duration: time.Second}}},
		{"negative duration", LockOp{Name: "l", Type: LockTypeExclusive, Duration: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			expectCode(t, h.client(1).Lock("obj", tt.op), RetCInvalidArgument)

			// validation has no side effects
			if h.ledger.Len() != 0 {
				t.Errorf("rejected request left a bid behind")
			}
			names, _ := h.client(1).ListLocks("obj")
			if len(names) != 0 {
				t.Errorf("rejected request created a record: %v", names)
			}
		})
	}
}

func TestInvalidObject(t *testing.T) {
	h := newHarness()
	expectCode(t, h.client(1).Lock("", exclusive("l", "c")), RetCInvalidArgument)
}

// --------------------------------------------------------------------------
// Acquire / Renew
// --------------------------------------------------------------------------

func TestExclusiveConflictAndRenew(t *testing.T) {
	h := newHarness()
	a, b := h.client(1), h.client(2)

	op := exclusive("l", "c")
	op.Duration = 10 * time.Second
	if err := a.Lock("obj", op); err != nil {
		t.Fatal(err)
	}

	expectCode(t, b.Lock("obj", op), RetCBusy)

	// same identity and cookie without renew flag
	expectCode(t, a.Lock("obj", op), RetCExists)

	before, _ := a.GetInfo("obj", "l")
	h.clock.Advance(5 * time.Second)

	op.Flags = FlagMayRenew
	if err := a.Lock("obj", op); err != nil {
		t.Fatalf("renew failed: %v", err)
	}

	after, _ := a.GetInfo("obj", "l")
	id := LockerID{Locker: a.Whoami(), Cookie: "c"}
	if len(after.Lockers) != 1 {
		t.Fatalf("renew must replace the entry, got %d lockers", len(after.Lockers))
	}
	if !after.Lockers[id].Expiration.After(before.Lockers[id].Expiration) {
		t.Errorf("renew did not extend the expiration: %v -> %v", before.Lockers[id].Expiration, after.Lockers[id].Expiration)
	}
}

func TestMustRenew(t *testing.T) {
	h := newHarness()
	a := h.client(1)

	op := exclusive("l", "c")
	op.Flags = FlagMustRenew
	expectCode(t, a.Lock("obj", op), RetCNotFound)

	op.Flags = 0
	if err := a.Lock("obj", op); err != nil {
		t.Fatal(err)
	}

	op.Flags = FlagMustRenew
	op.Description = "renewed"
	if err := a.Lock("obj", op); err != nil {
		t.Fatalf("must-renew of a held lock failed: %v", err)
	}
	info, _ := a.GetInfo("obj", "l")
	if info.Lockers[LockerID{a.Whoami(), "c"}].Description != "renewed" {
		t.Errorf("renewal did not update the entry: %+v", info)
	}
}

func TestSameIdentityDifferentCookies(t *testing.T) {
	h := newHarness()
	a := h.client(1)

	if err := a.Lock("obj", shared("l", "c1", "t")); err != nil {
		t.Fatal(err)
	}
	if err := a.Lock("obj", shared("l", "c2", "t")); err != nil {
		t.Fatal(err)
	}
	info, _ := a.GetInfo("obj", "l")
	if len(info.Lockers) != 2 {
		t.Errorf("expected two entries for one identity, got %d", len(info.Lockers))
	}

	// an exclusive lock held under one cookie blocks the same identity with another cookie
	if err := a.Lock("obj", exclusive("x", "c1")); err != nil {
		t.Fatal(err)
	}
	expectCode(t, a.Lock("obj", exclusive("x", "c2")), RetCBusy)
}

func TestSharedLocks(t *testing.T) {
	h := newHarness()
	a, b, c := h.client(1), h.client(2), h.client(3)

	if err := a.Lock("obj", shared("l", "c", "tag")); err != nil {
		t.Fatal(err)
	}
	if err := b.Lock("obj", shared("l", "c", "tag")); err != nil {
		t.Fatal(err)
	}

	info, err := c.GetInfo("obj", "l")
	if err != nil {
		t.Fatal(err)
	}
	if info.Type != LockTypeShared || info.Tag != "tag" || len(info.Lockers) != 2 {
		t.Fatalf("unexpected info %+v", info)
	}
	for _, who := range []IClient{a, b} {
		if _, ok := info.Lockers[LockerID{who.Whoami(), "c"}]; !ok {
			t.Errorf("%s missing from lockers", who.Whoami())
		}
	}

	expectCode(t, c.Lock("obj", shared("l", "c", "other")), RetCBusy)
	expectCode(t, c.Lock("obj", exclusive("l", "c")), RetCBusy)
}

func TestTagCheckPrecedesRenewal(t *testing.T) {
	h := newHarness()
	a := h.client(1)

	if err := a.Lock("obj", shared("l", "c", "t1")); err != nil {
		t.Fatal(err)
	}

	// a renewal with a different tag is a conflict, not a renewal or an exists error
	op := shared("l", "c", "t2")
	op.Flags = FlagMayRenew
	expectCode(t, a.Lock("obj", op), RetCBusy)

	op.Flags = 0
	expectCode(t, a.Lock("obj", op), RetCBusy)
}

func TestSharedBlockedByExclusive(t *testing.T) {
	h := newHarness()
	a, b := h.client(1), h.client(2)

	if err := a.Lock("obj", exclusive("l", "c")); err != nil {
		t.Fatal(err)
	}
	expectCode(t, b.Lock("obj", shared("l", "c", "")), RetCBusy)
}

func TestRenewChangesTypeWhenAlone(t *testing.T) {
	h := newHarness()
	a := h.client(1)

	if err := a.Lock("obj", shared("l", "c", "")); err != nil {
		t.Fatal(err)
	}
	op := exclusive("l", "c")
	op.Flags = FlagMayRenew
	if err := a.Lock("obj", op); err != nil {
		t.Fatalf("sole shared holder should be able to renew as exclusive: %v", err)
	}
	if info, _ := a.GetInfo("obj", "l"); info.Type != LockTypeExclusive {
		t.Errorf("type = %s, want exclusive", info.Type)
	}
}

func TestStoredAddressIsLegacy(t *testing.T) {
	h := newHarness()
	a := h.client(7)

	if err := a.Lock("obj", exclusive("l", "c")); err != nil {
		t.Fatal(err)
	}
	info, _ := a.GetInfo("obj", "l")
	li := info.Lockers[LockerID{a.Whoami(), "c"}]
	if li.Addr.Type != objclass.AddrTypeLegacy || li.Addr.Addr != "10.0.0.7:6800" || li.Addr.Nonce != 7 {
		t.Errorf("stored address = %+v", li.Addr)
	}
	if !li.Expiration.IsZero() {
		t.Errorf("zero duration must not expire, got %v", li.Expiration)
	}
}

// --------------------------------------------------------------------------
// Expiration
// --------------------------------------------------------------------------

func TestExpiredLockerIsInvisible(t *testing.T) {
	h := newHarness()
	a, b := h.client(1), h.client(2)

	op := shared("l", "c", "")
	op.Duration = time.Minute
	if err := a.Lock("obj", op); err != nil {
		t.Fatal(err)
	}
	if err := b.Lock("obj", shared("l", "c", "")); err != nil {
		t.Fatal(err)
	}

	h.clock.Advance(time.Minute)

	info, err := b.GetInfo("obj", "l")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := info.Lockers[LockerID{a.Whoami(), "c"}]; ok || len(info.Lockers) != 1 {
		t.Errorf("expired locker still reported: %+v", info.Lockers)
	}
	expectCode(t, a.AssertLocked("obj", "l", LockTypeShared, "", "c"), RetCBusy)
	if err := b.AssertLocked("obj", "l", LockTypeShared, "", "c"); err != nil {
		t.Errorf("unexpired locker must still be asserted: %v", err)
	}

	// an expired exclusive holder does not block a new one
	excl := exclusive("x", "c")
	excl.Duration = time.Second
	if err := a.Lock("obj", excl); err != nil {
		t.Fatal(err)
	}
	expectCode(t, b.Lock("obj", exclusive("x", "c")), RetCBusy)
	h.clock.Advance(time.Second)
	if err := b.Lock("obj", exclusive("x", "c")); err != nil {
		t.Errorf("lock should be free after expiration: %v", err)
	}
}

func TestExpiredEphemeralIsCleanedOnRead(t *testing.T) {
	h := newHarness()
	a := h.client(1)

	op := LockOp{Name: "e", Type: LockTypeExclusiveEphemeral, Cookie: "c", Duration: time.Second}
	if err := a.Lock("obj", op); err != nil {
		t.Fatal(err)
	}
	h.clock.Advance(2 * time.Second)

	info, err := a.GetInfo("obj", "e")
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Lockers) != 0 {
		t.Errorf("expected no lockers, got %+v", info.Lockers)
	}
	if names, _ := a.ListLocks("obj"); len(names) != 0 {
		t.Errorf("ephemeral record survived the read: %v", names)
	}
}

// --------------------------------------------------------------------------
// Bids
// --------------------------------------------------------------------------

func TestLowestBidWins(t *testing.T) {
	h := newHarness()
	high, low := h.client(1), h.client(2)

	bid := func(amount int32) LockOp {
		op := exclusive("l", "c")
		op.Duration = 10 * time.Second
		op.Bid = &Bid{Amount: amount, Duration: 10 * time.Second}
		return op
	}

	// both bids are on record before either acquire is evaluated
	h.ledger.RecordBid(h.did("obj"), "l", high.Whoami(), 5, h.clock.Now().Add(10*time.Second))

	if err := low.Lock("obj", bid(3)); err != nil {
		t.Fatalf("lowest bidder must win: %v", err)
	}
	expectCode(t, high.Lock("obj", bid(5)), RetCBusy)

	// the amount 3 bid and the lock it won run out, the retry refreshes the amount 5 bid
	h.clock.Advance(10*time.Second + time.Nanosecond)

	if err := high.Lock("obj", bid(5)); err != nil {
		t.Fatalf("retry after the lower bid expired must succeed: %v", err)
	}
}

func TestLostBidOnFreeLock(t *testing.T) {
	h := newHarness()
	a, b := h.client(1), h.client(2)

	h.ledger.RecordBid(h.did("obj"), "l", a.Whoami(), 1, h.clock.Now().Add(time.Minute))

	op := exclusive("l", "c")
	op.Bid = &Bid{Amount: 2, Duration: time.Minute}
	expectCode(t, b.Lock("obj", op), RetCBusy)

	if names, _ := b.ListLocks("obj"); len(names) != 0 {
		t.Errorf("lost bid must not create a record: %v", names)
	}
}

func TestEqualBidsBothPass(t *testing.T) {
	h := newHarness()
	a, b := h.client(1), h.client(2)

	h.ledger.RecordBid(h.did("obj"), "l", a.Whoami(), 4, h.clock.Now().Add(time.Minute))

	op := exclusive("l", "c")
	op.Bid = &Bid{Amount: 4, Duration: time.Minute}
	if err := b.Lock("obj", op); err != nil {
		t.Fatalf("tied lowest bid must pass the ledger: %v", err)
	}
	// a now loses to the holder, not to the bid ranking
	expectCode(t, a.Lock("obj", op), RetCBusy)
}

func TestBidRecordedEvenOnFailure(t *testing.T) {
	h := newHarness()
	a, b := h.client(1), h.client(2)

	if err := a.Lock("obj", exclusive("l", "c")); err != nil {
		t.Fatal(err)
	}

	op := exclusive("l", "c")
	op.Bid = &Bid{Amount: 1, Duration: time.Minute}
	expectCode(t, b.Lock("obj", op), RetCBusy)

	if h.ledger.IsLowestUnexpired(h.did("obj"), "l", a.Whoami(), 2, h.clock.Now()) {
		t.Errorf("failed attempt must still leave its bid in the ledger")
	}
}

func TestRenewalSkipsBidEvaluation(t *testing.T) {
	h := newHarness()
	a, b := h.client(1), h.client(2)

	op := exclusive("l", "c")
	op.Bid = &Bid{Amount: 10, Duration: time.Minute}
	if err := a.Lock("obj", op); err != nil {
		t.Fatal(err)
	}

	h.ledger.RecordBid(h.did("obj"), "l", b.Whoami(), 1, h.clock.Now().Add(time.Minute))

	op.Flags = FlagMayRenew
	if err := a.Lock("obj", op); err != nil {
		t.Errorf("renewal must not be ranked against other bids: %v", err)
	}
}

func TestBidsDoNotCrossPools(t *testing.T) {
	h := newHarness()

	// a second pool served by the same class and ledger
	pool2 := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
	exec2 := objclass.NewExecutor(xattr.NewAttrStore(pool2), &objclass.ExecutorOptions{PoolID: 2})

	bid := func(amount int32) LockOp {
		op := exclusive("l", "c")
		op.Bid = &Bid{Amount: amount, Duration: time.Minute}
		return op
	}

	c1 := h.client(1)
	c2 := NewLocalClient(exec2, h.class, objclass.Origin{Name: objclass.ClientName(2)})

	if err := c1.Lock("obj", bid(3)); err != nil {
		t.Fatalf("bid 3 in pool 1: %v", err)
	}
	if err := c2.Lock("obj", bid(5)); err != nil {
		t.Fatalf("bid 5 in pool 2 must not lose to a bid in pool 1: %v", err)
	}

	// pool 1 stays with the lower bidder
	expectCode(t, h.client(3).Lock("obj", bid(5)), RetCBusy)
	if !h.ledger.IsLowestUnexpired(objclass.DurableID(2, "obj"), "l", c2.Whoami(), 5, h.clock.Now()) {
		t.Errorf("pool 2 bid ranked against pool 1")
	}
}

// --------------------------------------------------------------------------
// Release
// --------------------------------------------------------------------------

func TestUnlock(t *testing.T) {
	h := newHarness()
	a, b := h.client(1), h.client(2)

	expectCode(t, a.Unlock("obj", "l", "never"), RetCNotFound)

	if err := a.Lock("obj", shared("l", "c", "")); err != nil {
		t.Fatal(err)
	}
	if err := b.Lock("obj", shared("l", "c", "")); err != nil {
		t.Fatal(err)
	}

	expectCode(t, a.Unlock("obj", "l", "other-cookie"), RetCNotFound)

	if err := a.Unlock("obj", "l", "c"); err != nil {
		t.Fatal(err)
	}
	info, _ := b.GetInfo("obj", "l")
	if len(info.Lockers) != 1 {
		t.Errorf("expected one remaining locker, got %+v", info.Lockers)
	}

	if err := b.Unlock("obj", "l", "c"); err != nil {
		t.Fatal(err)
	}
	// a non ephemeral record stays behind empty
	if names, _ := b.ListLocks("obj"); !reflect.DeepEqual(names, []string{"l"}) {
		t.Errorf("ListLocks = %v, want [l]", names)
	}
}

func TestEphemeralReleaseDeletesRecord(t *testing.T) {
	h := newHarness()
	a := h.client(1)

	if err := a.Lock("obj", LockOp{Name: "e", Type: LockTypeExclusiveEphemeral, Cookie: "c"}); err != nil {
		t.Fatal(err)
	}
	if names, _ := a.ListLocks("obj"); !reflect.DeepEqual(names, []string{"e"}) {
		t.Fatalf("ListLocks = %v, want [e]", names)
	}

	if err := a.Unlock("obj", "e", "c"); err != nil {
		t.Fatal(err)
	}
	if names, _ := a.ListLocks("obj"); len(names) != 0 {
		t.Errorf("ephemeral record not deleted: %v", names)
	}
	if _, ok, _ := h.pool.Get("obj\x00" + LockPrefix + "e"); ok {
		t.Errorf("ephemeral attribute still stored")
	}
}

func TestBreakLock(t *testing.T) {
	h := newHarness()
	a, admin := h.client(1), h.client(99)

	if err := a.Lock("obj", exclusive("l", "c")); err != nil {
		t.Fatal(err)
	}

	expectCode(t, admin.BreakLock("obj", "l", a.Whoami(), "wrong"), RetCNotFound)
	expectCode(t, admin.BreakLock("obj", "l", objclass.ClientName(3), "c"), RetCNotFound)

	if err := admin.BreakLock("obj", "l", a.Whoami(), "c"); err != nil {
		t.Fatal(err)
	}
	if err := admin.Lock("obj", exclusive("l", "mine")); err != nil {
		t.Errorf("lock should be free after break: %v", err)
	}
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

func TestGetInfoMissingLock(t *testing.T) {
	h := newHarness()
	info, err := h.client(1).GetInfo("obj", "nope")
	if err != nil {
		t.Fatal(err)
	}
	if info.Type != LockTypeNone || len(info.Lockers) != 0 {
		t.Errorf("missing lock reported as %+v", info)
	}
}

func TestListLocks(t *testing.T) {
	h := newHarness()
	a := h.client(1)

	if names, err := a.ListLocks("empty"); err != nil || len(names) != 0 {
		t.Fatalf("ListLocks on empty object = %v, %v", names, err)
	}

	for _, n := range []string{"b", "a", "c"} {
		if err := a.Lock("obj", exclusive(n, "c")); err != nil {
			t.Fatal(err)
		}
	}
	// attributes without the prefix are not locks
	if err := h.exec.Exec("obj", objclass.Origin{}, func(hctx objclass.Context) error {
		return hctx.SetXattr("user.comment", []byte("x"))
	}); err != nil {
		t.Fatal(err)
	}

	names, err := a.ListLocks("obj")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"a", "b", "c"}) {
		t.Errorf("ListLocks = %v, want [a b c]", names)
	}
}

func TestCorruptRecord(t *testing.T) {
	h := newHarness()
	a := h.client(1)

	if err := h.exec.Exec("obj", objclass.Origin{}, func(hctx objclass.Context) error {
		return hctx.SetXattr(LockPrefix+"bad", []byte{1, 1, 1})
	}); err != nil {
		t.Fatal(err)
	}

	_, err := a.GetInfo("obj", "bad")
	expectCode(t, err, RetCIO)
	if !errors.Is(err, ErrIO) {
		t.Errorf("errors.Is(err, ErrIO) = false for %v", err)
	}
	expectCode(t, a.Lock("obj", exclusive("bad", "c")), RetCIO)
	expectCode(t, a.Unlock("obj", "bad", "c"), RetCIO)
}

func TestRecordBreakingInvariants(t *testing.T) {
	lockers := map[LockerID]LockerInfo{
		{Locker: objclass.ClientName(1), Cookie: "c"}: {},
		{Locker: objclass.ClientName(2), Cookie: "c"}: {},
	}

	tests := []struct {
		name string
		info LockInfo
	}{
		{"ephemeral with two lockers", LockInfo{Type: LockTypeExclusiveEphemeral, Lockers: lockers}},
		{"exclusive with two lockers", LockInfo{Type: LockTypeExclusive, Lockers: lockers}},
		{"none with lockers", LockInfo{Type: LockTypeNone, Lockers: lockers}},
		{"unknown type", LockInfo{Type: LockType(200), Lockers: lockers}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			if err := h.exec.Exec("obj", objclass.Origin{}, func(hctx objclass.Context) error {
				return hctx.SetXattr(LockPrefix+"l", EncodeLockInfo(tt.info))
			}); err != nil {
				t.Fatal(err)
			}

			a := h.client(1)
			expectCode(t, a.Unlock("obj", "l", "c"), RetCIO)
			expectCode(t, a.BreakLock("obj", "l", objclass.ClientName(2), "c"), RetCIO)
			expectCode(t, a.Lock("obj", exclusive("l", "c")), RetCIO)
			_, err := a.GetInfo("obj", "l")
			expectCode(t, err, RetCIO)
		})
	}
}

func TestAssertLocked(t *testing.T) {
	h := newHarness()
	a, b := h.client(1), h.client(2)

	if err := a.Lock("obj", shared("l", "c", "t")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		client IClient
		lock   string
		typ    LockType
		tag    string
		cookie string
		want   RetCode
	}{
		{"holder", a, "l", LockTypeShared, "t", "c", RetCSuccess},
		{"not locked", a, "other", LockTypeShared, "t", "c", RetCBusy},
		{"type mismatch", a, "l", LockTypeExclusive, "t", "c", RetCBusy},
		{"tag mismatch", a, "l", LockTypeShared, "x", "c", RetCBusy},
		{"cookie mismatch", a, "l", LockTypeShared, "t", "x", RetCBusy},
		{"other identity", b, "l", LockTypeShared, "t", "c", RetCBusy},
		{"invalid type", a, "l", LockTypeNone, "t", "c", RetCInvalidArgument},
		{"empty name", a, "", LockTypeShared, "t", "c", RetCInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectCode(t, tt.client.AssertLocked("obj", tt.lock, tt.typ, tt.tag, tt.cookie), tt.want)
		})
	}
}

func TestSetCookie(t *testing.T) {
	h := newHarness()
	a := h.client(1)

	op := shared("l", "c1", "t")
	op.Duration = time.Hour
	op.Description = "desc"
	if err := a.Lock("obj", op); err != nil {
		t.Fatal(err)
	}
	op.Cookie = "c2"
	if err := a.Lock("obj", op); err != nil {
		t.Fatal(err)
	}
	before, _ := a.GetInfo("obj", "l")

	expectCode(t, a.SetCookie("obj", "l", LockTypeShared, "t", "c1", "c2"), RetCBusy)
	expectCode(t, a.SetCookie("obj", "l", LockTypeShared, "t", "missing", "c3"), RetCBusy)
	expectCode(t, a.SetCookie("obj", "l", LockTypeExclusive, "t", "c1", "c3"), RetCBusy)
	expectCode(t, a.SetCookie("obj", "", LockTypeShared, "t", "c1", "c3"), RetCInvalidArgument)

	if err := a.SetCookie("obj", "l", LockTypeShared, "t", "c1", "c3"); err != nil {
		t.Fatal(err)
	}

	expectCode(t, a.AssertLocked("obj", "l", LockTypeShared, "t", "c1"), RetCBusy)
	if err := a.AssertLocked("obj", "l", LockTypeShared, "t", "c3"); err != nil {
		t.Errorf("new cookie not recognized: %v", err)
	}

	after, _ := a.GetInfo("obj", "l")
	old := before.Lockers[LockerID{a.Whoami(), "c1"}]
	moved := after.Lockers[LockerID{a.Whoami(), "c3"}]
	if !old.Expiration.Equal(moved.Expiration) || old.Description != moved.Description || old.Addr != moved.Addr {
		t.Errorf("entry not preserved: %+v -> %+v", old, moved)
	}
}
