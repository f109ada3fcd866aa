package objlock

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ValentinKolb/objlock/lib/objclass"
)

// LockPrefix is prepended to a lock name to form the attribute name of its record
const LockPrefix = "lock."

// EntityName identifies a locker, see objclass.EntityName
type EntityName = objclass.EntityName

// EntityAddr is a locker's network address, see objclass.EntityAddr
type EntityAddr = objclass.EntityAddr

// --------------------------------------------------------------------------
// Lock Types
// --------------------------------------------------------------------------

// LockType is the kind of a lock. The numbering is part of the record format.
type LockType uint8

const (
	LockTypeNone               LockType = iota // No lock held
	LockTypeExclusive                          // One locker at a time
	LockTypeShared                             // Any number of lockers with the same tag
	LockTypeExclusiveEphemeral                 // Exclusive, record deleted once the locker is gone
)

// IsValid reports whether t is a known type other than LockTypeNone
func (t LockType) IsValid() bool {
	return t == LockTypeExclusive || t == LockTypeShared || t == LockTypeExclusiveEphemeral
}

// IsExclusive reports whether t admits at most one locker
func (t LockType) IsExclusive() bool {
	return t == LockTypeExclusive || t == LockTypeExclusiveEphemeral
}

// IsEphemeral reports whether the record of t is deleted when it has no lockers
func (t LockType) IsEphemeral() bool {
	return t == LockTypeExclusiveEphemeral
}

func (t LockType) String() string {
	switch t {
	case LockTypeNone:
		return "none"
	case LockTypeExclusive:
		return "exclusive"
	case LockTypeShared:
		return "shared"
	case LockTypeExclusiveEphemeral:
		return "exclusive-ephemeral"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseLockType parses the names produced by LockType.String
func ParseLockType(s string) (LockType, error) {
	switch strings.ToLower(s) {
	case "none":
		return LockTypeNone, nil
	case "exclusive", "excl":
		return LockTypeExclusive, nil
	case "shared":
		return LockTypeShared, nil
	case "exclusive-ephemeral", "ephemeral":
		return LockTypeExclusiveEphemeral, nil
	default:
		return LockTypeNone, fmt.Errorf("unknown lock type %q", s)
	}
}

// --------------------------------------------------------------------------
// Flags
// --------------------------------------------------------------------------

// Flags modify the behavior of Lock
type Flags uint8

const (
	FlagMayRenew  Flags = 1 << iota // An existing entry of the caller is replaced
	FlagMustRenew                   // Fail with ErrNotFound unless the caller already holds the lock
)

// --------------------------------------------------------------------------
// Lock Records
// --------------------------------------------------------------------------

// LockerID identifies one entry of a lock. A locker can hold the same lock
// several times under different cookies.
type LockerID struct {
	Locker EntityName
	Cookie string
}

// Compare orders ids by locker, then cookie
func (id LockerID) Compare(other LockerID) int {
	if c := id.Locker.Compare(other.Locker); c != 0 {
		return c
	}
	return strings.Compare(id.Cookie, other.Cookie)
}

func (id LockerID) String() string {
	return id.Locker.String() + "/" + id.Cookie
}

// LockerInfo is the state kept per locker entry
type LockerInfo struct {
	Expiration  time.Time // zero = never expires
	Addr        EntityAddr
	Description string
}

// Expired reports whether the entry has an expiration at or before now
func (li LockerInfo) Expired(now time.Time) bool {
	return !li.Expiration.IsZero() && !now.Before(li.Expiration)
}

// LockInfo is the persisted state of one named lock on an object
type LockInfo struct {
	Type    LockType
	Tag     string
	Lockers map[LockerID]LockerInfo
}

// SortedLockers returns the locker ids in ascending order
func (info LockInfo) SortedLockers() []LockerID {
	ids := make([]LockerID, 0, len(info.Lockers))
	for id := range info.Lockers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
	return ids
}

// --------------------------------------------------------------------------
// Requests
// --------------------------------------------------------------------------

// Bid accompanies an exclusive lock request. Among the unexpired bids for the
// same lock the lowest amount is admitted.
type Bid struct {
	Amount   int32
	Duration time.Duration // how long the bid stays in the ledger
}

// LockOp describes an acquire or renew request
type LockOp struct {
	Name        string
	Type        LockType
	Duration    time.Duration // zero = never expires
	Description string
	Flags       Flags
	Cookie      string
	Tag         string
	Bid         *Bid // optional
}
