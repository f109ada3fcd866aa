package objlock

import (
	"errors"

	"github.com/ValentinKolb/objlock/lib/objclass"
)

// --------------------------------------------------------------------------
// Lock State Repository
// --------------------------------------------------------------------------

// readLock loads the record of the named lock. A missing attribute yields an
// empty record. Expired lockers are dropped, and an ephemeral record left
// without lockers is removed from the object.
func (c *Class) readLock(hctx objclass.Context, name string) (LockInfo, error) {
	data, err := hctx.GetXattr(LockPrefix + name)
	if errors.Is(err, objclass.ErrNoData) {
		return LockInfo{Type: LockTypeNone, Lockers: map[LockerID]LockerInfo{}}, nil
	}
	if err != nil {
		log.Errorf("error reading xattr %s%s on %s: %v", LockPrefix, name, hctx.DurableID(), err)
		return LockInfo{}, errorf(RetCIO, "failed to read lock %s: %v", name, err)
	}

	info, err := DecodeLockInfo(data)
	if err != nil {
		log.Errorf("error decoding %s%s on %s: %v", LockPrefix, name, hctx.DurableID(), err)
		return LockInfo{}, errorf(RetCIO, "failed to decode lock %s: %v", name, err)
	}

	now := c.clock.Now()
	for id, li := range info.Lockers {
		if li.Expired(now) {
			log.Debugf("expiring locker %s on %s/%s", id, hctx.DurableID(), name)
			delete(info.Lockers, id)
			expiredPurged.Inc()
		}
	}

	if len(info.Lockers) == 0 && info.Type.IsEphemeral() {
		if err := c.removeLock(hctx, name); err != nil {
			log.Errorf("failed to clean up ephemeral lock %s on %s: %v", name, hctx.DurableID(), err)
		}
	}
	return info, nil
}

// writeLock overwrites the record of the named lock
func (c *Class) writeLock(hctx objclass.Context, name string, info LockInfo) error {
	if err := hctx.SetXattr(LockPrefix+name, EncodeLockInfo(info)); err != nil {
		log.Errorf("error writing xattr %s%s on %s: %v", LockPrefix, name, hctx.DurableID(), err)
		return errorf(RetCIO, "failed to write lock %s: %v", name, err)
	}
	return nil
}

// removeLock deletes the record of the named lock
func (c *Class) removeLock(hctx objclass.Context, name string) error {
	if err := hctx.RemoveXattr(LockPrefix + name); err != nil {
		return errorf(RetCIO, "failed to remove lock %s: %v", name, err)
	}
	return nil
}
