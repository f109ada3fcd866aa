package objlock

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/ValentinKolb/objlock/lib/objclass"
)

// IClient is the caller side view of the lock class. Every method addresses
// the object oid, the requester identity is fixed per client.
type IClient interface {
	// Lock acquires or renews a lock, see Class.Lock
	Lock(oid string, op LockOp) (err error)
	// Unlock releases the caller's entry with the given cookie
	Unlock(oid, name, cookie string) (err error)
	// BreakLock releases the entry of another locker
	BreakLock(oid, name string, locker EntityName, cookie string) (err error)
	// GetInfo returns the lock record without expired lockers
	GetInfo(oid, name string) (info LockInfo, err error)
	// ListLocks returns the names of all locks on the object
	ListLocks(oid string) (names []string, err error)
	// AssertLocked fails with ErrBusy unless the caller holds the lock as described
	AssertLocked(oid, name string, typ LockType, tag, cookie string) (err error)
	// SetCookie changes the cookie of the caller's entry
	SetCookie(oid, name string, typ LockType, tag, cookie, newCookie string) (err error)
	// Whoami returns the identity the lock class sees for this client
	Whoami() (name EntityName)
}

// --------------------------------------------------------------------------
// Local Client
// --------------------------------------------------------------------------

// localClient calls the lock class in process, through the executor
type localClient struct {
	exec   *objclass.Executor
	class  *Class
	origin objclass.Origin
}

// NewLocalClient creates a client that runs every call in process with a
// fixed origin. It is used by tests and embedded setups.
func NewLocalClient(exec *objclass.Executor, class *Class, origin objclass.Origin) IClient {
	return &localClient{exec: exec, class: class, origin: origin}
}

func (c *localClient) run(oid string, fn func(objclass.Context) error) error {
	return ExecError(c.exec.Exec(oid, c.origin, fn))
}

func (c *localClient) Lock(oid string, op LockOp) error {
	return c.run(oid, func(hctx objclass.Context) error {
		return c.class.Lock(hctx, op)
	})
}

func (c *localClient) Unlock(oid, name, cookie string) error {
	return c.run(oid, func(hctx objclass.Context) error {
		return c.class.Unlock(hctx, name, cookie)
	})
}

func (c *localClient) BreakLock(oid, name string, locker EntityName, cookie string) error {
	return c.run(oid, func(hctx objclass.Context) error {
		return c.class.BreakLock(hctx, name, locker, cookie)
	})
}

func (c *localClient) GetInfo(oid, name string) (LockInfo, error) {
	var info LockInfo
	err := c.run(oid, func(hctx objclass.Context) (err error) {
		info, err = c.class.GetInfo(hctx, name)
		return err
	})
	return info, err
}

func (c *localClient) ListLocks(oid string) ([]string, error) {
	var names []string
	err := c.run(oid, func(hctx objclass.Context) (err error) {
		names, err = c.class.ListLocks(hctx)
		return err
	})
	return names, err
}

func (c *localClient) AssertLocked(oid, name string, typ LockType, tag, cookie string) error {
	return c.run(oid, func(hctx objclass.Context) error {
		return c.class.AssertLocked(hctx, name, typ, tag, cookie)
	})
}

func (c *localClient) SetCookie(oid, name string, typ LockType, tag, cookie, newCookie string) error {
	return c.run(oid, func(hctx objclass.Context) error {
		return c.class.SetCookie(hctx, name, typ, tag, cookie, newCookie)
	})
}

func (c *localClient) Whoami() EntityName {
	return c.origin.Name
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

const cookieBytes = 16

// NewCookie returns a random cookie (32 hex characters)
func NewCookie() (string, error) {
	b := make([]byte, cookieBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
