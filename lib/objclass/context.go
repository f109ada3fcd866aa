package objclass

import (
	"errors"
	"strconv"

	"github.com/ValentinKolb/objlock/lib/xattr"
)

// ErrNoData is returned by GetXattr if the attribute does not exist
var ErrNoData = errors.New("objclass: no such attribute")

// Origin describes the verified requester of a method call
type Origin struct {
	Name EntityName // authenticated identity
	Addr EntityAddr // network address the request arrived from
}

// Context is handed to a method while it runs. All attribute operations
// address the object the method was invoked on.
type Context interface {
	// ObjectID returns the object id as given by the caller
	ObjectID() string
	// DurableID returns an id of the object that is unique across all pools
	// of the server, see DurableID
	DurableID() string
	// Origin returns the verified requester
	Origin() Origin
	// GetXattr returns the attribute value or ErrNoData
	GetXattr(name string) ([]byte, error)
	// SetXattr creates or overwrites an attribute
	SetXattr(name string, value []byte) error
	// RemoveXattr deletes an attribute, missing attributes are ignored
	RemoveXattr(name string) error
	// ListXattrs returns the attribute names of the object in ascending order
	ListXattrs() ([]string, error)
}

// DurableID qualifies an object id with the id of its pool ("<pool>/<oid>").
// Two objects with the same id in different pools get different durable ids.
func DurableID(pool uint64, oid string) string {
	return strconv.FormatUint(pool, 10) + "/" + oid
}

// objectContext binds one attribute batch to one object.
// Changes become visible when the executor commits the batch.
type objectContext struct {
	oid    string
	pool   uint64
	origin Origin
	batch  *xattr.Batch
}

func (c *objectContext) ObjectID() string { return c.oid }

func (c *objectContext) DurableID() string { return DurableID(c.pool, c.oid) }

func (c *objectContext) Origin() Origin { return c.origin }

func (c *objectContext) GetXattr(name string) ([]byte, error) {
	value, ok, err := c.batch.Get(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoData
	}
	return value, nil
}

func (c *objectContext) SetXattr(name string, value []byte) error {
	return c.batch.Set(name, value)
}

func (c *objectContext) RemoveXattr(name string) error {
	return c.batch.Remove(name)
}

func (c *objectContext) ListXattrs() ([]string, error) {
	return c.batch.List()
}
