package client

import (
	"fmt"

	"github.com/ValentinKolb/objlock/lib/db/util"
	"github.com/ValentinKolb/objlock/lib/objclass"
	"github.com/ValentinKolb/objlock/lib/objlock"
	"github.com/ValentinKolb/objlock/lib/session"
	"github.com/ValentinKolb/objlock/rpc/common"
	"github.com/ValentinKolb/objlock/rpc/serializer"
	"github.com/ValentinKolb/objlock/rpc/transport"
	"github.com/golang-jwt/jwt/v5"
)

// NewRPCLockClient connects to a lock server and opens a session on it.
// With an empty ticket a new session (and identity) is requested, otherwise
// the session of the ticket is resumed, so a client keeps its locks across
// process restarts.
func NewRPCLockClient(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
	ticket string,
) (*RPCLockClient, error) {

	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	c := &RPCLockClient{
		rpcClientAdapter: rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	var err error
	if ticket == "" {
		err = c.hello()
	} else {
		err = c.resume(ticket)
	}
	if err != nil {
		_ = transport.Close()
		return nil, err
	}

	Logger.Debugf("session %s on shard %d", c.name, shardId)
	return c, nil
}

// RPCLockClient implements objlock.IClient against a remote lock server
type RPCLockClient struct {
	rpcClientAdapter
	name   objlock.EntityName
	ticket string
}

var _ objlock.IClient = (*RPCLockClient)(nil)

// hello opens a new session
func (c *RPCLockClient) hello() error {
	resp, err := c.invoke(common.NewHelloRequest(uint32(util.GenerateSeed())))
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	if len(resp.Names) != 1 || resp.Token == "" {
		return fmt.Errorf("malformed hello response")
	}
	name, err := objclass.ParseEntityName(resp.Names[0])
	if err != nil {
		return fmt.Errorf("malformed hello response: %w", err)
	}
	c.name, c.ticket = name, resp.Token
	return nil
}

// resume takes the identity from a ticket. The signature is checked by the
// server on every request, the client only reads the subject.
func (c *RPCLockClient) resume(ticket string) error {
	var claims session.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(ticket, &claims); err != nil {
		return fmt.Errorf("%w: %v", session.ErrInvalidTicket, err)
	}
	name, err := objclass.ParseEntityName(claims.Subject)
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrInvalidTicket, err)
	}
	c.name, c.ticket = name, ticket
	return nil
}

// Ticket returns the session ticket, pass it to NewRPCLockClient to resume the session
func (c *RPCLockClient) Ticket() string {
	return c.ticket
}

// Close closes the transport. Locks stay held until they expire or are released.
func (c *RPCLockClient) Close() error {
	return c.transport.Close()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see objlock.IClient)
// --------------------------------------------------------------------------

func (c *RPCLockClient) Lock(oid string, op objlock.LockOp) error {
	_, err := c.invoke(common.NewLockRequest(c.ticket, oid, op))
	return err
}

func (c *RPCLockClient) Unlock(oid, name, cookie string) error {
	_, err := c.invoke(common.NewUnlockRequest(c.ticket, oid, name, cookie))
	return err
}

func (c *RPCLockClient) BreakLock(oid, name string, locker objlock.EntityName, cookie string) error {
	_, err := c.invoke(common.NewBreakLockRequest(c.ticket, oid, name, locker, cookie))
	return err
}

func (c *RPCLockClient) GetInfo(oid, name string) (objlock.LockInfo, error) {
	resp, err := c.invoke(common.NewGetInfoRequest(c.ticket, oid, name))
	if err != nil {
		return objlock.LockInfo{}, err
	}
	info, err := objlock.DecodeLockInfo(resp.Value)
	if err != nil {
		return objlock.LockInfo{}, objlock.NewError(objlock.RetCIO, err.Error())
	}
	return info, nil
}

func (c *RPCLockClient) ListLocks(oid string) ([]string, error) {
	resp, err := c.invoke(common.NewListLocksRequest(c.ticket, oid))
	if err != nil {
		return nil, err
	}
	if resp.Names == nil {
		return []string{}, nil
	}
	return resp.Names, nil
}

func (c *RPCLockClient) AssertLocked(oid, name string, typ objlock.LockType, tag, cookie string) error {
	_, err := c.invoke(common.NewAssertLockedRequest(c.ticket, oid, name, typ, tag, cookie))
	return err
}

func (c *RPCLockClient) SetCookie(oid, name string, typ objlock.LockType, tag, cookie, newCookie string) error {
	_, err := c.invoke(common.NewSetCookieRequest(c.ticket, oid, name, typ, tag, cookie, newCookie))
	return err
}

func (c *RPCLockClient) Whoami() objlock.EntityName {
	return c.name
}
