package server

import (
	"fmt"

	"github.com/ValentinKolb/objlock/lib/objclass"
	"github.com/ValentinKolb/objlock/lib/objlock"
	"github.com/ValentinKolb/objlock/lib/session"
	"github.com/ValentinKolb/objlock/rpc/common"
	"github.com/ValentinKolb/objlock/rpc/transport"
)

// NewLockClassServerAdapter creates the adapter that runs lock class methods
// for verified sessions.
func NewLockClassServerAdapter(class *objlock.Class, sessions *session.Issuer) IRPCServerAdapter {
	return &lockClassServerAdapter{class: class, sessions: sessions}
}

type lockClassServerAdapter struct {
	class    *objlock.Class
	sessions *session.Issuer
}

func (adapter *lockClassServerAdapter) Handle(req *common.Message, peer transport.Peer, shard *serverShard) (resp *common.Message) {
	if shard == nil || shard.Exec == nil {
		return common.NewErrorResponse(objlock.RetCInternal, "handler: shard has no executor")
	}

	if req.MsgType == common.MsgTHello {
		name, token, err := adapter.sessions.Hello(req.Nonce)
		if err != nil {
			Logger.Errorf("failed to open session for %s: %v", peer.Addr, err)
			return common.NewErrorResponse(objlock.RetCInternal, err.Error())
		}
		Logger.Debugf("opened session %s for %s", name, peer.Addr)
		return common.NewHelloResponse(name, token, nil)
	}

	name, nonce, err := adapter.sessions.Verify(req.Token)
	if err != nil {
		return common.NewErrorResponse(objlock.RetCInvalidArgument, err.Error())
	}
	origin := objclass.Origin{
		Name: name,
		Addr: objclass.EntityAddr{Type: objclass.AddrTypeMsgr2, Addr: peer.Addr, Nonce: nonce},
	}

	// replicated pools take lock calls on the raft leader only
	if shard.Gate != nil {
		if err := shard.Gate(); err != nil {
			Logger.Debugf("rejecting %s from %s: %v", req.MsgType, peer.Addr, err)
			return common.NewErrorResponse(objlock.RetCBusy, err.Error())
		}
	}

	exec := func(fn func(objclass.Context) error) error {
		return objlock.ExecError(shard.Exec.Exec(req.Object, origin, fn))
	}

	switch req.MsgType {
	case common.MsgTLock:
		op := req.LockOp()
		return common.NewResponse(req.MsgType, exec(func(hctx objclass.Context) error {
			return adapter.class.Lock(hctx, op)
		}))

	case common.MsgTUnlock:
		return common.NewResponse(req.MsgType, exec(func(hctx objclass.Context) error {
			return adapter.class.Unlock(hctx, req.Name, req.Cookie)
		}))

	case common.MsgTBreakLock:
		locker, err := objclass.ParseEntityName(req.Locker)
		if err != nil {
			return common.NewErrorResponse(objlock.RetCInvalidArgument, err.Error())
		}
		return common.NewResponse(req.MsgType, exec(func(hctx objclass.Context) error {
			return adapter.class.BreakLock(hctx, req.Name, locker, req.Cookie)
		}))

	case common.MsgTGetInfo:
		var info objlock.LockInfo
		err := exec(func(hctx objclass.Context) (err error) {
			info, err = adapter.class.GetInfo(hctx, req.Name)
			return err
		})
		if err != nil {
			return common.NewGetInfoResponse(nil, err)
		}
		return common.NewGetInfoResponse(objlock.EncodeLockInfo(info), nil)

	case common.MsgTListLocks:
		var names []string
		err := exec(func(hctx objclass.Context) (err error) {
			names, err = adapter.class.ListLocks(hctx)
			return err
		})
		if err == nil && names == nil {
			names = []string{}
		}
		return common.NewListLocksResponse(names, err)

	case common.MsgTAssertLocked:
		return common.NewResponse(req.MsgType, exec(func(hctx objclass.Context) error {
			return adapter.class.AssertLocked(hctx, req.Name, objlock.LockType(req.LockType), req.Tag, req.Cookie)
		}))

	case common.MsgTSetCookie:
		return common.NewResponse(req.MsgType, exec(func(hctx objclass.Context) error {
			return adapter.class.SetCookie(hctx, req.Name, objlock.LockType(req.LockType), req.Tag, req.Cookie, req.NewCookie)
		}))

	default:
		return common.NewErrorResponse(objlock.RetCInvalidArgument, fmt.Sprintf("unsupported message type: %s", req.MsgType))
	}
}
