package common

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ValentinKolb/objlock/lib/objlock"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Request fields
	Token       string `json:"token,omitempty"`        // Session ticket, all requests but hello. Hello response: the new ticket
	Object      string `json:"object,omitempty"`       // Object id, all lock requests but hello
	Name        string `json:"name,omitempty"`         // Lock name
	LockType    uint8  `json:"lock_type,omitempty"`    // Used for: Lock, AssertLocked, SetCookie
	Flags       uint8  `json:"flags,omitempty"`        // Used for: Lock
	Duration    int64  `json:"duration,omitempty"`     // Lock duration in ns, used for: Lock
	Description string `json:"description,omitempty"`  // Used for: Lock
	Cookie      string `json:"cookie,omitempty"`       // Used for: Lock, Unlock, BreakLock, AssertLocked, SetCookie
	NewCookie   string `json:"new_cookie,omitempty"`   // Used for: SetCookie
	Tag         string `json:"tag,omitempty"`          // Used for: Lock, AssertLocked, SetCookie
	Locker      string `json:"locker,omitempty"`       // Entity name of the locker to break, used for: BreakLock
	HasBid      bool   `json:"has_bid,omitempty"`      // Used for: Lock
	BidAmount   int32  `json:"bid_amount,omitempty"`   // Used for: Lock
	BidDuration int64  `json:"bid_duration,omitempty"` // Bid lifetime in ns, used for: Lock
	Nonce       uint32 `json:"nonce,omitempty"`        // Used for: Hello

	// Response fields
	Value []byte   `json:"value,omitempty"` // Encoded LockInfo, used for: GetInfo
	Names []string `json:"names,omitempty"` // Used for: ListLocks, Hello (the entity name)
	Ok    bool     `json:"ok,omitempty"`    // True if the operation succeeded
	Code  uint8    `json:"code,omitempty"`  // objlock.RetCode of the failure
	Err   string   `json:"err,omitempty"`   // Empty if no error, otherwise contains the error message
}

// --------------------------------------------------------------------------
// Request Factory Functions
// --------------------------------------------------------------------------

// NewHelloRequest creates a new Hello request
func NewHelloRequest(nonce uint32) *Message {
	return &Message{
		MsgType: MsgTHello,
		Nonce:   nonce,
	}
}

// NewLockRequest creates a new Lock request
func NewLockRequest(token, oid string, op objlock.LockOp) *Message {
	msg := &Message{
		MsgType:     MsgTLock,
		Token:       token,
		Object:      oid,
		Name:        op.Name,
		LockType:    uint8(op.Type),
		Flags:       uint8(op.Flags),
		Duration:    int64(op.Duration),
		Description: op.Description,
		Cookie:      op.Cookie,
		Tag:         op.Tag,
	}
	if op.Bid != nil {
		msg.HasBid = true
		msg.BidAmount = op.Bid.Amount
		msg.BidDuration = int64(op.Bid.Duration)
	}
	return msg
}

// NewUnlockRequest creates a new Unlock request
func NewUnlockRequest(token, oid, name, cookie string) *Message {
	return &Message{
		MsgType: MsgTUnlock,
		Token:   token,
		Object:  oid,
		Name:    name,
		Cookie:  cookie,
	}
}

// NewBreakLockRequest creates a new BreakLock request
func NewBreakLockRequest(token, oid, name string, locker objlock.EntityName, cookie string) *Message {
	return &Message{
		MsgType: MsgTBreakLock,
		Token:   token,
		Object:  oid,
		Name:    name,
		Locker:  locker.String(),
		Cookie:  cookie,
	}
}

// NewGetInfoRequest creates a new GetInfo request
func NewGetInfoRequest(token, oid, name string) *Message {
	return &Message{
		MsgType: MsgTGetInfo,
		Token:   token,
		Object:  oid,
		Name:    name,
	}
}

// NewListLocksRequest creates a new ListLocks request
func NewListLocksRequest(token, oid string) *Message {
	return &Message{
		MsgType: MsgTListLocks,
		Token:   token,
		Object:  oid,
	}
}

// NewAssertLockedRequest creates a new AssertLocked request
func NewAssertLockedRequest(token, oid, name string, typ objlock.LockType, tag, cookie string) *Message {
	return &Message{
		MsgType:  MsgTAssertLocked,
		Token:    token,
		Object:   oid,
		Name:     name,
		LockType: uint8(typ),
		Tag:      tag,
		Cookie:   cookie,
	}
}

// NewSetCookieRequest creates a new SetCookie request
func NewSetCookieRequest(token, oid, name string, typ objlock.LockType, tag, cookie, newCookie string) *Message {
	return &Message{
		MsgType:   MsgTSetCookie,
		Token:     token,
		Object:    oid,
		Name:      name,
		LockType:  uint8(typ),
		Tag:       tag,
		Cookie:    cookie,
		NewCookie: newCookie,
	}
}

// --------------------------------------------------------------------------
// Request Accessors
// --------------------------------------------------------------------------

// LockOp rebuilds the lock request carried by a Lock message
func (m *Message) LockOp() objlock.LockOp {
	op := objlock.LockOp{
		Name:        m.Name,
		Type:        objlock.LockType(m.LockType),
		Duration:    time.Duration(m.Duration),
		Description: m.Description,
		Flags:       objlock.Flags(m.Flags),
		Cookie:      m.Cookie,
		Tag:         m.Tag,
	}
	if m.HasBid {
		op.Bid = &objlock.Bid{Amount: m.BidAmount, Duration: time.Duration(m.BidDuration)}
	}
	return op
}

// --------------------------------------------------------------------------
// Response Factory Functions
// --------------------------------------------------------------------------

// NewResponse creates a response of type t that only reports success or failure
func NewResponse(t MessageType, err error) *Message {
	msg := &Message{
		MsgType: t,
		Ok:      err == nil,
	}
	if err != nil {
		msg.Code = uint8(objlock.CodeOf(err))
		msg.Err = err.Error()
	}
	return msg
}

// NewHelloResponse creates a new Hello response
func NewHelloResponse(name objlock.EntityName, token string, err error) *Message {
	msg := NewResponse(MsgTHello, err)
	if err == nil {
		msg.Token = token
		msg.Names = []string{name.String()}
	}
	return msg
}

// NewGetInfoResponse creates a new GetInfo response
func NewGetInfoResponse(value []byte, err error) *Message {
	msg := NewResponse(MsgTGetInfo, err)
	msg.Value = value
	return msg
}

// NewListLocksResponse creates a new ListLocks response
func NewListLocksResponse(names []string, err error) *Message {
	msg := NewResponse(MsgTListLocks, err)
	msg.Names = names
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(code objlock.RetCode, err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Code:    uint8(code),
		Err:     err,
	}
}

// ResponseError rebuilds the error carried by a response, nil on success.
// Lock errors come back as *objlock.Error so errors.Is works across the wire.
func (m *Message) ResponseError() error {
	if m.MsgType != MsgTError && m.Ok {
		return nil
	}
	code := objlock.RetCode(m.Code)
	if code == objlock.RetCSuccess {
		code = objlock.RetCInternal
	}
	return objlock.NewError(code, m.Err)
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var msgTypeNames = map[MessageType]string{
	MsgTSuccess:      "success",
	MsgTError:        "error",
	MsgTHello:        "hello",
	MsgTLock:         "lock",
	MsgTUnlock:       "unlock",
	MsgTBreakLock:    "break_lock",
	MsgTGetInfo:      "get_info",
	MsgTListLocks:    "list_locks",
	MsgTAssertLocked: "assert_locked",
	MsgTSetCookie:    "set_cookie",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if s, ok := msgTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for k, v := range msgTypeNames {
		if v == s {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// Session

	MsgTHello // Open a session and obtain a ticket

	// Lock class methods

	MsgTLock         // Acquire or renew a lock
	MsgTUnlock       // Release own entry
	MsgTBreakLock    // Release another locker's entry
	MsgTGetInfo      // Read a lock record
	MsgTListLocks    // List lock names on an object
	MsgTAssertLocked // Check that the caller holds a lock
	MsgTSetCookie    // Change the cookie of the caller's entry
)
