package objclass

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Entity Names
// --------------------------------------------------------------------------

// EntityName identifies a requester, e.g. "client.4123".
// Names are totally ordered by (Type, Num).
type EntityName struct {
	Type string
	Num  uint64
}

// EntityTypeClient is the entity type of every requester the server admits
const EntityTypeClient = "client"

// ClientName returns the entity name "client.<num>"
func ClientName(num uint64) EntityName {
	return EntityName{Type: EntityTypeClient, Num: num}
}

func (n EntityName) String() string {
	return n.Type + "." + strconv.FormatUint(n.Num, 10)
}

// IsZero reports whether n is the zero name
func (n EntityName) IsZero() bool {
	return n.Type == "" && n.Num == 0
}

// Compare returns -1, 0 or 1 if n sorts before, equal to or after other
func (n EntityName) Compare(other EntityName) int {
	if c := strings.Compare(n.Type, other.Type); c != 0 {
		return c
	}
	switch {
	case n.Num < other.Num:
		return -1
	case n.Num > other.Num:
		return 1
	default:
		return 0
	}
}

// ParseEntityName parses the "<type>.<num>" form
func ParseEntityName(s string) (EntityName, error) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return EntityName{}, fmt.Errorf("invalid entity name %q: expected <type>.<num>", s)
	}
	num, err := strconv.ParseUint(s[i+1:], 10, 64)
	if err != nil {
		return EntityName{}, fmt.Errorf("invalid entity name %q: %w", s, err)
	}
	return EntityName{Type: s[:i], Num: num}, nil
}

// --------------------------------------------------------------------------
// Entity Addresses
// --------------------------------------------------------------------------

// AddrType is the protocol family of an EntityAddr
type AddrType uint8

const (
	AddrTypeNone   AddrType = iota // Unknown or unset address
	AddrTypeLegacy                 // Canonical form stored in lock records
	AddrTypeMsgr2                  // Address as reported by a msgr2 style transport
	AddrTypeAny                    // Wildcard address
)

func (t AddrType) String() string {
	switch t {
	case AddrTypeNone:
		return "none"
	case AddrTypeLegacy:
		return "v1"
	case AddrTypeMsgr2:
		return "v2"
	case AddrTypeAny:
		return "any"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// EntityAddr is the network address a request came from
type EntityAddr struct {
	Type  AddrType
	Addr  string // host:port or socket path
	Nonce uint32 // per client random value, distinguishes restarts on the same address
}

// Legacy returns a copy of the address in the canonical legacy form
func (a EntityAddr) Legacy() EntityAddr {
	a.Type = AddrTypeLegacy
	return a
}

func (a EntityAddr) String() string {
	return fmt.Sprintf("%s:%s/%d", a.Type, a.Addr, a.Nonce)
}
