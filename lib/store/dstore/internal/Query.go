package internal

import "fmt"

// QueryType defines the read-only lookups the state machine answers.
type QueryType uint8

const (
	QueryTGet       QueryType = iota // Read the value of a pool key (an attribute or an index).
	QueryTHas                        // Check whether a pool key exists.
	QueryTGetDBInfo                  // Metadata of the engine behind the replica.
)

func (q QueryType) String() string {
	switch q {
	case QueryTGet:
		return "Get"
	case QueryTHas:
		return "Has"
	case QueryTGetDBInfo:
		return "GetDBInfo"
	default:
		return fmt.Sprintf("Unknown(%d)", q)
	}
}

// Query is passed to SyncRead (linearizable) or StaleRead. Unlike commands it
// never enters the raft log, so it is not serialized.
type Query struct {
	Type QueryType
	Key  string // empty for QueryTGetDBInfo
}

// QueryResult is the result of a QueryTGet lookup. A missing key yields
// Ok == false and a nil Value. QueryTHas answers a bool, QueryTGetDBInfo a
// db.DatabaseInfo.
type QueryResult struct {
	Ok    bool
	Value []byte
}
