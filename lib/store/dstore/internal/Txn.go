package internal

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ValentinKolb/objlock/lib/store"
)

var errShortTxn = errors.New("data too short for transaction")

// EncodeTxn serializes a transaction into the value of a CommandTTxn
func EncodeTxn(txn store.Txn) []byte {
	size := 8
	for _, c := range txn.Conds {
		size += 9 + len(c.Key) + len(c.Value)
	}
	for _, op := range txn.Ops {
		size += 9 + len(op.Key) + len(op.Value)
	}

	buf := make([]byte, 0, size)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(txn.Conds)))
	for _, c := range txn.Conds {
		buf = appendFlagged(buf, c.Exists, c.Key, c.Value)
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(txn.Ops)))
	for _, op := range txn.Ops {
		buf = appendFlagged(buf, op.Delete, op.Key, op.Value)
	}
	return buf
}

// DecodeTxn parses the output of EncodeTxn. Values are copied.
func DecodeTxn(data []byte) (store.Txn, error) {
	var txn store.Txn

	n, data, err := takeCount(data)
	if err != nil {
		return txn, err
	}
	txn.Conds = make([]store.Cond, 0, n)
	for i := uint32(0); i < n; i++ {
		var c store.Cond
		if c.Exists, c.Key, c.Value, data, err = takeFlagged(data); err != nil {
			return store.Txn{}, err
		}
		txn.Conds = append(txn.Conds, c)
	}

	if n, data, err = takeCount(data); err != nil {
		return store.Txn{}, err
	}
	txn.Ops = make([]store.Op, 0, n)
	for i := uint32(0); i < n; i++ {
		var op store.Op
		if op.Delete, op.Key, op.Value, data, err = takeFlagged(data); err != nil {
			return store.Txn{}, err
		}
		txn.Ops = append(txn.Ops, op)
	}

	if len(data) != 0 {
		return store.Txn{}, fmt.Errorf("%d trailing bytes after transaction", len(data))
	}
	return txn, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func appendFlagged(buf []byte, flag bool, key string, value []byte) []byte {
	if flag {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(key)))
	buf = append(buf, key...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(value)))
	return append(buf, value...)
}

// takeCount reads an entry count and rejects counts the data cannot hold
func takeCount(data []byte) (uint32, []byte, error) {
	if len(data) < 4 {
		return 0, nil, errShortTxn
	}
	n := binary.BigEndian.Uint32(data)
	data = data[4:]
	// every entry needs a flag and two length prefixes
	if uint64(n)*9 > uint64(len(data)) {
		return 0, nil, fmt.Errorf("entry count %d exceeds data", n)
	}
	return n, data, nil
}

func takeFlagged(data []byte) (bool, string, []byte, []byte, error) {
	if len(data) < 1 {
		return false, "", nil, nil, errShortTxn
	}
	if data[0] > 1 {
		return false, "", nil, nil, fmt.Errorf("invalid flag %d", data[0])
	}
	flag := data[0] == 1

	key, data, err := takeBytes(data[1:])
	if err != nil {
		return false, "", nil, nil, err
	}
	value, data, err := takeBytes(data)
	if err != nil {
		return false, "", nil, nil, err
	}

	var v []byte
	if len(value) > 0 {
		v = make([]byte, len(value))
		copy(v, value)
	}
	return flag, string(key), v, data, nil
}

func takeBytes(data []byte) ([]byte, []byte, error) {
	if len(data) < 4 {
		return nil, nil, errShortTxn
	}
	n := binary.BigEndian.Uint32(data)
	data = data[4:]
	if uint64(n) > uint64(len(data)) {
		return nil, nil, errShortTxn
	}
	return data[:n], data[n:], nil
}
