package objlock

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ValentinKolb/objlock/lib/objclass"
)

// --------------------------------------------------------------------------
// Lock Record Codec
// --------------------------------------------------------------------------

const (
	codecStructV = 1 // version written by EncodeLockInfo
	codecCompatV = 1 // oldest version able to read the output
)

// ErrCorruptRecord is wrapped by DecodeLockInfo errors
var ErrCorruptRecord = errors.New("corrupt lock record")

// EncodeLockInfo serializes a lock record (big endian):
//
//	1 byte struct version, 1 byte compat version, 1 byte lock type,
//	string tag, uint32 locker count, then per locker (sorted by LockerID):
//	string entity type, uint64 entity num, string cookie,
//	int64 expiration unix nanos (0 = never), uint8 addr type,
//	uint32 nonce, string addr, string description.
//
// Strings are prefixed with their uint32 length.
func EncodeLockInfo(info LockInfo) []byte {
	buf := make([]byte, 0, 64+len(info.Lockers)*96)
	buf = append(buf, codecStructV, codecCompatV, byte(info.Type))
	buf = appendString(buf, info.Tag)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(info.Lockers)))

	for _, id := range info.SortedLockers() {
		li := info.Lockers[id]
		buf = appendString(buf, id.Locker.Type)
		buf = binary.BigEndian.AppendUint64(buf, id.Locker.Num)
		buf = appendString(buf, id.Cookie)

		var exp int64
		if !li.Expiration.IsZero() {
			exp = li.Expiration.UnixNano()
		}
		buf = binary.BigEndian.AppendUint64(buf, uint64(exp))
		buf = append(buf, byte(li.Addr.Type))
		buf = binary.BigEndian.AppendUint32(buf, li.Addr.Nonce)
		buf = appendString(buf, li.Addr.Addr)
		buf = appendString(buf, li.Description)
	}
	return buf
}

// DecodeLockInfo parses a record written by EncodeLockInfo.
// Truncated input, trailing bytes and unknown versions are errors, and so is
// a record no lock operation could have written: an unknown type, lockers on
// a record of type none, or several lockers on an exclusive lock.
func DecodeLockInfo(data []byte) (LockInfo, error) {
	r := reader{data: data}

	structV := r.byte()
	compatV := r.byte()
	if r.err == nil && compatV > codecStructV {
		return LockInfo{}, fmt.Errorf("%w: version %d requires decoder version %d", ErrCorruptRecord, structV, compatV)
	}

	info := LockInfo{
		Type: LockType(r.byte()),
		Tag:  r.string(),
	}
	count := r.uint32()
	// a locker needs at least 4+8+4+8+1+4+4+4 bytes
	if r.err == nil && uint64(count)*37 > uint64(r.remaining()) {
		return LockInfo{}, fmt.Errorf("%w: locker count %d exceeds data", ErrCorruptRecord, count)
	}

	info.Lockers = make(map[LockerID]LockerInfo, count)
	for i := uint32(0); i < count && r.err == nil; i++ {
		var id LockerID
		var li LockerInfo

		id.Locker.Type = r.string()
		id.Locker.Num = r.uint64()
		id.Cookie = r.string()
		if exp := int64(r.uint64()); exp != 0 {
			li.Expiration = time.Unix(0, exp)
		}
		li.Addr.Type = objclass.AddrType(r.byte())
		li.Addr.Nonce = r.uint32()
		li.Addr.Addr = r.string()
		li.Description = r.string()

		info.Lockers[id] = li
	}

	if r.err != nil {
		return LockInfo{}, fmt.Errorf("%w: %v", ErrCorruptRecord, r.err)
	}
	if r.remaining() != 0 {
		return LockInfo{}, fmt.Errorf("%w: %d trailing bytes", ErrCorruptRecord, r.remaining())
	}
	if len(info.Lockers) != int(count) {
		return LockInfo{}, fmt.Errorf("%w: duplicate locker entries", ErrCorruptRecord)
	}

	switch {
	case info.Type != LockTypeNone && !info.Type.IsValid():
		return LockInfo{}, fmt.Errorf("%w: lock type %s", ErrCorruptRecord, info.Type)
	case info.Type == LockTypeNone && len(info.Lockers) > 0:
		return LockInfo{}, fmt.Errorf("%w: %d lockers on a lock of type none", ErrCorruptRecord, len(info.Lockers))
	case info.Type.IsExclusive() && len(info.Lockers) > 1:
		return LockInfo{}, fmt.Errorf("%w: %d lockers on %s lock", ErrCorruptRecord, len(info.Lockers), info.Type)
	}
	return info, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

var errTruncated = errors.New("unexpected end of data")

// reader consumes big endian values and remembers the first error
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.err = errTruncated
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) byte() byte {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) uint32() uint32 {
	if b := r.take(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (r *reader) uint64() uint64 {
	if b := r.take(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

func (r *reader) string() string {
	n := r.uint32()
	if uint64(n) > math.MaxInt32 {
		r.err = errTruncated
		return ""
	}
	return string(r.take(int(n)))
}
