package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/objlock/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: 1 byte MsgType, 4 byte presence bitmap (big endian), then every
// present field in bitmap order. Strings and byte slices are prefixed with a
// 4 byte length, Names with a 4 byte count.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasToken uint32 = 1 << iota
	hasObject
	hasName
	hasLockType
	hasFlags
	hasDuration
	hasDescription
	hasCookie
	hasNewCookie
	hasTag
	hasLocker
	hasBid
	hasNonce
	hasValue
	hasNames
	hasOk
	hasCode
	hasErr
)

const headerSize = 5

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, headerSize, b.sizeBytes(msg))
	result[0] = byte(msg.MsgType)

	var flags uint32

	putString := func(flag uint32, s string) {
		if s == "" {
			return
		}
		flags |= flag
		result = binary.BigEndian.AppendUint32(result, uint32(len(s)))
		result = append(result, s...)
	}

	putString(hasToken, msg.Token)
	putString(hasObject, msg.Object)
	putString(hasName, msg.Name)
	if msg.LockType != 0 {
		flags |= hasLockType
		result = append(result, msg.LockType)
	}
	if msg.Flags != 0 {
		flags |= hasFlags
		result = append(result, msg.Flags)
	}
	if msg.Duration != 0 {
		flags |= hasDuration
		result = binary.BigEndian.AppendUint64(result, uint64(msg.Duration))
	}
	putString(hasDescription, msg.Description)
	putString(hasCookie, msg.Cookie)
	putString(hasNewCookie, msg.NewCookie)
	putString(hasTag, msg.Tag)
	putString(hasLocker, msg.Locker)
	if msg.HasBid {
		flags |= hasBid
		result = binary.BigEndian.AppendUint32(result, uint32(msg.BidAmount))
		result = binary.BigEndian.AppendUint64(result, uint64(msg.BidDuration))
	}
	if msg.Nonce != 0 {
		flags |= hasNonce
		result = binary.BigEndian.AppendUint32(result, msg.Nonce)
	}
	if msg.Value != nil {
		flags |= hasValue
		result = binary.BigEndian.AppendUint32(result, uint32(len(msg.Value)))
		result = append(result, msg.Value...)
	}
	if msg.Names != nil {
		flags |= hasNames
		result = binary.BigEndian.AppendUint32(result, uint32(len(msg.Names)))
		for _, n := range msg.Names {
			result = binary.BigEndian.AppendUint32(result, uint32(len(n)))
			result = append(result, n...)
		}
	}
	if msg.Ok {
		flags |= hasOk
	}
	if msg.Code != 0 {
		flags |= hasCode
		result = append(result, msg.Code)
	}
	putString(hasErr, msg.Err)

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint32(result[1:headerSize], flags)

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := binary.BigEndian.Uint32(data[1:headerSize])
	r := &fieldReader{data: data, pos: headerSize}

	msg.Token = r.str(flags, hasToken, "token")
	msg.Object = r.str(flags, hasObject, "object")
	msg.Name = r.str(flags, hasName, "name")
	if flags&hasLockType != 0 {
		msg.LockType = r.u8("lock type")
	}
	if flags&hasFlags != 0 {
		msg.Flags = r.u8("flags")
	}
	if flags&hasDuration != 0 {
		msg.Duration = int64(r.u64("duration"))
	}
	msg.Description = r.str(flags, hasDescription, "description")
	msg.Cookie = r.str(flags, hasCookie, "cookie")
	msg.NewCookie = r.str(flags, hasNewCookie, "new cookie")
	msg.Tag = r.str(flags, hasTag, "tag")
	msg.Locker = r.str(flags, hasLocker, "locker")
	if flags&hasBid != 0 {
		msg.HasBid = true
		msg.BidAmount = int32(r.u32("bid amount"))
		msg.BidDuration = int64(r.u64("bid duration"))
	}
	if flags&hasNonce != 0 {
		msg.Nonce = r.u32("nonce")
	}
	if flags&hasValue != 0 {
		n := r.u32("value length")
		if v := r.bytes(int(n), "value"); v != nil {
			msg.Value = make([]byte, n)
			copy(msg.Value, v)
		}
	}
	if flags&hasNames != 0 {
		count := r.u32("names count")
		// every name needs at least its length prefix
		if r.err == nil && uint64(count)*4 > uint64(len(data)-r.pos) {
			r.err = fmt.Errorf("data too short for %d names", count)
		}
		if r.err == nil {
			msg.Names = make([]string, 0, count)
			for i := uint32(0); i < count && r.err == nil; i++ {
				msg.Names = append(msg.Names, r.str(hasNames, hasNames, "name entry"))
			}
		}
	}
	msg.Ok = flags&hasOk != 0
	if flags&hasCode != 0 {
		msg.Code = r.u8("code")
	}
	msg.Err = r.str(flags, hasErr, "error")

	if r.err != nil {
		return r.err
	}
	if r.pos != len(data) {
		return fmt.Errorf("%d trailing bytes after message", len(data)-r.pos)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := headerSize

	for _, s := range []string{msg.Token, msg.Object, msg.Name, msg.Description, msg.Cookie, msg.NewCookie, msg.Tag, msg.Locker, msg.Err} {
		if s != "" {
			size += 4 + len(s)
		}
	}
	if msg.LockType != 0 {
		size++
	}
	if msg.Flags != 0 {
		size++
	}
	if msg.Duration != 0 {
		size += 8
	}
	if msg.HasBid {
		size += 12
	}
	if msg.Nonce != 0 {
		size += 4
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Names != nil {
		size += 4
		for _, n := range msg.Names {
			size += 4 + len(n)
		}
	}
	if msg.Code != 0 {
		size++
	}

	return size
}

// fieldReader reads fields sequentially and remembers the first error
type fieldReader struct {
	data []byte
	pos  int
	err  error
}

func (r *fieldReader) bytes(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s", field)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *fieldReader) u8(field string) uint8 {
	if b := r.bytes(1, field); b != nil {
		return b[0]
	}
	return 0
}

func (r *fieldReader) u32(field string) uint32 {
	if b := r.bytes(4, field); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (r *fieldReader) u64(field string) uint64 {
	if b := r.bytes(8, field); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

// str reads a length prefixed string if flag is set in flags
func (r *fieldReader) str(flags, flag uint32, field string) string {
	if flags&flag == 0 {
		return ""
	}
	n := r.u32(field + " length")
	return string(r.bytes(int(n), field))
}
