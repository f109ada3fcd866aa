package serializer

import "github.com/ValentinKolb/objlock/rpc/common"

// IRPCSerializer converts lock messages to and from their wire form.
// Implementations must be safe for concurrent use.
type IRPCSerializer interface {
	// Serialize encodes a Message
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes b into msg. msg is reset first, so a Message can be
	// reused across calls. Data that does not form exactly one Message is an
	// error, the server answers it with an invalid argument reply.
	Deserialize(b []byte, msg *common.Message) error
}
