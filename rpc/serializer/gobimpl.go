package serializer

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/ValentinKolb/objlock/rpc/common"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format.
// gob drops empty slices, an empty Names list arrives as nil.
func NewGOBSerializer() IRPCSerializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the IRPCSerializer interface using gob encoding
type gobSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	// gob leaves fields that were zero on the sender untouched
	*msg = common.Message{}

	buf := bytes.NewReader(b)
	if err := gob.NewDecoder(buf).Decode(msg); err != nil {
		return fmt.Errorf("invalid gob message: %w", err)
	}
	if buf.Len() != 0 {
		return fmt.Errorf("invalid gob message: %d trailing bytes", buf.Len())
	}
	return nil
}
