package frame

import "fmt"

// Frame is implemented by every concrete frame variant. The variant
// enumeration is closed: a type switch over the Type() value is the
// canonical way to dispatch, as used by the connection engine.
type Frame interface {
	StreamId() StreamId
	Type() Type
	Flags() Flags
	fmt.Stringer
}

// FragmentableFrame is implemented by frame variants that may legally carry
// the Follows flag: the initiate-request variants and Payload. Any other
// frame type observed with Follows set is a protocol error.
type FragmentableFrame interface {
	Frame
	Follows() bool
	SetFollows(bool)
	Metadata() []byte
	Data() []byte
	SetMetadata([]byte)
	SetData([]byte)
}

// InitiateRequestFrame is implemented by the four stream-opening frame
// variants: RequestResponse, RequestFnf, RequestStream, RequestChannel.
type InitiateRequestFrame interface {
	FragmentableFrame
	isInitiateRequest()
}

// payloadBody is the metadata+data carrier shared by most frame variants.
type payloadBody struct {
	metadata []byte
	data     []byte
}

func (b *payloadBody) Metadata() []byte { return b.metadata }
func (b *payloadBody) Data() []byte     { return b.data }

func (b *payloadBody) SetMetadata(m []byte) { b.metadata = m }
func (b *payloadBody) SetData(d []byte)     { b.data = d }

// packPayloadBody serializes the optional 24-bit-length-prefixed metadata
// followed by the data, as used by every frame type that may carry both.
func packPayloadBody(hasMetadata bool, metadata, data []byte) []byte {
	size := len(data)
	if hasMetadata {
		size += 3 + len(metadata)
	}
	buf := make([]byte, size)
	offset := 0
	if hasMetadata {
		buf[offset] = byte(len(metadata) >> 16)
		buf[offset+1] = byte(len(metadata) >> 8)
		buf[offset+2] = byte(len(metadata))
		offset += 3
		copy(buf[offset:], metadata)
		offset += len(metadata)
	}
	copy(buf[offset:], data)
	return buf
}

// parsePayloadBody splits a metadata+data body given whether the metadata
// flag was set.
func parsePayloadBody(hasMetadata bool, buf []byte) (metadata, data []byte, err error) {
	if !hasMetadata {
		return nil, buf, nil
	}
	if len(buf) < 3 {
		return nil, nil, fmt.Errorf("payload body too short for metadata length")
	}
	mlen := int(buf[0])<<16 | int(buf[1])<<8 | int(buf[2])
	if len(buf) < 3+mlen {
		return nil, nil, fmt.Errorf("payload body too short for metadata of length %d", mlen)
	}
	metadata = buf[3 : 3+mlen]
	data = buf[3+mlen:]
	return metadata, data, nil
}
