// Package frame implements the RSocket v1.0 binary frame codec: header
// packing/unpacking, length-prefixed streaming decode, and the closed
// enumeration of frame types and per-type flags.
package frame

import (
	"encoding/binary"
	"fmt"
)

// the byte order of all serialized integers
var order = binary.BigEndian

const (
	// masks for packing/unpacking frame headers
	streamMask = 0x7FFFFFFF
	typeMask   = 0xFC00
	flagsMask  = 0x03FF
	lengthMask = 0x00FFFFFF

	lengthPrefixSize = 3
	headerSize       = 6 // 4 bytes stream id + 2 bytes type/flags
)

// StreamId is a 31-bit integer identifying a stream within a connection.
// Id 0 is reserved for connection-level frames.
type StreamId uint32

func (id StreamId) valid() error {
	if uint32(id) > streamMask {
		return fmt.Errorf("invalid stream id: %d", id)
	}
	return nil
}

// IsConnection reports whether id refers to the connection (stream id 0).
func (id StreamId) IsConnection() bool {
	return id == 0
}

// ErrorCode is a 32-bit wire error code, see the Error frame and
// section 6 for the canonical set of values.
type ErrorCode uint32

const (
	ErrorCodeInvalidSetup      ErrorCode = 0x00000001
	ErrorCodeUnsupportedSetup  ErrorCode = 0x00000002
	ErrorCodeRejectedSetup     ErrorCode = 0x00000003
	ErrorCodeRejectedResume    ErrorCode = 0x00000004
	ErrorCodeConnectionError   ErrorCode = 0x00000101
	ErrorCodeConnectionClose  ErrorCode = 0x00000102
	ErrorCodeApplicationError  ErrorCode = 0x00000201
	ErrorCodeRejected          ErrorCode = 0x00000202
	ErrorCodeCanceled          ErrorCode = 0x00000203
	ErrorCodeInvalid           ErrorCode = 0x00000204
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeInvalidSetup:
		return "INVALID_SETUP"
	case ErrorCodeUnsupportedSetup:
		return "UNSUPPORTED_SETUP"
	case ErrorCodeRejectedSetup:
		return "REJECTED_SETUP"
	case ErrorCodeRejectedResume:
		return "REJECTED_RESUME"
	case ErrorCodeConnectionError:
		return "CONNECTION_ERROR"
	case ErrorCodeConnectionClose:
		return "CONNECTION_CLOSE"
	case ErrorCodeApplicationError:
		return "APPLICATION_ERROR"
	case ErrorCodeRejected:
		return "REJECTED"
	case ErrorCodeCanceled:
		return "CANCELED"
	case ErrorCodeInvalid:
		return "INVALID"
	}
	return "UNKNOWN"
}

// Type is a 6-bit integer in the frame header identifying the frame's variant.
type Type uint8

const (
	TypeReserved         Type = 0x00
	TypeSetup            Type = 0x01
	TypeLease            Type = 0x02
	TypeKeepalive         Type = 0x03
	TypeRequestResponse   Type = 0x04
	TypeRequestFnf        Type = 0x05
	TypeRequestStream     Type = 0x06
	TypeRequestChannel    Type = 0x07
	TypeRequestN          Type = 0x08
	TypeCancel            Type = 0x09
	TypePayload           Type = 0x0A
	TypeError             Type = 0x0B
	TypeMetadataPush      Type = 0x0C
	TypeResume            Type = 0x0D
	TypeResumeOk          Type = 0x0E
	TypeExt               Type = 0x3F
)

func (t Type) String() string {
	switch t {
	case TypeSetup:
		return "SETUP"
	case TypeLease:
		return "LEASE"
	case TypeKeepalive:
		return "KEEPALIVE"
	case TypeRequestResponse:
		return "REQUEST_RESPONSE"
	case TypeRequestFnf:
		return "REQUEST_FNF"
	case TypeRequestStream:
		return "REQUEST_STREAM"
	case TypeRequestChannel:
		return "REQUEST_CHANNEL"
	case TypeRequestN:
		return "REQUEST_N"
	case TypeCancel:
		return "CANCEL"
	case TypePayload:
		return "PAYLOAD"
	case TypeError:
		return "ERROR"
	case TypeMetadataPush:
		return "METADATA_PUSH"
	case TypeResume:
		return "RESUME"
	case TypeResumeOk:
		return "RESUME_OK"
	}
	return "UNKNOWN"
}

// Flags is a 10-bit integer of frame-specific flag bits in the header.
type Flags uint16

const (
	FlagMetadata Flags = 0x100 // M: metadata payload is present
	FlagFollows  Flags = 0x080 // fragment continues (initiate-request/Payload only)
	FlagComplete Flags = 0x040 // C: stream is complete
	FlagNext     Flags = 0x020 // N: payload carries a value
	FlagRespond  Flags = 0x080 // Keepalive: a response is requested
	FlagLease    Flags = 0x040 // Setup: lease is honored on this connection
	FlagResume   Flags = 0x080 // Setup: a resume token is present
)

func (f Flags) IsSet(g Flags) bool {
	return f&g != 0
}

func (f *Flags) Set(g Flags) {
	*f |= g
}

func (f *Flags) Unset(g Flags) {
	*f = *f &^ g
}

// common is the shared frame header, embedded by every concrete frame type.
type common struct {
	streamId StreamId
	ftype    Type
	flags    Flags
}

func (f *common) StreamId() StreamId {
	return f.streamId
}

func (f *common) Type() Type {
	return f.ftype
}

func (f *common) Flags() Flags {
	return f.flags
}

func (f *common) packHeader(buf []byte, ftype Type, streamId StreamId, flags Flags) error {
	if err := streamId.valid(); err != nil {
		return err
	}
	f.ftype = ftype
	f.streamId = streamId
	f.flags = flags
	order.PutUint32(buf[0:4], uint32(streamId))
	typeAndFlags := uint16(ftype)<<10 | uint16(flags&flagsMask)
	order.PutUint16(buf[4:6], typeAndFlags)
	return nil
}

func parseHeader(buf []byte) (streamId StreamId, ftype Type, flags Flags) {
	streamId = StreamId(order.Uint32(buf[0:4]) & streamMask)
	typeAndFlags := order.Uint16(buf[4:6])
	ftype = Type(typeAndFlags >> 10)
	flags = Flags(typeAndFlags & flagsMask)
	return
}

func isValidLength(length int) bool {
	return length >= 0 && length <= lengthMask
}

func (f *common) String() string {
	return fmt.Sprintf("FRAME[type=%s stream=%d flags=%#x]", f.ftype, f.streamId, f.flags)
}
