package frame

import "fmt"

// ErrorFrame carries a wire error code and an error message, targeting
// either a stream or the connection (stream id 0).
type ErrorFrame struct {
	common

	Code    ErrorCode
	ErrData []byte
}

func (f *ErrorFrame) Data() []byte { return f.ErrData }

func (f *ErrorFrame) Pack(streamId StreamId, code ErrorCode, data []byte) error {
	f.common.ftype = TypeError
	f.common.streamId = streamId
	f.Code = code
	f.ErrData = data
	return nil
}

func (f *ErrorFrame) String() string {
	return fmt.Sprintf("%s[code=%s]", f.common.String(), f.Code)
}

func encodeErrorFrame(f *ErrorFrame) ([]byte, error) {
	buf := appendUint32(nil, uint32(f.Code))
	buf = append(buf, f.ErrData...)
	return buf, nil
}

func decodeErrorFrame(streamId StreamId, flags Flags, body []byte) (*ErrorFrame, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("error: body too short")
	}
	f := &ErrorFrame{}
	f.common.streamId, f.common.ftype, f.common.flags = streamId, TypeError, flags
	f.Code = ErrorCode(order.Uint32(body[0:4]))
	if len(body) > 4 {
		f.ErrData = body[4:]
	}
	return f, nil
}
