package frame

import "fmt"

// Resume requests resumption of a previous connection. This core always
// rejects Resume with REJECTED_RESUME: connection resumption is out of
// scope for this core.
type Resume struct {
	common

	MajorVersion, MinorVersion         uint16
	ResumeToken                        []byte
	LastReceivedServerPosition         uint64
	FirstAvailableClientPosition       uint64
}

func (f *Resume) Pack(token []byte, lastServerPos, firstClientPos uint64) error {
	f.common.ftype = TypeResume
	f.common.streamId = 0
	f.MajorVersion, f.MinorVersion = 1, 0
	f.ResumeToken = token
	f.LastReceivedServerPosition = lastServerPos
	f.FirstAvailableClientPosition = firstClientPos
	return nil
}

func encodeResume(f *Resume) ([]byte, error) {
	buf := appendUint16(nil, f.MajorVersion)
	buf = appendUint16(buf, f.MinorVersion)
	buf = appendUint16(buf, uint16(len(f.ResumeToken)))
	buf = append(buf, f.ResumeToken...)
	buf = appendUint64(buf, f.LastReceivedServerPosition)
	buf = appendUint64(buf, f.FirstAvailableClientPosition)
	return buf, nil
}

func decodeResume(streamId StreamId, flags Flags, body []byte) (*Resume, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("resume: body too short")
	}
	f := &Resume{}
	f.common.streamId, f.common.ftype, f.common.flags = streamId, TypeResume, flags
	f.MajorVersion = order.Uint16(body[0:2])
	f.MinorVersion = order.Uint16(body[2:4])
	off := 4
	if len(body) < off+2 {
		return nil, fmt.Errorf("resume: truncated token length")
	}
	tlen := int(order.Uint16(body[off : off+2]))
	off += 2
	if len(body) < off+tlen+16 {
		return nil, fmt.Errorf("resume: truncated body")
	}
	f.ResumeToken = body[off : off+tlen]
	off += tlen
	f.LastReceivedServerPosition = order.Uint64(body[off : off+8])
	off += 8
	f.FirstAvailableClientPosition = order.Uint64(body[off : off+8])
	return f, nil
}

// ResumeOk acknowledges a Resume. Never produced by this core, decoded only
// so that a peer sending one does not trigger an invalid-frame sentinel.
type ResumeOk struct {
	common
	LastReceivedClientPosition uint64
}

func (f *ResumeOk) Pack(lastClientPos uint64) error {
	f.common.ftype = TypeResumeOk
	f.common.streamId = 0
	f.LastReceivedClientPosition = lastClientPos
	return nil
}

func encodeResumeOk(f *ResumeOk) ([]byte, error) {
	return appendUint64(nil, f.LastReceivedClientPosition), nil
}

func decodeResumeOk(streamId StreamId, flags Flags, body []byte) (*ResumeOk, error) {
	if len(body) < 8 {
		return nil, fmt.Errorf("resume_ok: body too short")
	}
	f := &ResumeOk{}
	f.common.streamId, f.common.ftype, f.common.flags = streamId, TypeResumeOk, flags
	f.LastReceivedClientPosition = order.Uint64(body[0:8])
	return f, nil
}
