package frame

import "fmt"

// Keepalive is a connection-level liveness probe carrying no stream
// semantics.
type Keepalive struct {
	common

	LastReceivedPosition uint64 // resumption position; unused, carried for wire compatibility
	KeepaliveData        []byte
}

func (f *Keepalive) Data() []byte { return f.KeepaliveData }

func (f *Keepalive) Respond() bool { return f.Flags().IsSet(FlagRespond) }

func (f *Keepalive) Pack(respond bool, data []byte) error {
	var flags Flags
	if respond {
		flags.Set(FlagRespond)
	}
	f.common.ftype = TypeKeepalive
	f.common.streamId = 0
	f.common.flags = flags
	f.KeepaliveData = data
	return nil
}

func (f *Keepalive) SetRespond(respond bool) {
	if respond {
		f.common.flags.Set(FlagRespond)
	} else {
		f.common.flags.Unset(FlagRespond)
	}
}

func (f *Keepalive) String() string {
	return fmt.Sprintf("%s[respond=%v]", f.common.String(), f.Respond())
}

func encodeKeepalive(f *Keepalive) ([]byte, error) {
	buf := make([]byte, 0, 8+len(f.KeepaliveData))
	buf = appendUint64(buf, f.LastReceivedPosition)
	buf = append(buf, f.KeepaliveData...)
	return buf, nil
}

func decodeKeepalive(streamId StreamId, flags Flags, body []byte) (*Keepalive, error) {
	if len(body) < 8 {
		return nil, fmt.Errorf("keepalive: body too short")
	}
	f := &Keepalive{}
	f.common.streamId = streamId
	f.common.ftype = TypeKeepalive
	f.common.flags = flags
	f.LastReceivedPosition = order.Uint64(body[0:8])
	if len(body) > 8 {
		f.KeepaliveData = body[8:]
	}
	return f, nil
}
