package frame

// Unknown is the sentinel returned for frame types outside the closed
// enumeration, or whose body could not be parsed. The engine logs and drops
// these without terminating the connection, unless the
// header itself was unparseable.
type Unknown struct {
	common
	Raw []byte
}

func (f *Unknown) String() string {
	return f.common.String() + "[unknown]"
}

func newUnknown(streamId StreamId, ftype Type, flags Flags, body []byte) *Unknown {
	f := &Unknown{Raw: body}
	f.common.streamId, f.common.ftype, f.common.flags = streamId, ftype, flags
	return f
}
