package frame

import "fmt"

// Payload carries a value and/or terminal signal on an already-open stream.
// Complete and Next may both be set on a single frame: deliver the value
// first, then treat the stream as complete.
type Payload struct {
	common
	payloadBody
}

func (f *Payload) Follows() bool { return f.Flags().IsSet(FlagFollows) }
func (f *Payload) SetFollows(b bool) {
	if b {
		f.common.flags.Set(FlagFollows)
	} else {
		f.common.flags.Unset(FlagFollows)
	}
}

func (f *Payload) Complete() bool { return f.Flags().IsSet(FlagComplete) }
func (f *Payload) Next() bool     { return f.Flags().IsSet(FlagNext) }

// SetTerminal overrides the Complete/Next flags, used when a later fragment
// in a reassembly sequence carries the authoritative terminal state.
func (f *Payload) SetTerminal(complete, next bool) {
	if complete {
		f.common.flags.Set(FlagComplete)
	} else {
		f.common.flags.Unset(FlagComplete)
	}
	if next {
		f.common.flags.Set(FlagNext)
	} else {
		f.common.flags.Unset(FlagNext)
	}
}

func (f *Payload) Pack(streamId StreamId, metadata, data []byte, complete, next, follows bool) error {
	var flags Flags
	if metadata != nil {
		flags.Set(FlagMetadata)
	}
	if complete {
		flags.Set(FlagComplete)
	}
	if next {
		flags.Set(FlagNext)
	}
	if follows {
		flags.Set(FlagFollows)
	}
	f.common.ftype = TypePayload
	f.common.streamId = streamId
	f.common.flags = flags
	f.SetMetadata(metadata)
	f.SetData(data)
	return nil
}

func (f *Payload) String() string {
	return fmt.Sprintf("%s[complete=%v next=%v follows=%v]", f.common.String(), f.Complete(), f.Next(), f.Follows())
}

func encodePayload(f *Payload) ([]byte, error) {
	return packPayloadBody(f.Flags().IsSet(FlagMetadata), f.Metadata(), f.Data()), nil
}

func decodePayload(streamId StreamId, flags Flags, body []byte) (*Payload, error) {
	metadata, data, err := parsePayloadBody(flags.IsSet(FlagMetadata), body)
	if err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	f := &Payload{}
	f.common.streamId, f.common.ftype, f.common.flags = streamId, TypePayload, flags
	f.SetMetadata(metadata)
	f.SetData(data)
	return f, nil
}
