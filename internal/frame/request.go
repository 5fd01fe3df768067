package frame

import "fmt"

// RequestResponse carries the initial payload of a request/response
// interaction.
type RequestResponse struct {
	common
	payloadBody
}

func (f *RequestResponse) isInitiateRequest() {}
func (f *RequestResponse) Follows() bool      { return f.Flags().IsSet(FlagFollows) }
func (f *RequestResponse) SetFollows(b bool) {
	if b {
		f.common.flags.Set(FlagFollows)
	} else {
		f.common.flags.Unset(FlagFollows)
	}
}

func (f *RequestResponse) Pack(streamId StreamId, metadata, data []byte, follows bool) error {
	var flags Flags
	if metadata != nil {
		flags.Set(FlagMetadata)
	}
	if follows {
		flags.Set(FlagFollows)
	}
	f.common.ftype = TypeRequestResponse
	f.common.streamId = streamId
	f.common.flags = flags
	f.SetMetadata(metadata)
	f.SetData(data)
	return nil
}

func encodeRequestResponse(f *RequestResponse) ([]byte, error) {
	return packPayloadBody(f.Flags().IsSet(FlagMetadata), f.Metadata(), f.Data()), nil
}

func decodeRequestResponse(streamId StreamId, flags Flags, body []byte) (*RequestResponse, error) {
	metadata, data, err := parsePayloadBody(flags.IsSet(FlagMetadata), body)
	if err != nil {
		return nil, fmt.Errorf("request_response: %w", err)
	}
	f := &RequestResponse{}
	f.common.streamId, f.common.ftype, f.common.flags = streamId, TypeRequestResponse, flags
	f.SetMetadata(metadata)
	f.SetData(data)
	return f, nil
}

// RequestFnf carries the single payload of a fire-and-forget interaction.
type RequestFnf struct {
	common
	payloadBody
}

func (f *RequestFnf) isInitiateRequest() {}
func (f *RequestFnf) Follows() bool      { return f.Flags().IsSet(FlagFollows) }
func (f *RequestFnf) SetFollows(b bool) {
	if b {
		f.common.flags.Set(FlagFollows)
	} else {
		f.common.flags.Unset(FlagFollows)
	}
}

func (f *RequestFnf) Pack(streamId StreamId, metadata, data []byte, follows bool) error {
	var flags Flags
	if metadata != nil {
		flags.Set(FlagMetadata)
	}
	if follows {
		flags.Set(FlagFollows)
	}
	f.common.ftype = TypeRequestFnf
	f.common.streamId = streamId
	f.common.flags = flags
	f.SetMetadata(metadata)
	f.SetData(data)
	return nil
}

func encodeRequestFnf(f *RequestFnf) ([]byte, error) {
	return packPayloadBody(f.Flags().IsSet(FlagMetadata), f.Metadata(), f.Data()), nil
}

func decodeRequestFnf(streamId StreamId, flags Flags, body []byte) (*RequestFnf, error) {
	metadata, data, err := parsePayloadBody(flags.IsSet(FlagMetadata), body)
	if err != nil {
		return nil, fmt.Errorf("request_fnf: %w", err)
	}
	f := &RequestFnf{}
	f.common.streamId, f.common.ftype, f.common.flags = streamId, TypeRequestFnf, flags
	f.SetMetadata(metadata)
	f.SetData(data)
	return f, nil
}

// RequestStream opens a request/stream interaction, carrying the initial
// demand (InitialRequestN) along with the first payload.
type RequestStream struct {
	common
	payloadBody

	InitialRequestN uint32
}

func (f *RequestStream) isInitiateRequest() {}
func (f *RequestStream) Follows() bool      { return f.Flags().IsSet(FlagFollows) }
func (f *RequestStream) SetFollows(b bool) {
	if b {
		f.common.flags.Set(FlagFollows)
	} else {
		f.common.flags.Unset(FlagFollows)
	}
}

func (f *RequestStream) Pack(streamId StreamId, initialRequestN uint32, metadata, data []byte, follows bool) error {
	var flags Flags
	if metadata != nil {
		flags.Set(FlagMetadata)
	}
	if follows {
		flags.Set(FlagFollows)
	}
	f.common.ftype = TypeRequestStream
	f.common.streamId = streamId
	f.common.flags = flags
	f.InitialRequestN = initialRequestN
	f.SetMetadata(metadata)
	f.SetData(data)
	return nil
}

func encodeRequestStream(f *RequestStream) ([]byte, error) {
	buf := appendUint32(nil, f.InitialRequestN)
	buf = append(buf, packPayloadBody(f.Flags().IsSet(FlagMetadata), f.Metadata(), f.Data())...)
	return buf, nil
}

func decodeRequestStream(streamId StreamId, flags Flags, body []byte) (*RequestStream, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("request_stream: body too short")
	}
	metadata, data, err := parsePayloadBody(flags.IsSet(FlagMetadata), body[4:])
	if err != nil {
		return nil, fmt.Errorf("request_stream: %w", err)
	}
	f := &RequestStream{}
	f.common.streamId, f.common.ftype, f.common.flags = streamId, TypeRequestStream, flags
	f.InitialRequestN = order.Uint32(body[0:4])
	f.SetMetadata(metadata)
	f.SetData(data)
	return f, nil
}

// RequestChannel opens a bidirectional channel interaction.
type RequestChannel struct {
	common
	payloadBody

	InitialRequestN uint32
}

func (f *RequestChannel) isInitiateRequest() {}
func (f *RequestChannel) Follows() bool      { return f.Flags().IsSet(FlagFollows) }
func (f *RequestChannel) SetFollows(b bool) {
	if b {
		f.common.flags.Set(FlagFollows)
	} else {
		f.common.flags.Unset(FlagFollows)
	}
}

// InitialComplete reports whether the requester-supplied local publisher was
// already complete at open time (no local payloads will ever follow).
func (f *RequestChannel) InitialComplete() bool { return f.Flags().IsSet(FlagComplete) }

func (f *RequestChannel) Pack(streamId StreamId, initialRequestN uint32, metadata, data []byte, follows, initialComplete bool) error {
	var flags Flags
	if metadata != nil {
		flags.Set(FlagMetadata)
	}
	if follows {
		flags.Set(FlagFollows)
	}
	if initialComplete {
		flags.Set(FlagComplete)
	}
	f.common.ftype = TypeRequestChannel
	f.common.streamId = streamId
	f.common.flags = flags
	f.InitialRequestN = initialRequestN
	f.SetMetadata(metadata)
	f.SetData(data)
	return nil
}

func encodeRequestChannel(f *RequestChannel) ([]byte, error) {
	buf := appendUint32(nil, f.InitialRequestN)
	buf = append(buf, packPayloadBody(f.Flags().IsSet(FlagMetadata), f.Metadata(), f.Data())...)
	return buf, nil
}

func decodeRequestChannel(streamId StreamId, flags Flags, body []byte) (*RequestChannel, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("request_channel: body too short")
	}
	metadata, data, err := parsePayloadBody(flags.IsSet(FlagMetadata), body[4:])
	if err != nil {
		return nil, fmt.Errorf("request_channel: %w", err)
	}
	f := &RequestChannel{}
	f.common.streamId, f.common.ftype, f.common.flags = streamId, TypeRequestChannel, flags
	f.InitialRequestN = order.Uint32(body[0:4])
	f.SetMetadata(metadata)
	f.SetData(data)
	return f, nil
}

// RequestN carries a credit delta for an open stream.
type RequestN struct {
	common
	N uint32
}

func (f *RequestN) Follows() bool { return false }

func (f *RequestN) Pack(streamId StreamId, n uint32) error {
	f.common.ftype = TypeRequestN
	f.common.streamId = streamId
	f.N = n
	return nil
}

func (f *RequestN) String() string {
	return fmt.Sprintf("%s[n=%d]", f.common.String(), f.N)
}

func encodeRequestN(f *RequestN) ([]byte, error) {
	return appendUint32(nil, f.N), nil
}

func decodeRequestN(streamId StreamId, flags Flags, body []byte) (*RequestN, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("request_n: body too short")
	}
	f := &RequestN{}
	f.common.streamId, f.common.ftype, f.common.flags = streamId, TypeRequestN, flags
	f.N = order.Uint32(body[0:4])
	return f, nil
}

// Cancel terminates the requester's interest in a stream.
type Cancel struct {
	common
}

func (f *Cancel) Pack(streamId StreamId) error {
	f.common.ftype = TypeCancel
	f.common.streamId = streamId
	return nil
}

func encodeCancel(f *Cancel) ([]byte, error) {
	return nil, nil
}

func decodeCancel(streamId StreamId, flags Flags, body []byte) (*Cancel, error) {
	f := &Cancel{}
	f.common.streamId, f.common.ftype, f.common.flags = streamId, TypeCancel, flags
	return f, nil
}
