package frame

// decodeBody dispatches to the per-type decoder based on the frame header.
// Malformed bodies produce an InvalidFrame-equivalent by returning Unknown
// rather than an error, except where the header itself is unparseable; see
// ReadFrame in framer.go for the header-unparseable fatal path.
func decodeBody(streamId StreamId, ftype Type, flags Flags, body []byte) (Frame, error) {
	var (
		f   Frame
		err error
	)
	switch ftype {
	case TypeSetup:
		f, err = decodeSetup(streamId, flags, body)
	case TypeLease:
		f, err = decodeLease(streamId, flags, body)
	case TypeKeepalive:
		f, err = decodeKeepalive(streamId, flags, body)
	case TypeRequestResponse:
		f, err = decodeRequestResponse(streamId, flags, body)
	case TypeRequestFnf:
		f, err = decodeRequestFnf(streamId, flags, body)
	case TypeRequestStream:
		f, err = decodeRequestStream(streamId, flags, body)
	case TypeRequestChannel:
		f, err = decodeRequestChannel(streamId, flags, body)
	case TypeRequestN:
		f, err = decodeRequestN(streamId, flags, body)
	case TypeCancel:
		f, err = decodeCancel(streamId, flags, body)
	case TypePayload:
		f, err = decodePayload(streamId, flags, body)
	case TypeError:
		f, err = decodeErrorFrame(streamId, flags, body)
	case TypeMetadataPush:
		f, err = decodeMetadataPush(streamId, flags, body)
	case TypeResume:
		f, err = decodeResume(streamId, flags, body)
	case TypeResumeOk:
		f, err = decodeResumeOk(streamId, flags, body)
	default:
		return newUnknown(streamId, ftype, flags, body), nil
	}
	if err != nil {
		// the frame type was recognized but the body was malformed: this is
		// the InvalidFrame sentinel path, not a fatal decode error.
		return newUnknown(streamId, ftype, flags, body), nil
	}
	return f, nil
}

func encodeBody(f Frame) ([]byte, error) {
	switch v := f.(type) {
	case *Setup:
		return encodeSetup(v)
	case *Lease:
		return encodeLease(v)
	case *Keepalive:
		return encodeKeepalive(v)
	case *RequestResponse:
		return encodeRequestResponse(v)
	case *RequestFnf:
		return encodeRequestFnf(v)
	case *RequestStream:
		return encodeRequestStream(v)
	case *RequestChannel:
		return encodeRequestChannel(v)
	case *RequestN:
		return encodeRequestN(v)
	case *Cancel:
		return encodeCancel(v)
	case *Payload:
		return encodePayload(v)
	case *ErrorFrame:
		return encodeErrorFrame(v)
	case *MetadataPush:
		return encodeMetadataPush(v)
	case *Resume:
		return encodeResume(v)
	case *ResumeOk:
		return encodeResumeOk(v)
	case *Unknown:
		return v.Raw, nil
	default:
		return nil, protocolError(errUnencodableFrame{f})
	}
}

type errUnencodableFrame struct{ f Frame }

func (e errUnencodableFrame) Error() string {
	return "frame: no encoder for frame type"
}

// IsFragmentable reports whether f may legally carry the Follows flag:
// the initiate-request variants and Payload.
func IsFragmentable(f Frame) bool {
	switch f.(type) {
	case *RequestResponse, *RequestFnf, *RequestStream, *RequestChannel, *Payload:
		return true
	default:
		return false
	}
}

// IsInitiateRequest reports whether f opens a new stream.
func IsInitiateRequest(f Frame) bool {
	switch f.(type) {
	case *RequestResponse, *RequestFnf, *RequestStream, *RequestChannel:
		return true
	default:
		return false
	}
}

// HasFollows reports whether f has the Follows bit set. It does not look at
// the frame type: Keepalive's Respond and Setup's Resume flags share that
// bit, and fragmentable frames are reported the same as any other.
func HasFollows(f Frame) bool {
	return f.Flags().IsSet(FlagFollows)
}
