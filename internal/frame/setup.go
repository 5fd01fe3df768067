package frame

import "fmt"

// Setup is the first frame a client sends, establishing encodings and
// connection options.
type Setup struct {
	common
	payloadBody

	MajorVersion uint16
	MinorVersion uint16

	KeepAliveMillis   uint32
	MaxLifetimeMillis uint32

	ResumeToken []byte // only meaningful when Flags().IsSet(FlagResume)

	DataMimeType     string
	MetadataMimeType string
}

func (f *Setup) Follows() bool     { return false }
func (f *Setup) SetFollows(b bool) {}

// Pack initializes f in place as a Setup frame.
func (f *Setup) Pack(keepAliveMillis, maxLifetimeMillis uint32, resumeToken []byte, dataMimeType, metadataMimeType string, metadata, data []byte) error {
	var flags Flags
	if metadata != nil {
		flags.Set(FlagMetadata)
	}
	if resumeToken != nil {
		flags.Set(FlagResume)
	}
	f.common.ftype = TypeSetup
	f.common.streamId = 0
	f.common.flags = flags
	f.MajorVersion, f.MinorVersion = 1, 0
	f.KeepAliveMillis = keepAliveMillis
	f.MaxLifetimeMillis = maxLifetimeMillis
	f.ResumeToken = resumeToken
	f.DataMimeType = dataMimeType
	f.MetadataMimeType = metadataMimeType
	f.payloadBody.SetMetadata(metadata)
	f.payloadBody.SetData(data)
	return nil
}

func (f *Setup) HonorsLease() bool { return f.Flags().IsSet(FlagLease) }

func (f *Setup) SetHonorsLease(honor bool) {
	if honor {
		f.common.flags.Set(FlagLease)
	} else {
		f.common.flags.Unset(FlagLease)
	}
}

func (f *Setup) String() string {
	return fmt.Sprintf("%s[data=%s metadata=%s keepAlive=%dms maxLifetime=%dms]",
		f.common.String(), f.DataMimeType, f.MetadataMimeType, f.KeepAliveMillis, f.MaxLifetimeMillis)
}

func encodeSetup(f *Setup) ([]byte, error) {
	buf := make([]byte, 0, 16)
	buf = appendUint16(buf, f.MajorVersion)
	buf = appendUint16(buf, f.MinorVersion)
	buf = appendUint32(buf, f.KeepAliveMillis)
	buf = appendUint32(buf, f.MaxLifetimeMillis)
	if f.Flags().IsSet(FlagResume) {
		buf = appendUint16(buf, uint16(len(f.ResumeToken)))
		buf = append(buf, f.ResumeToken...)
	}
	buf = append(buf, serializeMimeType(f.MetadataMimeType)...)
	buf = append(buf, serializeMimeType(f.DataMimeType)...)
	buf = append(buf, packPayloadBody(f.Flags().IsSet(FlagMetadata), f.Metadata(), f.Data())...)
	return buf, nil
}

func decodeSetup(streamId StreamId, flags Flags, body []byte) (*Setup, error) {
	f := &Setup{}
	f.common.streamId = streamId
	f.common.ftype = TypeSetup
	f.common.flags = flags

	if len(body) < 12 {
		return nil, fmt.Errorf("setup: body too short")
	}
	f.MajorVersion = order.Uint16(body[0:2])
	f.MinorVersion = order.Uint16(body[2:4])
	f.KeepAliveMillis = order.Uint32(body[4:8])
	f.MaxLifetimeMillis = order.Uint32(body[8:12])
	off := 12

	if flags.IsSet(FlagResume) {
		if len(body) < off+2 {
			return nil, fmt.Errorf("setup: truncated resume token length")
		}
		tlen := int(order.Uint16(body[off : off+2]))
		off += 2
		if len(body) < off+tlen {
			return nil, fmt.Errorf("setup: truncated resume token")
		}
		f.ResumeToken = body[off : off+tlen]
		off += tlen
	}

	metadataMime, n, err := parseMimeType(body[off:])
	if err != nil {
		return nil, fmt.Errorf("setup: metadata mime: %w", err)
	}
	f.MetadataMimeType = metadataMime
	off += n

	dataMime, n, err := parseMimeType(body[off:])
	if err != nil {
		return nil, fmt.Errorf("setup: data mime: %w", err)
	}
	f.DataMimeType = dataMime
	off += n

	metadata, data, err := parsePayloadBody(flags.IsSet(FlagMetadata), body[off:])
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	f.SetMetadata(metadata)
	f.SetData(data)
	return f, nil
}

func appendUint16(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

func appendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendUint64(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
