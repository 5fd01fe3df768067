package frame

// MetadataPush carries connection-level, out-of-band metadata. stream_id is
// always 0.
type MetadataPush struct {
	common
	PushMetadata []byte
}

func (f *MetadataPush) Metadata() []byte { return f.PushMetadata }

func (f *MetadataPush) Pack(metadata []byte) error {
	f.common.ftype = TypeMetadataPush
	f.common.streamId = 0
	f.common.flags = FlagMetadata
	f.PushMetadata = metadata
	return nil
}

func encodeMetadataPush(f *MetadataPush) ([]byte, error) {
	return f.PushMetadata, nil
}

func decodeMetadataPush(streamId StreamId, flags Flags, body []byte) (*MetadataPush, error) {
	f := &MetadataPush{}
	f.common.streamId, f.common.ftype, f.common.flags = streamId, TypeMetadataPush, flags
	f.PushMetadata = body
	return f, nil
}
