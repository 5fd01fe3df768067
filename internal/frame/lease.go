package frame

import "fmt"

// Lease grants permission to send up to NumberOfRequests requests within
// TimeToLiveMillis.
type Lease struct {
	common

	TimeToLiveMillis  uint32
	NumberOfRequests  uint32
	LeaseMetadata     []byte
}

func (f *Lease) Metadata() []byte { return f.LeaseMetadata }

func (f *Lease) Pack(ttlMillis, numRequests uint32, metadata []byte) error {
	var flags Flags
	if metadata != nil {
		flags.Set(FlagMetadata)
	}
	f.common.ftype = TypeLease
	f.common.streamId = 0
	f.common.flags = flags
	f.TimeToLiveMillis = ttlMillis
	f.NumberOfRequests = numRequests
	f.LeaseMetadata = metadata
	return nil
}

func (f *Lease) String() string {
	return fmt.Sprintf("%s[n=%d ttl=%dms]", f.common.String(), f.NumberOfRequests, f.TimeToLiveMillis)
}

func encodeLease(f *Lease) ([]byte, error) {
	buf := make([]byte, 0, 8+len(f.LeaseMetadata))
	buf = appendUint32(buf, f.TimeToLiveMillis)
	buf = appendUint32(buf, f.NumberOfRequests)
	buf = append(buf, f.LeaseMetadata...)
	return buf, nil
}

func decodeLease(streamId StreamId, flags Flags, body []byte) (*Lease, error) {
	if len(body) < 8 {
		return nil, fmt.Errorf("lease: body too short")
	}
	f := &Lease{}
	f.common.streamId = streamId
	f.common.ftype = TypeLease
	f.common.flags = flags
	f.TimeToLiveMillis = order.Uint32(body[0:4])
	f.NumberOfRequests = order.Uint32(body[4:8])
	if flags.IsSet(FlagMetadata) && len(body) > 8 {
		f.LeaseMetadata = body[8:]
	}
	return f, nil
}
