package frame

import "fmt"

// WellKnownMimeType is a registered MIME type id usable in Setup's
// data/metadata encoding fields in place of the full MIME string.
type WellKnownMimeType uint8

// wellKnownMimeTypes mirrors a handful of the registered RSocket MIME types;
// it is intentionally not exhaustive (new registrations are additive and do
// not change the wire format).
var wellKnownMimeTypes = map[WellKnownMimeType]string{
	0x00: "application/octet-stream",
	0x01: "application/vnd.apache.avro",
	0x02: "application/cbor",
	0x3C: "application/json",
	0x3D: "application/cloudevents+json",
	0x7A: "message/x.rsocket.routing.v0",
	0x7E: "message/x.rsocket.composite-metadata.v0",
}

var mimeTypeIds = func() map[string]WellKnownMimeType {
	m := make(map[string]WellKnownMimeType, len(wellKnownMimeTypes))
	for id, name := range wellKnownMimeTypes {
		m[name] = id
	}
	return m
}()

// serializeMimeType encodes an encoding name as either a single well-known-id
// byte (high bit set) or a length-prefixed literal string (high bit clear).
func serializeMimeType(name string) []byte {
	if id, ok := mimeTypeIds[name]; ok {
		return []byte{0x80 | byte(id)}
	}
	out := make([]byte, 1+len(name))
	out[0] = byte(len(name) & 0x7F)
	copy(out[1:], name)
	return out
}

// parseMimeType is the authoritative decode path:
// it always consults the well-known type table rather than assuming the
// high bit alone determines the encoding.
func parseMimeType(buf []byte) (name string, consumed int, err error) {
	if len(buf) < 1 {
		return "", 0, fmt.Errorf("mime type: empty buffer")
	}
	b := buf[0]
	isWellKnown := b>>7 == 1
	lengthOrId := int(b & 0x7F)
	if isWellKnown {
		known, ok := wellKnownMimeTypes[WellKnownMimeType(lengthOrId)]
		if !ok {
			return "", 0, fmt.Errorf("mime type: unknown well-known id %d", lengthOrId)
		}
		return known, 1, nil
	}
	if len(buf) < 1+lengthOrId {
		return "", 0, fmt.Errorf("mime type: buffer too short for literal of length %d", lengthOrId)
	}
	return string(buf[1 : 1+lengthOrId]), 1 + lengthOrId, nil
}
