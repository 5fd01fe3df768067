package fragment

import (
	"bytes"
	"testing"

	"github.com/ngrok/rsocket-go/internal/frame"
)

func TestAppendSingleFrameNoFollows(t *testing.T) {
	c := NewCache()

	var f frame.RequestResponse
	if err := f.Pack(1, nil, []byte("hello"), false); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	got, err := c.Append(&f)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got == nil {
		t.Fatalf("expected completed frame, got nil")
	}
	if c.byStreamId[1] != nil {
		t.Fatalf("expected no cache entry remaining")
	}
}

func TestAppendAccumulatesAcrossFragments(t *testing.T) {
	c := NewCache()

	var first frame.RequestStream
	if err := first.Pack(3, 10, []byte("md"), []byte("part1-"), true); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got, err := c.Append(&first)
	if err != nil {
		t.Fatalf("Append first: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil while fragment in progress")
	}

	var second frame.Payload
	if err := second.Pack(3, nil, []byte("part2"), true, true, false); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	final, err := c.Append(&second)
	if err != nil {
		t.Fatalf("Append second: %v", err)
	}
	if final == nil {
		t.Fatalf("expected completed frame")
	}
	rs, ok := final.(*frame.RequestStream)
	if !ok {
		t.Fatalf("got %T, want *frame.RequestStream", final)
	}
	if !bytes.Equal(rs.Data(), []byte("part1-part2")) {
		t.Errorf("Data = %q", rs.Data())
	}
	if !bytes.Equal(rs.Metadata(), []byte("md")) {
		t.Errorf("Metadata = %q", rs.Metadata())
	}
	if rs.Follows() {
		t.Errorf("expected Follows cleared on completed frame")
	}
}

func TestAppendTypeMismatchIsError(t *testing.T) {
	c := NewCache()

	var first frame.RequestResponse
	if err := first.Pack(5, nil, []byte("a"), true); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if _, err := c.Append(&first); err != nil {
		t.Fatalf("Append first: %v", err)
	}

	var bogus frame.RequestFnf
	if err := bogus.Pack(5, nil, []byte("b"), false); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	_, err := c.Append(&bogus)
	if err == nil {
		t.Fatalf("expected ErrTypeMismatch")
	}
	if _, ok := err.(ErrTypeMismatch); !ok {
		t.Fatalf("got %T, want ErrTypeMismatch", err)
	}
}

func TestAppendTerminalFlagsOverrideOnFinalPayload(t *testing.T) {
	c := NewCache()

	var first frame.Payload
	if err := first.Pack(7, nil, []byte("a"), false, false, true); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if _, err := c.Append(&first); err != nil {
		t.Fatalf("Append first: %v", err)
	}

	var last frame.Payload
	if err := last.Pack(7, nil, []byte("b"), true, true, false); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	final, err := c.Append(&last)
	if err != nil {
		t.Fatalf("Append last: %v", err)
	}
	p := final.(*frame.Payload)
	if !p.Complete() || !p.Next() {
		t.Errorf("expected terminal frame's Complete/Next to win, got complete=%v next=%v", p.Complete(), p.Next())
	}
}
