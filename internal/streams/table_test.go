package streams

import (
	"testing"

	"github.com/ngrok/rsocket-go/internal/frame"
)

type fakeHandler struct{ handled []frame.Frame }

func (h *fakeHandler) HandleFrame(f frame.Frame) error {
	h.handled = append(h.handled, f)
	return nil
}

func TestAllocateProducesOddIdsForClient(t *testing.T) {
	tab := NewTable(true)
	h := &fakeHandler{}

	for i, want := range []frame.StreamId{1, 3, 5} {
		id, err := tab.Allocate(h)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		if id != want {
			t.Errorf("Allocate #%d = %d, want %d", i, id, want)
		}
	}
}

func TestAllocateProducesEvenIdsForServer(t *testing.T) {
	tab := NewTable(false)
	h := &fakeHandler{}

	for i, want := range []frame.StreamId{2, 4, 6} {
		id, err := tab.Allocate(h)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		if id != want {
			t.Errorf("Allocate #%d = %d, want %d", i, id, want)
		}
	}
}

func TestAllocateSkipsIdsAlreadyRegistered(t *testing.T) {
	tab := NewTable(true)
	h := &fakeHandler{}

	if first, err := tab.Allocate(h); err != nil || first != 1 {
		t.Fatalf("first Allocate = %d, %v; want 1", first, err)
	}
	tab.Register(3, h)
	id, err := tab.Allocate(h)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if id != 5 {
		t.Errorf("Allocate = %d, want 5 (3 already taken)", id)
	}
}

func TestAssertAvailableRejectsInUseId(t *testing.T) {
	tab := NewTable(false)
	h := &fakeHandler{}
	tab.Register(10, h)

	if err := tab.AssertAvailable(10); err == nil {
		t.Fatalf("expected error for in-use id")
	}
	if err := tab.AssertAvailable(12); err != nil {
		t.Fatalf("unexpected error for free id: %v", err)
	}
}

func TestDispatchRoutesToRegisteredHandler(t *testing.T) {
	tab := NewTable(true)
	h := &fakeHandler{}
	tab.Register(9, h)

	var f frame.Cancel
	if err := f.Pack(9); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	handled, err := tab.Dispatch(&f)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !handled {
		t.Fatalf("expected frame to be handled")
	}
	if len(h.handled) != 1 {
		t.Fatalf("handler saw %d frames, want 1", len(h.handled))
	}
}

func TestDispatchUnknownIdNotHandled(t *testing.T) {
	tab := NewTable(true)

	var f frame.Cancel
	if err := f.Pack(99); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	handled, err := tab.Dispatch(&f)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if handled {
		t.Fatalf("expected unhandled for unregistered id")
	}
}

func TestFinishRemovesHandler(t *testing.T) {
	tab := NewTable(true)
	h := &fakeHandler{}
	tab.Register(11, h)
	tab.Finish(11)

	if err := tab.AssertAvailable(11); err != nil {
		t.Fatalf("expected id free after Finish: %v", err)
	}
	if tab.Len() != 0 {
		t.Fatalf("Len = %d, want 0", tab.Len())
	}
}
