package sdp

import (
	"bytes"
	"testing"
)

func TestPushPopUintRoundTrip(t *testing.T) {
	cases := []struct {
		v     uint64
		width int
	}{
		{0, 1}, {0xFF, 1},
		{0x1234, 2},
		{0x12345678, 4},
		{0x0102030405060708, 8},
	}

	for _, tt := range cases {
		w := NewWriter()
		if err := w.PushElement(NewUint(tt.v, tt.width)); err != nil {
			t.Fatalf("PushElement(Uint %d/%d): %v", tt.v, tt.width, err)
		}

		r := NewReader(w.Bytes())
		e, err := r.PopElement()
		if err != nil {
			t.Fatalf("PopElement: %v", err)
		}
		got, ok := e.Uint()
		if !ok {
			t.Fatalf("PopElement returned non-UINT for width %d", tt.width)
		}
		if got != tt.v {
			t.Errorf("uint width %d: got %d want %d", tt.width, got, tt.v)
		}
		if r.Remaining() != 0 {
			t.Errorf("uint width %d: %d bytes left over", tt.width, r.Remaining())
		}
	}
}

func TestPushPopIntSignExtension(t *testing.T) {
	cases := []struct {
		v     int64
		width int
	}{
		{-1, 1}, {-1, 2}, {-1, 4}, {-1, 8},
		{-128, 1}, {127, 1},
		{-32768, 2}, {32767, 2},
	}

	for _, tt := range cases {
		w := NewWriter()
		if err := w.PushElement(NewInt(tt.v, tt.width)); err != nil {
			t.Fatalf("PushElement(Int %d/%d): %v", tt.v, tt.width, err)
		}

		r := NewReader(w.Bytes())
		e, err := r.PopElement()
		if err != nil {
			t.Fatalf("PopElement: %v", err)
		}
		got, ok := e.Int()
		if !ok || got != tt.v {
			t.Errorf("int width %d: got %d want %d", tt.width, got, tt.v)
		}
	}
}

func TestNilWireForm(t *testing.T) {
	// Open Question (a): NIL's descriptor byte reads size index 0 but
	// carries no payload byte at all.
	w := NewWriter()
	if err := w.PushElement(NewNil()); err != nil {
		t.Fatalf("PushElement(Nil): %v", err)
	}
	if got := w.Bytes(); !bytes.Equal(got, []byte{0x00}) {
		t.Errorf("NIL wire form: got % X want 00", got)
	}

	r := NewReader(w.Bytes())
	e, err := r.PopElement()
	if err != nil {
		t.Fatalf("PopElement(Nil): %v", err)
	}
	if e.Type() != TypeNil {
		t.Errorf("PopElement(Nil): got type 0x%02x want TypeNil", e.Type())
	}
	if r.Remaining() != 0 {
		t.Errorf("NIL left %d bytes unread", r.Remaining())
	}
}

// TestSequenceOfTwoUUIDs is scenario S1: a SEQ of the two 16-bit UUIDs
// 0x110A and 0x110B encodes to 35 06 19 11 0A 19 11 0B.
func TestSequenceOfTwoUUIDs(t *testing.T) {
	w := NewWriter()
	err := w.PushSequence(func(sub *Writer) error {
		if err := sub.PushElement(NewUUID(UUID16(0x110A))); err != nil {
			return err
		}
		return sub.PushElement(NewUUID(UUID16(0x110B)))
	})
	if err != nil {
		t.Fatalf("PushSequence: %v", err)
	}

	want := []byte{0x35, 0x06, 0x19, 0x11, 0x0A, 0x19, 0x11, 0x0B}
	if got := w.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("SEQ of two UUIDs: got % X want % X", got, want)
	}

	r := NewReader(w.Bytes())
	e, err := r.PopElement()
	if err != nil {
		t.Fatalf("PopElement(SEQ): %v", err)
	}
	elems, ok := e.Elements()
	if !ok || len(elems) != 2 {
		t.Fatalf("PopElement(SEQ): got %d elements, want 2", len(elems))
	}
	u0, _ := elems[0].UUID()
	u1, _ := elems[1].UUID()
	if !u0.Equal(UUID16(0x110A)) || !u1.Equal(UUID16(0x110B)) {
		t.Errorf("SEQ elements: got %s, %s", u0, u1)
	}
}

func TestPopSequenceBoundsSubReader(t *testing.T) {
	w := NewWriter()
	if err := w.PushSequence(func(sub *Writer) error {
		return sub.PushElement(NewUint(7, 1))
	}); err != nil {
		t.Fatalf("PushSequence: %v", err)
	}
	// Trailing byte after the SEQ must never be visible inside PopSequence's
	// sub-reader (§3 invariant 3).
	w.PushBytes([]byte{0xAA})

	r := NewReader(w.Bytes())
	var inner uint64
	err := r.PopSequence(func(sub *Reader) error {
		v, err := sub.PopUintDescribed()
		if err != nil {
			return err
		}
		inner = v
		if sub.Remaining() != 0 {
			t.Errorf("sub-reader has %d bytes left, want 0", sub.Remaining())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("PopSequence: %v", err)
	}
	if inner != 7 {
		t.Errorf("PopSequence inner value: got %d want 7", inner)
	}
	if r.Remaining() != 1 {
		t.Errorf("outer reader: got %d bytes remaining, want 1", r.Remaining())
	}
}

func TestTruncatedPayloadReturnsFrameError(t *testing.T) {
	// A UINT32 descriptor (0x0A = TypeUint|idx2) with only one payload
	// byte following.
	r := NewReader([]byte{0x0A, 0xFF})
	_, err := r.PopElement()
	if !IsFrameError(err) {
		t.Fatalf("PopElement on truncated payload: got %v, want a FrameError", err)
	}
	if r.Remaining() != 0 {
		t.Errorf("truncated reader: got %d bytes remaining, want 0 (advanced to end)", r.Remaining())
	}
}

func TestTextAndURLRoundTrip(t *testing.T) {
	w := NewWriter()
	if err := w.PushElement(NewText("hello")); err != nil {
		t.Fatalf("PushElement(Text): %v", err)
	}
	if err := w.PushElement(NewURL("http://example.com")); err != nil {
		t.Fatalf("PushElement(URL): %v", err)
	}

	r := NewReader(w.Bytes())
	text, err := r.PopTextDescribed()
	if err != nil || text != "hello" {
		t.Errorf("PopTextDescribed: got %q, %v; want %q, nil", text, err, "hello")
	}
	url, err := r.PopTextDescribed()
	if err != nil || url != "http://example.com" {
		t.Errorf("PopTextDescribed(url): got %q, %v", url, err)
	}
}
