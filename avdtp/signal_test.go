package avdtp

import (
	"sync"
	"testing"
	"time"

	"github.com/steveford-obs/btsdp/l2cap"
)

type fakeConn struct {
	mu   sync.Mutex
	sent [][]byte
}

func (c *fakeConn) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(b))
	copy(cp, b)
	c.sent = append(c.sent, cp)
	return nil
}

func (c *fakeConn) Ready() <-chan struct{} { return make(chan struct{}) }
func (c *fakeConn) MTU() int               { return 1024 }

func (c *fakeConn) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *fakeConn) lastFrame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent[len(c.sent)-1]
}

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Header{
		{Label: 1, PacketType: PacketSingle, MessageType: MsgCommand},
		{Label: 15, PacketType: PacketEnd, MessageType: MsgResponseReject},
		{Label: 7, PacketType: PacketStart, MessageType: MsgResponseAccept},
	}
	for _, h := range cases {
		got := DecodeHeader(h.Encode())
		if got != h {
			t.Errorf("Encode/Decode round trip: got %+v want %+v", got, h)
		}
	}
}

func TestNextLabelCyclesSkippingZero(t *testing.T) {
	s := NewSocket(l2cap.NewSocket(&fakeConn{}))
	seen := make(map[uint8]bool)
	for i := 0; i < 15; i++ {
		l := s.NextLabel()
		if l == 0 {
			t.Error("NextLabel returned 0, which §4.8 reserves")
		}
		if l > 15 {
			t.Errorf("NextLabel returned %d, out of the 1..15 range", l)
		}
		seen[l] = true
	}
	if len(seen) != 15 {
		t.Errorf("NextLabel over one full cycle produced %d distinct values, want 15", len(seen))
	}
}

func TestCommandBuildsSinglePacketCommandFrame(t *testing.T) {
	s := NewSocket(l2cap.NewSocket(&fakeConn{}))
	cmd := s.Command(GetCapabilities, []byte{0x04})

	b := cmd.Bytes()
	if len(b) != 3 {
		t.Fatalf("Command frame length: got %d want 3", len(b))
	}
	hdr := DecodeHeader(b[0])
	if hdr.PacketType != PacketSingle || hdr.MessageType != MsgCommand {
		t.Errorf("Command header: got %+v, want PacketSingle/MsgCommand", hdr)
	}
	if SignalID(b[1]) != GetCapabilities {
		t.Errorf("Command signal id: got %#x want %#x", b[1], GetCapabilities)
	}
	if b[2] != 0x04 {
		t.Errorf("Command params: got %#x want 0x04", b[2])
	}
}

func TestExecuteSendsThenCompleteSignalAdvancesQueue(t *testing.T) {
	conn := &fakeConn{}
	s := NewSocket(l2cap.NewSocket(conn))

	cmd1 := s.Command(Open, nil)
	cmd2 := s.Command(Close, nil)

	done1 := make(chan error, 1)
	if err := s.Execute(time.Second, cmd1, func(err error) { done1 <- err }); err != nil {
		t.Fatalf("Execute cmd1: %v", err)
	}
	if err := s.Execute(time.Second, cmd2, func(error) {}); err != nil {
		t.Fatalf("Execute cmd2: %v", err)
	}

	if conn.sentCount() != 1 {
		t.Fatalf("after two Executes: got %d frames sent, want 1 (only the head)", conn.sentCount())
	}

	s.CompleteSignal(nil)
	if err := <-done1; err != nil {
		t.Errorf("cmd1 completion: got err %v want nil", err)
	}

	if conn.sentCount() != 2 {
		t.Errorf("after CompleteSignal: got %d frames sent, want 2", conn.sentCount())
	}
	if SignalID(conn.lastFrame()[1]) != Close {
		t.Errorf("second frame signal id: got %#x want Close", conn.lastFrame()[1])
	}
}
