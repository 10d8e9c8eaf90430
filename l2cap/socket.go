// Package l2cap drives an SDP command queue over a caller-supplied L2CAP
// connection. It owns no sockets of its own — Conn is the sole contract
// it requires of "a sequenced-packet socket bound to PSM 0x0001" (spec
// §1's explicit external collaborator, matching the split paypal-gatt
// and JuulLabs-OSS/ble draw between the raw transport and everything
// layered above it).
package l2cap

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/steveford-obs/btsdp/sdp"
)

// Conn is the boundary interface the core requires of an L2CAP
// connection. Implementations live outside this module.
type Conn interface {
	Send(b []byte) error
	Ready() <-chan struct{}
	MTU() int
}

// OperationalFunc is invoked once a Conn's Ready channel fires, with the
// connection's negotiated MTU, so a caller can kick off its first
// discovery (§4.5's "connection-ready hook").
type OperationalFunc func(mtu int)

// Socket pairs a Conn with the one-in-flight command queue and the
// connection-ready hook. Grounded on nmxact/xport.Xport's
// boundary-interface shape and mgmt/transceiver.go's
// "on notify, dispatch" pattern.
type Socket struct {
	conn     Conn
	queue    *Queue
	rawQueue *rawQueue

	mu          sync.Mutex
	operational OperationalFunc
	watching    bool
}

// NewSocket wraps conn with a fresh, empty command queue.
func NewSocket(conn Conn) *Socket {
	return &Socket{conn: conn, queue: newQueue(conn), rawQueue: newRawQueue(conn)}
}

// Queue exposes the underlying command queue for Execute/Revoke.
func (s *Socket) Queue() *Queue { return s.queue }

// Execute is a passthrough to the underlying queue's Execute.
func (s *Socket) Execute(wait time.Duration, cmd *sdp.Command, handler Handler) error {
	return s.queue.Execute(wait, cmd, handler)
}

// Revoke is a passthrough to the underlying queue's Revoke.
func (s *Socket) Revoke(cmd *sdp.Command) error {
	return s.queue.Revoke(cmd)
}

// Dispatch feeds one inbound frame, read by the caller's own I/O
// reactor, into the queue's response assembler.
func (s *Socket) Dispatch(frame []byte) {
	s.queue.Dispatch(frame)
}

// SendRaw enqueues a RawCommand on this socket's raw, SDP-independent
// queue (§4.8). Used by the AVDTP signaling envelope, which shares this
// Socket's transport and one-in-flight discipline but not SDP's PDU
// framing or dispatcher.
func (s *Socket) SendRaw(wait time.Duration, cmd *RawCommand, handler func(err error)) error {
	return s.rawQueue.Execute(wait, cmd, handler)
}

// CompleteRaw completes the RawCommand currently at the head of the raw
// queue. The caller's reactor calls this once it has matched an inbound
// frame to the outstanding raw command by whatever means that wire
// format uses for correlation (AVDTP: transaction label).
func (s *Socket) CompleteRaw(err error) {
	s.rawQueue.CompleteHead(err)
}

// MTU reports the negotiated MTU of the underlying connection.
func (s *Socket) MTU() int { return s.conn.MTU() }

// OnOperational registers fn to run once, the first time the Conn's
// Ready channel fires. Calling it more than once replaces the previous
// registration; it does not queue multiple calls.
func (s *Socket) OnOperational(fn OperationalFunc) {
	s.mu.Lock()
	s.operational = fn
	already := s.watching
	s.watching = true
	s.mu.Unlock()

	if already {
		return
	}
	go s.watchReady()
}

func (s *Socket) watchReady() {
	<-s.conn.Ready()

	s.mu.Lock()
	fn := s.operational
	s.mu.Unlock()

	if fn == nil {
		return
	}
	log.Debugf("l2cap: connection operational, mtu=%d", s.conn.MTU())
	fn(s.conn.MTU())
}
