package l2cap

import (
	"sync"
	"time"

	"github.com/steveford-obs/btsdp/sdp"
)

// RawCommand is a pre-built frame with no SDP transaction-ID or
// continuation structure — the shape AVDTP's signaling envelope needs
// when it shares this package's one-in-flight queue discipline without
// sharing SDP's PDU framing (§4.8).
type RawCommand struct {
	bytes []byte
}

// NewRawCommand wraps an already-encoded frame.
func NewRawCommand(b []byte) *RawCommand { return &RawCommand{bytes: b} }

// Bytes returns the frame to send.
func (r *RawCommand) Bytes() []byte { return r.bytes }

type rawEntry struct {
	cmd     *RawCommand
	wait    time.Duration
	handler func(err error)
	timer   *time.Timer
}

// rawQueue is RawCommand's own one-in-flight FIFO. It mirrors Queue's
// send/timeout/advance mechanics but, lacking any response-correlation
// scheme of its own, relies on the caller's reactor to report
// completion explicitly via CompleteHead once it recognizes the
// matching reply (e.g. by AVDTP transaction label).
type rawQueue struct {
	mu      sync.Mutex
	conn    Conn
	entries []*rawEntry
}

func newRawQueue(conn Conn) *rawQueue { return &rawQueue{conn: conn} }

func (q *rawQueue) Execute(wait time.Duration, cmd *RawCommand, handler func(err error)) error {
	q.mu.Lock()
	e := &rawEntry{cmd: cmd, wait: wait, handler: handler}
	wasEmpty := len(q.entries) == 0
	q.entries = append(q.entries, e)
	if wasEmpty {
		q.sendHead()
	}
	q.mu.Unlock()
	return nil
}

func (q *rawQueue) sendHead() {
	head := q.entries[0]
	if err := q.conn.Send(head.cmd.Bytes()); err != nil {
		q.completeLocked(head, sdp.NewTransportError(err.Error()))
		return
	}
	head.timer = time.AfterFunc(head.wait, func() { q.onTimeout(head) })
}

func (q *rawQueue) onTimeout(e *rawEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 || q.entries[0] != e {
		return
	}
	q.completeLocked(e, sdp.NewTimeoutError("l2cap: raw command timed out"))
}

// CompleteHead completes whatever RawCommand currently sits at the
// head, pops it, and sends the new head if any.
func (q *rawQueue) CompleteHead(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return
	}
	q.completeLocked(q.entries[0], err)
}

func (q *rawQueue) completeLocked(e *rawEntry, err error) {
	if e.timer != nil {
		e.timer.Stop()
	}
	if len(q.entries) > 0 && q.entries[0] == e {
		q.entries = q.entries[1:]
	}
	if e.handler != nil {
		e.handler(err)
	}
	if len(q.entries) > 0 {
		q.sendHead()
	}
}
