package l2cap

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/steveford-obs/btsdp/sdp"
)

// Handler receives the outcome of a Command once it leaves the head of
// the queue: a final Result, or a non-nil error (timeout, transport
// failure, or encoding failure while re-finalizing a continuation).
type Handler func(cmd *sdp.Command, result *sdp.Result, err error)

// entry is one FIFO slot: a submitted Command, the timeout the caller
// asked for, and the handler to run on completion (§4.5).
type entry struct {
	cmd     *sdp.Command
	wait    time.Duration
	handler Handler
	timer   *time.Timer
}

// Queue is a FIFO of commands bound to a single L2CAP socket; at most
// one command is ever "sent" at a time (§4.5, §3 invariant 2). Grounded
// on nmxact/xact's CmdBase/txReq one-command-in-flight pattern,
// generalized to an explicit FIFO matching paypal-gatt's
// cmd.go sent []*cmdPkt/processCmdEvents mechanics.
type Queue struct {
	mu         sync.Mutex
	conn       Conn
	entries    []*entry
	dispatcher *sdp.Dispatcher
}

func newQueue(conn Conn) *Queue {
	return &Queue{conn: conn, dispatcher: sdp.NewDispatcher()}
}

// Execute enqueues cmd. If the queue was empty, the calling goroutine
// sends it immediately; otherwise it only enqueues — per §4.5, "the
// second caller only enqueues, it does not restart the send pump."
func (q *Queue) Execute(wait time.Duration, cmd *sdp.Command, handler Handler) error {
	if !cmd.PDU.Valid() {
		return sdp.NewEncodingError("l2cap: command PDU is not valid")
	}

	q.mu.Lock()
	e := &entry{cmd: cmd, wait: wait, handler: handler}
	wasEmpty := len(q.entries) == 0
	q.entries = append(q.entries, e)
	if wasEmpty {
		q.sendHead()
	}
	q.mu.Unlock()

	return nil
}

// Revoke removes cmd from the queue before it is sent. Revoking the
// current head is rejected outright rather than recursing into the
// queue's own completion path.
func (q *Queue) Revoke(cmd *sdp.Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return sdp.NewEncodingError("l2cap: queue is empty")
	}
	if q.entries[0].cmd == cmd {
		return sdp.NewEncodingError("l2cap: cannot revoke head of queue")
	}

	for i := 1; i < len(q.entries); i++ {
		if q.entries[i].cmd == cmd {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return nil
		}
	}

	return sdp.NewEncodingError("l2cap: command not found in queue")
}

// Dispatch feeds one inbound frame to the response assembler and
// advances the queue: a continuation reply triggers a re-finalize and
// resend of the head's PDU; a final reply completes the head.
func (q *Queue) Dispatch(frame []byte) {
	result, consumed := q.dispatcher.Dispatch(frame)
	if !consumed {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return
	}
	head := q.entries[0]

	if result.Status == sdp.StatusPacketContinuation {
		q.resendLocked(head, result.Continuation)
		return
	}

	q.completeLocked(head, result, nil)
}

// resendLocked re-finalizes the head's PDU with the server's
// continuation bytes and sends it again under the same transaction
// sequence, preserving request order (§3 invariant 4).
func (q *Queue) resendLocked(e *entry, cont []byte) {
	if e.timer != nil {
		e.timer.Stop()
	}

	if err := e.cmd.PDU.Finalize(cont); err != nil {
		q.completeLocked(e, nil, err)
		return
	}

	q.dispatcher.AddListener(e.cmd.PDU.TID(), e.cmd.Kind)
	if err := q.conn.Send(e.cmd.PDU.Bytes()); err != nil {
		q.completeLocked(e, nil, sdp.NewTransportError(err.Error()))
		return
	}
	e.timer = time.AfterFunc(e.wait, func() { q.onTimeout(e) })
}

// sendHead sends the current head's PDU for the first time. Must be
// called with q.mu held.
func (q *Queue) sendHead() {
	head := q.entries[0]

	q.dispatcher.AddListener(head.cmd.PDU.TID(), head.cmd.Kind)
	if err := q.conn.Send(head.cmd.PDU.Bytes()); err != nil {
		q.completeLocked(head, nil, sdp.NewTransportError(err.Error()))
		return
	}
	head.timer = time.AfterFunc(head.wait, func() { q.onTimeout(head) })
}

func (q *Queue) onTimeout(e *entry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 || q.entries[0] != e {
		// Already completed by a late-arriving frame; nothing to do.
		return
	}
	q.dispatcher.RemoveListener(e.cmd.PDU.TID())
	q.completeLocked(e, nil, sdp.NewTimeoutError("l2cap: command timed out"))
}

// completeLocked is §4.5's complete(c, status): it asserts e is the
// head, pops it, runs the handler with the mutex held, then sends the
// new head if the queue is still non-empty. Must be called with q.mu
// held.
func (q *Queue) completeLocked(e *entry, result *sdp.Result, err error) {
	assertHead(q, e)

	if e.timer != nil {
		e.timer.Stop()
	}
	if len(q.entries) > 0 && q.entries[0] == e {
		q.entries = q.entries[1:]
	}

	if e.handler != nil {
		e.handler(e.cmd, result, err)
	} else {
		log.Debugf("l2cap: command completed with no handler: status=%v err=%v", result, err)
	}

	if len(q.entries) > 0 {
		q.sendHead()
	}
}
