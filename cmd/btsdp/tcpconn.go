package main

import (
	"fmt"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/steveford-obs/btsdp/l2cap"
)

// tcpMTU is arbitrary: a real L2CAP connection negotiates its MTU during
// channel configuration, a step this byte-stream stand-in has no
// equivalent for.
const tcpMTU = 1024

// tcpConn implements l2cap.Conn over a plain TCP socket. The real L2CAP
// kernel interface PSM 0x0001 binds to is out of this module's scope
// (spec §1's explicit external collaborator); this is a byte-stream
// stand-in so `btsdp discover` has something to run against during
// local testing, grounded on nmxact/tcp's TcpSesn: dial, spawn a read
// loop that feeds inbound bytes to a dispatcher, close on read error.
type tcpConn struct {
	conn  net.Conn
	ready chan struct{}

	mu      sync.Mutex
	onFrame func(b []byte)
}

// dialTCP opens a tcpConn to addr ("host:port") and starts its read
// loop. Frames are delivered as whole reads off the socket — this
// stand-in carries no length-prefix framing of its own, so a peer on
// the other end must write one SDP PDU or AVDTP frame per TCP write.
func dialTCP(addr string) (*tcpConn, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("btsdp: dialing %s: %w", addr, err)
	}

	t := &tcpConn{conn: c, ready: make(chan struct{})}
	t.listen()
	close(t.ready)
	return t, nil
}

func (t *tcpConn) listen() {
	go func() {
		b := make([]byte, 4096)
		for {
			n, err := t.conn.Read(b)
			if err != nil {
				log.Debugf("btsdp: tcp read loop exiting: %v", err)
				return
			}

			t.mu.Lock()
			fn := t.onFrame
			t.mu.Unlock()

			if fn != nil {
				frame := make([]byte, n)
				copy(frame, b[:n])
				fn(frame)
			}
		}
	}()
}

// OnFrame registers the callback invoked for each inbound read. Not
// part of l2cap.Conn; the caller wires it to Socket.Dispatch after
// dialing.
func (t *tcpConn) OnFrame(fn func(b []byte)) {
	t.mu.Lock()
	t.onFrame = fn
	t.mu.Unlock()
}

func (t *tcpConn) Send(b []byte) error {
	_, err := t.conn.Write(b)
	return err
}

func (t *tcpConn) Ready() <-chan struct{} { return t.ready }

func (t *tcpConn) MTU() int { return tcpMTU }

func (t *tcpConn) Close() error { return t.conn.Close() }

var _ l2cap.Conn = (*tcpConn)(nil)
