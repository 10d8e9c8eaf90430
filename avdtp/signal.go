// Package avdtp supplies just enough of the Audio/Video Distribution
// Transport Protocol signaling envelope for a caller to open a control
// channel after SDP has located the AVDTP PSM — the shared-contract
// slice of AVDTP that spec §1 keeps in scope, grounded on the teacher's
// nmxact/omp and nmxact/oic packages, which each wrap the same
// transceiver/queue machinery for their own lighter wire format.
// Segmentation of parameter blocks larger than one packet
// (Start/Continue/End) is out of scope.
package avdtp

import (
	"time"

	"github.com/steveford-obs/btsdp/btutil"
	"github.com/steveford-obs/btsdp/l2cap"
)

// PacketType is the 2-bit packet_type field of the signaling header.
type PacketType uint8

const (
	PacketSingle   PacketType = 0
	PacketStart    PacketType = 1
	PacketContinue PacketType = 2
	PacketEnd      PacketType = 3
)

// MessageType is the 2-bit message_type field of the signaling header.
type MessageType uint8

const (
	MsgCommand        MessageType = 0
	MsgGeneralReject  MessageType = 1
	MsgResponseAccept MessageType = 2
	MsgResponseReject MessageType = 3
)

// Header is the AVDTP signaling header's label:4 | packet_type:2 |
// message_type:2 byte layout (spec §6).
type Header struct {
	Label       uint8
	PacketType  PacketType
	MessageType MessageType
}

// Encode packs Header into its single wire byte.
func (h Header) Encode() byte {
	return (h.Label&0x0F)<<4 | (byte(h.PacketType)&0x03)<<2 | byte(h.MessageType)&0x03
}

// DecodeHeader unpacks a wire byte into a Header.
func DecodeHeader(b byte) Header {
	return Header{
		Label:       (b >> 4) & 0x0F,
		PacketType:  PacketType((b >> 2) & 0x03),
		MessageType: MessageType(b & 0x03),
	}
}

// SignalID identifies an AVDTP signaling procedure.
type SignalID uint8

const (
	Discover           SignalID = 0x01
	GetCapabilities    SignalID = 0x02
	SetConfiguration   SignalID = 0x03
	GetConfiguration   SignalID = 0x04
	Reconfigure        SignalID = 0x05
	Open               SignalID = 0x06
	Start              SignalID = 0x07
	Close              SignalID = 0x08
	Suspend            SignalID = 0x09
	Abort              SignalID = 0x0A
	SecurityControl    SignalID = 0x0B
	GetAllCapabilities SignalID = 0x0C
	DelayReport        SignalID = 0x0D
)

// Socket issues AVDTP signaling commands over an existing SDP l2cap
// Socket's transport and queue discipline.
type Socket struct {
	sock   *l2cap.Socket
	labels *btutil.Seq
}

// NewSocket wraps sock for AVDTP signaling. sock is typically the same
// Socket a Driver already used for SDP discovery on this connection.
func NewSocket(sock *l2cap.Socket) *Socket {
	return &Socket{sock: sock, labels: btutil.NewSeq(1, 16)}
}

// NextLabel returns the next transaction label, cycling 1..15 and
// skipping 0 (§4.8), grounded on nmxact/nmxutil.NextSeq's per-instance
// counter pattern — never a package-level global.
func (s *Socket) NextLabel() uint8 { return uint8(s.labels.Next()) }

// Command builds a Single-packet AVDTP command frame for sig with the
// given signal-specific parameters.
func (s *Socket) Command(sig SignalID, params []byte) *l2cap.RawCommand {
	hdr := Header{Label: s.NextLabel(), PacketType: PacketSingle, MessageType: MsgCommand}

	buf := make([]byte, 0, 2+len(params))
	buf = append(buf, hdr.Encode(), byte(sig))
	buf = append(buf, params...)

	return l2cap.NewRawCommand(buf)
}

// Execute sends cmd through the underlying socket's raw queue.
func (s *Socket) Execute(wait time.Duration, cmd *l2cap.RawCommand, handler func(err error)) error {
	return s.sock.SendRaw(wait, cmd, handler)
}

// CompleteSignal completes the currently outstanding command once the
// caller's reactor has matched an inbound frame's label against it.
func (s *Socket) CompleteSignal(err error) {
	s.sock.CompleteRaw(err)
}
