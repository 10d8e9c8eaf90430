package sdp

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// InitialPayloadCapacity sizes a listener's growing reassembly buffer
// before the first frame arrives (§4.4).
const InitialPayloadCapacity = 8192

// Result is what Dispatch hands back for a consumed frame: either a
// final decoded outcome, or a continuation signal the command layer
// turns into a resend.
type Result struct {
	Status       Status
	Handles      []uint32
	Attributes   map[uint16]*DataElement
	Continuation []byte
}

// listener is the single outstanding wait for one transaction ID. The
// l2cap queue's one-in-flight invariant means a socket never needs more
// than one at a time, but the type keeps a map for symmetry with the
// teacher's dispatcher and to let tests drive several independent
// transactions without a socket.
type listener struct {
	tid     TransactionID
	reqKind PDUType
	payload []byte
}

func newListener(tid TransactionID, reqKind PDUType) *listener {
	return &listener{tid: tid, reqKind: reqKind, payload: make([]byte, 0, InitialPayloadCapacity)}
}

// Dispatcher matches inbound SDP response frames to the request that
// produced them and reassembles continuations, grounded on the
// teacher's NmpDispatcher/NmpListener pairing fused with its
// fragmentation Reassembler.
type Dispatcher struct {
	mu        sync.Mutex
	listeners map[TransactionID]*listener
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[TransactionID]*listener)}
}

// AddListener registers the transaction ID a just-sent Command expects
// its response to carry.
func (d *Dispatcher) AddListener(tid TransactionID, reqKind PDUType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[tid] = newListener(tid, reqKind)
}

// RemoveListener drops a transaction, whether because it completed,
// timed out, or was revoked.
func (d *Dispatcher) RemoveListener(tid TransactionID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.listeners, tid)
}

func (d *Dispatcher) lookup(tid TransactionID) (*listener, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.listeners[tid]
	return l, ok
}

// expectedResponseFor maps a request PDU type to the response type it
// must be answered with (§6's request/response matrix). ErrorResponse
// is always acceptable and is checked separately.
func expectedResponseFor(reqKind PDUType) PDUType {
	switch reqKind {
	case PDUServiceSearchRequest:
		return PDUServiceSearchResponse
	case PDUServiceAttributeRequest:
		return PDUServiceAttributeResponse
	case PDUServiceSearchAttributeRequest:
		return PDUServiceSearchAttributeResponse
	default:
		return PDUInvalid
	}
}

// Dispatch feeds one inbound frame through the assembler (§4.4). It
// returns (nil, false) for a frame it drops outright (malformed header,
// TID mismatch, or a response type that doesn't match the outstanding
// request) — in every dropped case the waiting listener is left
// untouched, per §3 invariant 1. A non-nil Result with
// Status == StatusPacketContinuation signals a resend; any other status
// is final and the listener has already been removed.
func (d *Dispatcher) Dispatch(frame []byte) (*Result, bool) {
	typ, tid, paramLen, err := DecodePDUHeader(frame)
	if err != nil {
		log.Warnf("sdp: dropping malformed frame: %v", err)
		return nil, false
	}

	lis, ok := d.lookup(tid)
	if !ok {
		log.Debugf("sdp: dropping out-of-order frame: tid=%d type=%s", tid, typ)
		return nil, false
	}

	body := frame[HeaderSize:]
	if int(paramLen) <= len(body) {
		body = body[:paramLen]
	}
	r := NewReader(body)

	if typ == PDUErrorResponse {
		status, err := r.PopUint(2)
		if err != nil {
			return nil, false
		}
		d.RemoveListener(tid)
		return &Result{Status: Status(status)}, true
	}

	if typ != expectedResponseFor(lis.reqKind) {
		log.Warnf("sdp: dropping mismatched response type %s for request %s", typ, lis.reqKind)
		return nil, false
	}

	switch typ {
	case PDUServiceSearchResponse:
		return d.dispatchSearchResponse(lis, r)
	case PDUServiceAttributeResponse, PDUServiceSearchAttributeResponse:
		return d.dispatchAttributeResponse(lis, r)
	default:
		return nil, false
	}
}

func popContinuation(r *Reader) ([]byte, error) {
	n, err := r.popBytes(1)
	if err != nil {
		return nil, err
	}
	if n[0] == 0 {
		return nil, nil
	}
	return r.popBytes(int(n[0]))
}

func (d *Dispatcher) dispatchSearchResponse(lis *listener, r *Reader) (*Result, bool) {
	totalCount, err := r.PopUint(2)
	if err != nil {
		return nil, false
	}
	_ = totalCount
	currentCount, err := r.PopUint(2)
	if err != nil {
		return nil, false
	}

	payload, err := r.popBytes(int(currentCount) * 4)
	if err != nil {
		d.RemoveListener(lis.tid)
		return &Result{Status: StatusDeserializationFailed}, true
	}
	lis.payload = append(lis.payload, payload...)

	cont, err := popContinuation(r)
	if err != nil {
		d.RemoveListener(lis.tid)
		return &Result{Status: StatusDeserializationFailed}, true
	}
	if len(cont) > 0 {
		return &Result{Status: StatusPacketContinuation, Continuation: cont}, true
	}

	d.RemoveListener(lis.tid)
	return &Result{Status: StatusSuccess, Handles: splitHandles(lis.payload)}, true
}

func (d *Dispatcher) dispatchAttributeResponse(lis *listener, r *Reader) (*Result, bool) {
	byteCount, err := r.PopUint(2)
	if err != nil {
		return nil, false
	}

	payload, err := r.popBytes(int(byteCount))
	if err != nil {
		d.RemoveListener(lis.tid)
		return &Result{Status: StatusDeserializationFailed}, true
	}
	lis.payload = append(lis.payload, payload...)

	cont, err := popContinuation(r)
	if err != nil {
		d.RemoveListener(lis.tid)
		return &Result{Status: StatusDeserializationFailed}, true
	}
	if len(cont) > 0 {
		return &Result{Status: StatusPacketContinuation, Continuation: cont}, true
	}

	attrs, err := parseAttributePairs(lis.payload)
	d.RemoveListener(lis.tid)
	if err != nil {
		return &Result{Status: StatusDeserializationFailed}, true
	}
	return &Result{Status: StatusSuccess, Attributes: attrs}, true
}

func splitHandles(payload []byte) []uint32 {
	handles := make([]uint32, 0, len(payload)/4)
	for i := 0; i+4 <= len(payload); i += 4 {
		handles = append(handles, uint32(decodeUint(payload[i:i+4])))
	}
	return handles
}

// parseAttributePairs reads the reassembled attribute payload as a
// top-level SEQ of alternating {attribute_id, value} elements, keeping
// the first value seen for a duplicate ID (§3 invariant 5).
func parseAttributePairs(payload []byte) (map[uint16]*DataElement, error) {
	attrs := make(map[uint16]*DataElement)
	r := NewReader(payload)

	err := r.PopSequence(func(sub *Reader) error {
		for sub.Remaining() > 0 {
			idElem, err := sub.PopElement()
			if err != nil {
				return err
			}
			id, ok := idElem.Uint()
			if !ok {
				return FmtFrameError("sdp: attribute id has wrong element type 0x%02x", idElem.Type())
			}

			val, err := sub.PopElement()
			if err != nil {
				return err
			}

			if _, exists := attrs[uint16(id)]; !exists {
				attrs[uint16(id)] = val
			}
		}
		return nil
	})

	return attrs, err
}
