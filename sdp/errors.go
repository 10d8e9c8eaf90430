package sdp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Status is the 16-bit result code carried on a completed Command. It
// covers the wire-level SDP error codes (§6) plus the internal synthetic
// codes the core adds on top.
type Status uint16

const (
	StatusSuccess                   Status = 0
	StatusUnsupportedSdpVersion     Status = 1
	StatusInvalidServiceRecordHdl   Status = 2
	StatusInvalidRequestSyntax      Status = 3
	StatusInvalidPduSize            Status = 4
	StatusInvalidContinuationState  Status = 5
	StatusInsufficientResources     Status = 6
	StatusDeserializationFailed     Status = 0xF000
	StatusPacketContinuation        Status = 0xF001
	StatusTimedOut                  Status = 0xF002
	StatusReserved                  Status = 0x00FF
)

var statusNames = map[Status]string{
	StatusSuccess:                  "Success",
	StatusUnsupportedSdpVersion:    "UnsupportedSdpVersion",
	StatusInvalidServiceRecordHdl:  "InvalidServiceRecordHandle",
	StatusInvalidRequestSyntax:     "InvalidRequestSyntax",
	StatusInvalidPduSize:           "InvalidPduSize",
	StatusInvalidContinuationState: "InvalidContinuationState",
	StatusInsufficientResources:    "InsufficientResources",
	StatusDeserializationFailed:    "DeserializationFailed",
	StatusPacketContinuation:       "PacketContinuation",
	StatusTimedOut:                 "TimedOut",
	StatusReserved:                 "Reserved",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", uint16(s))
}

// ProtocolError represents a peer ErrorResponse; Status carries the
// 16-bit SDP error code.
type ProtocolError struct {
	Text   string
	Status Status
}

func NewProtocolError(status Status) *ProtocolError {
	return &ProtocolError{Text: fmt.Sprintf("sdp: peer error: %s", status), Status: status}
}

func (e *ProtocolError) Error() string { return e.Text }

func IsProtocolError(err error) bool {
	_, ok := errors.Cause(err).(*ProtocolError)
	return ok
}

// EncodingError represents a caller precondition failure: an invalid size
// for a Data Element type, or an oversized UUID/range list. Fatal; aborts
// the request that triggered it.
type EncodingError struct {
	Text string
}

func NewEncodingError(text string) *EncodingError {
	return &EncodingError{Text: text}
}

func FmtEncodingError(format string, args ...interface{}) *EncodingError {
	return NewEncodingError(fmt.Sprintf(format, args...))
}

func (e *EncodingError) Error() string { return e.Text }

func IsEncodingError(err error) bool {
	_, ok := errors.Cause(err).(*EncodingError)
	return ok
}

// FrameError represents a malformed header, a transaction ID mismatch, a
// truncated payload, or an unexpected descriptor on the wire.
type FrameError struct {
	Text string
}

func NewFrameError(text string) *FrameError {
	return &FrameError{Text: text}
}

func FmtFrameError(format string, args ...interface{}) *FrameError {
	return NewFrameError(fmt.Sprintf(format, args...))
}

func (e *FrameError) Error() string { return e.Text }

func IsFrameError(err error) bool {
	_, ok := errors.Cause(err).(*FrameError)
	return ok
}

// TimeoutError represents a deadline that elapsed while waiting for a
// response.
type TimeoutError struct {
	Text string
}

func NewTimeoutError(text string) *TimeoutError {
	return &TimeoutError{Text: text}
}

func (e *TimeoutError) Error() string { return e.Text }

func IsTimeoutError(err error) bool {
	_, ok := errors.Cause(err).(*TimeoutError)
	return ok
}

// TransportError represents a closed socket or a failed send at the
// boundary Conn.
type TransportError struct {
	Text string
}

func NewTransportError(text string) *TransportError {
	return &TransportError{Text: text}
}

func FmtTransportError(format string, args ...interface{}) *TransportError {
	return NewTransportError(fmt.Sprintf(format, args...))
}

func (e *TransportError) Error() string { return e.Text }

func IsTransportError(err error) bool {
	_, ok := errors.Cause(err).(*TransportError)
	return ok
}
