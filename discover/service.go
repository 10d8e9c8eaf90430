// Package discover builds Service records from SDP responses and
// orchestrates the ServiceSearch → ServiceAttribute query sequence.
package discover

import (
	"github.com/steveford-obs/btsdp/sdp"
)

// ProfileDescriptor is a {UUID, version} pair from a
// BluetoothProfileDescriptorList attribute (§3, §4.6).
type ProfileDescriptor struct {
	UUID    sdp.UUID
	Version uint16
}

// ProtocolDescriptor is a {UUID, params} pair from a
// ProtocolDescriptorList attribute. Params is kept as the verbatim
// Data Element sub-record for later interpretation (§3, §4.6) — the
// A2DP interpreter reads L2CAP's PSM and AVDTP's version straight out
// of it.
type ProtocolDescriptor struct {
	UUID   sdp.UUID
	Params *sdp.DataElement
}

// Service is built incrementally from a ServiceSearch handle by
// repeated applyAttribute calls, then frozen once the driver has
// applied the ServiceAttributeResponse of every service in the
// discovery (§3 "Lifecycles").
type Service struct {
	Handle     uint32
	Classes    []sdp.UUID
	Profiles   []ProfileDescriptor
	Protocols  []ProtocolDescriptor
	Attributes map[uint16]*sdp.DataElement

	frozen bool
}

// NewService creates a Service for a handle returned by ServiceSearch.
func NewService(handle uint32) *Service {
	return &Service{Handle: handle, Attributes: make(map[uint16]*sdp.DataElement)}
}

// HasClass reports whether the service advertises class uuid.
func (s *Service) HasClass(uuid sdp.UUID) bool {
	for _, c := range s.Classes {
		if c.Equal(uuid) {
			return true
		}
	}
	return false
}

// Profile returns the profile descriptor for uuid, if present.
func (s *Service) Profile(uuid sdp.UUID) (ProfileDescriptor, bool) {
	for _, p := range s.Profiles {
		if p.UUID.Equal(uuid) {
			return p, true
		}
	}
	return ProfileDescriptor{}, false
}

// Protocol returns the protocol descriptor for uuid, if present.
func (s *Service) Protocol(uuid sdp.UUID) (ProtocolDescriptor, bool) {
	for _, p := range s.Protocols {
		if p.UUID.Equal(uuid) {
			return p, true
		}
	}
	return ProtocolDescriptor{}, false
}

// Attribute returns the raw Data Element stored for an attribute ID
// that isn't one of the specially-interpreted ones below.
func (s *Service) Attribute(id uint16) (*sdp.DataElement, bool) {
	v, ok := s.Attributes[id]
	return v, ok
}

// applyAttribute folds one decoded {id, value} pair into the service,
// per §4.6's per-ID rules. Called by Driver once per attribute in a
// ServiceAttributeResponse; never exported because a caller outside the
// driver has no business mutating a Service's attribute set directly.
func (s *Service) applyAttribute(id uint16, val *sdp.DataElement) {
	assertMutable(s)

	switch id {
	case sdp.AttrServiceRecordHandle:
		if v, ok := val.Uint(); ok {
			s.Handle = uint32(v)
		}

	case sdp.AttrServiceClassIDList:
		if elems, ok := val.Elements(); ok {
			for _, e := range elems {
				if u, ok := e.UUID(); ok {
					s.Classes = append(s.Classes, u)
				}
			}
		}

	case sdp.AttrBluetoothProfileDescriptorList:
		if elems, ok := val.Elements(); ok {
			for _, e := range elems {
				sub, ok := e.Elements()
				if !ok || len(sub) < 2 {
					continue
				}
				u, _ := sub[0].UUID()
				v, _ := sub[1].Uint()
				s.Profiles = append(s.Profiles, ProfileDescriptor{UUID: u, Version: uint16(v)})
			}
		}

	case sdp.AttrProtocolDescriptorList:
		if elems, ok := val.Elements(); ok {
			for _, e := range elems {
				sub, ok := e.Elements()
				if !ok || len(sub) < 1 {
					continue
				}
				u, _ := sub[0].UUID()
				var params *sdp.DataElement
				if len(sub) >= 2 {
					params = sub[1]
				}
				s.Protocols = append(s.Protocols, ProtocolDescriptor{UUID: u, Params: params})
			}
		}

	default:
		if _, exists := s.Attributes[id]; !exists {
			s.Attributes[id] = val
		}
	}
}

// freeze marks the service immutable. Called exactly once by the
// driver, for all services of a discovery together, after the last
// ServiceAttributeResponse has been applied.
func (s *Service) freeze() { s.frozen = true }
