// Package a2dp interprets a completed discover.Service that conforms to
// the Advanced Audio Distribution Profile, extracting the fields a
// caller needs to open an AVDTP session (§4.7).
package a2dp

import (
	"github.com/steveford-obs/btsdp/discover"
	"github.com/steveford-obs/btsdp/sdp"
)

// Role is a service's A2DP endpoint role.
type Role uint8

const (
	Sink Role = iota
	Source
)

var roleNames = map[Role]string{
	Sink:   "Sink",
	Source: "Source",
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "Unknown"
}

// MarshalJSON renders the Role by name rather than its ordinal,
// matching the enum idiom bledefs.go uses for its wire-level constants.
func (r Role) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// FeatureSet is the normalized bitfield extracted from attribute
// 0x0311. Sink bits occupy the low nibble as received on the wire;
// Source bits are the same nibble shifted left by 4 to share one
// bitfield type regardless of role (§4.7).
type FeatureSet uint8

const (
	Headphone FeatureSet = 1 << 0
	Speaker   FeatureSet = 1 << 1
	Recorder  FeatureSet = 1 << 2
	Amplifier FeatureSet = 1 << 3

	Player     FeatureSet = 1 << 4
	Microphone FeatureSet = 1 << 5
	Tuner      FeatureSet = 1 << 6
	Mixer      FeatureSet = 1 << 7
)

// Has reports whether every bit in want is set.
func (f FeatureSet) Has(want FeatureSet) bool { return f&want == want }

// Profile is the result of interpreting an A2DP service record.
type Profile struct {
	Type             Role
	ProfileVersion   uint16
	TransportVersion uint16
	PSM              uint16
	Features         FeatureSet
}

// Interpret extracts A2DP fields from a completed service record. svc
// must conform to the AdvancedAudioDistribution profile (§4.7); callers
// are expected to have checked discover.Service.Profile for that UUID
// before calling, but Interpret re-derives Type/PSM/versions from the
// same descriptor lists regardless.
func Interpret(svc *discover.Service) (*Profile, error) {
	p := &Profile{Type: Source}
	if svc.HasClass(sdp.UUIDAudioSink) {
		p.Type = Sink
	}

	if pd, ok := svc.Profile(sdp.UUIDAdvancedAudioDistribution); ok {
		p.ProfileVersion = pd.Version
	} else {
		return nil, sdp.NewEncodingError("a2dp: service has no AdvancedAudioDistribution profile descriptor")
	}

	if proto, ok := svc.Protocol(sdp.UUIDAVDTP); ok {
		v, err := firstUint(proto.Params)
		if err != nil {
			return nil, err
		}
		p.TransportVersion = uint16(v)
	} else {
		return nil, sdp.NewEncodingError("a2dp: service has no AVDTP protocol descriptor")
	}

	if proto, ok := svc.Protocol(sdp.UUIDL2CAP); ok {
		v, err := firstUint(proto.Params)
		if err != nil {
			return nil, err
		}
		p.PSM = uint16(v)
	} else {
		return nil, sdp.NewEncodingError("a2dp: service has no L2CAP protocol descriptor")
	}

	if attr, ok := svc.Attribute(sdp.AttrSupportedFeatures); ok {
		v, ok := attr.Uint()
		if ok {
			nibble := FeatureSet(v & 0x0F)
			if p.Type == Source {
				nibble <<= 4
			}
			p.Features = nibble
		}
	}

	return p, nil
}

// firstUint reads the leading UINT element out of a protocol
// descriptor's params sub-record — the shape every AVDTP/L2CAP
// protocol descriptor's version/PSM parameter takes (a one-element SEQ
// wrapping a UINT, or occasionally the bare UINT itself).
func firstUint(params *sdp.DataElement) (uint64, error) {
	if params == nil {
		return 0, sdp.NewEncodingError("a2dp: protocol descriptor has no parameters")
	}
	if v, ok := params.Uint(); ok {
		return v, nil
	}
	if elems, ok := params.Elements(); ok && len(elems) > 0 {
		if v, ok := elems[0].Uint(); ok {
			return v, nil
		}
	}
	return 0, sdp.NewEncodingError("a2dp: protocol descriptor parameters have no UINT value")
}
