package a2dp

import (
	"testing"

	"github.com/steveford-obs/btsdp/discover"
	"github.com/steveford-obs/btsdp/sdp"
)

// buildService assembles a discover.Service with the attribute shape a
// completed ServiceAttributeResponse would produce for an A2DP record
// (scenario S5): a class, an AdvancedAudioDistribution profile
// descriptor, AVDTP/L2CAP protocol descriptors, and an optional
// SupportedFeatures attribute. discover.Service's fields are exported
// specifically so a caller — or a test in another package — can build
// one directly without going through a live Driver.
func buildService(class sdp.UUID, profileVersion, transportVersion, psm uint16, features uint64) *discover.Service {
	svc := discover.NewService(0x10000)
	svc.Classes = []sdp.UUID{class}
	svc.Profiles = []discover.ProfileDescriptor{
		{UUID: sdp.UUIDAdvancedAudioDistribution, Version: profileVersion},
	}
	svc.Protocols = []discover.ProtocolDescriptor{
		{UUID: sdp.UUIDL2CAP, Params: sdp.NewUint(uint64(psm), 2)},
		{UUID: sdp.UUIDAVDTP, Params: sdp.NewUint(uint64(transportVersion), 2)},
	}
	svc.Attributes[sdp.AttrSupportedFeatures] = sdp.NewUint(features, 2)
	return svc
}

func TestInterpretSinkProfile(t *testing.T) {
	// Headphone (bit0) | Speaker (bit1) on the wire nibble.
	svc := buildService(sdp.UUIDAudioSink, 0x0103, 0x0103, 0x0019, 0x03)

	p, err := Interpret(svc)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if p.Type != Sink {
		t.Errorf("Type: got %v want Sink", p.Type)
	}
	if p.ProfileVersion != 0x0103 {
		t.Errorf("ProfileVersion: got %#x want 0x0103", p.ProfileVersion)
	}
	if p.TransportVersion != 0x0103 {
		t.Errorf("TransportVersion: got %#x want 0x0103", p.TransportVersion)
	}
	if p.PSM != 0x0019 {
		t.Errorf("PSM: got %#x want 0x0019", p.PSM)
	}
	if !p.Features.Has(Headphone) || !p.Features.Has(Speaker) {
		t.Errorf("Features: got %#02x, want Headphone|Speaker set", p.Features)
	}
	if p.Features.Has(Recorder) {
		t.Errorf("Features: got %#02x, Recorder should not be set", p.Features)
	}
}

func TestInterpretSourceShiftsFeatureNibble(t *testing.T) {
	// Player (bit0 on the wire) must land in the Source-shifted high
	// nibble, not collide with the Sink bit of the same wire position.
	svc := buildService(sdp.UUIDAudioSource, 0x0103, 0x0103, 0x0019, 0x01)

	p, err := Interpret(svc)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if p.Type != Source {
		t.Errorf("Type: got %v want Source", p.Type)
	}
	if !p.Features.Has(Player) {
		t.Errorf("Features: got %#02x, want the wire nibble shifted into Player (bit 4)", p.Features)
	}
	if p.Features.Has(Headphone) {
		t.Errorf("Features: got %#02x, Headphone (a Sink bit) should not be set for a Source", p.Features)
	}
}

func TestInterpretProtocolParamsAsBareUint(t *testing.T) {
	// firstUint must also accept a bare UINT param, not just a one-element
	// SEQ wrapping one — some records encode it either way.
	svc := discover.NewService(0x10001)
	svc.Classes = []sdp.UUID{sdp.UUIDAudioSink}
	svc.Profiles = []discover.ProfileDescriptor{
		{UUID: sdp.UUIDAdvancedAudioDistribution, Version: 0x0102},
	}
	svc.Protocols = []discover.ProtocolDescriptor{
		{UUID: sdp.UUIDL2CAP, Params: sdp.NewSequence(sdp.NewUint(0x0019, 2))},
		{UUID: sdp.UUIDAVDTP, Params: sdp.NewUint(0x0102, 2)},
	}

	p, err := Interpret(svc)
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if p.PSM != 0x0019 {
		t.Errorf("PSM from wrapped SEQ param: got %#x want 0x0019", p.PSM)
	}
	if p.TransportVersion != 0x0102 {
		t.Errorf("TransportVersion from bare UINT param: got %#x want 0x0102", p.TransportVersion)
	}
}

func TestInterpretMissingProfileDescriptorFails(t *testing.T) {
	svc := discover.NewService(0x10000)
	if _, err := Interpret(svc); !sdp.IsEncodingError(err) {
		t.Errorf("Interpret with no profile descriptor: got %v, want an EncodingError", err)
	}
}

func TestInterpretMissingProtocolDescriptorFails(t *testing.T) {
	svc := discover.NewService(0x10000)
	svc.Profiles = []discover.ProfileDescriptor{
		{UUID: sdp.UUIDAdvancedAudioDistribution, Version: 0x0103},
	}
	if _, err := Interpret(svc); !sdp.IsEncodingError(err) {
		t.Errorf("Interpret with no protocol descriptors: got %v, want an EncodingError", err)
	}
}
