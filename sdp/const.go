package sdp

// PDUType identifies an SDP PDU per the request/response matrix in §6.
type PDUType uint8

const (
	PDUInvalid                        PDUType = 0x00
	PDUErrorResponse                  PDUType = 0x01
	PDUServiceSearchRequest           PDUType = 0x02
	PDUServiceSearchResponse          PDUType = 0x03
	PDUServiceAttributeRequest        PDUType = 0x04
	PDUServiceAttributeResponse       PDUType = 0x05
	PDUServiceSearchAttributeRequest  PDUType = 0x06
	PDUServiceSearchAttributeResponse PDUType = 0x07
)

var pduTypeNames = map[PDUType]string{
	PDUInvalid:                        "Invalid",
	PDUErrorResponse:                  "ErrorResponse",
	PDUServiceSearchRequest:           "ServiceSearchRequest",
	PDUServiceSearchResponse:          "ServiceSearchResponse",
	PDUServiceAttributeRequest:        "ServiceAttributeRequest",
	PDUServiceAttributeResponse:       "ServiceAttributeResponse",
	PDUServiceSearchAttributeRequest:  "ServiceSearchAttributeRequest",
	PDUServiceSearchAttributeResponse: "ServiceSearchAttributeResponse",
}

func (t PDUType) String() string {
	if n, ok := pduTypeNames[t]; ok {
		return n
	}
	return "Unknown"
}

// Well-known service record attribute IDs (§3).
const (
	AttrServiceRecordHandle           uint16 = 0x0000
	AttrServiceClassIDList            uint16 = 0x0001
	AttrServiceRecordState            uint16 = 0x0002
	AttrServiceID                     uint16 = 0x0003
	AttrProtocolDescriptorList        uint16 = 0x0004
	AttrBrowseGroupList               uint16 = 0x0005
	AttrLanguageBaseAttributeIDList   uint16 = 0x0006
	AttrServiceInfoTimeToLive         uint16 = 0x0007
	AttrServiceAvailability           uint16 = 0x0008
	AttrBluetoothProfileDescriptorList uint16 = 0x0009
	AttrDocumentationURL              uint16 = 0x000A
	AttrClientExecutableURL           uint16 = 0x000B
	AttrIconURL                       uint16 = 0x000C

	// A2DP-specific attribute (§4.7).
	AttrSupportedFeatures uint16 = 0x0311
)

// Well-known protocol/profile/service-class UUIDs referenced by the A2DP
// interpreter (§4.7). All are 16-bit short-form UUIDs.
var (
	UUIDL2CAP                        = UUID16(0x0100)
	UUIDAVDTP                        = UUID16(0x0019)
	UUIDAudioSink                    = UUID16(0x110B)
	UUIDAudioSource                  = UUID16(0x110A)
	UUIDAdvancedAudioDistribution    = UUID16(0x110D)
)

// AttrRange is an SDP attribute ID range as used by ServiceAttributeRequest
// and ServiceSearchAttributeRequest (§4.3).
type AttrRange struct {
	Low  uint16
	High uint16
}

// AllAttrs requests every attribute on a service record.
var AllAttrs = AttrRange{Low: 0x0000, High: 0xFFFF}

// SingleAttr builds a range that selects exactly one attribute ID.
func SingleAttr(id uint16) AttrRange {
	return AttrRange{Low: id, High: id}
}

// Encode packs the range into the u32 wire form: high 16 bits = Low, low
// 16 bits = High.
func (r AttrRange) Encode() uint32 {
	return uint32(r.Low)<<16 | uint32(r.High)
}

// DecodeAttrRange unpacks a u32 wire value into an AttrRange.
func DecodeAttrRange(v uint32) AttrRange {
	return AttrRange{Low: uint16(v >> 16), High: uint16(v)}
}

// Bounds from §4.3: at most 12 UUIDs per search, at most 256 attribute
// ranges per attribute request.
const (
	MaxUUIDs      = 12
	MaxAttrRanges = 256
)
