package sdp

// Command owns one PDU and the state the queue and response assembler
// need to drive it through possibly several send/continuation rounds
// (§3 "Lifecycles").
type Command struct {
	PDU   *PDU
	Kind  PDUType
	Ranges []AttrRange

	// Handle is the service record handle for a ServiceAttributeRequest;
	// unused otherwise.
	Handle uint32
	// UUIDs is the search pattern for a ServiceSearchRequest or
	// ServiceSearchAttributeRequest; unused otherwise.
	UUIDs []UUID
}

func encodeUUIDSeq(w *Writer, uuids []UUID) error {
	return w.PushSequence(func(sub *Writer) error {
		for _, u := range uuids {
			if err := sub.PushElement(NewUUID(u)); err != nil {
				return err
			}
		}
		return nil
	})
}

func encodeAttrRangeSeq(w *Writer, ranges []AttrRange) error {
	return w.PushSequence(func(sub *Writer) error {
		for _, r := range ranges {
			if err := sub.PushElement(NewUint(uint64(r.Encode()), 4)); err != nil {
				return err
			}
		}
		return nil
	})
}

// remainingCapacity is the space left in pdu's buffer for a
// max_byte_count field once the header, the parameters already written,
// and a full continuation slot are accounted for (§4.3, Open Question
// (c) resolved away from the original's overflowing fixed constant).
func remainingCapacity(pdu *PDU, paramsSoFar int) uint16 {
	room := len(pdu.buf) - HeaderSize - paramsSoFar - 1 - MaxContinuationLen
	if room < 0 {
		return 0
	}
	if room > 0xFFFF {
		return 0xFFFF
	}
	return uint16(room)
}

// NewServiceSearchRequest builds a ServiceSearchRequest Command: a SEQ of
// up to MaxUUIDs descriptored UUIDs followed by a raw u16 max_results
// (§4.3).
func NewServiceSearchRequest(uuids []UUID, maxResults uint16) (*Command, error) {
	if len(uuids) > MaxUUIDs {
		return nil, FmtEncodingError("sdp: %d UUIDs exceeds max %d", len(uuids), MaxUUIDs)
	}

	w := NewWriter()
	if err := encodeUUIDSeq(w, uuids); err != nil {
		return nil, err
	}
	if err := w.PushUint(uint64(maxResults), 2); err != nil {
		return nil, err
	}

	pdu := NewPDU()
	if err := pdu.Construct(PDUServiceSearchRequest, w.Bytes()); err != nil {
		return nil, err
	}

	return &Command{PDU: pdu, Kind: PDUServiceSearchRequest, UUIDs: uuids}, nil
}

// NewServiceAttributeRequest builds a ServiceAttributeRequest Command: a
// raw u32 service handle, a raw u16 max_byte_count, then a SEQ of u32
// attribute ranges (§4.3).
func NewServiceAttributeRequest(handle uint32, ranges []AttrRange) (*Command, error) {
	if len(ranges) > MaxAttrRanges {
		return nil, FmtEncodingError("sdp: %d attribute ranges exceeds max %d", len(ranges), MaxAttrRanges)
	}

	head := NewWriter()
	if err := head.PushUint(uint64(handle), 4); err != nil {
		return nil, err
	}
	// max_byte_count written below once we know the PDU's remaining
	// capacity; reserve its 2 bytes now so the ranges SEQ lands at the
	// same offset it will occupy on the wire.
	head.PushBytes([]byte{0, 0})
	if err := encodeAttrRangeSeq(head, ranges); err != nil {
		return nil, err
	}

	pdu := NewPDU()
	if err := pdu.Construct(PDUServiceAttributeRequest, head.Bytes()); err != nil {
		return nil, err
	}

	maxByteCount := remainingCapacity(pdu, len(head.Bytes()))
	params := pdu.Params()
	params[4] = byte(maxByteCount >> 8)
	params[5] = byte(maxByteCount)

	return &Command{PDU: pdu, Kind: PDUServiceAttributeRequest, Handle: handle, Ranges: ranges}, nil
}

// NewServiceSearchAttributeRequest builds a ServiceSearchAttributeRequest
// Command: a SEQ of UUIDs, a raw u16 max_byte_count, then a SEQ of u32
// attribute ranges (§4.3).
func NewServiceSearchAttributeRequest(uuids []UUID, ranges []AttrRange) (*Command, error) {
	if len(uuids) > MaxUUIDs {
		return nil, FmtEncodingError("sdp: %d UUIDs exceeds max %d", len(uuids), MaxUUIDs)
	}
	if len(ranges) > MaxAttrRanges {
		return nil, FmtEncodingError("sdp: %d attribute ranges exceeds max %d", len(ranges), MaxAttrRanges)
	}

	head := NewWriter()
	if err := encodeUUIDSeq(head, uuids); err != nil {
		return nil, err
	}
	maxByteCountOffset := head.Len()
	head.PushBytes([]byte{0, 0})
	if err := encodeAttrRangeSeq(head, ranges); err != nil {
		return nil, err
	}

	pdu := NewPDU()
	if err := pdu.Construct(PDUServiceSearchAttributeRequest, head.Bytes()); err != nil {
		return nil, err
	}

	maxByteCount := remainingCapacity(pdu, len(head.Bytes()))
	params := pdu.Params()
	params[maxByteCountOffset] = byte(maxByteCount >> 8)
	params[maxByteCountOffset+1] = byte(maxByteCount)

	return &Command{PDU: pdu, Kind: PDUServiceSearchAttributeRequest, UUIDs: uuids, Ranges: ranges}, nil
}
