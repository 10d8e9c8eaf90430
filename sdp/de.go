package sdp

import (
	"encoding/binary"

	log "github.com/sirupsen/logrus"
)

// ElementType is the high-five-bits type code of a Data Element
// descriptor byte (§3).
type ElementType uint8

const (
	TypeNil  ElementType = 0x00
	TypeUint ElementType = 0x08
	TypeInt  ElementType = 0x10
	TypeUUID ElementType = 0x18
	TypeText ElementType = 0x20
	TypeBool ElementType = 0x28
	TypeSeq  ElementType = 0x30
	TypeAlt  ElementType = 0x38
	TypeURL  ElementType = 0x40
)

// SizeIndex is the low three bits of a descriptor byte.
type SizeIndex uint8

// DataElement is SDP's self-describing tagged value (§3, §9 redesign note
// (b)): a sum type with one variant per element type, plus a sub-record
// variant (Elements) for SEQ/ALT.
type DataElement struct {
	typ   ElementType
	width int // byte width for Uint/Int/UUID; unused otherwise
	u     uint64
	i     int64
	b     bool
	uuid  UUID
	str   string
	elems []*DataElement
}

func NewNil() *DataElement { return &DataElement{typ: TypeNil} }

func NewUint(v uint64, width int) *DataElement {
	return &DataElement{typ: TypeUint, u: v, width: width}
}

func NewInt(v int64, width int) *DataElement {
	return &DataElement{typ: TypeInt, i: v, width: width}
}

func NewUUID(u UUID) *DataElement {
	return &DataElement{typ: TypeUUID, uuid: u, width: len(u)}
}

func NewText(s string) *DataElement {
	return &DataElement{typ: TypeText, str: s}
}

func NewURL(s string) *DataElement {
	return &DataElement{typ: TypeURL, str: s}
}

func NewBool(b bool) *DataElement {
	return &DataElement{typ: TypeBool, b: b}
}

func NewSequence(elems ...*DataElement) *DataElement {
	return &DataElement{typ: TypeSeq, elems: elems}
}

func NewAlternative(elems ...*DataElement) *DataElement {
	return &DataElement{typ: TypeAlt, elems: elems}
}

func (e *DataElement) Type() ElementType { return e.typ }

func (e *DataElement) Uint() (uint64, bool) {
	if e == nil || e.typ != TypeUint {
		return 0, false
	}
	return e.u, true
}

func (e *DataElement) Int() (int64, bool) {
	if e == nil || e.typ != TypeInt {
		return 0, false
	}
	return e.i, true
}

func (e *DataElement) UUID() (UUID, bool) {
	if e == nil || e.typ != TypeUUID {
		return nil, false
	}
	return e.uuid, true
}

func (e *DataElement) Text() (string, bool) {
	if e == nil || (e.typ != TypeText && e.typ != TypeURL) {
		return "", false
	}
	return e.str, true
}

func (e *DataElement) Bool() (bool, bool) {
	if e == nil || e.typ != TypeBool {
		return false, false
	}
	return e.b, true
}

func (e *DataElement) Elements() ([]*DataElement, bool) {
	if e == nil || (e.typ != TypeSeq && e.typ != TypeAlt) {
		return nil, false
	}
	return e.elems, true
}

// fixedSizeWidths maps a size index (0..4) to its fixed byte width.
var fixedSizeWidths = [5]int{1, 2, 4, 8, 16}

func sizeIndexForWidth(width int) (SizeIndex, error) {
	for idx, w := range fixedSizeWidths {
		if w == width {
			return SizeIndex(idx), nil
		}
	}
	return 0, FmtEncodingError("sdp: invalid fixed width %d", width)
}

func sizeIndexForLength(n int) (SizeIndex, error) {
	switch {
	case n <= 0xFF:
		return 5, nil
	case n <= 0xFFFF:
		return 6, nil
	case int64(n) <= 0xFFFFFFFF:
		return 7, nil
	default:
		return 0, FmtEncodingError("sdp: length %d too large to encode", n)
	}
}

func descriptorByte(typ ElementType, idx SizeIndex) byte {
	return byte(typ) | byte(idx)
}

// Writer is a mutable, append-only byte buffer used to encode Data
// Elements and raw wire fields (§4.1).
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }

// PushBytes appends raw bytes with no descriptor.
func (w *Writer) PushBytes(b []byte) { w.buf = append(w.buf, b...) }

// PushUint writes a raw big-endian unsigned integer of the given byte
// width, with no descriptor.
func (w *Writer) PushUint(v uint64, width int) error {
	b, err := encodeUint(v, width)
	if err != nil {
		return err
	}
	w.buf = append(w.buf, b...)
	return nil
}

// PushInt writes a raw big-endian signed integer of the given byte width,
// with no descriptor.
func (w *Writer) PushInt(v int64, width int) error {
	return w.PushUint(uint64(v), width)
}

// PushBool writes a raw boolean byte, with no descriptor.
func (w *Writer) PushBool(b bool) {
	if b {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// PushUUIDRaw writes a UUID's canonical big-endian bytes, with no
// descriptor.
func (w *Writer) PushUUIDRaw(u UUID) { w.buf = append(w.buf, u.CanonicalBytes()...) }

func encodeUint(v uint64, width int) ([]byte, error) {
	b := make([]byte, width)
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(v))
	case 8:
		binary.BigEndian.PutUint64(b, v)
	default:
		return nil, FmtEncodingError("sdp: invalid integer width %d", width)
	}
	return b, nil
}

func (w *Writer) appendLength(idx SizeIndex, n int) error {
	switch idx {
	case 5:
		w.buf = append(w.buf, byte(n))
	case 6:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(n))
		w.buf = append(w.buf, b...)
	case 7:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(n))
		w.buf = append(w.buf, b...)
	default:
		return FmtEncodingError("sdp: invalid variable-length size index %d", idx)
	}
	return nil
}

// PushElement writes a descriptor byte (plus any length bytes) followed
// by e's payload (§4.1's push(use_descriptor, v)).
func (w *Writer) PushElement(e *DataElement) error {
	switch e.typ {
	case TypeNil:
		// NIL never emits a payload, even though its descriptor reads as
		// size index 0 (§9 Open Question (a), resolved toward the wire
		// form with no trailing byte).
		w.buf = append(w.buf, descriptorByte(TypeNil, 0))
		return nil

	case TypeBool:
		w.buf = append(w.buf, descriptorByte(TypeBool, 0))
		w.PushBool(e.b)
		return nil

	case TypeUint:
		idx, err := sizeIndexForWidth(e.width)
		if err != nil {
			return err
		}
		w.buf = append(w.buf, descriptorByte(TypeUint, idx))
		return w.PushUint(e.u, e.width)

	case TypeInt:
		idx, err := sizeIndexForWidth(e.width)
		if err != nil {
			return err
		}
		w.buf = append(w.buf, descriptorByte(TypeInt, idx))
		return w.PushInt(e.i, e.width)

	case TypeUUID:
		idx, err := sizeIndexForWidth(len(e.uuid))
		if err != nil {
			return err
		}
		w.buf = append(w.buf, descriptorByte(TypeUUID, idx))
		w.PushUUIDRaw(e.uuid)
		return nil

	case TypeText, TypeURL:
		payload := []byte(e.str)
		idx, err := sizeIndexForLength(len(payload))
		if err != nil {
			return err
		}
		w.buf = append(w.buf, descriptorByte(e.typ, idx))
		if err := w.appendLength(idx, len(payload)); err != nil {
			return err
		}
		w.buf = append(w.buf, payload...)
		return nil

	case TypeSeq, TypeAlt:
		return w.pushBuiltSequence(e.typ, func(sub *Writer) error {
			for _, c := range e.elems {
				if err := sub.PushElement(c); err != nil {
					return err
				}
			}
			return nil
		})

	default:
		return FmtEncodingError("sdp: unknown element type 0x%02x", e.typ)
	}
}

// PushSequence is the builder-closure form of §4.1's sequence encoder: it
// allocates a scratch sub-buffer, hands it to build, then writes the
// parent descriptor with the resulting length and copies the scratch
// bytes in. This keeps length-prefixed sequences one-pass from the
// caller's point of view.
func (w *Writer) PushSequence(build func(sub *Writer) error) error {
	return w.pushBuiltSequence(TypeSeq, build)
}

// PushAlternative is PushSequence's ALT counterpart.
func (w *Writer) PushAlternative(build func(sub *Writer) error) error {
	return w.pushBuiltSequence(TypeAlt, build)
}

func (w *Writer) pushBuiltSequence(typ ElementType, build func(sub *Writer) error) error {
	scratch := NewWriter()
	if err := build(scratch); err != nil {
		return err
	}

	idx, err := sizeIndexForLength(scratch.Len())
	if err != nil {
		return err
	}

	w.buf = append(w.buf, descriptorByte(typ, idx))
	if err := w.appendLength(idx, scratch.Len()); err != nil {
		return err
	}
	w.buf = append(w.buf, scratch.Bytes()...)
	return nil
}

// Reader reads Data Elements and raw wire fields from a byte slice. Its
// read position is interior-mutable so a sub-view created by PopSequence
// can be handed to a recursive parser without aliasing the parent's
// position (§4.1).
type Reader struct {
	buf []byte
	pos int
}

func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Remaining reports the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) popByte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, r.truncate("descriptor byte")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// popBytes reads n bytes. If the declared length exceeds the available
// bytes, it logs a truncation warning, advances the read position to
// end-of-buffer, and returns a FrameError (§4.1 Failure modes, §3
// invariant 3).
func (r *Reader) popBytes(n int) ([]byte, error) {
	if n > r.Remaining() {
		return nil, r.truncate("payload")
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) truncate(what string) error {
	log.Warnf("sdp: truncated %s: have %d bytes, position %d/%d",
		what, r.Remaining(), r.pos, len(r.buf))
	r.pos = len(r.buf)
	return NewFrameError("sdp: truncated " + what)
}

func decodeUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	case 8:
		return binary.BigEndian.Uint64(b)
	default:
		var v uint64
		for _, x := range b {
			v = v<<8 | uint64(x)
		}
		return v
	}
}

func signExtend(v uint64, width int) int64 {
	bits := uint(width) * 8
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

// PopUint reads a raw big-endian unsigned integer of the given byte
// width, with no descriptor.
func (r *Reader) PopUint(width int) (uint64, error) {
	b, err := r.popBytes(width)
	if err != nil {
		return 0, err
	}
	return decodeUint(b), nil
}

// PopBool reads a raw boolean byte, with no descriptor.
func (r *Reader) PopBool() (bool, error) {
	b, err := r.popBytes(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (r *Reader) popLength(idx SizeIndex) (int, error) {
	switch idx {
	case 5:
		b, err := r.popBytes(1)
		if err != nil {
			return 0, err
		}
		return int(b[0]), nil
	case 6:
		b, err := r.popBytes(2)
		if err != nil {
			return 0, err
		}
		return int(binary.BigEndian.Uint16(b)), nil
	case 7:
		b, err := r.popBytes(4)
		if err != nil {
			return 0, err
		}
		return int(binary.BigEndian.Uint32(b)), nil
	default:
		return 0, FmtFrameError("sdp: invalid variable-length size index %d", idx)
	}
}

// subReader carves out the next n bytes as an independent Reader bounded
// to exactly that window (§4.1's "sub-view of exactly the declared inner
// length"), truncating if fewer than n bytes remain.
func (r *Reader) subReader(n int) (*Reader, error) {
	if n > r.Remaining() {
		start := r.pos
		r.pos = len(r.buf)
		log.Warnf("sdp: truncated sequence: declared %d bytes, have %d", n, len(r.buf)-start)
		return &Reader{buf: r.buf[start:]}, NewFrameError("sdp: truncated sequence")
	}
	sub := &Reader{buf: r.buf[r.pos : r.pos+n]}
	r.pos += n
	return sub, nil
}

// PeekDescriptor reads the type/size of the next element without
// consuming it.
func (r *Reader) PeekDescriptor() (ElementType, SizeIndex, error) {
	if r.Remaining() < 1 {
		return 0, 0, NewFrameError("sdp: no descriptor available")
	}
	b := r.buf[r.pos]
	return ElementType(b & 0xF8), SizeIndex(b & 0x07), nil
}

// PopElement reads a full descriptor-tagged Data Element, recursing into
// nested SEQ/ALT children (§4.1's pop(use_descriptor, T)).
func (r *Reader) PopElement() (*DataElement, error) {
	b, err := r.popByte()
	if err != nil {
		return nil, err
	}
	typ := ElementType(b & 0xF8)
	idx := SizeIndex(b & 0x07)

	switch typ {
	case TypeNil:
		return NewNil(), nil

	case TypeBool:
		v, err := r.popBytes(1)
		if err != nil {
			return NewBool(false), err
		}
		return NewBool(v[0] != 0), nil

	case TypeUint:
		if int(idx) >= len(fixedSizeWidths) || idx > 3 {
			return NewUint(0, 1), FmtFrameError("sdp: invalid UINT size index %d", idx)
		}
		width := fixedSizeWidths[idx]
		v, err := r.popBytes(width)
		if err != nil {
			return NewUint(0, width), err
		}
		return NewUint(decodeUint(v), width), nil

	case TypeInt:
		if idx > 3 {
			return NewInt(0, 1), FmtFrameError("sdp: invalid INT size index %d", idx)
		}
		width := fixedSizeWidths[idx]
		v, err := r.popBytes(width)
		if err != nil {
			return NewInt(0, width), err
		}
		return NewInt(signExtend(decodeUint(v), width), width), nil

	case TypeUUID:
		if idx != 0 && idx != 1 && idx != 2 && idx != 4 {
			return NewUUID(nil), FmtFrameError("sdp: invalid UUID size index %d", idx)
		}
		width := fixedSizeWidths[idx]
		v, err := r.popBytes(width)
		if err != nil {
			return NewUUID(nil), err
		}
		u, uerr := UUID128(reverseBytes(v))
		if width != 16 {
			u = UUID(reverseBytes(v))
			uerr = nil
		}
		if uerr != nil {
			return NewUUID(nil), NewFrameError(uerr.Error())
		}
		return NewUUID(u), nil

	case TypeText, TypeURL:
		n, err := r.popLength(idx)
		if err != nil {
			return NewText(""), err
		}
		v, err := r.popBytes(n)
		if err != nil {
			if typ == TypeURL {
				return NewURL(""), err
			}
			return NewText(""), err
		}
		if typ == TypeURL {
			return NewURL(string(v)), nil
		}
		return NewText(string(v)), nil

	case TypeSeq, TypeAlt:
		n, err := r.popLength(idx)
		if err != nil {
			if typ == TypeAlt {
				return NewAlternative(), err
			}
			return NewSequence(), err
		}
		sub, err := r.subReader(n)
		elems := []*DataElement{}
		for sub.Remaining() > 0 {
			child, cerr := sub.PopElement()
			if cerr != nil {
				break
			}
			elems = append(elems, child)
		}
		if typ == TypeAlt {
			return NewAlternative(elems...), err
		}
		return NewSequence(elems...), err

	default:
		return nil, FmtFrameError("sdp: unknown descriptor type 0x%02x", typ)
	}
}

// PopSequence is §4.1's pop(use_descriptor, inspector): the descriptor
// must be SEQ; fn receives a sub-Reader window bounded to exactly the
// declared inner length and may recurse.
func (r *Reader) PopSequence(fn func(sub *Reader) error) error {
	typ, idx, err := r.PeekDescriptor()
	if err != nil {
		return err
	}
	if typ != TypeSeq {
		return FmtFrameError("sdp: expected SEQ descriptor, got 0x%02x", typ)
	}
	if _, err := r.popByte(); err != nil {
		return err
	}

	n, err := r.popLength(idx)
	if err != nil {
		return err
	}
	sub, err := r.subReader(n)
	if err != nil {
		return err
	}
	return fn(sub)
}

// PopUintDescribed reads a descriptored UINT value (§4.1's
// pop(use_descriptor, T) for an unsigned T).
func (r *Reader) PopUintDescribed() (uint64, error) {
	e, err := r.PopElement()
	if err != nil {
		return 0, err
	}
	v, ok := e.Uint()
	if !ok {
		return 0, FmtFrameError("sdp: expected UINT descriptor, got 0x%02x", e.typ)
	}
	return v, nil
}

// PopIntDescribed reads a descriptored INT value.
func (r *Reader) PopIntDescribed() (int64, error) {
	e, err := r.PopElement()
	if err != nil {
		return 0, err
	}
	v, ok := e.Int()
	if !ok {
		return 0, FmtFrameError("sdp: expected INT descriptor, got 0x%02x", e.typ)
	}
	return v, nil
}

// PopUUIDDescribed reads a descriptored UUID value.
func (r *Reader) PopUUIDDescribed() (UUID, error) {
	e, err := r.PopElement()
	if err != nil {
		return nil, err
	}
	v, ok := e.UUID()
	if !ok {
		return nil, FmtFrameError("sdp: expected UUID descriptor, got 0x%02x", e.typ)
	}
	return v, nil
}

// PopTextDescribed reads a descriptored TEXT or URL value.
func (r *Reader) PopTextDescribed() (string, error) {
	e, err := r.PopElement()
	if err != nil {
		return "", err
	}
	v, ok := e.Text()
	if !ok {
		return "", FmtFrameError("sdp: expected TEXT/URL descriptor, got 0x%02x", e.typ)
	}
	return v, nil
}
