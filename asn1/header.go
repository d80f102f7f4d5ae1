package asn1

import "github.com/letsencrypt/bercert/berrors"

// IndefiniteLength is the sentinel Header.Length takes when the object's
// length was encoded as indefinite (0x80) rather than a concrete byte
// count (spec §3.3).
const IndefiniteLength = -1

// MaxIntLength bounds the decoded definite length accepted by the default
// short-length reader (spec §3.3): an implementation-chosen ceiling, here
// 16 MiB, well above anything a certificate, CRL, or OCSP response needs.
const MaxIntLength = 16 << 20

// Header is a parsed ASN.1 item header: the tag octet, its length, and the
// header's own encoded size (spec §3.3).
type Header struct {
	Tag        Tag
	Length     int // IndefiniteLength if Indefinite
	HeaderSize int
	Indefinite bool
}

// readTagOctet reads and decodes the single identifier octet at the
// cursor. expectedTag follows the DefaultTag/NoTag/AnyTag convention of
// spec §4.2: DefaultTag is resolved by the caller (it doesn't know the
// natural tag), NoTag skips validation, AnyTag accepts anything, and any
// non-negative value must match a context-specific tag.
func readTagOctet(c *Cursor, expectedTag int) (Tag, error) {
	raw, err := c.Get()
	if err != nil {
		return Tag{}, err
	}
	tag, ok := DecodeTag(raw)
	if !ok {
		return Tag{}, c.fail(berrors.BadDataError("tag numbers above 30 are not supported"))
	}
	switch expectedTag {
	case NoTag, AnyTag:
		return tag, nil
	case DefaultTag:
		return tag, nil
	default:
		if int(tag.Number) != expectedTag || tag.Class != ClassContextSpecific {
			return Tag{}, c.fail(berrors.BadDataError("expected context tag [%d], got class=%d number=%d", expectedTag, tag.Class, tag.Number))
		}
		return tag, nil
	}
}

// readLength reads a BER/DER length field per spec §4.2: short form
// directly, long form with up to 8 length octets (leading zero octets
// tolerated, at most 4 significant octets after stripping), indefinite
// length only when allowIndefinite is set.
func readLength(c *Cursor, allowIndefinite bool) (length int, indefinite bool, err error) {
	first, err := c.Get()
	if err != nil {
		return 0, false, err
	}
	if first < 0x80 {
		return int(first), false, nil
	}
	numOctets := int(first & 0x7F)
	if numOctets == 0 {
		if !allowIndefinite {
			return 0, false, c.fail(berrors.BadDataError("indefinite length not permitted here"))
		}
		return IndefiniteLength, true, nil
	}
	if numOctets > 8 {
		return 0, false, c.fail(berrors.OverflowError("length field has %d octets, maximum 8", numOctets))
	}
	raw, err := c.GetN(numOctets)
	if err != nil {
		return 0, false, err
	}
	// Strip leading zero octets; at most 4 significant octets may remain.
	sig := raw
	for len(sig) > 0 && sig[0] == 0 {
		sig = sig[1:]
	}
	if len(sig) > 4 {
		return 0, false, c.fail(berrors.OverflowError("length field has %d significant octets, maximum 4", len(sig)))
	}
	var v uint32
	for _, b := range sig {
		v = v<<8 | uint32(b)
	}
	if v > MaxIntLength {
		return 0, false, c.fail(berrors.OverflowError("decoded length %d exceeds MAX_INT_LENGTH", v))
	}
	return int(v), false, nil
}

// readLongLength is the full-length-equivalent of readLength, bounded only
// by the buffer remaining rather than MaxIntLength (spec §3.3, "the
// long-length reader"). Used by the long-form read routines in §4.2's
// "full-length equivalents" group.
func readLongLength(c *Cursor, allowIndefinite bool) (length int, indefinite bool, err error) {
	first, err := c.Get()
	if err != nil {
		return 0, false, err
	}
	if first < 0x80 {
		return int(first), false, nil
	}
	numOctets := int(first & 0x7F)
	if numOctets == 0 {
		if !allowIndefinite {
			return 0, false, c.fail(berrors.BadDataError("indefinite length not permitted here"))
		}
		return IndefiniteLength, true, nil
	}
	if numOctets > 8 {
		return 0, false, c.fail(berrors.OverflowError("length field has %d octets, maximum 8", numOctets))
	}
	raw, err := c.GetN(numOctets)
	if err != nil {
		return 0, false, err
	}
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	if v > uint64(c.Remaining()) {
		return 0, false, c.fail(berrors.OverflowError("decoded long length %d exceeds buffer remaining", v))
	}
	return int(v), false, nil
}

// ReadLongHeader is ReadHeader's "full-length equivalent" (spec §4.2): it
// accepts lengths bounded only by the buffer remaining rather than
// MaxIntLength, for the rare case of reading a length field that may
// legitimately exceed the short-length reader's 16 MiB ceiling (a large
// CRL or CMS SignedData blob).
func ReadLongHeader(c *Cursor, expectedTag int, allowIndefinite bool) (Header, error) {
	startPos := c.Position()
	tag, err := readTagOctet(c, expectedTag)
	if err != nil {
		return Header{}, err
	}
	length, indefinite, err := readLongLength(c, allowIndefinite)
	if err != nil {
		return Header{}, err
	}
	return Header{
		Tag:        tag,
		Length:     length,
		Indefinite: indefinite,
		HeaderSize: c.Position() - startPos,
	}, nil
}

// writeLength writes the canonical DER length encoding: short form under
// 128, else the minimum number of long-form octets with no leading-zero
// padding.
func writeLength(c *Cursor, length int) error {
	if length < 0 {
		return c.fail(berrors.BadDataError("cannot write a negative length"))
	}
	if length < 0x80 {
		return c.Put(byte(length))
	}
	var octets []byte
	v := uint32(length)
	for v > 0 {
		octets = append([]byte{byte(v & 0xFF)}, octets...)
		v >>= 8
	}
	if err := c.Put(byte(0x80 | len(octets))); err != nil {
		return err
	}
	return c.PutAll(octets)
}

// SizeofLength returns the number of octets writeLength would emit for the
// given length.
func SizeofLength(length int) int {
	if length < 0x80 {
		return 1
	}
	n := 1
	v := uint32(length)
	for v > 0 {
		n++
		v >>= 8
	}
	return n
}

// SizeofObject returns the size of an object once wrapped with a one-octet
// tag and a DER length field (spec §4.1 sizeofObject).
func SizeofObject(length int) int {
	return 1 + SizeofLength(length) + length
}

// ReadHeader reads a tag+length header, the ground operation every reader
// in this package is built on.
func ReadHeader(c *Cursor, expectedTag int, allowIndefinite bool) (Header, error) {
	startPos := c.Position()
	tag, err := readTagOctet(c, expectedTag)
	if err != nil {
		return Header{}, err
	}
	length, indefinite, err := readLength(c, allowIndefinite)
	if err != nil {
		return Header{}, err
	}
	return Header{
		Tag:        tag,
		Length:     length,
		Indefinite: indefinite,
		HeaderSize: c.Position() - startPos,
	}, nil
}

// checkNaturalTag validates a header's tag against the primitive's natural
// universal tag when the caller asked for DefaultTag. NoTag/AnyTag skip the
// check; an explicit context-specific tag was already validated by
// readTagOctet.
func checkNaturalTag(c *Cursor, h Header, requestedTag int, natural byte) error {
	if requestedTag != DefaultTag {
		return nil
	}
	if h.Tag.Class != ClassUniversal || h.Tag.Number != natural {
		return c.fail(berrors.BadDataError("expected universal tag %#x, got class=%d number=%d", natural, h.Tag.Class, h.Tag.Number))
	}
	return nil
}

// CheckEOC consumes the end-of-contents octets (00 00) that terminate an
// indefinite-length encoding, failing if they are not present.
func CheckEOC(c *Cursor) error {
	a, err := c.Get()
	if err != nil {
		return err
	}
	b, err := c.Get()
	if err != nil {
		return err
	}
	if a != 0 || b != 0 {
		return c.fail(berrors.BadDataError("expected end-of-contents 00 00, got %02X %02X", a, b))
	}
	return nil
}
