// Package validate implements the encoding validator (spec §4.3): a single
// recursive walk over a complete BER/DER object that checks well-formedness,
// bounds nesting depth, and runs the AlgorithmIdentifier "hole" heuristic
// that lets a BIT STRING or OCTET STRING encapsulate a nested object (the
// SubjectPublicKeyInfo / signature-wrapper shape every certificate uses).
//
// It is built directly on the asn1 package's Cursor and primitive readers
// rather than re-implementing tag/length parsing, the way the teacher's
// cfssl-derived signing code reuses its own low-level ASN.1 helpers instead
// of duplicating them at each call site.
package validate

import (
	"github.com/letsencrypt/bercert/asn1"
	"github.com/letsencrypt/bercert/berrors"
)

// MaxNestingDepth bounds recursion so adversarial input cannot exhaust the
// call stack (spec §4.3, §8.3).
const MaxNestingDepth = 50

// holeState names the AlgorithmIdentifier-detection state machine (spec
// §4.3). A SEQUENCE's own children are scanned for the OID-then-parameter
// pattern: seeing OID as a child moves to stateAlgIDOID ("S2"); a following
// NULL or nested SEQUENCE parameter moves to stateExpectBitStringHole
// ("S3"), a BOOLEAN parameter to stateExpectOctetStringHole ("S4"). A
// SEQUENCE's final state is handed to its *parent* as the state that
// governs whether the sibling immediately following it is a hole
// candidate.
type holeState int

const (
	stateNone holeState = iota
	stateAlgIDOID
	stateExpectBitStringHole
	stateExpectOctetStringHole
)

// ObjectEncoding validates a single complete BER/DER object and returns its
// total encoded length, including any end-of-contents octets consumed by an
// indefinite-length encoding (spec §4.3, §8.2 scenario 7).
func ObjectEncoding(data []byte) (int, error) {
	c := asn1.NewReader(data)
	n, _, err := walkValue(c, 0, stateNone)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// walkValue validates one TLV (tag-length-value) at the cursor's current
// position. parentState is the hole-detection hint carried from the
// preceding sibling in the enclosing SEQUENCE, consulted only when this
// value turns out to be a BIT STRING or OCTET STRING. It returns the
// value's total encoded size and the exitState this value contributes for
// its own next sibling (non-zero only when this value is itself a
// SEQUENCE).
func walkValue(c *asn1.Cursor, depth int, parentState holeState) (int, holeState, error) {
	if depth > MaxNestingDepth {
		return 0, stateNone, berrors.BadDataError("nesting depth exceeds %d", MaxNestingDepth)
	}
	start := c.Position()
	raw, err := c.Peek()
	if err != nil {
		return 0, stateNone, err
	}
	tag, ok := asn1.DecodeTag(raw)
	if !ok {
		return 0, stateNone, berrors.BadDataError("tag numbers above 30 are not supported")
	}

	if tag.Constructed {
		return walkConstructed(c, depth, tag, start)
	}
	n, err := walkPrimitive(c, tag, parentState, start)
	return n, stateNone, err
}

func walkConstructed(c *asn1.Cursor, depth int, tag asn1.Tag, start int) (int, holeState, error) {
	switch tag.Class {
	case asn1.ClassUniversal:
		switch tag.Number {
		case asn1.TagSequence, asn1.TagSet:
		case asn1.TagOctetString:
			n, err := walkConstructedOctetString(c, depth, start)
			return n, stateNone, err
		default:
			return 0, stateNone, berrors.BadDataError("unsupported constructed universal tag %#x", tag.Number)
		}
	case asn1.ClassContextSpecific:
		// supported, untyped content
	default:
		return 0, stateNone, berrors.BadDataError("unsupported tag class %d", tag.Class)
	}

	length, indefinite, err := readAnyConstructedHeader(c)
	if err != nil {
		return 0, stateNone, err
	}

	isSequence := tag.Class == asn1.ClassUniversal && tag.Number == asn1.TagSequence
	ownPattern := stateNone  // this SEQUENCE's own OID/NULL/BOOLEAN child pattern
	siblingHint := stateNone // preceding child's exitState, for the next child's hole candidacy

	childDepth := depth + 1
	consumeChild := func() error {
		nextRaw, err := c.Peek()
		if err != nil {
			return err
		}
		if isSequence {
			ownPattern = advanceAlgIDPattern(ownPattern, nextRaw)
		}
		_, childExit, err := walkValue(c, childDepth, siblingHint)
		if err != nil {
			return err
		}
		siblingHint = childExit
		return nil
	}

	if indefinite {
		for {
			next, err := c.Peek()
			if err != nil {
				return 0, stateNone, err
			}
			if next == 0x00 {
				if err := asn1.CheckEOC(c); err != nil {
					return 0, stateNone, err
				}
				break
			}
			if err := consumeChild(); err != nil {
				return 0, stateNone, err
			}
		}
	} else {
		end := c.Position() + length
		for c.Position() < end {
			if err := consumeChild(); err != nil {
				return 0, stateNone, err
			}
		}
		if c.Position() != end {
			return 0, stateNone, berrors.BadDataError("constructed content overran its declared length")
		}
	}

	exitState := stateNone
	if isSequence {
		exitState = ownPattern
	}
	return c.Position() - start, exitState, nil
}

// advanceAlgIDPattern implements the OID-then-parameter transitions named
// in spec §4.3, keyed off a child's raw tag octet so the transition can be
// decided before that child is walked.
func advanceAlgIDPattern(state holeState, nextRaw byte) holeState {
	tag, ok := asn1.DecodeTag(nextRaw)
	if !ok {
		return stateNone
	}
	switch state {
	case stateNone:
		if tag.Class == asn1.ClassUniversal && !tag.Constructed && tag.Number == asn1.TagOID {
			return stateAlgIDOID
		}
	case stateAlgIDOID:
		if tag.Class == asn1.ClassUniversal {
			switch tag.Number {
			case asn1.TagNull, asn1.TagSequence:
				return stateExpectBitStringHole
			case asn1.TagBoolean:
				return stateExpectOctetStringHole
			}
		}
	}
	return stateNone
}

func walkConstructedOctetString(c *asn1.Cursor, depth int, start int) (int, error) {
	length, indefinite, err := readAnyConstructedHeader(c)
	if err != nil {
		return 0, err
	}
	childDepth := depth + 1
	if indefinite {
		for {
			next, err := c.Peek()
			if err != nil {
				return 0, err
			}
			if next == 0x00 {
				if err := asn1.CheckEOC(c); err != nil {
					return 0, err
				}
				break
			}
			if err := walkOctetStringSegment(c, childDepth); err != nil {
				return 0, err
			}
		}
	} else {
		end := c.Position() + length
		for c.Position() < end {
			if err := walkOctetStringSegment(c, childDepth); err != nil {
				return 0, err
			}
		}
		if c.Position() != end {
			return 0, berrors.BadDataError("constructed OCTET STRING content overran its declared length")
		}
	}
	return c.Position() - start, nil
}

func walkOctetStringSegment(c *asn1.Cursor, depth int) error {
	raw, err := c.Peek()
	if err != nil {
		return err
	}
	tag, ok := asn1.DecodeTag(raw)
	if !ok || tag.Class != asn1.ClassUniversal || tag.Number != asn1.TagOctetString {
		return berrors.BadDataError("constructed OCTET STRING may only contain OCTET STRING segments")
	}
	if tag.Constructed {
		_, err := walkConstructedOctetString(c, depth, c.Position())
		return err
	}
	_, err = walkPrimitive(c, tag, stateNone, c.Position())
	return err
}

func readAnyConstructedHeader(c *asn1.Cursor) (length int, indefinite bool, err error) {
	h, err := asn1.ReadHeader(c, asn1.AnyTag, true)
	if err != nil {
		return 0, false, err
	}
	return h.Length, h.Indefinite, nil
}

// walkPrimitive validates a primitive value's content rules (spec §4.3)
// and, for BIT STRING/OCTET STRING in a hole-candidate state, runs the
// speculative probe.
func walkPrimitive(c *asn1.Cursor, tag asn1.Tag, parentState holeState, start int) (int, error) {
	switch tag.Class {
	case asn1.ClassUniversal:
		switch tag.Number {
		case asn1.TagBoolean:
			if _, err := asn1.ReadBooleanTag(c, asn1.DefaultTag); err != nil {
				return 0, err
			}
		case asn1.TagInteger, asn1.TagEnumerated:
			h, err := asn1.ReadHeader(c, asn1.AnyTag, false)
			if err != nil {
				return 0, err
			}
			if _, err := c.GetN(h.Length); err != nil {
				return 0, err
			}
		case asn1.TagNull:
			if err := asn1.ReadNullTag(c, asn1.DefaultTag); err != nil {
				return 0, err
			}
		case asn1.TagOID:
			if _, err := asn1.ReadOID(c); err != nil {
				return 0, err
			}
		case asn1.TagUTCTime:
			if _, err := asn1.ReadUTCTimeTag(c, asn1.DefaultTag); err != nil {
				return 0, err
			}
		case asn1.TagGeneralizedTime:
			if _, err := asn1.ReadGeneralizedTimeTag(c, asn1.DefaultTag); err != nil {
				return 0, err
			}
		case asn1.TagBitString:
			return walkBitString(c, parentState, start)
		case asn1.TagOctetString:
			return walkOctetString(c, parentState, start)
		case asn1.TagNumericString, asn1.TagPrintableString, asn1.TagT61String,
			asn1.TagIA5String, asn1.TagVisibleString, asn1.TagGeneralString,
			asn1.TagBMPString, asn1.TagUTF8String:
			if _, err := asn1.ReadCharacterString(c, byte(tag.Number)); err != nil {
				return 0, err
			}
		default:
			return 0, berrors.BadDataError("unsupported primitive universal tag %#x", tag.Number)
		}
	case asn1.ClassContextSpecific:
		h, err := asn1.ReadHeader(c, asn1.AnyTag, false)
		if err != nil {
			return 0, err
		}
		if _, err := c.GetN(h.Length); err != nil {
			return 0, err
		}
	default:
		return 0, berrors.BadDataError("unsupported tag class %d for primitive content", tag.Class)
	}
	return c.Position() - start, nil
}

// walkBitString validates a BIT STRING's content rules and, when the
// enclosing AlgorithmIdentifier state machine is in stateExpectBitStringHole,
// probes whether the body encapsulates a SEQUENCE { INTEGER, ... } (the
// SubjectPublicKeyInfo shape).
func walkBitString(c *asn1.Cursor, parentState holeState, start int) (int, error) {
	bs, err := asn1.ReadBitStringTag(c, asn1.DefaultTag)
	if err != nil {
		return 0, err
	}
	if parentState == stateExpectBitStringHole && len(bs.Bytes) > 0 {
		probeBitStringHole(bs.Bytes)
	}
	return c.Position() - start, nil
}

// probeBitStringHole speculatively parses body as SEQUENCE { INTEGER, ... }.
// Any failure is swallowed: the bit string is simply treated as opaque, the
// one recovery point the sticky-error model permits (spec §4.3, §7).
func probeBitStringHole(body []byte) {
	inner := asn1.NewReader(body)
	mark := inner.SavePosition()
	length, indefinite, err := asn1.ReadSequenceIndef(inner)
	if err != nil || indefinite {
		inner.RestorePosition(mark)
		return
	}
	// "length close to the bit-string body": the SEQUENCE header plus its
	// declared body must account for all but a small slack of the bytes
	// probed, consistent with an encapsulated object rather than coincidence.
	headerSize := inner.Position()
	if headerSize+length > len(body) || len(body)-(headerSize+length) > 1 {
		inner.RestorePosition(mark)
		return
	}
	if _, err := asn1.ReadIntegerTag(inner, asn1.DefaultTag); err != nil {
		inner.RestorePosition(mark)
		return
	}
}

// walkOctetString validates an OCTET STRING's content rules and, when the
// AlgorithmIdentifier state machine is in stateExpectOctetStringHole, probes
// whether the body encapsulates a small BIT STRING, a small INTEGER, or a
// SEQUENCE of matching length (spec §4.3).
func walkOctetString(c *asn1.Cursor, parentState holeState, start int) (int, error) {
	data, err := asn1.ReadOctetStringTag(c, asn1.DefaultTag)
	if err != nil {
		return 0, err
	}
	if parentState == stateExpectOctetStringHole && len(data) > 0 {
		probeOctetStringHole(data)
	}
	return c.Position() - start, nil
}

func probeOctetStringHole(body []byte) {
	inner := asn1.NewReader(body)
	mark := inner.SavePosition()

	if tryBitStringHole(inner, mark) {
		return
	}
	inner.RestorePosition(mark)
	if tryIntegerHole(inner, mark) {
		return
	}
	inner.RestorePosition(mark)
	tryMatchingSequenceHole(inner, mark, len(body))
}

func tryBitStringHole(c *asn1.Cursor, mark asn1.Mark) bool {
	bs, err := asn1.ReadBitStringTag(c, asn1.DefaultTag)
	if err != nil || len(bs.Bytes) > 2 {
		c.RestorePosition(mark)
		return false
	}
	return true
}

func tryIntegerHole(c *asn1.Cursor, mark asn1.Mark) bool {
	data, err := asn1.ReadIntegerTag(c, asn1.DefaultTag)
	if err != nil || len(data) > 8 {
		c.RestorePosition(mark)
		return false
	}
	return true
}

func tryMatchingSequenceHole(c *asn1.Cursor, mark asn1.Mark, bodyLen int) bool {
	length, indefinite, err := asn1.ReadSequenceIndef(c)
	if err != nil || indefinite {
		c.RestorePosition(mark)
		return false
	}
	if c.Position()+length != bodyLen {
		c.RestorePosition(mark)
		return false
	}
	return true
}
