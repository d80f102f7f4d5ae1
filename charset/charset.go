// Package charset implements the character-set canonicaliser (spec §4.4):
// narrowing wire bytes down the PrintableString ⊂ IA5String ⊂ T61String ⊂
// BMPString lattice on decode, and the inverse classification on encode.
//
// Grounded on original_source/cryptlib/cert/certstr.c's getAsn1StringType/
// copyFromAsn1String: the BMPString-stuffed-with-ASCII detection and the
// T61 floating-diacritic fold are carried over byte-for-byte in behaviour,
// re-expressed without the original's in-place memmove mutation.
package charset

import (
	"unicode/utf8"

	"github.com/letsencrypt/bercert/asn1"
	"github.com/letsencrypt/bercert/berrors"
)

// isPrintableChar reports whether b is in the PrintableString character
// set (ITU-T X.680): upper/lower case letters, digits, space, and
// "'()+,-./:=?".
func isPrintableChar(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case ' ', '\'', '(', ')', '+', ',', '-', '.', '/', ':', '=', '?':
		return true
	}
	return false
}

// classifyNarrowest returns the narrowest of PrintableString/IA5String/
// T61String able to hold data unchanged.
func classifyNarrowest(data []byte) byte {
	allPrintable := true
	allASCII := true
	for _, b := range data {
		if b >= 0x80 {
			allASCII = false
		}
		if !isPrintableChar(b) {
			allPrintable = false
		}
	}
	switch {
	case allPrintable:
		return asn1.TagPrintableString
	case allASCII:
		return asn1.TagIA5String
	default:
		return asn1.TagT61String
	}
}

// DecodeString narrows wire bytes declared under tag to the narrowest
// equivalent string type (spec §4.4). It returns the narrowed tag and
// narrowed content; for input that is already canonical, the narrowed tag
// equals the input tag and the bytes are returned unchanged.
func DecodeString(data []byte, tag byte) (narrowedTag byte, narrowed []byte, err error) {
	switch tag {
	case asn1.TagBMPString:
		return decodeBMPString(data)
	case asn1.TagUTF8String:
		return decodeUTF8String(data)
	case asn1.TagT61String:
		folded := foldT61FloatingDiacritics(data)
		return classifyNarrowest(folded), folded, nil
	case asn1.TagPrintableString, asn1.TagIA5String, asn1.TagVisibleString,
		asn1.TagGeneralString, asn1.TagNumericString:
		return classifyNarrowest(data), append([]byte(nil), data...), nil
	default:
		return 0, nil, berrors.BadDataError("unsupported string tag %#x", tag)
	}
}

// decodeBMPString detects the "8-bit values padded to UCS-2" case (spec
// §4.4) and demotes; an encoding with any non-zero high byte is left as a
// genuine BMPString. This requires every high byte to be zero, a stricter
// (and more correct) test than the original's first-character-only guess —
// see DESIGN.md for the rationale.
func decodeBMPString(data []byte) (byte, []byte, error) {
	if len(data)%2 != 0 {
		return 0, nil, berrors.BadDataError("BMPString length %d is not a multiple of 2", len(data))
	}
	if len(data) == 0 {
		return asn1.TagBMPString, nil, nil
	}
	demotable := true
	for i := 0; i < len(data); i += 2 {
		if data[i] != 0 {
			demotable = false
			break
		}
	}
	if !demotable {
		return asn1.TagBMPString, append([]byte(nil), data...), nil
	}
	narrow := make([]byte, 0, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		narrow = append(narrow, data[i+1])
	}
	return classifyNarrowest(narrow), narrow, nil
}

// decodeUTF8String validates canonical UTF-8 (rejecting overlong and
// otherwise invalid encodings) and narrows to the smallest of
// ASCII/8859-1/UCS-2 that represents every code point, matching
// copyFromAsn1String's UTF8 branch.
func decodeUTF8String(data []byte) (byte, []byte, error) {
	maxRune := rune(0)
	runeCount := 0
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return 0, nil, berrors.BadDataError("invalid or overlong UTF-8 sequence at byte %d", i)
		}
		if r > maxRune {
			maxRune = r
		}
		runeCount++
		i += size
	}
	switch {
	case maxRune < 0x80:
		narrow := make([]byte, 0, runeCount)
		for i := 0; i < len(data); {
			r, size := utf8.DecodeRune(data[i:])
			narrow = append(narrow, byte(r))
			i += size
		}
		return classifyNarrowest(narrow), narrow, nil
	case maxRune <= 0xFF:
		narrow := make([]byte, 0, runeCount)
		for i := 0; i < len(data); {
			r, size := utf8.DecodeRune(data[i:])
			narrow = append(narrow, byte(r))
			i += size
		}
		return asn1.TagT61String, narrow, nil
	case maxRune <= 0xFFFF:
		narrow := make([]byte, 0, runeCount*2)
		for i := 0; i < len(data); {
			r, size := utf8.DecodeRune(data[i:])
			narrow = append(narrow, byte(r>>8), byte(r))
			i += size
		}
		return asn1.TagBMPString, narrow, nil
	default:
		return 0, nil, berrors.BadDataError("UTF8String contains a code point above U+FFFF, unsupported")
	}
}

// floatingDiacriticMap is the six recognised T61 floating-diacritic
// combinations (Deutsche Telekom's a/o/u-umlaut usage), mapping the ASCII
// byte following 0xC8 to its 8859-1 umlauted form.
var floatingDiacriticMap = map[byte]byte{
	0x61: 0xE4, // a -> ä
	0x41: 0xC4, // A -> Ä
	0x6F: 0xF6, // o -> ö
	0x4F: 0xD6, // O -> Ö
	0x75: 0xFC, // u -> ü
	0x55: 0xDC, // U -> Ü
}

// foldT61FloatingDiacritics folds recognised `0xC8 X` escapes into a single
// Latin-1 code point, shrinking the string by one byte per fold. Other
// `0xC8 X` sequences are left untouched (spec §4.4).
func foldT61FloatingDiacritics(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == 0xC8 && i+1 < len(data) {
			if folded, ok := floatingDiacriticMap[data[i+1]]; ok {
				out = append(out, folded)
				i++
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

// EncodeString is the inverse classification (spec §4.4): given a native
// string (already decoded to Go's rune sequence), it returns the narrowest
// wire tag and content, emitting BMPString only when some code point
// exceeds 8 bits. UTF8String is never produced — it is input-only.
func EncodeString(s string) (tag byte, data []byte, err error) {
	maxRune := rune(0)
	runeCount := 0
	for _, r := range s {
		if r < 0 || r > 0xFFFF {
			return 0, nil, berrors.BadDataError("code point U+%04X cannot be represented", r)
		}
		if r > maxRune {
			maxRune = r
		}
		runeCount++
	}
	if maxRune > 0xFF {
		buf := make([]byte, 0, runeCount*2)
		for _, r := range s {
			buf = append(buf, byte(r>>8), byte(r))
		}
		return asn1.TagBMPString, buf, nil
	}
	buf := make([]byte, 0, runeCount)
	for _, r := range s {
		buf = append(buf, byte(r))
	}
	return classifyNarrowest(buf), buf, nil
}

// CheckTextStringData validates that data contains only characters
// permitted by tag (spec §4.4's check_text_string_data).
func CheckTextStringData(data []byte, tag byte) error {
	switch tag {
	case asn1.TagPrintableString:
		for _, b := range data {
			if !isPrintableChar(b) {
				return berrors.BadDataError("byte %#x is not valid in a PrintableString", b)
			}
		}
	case asn1.TagIA5String, asn1.TagVisibleString:
		for _, b := range data {
			if b >= 0x80 {
				return berrors.BadDataError("byte %#x is not valid in a 7-bit string", b)
			}
		}
	case asn1.TagNumericString:
		for _, b := range data {
			if !(b >= '0' && b <= '9') && b != ' ' {
				return berrors.BadDataError("byte %#x is not valid in a NumericString", b)
			}
		}
	case asn1.TagT61String, asn1.TagGeneralString:
		// Full 8-bit range is permitted.
	case asn1.TagBMPString:
		if len(data)%2 != 0 {
			return berrors.BadDataError("BMPString length %d is not a multiple of 2", len(data))
		}
	case asn1.TagUTF8String:
		if !utf8.Valid(data) {
			return berrors.BadDataError("invalid UTF-8 content")
		}
	default:
		return berrors.BadDataError("unsupported string tag %#x", tag)
	}
	return nil
}
