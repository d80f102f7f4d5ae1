package charset

import (
	"bytes"
	"testing"

	"github.com/letsencrypt/bercert/asn1"
)

func TestBMPStringPaddedASCIIDemotesToPrintable(t *testing.T) {
	// BMPString "abc" padded to UCS-2: 00 61 00 62 00 63
	data := []byte{0x00, 0x61, 0x00, 0x62, 0x00, 0x63}
	tag, narrowed, err := DecodeString(data, asn1.TagBMPString)
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	if tag != asn1.TagPrintableString {
		t.Fatalf("got tag %#x, want PrintableString", tag)
	}
	if !bytes.Equal(narrowed, []byte("abc")) {
		t.Fatalf("got %q, want %q", narrowed, "abc")
	}

	// Re-encoding the narrowed native string must reproduce the
	// PrintableString wire form `13 03 61 62 63`.
	encTag, encData, err := EncodeString(string(narrowed))
	if err != nil {
		t.Fatalf("EncodeString: %v", err)
	}
	if encTag != asn1.TagPrintableString {
		t.Fatalf("re-encode tag = %#x, want PrintableString", encTag)
	}
	w := asn1Writer(t, encData, encTag)
	want := []byte{0x13, 0x03, 0x61, 0x62, 0x63}
	if !bytes.Equal(w, want) {
		t.Fatalf("re-encoded wire form = % X, want % X", w, want)
	}
}

func TestT61FloatingDiacriticFold(t *testing.T) {
	// 0xC8 0x61 -> 'a' umlaut -> 0xE4, length decreases by 1.
	data := []byte{0xC8, 0x61}
	tag, narrowed, err := DecodeString(data, asn1.TagT61String)
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	if tag != asn1.TagT61String {
		t.Fatalf("got tag %#x, want T61String (content still has a high byte)", tag)
	}
	if len(narrowed) != 1 || narrowed[0] != 0xE4 {
		t.Fatalf("got % X, want [E4]", narrowed)
	}
}

func TestT61UnrecognisedEscapeLeftAsIs(t *testing.T) {
	data := []byte{0xC8, 0x5A} // 'Z' is not one of the six umlautable chars
	_, narrowed, err := DecodeString(data, asn1.TagT61String)
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	if !bytes.Equal(narrowed, data) {
		t.Fatalf("got % X, want unchanged % X", narrowed, data)
	}
}

func TestBMPStringWithNonZeroHighByteIsNotDemoted(t *testing.T) {
	data := []byte{0x01, 0x00} // U+0100, outside Latin-1
	tag, narrowed, err := DecodeString(data, asn1.TagBMPString)
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	if tag != asn1.TagBMPString {
		t.Fatalf("got tag %#x, want BMPString", tag)
	}
	if !bytes.Equal(narrowed, data) {
		t.Fatalf("got % X, want unchanged % X", narrowed, data)
	}
}

func TestDecodeUTF8NarrowsToASCII(t *testing.T) {
	tag, narrowed, err := DecodeString([]byte("hello"), asn1.TagUTF8String)
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	if tag != asn1.TagPrintableString && tag != asn1.TagIA5String {
		t.Fatalf("got tag %#x, want a narrow 7-bit type", tag)
	}
	if string(narrowed) != "hello" {
		t.Fatalf("got %q, want hello", narrowed)
	}
}

func TestDecodeUTF8RejectsOverlong(t *testing.T) {
	// Overlong encoding of U+002F ('/') as 0xC0 0xAF.
	data := []byte{0xC0, 0xAF}
	if _, _, err := DecodeString(data, asn1.TagUTF8String); err == nil {
		t.Fatal("expected an error for an overlong UTF-8 sequence")
	}
}

func TestDecodeUTF8WidensToBMP(t *testing.T) {
	tag, narrowed, err := DecodeString([]byte("caféA中"), asn1.TagUTF8String)
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	if tag != asn1.TagBMPString {
		t.Fatalf("got tag %#x, want BMPString", tag)
	}
	if len(narrowed)%2 != 0 {
		t.Fatalf("BMPString output must be an even length, got %d", len(narrowed))
	}
}

func TestCheckTextStringDataRejectsHighBitInPrintable(t *testing.T) {
	if err := CheckTextStringData([]byte{0x80}, asn1.TagPrintableString); err == nil {
		t.Fatal("expected an error for a high-bit byte in a PrintableString")
	}
}

func TestCheckTextStringDataAcceptsFullRangeT61(t *testing.T) {
	if err := CheckTextStringData([]byte{0x00, 0x7F, 0xFF}, asn1.TagT61String); err != nil {
		t.Fatalf("CheckTextStringData: %v", err)
	}
}

func TestEncodeStringRoundTripsNarrowest(t *testing.T) {
	cases := []struct {
		s       string
		wantTag byte
	}{
		{"hello, world", asn1.TagPrintableString},
		{"hello*world", asn1.TagIA5String}, // '*' is not in PrintableString
		{"café", asn1.TagT61String},
		{"中文", asn1.TagBMPString},
	}
	for _, tc := range cases {
		tag, data, err := EncodeString(tc.s)
		if err != nil {
			t.Fatalf("EncodeString(%q): %v", tc.s, err)
		}
		if tag != tc.wantTag {
			t.Errorf("EncodeString(%q) tag = %#x, want %#x", tc.s, tag, tc.wantTag)
		}
		if err := CheckTextStringData(data, tag); err != nil {
			t.Errorf("CheckTextStringData(%q): %v", tc.s, err)
		}
	}
}

// asn1Writer writes a character string with the given tag through the
// asn1 package, for tests that need to inspect the wire form.
func asn1Writer(t *testing.T, data []byte, tag byte) []byte {
	t.Helper()
	c := asn1.NewWriter()
	if err := asn1.WriteCharacterString(c, data, tag); err != nil {
		t.Fatalf("WriteCharacterString: %v", err)
	}
	return c.Bytes()
}
