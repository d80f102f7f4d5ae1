package asn1

import (
	"bytes"
	"testing"
	"time"
)

func TestWriteShortInteger127(t *testing.T) {
	c := NewWriter()
	if err := WriteShortInteger(c, 127, DefaultTag); err != nil {
		t.Fatalf("WriteShortInteger: %v", err)
	}
	want := []byte{0x02, 0x01, 0x7F}
	if !bytes.Equal(c.Bytes(), want) {
		t.Errorf("got % X, want % X", c.Bytes(), want)
	}
}

func TestWriteShortInteger128(t *testing.T) {
	c := NewWriter()
	if err := WriteShortInteger(c, 128, DefaultTag); err != nil {
		t.Fatalf("WriteShortInteger: %v", err)
	}
	want := []byte{0x02, 0x02, 0x00, 0x80}
	if !bytes.Equal(c.Bytes(), want) {
		t.Errorf("got % X, want % X", c.Bytes(), want)
	}
}

func TestReadBooleanFalse(t *testing.T) {
	c := NewReader([]byte{0x01, 0x01, 0x00})
	v, err := ReadBooleanTag(c, DefaultTag)
	if err != nil {
		t.Fatalf("ReadBooleanTag: %v", err)
	}
	if v != false {
		t.Errorf("got %v, want false", v)
	}
}

func TestReadBooleanTrue(t *testing.T) {
	c := NewReader([]byte{0x01, 0x01, 0xFF})
	v, err := ReadBooleanTag(c, DefaultTag)
	if err != nil {
		t.Fatalf("ReadBooleanTag: %v", err)
	}
	if v != true {
		t.Errorf("got %v, want true", v)
	}
}

func TestReadUTCTimeTwoDigitYear1999(t *testing.T) {
	data := append([]byte{0x17, 0x0D}, []byte("990101000000Z")...)
	c := NewReader(data)
	got, err := ReadUTCTimeTag(c, DefaultTag)
	if err != nil {
		t.Fatalf("ReadUTCTimeTag: %v", err)
	}
	want := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestReadUTCTimeTwoDigitYear2000(t *testing.T) {
	data := append([]byte{0x17, 0x0D}, []byte("000101000000Z")...)
	c := NewReader(data)
	got, err := ReadUTCTimeTag(c, DefaultTag)
	if err != nil {
		t.Fatalf("ReadUTCTimeTag: %v", err)
	}
	want := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestBooleanRoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		w := NewWriter()
		if err := WriteBoolean(w, v, DefaultTag); err != nil {
			t.Fatalf("WriteBoolean(%v): %v", v, err)
		}
		r := NewReader(w.Bytes())
		got, err := ReadBooleanTag(r, DefaultTag)
		if err != nil {
			t.Fatalf("ReadBooleanTag(%v): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %v: got %v", v, got)
		}
	}
}

func TestShortIntegerRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, 127, 128, 255, 256, 32767, 32768, 1 << 30} {
		w := NewWriter()
		if err := WriteShortInteger(w, v, DefaultTag); err != nil {
			t.Fatalf("WriteShortInteger(%d): %v", v, err)
		}
		r := NewReader(w.Bytes())
		got, err := ReadShortIntegerTag(r, DefaultTag)
		if err != nil {
			t.Fatalf("ReadShortIntegerTag(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
}

func TestIntegerBignumRoundTrip(t *testing.T) {
	cases := [][]byte{
		{0x00},
		{0x7F},
		{0x80},
		{0x01, 0x00, 0x00, 0x00, 0x01},
		{0xFF, 0xFF, 0xFF},
	}
	for _, v := range cases {
		w := NewWriter()
		if err := WriteInteger(w, v, DefaultTag); err != nil {
			t.Fatalf("WriteInteger(% X): %v", v, err)
		}
		r := NewReader(w.Bytes())
		got, err := ReadIntegerTag(r, DefaultTag)
		if err != nil {
			t.Fatalf("ReadIntegerTag(% X): %v", v, err)
		}
		wantStripped := v
		for len(wantStripped) > 1 && wantStripped[0] == 0 {
			wantStripped = wantStripped[1:]
		}
		if !bytes.Equal(got, wantStripped) {
			t.Errorf("round trip % X: got % X, want % X", v, got, wantStripped)
		}
	}
}

func TestOctetStringRoundTrip(t *testing.T) {
	data := []byte("hello, certificate")
	w := NewWriter()
	if err := WriteOctetString(w, data, DefaultTag); err != nil {
		t.Fatalf("WriteOctetString: %v", err)
	}
	r := NewReader(w.Bytes())
	got, err := ReadOctetStringTag(r, DefaultTag)
	if err != nil {
		t.Fatalf("ReadOctetStringTag: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("got % X, want % X", got, data)
	}
}

func TestConstructedOctetStringUnwraps(t *testing.T) {
	// 24 80 (constructed, indefinite) 04 02 'h' 'i' 04 03 't' 'h' 'e' 00 00
	data := []byte{
		0x24, 0x80,
		0x04, 0x02, 'h', 'i',
		0x04, 0x03, 't', 'h', 'e',
		0x00, 0x00,
	}
	c := NewReader(data)
	got, err := ReadOctetStringTag(c, DefaultTag)
	if err != nil {
		t.Fatalf("ReadOctetStringTag: %v", err)
	}
	want := []byte("hithe")
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBitStringRoundTrip(t *testing.T) {
	bs := BitString{Bytes: []byte{0xF0}, UnusedBits: 4}
	w := NewWriter()
	if err := WriteBitStringTag(w, bs, DefaultTag); err != nil {
		t.Fatalf("WriteBitStringTag: %v", err)
	}
	r := NewReader(w.Bytes())
	got, err := ReadBitStringTag(r, DefaultTag)
	if err != nil {
		t.Fatalf("ReadBitStringTag: %v", err)
	}
	if got.UnusedBits != bs.UnusedBits || !bytes.Equal(got.Bytes, bs.Bytes) {
		t.Errorf("got %+v, want %+v", got, bs)
	}
}

func TestBitStringRejectsTooManyUnusedBits(t *testing.T) {
	c := NewReader([]byte{0x03, 0x02, 0x08, 0xFF})
	if _, err := ReadBitStringTag(c, DefaultTag); err == nil {
		t.Fatal("expected error for unused-bits count of 8")
	}
}

func TestNullRoundTrip(t *testing.T) {
	w := NewWriter()
	if err := WriteNull(w, DefaultTag); err != nil {
		t.Fatalf("WriteNull: %v", err)
	}
	r := NewReader(w.Bytes())
	if err := ReadNullTag(r, DefaultTag); err != nil {
		t.Fatalf("ReadNullTag: %v", err)
	}
}

func TestGeneralizedTimeRoundTrip(t *testing.T) {
	epoch := time.Date(2030, 6, 15, 13, 45, 9, 0, time.UTC).Unix()
	w := NewWriter()
	if err := WriteGeneralizedTime(w, epoch, DefaultTag); err != nil {
		t.Fatalf("WriteGeneralizedTime: %v", err)
	}
	r := NewReader(w.Bytes())
	got, err := ReadGeneralizedTimeTag(r, DefaultTag)
	if err != nil {
		t.Fatalf("ReadGeneralizedTimeTag: %v", err)
	}
	if got != epoch {
		t.Errorf("got %d, want %d", got, epoch)
	}
}

func TestSinkAgreesWithWriterLength(t *testing.T) {
	sink := NewSink()
	if err := WriteInteger(sink, []byte{0xFF, 0xFF, 0xFF, 0xFF}, DefaultTag); err != nil {
		t.Fatalf("sink WriteInteger: %v", err)
	}
	w := NewWriter()
	if err := WriteInteger(w, []byte{0xFF, 0xFF, 0xFF, 0xFF}, DefaultTag); err != nil {
		t.Fatalf("writer WriteInteger: %v", err)
	}
	if sink.Position() != len(w.Bytes()) {
		t.Errorf("sink reported %d bytes, writer produced %d", sink.Position(), len(w.Bytes()))
	}
}

func TestCanonicalEncodingIsDeterministic(t *testing.T) {
	w1 := NewWriter()
	w2 := NewWriter()
	bs := BitString{Bytes: []byte{0x01, 0x02, 0x03}, UnusedBits: 0}
	if err := WriteBitStringTag(w1, bs, DefaultTag); err != nil {
		t.Fatalf("w1: %v", err)
	}
	if err := WriteBitStringTag(w2, bs, DefaultTag); err != nil {
		t.Fatalf("w2: %v", err)
	}
	if !bytes.Equal(w1.Bytes(), w2.Bytes()) {
		t.Errorf("non-deterministic encoding: % X vs % X", w1.Bytes(), w2.Bytes())
	}
}

func TestStickyErrorShortCircuits(t *testing.T) {
	c := NewReader([]byte{0x02, 0x05, 0x01}) // length 5 but only 1 content byte present
	if _, err := ReadIntegerTag(c, DefaultTag); err == nil {
		t.Fatal("expected an error from the truncated INTEGER")
	}
	first := c.Err()
	if _, err := ReadIntegerTag(c, DefaultTag); err != first {
		t.Errorf("second read returned a different error: %v vs %v", err, first)
	}
}

func TestSavePositionRestoreClearsError(t *testing.T) {
	c := NewReader([]byte{0x05, 0x00, 0x02, 0x01, 0x05})
	mark := c.SavePosition()
	if err := ReadNullTag(c, DefaultTag); err != nil {
		t.Fatalf("ReadNullTag: %v", err)
	}
	// force an error, then restore and confirm it clears
	if _, err := ReadBooleanTag(c, DefaultTag); err == nil {
		t.Fatal("expected an error reading a BOOLEAN from an INTEGER tag")
	}
	c.RestorePosition(mark)
	if c.Err() != nil {
		t.Fatalf("expected Err() == nil after RestorePosition, got %v", c.Err())
	}
	if err := ReadNullTag(c, DefaultTag); err != nil {
		t.Fatalf("re-read after restore failed: %v", err)
	}
}

func TestDefaultTagRejectsWrongNaturalTag(t *testing.T) {
	// An INTEGER's encoding read as a BOOLEAN must fail, not silently
	// accept the mismatched tag.
	c := NewReader([]byte{0x02, 0x01, 0x7F})
	if _, err := ReadBooleanTag(c, DefaultTag); err == nil {
		t.Fatal("expected BadData reading an INTEGER's bytes as a BOOLEAN")
	}
}

func TestOverflowOnOversizedLengthField(t *testing.T) {
	// 8.3: a length field of FF FF FF FF FF FF FF FF on a short read must
	// return Overflow, not wrap around to a small value.
	data := append([]byte{0x04, 0x88}, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}...)
	c := NewReader(data)
	if _, err := ReadOctetStringTag(c, DefaultTag); err == nil {
		t.Fatal("expected an Overflow error")
	}
}
