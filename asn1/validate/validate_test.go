package validate

import (
	"testing"
)

func TestObjectEncodingIndefiniteSequence(t *testing.T) {
	data := []byte{0x30, 0x80, 0x02, 0x01, 0x01, 0x00, 0x00}
	n, err := ObjectEncoding(data)
	if err != nil {
		t.Fatalf("ObjectEncoding: %v", err)
	}
	if n != 7 {
		t.Errorf("got %d, want 7", n)
	}
}

func TestObjectEncodingDefiniteSequence(t *testing.T) {
	data := []byte{0x30, 0x03, 0x02, 0x01, 0x01}
	n, err := ObjectEncoding(data)
	if err != nil {
		t.Fatalf("ObjectEncoding: %v", err)
	}
	if n != 5 {
		t.Errorf("got %d, want 5", n)
	}
}

func TestObjectEncodingRejectsExcessiveNesting(t *testing.T) {
	const depth = MaxNestingDepth + 5
	encoded := []byte{0x05, 0x00} // innermost: NULL
	for i := 0; i < depth; i++ {
		wrapped := make([]byte, 0, len(encoded)+2)
		wrapped = append(wrapped, 0x30, byte(len(encoded)))
		wrapped = append(wrapped, encoded...)
		encoded = wrapped
	}
	if _, err := ObjectEncoding(encoded); err == nil {
		t.Fatal("expected BadData for nesting beyond the bound")
	}
}

func TestObjectEncodingRejectsUnsupportedTagNumber(t *testing.T) {
	data := []byte{0x1F, 0x80, 0x01, 0x00} // high-tag-number form
	if _, err := ObjectEncoding(data); err == nil {
		t.Fatal("expected an error for a high-tag-number encoding")
	}
}

func TestObjectEncodingNeverPanicsOnRandomBytes(t *testing.T) {
	samples := [][]byte{
		{},
		{0xFF},
		{0x30, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{0x04, 0x88, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{0x30, 0x80, 0x30, 0x80},
	}
	for _, s := range samples {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("ObjectEncoding panicked on % X: %v", s, r)
				}
			}()
			if n, err := ObjectEncoding(s); err == nil && n > len(s) {
				t.Errorf("ObjectEncoding(% X) returned length %d > input length %d", s, n, len(s))
			}
		}()
	}
}

func TestSubjectPublicKeyInfoHoleDetected(t *testing.T) {
	// SEQUENCE { SEQUENCE { OID, NULL }, BIT STRING { 00, SEQUENCE { INTEGER 1 } } }
	algID := []byte{
		0x30, 0x07, // SEQUENCE, len 7
		0x06, 0x03, 0x2A, 0x03, 0x04, // arbitrary 3-byte OID
		0x05, 0x00, // NULL
	}
	innerSeq := []byte{0x30, 0x03, 0x02, 0x01, 0x01} // SEQUENCE { INTEGER 1 }
	bitString := append([]byte{0x03, byte(1 + len(innerSeq)), 0x00}, innerSeq...)
	spki := append([]byte{0x30, byte(len(algID) + len(bitString))}, algID...)
	spki = append(spki, bitString...)

	n, err := ObjectEncoding(spki)
	if err != nil {
		t.Fatalf("ObjectEncoding: %v", err)
	}
	if n != len(spki) {
		t.Errorf("got %d, want %d", n, len(spki))
	}
}

func TestOversizedLengthReturnsOverflowNotWraparound(t *testing.T) {
	data := []byte{0x04, 0x88, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	n, err := ObjectEncoding(data)
	if err == nil {
		t.Fatalf("expected Overflow, got length %d", n)
	}
}

func TestSavePositionRestoreUsedByProbe(t *testing.T) {
	// A BIT STRING in hole-candidate position whose body does not parse as
	// a hole must still validate as an opaque bit string, proving the
	// speculative probe's error does not leak into the surrounding walk.
	data := []byte{
		0x30, 0x0D, // SEQUENCE, len 13
		0x30, 0x07, 0x06, 0x03, 0x2A, 0x03, 0x04, 0x05, 0x00, // SEQUENCE { OID, NULL }
		0x03, 0x02, 0x00, 0xFF, // BIT STRING whose body is not a SEQUENCE
	}
	if _, err := ObjectEncoding(data); err != nil {
		t.Fatalf("ObjectEncoding: %v", err)
	}
}
