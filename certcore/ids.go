package certcore

import (
	"github.com/letsencrypt/bercert/asn1"
)

// NameID is the SHA-1 of an encoded distinguished name (spec §6.3). dn must
// be the full DER TLV encoding of the Name SEQUENCE, not its bare content.
func NameID(h Hash, dn []byte) [20]byte {
	h.Update(dn)
	return h.Finalize()
}

// IssuerID is the SHA-1 of `SEQUENCE { issuerDN, serialNumber }` (spec
// §6.3), where issuerDN and serialNumber are each the full DER TLV
// encoding already present in an Info's Blob (an IssuerDN/SerialNumber
// BlobRange slice, typically). IssuerID builds the wrapping SEQUENCE
// header itself rather than requiring the caller to pre-concatenate it.
func IssuerID(h Hash, issuerDN, serialNumber []byte) ([20]byte, error) {
	wrapped, err := wrapSequence(issuerDN, serialNumber)
	if err != nil {
		return [20]byte{}, err
	}
	h.Update(wrapped)
	return h.Finalize(), nil
}

// CertID is the SHA-1 of the full encoded certificate (spec §6.3), used as
// the OCSP/RTCS response lookup key against a Keyset.
func CertID(h Hash, certBlob []byte) [20]byte {
	h.Update(certBlob)
	return h.Finalize()
}

// wrapSequence wraps already-encoded TLV children in a SEQUENCE header.
func wrapSequence(children ...[]byte) ([]byte, error) {
	contentLen := 0
	for _, child := range children {
		contentLen += len(child)
	}

	w := asn1.NewWriter()
	if err := asn1.WriteSequence(w, contentLen); err != nil {
		return nil, err
	}
	for _, child := range children {
		if err := w.PutAll(child); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}
