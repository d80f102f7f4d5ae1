package certsign

import (
	"github.com/letsencrypt/bercert/asn1"
	"github.com/letsencrypt/bercert/certcore"
)

// WrapperFormat selects which signature-wrapper shape step 7 produces
// (spec §4.5 step 7, §6.2).
type WrapperFormat int

const (
	// WrapperStandard is SEQUENCE { tbs, algorithmIdentifier, BIT STRING
	// signature } — used by every type except CRMF and OCSP requests.
	WrapperStandard WrapperFormat = iota
	// WrapperCRMF is the non-standard wrapper distinguishing proof-of-
	// possession (formatInfo = 1).
	WrapperCRMF
	// WrapperOCSP is the RFC 2560 wrapper (formatInfo = 0 | 0x80).
	WrapperOCSP
)

// wrapStandardSignature builds SEQUENCE { tbs, algorithmIdentifier,
// signature } where tbs is written verbatim (it is already a full TLV) and
// signature is wrapped as a BIT STRING with zero unused bits.
func wrapStandardSignature(tbs []byte, alg certcore.AlgorithmID, signature []byte) ([]byte, error) {
	sigAlgLen := algorithmIdentifierLen(alg)
	sigBitStringLen := asn1.SizeofObject(1 + len(signature))
	contentLen := len(tbs) + sigAlgLen + sigBitStringLen

	w := asn1.NewWriter()
	if err := asn1.WriteSequence(w, contentLen); err != nil {
		return nil, err
	}
	if err := w.PutAll(tbs); err != nil {
		return nil, err
	}
	if err := writeAlgorithmIdentifier(w, alg); err != nil {
		return nil, err
	}
	if err := asn1.WriteBitStringTag(w, asn1.BitString{Bytes: signature}, asn1.DefaultTag); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// wrapCRMFSignature wraps a CRMF (REQUEST_CERT) TBS body with the
// formatInfo = 1 marker byte ahead of the standard triple, distinguishing
// proof-of-possession from a bare certification request (spec §6.2).
func wrapCRMFSignature(tbs []byte, alg certcore.AlgorithmID, signature []byte) ([]byte, error) {
	inner, err := wrapStandardSignature(tbs, alg, signature)
	if err != nil {
		return nil, err
	}
	const formatInfo = 1
	return append([]byte{formatInfo}, inner...), nil
}

// wrapOCSPSignature wraps an OCSP request's TBS body with the formatInfo =
// 0x80 marker (spec §6.2): bit 7 set distinguishes the OCSP variant from
// the plain standard wrapper, bits 0-6 (0) carry no further information for
// a request.
func wrapOCSPSignature(tbs []byte, alg certcore.AlgorithmID, signature []byte) ([]byte, error) {
	inner, err := wrapStandardSignature(tbs, alg, signature)
	if err != nil {
		return nil, err
	}
	const formatInfo = 0x80
	return append([]byte{formatInfo}, inner...), nil
}
