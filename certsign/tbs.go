package certsign

import (
	"github.com/letsencrypt/bercert/asn1"
	"github.com/letsencrypt/bercert/certcore"
)

// CertificateParams is the caller-supplied material spec §4.5 step 6's
// TBSCertificate writer needs. Unlike certcore.Info's pointers (which are
// None until after signing, spec §3.5), these are raw already-encoded TLV
// blobs the caller assembled from its own attribute storage — this core
// does not model individual DN/extension attributes, only the signed
// result (spec §3.5's Non-goal boundary).
type CertificateParams struct {
	SerialNumber       []byte // INTEGER content bytes, minimal, no sign byte needed if positive
	IssuerDN           []byte // full Name SEQUENCE TLV
	SubjectDN          []byte // full Name SEQUENCE TLV
	PublicKeyInfo      []byte // full SubjectPublicKeyInfo SEQUENCE TLV
	SignatureAlgorithm certcore.AlgorithmID
	NotBefore          int64
	NotAfter           int64

	// Extensions holds zero or more already-encoded Extension SEQUENCE
	// TLVs (e.g. an SCT-list extension built by SCTListExtension). A
	// non-empty Extensions forces the v3 version field to be written,
	// since the extensions field itself is v3-only (RFC 5280 §4.1).
	Extensions [][]byte
}

// CertRequestParams is the caller-supplied material for a PKCS#10-style
// CertificationRequestInfo (spec §4.5's CertRequest kind): the subject's
// own key signs its own subject DN and public key to prove possession,
// carrying no issuer at all (spec §4.6.1, "a cert request is implicitly
// self-signed").
type CertRequestParams struct {
	SubjectDN          []byte // full Name SEQUENCE TLV
	PublicKeyInfo      []byte // full SubjectPublicKeyInfo SEQUENCE TLV
	SignatureAlgorithm certcore.AlgorithmID

	// Attributes holds zero or more already-encoded Attribute SEQUENCE
	// TLVs, wrapped in the request's `[0] IMPLICIT SET` attributes field.
	Attributes [][]byte
}

// CRLParams is the analogous staging struct for a CRL's TBSCertList.
type CRLParams struct {
	IssuerDN           []byte
	SignatureAlgorithm certcore.AlgorithmID
	ThisUpdate         int64
	NextUpdate         int64
	RevokedSerials     [][]byte // each a raw INTEGER content, one per entry
}

// writeAlgorithmIdentifier writes SEQUENCE { oid, NULL | absent } (spec
// §3.6).
func writeAlgorithmIdentifier(c *asn1.Cursor, alg certcore.AlgorithmID) error {
	contentLen := len(alg.OID)
	if alg.HasNullParams {
		contentLen += asn1.SizeofObject(0)
	}
	if err := asn1.WriteSequence(c, contentLen); err != nil {
		return err
	}
	if err := asn1.WriteOID(c, alg.OID); err != nil {
		return err
	}
	if alg.HasNullParams {
		if err := asn1.WriteNull(c, asn1.DefaultTag); err != nil {
			return err
		}
	}
	return nil
}

func algorithmIdentifierLen(alg certcore.AlgorithmID) int {
	contentLen := len(alg.OID)
	if alg.HasNullParams {
		contentLen += asn1.SizeofObject(0)
	}
	return asn1.SizeofObject(contentLen)
}

// writeCertificateTBS writes the TBSCertificate SEQUENCE (spec §4.5 step
// 6): an optional `[0] EXPLICIT Version` (omitted for v1, the implicit
// default, unless Extensions is non-empty), serialNumber, signature
// AlgorithmIdentifier, issuer, validity, subject, subjectPublicKeyInfo, and
// an optional `[3] EXPLICIT Extensions` field (v3 only).
func writeCertificateTBS(p CertificateParams) ([]byte, error) {
	v3 := len(p.Extensions) > 0

	var versionLen int
	if v3 {
		versionLen = asn1.SizeofObject(asn1.SizeofShortInteger(2))
	}
	serialLen := asn1.SizeofObject(len(p.SerialNumber))
	sigAlgLen := algorithmIdentifierLen(p.SignatureAlgorithm)
	issuerLen := len(p.IssuerDN)
	subjectLen := len(p.SubjectDN)
	spkiLen := len(p.PublicKeyInfo)

	// Validity ::= SEQUENCE { notBefore Time, notAfter Time }, each a
	// UTCTime (tag+len+13 for a 2-digit-year UTCTime, the default this
	// core's asn1.WriteUTCTime produces).
	notBeforeLen := asn1.SizeofObject(13)
	notAfterLen := asn1.SizeofObject(13)
	validityContentLen := notBeforeLen + notAfterLen
	validityLen := asn1.SizeofObject(validityContentLen)

	var extensionsLen int
	extensionsContentLen := 0
	if v3 {
		for _, ext := range p.Extensions {
			extensionsContentLen += len(ext)
		}
		extensionsLen = asn1.SizeofObject(asn1.SizeofObject(extensionsContentLen))
	}

	tbsContentLen := versionLen + serialLen + sigAlgLen + issuerLen + validityLen + subjectLen + spkiLen + extensionsLen

	w := asn1.NewWriter()
	if err := asn1.WriteSequence(w, tbsContentLen); err != nil {
		return nil, err
	}
	if v3 {
		if err := asn1.WriteConstructed(w, asn1.SizeofShortInteger(2), 0); err != nil {
			return nil, err
		}
		if err := asn1.WriteShortInteger(w, 2, asn1.DefaultTag); err != nil {
			return nil, err
		}
	}
	if err := asn1.WriteInteger(w, p.SerialNumber, asn1.DefaultTag); err != nil {
		return nil, err
	}
	if err := writeAlgorithmIdentifier(w, p.SignatureAlgorithm); err != nil {
		return nil, err
	}
	if err := w.PutAll(p.IssuerDN); err != nil {
		return nil, err
	}
	if err := asn1.WriteSequence(w, validityContentLen); err != nil {
		return nil, err
	}
	if err := asn1.WriteUTCTime(w, p.NotBefore, asn1.DefaultTag); err != nil {
		return nil, err
	}
	if err := asn1.WriteUTCTime(w, p.NotAfter, asn1.DefaultTag); err != nil {
		return nil, err
	}
	if err := w.PutAll(p.SubjectDN); err != nil {
		return nil, err
	}
	if err := w.PutAll(p.PublicKeyInfo); err != nil {
		return nil, err
	}
	if v3 {
		if err := asn1.WriteConstructed(w, asn1.SizeofObject(extensionsContentLen), 3); err != nil {
			return nil, err
		}
		if err := asn1.WriteSequence(w, extensionsContentLen); err != nil {
			return nil, err
		}
		for _, ext := range p.Extensions {
			if err := w.PutAll(ext); err != nil {
				return nil, err
			}
		}
	}
	return w.Bytes(), nil
}

// writeCertRequestTBS writes a PKCS#10 CertificationRequestInfo SEQUENCE:
// version INTEGER(0), subject, subjectPKInfo, and a `[0] IMPLICIT SET`
// attributes field (empty when Attributes is nil).
func writeCertRequestTBS(p CertRequestParams) ([]byte, error) {
	versionLen := asn1.SizeofShortInteger(0)
	subjectLen := len(p.SubjectDN)
	spkiLen := len(p.PublicKeyInfo)

	attrContentLen := 0
	for _, a := range p.Attributes {
		attrContentLen += len(a)
	}
	attrLen := asn1.SizeofObject(attrContentLen)

	tbsContentLen := versionLen + subjectLen + spkiLen + attrLen

	w := asn1.NewWriter()
	if err := asn1.WriteSequence(w, tbsContentLen); err != nil {
		return nil, err
	}
	if err := asn1.WriteShortInteger(w, 0, asn1.DefaultTag); err != nil {
		return nil, err
	}
	if err := w.PutAll(p.SubjectDN); err != nil {
		return nil, err
	}
	if err := w.PutAll(p.PublicKeyInfo); err != nil {
		return nil, err
	}
	if err := asn1.WriteConstructed(w, attrContentLen, 0); err != nil {
		return nil, err
	}
	for _, a := range p.Attributes {
		if err := w.PutAll(a); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// writeCRLTBS writes a minimal TBSCertList: signature AlgorithmIdentifier,
// issuer, thisUpdate, nextUpdate, and, when RevokedSerials is non-empty, a
// revokedCertificates SEQUENCE OF SEQUENCE { userCertificate,
// revocationDate }, each revocationDate being thisUpdate.
func writeCRLTBS(p CRLParams) ([]byte, error) {
	sigAlgLen := algorithmIdentifierLen(p.SignatureAlgorithm)
	issuerLen := len(p.IssuerDN)
	thisUpdateLen := asn1.SizeofObject(13)
	nextUpdateLen := asn1.SizeofObject(13)

	revokedContentLen := 0
	for _, serial := range p.RevokedSerials {
		entryContentLen := asn1.SizeofObject(len(serial)) + asn1.SizeofObject(13)
		revokedContentLen += asn1.SizeofObject(entryContentLen)
	}

	tbsContentLen := sigAlgLen + issuerLen + thisUpdateLen + nextUpdateLen
	hasRevoked := len(p.RevokedSerials) > 0
	if hasRevoked {
		tbsContentLen += asn1.SizeofObject(revokedContentLen)
	}

	w := asn1.NewWriter()
	if err := asn1.WriteSequence(w, tbsContentLen); err != nil {
		return nil, err
	}
	if err := writeAlgorithmIdentifier(w, p.SignatureAlgorithm); err != nil {
		return nil, err
	}
	if err := w.PutAll(p.IssuerDN); err != nil {
		return nil, err
	}
	if err := asn1.WriteUTCTime(w, p.ThisUpdate, asn1.DefaultTag); err != nil {
		return nil, err
	}
	if err := asn1.WriteUTCTime(w, p.NextUpdate, asn1.DefaultTag); err != nil {
		return nil, err
	}
	if hasRevoked {
		if err := asn1.WriteSequence(w, revokedContentLen); err != nil {
			return nil, err
		}
		for _, serial := range p.RevokedSerials {
			entryContentLen := asn1.SizeofObject(len(serial)) + asn1.SizeofObject(13)
			if err := asn1.WriteSequence(w, entryContentLen); err != nil {
				return nil, err
			}
			if err := asn1.WriteInteger(w, serial, asn1.DefaultTag); err != nil {
				return nil, err
			}
			if err := asn1.WriteUTCTime(w, p.ThisUpdate, asn1.DefaultTag); err != nil {
				return nil, err
			}
		}
	}
	return w.Bytes(), nil
}
