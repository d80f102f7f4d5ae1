package certcore

import (
	"golang.org/x/crypto/cryptobyte"
	casn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/letsencrypt/bercert/berrors"
)

// tagContext0Constructed is the TBSCertificate's `[0] EXPLICIT Version`
// field tag, the one optional element recovery must skip over.
var tagContext0Constructed = casn1.Tag(0).Constructed().ContextSpecific()

// walker tracks the absolute offset into the owning blob of the start of
// the cryptobyte.String it is currently consuming from, so each captured
// field can be reported as a BlobRange into the original buffer instead of
// a freshly sliced copy (spec §4.7, §9.1).
type walker struct {
	pos int
}

// element reads one full TLV (header and content) matching tag and returns
// its BlobRange within the blob the walker was seeded from.
func (w *walker) element(s *cryptobyte.String, tag casn1.Tag) (BlobRange, error) {
	before := len(*s)
	var out cryptobyte.String
	if !s.ReadASN1Element(&out, tag) {
		return BlobRange{}, berrors.BadDataError("expected tag %v while recovering pointers", tag)
	}
	r := BlobRange{Offset: w.pos, Length: len(out)}
	w.pos += before - len(*s)
	return r, nil
}

// content reads one TLV matching tag, descends into its content, and
// returns that content as a new cryptobyte.String the caller can continue
// walking — the walker's offset is advanced past the consumed header so
// the returned string's own absolute start is w.pos at the point of return.
func (w *walker) content(s *cryptobyte.String, tag casn1.Tag) (cryptobyte.String, error) {
	before := len(*s)
	var body cryptobyte.String
	if !s.ReadASN1(&body, tag) {
		return nil, berrors.BadDataError("expected tag %v while recovering pointers", tag)
	}
	headerLen := before - len(*s) - len(body)
	w.pos += headerLen
	return body, nil
}

// skip consumes and discards one TLV matching tag, advancing past both its
// header and content.
func (w *walker) skip(s *cryptobyte.String, tag casn1.Tag) error {
	before := len(*s)
	var out cryptobyte.String
	if !s.ReadASN1Element(&out, tag) {
		return berrors.BadDataError("expected tag %v while recovering pointers", tag)
	}
	w.pos += before - len(*s)
	return nil
}

// RecoveredPointers carries the offsets recovery derives from a freshly
// signed or freshly imported blob (spec §4.7).
type RecoveredPointers struct {
	IssuerDN      BlobRange
	SubjectDN     BlobRange
	PublicKeyInfo BlobRange
	SerialNumber  BlobRange
}

// RecoverPointers re-derives the offset/length fields an Info needs after
// its Blob is set, by walking the ASN.1 structure without copying data
// (spec §4.7). The walk performed depends on Kind; unsupported kinds
// (pseudo-signed types carrying no DN/SPKI structure) return the zero
// value with no error.
func RecoverPointers(kind Kind, blob []byte) (RecoveredPointers, error) {
	switch kind {
	case KindCertificate, KindAttributeCert:
		return recoverCertificatePointers(blob)
	case KindCRL:
		return recoverCRLPointers(blob)
	case KindCertRequest, KindCRMFRequest:
		return recoverRequestPointers(blob)
	case KindPKIUser:
		return recoverPKIUserPointers(blob)
	default:
		return RecoveredPointers{}, nil
	}
}

// recoverCertificatePointers walks:
// outer SEQUENCE -> TBS SEQUENCE -> skip optional [0] version -> capture
// serial -> skip sigAlg -> capture issuer -> skip validity -> capture
// subject -> capture SPKI (spec §4.7's named walk).
func recoverCertificatePointers(blob []byte) (RecoveredPointers, error) {
	w := &walker{}
	input := cryptobyte.String(blob)

	certBody, err := w.content(&input, casn1.SEQUENCE)
	if err != nil {
		return RecoveredPointers{}, err
	}
	tbs, err := w.content(&certBody, casn1.SEQUENCE)
	if err != nil {
		return RecoveredPointers{}, err
	}

	if tbs.PeekASN1Tag(tagContext0Constructed) {
		if err := w.skip(&tbs, tagContext0Constructed); err != nil {
			return RecoveredPointers{}, err
		}
	}

	serial, err := w.element(&tbs, casn1.INTEGER)
	if err != nil {
		return RecoveredPointers{}, err
	}
	if err := w.skip(&tbs, casn1.SEQUENCE); err != nil { // signature AlgorithmIdentifier
		return RecoveredPointers{}, err
	}
	issuer, err := w.element(&tbs, casn1.SEQUENCE)
	if err != nil {
		return RecoveredPointers{}, err
	}
	if err := w.skip(&tbs, casn1.SEQUENCE); err != nil { // validity
		return RecoveredPointers{}, err
	}
	subject, err := w.element(&tbs, casn1.SEQUENCE)
	if err != nil {
		return RecoveredPointers{}, err
	}
	spki, err := w.element(&tbs, casn1.SEQUENCE)
	if err != nil {
		return RecoveredPointers{}, err
	}

	return RecoveredPointers{
		IssuerDN:      issuer,
		SubjectDN:     subject,
		PublicKeyInfo: spki,
		SerialNumber:  serial,
	}, nil
}

// recoverCRLPointers walks outer SEQUENCE -> TBS SEQUENCE -> skip optional
// version INTEGER -> skip sigAlg -> capture issuer. A CRL has no subject or
// SPKI; only the issuer name is needed to derive its issuerID.
func recoverCRLPointers(blob []byte) (RecoveredPointers, error) {
	w := &walker{}
	input := cryptobyte.String(blob)

	certBody, err := w.content(&input, casn1.SEQUENCE)
	if err != nil {
		return RecoveredPointers{}, err
	}
	tbs, err := w.content(&certBody, casn1.SEQUENCE)
	if err != nil {
		return RecoveredPointers{}, err
	}

	if tbs.PeekASN1Tag(casn1.INTEGER) {
		if err := w.skip(&tbs, casn1.INTEGER); err != nil {
			return RecoveredPointers{}, err
		}
	}
	if err := w.skip(&tbs, casn1.SEQUENCE); err != nil { // signature AlgorithmIdentifier
		return RecoveredPointers{}, err
	}
	issuer, err := w.element(&tbs, casn1.SEQUENCE)
	if err != nil {
		return RecoveredPointers{}, err
	}

	return RecoveredPointers{IssuerDN: issuer}, nil
}

// recoverRequestPointers walks a PKCS#10/CRMF CertificationRequestInfo:
// outer SEQUENCE -> CertificationRequestInfo SEQUENCE -> skip version
// INTEGER -> capture subject -> capture SPKI. Both request kinds share this
// shape; a CRMF request's SubjectPublicKeyInfo field uses the non-standard
// `[6]` IMPLICIT tag the original notes (spec §4.5 step 9) — recovery
// accepts either the standard SEQUENCE tag or that context tag.
func recoverRequestPointers(blob []byte) (RecoveredPointers, error) {
	w := &walker{}
	input := cryptobyte.String(blob)

	outer, err := w.content(&input, casn1.SEQUENCE)
	if err != nil {
		return RecoveredPointers{}, err
	}
	reqInfo, err := w.content(&outer, casn1.SEQUENCE)
	if err != nil {
		return RecoveredPointers{}, err
	}
	if err := w.skip(&reqInfo, casn1.INTEGER); err != nil {
		return RecoveredPointers{}, err
	}
	subject, err := w.element(&reqInfo, casn1.SEQUENCE)
	if err != nil {
		return RecoveredPointers{}, err
	}

	spkiTag := casn1.SEQUENCE
	tagCRMFKey := casn1.Tag(6).Constructed().ContextSpecific()
	if reqInfo.PeekASN1Tag(tagCRMFKey) {
		spkiTag = tagCRMFKey
	}
	spki, err := w.element(&reqInfo, spkiTag)
	if err != nil {
		return RecoveredPointers{}, err
	}

	return RecoveredPointers{SubjectDN: subject, PublicKeyInfo: spki}, nil
}

// recoverPKIUserPointers recovers only the subject DN (spec §4.5 step 9:
// "for PKI user info only the subject DN is recovered"), assuming the same
// leading SEQUENCE{version, subject, ...} shape as a certification request.
func recoverPKIUserPointers(blob []byte) (RecoveredPointers, error) {
	w := &walker{}
	input := cryptobyte.String(blob)

	outer, err := w.content(&input, casn1.SEQUENCE)
	if err != nil {
		return RecoveredPointers{}, err
	}
	if outer.PeekASN1Tag(casn1.INTEGER) {
		if err := w.skip(&outer, casn1.INTEGER); err != nil {
			return RecoveredPointers{}, err
		}
	}
	subject, err := w.element(&outer, casn1.SEQUENCE)
	if err != nil {
		return RecoveredPointers{}, err
	}

	return RecoveredPointers{SubjectDN: subject}, nil
}

// Shift adds delta to every populated range's offset, for a caller that
// recovered pointers against a sub-slice of the blob it ultimately stores
// (e.g. a signature-wrapper variant with a leading marker byte, spec §6.2).
func (p *RecoveredPointers) Shift(delta int) {
	for _, r := range []*BlobRange{&p.IssuerDN, &p.SubjectDN, &p.PublicKeyInfo, &p.SerialNumber} {
		if r.Valid() {
			r.Offset += delta
		}
	}
}

// Apply copies the recovered pointers onto info.
func (p RecoveredPointers) Apply(info *Info) {
	info.IssuerDN = p.IssuerDN
	info.SubjectDN = p.SubjectDN
	info.PublicKeyInfo = p.PublicKeyInfo
	info.SerialNumber = p.SerialNumber
}
