package certverify

import (
	"github.com/letsencrypt/bercert/berrors"
	"github.com/letsencrypt/bercert/certcore"
)

// subjectIssuerID derives a cert-like subject's issuerID (spec §6.3) from
// its recovered pointers, the identifier a CRL entry or keyset indexes by.
func subjectIssuerID(subject *certcore.Info, hash certcore.Hash) ([20]byte, error) {
	if !subject.IssuerDN.Valid() || !subject.SerialNumber.Valid() {
		return [20]byte{}, berrors.NotInitialisedError("%s has no recovered issuerDN/serialNumber pointers", subject.Kind)
	}
	return certcore.IssuerID(hash, subject.IssuerDN.Slice(subject.Blob), subject.SerialNumber.Slice(subject.Blob))
}

// certsToCheck returns the individual certs a cert-like subject contains:
// itself for a plain cert/attribute cert, or every chain member for a
// chain (spec §4.6.2's "for a chain, check every cert in the chain").
func certsToCheck(subject *certcore.Info) []*certcore.Info {
	if subject.Kind == certcore.KindCertChain {
		return subject.Chain
	}
	return []*certcore.Info{subject}
}

// crlPath implements spec §4.6.2: match each cert's issuerID against the
// CRL's revocation list. The first match fails with the offending chain
// position recorded in the error detail.
func crlPath(subject *certcore.Info, crl *certcore.Info, ctx Context) error {
	if crl == nil || crl.Kind != certcore.KindCRL {
		return berrors.InvalidArgumentError("CRL verifier must carry a %s", certcore.KindCRL)
	}

	for pos, cert := range certsToCheck(subject) {
		id, err := subjectIssuerID(cert, ctx.Hash)
		if err != nil {
			return err
		}
		for _, entry := range crl.Entries {
			if entry.ID == id {
				return berrors.NewConstraint(berrors.LocusSubject, berrors.AttributeValue,
					"certificate at chain position %d is listed in the CRL", pos)
			}
		}
	}
	return nil
}

// keysetIssuerProbe implements the dispatch table's bare "issuerID probe
// in keyset" row: a cert/chain/attr.cert subject is valid iff every cert
// it contains has an entry in the keyset.
func keysetIssuerProbe(subject *certcore.Info, keyset certcore.Keyset, ctx Context) error {
	if keyset == nil {
		return berrors.InvalidArgumentError("keyset verifier requires a keyset")
	}
	for pos, cert := range certsToCheck(subject) {
		id, err := subjectIssuerID(cert, ctx.Hash)
		if err != nil {
			return err
		}
		ok, err := keyset.Contains(certcore.LookupIssuerID, id[:])
		if err != nil {
			return err
		}
		if !ok {
			return berrors.NewConstraint(berrors.LocusSubject, berrors.AttributeAbsent,
				"certificate at chain position %d has no issuerID entry in the keyset", pos)
		}
	}
	return nil
}
