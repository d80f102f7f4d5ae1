package certverify

import (
	"bytes"

	"github.com/letsencrypt/bercert/asn1"
	"github.com/letsencrypt/bercert/berrors"
	"github.com/letsencrypt/bercert/certcore"
)

// resolvePublicKey returns info's public-key collaborator, constructing it
// from the recovered SPKI pointer on first use and caching the result
// (spec §4.7's "after recovery ... the public-key context is constructed
// from the captured SPKI", done lazily here rather than inside
// certcore.RecoverPointers itself since that package has no
// PublicKeyFactory collaborator to call — see DESIGN.md).
func resolvePublicKey(info *certcore.Info, factory certcore.PublicKeyFactory) (certcore.PublicKey, error) {
	if info.SubjectPublicKey != nil {
		return info.SubjectPublicKey, nil
	}
	if !info.PublicKeyInfo.Valid() {
		return nil, berrors.NotInitialisedError("%s has no recovered SubjectPublicKeyInfo pointer", info.Kind)
	}
	if factory == nil {
		return nil, berrors.NotInitialisedError("no PublicKeyFactory collaborator supplied")
	}
	key, err := factory(info.PublicKeyInfo.Slice(info.Blob))
	if err != nil {
		return nil, err
	}
	info.SubjectPublicKey = key
	return key, nil
}

// extractStandardSignature splits a standard-wrapper blob (SEQUENCE{tbs,
// algorithmIdentifier, BIT STRING signature}, spec §6.2) into its TBS
// bytes and raw signature bytes.
func extractStandardSignature(blob []byte) (tbs []byte, signature []byte, err error) {
	c := asn1.NewReader(blob)
	if _, err := asn1.ReadSequence(c); err != nil {
		return nil, nil, err
	}

	tbsStart := c.Position()
	tbsContentLen, err := asn1.ReadSequence(c)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Skip(tbsContentLen); err != nil {
		return nil, nil, err
	}
	tbs = append([]byte(nil), c.Bytes()[tbsStart:c.Position()]...)

	algLen, err := asn1.ReadSequence(c)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Skip(algLen); err != nil {
		return nil, nil, err
	}

	bs, err := asn1.ReadBitStringTag(c, asn1.DefaultTag)
	if err != nil {
		return nil, nil, err
	}
	if bs.UnusedBits != 0 {
		return nil, nil, berrors.BadDataError("signature BIT STRING has a non-zero unused-bits count")
	}
	return tbs, bs.Bytes, nil
}

// verifySingle implements spec §4.6.6 for one certificate (not a chain).
func verifySingle(subject *certcore.Info, issuer IssuerContext, ctx Context) error {
	selfCheck := issuer.Cert == subject

	// A self-check runs none of the issuer-side checks below, so an
	// already-checked subject succeeds before any public key is built.
	if selfCheck && subject.Flags.Has(certcore.FlagSigChecked) {
		return nil
	}

	var issuerKey certcore.PublicKey
	var err error
	switch {
	case issuer.Key != nil:
		issuerKey = issuer.Key
	case issuer.Cert != nil:
		issuerKey, err = resolvePublicKey(issuer.Cert, ctx.KeyFactory)
		if err != nil {
			return err
		}
	default:
		return berrors.InvalidArgumentError("signature check requires a verifier certificate or public key")
	}

	if issuer.Cert != nil && !selfCheck {
		if subject.IssuerDN.Valid() && issuer.Cert.SubjectDN.Valid() {
			if !bytes.Equal(subject.IssuerDN.Slice(subject.Blob), issuer.Cert.SubjectDN.Slice(issuer.Cert.Blob)) {
				return berrors.NewConstraint(berrors.LocusSubject, berrors.AttributeValue,
					"subject issuer DN does not chain to the verifier certificate's subject DN")
			}
		}
		if subject.StartTime >= 0 && issuer.Cert.StartTime >= 0 && subject.StartTime < issuer.Cert.StartTime {
			return berrors.NewConstraint(berrors.LocusSubject, berrors.AttributeValue,
				"subject validity period begins before the issuer's")
		}
		if subject.EndTime >= 0 && issuer.Cert.EndTime >= 0 && subject.EndTime > issuer.Cert.EndTime {
			return berrors.NewConstraint(berrors.LocusSubject, berrors.AttributeValue,
				"subject validity period extends past the issuer's")
		}
		if !issuer.Capabilities.IsCA || !issuer.Capabilities.KeyCertSign {
			return berrors.NewConstraint(berrors.LocusIssuerConstraint, berrors.AttributeConstraint,
				"issuer certificate does not assert CA/KeyCertSign")
		}
	}

	if chainIsSelfSignedAtRoot(subject) && !selfCheck {
		subjectKey, err := resolvePublicKey(subject, ctx.KeyFactory)
		if err != nil {
			return err
		}
		if subjectKey.KeyID() != issuerKey.KeyID() {
			return berrors.NewConstraint(berrors.LocusSubject, berrors.AttributeValue,
				"verifier key does not match the self-signed subject's own key")
		}
		if issuer.Cert != nil && !bytes.Equal(issuer.Cert.Blob, subject.Blob) {
			return berrors.NewConstraint(berrors.LocusSubject, berrors.AttributeValue,
				"verifier certificate does not equal the self-signed subject")
		}
	}

	if subject.Flags.Has(certcore.FlagSigChecked) {
		return nil
	}
	if subject.Kind == certcore.KindCertificate && ctx.Trust != nil && ctx.Trust.IsTrusted(subject) {
		return nil
	}

	tbs, signature, err := extractStandardSignature(subject.Blob)
	if err != nil {
		return err
	}
	if err := issuerKey.Verify(tbs, signature); err != nil {
		return berrors.SignatureError("signature verification failed: %v", err)
	}
	subject.Flags |= certcore.FlagSigChecked
	return nil
}

// signatureCheckPath implements spec §4.6.6, walking a chain leaf-to-root
// when the subject is one (each member verified against the next, the
// root verified against the caller-supplied issuer).
func signatureCheckPath(subject *certcore.Info, issuer IssuerContext, ctx Context) error {
	if subject.Kind != certcore.KindCertChain {
		return verifySingle(subject, issuer, ctx)
	}

	for i, cert := range subject.Chain {
		certIssuer := issuer
		if i+1 < len(subject.Chain) {
			certIssuer = IssuerContext{
				Cert:         subject.Chain[i+1],
				Capabilities: IssuerCapabilities{IsCA: true, KeyCertSign: true},
			}
		}
		if err := verifySingle(cert, certIssuer, ctx); err != nil {
			return berrors.NewConstraint(berrors.LocusSubject, berrors.AttributeValue,
				"chain position %d failed verification: %v", i, err)
		}
	}
	return nil
}
