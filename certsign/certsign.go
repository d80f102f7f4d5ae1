// Package certsign implements the certificate signer (spec §4.5): the
// ten-step algorithm that turns a populated certcore.Info into a signed
// blob, including the pseudo-signed paths for types that carry no
// signature, and the post-signing pointer-recovery pass.
//
// Grounded on sheurich-boulder/ca/certificate-authority.go's
// IssueCertificate: a linear sequence of precondition checks and
// early-return failures, each logged before being returned, rather than a
// single monolithic validation function.
package certsign

import (
	"github.com/letsencrypt/bercert/asn1"
	"github.com/letsencrypt/bercert/berrors"
	"github.com/letsencrypt/bercert/certcore"
	"github.com/letsencrypt/bercert/internal/blog"
)

// minTimeValue is the sanity floor spec §4.5 step 3 requires the clock
// pass: any now() below this is treated as a misconfigured clock rather
// than a legitimate signing time.
const minTimeValue = 1 // 1970-01-01T00:00:01Z

// IssuerContext groups what step 1 needs to resolve and constrain the
// issuer (spec §4.5 step 1). For a self-signed type Cert is nil and
// Capabilities is ignored. Capabilities is supplied by the caller's trust
// layer, which already inspected the issuer certificate's KeyUsage and
// BasicConstraints extensions — this core does not parse X.509 extensions
// itself (out of the object model spec §3.5/§3.6 define).
type IssuerContext struct {
	Cert         *certcore.Info
	Capabilities IssuerCapabilities
	Signer       certcore.Signer
}

// IssuerCapabilities is the subset of an issuer certificate's extensions
// the signer needs to enforce spec §4.5 step 1's constraint.
type IssuerCapabilities struct {
	IsCA               bool
	KeyCertSign        bool
	CRLSign            bool
	DigitalSignature   bool
}

// isAlwaysPseudoSigned reports the types spec §4.5 step 2 always wraps
// with no signature: RTCS request/response, OCSP response, PKI user info,
// and revocation request. An OCSP request with no usable signer and a CRMF
// request for an encryption-only key are also pseudo-signed, but only when
// SignOCSPRequest or SignCRMFRequest decides so from the Signer it holds.
func isAlwaysPseudoSigned(kind certcore.Kind) bool {
	switch kind {
	case certcore.KindRTCSRequest, certcore.KindRTCSResponse,
		certcore.KindOCSPResponse, certcore.KindPKIUser,
		certcore.KindRevocationRequest:
		return true
	default:
		return false
	}
}

// resolveIssuer implements spec §4.5 step 1: checks the issuer's asserted
// capability against what the subject kind requires. A self-signed kind
// (issuer == subject) needs no external check.
func resolveIssuer(kind certcore.Kind, issuer IssuerContext, selfSigned bool, log blog.Logger) error {
	if selfSigned {
		return nil
	}
	if issuer.Cert == nil || issuer.Signer == nil {
		return berrors.NotInitialisedError("a non-self-signed %s requires an issuer certificate and signing key", kind)
	}

	var ok bool
	switch kind {
	case certcore.KindOCSPRequest, certcore.KindOCSPResponse:
		ok = issuer.Capabilities.DigitalSignature
	case certcore.KindCRL:
		ok = issuer.Capabilities.IsCA && issuer.Capabilities.CRLSign
	default:
		ok = issuer.Capabilities.IsCA && issuer.Capabilities.KeyCertSign
	}
	if !ok {
		log.AuditErrf("issuer constraint failed for %s: capabilities %+v", kind, issuer.Capabilities)
		return berrors.NewConstraint(berrors.LocusIssuerConstraint, berrors.AttributeConstraint,
			"issuer certificate does not assert the capability required to sign a %s", kind)
	}
	return nil
}

// resolveTimes implements spec §4.5 step 3.
func resolveTimes(info *certcore.Info, now int64, validitySeconds int64) error {
	if now < minTimeValue {
		return berrors.InvalidError("clock returned a time before the sanity floor: %d", now)
	}
	if info.StartTime < 0 {
		info.StartTime = now
	}
	if info.EndTime < 0 {
		switch info.Kind {
		case certcore.KindCertificate, certcore.KindAttributeCert, certcore.KindCertChain:
			info.EndTime = info.StartTime + validitySeconds
		case certcore.KindCRL:
			info.EndTime = info.StartTime + validitySeconds
		case certcore.KindOCSPResponse, certcore.KindRTCSResponse:
			info.EndTime = now
		}
	}
	if info.RevocationTime < 0 && len(info.Entries) > 0 {
		info.RevocationTime = now
	}
	return nil
}

// finaliseFlags implements spec §4.5 step 10.
func finaliseFlags(info *certcore.Info, selfSigned bool) {
	info.Flags |= certcore.FlagSigChecked
	if selfSigned {
		info.Flags |= certcore.FlagSelfSigned
	}
	if info.Kind == certcore.KindCertChain && len(info.Chain) > 0 {
		root := info.Chain[len(info.Chain)-1]
		if root.Flags.Has(certcore.FlagSelfSigned) {
			info.Flags |= certcore.FlagSelfSigned
		}
	}
}

// wrapPseudoSigned implements spec §4.5 step 2: the object is wrapped in
// its outer SEQUENCE with no signature.
func wrapPseudoSigned(body []byte) ([]byte, error) {
	w := asn1.NewWriter()
	if err := asn1.WriteSequence(w, len(body)); err != nil {
		return nil, err
	}
	if err := w.PutAll(body); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
