// Package certverify implements the certificate validator (spec §4.6,
// §4.7): a single entry point dispatching on the subject's kind and the
// kind of verifier supplied, covering the self-signed, CRL, RTCS
// response, OCSP response, responder-session, and signature-check paths.
//
// Grounded on sheurich-boulder/ca/certificate-authority.go's own
// precondition-then-action style; the dispatch table itself has no direct
// teacher analogue (the teacher never re-validates a cert it didn't just
// issue), so CheckCertValidity is built from spec §4.6's table directly,
// in the same linear-checks-then-action shape the signer uses.
package certverify

import (
	"time"

	"github.com/letsencrypt/bercert/berrors"
	"github.com/letsencrypt/bercert/certcore"
	"github.com/letsencrypt/bercert/internal/blog"
	"github.com/letsencrypt/bercert/metrics"
)

// Verifier is one of the five verifier shapes spec §4.6's dispatch table
// names: no verifier (self-signed path), a CRL, a keyset, a responder
// session, or a certificate/public-key context. Implemented by the
// Verifier variants in this package; external packages cannot implement
// it themselves, mirroring the closed set the dispatch table enumerates.
type Verifier interface {
	isVerifier()
}

// SelfSigned selects §4.6.1: no external verifier, check the subject
// against itself.
type SelfSigned struct{}

func (SelfSigned) isVerifier() {}

// CRL selects §4.6.2: check the subject against a CRL's revocation list.
type CRL struct {
	Cert *certcore.Info // Kind must be KindCRL
}

func (CRL) isVerifier() {}

// Keyset selects the issuerID probe (cert/chain subjects) or the RTCS/OCSP
// response paths (§4.6.3, §4.6.4), depending on the subject's kind.
// Revocations is consulted only by the OCSP response path's step 3 probe
// for revocation info, kept distinct from Certs (the live-cert probe of
// step 2) since the original queries two independently-populated stores.
type Keyset struct {
	Certs       certcore.Keyset
	Revocations certcore.Keyset
}

func (Keyset) isVerifier() {}

// ResponderProtocol selects which request shape Responder builds (spec
// §4.6.5 covers both an RTCS and an OCSP responder session).
type ResponderProtocol int

const (
	ResponderOCSP ResponderProtocol = iota
	ResponderRTCS
)

// Responder selects §4.6.5: a live RTCS or OCSP responder session.
type Responder struct {
	Session  certcore.ResponderSession
	Issuer   *certcore.Info // the issuer cert used to build an OCSP request
	Protocol ResponderProtocol
	Timeout  time.Duration
}

func (Responder) isVerifier() {}

// IssuerCapabilities is the subset of an issuer certificate's extensions
// the validator needs to enforce spec §4.6.6 step 2's constraint. Supplied
// by the caller's trust layer, for the same reason certsign.
// IssuerCapabilities is caller-supplied: this core's object model doesn't
// parse KeyUsage/BasicConstraints extensions itself (spec §3.5/§3.6).
type IssuerCapabilities struct {
	IsCA        bool
	KeyCertSign bool
}

// IssuerContext selects §4.6.6: a certificate or bare public-key context
// to check the subject's signature against.
type IssuerContext struct {
	Cert         *certcore.Info     // nil if only a bare key is available
	Key          certcore.PublicKey // required if Cert is nil
	Capabilities IssuerCapabilities
}

func (IssuerContext) isVerifier() {}

// Context groups the collaborators the validator needs across every path
// (spec §6.4): Hash re-derives identifiers for CRL/keyset matching,
// KeyFactory constructs a PublicKey from a captured SPKI, Trust shortcuts
// a known-trusted subject. Clock is carried but no path reads it: §4.6.6
// step 2's validity checks compare the subject's period with the
// issuer's, not with the current time.
type Context struct {
	Hash       certcore.Hash
	KeyFactory certcore.PublicKeyFactory
	Trust      certcore.TrustStore
	Clock      certcore.Clock
	Log        blog.Logger
	Metrics    *metrics.Metrics
}

func auditLogger(log blog.Logger) blog.Logger {
	if log != nil {
		return log
	}
	return blog.NewMock()
}

// isCertLike reports whether kind is one of the three kinds the dispatch
// table groups as "Cert / chain / attr. cert".
func isCertLike(kind certcore.Kind) bool {
	switch kind {
	case certcore.KindCertificate, certcore.KindCertChain, certcore.KindAttributeCert:
		return true
	default:
		return false
	}
}

// CheckCertValidity implements spec §4.6's dispatch table. A nil error
// means the subject is valid against the supplied verifier; a non-nil
// error (always a *berrors.CertError) reports why it is not, or that the
// (subject kind, verifier kind) combination is unsupported.
func CheckCertValidity(subject *certcore.Info, verifier Verifier, ctx Context) error {
	log := auditLogger(ctx.Log)
	ctx.Log = log

	path, err := dispatchVerifier(subject, verifier, ctx)
	ctx.Metrics.NoteVerification(path, err)
	return err
}

func dispatchVerifier(subject *certcore.Info, verifier Verifier, ctx Context) (string, error) {
	switch v := verifier.(type) {
	case SelfSigned, nil:
		return "self-signed", selfSignedPath(subject, ctx)

	case CRL:
		if !isCertLike(subject.Kind) {
			return "crl", berrors.InvalidArgumentError("a CRL cannot verify a %s", subject.Kind)
		}
		return "crl", crlPath(subject, v.Cert, ctx)

	case Keyset:
		switch subject.Kind {
		case certcore.KindRTCSResponse:
			return "rtcs-response", rtcsResponsePath(subject, v.Certs, ctx)
		case certcore.KindOCSPResponse:
			return "ocsp-response", ocspResponsePath(subject, v, ctx)
		default:
			if !isCertLike(subject.Kind) {
				return "keyset", berrors.InvalidArgumentError("a keyset cannot verify a %s", subject.Kind)
			}
			return "keyset", keysetIssuerProbe(subject, v.Certs, ctx)
		}

	case Responder:
		if !isCertLike(subject.Kind) {
			return "responder", berrors.InvalidArgumentError("a responder session cannot verify a %s", subject.Kind)
		}
		return "responder", responderSessionPath(subject, v, ctx)

	case IssuerContext:
		if !isCertLike(subject.Kind) {
			return "signature-check", berrors.InvalidArgumentError("a cert/key context cannot verify a %s", subject.Kind)
		}
		return "signature-check", signatureCheckPath(subject, v, ctx)

	default:
		return "unknown", berrors.InvalidArgumentError("unsupported verifier for a %s", subject.Kind)
	}
}
