package certverify

import (
	"crypto/x509"
	"time"

	xocsp "golang.org/x/crypto/ocsp"

	"github.com/letsencrypt/bercert/asn1"
	"github.com/letsencrypt/bercert/berrors"
	"github.com/letsencrypt/bercert/certcore"
)

// defaultResponderTimeout is used when a caller doesn't set Responder.
// Timeout explicitly.
const defaultResponderTimeout = 30 * time.Second

// buildRTCSRequest wraps a cert-like subject's encoded blob in an OCTET
// STRING inside a SEQUENCE, RTCS's request body — there is no third-party RTCS implementation
// anywhere in the ecosystem (it is a cryptlib-specific protocol, not an
// IETF one), so this is built directly on this module's own ASN.1 writer
// rather than a borrowed library, unlike the OCSP side of this file.
func buildRTCSRequest(subject *certcore.Info) ([]byte, error) {
	w := asn1.NewWriter()
	if err := asn1.WriteSequence(w, asn1.SizeofObject(len(subject.Blob))); err != nil {
		return nil, err
	}
	if err := asn1.WriteOctetString(w, subject.Blob, asn1.DefaultTag); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// responderSessionPath implements spec §4.6.5: build a request for the
// subject, attach it to a pre-created session, activate (blocking), and
// inspect the resulting status.
func responderSessionPath(subject *certcore.Info, r Responder, ctx Context) error {
	if r.Session == nil {
		return berrors.InvalidArgumentError("responder verifier requires a session")
	}

	var reqBytes []byte
	var err error
	switch r.Protocol {
	case ResponderOCSP:
		if r.Issuer == nil {
			return berrors.InvalidArgumentError("an OCSP responder session requires an issuer cert")
		}
		leaf, parseErr := x509.ParseCertificate(subject.Blob)
		if parseErr != nil {
			return berrors.BadDataError("failed to parse subject certificate: %v", parseErr)
		}
		issuer, parseErr := x509.ParseCertificate(r.Issuer.Blob)
		if parseErr != nil {
			return berrors.BadDataError("failed to parse issuer certificate: %v", parseErr)
		}
		reqBytes, err = xocsp.CreateRequest(leaf, issuer, nil)
		if err != nil {
			return berrors.BadDataError("failed to build OCSP request: %v", err)
		}
	case ResponderRTCS:
		reqBytes, err = buildRTCSRequest(subject)
		if err != nil {
			return err
		}
	default:
		return berrors.InvalidArgumentError("unknown responder protocol")
	}

	if err := r.Session.AttachRequest(reqBytes); err != nil {
		return err
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultResponderTimeout
	}
	resp, err := r.Session.Activate(timeout)
	if err != nil {
		return err
	}

	switch r.Protocol {
	case ResponderOCSP:
		entry, err := decodeOCSPResponse(resp.Encoded, r.Issuer)
		if err != nil {
			return err
		}
		if entry.Status == certcore.StatusRevoked {
			return berrors.NewConstraint(berrors.LocusSubject, berrors.AttributeValue,
				"OCSP responder reports the subject certificate as revoked")
		}
		return nil
	default:
		for _, entry := range resp.Entries {
			if entry.Status != certcore.StatusGood && entry.Status != certcore.StatusNotRevoked {
				return berrors.NewConstraint(berrors.LocusSubject, berrors.AttributeValue,
					"responder reports a non-valid status for the subject certificate")
			}
		}
		return nil
	}
}
