package certverify

import (
	"crypto/x509"

	xocsp "golang.org/x/crypto/ocsp"

	"github.com/letsencrypt/bercert/berrors"
	"github.com/letsencrypt/bercert/certcore"
)

// ocspResponsePath implements spec §4.6.4. Each entry is resolved
// independently:
//
//  1. a LegacyHash entry can never be re-checked, so it stays Unknown.
//  2. a hit against the live-cert keyset (Keyset.Certs) means the cert is
//     still current: NotRevoked.
//  3. a miss falls through to the revocation-info keyset (Keyset.
//     Revocations); a hit there means the cert is listed as revoked, and
//     the matching record's RevocationTime is copied into RevokedAt.
//     ReasonCode is not set on this path.
//
// Overall the response is Invalid iff any entry resolved to Revoked.
func ocspResponsePath(subject *certcore.Info, keyset Keyset, ctx Context) error {
	if keyset.Certs == nil || keyset.Revocations == nil {
		return berrors.InvalidArgumentError("OCSP response verification requires both a cert keyset and a revocation keyset")
	}

	anyRevoked := false
	for i := range subject.Entries {
		entry := &subject.Entries[i]
		if entry.LegacyHash {
			entry.Status = certcore.StatusUnknown
			continue
		}

		current, err := keyset.Certs.FindByID(certcore.LookupCertID, entry.ID[:])
		if err == nil {
			entry.Status = certcore.StatusNotRevoked
			current.Release()
			continue
		}

		revoked, err := keyset.Revocations.FindByID(certcore.LookupCertID, entry.ID[:])
		if err != nil {
			entry.Status = certcore.StatusUnknown
			continue
		}
		revokedInfo := revoked.Info()
		entry.Status = certcore.StatusRevoked
		entry.RevokedAt = revokedInfo.RevocationTime
		revoked.Release()
		anyRevoked = true
	}

	if anyRevoked {
		return berrors.NewConstraint(berrors.LocusSubject, berrors.AttributeValue,
			"one or more OCSP response entries are revoked")
	}
	return nil
}

// decodeOCSPResponse parses a raw DER OCSP response against its signing
// issuer cert, translating golang.org/x/crypto/ocsp's Response into the
// single RevocationEntry it describes — used by the responder-session path
// (§4.6.5) once a live session's Activate returns the raw wire response,
// since certcore's ResponderSession collaborator deliberately returns
// opaque bytes rather than a parsed object (spec §6.4 keeps the wire codec
// out of the collaborator boundary).
func decodeOCSPResponse(der []byte, issuer *certcore.Info) (certcore.RevocationEntry, error) {
	issuerCert, err := x509.ParseCertificate(issuer.Blob)
	if err != nil {
		return certcore.RevocationEntry{}, berrors.BadDataError("failed to parse OCSP issuer certificate: %v", err)
	}
	resp, err := xocsp.ParseResponse(der, issuerCert)
	if err != nil {
		return certcore.RevocationEntry{}, berrors.BadDataError("failed to parse OCSP response: %v", err)
	}

	entry := certcore.RevocationEntry{RevokedAt: -1}
	switch resp.Status {
	case xocsp.Good:
		entry.Status = certcore.StatusNotRevoked
	case xocsp.Revoked:
		entry.Status = certcore.StatusRevoked
		entry.RevokedAt = resp.RevokedAt.Unix()
		entry.ReasonCode = resp.RevocationReason
	default:
		entry.Status = certcore.StatusUnknown
	}
	return entry, nil
}
