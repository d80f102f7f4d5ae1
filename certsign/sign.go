package certsign

import (
	"github.com/zmap/zlint/v3/lint"

	"github.com/letsencrypt/bercert/berrors"
	"github.com/letsencrypt/bercert/certcore"
	"github.com/letsencrypt/bercert/internal/blog"
	"github.com/letsencrypt/bercert/metrics"
)

// CertificateRequest is a full signing request for a Certificate
// (SignCertificate) or a certificate chain (SignCertChain) (spec §4.5).
type CertificateRequest struct {
	Params          CertificateParams
	ValiditySeconds int64
	Issuer          IssuerContext
	Hash            certcore.Hash
	Log             blog.Logger
	Metrics         *metrics.Metrics

	// LintLevel gates an optional zlint pass over the freshly signed
	// certificate (lintCertificate); the zero value (lint.Reserved)
	// disables linting, so existing callers need not opt in.
	LintLevel    lint.LintStatus
	LintRegistry lint.Registry
}

// CRLRequest is a full signing request for a CRL (spec §4.5).
type CRLRequest struct {
	Params          CRLParams
	ValiditySeconds int64
	Issuer          IssuerContext
	Hash            certcore.Hash
	Log             blog.Logger
	Metrics         *metrics.Metrics
}

// CRMFSigningRequest is a signing request for a CRMF (REQUEST_CERT)
// proof-of-possession object (spec §4.5 steps 7-8). TBS is the caller-
// assembled CertReqMsg body; this core does not model CRMF's own attribute
// set, only its signing/wrapping/extra-data/pointer-recovery envelope.
type CRMFSigningRequest struct {
	TBS       []byte
	Algorithm certcore.AlgorithmID
	Issuer    IssuerContext
	ExtraData ExtraDataLevel
	Chain     []*certcore.Info
	Hash      certcore.Hash
	Log       blog.Logger
	Metrics   *metrics.Metrics
}

func auditLogger(log blog.Logger) blog.Logger {
	if log != nil {
		return log
	}
	return blog.NewMock()
}

// SignCertificate implements spec §4.5 for a KindCertificate subject:
// resolve the issuer (step 1), complete temporal fields (step 3), allocate
// a serial if none was supplied (step 4), write the TBS (step 6), sign
// (step 7), recover pointers (step 9), and finalise flags (step 10). Steps
// 2, 5, and 8 do not apply to a plain certificate.
func SignCertificate(req CertificateRequest, now int64) (*certcore.Info, error) {
	log := auditLogger(req.Log)
	selfSigned := req.Issuer.Cert == nil

	if err := resolveIssuer(certcore.KindCertificate, req.Issuer, selfSigned, log); err != nil {
		req.Metrics.NoteSignError("certificate", "issuer-constraint")
		return nil, err
	}

	info := certcore.NewInfo(certcore.KindCertificate)
	info.SignatureAlgorithm = req.Params.SignatureAlgorithm
	info.StartTime = req.Params.NotBefore
	info.EndTime = req.Params.NotAfter
	if err := resolveTimes(info, now, req.ValiditySeconds); err != nil {
		return nil, err
	}
	req.Params.NotBefore = info.StartTime
	req.Params.NotAfter = info.EndTime

	if len(req.Params.SerialNumber) == 0 {
		serial, err := AllocateSerial()
		if err != nil {
			return nil, err
		}
		req.Params.SerialNumber = serial
	}

	if req.Issuer.Signer == nil {
		return nil, berrors.NotInitialisedError("a certificate requires a signing key, even when self-signed")
	}

	tbs, err := writeCertificateTBS(req.Params)
	if err != nil {
		log.Warningf("failed to write TBSCertificate: %v", err)
		return nil, err
	}

	req.Hash.Update(tbs)
	digest := req.Hash.Finalize()
	sig, err := req.Issuer.Signer.Sign(digest[:])
	if err != nil {
		log.AuditErrf("signing failed: %v", err)
		req.Metrics.NoteSignError("certificate", "sign")
		return nil, berrors.SignatureError("signing failed: %v", err)
	}
	blob, err := wrapStandardSignature(tbs, req.Params.SignatureAlgorithm, sig)
	if err != nil {
		return nil, err
	}

	if err := lintCertificate(blob, req.LintLevel, req.LintRegistry); err != nil {
		log.AuditErrf("pre-publication linting failed: %v", err)
		req.Metrics.NoteSignError("certificate", "lint")
		req.Metrics.NoteLintError("certificate")
		return nil, err
	}

	info.Blob = blob
	pointers, err := certcore.RecoverPointers(certcore.KindCertificate, blob)
	if err != nil {
		log.AuditErrf("pointer recovery failed after signing: %v", err)
		req.Metrics.NoteSignError("certificate", "pointer-recovery")
		return nil, err
	}
	pointers.Apply(info)

	finaliseFlags(info, selfSigned)
	req.Metrics.NoteSignature("certificate")
	req.Metrics.NoteCertificateIssued(selfSigned)
	log.Noticef("signed certificate, serial %x", req.Params.SerialNumber)
	return info, nil
}

// CertRequestRequest is a signing request for a KindCertRequest subject
// (spec §4.5, §4.6.1): Signer is the subject's own key, proving possession
// by signing the CertificationRequestInfo it describes.
type CertRequestRequest struct {
	Params  CertRequestParams
	Signer  certcore.Signer
	Hash    certcore.Hash
	Log     blog.Logger
	Metrics *metrics.Metrics
}

// SignCertRequest implements spec §4.5 for a KindCertRequest subject. A
// cert request carries no issuer (it is "implicitly self-signed", spec
// §4.6.1) and uses the standard signature wrapper rather than CRMF's
// formatInfo=1 variant — the original's certsig.c reserves the
// nonstandard wrapper for REQUEST_CERT (CRMF) and OCSP_REQUEST only, and
// signs a plain certification request the same way it signs a
// certificate.
func SignCertRequest(req CertRequestRequest) (*certcore.Info, error) {
	log := auditLogger(req.Log)
	if req.Signer == nil {
		return nil, berrors.NotInitialisedError("a certification request requires a signing key")
	}

	tbs, err := writeCertRequestTBS(req.Params)
	if err != nil {
		log.Warningf("failed to write CertificationRequestInfo: %v", err)
		return nil, err
	}

	req.Hash.Update(tbs)
	digest := req.Hash.Finalize()
	sig, err := req.Signer.Sign(digest[:])
	if err != nil {
		log.AuditErrf("certification request signing failed: %v", err)
		req.Metrics.NoteSignError("certrequest", "sign")
		return nil, berrors.SignatureError("certification request signing failed: %v", err)
	}

	blob, err := wrapStandardSignature(tbs, req.Params.SignatureAlgorithm, sig)
	if err != nil {
		return nil, err
	}

	info := certcore.NewInfo(certcore.KindCertRequest)
	info.SignatureAlgorithm = req.Params.SignatureAlgorithm
	info.Blob = blob
	pointers, err := certcore.RecoverPointers(certcore.KindCertRequest, blob)
	if err != nil {
		log.AuditErrf("pointer recovery failed after certification-request signing: %v", err)
		req.Metrics.NoteSignError("certrequest", "pointer-recovery")
		return nil, err
	}
	pointers.Apply(info)

	finaliseFlags(info, true)
	req.Metrics.NoteSignature("certrequest")
	log.Noticef("signed certification request")
	return info, nil
}

// SignCertChain implements spec §4.5 for a KindCertChain subject: it signs
// a new leaf certificate exactly as SignCertificate does (steps 1, 3, 4,
// 6, 7, 9), then performs step 5 by copying the signing key's associated
// certificate chain onto the result, leaf first. A self-signed chain is
// length 1 after copy, matching spec §4.5 step 5's explicit requirement.
func SignCertChain(req CertificateRequest, now int64) (*certcore.Info, error) {
	selfSigned := req.Issuer.Cert == nil

	leaf, err := SignCertificate(req, now)
	if err != nil {
		return nil, err
	}

	chain := certcore.NewInfo(certcore.KindCertChain)
	chain.SignatureAlgorithm = leaf.SignatureAlgorithm
	chain.StartTime = leaf.StartTime
	chain.EndTime = leaf.EndTime
	chain.Blob = leaf.Blob
	chain.IssuerDN = leaf.IssuerDN
	chain.SubjectDN = leaf.SubjectDN
	chain.PublicKeyInfo = leaf.PublicKeyInfo
	chain.SerialNumber = leaf.SerialNumber

	if selfSigned {
		chain.Chain = []*certcore.Info{leaf}
	} else {
		var parents []*certcore.Info
		if cert, ok := req.Issuer.Signer.AssociatedCert(); ok {
			issuerInfo := cert.Info()
			parents = append(parents, issuerInfo)
			parents = append(parents, issuerInfo.Chain...)
		}
		chain.Chain = append([]*certcore.Info{leaf}, parents...)
	}

	finaliseFlags(chain, selfSigned)
	req.Metrics.NoteSignature("certchain")
	return chain, nil
}

// SignCRL implements spec §4.5 for a KindCRL subject.
func SignCRL(req CRLRequest, now int64) (*certcore.Info, error) {
	log := auditLogger(req.Log)

	if err := resolveIssuer(certcore.KindCRL, req.Issuer, false, log); err != nil {
		req.Metrics.NoteSignError("crl", "issuer-constraint")
		return nil, err
	}
	if req.Issuer.Signer == nil {
		return nil, berrors.NotInitialisedError("a CRL requires a signing key")
	}

	info := certcore.NewInfo(certcore.KindCRL)
	info.SignatureAlgorithm = req.Params.SignatureAlgorithm
	info.StartTime = req.Params.ThisUpdate
	info.EndTime = req.Params.NextUpdate
	if err := resolveTimes(info, now, req.ValiditySeconds); err != nil {
		return nil, err
	}
	req.Params.ThisUpdate = info.StartTime
	req.Params.NextUpdate = info.EndTime

	tbs, err := writeCRLTBS(req.Params)
	if err != nil {
		log.Warningf("failed to write TBSCertList: %v", err)
		return nil, err
	}

	req.Hash.Update(tbs)
	digest := req.Hash.Finalize()
	sig, err := req.Issuer.Signer.Sign(digest[:])
	if err != nil {
		log.AuditErrf("CRL signing failed: %v", err)
		req.Metrics.NoteSignError("crl", "sign")
		return nil, berrors.SignatureError("CRL signing failed: %v", err)
	}

	blob, err := wrapStandardSignature(tbs, req.Params.SignatureAlgorithm, sig)
	if err != nil {
		return nil, err
	}
	info.Blob = blob

	pointers, err := certcore.RecoverPointers(certcore.KindCRL, blob)
	if err != nil {
		req.Metrics.NoteSignError("crl", "pointer-recovery")
		return nil, err
	}
	pointers.Apply(info)

	finaliseFlags(info, false)
	req.Metrics.NoteSignature("crl")
	log.Noticef("signed CRL with %d revoked entries", len(req.Params.RevokedSerials))
	return info, nil
}

// SignCRMFRequest implements spec §4.5 for a KindCRMFRequest whose key
// permits signing: it is pseudo-signed instead (SignPseudo) when
// req.Issuer.Signer.CanSign() is false (an encryption-only key, spec §4.5
// step 2). Otherwise it signs with the CRMF wrapper (step 7) and attaches
// extra data (step 8) per req.ExtraData.
func SignCRMFRequest(req CRMFSigningRequest) (*certcore.Info, error) {
	log := auditLogger(req.Log)

	if req.Issuer.Signer == nil || !req.Issuer.Signer.CanSign() {
		return SignPseudo(certcore.KindCRMFRequest, req.TBS)
	}

	req.Hash.Update(req.TBS)
	digest := req.Hash.Finalize()
	sig, err := req.Issuer.Signer.Sign(digest[:])
	if err != nil {
		log.AuditErrf("CRMF signing failed: %v", err)
		req.Metrics.NoteSignError("crmf", "sign")
		return nil, berrors.SignatureError("CRMF signing failed: %v", err)
	}

	blob, err := wrapCRMFSignature(req.TBS, req.Algorithm, sig)
	if err != nil {
		return nil, err
	}

	// Pointer recovery walks a plain CertificationRequest shape (spec
	// §4.7); wrapCRMFSignature's leading formatInfo marker byte (spec
	// §6.2) shifts every offset it finds by exactly one.
	pointers, err := certcore.RecoverPointers(certcore.KindCRMFRequest, blob[1:])
	if err != nil {
		log.AuditErrf("pointer recovery failed after CRMF signing: %v", err)
		req.Metrics.NoteSignError("crmf", "pointer-recovery")
		return nil, err
	}
	pointers.Shift(1)

	var signerCert *certcore.Info
	if cert, ok := req.Issuer.Signer.AssociatedCert(); ok {
		signerCert = cert.Info()
	}
	blob, err = attachExtraData(blob, req.ExtraData, signerCert, req.Chain)
	if err != nil {
		return nil, err
	}

	info := certcore.NewInfo(certcore.KindCRMFRequest)
	info.SignatureAlgorithm = req.Algorithm
	info.Blob = blob
	pointers.Apply(info)
	finaliseFlags(info, false)
	req.Metrics.NoteSignature("crmf")
	return info, nil
}

// OCSPRequestSigningRequest is a signing request for a KindOCSPRequest
// subject (spec §4.5 steps 2, 7, 8). OCSP requests are commonly anonymous;
// Issuer.Signer is optional.
type OCSPRequestSigningRequest struct {
	TBS       []byte
	Algorithm certcore.AlgorithmID
	Issuer    IssuerContext
	ExtraData ExtraDataLevel
	Chain     []*certcore.Info
	Hash      certcore.Hash
	Log       blog.Logger
	Metrics   *metrics.Metrics
}

// SignOCSPRequest implements spec §4.5 for a KindOCSPRequest subject,
// mirroring SignCRMFRequest's CanSign()-gated dispatch: it is pseudo-
// signed instead (SignPseudo) when there is no signer, the signer can't
// sign, or the signer's associated cert doesn't assert DigitalSignature
// (spec §4.5 step 1's OCSP capability check, step 2's pseudo-signed
// fallback). Otherwise it signs with the OCSP wrapper (step 7,
// formatInfo = 0x80) and attaches extra data (step 8) per req.ExtraData.
func SignOCSPRequest(req OCSPRequestSigningRequest) (*certcore.Info, error) {
	log := auditLogger(req.Log)

	if req.Issuer.Signer == nil || !req.Issuer.Signer.CanSign() || !req.Issuer.Capabilities.DigitalSignature {
		return SignPseudo(certcore.KindOCSPRequest, req.TBS)
	}

	req.Hash.Update(req.TBS)
	digest := req.Hash.Finalize()
	sig, err := req.Issuer.Signer.Sign(digest[:])
	if err != nil {
		log.AuditErrf("OCSP request signing failed: %v", err)
		req.Metrics.NoteSignError("ocsprequest", "sign")
		return nil, berrors.SignatureError("OCSP request signing failed: %v", err)
	}

	blob, err := wrapOCSPSignature(req.TBS, req.Algorithm, sig)
	if err != nil {
		return nil, err
	}

	var signerCert *certcore.Info
	if cert, ok := req.Issuer.Signer.AssociatedCert(); ok {
		signerCert = cert.Info()
	}
	blob, err = attachExtraData(blob, req.ExtraData, signerCert, req.Chain)
	if err != nil {
		return nil, err
	}

	info := certcore.NewInfo(certcore.KindOCSPRequest)
	info.SignatureAlgorithm = req.Algorithm
	info.Blob = blob
	finaliseFlags(info, false)
	req.Metrics.NoteSignature("ocsprequest")
	return info, nil
}

// SignPseudo implements spec §4.5 step 2: the caller supplies the
// already-assembled content body (not yet wrapped in an outer SEQUENCE),
// and SignPseudo wraps it and sets SELFSIGNED | SIGCHECKED. It accepts the
// always-pseudo-signed types, plus an OCSP or CRMF request its caller has
// already chosen to pseudo-sign; every other kind is rejected.
func SignPseudo(kind certcore.Kind, body []byte) (*certcore.Info, error) {
	switch {
	case isAlwaysPseudoSigned(kind):
	case kind == certcore.KindOCSPRequest:
		// Only pseudo-signed when the caller already determined there is
		// no usable signer (SignOCSPRequest's dispatch, mirroring
		// SignCRMFRequest above); an anonymous OCSP request is legitimate
		// (spec §4.5 step 2), so SignPseudo itself doesn't re-check.
	case kind == certcore.KindCRMFRequest:
		// Only pseudo-signed when the caller already determined the key
		// is encryption-only (SignCRMFRequest's dispatch); SignPseudo
		// itself doesn't re-check key capability.
	default:
		return nil, berrors.InvalidArgumentError("%s is not a pseudo-signed type", kind)
	}
	blob, err := wrapPseudoSigned(body)
	if err != nil {
		return nil, err
	}
	info := certcore.NewInfo(kind)
	info.Blob = blob
	info.Flags = certcore.FlagSelfSigned | certcore.FlagSigChecked
	if kind == certcore.KindPKIUser {
		pointers, err := certcore.RecoverPointers(kind, blob)
		if err == nil {
			pointers.Apply(info)
		}
	}
	return info, nil
}
