package certcore

import "time"

// Hash is the digest collaborator (spec §6.4). SHA-1 is required (nameID/
// issuerID/certID and the default signature digest); MD5 is optional and
// not modelled here since nothing in this core's scope emits it.
type Hash interface {
	Update(data []byte)
	Finalize() [20]byte
}

// PublicKey is the public-key collaborator (spec §6.4): constructed from a
// SubjectPublicKeyInfo blob by a collaborator-supplied factory, it verifies
// signatures and reports whether the underlying algorithm/usage permits
// signing.
type PublicKey interface {
	Verify(tbs, signature []byte) error
	CanSign() bool
	KeyID() [20]byte
}

// PublicKeyFactory constructs a PublicKey from a raw SubjectPublicKeyInfo
// blob (spec §6.4's `from_spki`).
type PublicKeyFactory func(spki []byte) (PublicKey, error)

// CertHandle is an opaque, reference-counted handle to a certificate-info
// object held by a Keyset or TrustStore, replacing the original's
// integer-handle-plus-kernel-refcount scheme (spec §9.1). Retain/Release
// let the collaborator manage the handle's lifetime; certcore never stores
// a CertHandle beyond the scope of a single operation.
type CertHandle interface {
	Info() *Info
	Retain() CertHandle
	Release()
}

// Signer is the signing-key collaborator (spec §6.4): produces a raw
// signature over a digest, and optionally identifies the certificate
// associated with the key (needed to resolve the issuer in step 1 of the
// signing algorithm).
type Signer interface {
	Sign(digest []byte) ([]byte, error)
	AssociatedCert() (CertHandle, bool)
	CanSign() bool
}

// KeysetLookupKind selects the identifier space a Keyset query searches
// (spec §6.4).
type KeysetLookupKind int

const (
	LookupCertID KeysetLookupKind = iota
	LookupIssuerID
	LookupName
	LookupEmail
)

// Keyset is the certificate-store collaborator (spec §6.4): looks up a
// certificate by one of the four identifier kinds, with a check-only
// variant that reports presence without materialising the object.
type Keyset interface {
	FindByID(kind KeysetLookupKind, id []byte) (CertHandle, error)
	Contains(kind KeysetLookupKind, id []byte) (bool, error)
}

// ResponderStatus is a live responder session's state (spec §6.4).
type ResponderStatus int

const (
	ResponderPending ResponderStatus = iota
	ResponderComplete
	ResponderFailed
)

// ResponderSession is the live RTCS/OCSP responder collaborator (spec
// §6.4): a request is attached, the session is activated with a timeout,
// and the caller polls or blocks for a Response.
type ResponderSession interface {
	AttachRequest(req []byte) error
	Activate(timeout time.Duration) (Response, error)
	Status() ResponderStatus
}

// Response is a completed responder session's result: the raw encoded
// response body plus the per-entry status it conveys.
type Response struct {
	Encoded []byte
	Entries []RevocationEntry
}

// TrustStore is the trust-anchor collaborator (spec §6.4).
type TrustStore interface {
	IsTrusted(cert *Info) bool
	TrustedIssuer(cert *Info) (CertHandle, bool)
}
