// Package certcore defines the certificate object model (spec §3.5-§3.7):
// the in-memory record for a certificate/request/CRL/response, the
// algorithm-identifier type, nameID/issuerID/certID derivation, and the
// collaborator interfaces the signer and validator depend on but do not
// implement (Hash, PublicKey, Signer, Keyset, ResponderSession, Clock,
// TrustStore).
//
// Grounded on the shape of sheurich-boulder/core/objects.go's Certificate/
// CertificateRequest types (field grouping, Go-native replacement of the
// original's tagged union with a Kind enum plus per-kind optional fields),
// adapted from ACME-issuance objects to the broader X.509/CRMF/OCSP/RTCS
// object set this core handles.
package certcore

import "github.com/letsencrypt/bercert/internal/clock"

// Kind is the certificate-info object's variant (spec §3.5).
type Kind int

const (
	KindCertificate Kind = iota
	KindAttributeCert
	KindCertChain
	KindCertRequest
	KindCRMFRequest
	KindRevocationRequest
	KindCRL
	KindRTCSRequest
	KindRTCSResponse
	KindOCSPRequest
	KindOCSPResponse
	KindPKIUser
)

func (k Kind) String() string {
	switch k {
	case KindCertificate:
		return "Certificate"
	case KindAttributeCert:
		return "AttributeCert"
	case KindCertChain:
		return "CertChain"
	case KindCertRequest:
		return "CertRequest"
	case KindCRMFRequest:
		return "CRMFRequest"
	case KindRevocationRequest:
		return "RevocationRequest"
	case KindCRL:
		return "CRL"
	case KindRTCSRequest:
		return "RTCSRequest"
	case KindRTCSResponse:
		return "RTCSResponse"
	case KindOCSPRequest:
		return "OCSPRequest"
	case KindOCSPResponse:
		return "OCSPResponse"
	case KindPKIUser:
		return "PKIUser"
	default:
		return "Unknown"
	}
}

// Flags records the per-object status bits (spec §3.5).
type Flags uint8

const (
	FlagSelfSigned Flags = 1 << iota
	FlagSigChecked
	FlagDataOnly
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// BlobRange is an offset+length pair into an Info's owned blob, replacing
// the original's raw pointers into mutable buffers (spec §9.1). It is
// invalidated by any re-serialisation of the owning Info.
type BlobRange struct {
	Offset int
	Length int
}

// Valid reports whether the range was ever populated.
func (r BlobRange) Valid() bool { return r.Length > 0 }

// Slice extracts the range's bytes from blob. Panics if blob is shorter
// than the range requires — a caller holding a BlobRange for a blob other
// than the Info it came from is a programming error, not a data error.
func (r BlobRange) Slice(blob []byte) []byte {
	return blob[r.Offset : r.Offset+r.Length]
}

// RevocationStatus is the per-entry status in a CRL/OCSP/RTCS response
// (spec §3.5's "revocation/validity list").
type RevocationStatus int

const (
	StatusGood RevocationStatus = iota
	StatusRevoked
	StatusUnknown
	StatusNotRevoked
)

// RevocationEntry is one entry in a CRL/OCSP/RTCS response's validity list.
// ID is a nameID+serial hash for a CRL entry, or a certID for an OCSP/RTCS
// entry keyed by full certificate data (spec §6.3).
type RevocationEntry struct {
	ID         [20]byte
	Status     RevocationStatus
	RevokedAt  int64 // seconds since epoch, negative if not set
	ReasonCode int

	// LegacyHash marks an OCSPv1-style hash ID: a one-way hash the original
	// issuer/serial pair can't be recovered from, so an OCSP response entry
	// carrying one can only ever resolve to StatusUnknown (spec §4.6.4 step
	// 1).
	LegacyHash bool
}

// AlgorithmID is the AlgorithmIdentifier SEQUENCE { oid, parameters }
// (spec §3.6): OID is the opaque tag+length+body blob ReadOID/WriteOID
// produce, HasNullParams selects between a NULL parameters field (RSA/DSA
// signature algorithms) and omitted parameters.
type AlgorithmID struct {
	OID           []byte
	HasNullParams bool
}

// Info is one certificate-info record (spec §3.5). The zero value is an
// empty, unsigned object of KindCertificate; callers set Kind explicitly
// for any other type.
type Info struct {
	Kind Kind

	// Blob is the authoritative serialised form, nil before signing.
	Blob []byte

	// Pointers into Blob, populated by the signer's pointer-recovery step
	// (spec §4.5 step 9) and invalidated whenever Blob is replaced.
	IssuerDN      BlobRange
	SubjectDN     BlobRange
	PublicKeyInfo BlobRange
	SerialNumber  BlobRange

	// SubjectPublicKey is an opaque handle into the crypto-primitives
	// layer; certcore never inspects it beyond passing it to a
	// collaborator.
	SubjectPublicKey PublicKey

	SignatureAlgorithm AlgorithmID

	StartTime      int64 // notBefore / thisUpdate; negative if unset
	EndTime        int64 // notAfter / nextUpdate; negative if unset
	RevocationTime int64 // negative if unset

	Flags Flags

	// Chain holds a chain type's ordered children, leaf first, root last.
	Chain []*Info

	// Entries holds a CRL/OCSP/RTCS type's revocation/validity list.
	Entries []RevocationEntry
}

// NewInfo returns an empty, unsigned Info of the given kind.
func NewInfo(kind Kind) *Info {
	return &Info{
		Kind:           kind,
		StartTime:      -1,
		EndTime:        -1,
		RevocationTime: -1,
	}
}

// IsSigned reports whether the object has a serialised, authoritative form.
func (i *Info) IsSigned() bool { return i.Blob != nil }

// Clock is the collaborator interface the signer and validator use for the
// current time (spec §6.4); internal/clock.Clock already satisfies it.
type Clock = clock.Clock
