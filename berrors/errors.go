// Package berrors defines the exhaustive set of error kinds produced by the
// ASN.1 codec and certificate signing/validation core.
package berrors

import "fmt"

// ErrorKind provides a coarse category for a CertError, mirroring the
// outcome of a single cryptlib cryptStatus code.
type ErrorKind int

const (
	// BadData indicates a structural violation in encoded input: a bad tag,
	// a bad length, a disallowed encoding, an unsupported string type, or
	// nesting that exceeds the validator's depth bound.
	BadData ErrorKind = iota
	// Overflow indicates a length field too large for the context it was
	// read in.
	Overflow
	// NotFound indicates an identifier absent from a keyset.
	NotFound
	// NotAvailable indicates a required algorithm or capability is absent.
	NotAvailable
	// Invalid indicates a semantic check failed: a revoked cert, a CRL
	// match, an expired validity window, a constraint failure.
	Invalid
	// Signature indicates cryptographic signature verification failed.
	Signature
	// Permission indicates a KeyUsage or CA flag forbids the requested
	// action.
	Permission
	// NotInitialised indicates an object is missing a required field at
	// the point of use.
	NotInitialised
	// Initialised indicates an attempt to set a field on an
	// already-signed object.
	Initialised
	// Memory indicates an allocation failure.
	Memory
	// Timeout indicates a responder session did not complete in time.
	Timeout
	// Cancelled indicates a responder session was cancelled before it
	// completed.
	Cancelled
	// InvalidArgument indicates an (operation, argument) combination that
	// is not supported, e.g. a keyset verifying a CRL.
	InvalidArgument
)

func (k ErrorKind) String() string {
	switch k {
	case BadData:
		return "BadData"
	case Overflow:
		return "Overflow"
	case NotFound:
		return "NotFound"
	case NotAvailable:
		return "NotAvailable"
	case Invalid:
		return "Invalid"
	case Signature:
		return "Signature"
	case Permission:
		return "Permission"
	case NotInitialised:
		return "NotInitialised"
	case Initialised:
		return "Initialised"
	case Memory:
		return "Memory"
	case Timeout:
		return "Timeout"
	case Cancelled:
		return "Cancelled"
	case InvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Locus names the certificate field a signer constraint failure applies to,
// so a caller can localise the problem instead of just getting "Invalid".
type Locus int

const (
	// LocusNone applies when a failure carries no specific field.
	LocusNone Locus = iota
	LocusSubject
	// LocusIssuerConstraint distinguishes a constraint failure found in the
	// issuer/CA certificate from one found in the subject being signed.
	LocusIssuerConstraint
)

func (l Locus) String() string {
	switch l {
	case LocusSubject:
		return "Subject"
	case LocusIssuerConstraint:
		return "IssuerConstraint"
	default:
		return "None"
	}
}

// AttributeType refines a Locus: which aspect of the attribute at that
// locus failed.
type AttributeType int

const (
	AttributeNone AttributeType = iota
	AttributePresent
	AttributeValue
	AttributeAbsent
	AttributeConstraint
)

// CertError is the error type produced by every operation in this module.
// It carries a coarse Kind plus, for signer constraint failures, the Locus
// and AttributeType that let a caller localise the problem (spec §7).
type CertError struct {
	Kind   ErrorKind
	Locus  Locus
	Attr   AttributeType
	Detail string
}

func (e *CertError) Error() string {
	if e.Locus == LocusNone {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Detail, e.Locus)
}

// New builds a CertError with no locus attached.
func New(kind ErrorKind, msg string, args ...interface{}) error {
	return &CertError{Kind: kind, Detail: fmt.Sprintf(msg, args...)}
}

// NewConstraint builds a CertError for a signer/validator constraint
// failure, attaching the locus and attribute type a caller can use to
// localise the problem.
func NewConstraint(locus Locus, attr AttributeType, msg string, args ...interface{}) error {
	return &CertError{Kind: Invalid, Locus: locus, Attr: attr, Detail: fmt.Sprintf(msg, args...)}
}

// Is reports whether err is a *CertError of the given kind.
func Is(err error, kind ErrorKind) bool {
	cErr, ok := err.(*CertError)
	if !ok {
		return false
	}
	return cErr.Kind == kind
}

func BadDataError(msg string, args ...interface{}) error       { return New(BadData, msg, args...) }
func OverflowError(msg string, args ...interface{}) error      { return New(Overflow, msg, args...) }
func NotFoundError(msg string, args ...interface{}) error      { return New(NotFound, msg, args...) }
func NotAvailableError(msg string, args ...interface{}) error  { return New(NotAvailable, msg, args...) }
func InvalidError(msg string, args ...interface{}) error       { return New(Invalid, msg, args...) }
func SignatureError(msg string, args ...interface{}) error     { return New(Signature, msg, args...) }
func PermissionError(msg string, args ...interface{}) error    { return New(Permission, msg, args...) }
func NotInitialisedError(msg string, args ...interface{}) error {
	return New(NotInitialised, msg, args...)
}
func InitialisedError(msg string, args ...interface{}) error { return New(Initialised, msg, args...) }
func MemoryError(msg string, args ...interface{}) error      { return New(Memory, msg, args...) }
func TimeoutError(msg string, args ...interface{}) error     { return New(Timeout, msg, args...) }
func CancelledError(msg string, args ...interface{}) error   { return New(Cancelled, msg, args...) }
func InvalidArgumentError(msg string, args ...interface{}) error {
	return New(InvalidArgument, msg, args...)
}
