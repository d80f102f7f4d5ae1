package certverify

import "github.com/letsencrypt/bercert/certcore"

// chainIsSelfSignedAtRoot reports whether info's chain (if it has one)
// terminates in a self-signed root, or info itself carries SELFSIGNED.
func chainIsSelfSignedAtRoot(info *certcore.Info) bool {
	if info.Flags.Has(certcore.FlagSelfSigned) {
		return true
	}
	if info.Kind != certcore.KindCertChain || len(info.Chain) == 0 {
		return false
	}
	root := info.Chain[len(info.Chain)-1]
	return root.Flags.Has(certcore.FlagSelfSigned)
}

// selfSignedPath implements spec §4.6.1: the subject is checked against
// itself. A cert request or CRMF request is implicitly self-signed and
// takes this path like any other kind; chainIsSelfSignedAtRoot documents
// the other case this path is meaningful for, but doesn't gate it — a
// caller that supplies no verifier always gets a self-check.
func selfSignedPath(subject *certcore.Info, ctx Context) error {
	if subject.Kind == certcore.KindCertificate && ctx.Trust != nil && ctx.Trust.IsTrusted(subject) {
		return nil
	}
	return signatureCheckPath(subject, IssuerContext{Cert: subject}, ctx)
}
