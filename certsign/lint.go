package certsign

import (
	"fmt"

	zx509 "github.com/zmap/zcrypto/x509"
	"github.com/zmap/zlint/v3"
	"github.com/zmap/zlint/v3/lint"

	"github.com/letsencrypt/bercert/berrors"
)

// LintError wraps the zlint results whose status exceeded the configured
// severity, grounded on cfssl's signer/local.go LintError (retrieved in
// this pack's other_examples as the moby-moby vendor copy): callers can
// inspect ErrorResults for the failing lint names rather than just a
// formatted count.
type LintError struct {
	ErrorResults map[string]lint.LintResult
}

func (e *LintError) Error() string {
	return fmt.Sprintf("pre-publication linting found %d result(s) above the configured severity", len(e.ErrorResults))
}

// lintCertificate re-parses a freshly signed certificate DER blob with
// zcrypto and runs it through zlint (grounded on cfssl's
// signer/local.go Signer.lint, which signs a throwaway copy of the TBS and
// lints that; this core already has the real signed DER in hand by the
// time SignCertificate calls here, so it lints the genuine output instead
// of a stand-in). errLevel == lint.Reserved disables linting entirely,
// matching the cfssl convention of treating the zero LintStatus as "off".
// A nil registry runs every lint zlint ships.
func lintCertificate(der []byte, errLevel lint.LintStatus, registry lint.Registry) error {
	if errLevel == lint.Reserved {
		return nil
	}
	cert, err := zx509.ParseCertificate(der)
	if err != nil {
		return berrors.BadDataError("parsing signed certificate for linting: %v", err)
	}
	if registry == nil {
		registry = lint.GlobalRegistry()
	}

	results := zlint.LintCertificateEx(cert, registry)
	errorResults := map[string]lint.LintResult{}
	for name, res := range results.Results {
		if res.Status > errLevel {
			errorResults[name] = *res
		}
	}
	if len(errorResults) > 0 {
		return &LintError{ErrorResults: errorResults}
	}
	return nil
}
