package certverify

import (
	"github.com/letsencrypt/bercert/berrors"
	"github.com/letsencrypt/bercert/certcore"
)

// rtcsResponsePath implements spec §4.6.3: each validity entry's certID is
// looked up in the keyset with CHECK_ONLY semantics (Keyset.Contains, not
// FindByID — the validator never needs to materialise the matched cert).
// Entries are updated in place; the overall result is Invalid iff any
// entry resolved to anything other than VALID.
func rtcsResponsePath(subject *certcore.Info, certs certcore.Keyset, ctx Context) error {
	if certs == nil {
		return berrors.InvalidArgumentError("RTCS response verification requires a keyset")
	}

	anyInvalid := false
	for i := range subject.Entries {
		entry := &subject.Entries[i]
		found, err := certs.Contains(certcore.LookupCertID, entry.ID[:])
		if err != nil {
			return err
		}
		if found {
			entry.Status = certcore.StatusGood
		} else {
			entry.Status = certcore.StatusUnknown
			anyInvalid = true
		}
	}

	if anyInvalid {
		return berrors.NewConstraint(berrors.LocusSubject, berrors.AttributeValue,
			"one or more RTCS response entries did not resolve to VALID")
	}
	return nil
}
