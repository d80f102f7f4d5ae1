package certsign

import (
	"github.com/letsencrypt/bercert/asn1"
	"github.com/letsencrypt/bercert/berrors"
	"github.com/letsencrypt/bercert/certcore"
)

// ExtraDataLevel selects how much chain material step 8 attaches to a
// CRMF/OCSP request (spec §4.5 step 8).
type ExtraDataLevel int

const (
	// ExtraDataNone attaches nothing.
	ExtraDataNone ExtraDataLevel = iota
	// ExtraDataSignerCert attaches the signer's own certificate alone.
	ExtraDataSignerCert
	// ExtraDataAll attaches the full chain up to (and including) the root.
	ExtraDataAll
)

// attachExtraData wraps the selected certificate blobs in a
// context-specific [0] constructed field and appends it to blob (spec §4.5
// step 8). Called only for CRMF/OCSP requests with signatureLevel > NONE.
func attachExtraData(blob []byte, level ExtraDataLevel, signerCert *certcore.Info, chain []*certcore.Info) ([]byte, error) {
	if level == ExtraDataNone {
		return blob, nil
	}

	var certs [][]byte
	switch level {
	case ExtraDataSignerCert:
		if signerCert == nil || signerCert.Blob == nil {
			return nil, berrors.NotInitialisedError("extra-data level SIGNERCERT requires a signed signer certificate")
		}
		certs = [][]byte{signerCert.Blob}
	case ExtraDataAll:
		for _, c := range chain {
			if c.Blob == nil {
				return nil, berrors.NotInitialisedError("extra-data level ALL requires every chain member to be signed")
			}
			certs = append(certs, c.Blob)
		}
	}

	contentLen := 0
	for _, c := range certs {
		contentLen += len(c)
	}

	w := asn1.NewWriter()
	if err := asn1.WriteConstructed(w, contentLen, 0); err != nil {
		return nil, err
	}
	for _, c := range certs {
		if err := w.PutAll(c); err != nil {
			return nil, err
		}
	}
	extra := w.Bytes()

	return append(append([]byte(nil), blob...), extra...), nil
}
