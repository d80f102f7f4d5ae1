package certsign

import (
	ct "github.com/google/certificate-transparency-go"

	"github.com/letsencrypt/bercert/asn1"
	"github.com/letsencrypt/bercert/berrors"
)

// oidSCTListExtension is the pre-encoded OID TLV for
// 1.3.6.1.4.1.11129.2.4.2, the X.509v3 extension RFC 6962 defines to carry
// a certificate's embedded SCT list.
var oidSCTListExtension = []byte{0x06, 0x0A, 0x2B, 0x06, 0x01, 0x04, 0x01, 0xD6, 0x79, 0x02, 0x04, 0x02}

// SCTListExtension builds a full Extension SEQUENCE TLV (extnID,
// [critical], extnValue) carrying scts, mirroring the teacher's
// issuanceEvent/SCT wiring but serialized with this core's own writer
// instead of encoding/asn1. The SCT list itself is serialized with
// certificate-transparency-go's wire format (RFC 6962 §3.3), then wrapped
// once more as the DER OCTET STRING the extnValue field requires, and
// again as the OCTET STRING carried inside that extension's own value
// (the "TransItem list" double-OCTET-STRING RFC 6962 specifies).
func SCTListExtension(scts []ct.SignedCertificateTimestamp) ([]byte, error) {
	if len(scts) == 0 {
		return nil, berrors.InvalidArgumentError("an SCT-list extension requires at least one SCT")
	}
	sctList, err := ct.SerializeSCTList(scts)
	if err != nil {
		return nil, berrors.BadDataError("failed to serialize SCT list: %v", err)
	}

	innerLen := asn1.SizeofObject(len(sctList))
	inner := asn1.NewWriter()
	if err := asn1.WriteOctetString(inner, sctList, asn1.DefaultTag); err != nil {
		return nil, err
	}
	innerOctets := inner.Bytes()
	if len(innerOctets) != innerLen {
		return nil, berrors.BadDataError("SCT list OCTET STRING size mismatch")
	}

	contentLen := len(oidSCTListExtension) + asn1.SizeofObject(innerLen)

	w := asn1.NewWriter()
	if err := asn1.WriteSequence(w, contentLen); err != nil {
		return nil, err
	}
	if err := asn1.WriteOID(w, oidSCTListExtension); err != nil {
		return nil, err
	}
	if err := asn1.WriteOctetString(w, innerOctets, asn1.DefaultTag); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
