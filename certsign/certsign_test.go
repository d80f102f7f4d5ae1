package certsign

import (
	"crypto/sha1"
	"testing"

	ct "github.com/google/certificate-transparency-go"

	"github.com/letsencrypt/bercert/asn1"
	"github.com/letsencrypt/bercert/certcore"
)

// sha1Hash is a minimal Hash collaborator for tests, standing in for a
// caller-supplied digest (mirrors certcore's own test fake).
type sha1Hash struct{ buf []byte }

func (s *sha1Hash) Update(data []byte) { s.buf = append(s.buf, data...) }
func (s *sha1Hash) Finalize() [20]byte { return sha1.Sum(s.buf) }

// fakeSigner is a Signer collaborator whose Sign just echoes the digest
// back, optionally reporting an associated certificate and a fixed
// CanSign verdict (for the encryption-only-key CRMF path).
type fakeSigner struct {
	canSign bool
	cert    *certcore.Info
}

func (f *fakeSigner) Sign(digest []byte) ([]byte, error) {
	return append([]byte(nil), digest...), nil
}

func (f *fakeSigner) AssociatedCert() (certcore.CertHandle, bool) {
	if f.cert == nil {
		return nil, false
	}
	return fakeHandle{f.cert}, true
}

func (f *fakeSigner) CanSign() bool { return f.canSign }

type fakeHandle struct{ info *certcore.Info }

func (h fakeHandle) Info() *certcore.Info        { return h.info }
func (h fakeHandle) Retain() certcore.CertHandle { return h }
func (h fakeHandle) Release()                    {}

func testDN(content string) []byte {
	return append([]byte{0x30, byte(len(content))}, []byte(content)...)
}

func testParams() CertificateParams {
	return CertificateParams{
		SerialNumber:       []byte{0x01},
		IssuerDN:           testDN("issuer-dn"),
		SubjectDN:          testDN("subject-dn"),
		PublicKeyInfo:      testDN("public-key-info"),
		SignatureAlgorithm: certcore.AlgorithmID{OID: []byte{0x06, 0x01, 0x2A}, HasNullParams: true},
		NotBefore:          -1,
		NotAfter:           -1,
	}
}

func TestSignCertificateSelfSigned(t *testing.T) {
	req := CertificateRequest{
		Params:          testParams(),
		ValiditySeconds: 3600,
		Issuer:          IssuerContext{Signer: &fakeSigner{canSign: true}},
		Hash:            &sha1Hash{},
	}
	info, err := SignCertificate(req, 1000)
	if err != nil {
		t.Fatalf("SignCertificate: %v", err)
	}
	if !info.IsSigned() {
		t.Fatal("expected a signed Info")
	}
	if !info.Flags.Has(certcore.FlagSelfSigned) || !info.Flags.Has(certcore.FlagSigChecked) {
		t.Fatalf("expected SELFSIGNED|SIGCHECKED, got %v", info.Flags)
	}
	if info.StartTime != 1000 || info.EndTime != 4600 {
		t.Fatalf("StartTime/EndTime = %d/%d, want 1000/4600", info.StartTime, info.EndTime)
	}
	if !info.SubjectDN.Valid() || !info.IssuerDN.Valid() || !info.PublicKeyInfo.Valid() || !info.SerialNumber.Valid() {
		t.Fatalf("expected all pointers recovered, got %+v", info)
	}
	if got := info.SubjectDN.Slice(info.Blob); string(got) != string(testParams().SubjectDN) {
		t.Fatalf("SubjectDN pointer = % X, want % X", got, testParams().SubjectDN)
	}
}

func TestSignCertificateRequiresASigner(t *testing.T) {
	req := CertificateRequest{
		Params:          testParams(),
		ValiditySeconds: 3600,
		Issuer:          IssuerContext{},
		Hash:            &sha1Hash{},
	}
	if _, err := SignCertificate(req, 1000); err == nil {
		t.Fatal("expected an error when no signer is supplied, even self-signed")
	}
}

func TestSignCertificateRejectsUnconstrainedIssuer(t *testing.T) {
	issuerCert := certcore.NewInfo(certcore.KindCertificate)
	issuerCert.Blob = []byte{0x30, 0x00}
	req := CertificateRequest{
		Params:          testParams(),
		ValiditySeconds: 3600,
		Issuer: IssuerContext{
			Cert:         issuerCert,
			Signer:       &fakeSigner{canSign: true},
			Capabilities: IssuerCapabilities{IsCA: false},
		},
		Hash: &sha1Hash{},
	}
	if _, err := SignCertificate(req, 1000); err == nil {
		t.Fatal("expected an issuer-constraint error when the issuer lacks KeyCertSign/IsCA")
	}
}

func TestSignCertificateWithExtensionsWritesV3(t *testing.T) {
	params := testParams()
	scts := []ct.SignedCertificateTimestamp{{SCTVersion: ct.V1}}
	ext, err := SCTListExtension(scts)
	if err != nil {
		t.Fatalf("SCTListExtension: %v", err)
	}
	params.Extensions = [][]byte{ext}

	req := CertificateRequest{
		Params:          params,
		ValiditySeconds: 3600,
		Issuer:          IssuerContext{Signer: &fakeSigner{canSign: true}},
		Hash:            &sha1Hash{},
	}
	info, err := SignCertificate(req, 1000)
	if err != nil {
		t.Fatalf("SignCertificate: %v", err)
	}
	if !info.IsSigned() {
		t.Fatal("expected a signed Info")
	}
}

func TestSCTListExtensionRejectsEmptyList(t *testing.T) {
	if _, err := SCTListExtension(nil); err == nil {
		t.Fatal("expected an error for an empty SCT list")
	}
}

func TestSignCRL(t *testing.T) {
	req := CRLRequest{
		Params: CRLParams{
			IssuerDN:           testDN("issuer-dn"),
			SignatureAlgorithm: certcore.AlgorithmID{OID: []byte{0x06, 0x01, 0x2A}},
			ThisUpdate:         -1,
			NextUpdate:         -1,
			RevokedSerials:     [][]byte{{0x01}, {0x02}},
		},
		ValiditySeconds: 86400,
		Issuer: IssuerContext{
			Cert:         certcore.NewInfo(certcore.KindCertificate),
			Signer:       &fakeSigner{canSign: true},
			Capabilities: IssuerCapabilities{IsCA: true, CRLSign: true},
		},
		Hash: &sha1Hash{},
	}
	req.Issuer.Cert.Blob = []byte{0x30, 0x00}

	info, err := SignCRL(req, 1000)
	if err != nil {
		t.Fatalf("SignCRL: %v", err)
	}
	if !info.IsSigned() {
		t.Fatal("expected a signed CRL")
	}
	if !info.IssuerDN.Valid() {
		t.Fatal("expected the issuer DN pointer to be recovered")
	}
	if info.SubjectDN.Valid() {
		t.Fatal("a CRL has no subject DN")
	}
}

func TestSignCRMFRequestWithSigningKey(t *testing.T) {
	tbs := append(append([]byte{0x30, 0x0D, 0x02, 0x01, 0x00}, testDN("sub")...), 0xA6, 0x03, 'k', 'e', 'y')
	req := CRMFSigningRequest{
		TBS:       tbs,
		Algorithm: certcore.AlgorithmID{OID: []byte{0x06, 0x01, 0x2A}},
		Issuer:    IssuerContext{Signer: &fakeSigner{canSign: true}},
		Hash:      &sha1Hash{},
	}
	info, err := SignCRMFRequest(req)
	if err != nil {
		t.Fatalf("SignCRMFRequest: %v", err)
	}
	if !info.IsSigned() {
		t.Fatal("expected a signed CRMF request")
	}
	if info.Flags.Has(certcore.FlagSelfSigned) {
		t.Fatal("a keyed CRMF signing does not set SELFSIGNED")
	}
}

func TestSignCRMFRequestFallsBackToPseudoSignedForEncryptionOnlyKey(t *testing.T) {
	tbs := append([]byte{0x30, 0x08, 0x02, 0x01, 0x00}, testDN("sub")...)
	req := CRMFSigningRequest{
		TBS:    tbs,
		Issuer: IssuerContext{Signer: &fakeSigner{canSign: false}},
		Hash:   &sha1Hash{},
	}
	info, err := SignCRMFRequest(req)
	if err != nil {
		t.Fatalf("SignCRMFRequest: %v", err)
	}
	if !info.Flags.Has(certcore.FlagSelfSigned) || !info.Flags.Has(certcore.FlagSigChecked) {
		t.Fatalf("expected a pseudo-signed result, got flags %v", info.Flags)
	}
}

func TestSignCertRequest(t *testing.T) {
	req := CertRequestRequest{
		Params: CertRequestParams{
			SubjectDN:          testDN("subject-dn"),
			PublicKeyInfo:      testDN("public-key-info"),
			SignatureAlgorithm: certcore.AlgorithmID{OID: []byte{0x06, 0x01, 0x2A}},
		},
		Signer: &fakeSigner{canSign: true},
		Hash:   &sha1Hash{},
	}
	info, err := SignCertRequest(req)
	if err != nil {
		t.Fatalf("SignCertRequest: %v", err)
	}
	if !info.IsSigned() {
		t.Fatal("expected a signed Info")
	}
	if !info.Flags.Has(certcore.FlagSelfSigned) || !info.Flags.Has(certcore.FlagSigChecked) {
		t.Fatalf("a cert request is always implicitly self-signed, got flags %v", info.Flags)
	}
	if !info.SubjectDN.Valid() || !info.PublicKeyInfo.Valid() {
		t.Fatalf("expected subject/SPKI pointers recovered, got %+v", info)
	}
}

func TestSignCertRequestRequiresASigner(t *testing.T) {
	req := CertRequestRequest{
		Params: CertRequestParams{
			SubjectDN:          testDN("subject-dn"),
			PublicKeyInfo:      testDN("public-key-info"),
			SignatureAlgorithm: certcore.AlgorithmID{OID: []byte{0x06, 0x01, 0x2A}},
		},
		Hash: &sha1Hash{},
	}
	if _, err := SignCertRequest(req); err == nil {
		t.Fatal("expected an error when no signer is supplied")
	}
}

func TestSignCertChainSelfSignedIsLengthOne(t *testing.T) {
	req := CertificateRequest{
		Params:          testParams(),
		ValiditySeconds: 3600,
		Issuer:          IssuerContext{Signer: &fakeSigner{canSign: true}},
		Hash:            &sha1Hash{},
	}
	chain, err := SignCertChain(req, 1000)
	if err != nil {
		t.Fatalf("SignCertChain: %v", err)
	}
	if chain.Kind != certcore.KindCertChain {
		t.Fatalf("Kind = %v, want KindCertChain", chain.Kind)
	}
	if len(chain.Chain) != 1 {
		t.Fatalf("self-signed chain length = %d, want 1", len(chain.Chain))
	}
	if !chain.Flags.Has(certcore.FlagSelfSigned) {
		t.Fatal("expected a self-signed chain to carry SELFSIGNED")
	}
}

func TestSignCertChainCopiesIssuerChain(t *testing.T) {
	root := certcore.NewInfo(certcore.KindCertificate)
	root.Blob = []byte{0x30, 0x00}
	root.Flags = certcore.FlagSelfSigned | certcore.FlagSigChecked

	intermediate := certcore.NewInfo(certcore.KindCertificate)
	intermediate.Blob = []byte{0x30, 0x00}
	intermediate.Chain = []*certcore.Info{root}

	issuerCert := certcore.NewInfo(certcore.KindCertificate)
	issuerCert.Blob = []byte{0x30, 0x00}

	req := CertificateRequest{
		Params:          testParams(),
		ValiditySeconds: 3600,
		Issuer: IssuerContext{
			Cert:         issuerCert,
			Signer:       &fakeSigner{canSign: true, cert: intermediate},
			Capabilities: IssuerCapabilities{IsCA: true, KeyCertSign: true},
		},
		Hash: &sha1Hash{},
	}
	chain, err := SignCertChain(req, 1000)
	if err != nil {
		t.Fatalf("SignCertChain: %v", err)
	}
	if len(chain.Chain) != 3 {
		t.Fatalf("chain length = %d, want 3 (leaf, intermediate, root)", len(chain.Chain))
	}
	if chain.Chain[1] != intermediate || chain.Chain[2] != root {
		t.Fatal("expected the issuer's associated chain appended after the leaf")
	}
	if !chain.Flags.Has(certcore.FlagSelfSigned) {
		t.Fatal("expected SELFSIGNED to propagate from the self-signed root")
	}
}

func TestSignOCSPRequestWithSigningKey(t *testing.T) {
	tbs := append([]byte{0x30, 0x08, 0x02, 0x01, 0x00}, testDN("sub")...)
	req := OCSPRequestSigningRequest{
		TBS:       tbs,
		Algorithm: certcore.AlgorithmID{OID: []byte{0x06, 0x01, 0x2A}},
		Issuer: IssuerContext{
			Signer:       &fakeSigner{canSign: true},
			Capabilities: IssuerCapabilities{DigitalSignature: true},
		},
		Hash: &sha1Hash{},
	}
	info, err := SignOCSPRequest(req)
	if err != nil {
		t.Fatalf("SignOCSPRequest: %v", err)
	}
	if !info.IsSigned() {
		t.Fatal("expected a signed OCSP request")
	}
	if info.Blob[0] != 0x80 {
		t.Fatalf("expected the OCSP formatInfo marker byte 0x80, got %#x", info.Blob[0])
	}
}

func TestSignOCSPRequestFallsBackToPseudoSignedWhenAnonymous(t *testing.T) {
	tbs := append([]byte{0x30, 0x08, 0x02, 0x01, 0x00}, testDN("sub")...)
	req := OCSPRequestSigningRequest{
		TBS:  tbs,
		Hash: &sha1Hash{},
	}
	info, err := SignOCSPRequest(req)
	if err != nil {
		t.Fatalf("SignOCSPRequest: %v", err)
	}
	if !info.Flags.Has(certcore.FlagSelfSigned) || !info.Flags.Has(certcore.FlagSigChecked) {
		t.Fatalf("expected a pseudo-signed result, got flags %v", info.Flags)
	}
}

func TestSignOCSPRequestFallsBackWhenIssuerLacksDigitalSignature(t *testing.T) {
	tbs := append([]byte{0x30, 0x08, 0x02, 0x01, 0x00}, testDN("sub")...)
	req := OCSPRequestSigningRequest{
		TBS: tbs,
		Issuer: IssuerContext{
			Signer: &fakeSigner{canSign: true},
		},
		Hash: &sha1Hash{},
	}
	info, err := SignOCSPRequest(req)
	if err != nil {
		t.Fatalf("SignOCSPRequest: %v", err)
	}
	if !info.Flags.Has(certcore.FlagSelfSigned) {
		t.Fatal("expected pseudo-signed fallback when the issuer doesn't assert DigitalSignature")
	}
}

func TestSignPseudoRejectsNonPseudoSignedKind(t *testing.T) {
	if _, err := SignPseudo(certcore.KindCertificate, []byte{0x02, 0x01, 0x00}); err == nil {
		t.Fatal("expected an error for a kind that always requires a real signature")
	}
}

func TestSignPseudoWrapsBodyInSequence(t *testing.T) {
	body := []byte{0x02, 0x01, 0x2A}
	info, err := SignPseudo(certcore.KindOCSPResponse, body)
	if err != nil {
		t.Fatalf("SignPseudo: %v", err)
	}
	want, err := asn1WrapForTest(body)
	if err != nil {
		t.Fatalf("asn1WrapForTest: %v", err)
	}
	if string(info.Blob) != string(want) {
		t.Fatalf("Blob = % X, want % X", info.Blob, want)
	}
}

func asn1WrapForTest(body []byte) ([]byte, error) {
	w := asn1.NewWriter()
	if err := asn1.WriteSequence(w, len(body)); err != nil {
		return nil, err
	}
	if err := w.PutAll(body); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func TestAllocateSerialIsPositiveAndMinimal(t *testing.T) {
	serial, err := AllocateSerial()
	if err != nil {
		t.Fatalf("AllocateSerial: %v", err)
	}
	if len(serial) == 0 {
		t.Fatal("expected a non-empty serial")
	}
	if serial[0]&0x80 != 0 {
		t.Fatal("expected a positive (sign-bit-clear) serial")
	}
	if len(serial) > 1 && serial[0] == 0 {
		t.Fatal("expected no redundant leading zero byte")
	}
}
