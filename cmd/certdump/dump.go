package main

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/pem"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/letsencrypt/bercert/berrors"
	"github.com/letsencrypt/bercert/certcore"
)

// sha1Hash adapts crypto/sha1 to the certcore.Hash collaborator interface,
// the same one-shot Update/Finalize shape certsign/certverify's own fakes
// use in tests.
type sha1Hash struct {
	buf []byte
}

func (s *sha1Hash) Update(data []byte)  { s.buf = append(s.buf, data...) }
func (s *sha1Hash) Finalize() [20]byte { return sha1.Sum(s.buf) }

func decodePEM(data []byte) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, berrors.BadDataError("no PEM block found in input")
	}
	return block.Bytes, nil
}

func runDump(cmd *cobra.Command, args []string) error {
	kind, err := kindFromName(kindName)
	if err != nil {
		return err
	}
	blob, err := readInput(args[0])
	if err != nil {
		return err
	}

	pointers, err := certcore.RecoverPointers(kind, blob)
	if err != nil {
		return fmt.Errorf("recovering pointers: %w", err)
	}
	info := certcore.NewInfo(kind)
	info.Blob = blob
	pointers.Apply(info)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "kind:       %s\n", info.Kind)
	fmt.Fprintf(out, "size:       %d bytes\n", len(info.Blob))

	if info.IssuerDN.Valid() {
		dn := info.IssuerDN.Slice(info.Blob)
		fmt.Fprintf(out, "issuerDN:   %s\n", hex.EncodeToString(dn))
		id := certcore.NameID(&sha1Hash{}, dn)
		fmt.Fprintf(out, "  nameID:   %s\n", hex.EncodeToString(id[:]))
	}
	if info.SubjectDN.Valid() {
		dn := info.SubjectDN.Slice(info.Blob)
		fmt.Fprintf(out, "subjectDN:  %s\n", hex.EncodeToString(dn))
		id := certcore.NameID(&sha1Hash{}, dn)
		fmt.Fprintf(out, "  nameID:   %s\n", hex.EncodeToString(id[:]))
	}
	if info.PublicKeyInfo.Valid() {
		fmt.Fprintf(out, "spki:       %d bytes\n", info.PublicKeyInfo.Length)
	}
	if info.SerialNumber.Valid() {
		serial := info.SerialNumber.Slice(info.Blob)
		fmt.Fprintf(out, "serial:     %s\n", hex.EncodeToString(serial))
	}
	if info.IssuerDN.Valid() && info.SerialNumber.Valid() {
		issuerID, err := certcore.IssuerID(&sha1Hash{}, info.IssuerDN.Slice(info.Blob), info.SerialNumber.Slice(info.Blob))
		if err != nil {
			return fmt.Errorf("deriving issuerID: %w", err)
		}
		fmt.Fprintf(out, "issuerID:   %s\n", hex.EncodeToString(issuerID[:]))
	}

	certID := certcore.CertID(&sha1Hash{}, info.Blob)
	fmt.Fprintf(out, "certID:     %s\n", hex.EncodeToString(certID[:]))

	return nil
}
