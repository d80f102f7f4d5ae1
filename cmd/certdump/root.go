package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/letsencrypt/bercert/certcore"
)

var kindName string
var pemInput bool

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "certdump FILE",
		Short: "Decode a certificate-like BER/DER object and print its recovered structure",
		Long: `certdump reads a single BER/DER-encoded object — a certificate, CRL,
certification request, or PKI user info — and prints the pointers
certcore.RecoverPointers recovers from it: the issuer/subject
distinguished names, the subjectPublicKeyInfo, the serial number, and the
SHA-1 identifiers derived from them (nameID, issuerID, certID).`,
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE:         runDump,
	}
	root.Flags().StringVar(&kindName, "kind", "certificate",
		"object kind: certificate, attributecert, crl, certrequest, crmfrequest, pkiuser")
	root.Flags().BoolVar(&pemInput, "pem", false, "decode a PEM-armoured file instead of raw DER")
	return root
}

func kindFromName(name string) (certcore.Kind, error) {
	switch name {
	case "certificate":
		return certcore.KindCertificate, nil
	case "attributecert":
		return certcore.KindAttributeCert, nil
	case "crl":
		return certcore.KindCRL, nil
	case "certrequest":
		return certcore.KindCertRequest, nil
	case "crmfrequest":
		return certcore.KindCRMFRequest, nil
	case "pkiuser":
		return certcore.KindPKIUser, nil
	default:
		return 0, fmt.Errorf("unknown --kind %q", name)
	}
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !pemInput {
		return data, nil
	}
	return decodePEM(data)
}
