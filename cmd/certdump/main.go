// Command certdump decodes a BER/DER certificate-like object from disk and
// prints the fields certcore.RecoverPointers can pull out of it without
// needing a full X.509 parse: issuer/subject DN, SPKI, serial number, and
// the derived nameID/issuerID/certID identifiers (spec §4.7, §6.3).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
