// Print random hex secret suitable for SECRET_KEY
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const (
	defaultSecretBytes = 32
	minSecretBytes     = 16
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	size := fs.IntP("bytes", "n", defaultSecretBytes, "Secret length in bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *size < minSecretBytes {
		return fmt.Errorf("secret must be at least %d bytes, got %d", minSecretBytes, *size)
	}

	b := make([]byte, *size)
	if _, err := rand.Read(b); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, hex.EncodeToString(b))
	return err
}
