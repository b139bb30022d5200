// Command gensecret prints random hex string suitable for SECRET_KEY
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const defaultSecretKeyBytesLen = 32

func main() {
	size := pflag.IntP("bytes", "b", defaultSecretKeyBytesLen, "Number of random bytes, printed hex encoded")
	pflag.Parse()

	secret, err := generate(*size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(secret)
}

func generate(size int) (string, error) {
	if size < 16 {
		return "", fmt.Errorf("at least 16 bytes required, got %d", size)
	}

	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
