package config

import (
	"os"
	"os/exec"
	"path/filepath"
)

// PrefixDir locates the GNUnet installation prefix: $GNUNET_PREFIX if
// set, otherwise two directories above the gnunet-arm binary on $PATH.
func PrefixDir() (string, bool) {
	if p, ok := os.LookupEnv("GNUNET_PREFIX"); ok && p != "" {
		return p, true
	}
	bin, err := exec.LookPath("gnunet-arm")
	if err != nil {
		return "", false
	}
	// <prefix>/bin/gnunet-arm
	return filepath.Dir(filepath.Dir(bin)), true
}

// DataDir locates the installed data directory, <prefix>/share/gnunet.
func DataDir() (string, bool) {
	prefix, ok := PrefixDir()
	if !ok {
		return "", false
	}
	return filepath.Join(prefix, "share", "gnunet"), true
}
