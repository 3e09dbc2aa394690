package legacy

import (
	"crypto/rand"
	"math/big"

	vaulterrors "securecloud/internal/errors"
)

// PasswordOptions configures GeneratePassword. At least one character set
// must be enabled, otherwise GeneratePassword returns an empty string.
type PasswordOptions struct {
	Length  int
	Upper   bool
	Lower   bool
	Numbers bool
	Symbols bool
}

// GeneratePassword produces a random SCV1 candidate password from the
// requested character sets, suitable for suggesting to a user setting up a
// vault with no C3 identity available.
func GeneratePassword(opts PasswordOptions) (string, error) {
	chars := ""
	if opts.Upper {
		chars += "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	}
	if opts.Lower {
		chars += "abcdefghijklmnopqrstuvwxyz"
	}
	if opts.Numbers {
		chars += "1234567890"
	}
	if opts.Symbols {
		chars += "-=_+!@#$^&()?<>"
	}

	if len(chars) == 0 || opts.Length <= 0 {
		return "", nil
	}

	out := make([]byte, opts.Length)
	for i := range out {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", vaulterrors.Wrap(err, "legacy: generate password")
		}
		out[i] = chars[j.Int64()]
	}
	return string(out), nil
}
