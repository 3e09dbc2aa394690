package legacy

import (
	"github.com/Picocrypt/zxcvbn-go"
)

// EstimatePasswordStrength scores a candidate SCV1 password on zxcvbn's
// usual 0-4 scale. It is purely advisory: callers may warn a user toward a
// stronger password, but nothing in this package blocks a weak one — there
// is no password recovery or rotation story to protect against a bad
// choice beyond that warning.
func EstimatePasswordStrength(password string) int {
	return zxcvbn.PasswordStrength(password, nil).Score
}
