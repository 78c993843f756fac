package accounts

import (
	"crypto/rand"
	"fmt"
	"math/big"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// VerificationCodeLength is the number of digits in a verification code.
var VerificationCodeLength = 6

// GenerateVerificationCode returns a random numeric code drawn uniformly from
// the full code space. Codes are compared with exact string match, leading
// zeros included.
func GenerateVerificationCode() (string, error) {
	space := new(big.Int).Exp(
		big.NewInt(10),
		big.NewInt(int64(VerificationCodeLength)),
		nil,
	)

	n, err := rand.Int(rand.Reader, space)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification code")
	}

	return fmt.Sprintf("%0*d", VerificationCodeLength, n), nil
}

// GenerateResetToken returns a fresh opaque reset token. Uniqueness comes
// from the UUID space; the replay ledger guards against reuse.
func GenerateResetToken() string {
	return uuid.NewString()
}
