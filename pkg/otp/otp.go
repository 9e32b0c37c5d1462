// Package otp generates the time-based one-time passwords used at login.
package otp

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Login codes are six digit SHA1 TOTPs over a 30 second step.
var opts = totp.ValidateOpts{
	Period:    30,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// Generate returns the code valid at t for a base32 secret.
func Generate(secret string, t time.Time) (string, error) {
	secret = normalize(secret)
	if secret == "" {
		return "", errors.New("totp secret is empty")
	}
	code, err := totp.GenerateCodeCustom(secret, t, opts)
	if err != nil {
		return "", errors.Wrap(err, "generate totp")
	}
	return code, nil
}

// Now returns the code valid at the current time.
func Now(secret string) (string, error) {
	return Generate(secret, time.Now())
}

// Validate checks code against secret at t, allowing one step of skew.
func Validate(code, secret string, t time.Time) bool {
	o := opts
	o.Skew = 1
	ok, err := totp.ValidateCustom(code, normalize(secret), t, o)
	return err == nil && ok
}

// secrets are often pasted grouped and lower-case
func normalize(secret string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(secret), " ", ""))
}
