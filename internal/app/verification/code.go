// internal/app/verification/code.go
package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var codeSpan = big.NewInt(900000)

// GenerateCode returns a uniformly random six digit code in 100000-999999.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
