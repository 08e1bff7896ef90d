package credentials

import (
	"crypto/rand"
	"math/big"
)

// PINLength is the number of digits in a generated PIN
const PINLength = 4

const digits = "0123456789"

// GeneratePIN returns a random numeric PIN of PINLength digits
func GeneratePIN() (string, error) {
	pin := make([]byte, PINLength)
	for i := range pin {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		pin[i] = digits[num.Int64()]
	}
	return string(pin), nil
}
