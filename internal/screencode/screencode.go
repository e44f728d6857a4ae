// Package screencode issues the short codes viewers type on a TV to open a
// presentation.
package screencode

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length   = 6
)

// Generator produces candidate codes. Uniqueness is the store's concern.
type Generator interface {
	Generate() string
}

type RandomGenerator struct{}

func (RandomGenerator) Generate() string {
	return Generate()
}

// Generate returns Length characters drawn uniformly from Alphabet.
func Generate() string {
	max := big.NewInt(int64(len(Alphabet)))
	b := make([]byte, Length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("screencode: crypto/rand unavailable: " + err.Error())
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b)
}

// Normalize upper-cases and trims a code typed by a viewer.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code has the shape of an issued code.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
