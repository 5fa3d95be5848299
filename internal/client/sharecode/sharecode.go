// Package sharecode generates and validates the short codes that address a
// shared tour ("TUR-" followed by four symbols).
package sharecode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/tourcheck/internal/common"
)

const (
	Prefix = "TUR-"
	// Alphabet omits 0/O, 1/I, Q, W and X so codes survive being read aloud.
	Alphabet = "ABCDEFGHJKLMNPRSTUVYZ23456789"
	// SymbolCount is the number of random symbols after the prefix.
	SymbolCount = 4
	Length      = len(Prefix) + SymbolCount
)

// readRandom is a seam for tests.
var readRandom = rand.Reader

// Generate returns a new code. There is no uniqueness check: with 29^4
// possible codes the collision risk is accepted.
func Generate() string {
	var b strings.Builder
	b.Grow(Length)
	b.WriteString(Prefix)
	max := big.NewInt(int64(len(Alphabet)))
	for i := 0; i < SymbolCount; i++ {
		n, err := rand.Int(readRandom, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(fmt.Sprintf("sharecode: random source failed: %v", err))
		}
		b.WriteByte(Alphabet[n.Int64()])
	}
	return b.String()
}

// Normalize trims and upper-cases user input.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Validate checks an already normalized code.
func Validate(code string) error {
	if !strings.HasPrefix(code, Prefix) || len(code) != Length {
		return fmt.Errorf("%w: %q", common.ErrInvalidCode, code)
	}
	for _, r := range code[len(Prefix):] {
		if !strings.ContainsRune(Alphabet, r) {
			return fmt.Errorf("%w: %q", common.ErrInvalidCode, code)
		}
	}
	return nil
}
