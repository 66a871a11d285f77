package invoice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumberGenerator_Format(t *testing.T) {
	g := &NumberGenerator{
		Prefix: "fac",
		Now:    func() time.Time { return time.Date(2025, time.January, 15, 23, 59, 0, 0, time.UTC) },
		Rand:   func(int) int { return 7 },
	}
	assert.Equal(t, "FAC-20250115-007", g.Next())
}

func TestNumberGenerator_UsesGenerationInstantInUTC(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	g := &NumberGenerator{
		Now:  func() time.Time { return time.Date(2025, time.February, 1, 0, 30, 0, 0, paris) },
		Rand: func(int) int { return 999 },
	}
	assert.Equal(t, "FAC-20250131-999", g.Next())
}

func TestNumberGenerator_AlwaysMatchesPattern(t *testing.T) {
	g := NewNumberGenerator("INV")
	for i := 0; i < 500; i++ {
		n := g.Next()
		assert.Regexp(t, NumberPattern, n)
	}
}

func TestNumberGenerator_RandomRange(t *testing.T) {
	var gotBound int
	g := &NumberGenerator{Rand: func(n int) int { gotBound = n; return 0 }}
	assert.Regexp(t, `-000$`, g.Next())
	assert.Equal(t, 1000, gotBound)
}

func TestNumberGenerator_InvalidPrefixFallsBack(t *testing.T) {
	for _, prefix := range []string{"BP-FR", "BP_1", "fac ture", "É2"} {
		g := &NumberGenerator{
			Prefix: prefix,
			Now:    func() time.Time { return time.Date(2025, time.January, 15, 8, 0, 0, 0, time.UTC) },
			Rand:   func(int) int { return 42 },
		}
		assert.False(t, ValidPrefix(prefix), prefix)
		assert.Equal(t, "FAC-20250115-042", g.Next(), prefix)
	}
	assert.True(t, ValidPrefix(" bp2 "))
}
