package invoice

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
)

// DefaultPrefix labels invoice numbers when none is configured.
const DefaultPrefix = "FAC"

// NumberPattern matches every generated invoice number.
var NumberPattern = regexp.MustCompile(`^[A-Z0-9]+-\d{8}-\d{3}$`)

var prefixPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// ValidPrefix reports whether prefix, once upper-cased, yields numbers that
// match NumberPattern.
func ValidPrefix(prefix string) bool {
	return prefixPattern.MatchString(strings.ToUpper(strings.TrimSpace(prefix)))
}

// NumberGenerator produces document labels of the form PREFIX-YYYYMMDD-NNN.
// Numbers are not unique per day; they label a document, they are not a ledger key.
type NumberGenerator struct {
	Prefix string
	Now    func() time.Time
	Rand   func(n int) int
}

// NewNumberGenerator returns a generator using the wall clock and math/rand.
func NewNumberGenerator(prefix string) *NumberGenerator {
	return &NumberGenerator{Prefix: prefix}
}

// Next returns a fresh invoice number stamped with the generation date (UTC).
func (g *NumberGenerator) Next() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	intn := rand.IntN
	if g.Rand != nil {
		intn = g.Rand
	}
	prefix := strings.ToUpper(strings.TrimSpace(g.Prefix))
	if !prefixPattern.MatchString(prefix) {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s-%s-%03d", prefix, now().UTC().Format("20060102"), intn(1000))
}
