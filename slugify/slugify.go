// Package slugify turns display names into unique URL-safe identifiers.
package slugify

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrInvalidName means the candidate name normalizes to an empty slug.
	ErrInvalidName = errors.New("name normalizes to an empty slug")
	// ErrAllocationExhausted means the suffix probe gave up before finding a
	// free slug. Hitting this in practice should be rare enough to alert on.
	ErrAllocationExhausted = errors.New("slug allocation attempts exhausted")
)

// maxAttempts caps the suffix probe loop. Defensive bound, not a business rule.
const maxAttempts = 1000

// Normalize lowercases the name, folds diacritics, strips everything outside
// [a-z0-9 -] and collapses runs of whitespace and dashes into single dashes.
func Normalize(name string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		// Fall back to the raw name; stripping below still applies.
		folded = name
	}

	var b strings.Builder
	prevDash := true // suppress leading dashes
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		case r == ' ', r == '\t', r == '\n', r == '-':
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "", ErrInvalidName
	}
	return slug, nil
}

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(slug string) (bool, error)

// Allocator assigns unique slugs by probing an existence check. The probe and
// the eventual row write are not atomic: callers must treat a later
// unique-constraint violation as expected and retry allocation.
type Allocator struct {
	exists ExistsFunc
}

func NewAllocator(exists ExistsFunc) *Allocator {
	return &Allocator{exists: exists}
}

// Allocate normalizes candidateName and returns the first free slug among
// base, base-2, base-3, ...
func (a *Allocator) Allocate(candidateName string) (string, error) {
	base, err := Normalize(candidateName)
	if err != nil {
		return "", err
	}
	for i := 1; i <= maxAttempts; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		taken, err := a.exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrAllocationExhausted
}
