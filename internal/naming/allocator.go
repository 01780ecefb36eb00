package naming

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxAttempts bounds the numeric suffixes tried per allocation.
const DefaultMaxAttempts = 1000

// ErrExhausted is returned when no free candidate was found.
var ErrExhausted = errors.New("naming: candidate names exhausted")

// Allocator is the name table of one containing type. It is safe for
// concurrent use.
type Allocator struct {
	mu          sync.Mutex
	used        map[string]struct{}
	maxAttempts int
}

// NewAllocator returns an empty table. maxAttempts <= 0 selects
// DefaultMaxAttempts.
func NewAllocator(maxAttempts int) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{
		used:        make(map[string]struct{}),
		maxAttempts: maxAttempts,
	}
}

func key(name string) string {
	return norm.NFC.String(name)
}

// Reserve marks names as taken. Empty names are ignored.
func (a *Allocator) Reserve(names ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, n := range names {
		if n != "" {
			a.used[key(n)] = struct{}{}
		}
	}
}

// IsReserved reports whether name is taken.
func (a *Allocator) IsReserved(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.used[key(name)]
	return ok
}

// Len returns the number of reserved names.
func (a *Allocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.used)
}

// Allocate picks the first of base, base1, base2, ... for which every
// prefix+candidate is free, reserves all of them and returns the candidate.
// With no prefixes the candidate itself must be free.
func (a *Allocator) Allocate(base string, prefixes ...string) (string, error) {
	if base == "" {
		return "", errors.New("naming: empty base name")
	}
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = base + strconv.Itoa(attempt)
		}
		if !a.freeLocked(candidate, prefixes) {
			continue
		}
		for _, p := range prefixes {
			a.used[key(p+candidate)] = struct{}{}
		}
		return candidate, nil
	}
	return "", fmt.Errorf("%w: %q after %d attempts", ErrExhausted, base, a.maxAttempts)
}

func (a *Allocator) freeLocked(candidate string, prefixes []string) bool {
	for _, p := range prefixes {
		if _, taken := a.used[key(p+candidate)]; taken {
			return false
		}
	}
	return true
}
