package domain

import (
	"strconv"
	"strings"
)

// Reference identifies the exact set of ticket numbers a payment covers. It
// is issued at reservation time, travels to the payment processor as the
// external reference of the checkout, and comes back verbatim with the
// payment notification. The wire form is the numbers comma-joined in
// reservation order ("1,2,3"); parsing is unambiguous because ticket
// identifiers are drawn from a fixed numeric range.
type Reference struct {
	numbers []int
}

// NewReference builds a reference over a batch of ticket numbers, dropping
// duplicates while preserving first-occurrence order.
func NewReference(numbers []int) (Reference, error) {
	deduped := dedupeNumbers(numbers)
	if len(deduped) == 0 {
		return Reference{}, ErrEmptyBatch
	}
	return Reference{numbers: deduped}, nil
}

// ParseReference decodes the wire form issued by NewReference. Whitespace
// around entries is tolerated since some processors reformat the value.
func ParseReference(raw string) (Reference, error) {
	parts := strings.Split(raw, ",")
	numbers := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return Reference{}, ErrInvalidReference
		}
		numbers = append(numbers, n)
	}
	if len(numbers) == 0 {
		return Reference{}, ErrInvalidReference
	}
	return Reference{numbers: dedupeNumbers(numbers)}, nil
}

// Numbers returns the ticket numbers in reservation order.
func (r Reference) Numbers() []int {
	out := make([]int, len(r.numbers))
	copy(out, r.numbers)
	return out
}

func (r Reference) String() string {
	parts := make([]string, len(r.numbers))
	for i, n := range r.numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func dedupeNumbers(numbers []int) []int {
	seen := make(map[int]struct{}, len(numbers))
	out := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
