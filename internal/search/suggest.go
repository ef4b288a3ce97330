// Package search implements the autocomplete suggestions offered while an
// order is typed in: distinct client names or car descriptions from past
// orders that contain the query, case-insensitively.
//
//   - Candidates keep the order in which they first appear in the journal
//     (most recent first), so fresh names surface before old ones.
//   - Distinctness is exact: "Иванов" and "иванов" are two suggestions.
//   - Queries shorter than the minimum return nothing.
//
// The Suggester is stateless and safe for concurrent use.
package search

import (
	"strings"
	"unicode/utf8"

	"github.com/tbourn/service-journal/internal/domain"
)

// Defaults for a Suggester.
const (
	DefaultLimit         = 5
	DefaultMinQueryRunes = 2
)

// Field selects the order attribute suggestions are drawn from.
type Field func(domain.Order) string

// Built-in fields.
var (
	Clients Field = func(o domain.Order) string { return o.Client }
	Cars    Field = func(o domain.Order) string { return o.Car }
)

// Option configures a Suggester.
type Option func(*config)

type config struct {
	limit         int
	minQueryRunes int
}

// WithLimit caps the number of suggestions. Non-positive values are ignored.
func WithLimit(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithMinQueryRunes sets how long a query must be before anything is suggested.
func WithMinQueryRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minQueryRunes = n
		}
	}
}

// Suggester produces suggestions from a list of orders.
type Suggester struct {
	cfg config
}

// New returns a Suggester with the given options applied over the defaults.
func New(opts ...Option) *Suggester {
	cfg := config{limit: DefaultLimit, minQueryRunes: DefaultMinQueryRunes}
	for _, o := range opts {
		o(&cfg)
	}
	return &Suggester{cfg: cfg}
}

// Suggest returns up to the configured limit of distinct, non-empty values of
// field whose folded form contains the folded query. The result is never nil.
func (s *Suggester) Suggest(orders []domain.Order, field Field, query string) []string {
	out := []string{}
	if utf8.RuneCountInString(strings.TrimSpace(query)) < s.cfg.minQueryRunes {
		return out
	}
	q := fold(query)
	seen := make(map[string]struct{})
	for _, o := range orders {
		v := field(o)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		if !strings.Contains(fold(v), q) {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == s.cfg.limit {
			break
		}
	}
	return out
}
