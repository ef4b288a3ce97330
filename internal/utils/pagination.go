// Package utils provides small helpers for parsing query parameters. They
// carry no domain logic.
package utils

import (
	"strconv"

	"github.com/tbourn/service-journal/internal/sysutil"
)

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Window parses limit/offset query values. A missing or non-positive limit
// becomes def, limits above max are capped, and negative offsets become 0.
func Window(limit, offset string, def, max int) (int, int) {
	l := AtoiDefault(limit, def)
	if l <= 0 {
		l = def
	}
	if max > 0 && l > max {
		l = max
	}
	o := AtoiDefault(offset, 0)
	if o < 0 {
		o = 0
	}
	return l, o
}

// BoolDefault parses common truthy and falsy spellings, returning def for
// anything else.
func BoolDefault(s string, def bool) bool {
	if v, ok := sysutil.ParseFlag(s); ok {
		return v
	}
	return def
}
