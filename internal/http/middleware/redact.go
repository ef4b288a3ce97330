// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the scrubbing applied to request metadata before it
// reaches the access log. The journal stores client names, car plates and
// phone numbers typed into free-text fields, and suggestion lookups carry
// those values in the query string, so:
//
//   - query parameters listed in MaskQuery are replaced entirely
//   - phone numbers and e-mail addresses left in other values are redacted
//   - sensitive headers are masked
//
// Bodies are never logged.
package middleware

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// RedactOptions configures a Redactor.
type RedactOptions struct {
	// MaskHeaders lists extra header names to mask, merged with
	// Authorization, Cookie and Set-Cookie. Matching is case-insensitive.
	MaskHeaders []string
	// MaskQuery lists query parameters whose values are always masked.
	MaskQuery []string
}

// Redactor scrubs query strings and headers. It is safe for concurrent use.
type Redactor struct {
	headers map[string]struct{}
	query   map[string]struct{}
}

var (
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits only, so hex ids and dates do not match.
	phoneRE = regexp.MustCompile(`(?:\+7|8)?[ (-]*\d{3}[ )-]*\d{3}[ -]?\d{2}[ -]?\d{2}\b`)
)

// NewRedactor builds a Redactor from opts.
func NewRedactor(opts RedactOptions) *Redactor {
	r := &Redactor{
		headers: map[string]struct{}{"authorization": {}, "cookie": {}, "set-cookie": {}},
		query:   map[string]struct{}{},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.headers[h] = struct{}{}
		}
	}
	for _, q := range opts.MaskQuery {
		if q = strings.TrimSpace(q); q != "" {
			r.query[q] = struct{}{}
		}
	}
	return r
}

// Text redacts e-mail addresses and phone numbers in s.
func (r *Redactor) Text(s string) string {
	if s == "" {
		return s
	}
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// Query scrubs a raw query string. Unparseable input is redacted as text.
func (r *Redactor) Query(raw string) string {
	if raw == "" {
		return raw
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return r.Text(raw)
	}
	for k, vv := range vals {
		_, mask := r.query[k]
		for i, v := range vv {
			if mask {
				vv[i] = redacted
			} else {
				vv[i] = r.Text(v)
			}
		}
	}
	return vals.Encode()
}

// Headers returns a flattened, scrubbed copy of h.
func (r *Redactor) Headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.headers[strings.ToLower(k)]; ok {
			out[k] = redacted
			continue
		}
		out[k] = r.Text(strings.Join(vv, ", "))
	}
	return out
}
