// Package cleaner provides the per-chunk cleaning processor.
package cleaner

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMinLength is the default minimum chunk length; shorter chunks are dropped.
const DefaultMinLength = 100

// EmailPlaceholder replaces email-like substrings.
const EmailPlaceholder = "[Correo]"

// Word characters are matched in any script, not only ASCII.
var emailPattern = regexp.MustCompile(`[\p{L}\p{N}_.-]+@[\p{L}\p{N}_.-]+`)

// Processor cleans chunk text. Steps, in order: join line breaks, strip one
// leading comma or period, redact emails, remove bullets, drop non-printable
// runes, drop chunks not longer than the minimum, trim surrounding spaces.
// It implements the PostProcessor interface.
type Processor struct {
	minLength int
}

// Option configures the cleaner processor.
type Option func(*Processor)

// WithMinLength sets the minimum length a chunk must exceed to be kept.
func WithMinLength(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minLength = n
		}
	}
}

// New creates a new cleaner processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{minLength: DefaultMinLength}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "cleaner"
}

// Process cleans every piece and drops the ones left too short.
func (p *Processor) Process(_ context.Context, pieces []string) ([]string, error) {
	out := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		cleaned, ok := p.Clean(piece)
		if ok {
			out = append(out, cleaned)
		}
	}
	return out, nil
}

// Clean applies the cleaning steps to one chunk. The bool is false when the
// chunk should be discarded.
func (p *Processor) Clean(s string) (string, bool) {
	s = joinLines(s)
	if strings.HasPrefix(s, ",") || strings.HasPrefix(s, ".") {
		s = s[1:]
	}
	s = emailPattern.ReplaceAllString(s, EmailPlaceholder)
	s = strings.ReplaceAll(s, "•", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
	if utf8.RuneCountInString(s) <= p.minLength {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// joinLines removes line terminators, gluing the lines together.
func joinLines(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
			return -1
		}
		return r
	}, s)
}
