// Package service holds the use cases of the document lifecycle engine. Every
// call takes the acting identity explicitly; nothing is read from ambient
// request state.
package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"certdocs/internal/apperr"
)

var tracer = otel.Tracer("certdocs/internal/service")

// DefaultPageSize applies when a caller asks for no limit.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// endSpan records err on span and ends it. Expected client errors are not
// marked as span failures.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if apperr.CodeOf(err) == apperr.CodeInternal {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// DateRange is an inclusive calendar-day range. Either end may be nil.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// bounds converts the range into [from, to) instants in loc: From at the
// start of its day and To at the start of the following day.
func (r DateRange) bounds(loc *time.Location) (*time.Time, *time.Time) {
	var from, to *time.Time
	if r.From != nil {
		f := startOfDay(*r.From, loc)
		from = &f
	}
	if r.To != nil {
		t := startOfDay(*r.To, loc).AddDate(0, 0, 1)
		to = &t
	}
	return from, to
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func minLen(field, value string, n int) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < n {
		return apperr.Newf(apperr.CodeValidation, "%s must be at least %d characters", field, n)
	}
	return nil
}

// optional trims s and maps blank to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func strPtr(s string) *string { return &s }

func trim(s string) string { return strings.TrimSpace(s) }
