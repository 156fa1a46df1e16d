package render

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// storedDateLayout is the layout page dates are persisted in.
const storedDateLayout = "2006-01-02"

// DateFilter reformats a stored page date. The optional argument is a Go
// time layout; without one the date renders long-form.
type DateFilter struct{}

func (DateFilter) Name() string { return "date" }

func (DateFilter) Apply(input string, args ...string) (string, error) {
	t, err := time.Parse(storedDateLayout, input)
	if err != nil {
		return "", fmt.Errorf("date filter: %w", err)
	}
	layout := "January 2, 2006"
	if len(args) > 0 {
		layout = args[0]
	}
	return t.Format(layout), nil
}

// SlugFilter turns a title or tag into a URL-safe slug: lowercased, with
// every run of non-alphanumeric characters collapsed to one dash.
type SlugFilter struct{}

func (SlugFilter) Name() string { return "slug" }

func (SlugFilter) Apply(input string, _ ...string) (string, error) {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(input) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-"), nil
}

// Stock returns a registry preloaded with the built-in filters.
func Stock() *Registry {
	r := NewRegistry()
	for _, f := range []Filter{DateFilter{}, SlugFilter{}} {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
	return r
}
