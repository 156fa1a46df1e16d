package ingest

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrFrontMatterEOF is returned when a page ends before its front matter closes.
var ErrFrontMatterEOF = errors.New("EOF while parsing front matter")

// FrontMatter is the structured metadata fenced at the start of a page
// document. Title and date are required; the rest is optional.
type FrontMatter struct {
	Title    string   `yaml:"title"`
	Date     string   `yaml:"date"`
	Tags     []string `yaml:"tags"`
	Template string   `yaml:"template"`
	Draft    bool     `yaml:"draft"`
}

var fence = []byte("---")

// ParseFrontMatter reads the leading "---" fenced YAML block of a page and
// returns the metadata plus the byte offset where the body starts. A missing
// or unterminated fence, or invalid YAML, is a parse error fatal to the
// containing build cycle.
func ParseFrontMatter(name string, input []byte) (*FrontMatter, int, error) {
	offset := 0
	rest := input

	// Skip leading blank lines.
	for {
		line, n := nextLine(rest)
		if n == 0 {
			return nil, 0, fmt.Errorf("%s: %w", name, ErrFrontMatterEOF)
		}
		if len(bytes.TrimSpace(line)) > 0 {
			if !bytes.Equal(bytes.TrimRight(line, "\r\n"), fence) {
				return nil, 0, fmt.Errorf("%s: front matter fence not found", name)
			}
			offset += n
			rest = rest[n:]
			break
		}
		offset += n
		rest = rest[n:]
	}

	// Collect YAML payload until the closing fence.
	payloadStart := offset
	for {
		line, n := nextLine(rest)
		if n == 0 {
			return nil, 0, fmt.Errorf("%s: %w", name, ErrFrontMatterEOF)
		}
		if bytes.Equal(bytes.TrimRight(line, "\r\n"), fence) {
			payload := input[payloadStart:offset]
			offset += n
			fm := FrontMatter{}
			if err := yaml.Unmarshal(payload, &fm); err != nil {
				return nil, 0, fmt.Errorf("%s: parse front matter: %w", name, err)
			}
			if fm.Title == "" {
				return nil, 0, fmt.Errorf("%s: front matter missing title", name)
			}
			if fm.Date == "" {
				return nil, 0, fmt.Errorf("%s: front matter missing date", name)
			}
			return &fm, offset, nil
		}
		offset += n
		rest = rest[n:]
	}
}

// nextLine returns the first line of b including its newline, and the number
// of bytes consumed. n == 0 means no input left.
func nextLine(b []byte) ([]byte, int) {
	if len(b) == 0 {
		return nil, 0
	}
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[:i+1], i + 1
	}
	return b, len(b)
}
