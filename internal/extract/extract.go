// Package extract pulls the code continuation out of a raw chat completion.
//
// A completion is reduced through a fixed chain: response delimiter, code fence,
// prompt-echo diff, named definition, first-line fallback for unfenced text. The
// result is then cut
// at the earliest stop marker.
package extract

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultStopMarkers end a continuation at the next top-level statement.
var DefaultStopMarkers = []string{"\ndef", "\nclass ", "\nimport ", "\nfrom ", "\nassert ", "\n# "}

// DefaultDelimiters separate an instruction-style preamble from the answer.
var DefaultDelimiters = []string{"### Response:\n", "\nassistant\n"}

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("unable to parse completion")

// ParseError reports a completion with no code left after preamble and fence removal.
type ParseError struct {
	TargetName string
	Reason     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing completion for %q: %s", e.TargetName, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// Extractor is immutable after New and safe for concurrent use.
type Extractor struct {
	stopMarkers []string
	delimiters  []string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStopMarkers replaces DefaultStopMarkers.
func WithStopMarkers(markers ...string) Option {
	return func(e *Extractor) { e.stopMarkers = append([]string(nil), markers...) }
}

// WithDelimiters replaces DefaultDelimiters. Delimiters are tried in order.
func WithDelimiters(delimiters ...string) Option {
	return func(e *Extractor) { e.delimiters = append([]string(nil), delimiters...) }
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		stopMarkers: DefaultStopMarkers,
		delimiters:  DefaultDelimiters,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract returns the code continuation of raw for the given prompt. targetName is
// the function the model was asked to write and anchors the definition fallback.
func (e *Extractor) Extract(prompt, raw, targetName string) (string, error) {
	text := raw
	if answer, ok := StripPreamble(text, e.delimiters); ok {
		text = answer
	}
	// The fence line is consumed with the fence, so a fenced body keeps its first line.
	body, fenced := StripFence(text)
	if fenced {
		text = body
	}
	if strings.TrimSpace(text) == "" {
		return "", &ParseError{TargetName: targetName, Reason: "no code in completion"}
	}

	candidate, ok := InsertedTail(prompt, text)
	if !ok {
		candidate, ok = AfterDefinition(text, targetName)
	}
	if !ok {
		candidate = text
		if !fenced {
			candidate = DropFirstLine(text)
		}
	}
	return StopAtStopToken(candidate, e.stopMarkers), nil
}

var defaultExtractor = New()

// Extract runs the default Extractor.
func Extract(prompt, raw, targetName string) (string, error) {
	return defaultExtractor.Extract(prompt, raw, targetName)
}
