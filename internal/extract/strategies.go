package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/samber/lo"
)

const fence = "```"

var languageTag = regexp.MustCompile(`^[\w+#.\-]*\r?$`)

// StripPreamble returns the text following the first delimiter present in text,
// up to that delimiter's next occurrence. Delimiters are checked in order.
func StripPreamble(text string, delimiters []string) (string, bool) {
	for _, d := range delimiters {
		if d == "" {
			continue
		}
		_, answer, found := strings.Cut(text, d)
		if !found {
			continue
		}
		if end := strings.Index(answer, d); end >= 0 {
			answer = answer[:end]
		}
		return answer, true
	}
	return text, false
}

// StripFence returns the body of the first fenced block, without the language tag
// line. An unclosed fence runs to the end of text.
func StripFence(text string) (string, bool) {
	start := strings.Index(text, fence)
	if start < 0 {
		return text, false
	}
	body := text[start+len(fence):]
	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && languageTag.MatchString(body[:nl]) {
		body = body[nl+1:]
	}
	return body, true
}

// InsertedTail aligns prompt against text and reports the appended tail when the
// final diff operation is a pure insertion.
func InsertedTail(prompt, text string) (string, bool) {
	a, _ := runes(prompt)
	b, offsets := runes(text)

	codes := difflib.NewMatcher(a, b).GetOpCodes()
	if len(codes) == 0 {
		return "", false
	}
	last := codes[len(codes)-1]
	if last.Tag != 'i' {
		return "", false
	}
	return text[offsets[last.J1]:offsets[last.J2]], true
}

// runes splits s into one string per rune. offsets[i] is the byte offset of rune i
// and offsets[len(s)] == len(s).
func runes(s string) ([]string, []int) {
	out := make([]string, 0, len(s))
	offsets := make([]int, 0, len(s)+1)
	for i, r := range s {
		offsets = append(offsets, i)
		out = append(out, string(r))
	}
	return out, append(offsets, len(s))
}

// AfterDefinition finds "def <variant>" for the first matching EntryPointVariants
// entry and returns everything after that signature line.
func AfterDefinition(text, targetName string) (string, bool) {
	for _, name := range EntryPointVariants(targetName) {
		if idx := findDefinition(text, name); idx >= 0 {
			return DropFirstLine(text[idx:]), true
		}
	}
	return "", false
}

func findDefinition(text, name string) int {
	needle := "def " + name
	offset := 0
	for {
		i := strings.Index(text[offset:], needle)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(needle)
		next, _ := utf8.DecodeRuneInString(text[end:])
		if end == len(text) || !isIdentRune(next) {
			return start
		}
		offset = end
	}
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// EntryPointVariants lists the spellings a model may use for name, in priority
// order: as given, snake_case, first letter lower-cased. Duplicates are dropped.
func EntryPointVariants(name string) []string {
	if name == "" {
		return nil
	}
	return lo.Uniq([]string{name, lo.SnakeCase(name), lowerFirst(name)})
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// DropFirstLine removes everything up to and including the first newline. Text
// without a newline becomes empty.
func DropFirstLine(text string) string {
	_, rest, found := strings.Cut(text, "\n")
	if !found {
		return ""
	}
	return rest
}

// StopAtStopToken cuts text before the earliest occurring marker. Marker order is
// irrelevant; empty markers are ignored.
func StopAtStopToken(text string, markers []string) string {
	cut := len(text)
	for _, m := range markers {
		if m == "" {
			continue
		}
		if i := strings.Index(text, m); i >= 0 && i < cut {
			cut = i
		}
	}
	return text[:cut]
}
