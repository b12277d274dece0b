package lesson

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Path is a parsed reference such as fido.name, names[0] or @name.
type Path struct {
	Text     string
	Segments []Segment
}

// Segment is one dot-separated part of a path, with optional index suffixes.
type Segment struct {
	Name  string
	Index []int
}

// PathError reports a malformed path. Lesson content treats it as a
// syntax error.
type PathError struct {
	Text   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("syntax error in %q: %s", e.Text, e.Reason)
}

var (
	segmentPattern = regexp.MustCompile(`^(@?[A-Za-z_][A-Za-z0-9_]*[?!]?)((?:\[-?[0-9]+\])*)$`)
	indexPattern   = regexp.MustCompile(`\[(-?[0-9]+)\]`)
)

// ParsePath parses a path. The first segment may be a local name, self,
// a class name or an @ivar; later segments are method names.
func ParsePath(text string) (Path, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Path{}, &PathError{Text: text, Reason: "empty path"}
	}

	parts := strings.Split(trimmed, ".")
	path := Path{Text: trimmed, Segments: make([]Segment, 0, len(parts))}

	for i, part := range parts {
		if part == "" {
			return Path{}, &PathError{Text: text, Reason: "unexpected '.'"}
		}
		m := segmentPattern.FindStringSubmatch(part)
		if m == nil {
			if i > 0 && strings.HasPrefix(part, "@") {
				return Path{}, &PathError{Text: text, Reason: "unexpected instance variable after '.'"}
			}
			return Path{}, &PathError{Text: text, Reason: fmt.Sprintf("unexpected %q", part)}
		}

		name := m[1]
		if i > 0 && strings.HasPrefix(name, "@") {
			return Path{}, &PathError{Text: text, Reason: "unexpected instance variable after '.'"}
		}
		if strings.HasPrefix(name, "@") && strings.ContainsAny(name, "?!") {
			return Path{}, &PathError{Text: text, Reason: fmt.Sprintf("invalid instance variable %q", name)}
		}
		if i == 0 && isConst(strings.TrimRight(name, "?!")) && strings.ContainsAny(name, "?!") {
			return Path{}, &PathError{Text: text, Reason: fmt.Sprintf("invalid constant %q", name)}
		}

		seg := Segment{Name: name}
		for _, idx := range indexPattern.FindAllStringSubmatch(m[2], -1) {
			n, err := strconv.Atoi(idx[1])
			if err != nil {
				return Path{}, &PathError{Text: text, Reason: fmt.Sprintf("bad index %q", idx[1])}
			}
			seg.Index = append(seg.Index, n)
		}
		path.Segments = append(path.Segments, seg)
	}

	return path, nil
}

// Receiver returns the path without its last segment, and that last
// segment's name. For a single-segment path the receiver is empty.
func (p Path) Receiver() (string, string) {
	last := p.Segments[len(p.Segments)-1].Name
	if len(p.Segments) == 1 {
		return "", last
	}
	idx := strings.LastIndex(p.Text, ".")
	return p.Text[:idx], last
}
