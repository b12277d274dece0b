package lesson

import (
	"fmt"
	"regexp"

	"github.com/roach88/koans/internal/value"
)

var lessonNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// validateFile checks the semantic rules YAML decoding cannot express.
// Returns the first problem as a *LoadError carrying the offending line.
func validateFile(f *File) error {
	fail := func(line int, format string, args ...any) error {
		return &LoadError{Path: f.Path, Line: line, Message: fmt.Sprintf(format, args...)}
	}

	if f.Name == "" {
		return fail(0, "lesson name is required")
	}
	if !lessonNamePattern.MatchString(f.Name) {
		return fail(0, "lesson name %q must be snake_case", f.Name)
	}
	if len(f.Cases) == 0 {
		return fail(0, "cases list is required and must be non-empty")
	}

	classes := make(map[string]bool, len(f.Classes))
	for i, c := range f.Classes {
		if !isConst(c.Name) {
			return fail(0, "classes[%d]: %q is not a class name", i, c.Name)
		}
		if _, builtin := value.BuiltinClass(c.Name); builtin {
			return fail(0, "classes[%d]: %q redefines a builtin class", i, c.Name)
		}
		if classes[c.Name] {
			return fail(0, "classes[%d]: class %q declared twice", i, c.Name)
		}
		classes[c.Name] = true
	}

	for i, c := range f.Classes {
		if err := validateClass(c, classes); err != nil {
			return fail(0, "classes[%d] %s: %v", i, c.Name, err)
		}
	}

	names := make(map[string]bool, len(f.Cases))
	for _, c := range f.Cases {
		if c.Name == "" {
			return fail(c.Line, "case name is required")
		}
		if names[c.Name] {
			return fail(c.Line, "case %q declared twice", c.Name)
		}
		names[c.Name] = true

		if len(c.Steps) == 0 {
			return fail(c.Line, "case %q has no steps", c.Name)
		}
		for _, s := range c.Steps {
			if err := validateStep(s, classes); err != nil {
				return fail(s.Line, "case %q: %v", c.Name, err)
			}
		}
	}

	return nil
}

func validateClass(c Class, classes map[string]bool) error {
	methods := make(map[string]bool)
	define := func(name string) error {
		if methods[name] {
			return fmt.Errorf("method %q defined twice", name)
		}
		methods[name] = true
		return nil
	}

	for _, attr := range c.AttrReader {
		if !isIdent(attr) {
			return fmt.Errorf("attr_reader %q is not a valid name", attr)
		}
		if err := define(attr); err != nil {
			return err
		}
	}
	for _, attr := range c.AttrWriter {
		if !isIdent(attr) {
			return fmt.Errorf("attr_writer %q is not a valid name", attr)
		}
		if err := define(attr + "="); err != nil {
			return err
		}
	}
	for _, attr := range c.AttrAccessor {
		if !isIdent(attr) {
			return fmt.Errorf("attr_accessor %q is not a valid name", attr)
		}
		if err := define(attr); err != nil {
			return err
		}
		if err := define(attr + "="); err != nil {
			return err
		}
	}

	for _, m := range c.Methods {
		if _, err := ParsePath(m.Name); err != nil || !isIdent(trimSuffixMark(m.Name)) {
			return fmt.Errorf("method name %q is not valid", m.Name)
		}
		if err := define(m.Name); err != nil {
			return err
		}
		params := make(map[string]bool, len(m.Params))
		for _, p := range m.Params {
			if !isIdent(p) {
				return fmt.Errorf("method %s: param %q is not a valid name", m.Name, p)
			}
			if params[p] {
				return fmt.Errorf("method %s: param %q repeated", m.Name, p)
			}
			params[p] = true
		}
		for _, a := range m.Sets {
			if err := validateExpr(a.Value, classes); err != nil {
				return fmt.Errorf("method %s: %w", m.Name, err)
			}
		}
		if m.Returns != nil {
			if err := validateExpr(*m.Returns, classes); err != nil {
				return fmt.Errorf("method %s: %w", m.Name, err)
			}
		}
	}
	return nil
}

func validateStep(s Step, classes map[string]bool) error {
	switch s.Kind {
	case StepAssertEqual:
		if err := validateExpr(s.Expected, classes); err != nil {
			return err
		}
		return validateExpr(s.Actual, classes)
	case StepAssertRaise:
		if s.Error != BlankMarker && !IsErrorKind(s.Error) {
			return fmt.Errorf("unknown error kind %q", s.Error)
		}
		return validateExpr(s.Value, classes)
	default:
		return validateExpr(s.Value, classes)
	}
}

// validateExpr checks that class references resolve to declared or
// builtin classes.
func validateExpr(e Expr, classes map[string]bool) error {
	switch e.Kind {
	case ExprNew:
		if !classes[e.Text] {
			return fmt.Errorf("new: class %q is not declared", e.Text)
		}
	case ExprClass:
		if _, builtin := value.BuiltinClass(e.Text); !builtin && !classes[e.Text] {
			return fmt.Errorf("class: %q is not declared", e.Text)
		}
	}

	for _, sub := range [][]Expr{e.Items, e.Args} {
		for _, item := range sub {
			if err := validateExpr(item, classes); err != nil {
				return err
			}
		}
	}
	if e.Receiver != nil {
		return validateExpr(*e.Receiver, classes)
	}
	return nil
}

func trimSuffixMark(name string) string {
	if n := len(name); n > 0 && (name[n-1] == '?' || name[n-1] == '!') {
		return name[:n-1]
	}
	return name
}
