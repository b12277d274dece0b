package koan

import (
	"strings"

	"github.com/roach88/koans/internal/lesson"
	"github.com/roach88/koans/internal/value"
)

// maxDepth bounds nested method calls.
const maxDepth = 200

// interp evaluates expressions for one case.
type interp struct {
	prog  *program
	depth int
}

// frame is the scope an expression evaluates in. self is nil at the top
// level of a case.
type frame struct {
	env  *Env
	self value.Value
}

func (in *interp) eval(e lesson.Expr, fr frame) (value.Value, error) {
	switch e.Kind {
	case lesson.ExprLiteral:
		if e.Value == nil {
			return value.Nil{}, nil
		}
		return e.Value, nil

	case lesson.ExprBlank:
		return value.Blank{}, nil

	case lesson.ExprPath:
		return in.evalPathText(e.Text, fr)

	case lesson.ExprArray:
		return in.evalList(e.Items, fr)

	case lesson.ExprNew:
		args, err := in.evalList(e.Args, fr)
		if err != nil {
			return nil, err
		}
		return in.instantiate(e.Text, args)

	case lesson.ExprCall:
		return in.evalCall(e, fr)

	case lesson.ExprInterpolate:
		s, err := in.interpolate(e.Text, fr)
		if err != nil {
			return nil, err
		}
		return value.String(s), nil

	case lesson.ExprEval:
		return in.evalSource(e.Text, fr)

	case lesson.ExprInstanceEval:
		recv, err := in.eval(*e.Receiver, fr)
		if err != nil {
			return nil, err
		}
		return in.evalSource(e.Text, frame{env: fr.env, self: recv})

	case lesson.ExprEqual, lesson.ExprNotEqual:
		a, err := in.eval(e.Items[0], fr)
		if err != nil {
			return nil, err
		}
		b, err := in.eval(e.Items[1], fr)
		if err != nil {
			return nil, err
		}
		eq := value.Equal(a, b)
		if e.Kind == lesson.ExprNotEqual {
			eq = !eq
		}
		return value.Bool(eq), nil

	case lesson.ExprClass:
		c, ok := in.prog.lookupClass(e.Text)
		if !ok {
			return nil, raise(lesson.KindNameError, "uninitialized constant %s", e.Text)
		}
		return c, nil

	default:
		return nil, raise(lesson.KindSyntaxError, "unsupported expression %s", e.Kind)
	}
}

func (in *interp) evalList(items []lesson.Expr, fr frame) (value.Array, error) {
	out := make(value.Array, 0, len(items))
	for _, item := range items {
		v, err := in.eval(item, fr)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// evalSource parses text as a path at run time. Malformed source raises
// SyntaxError, which assert_raise can expect.
func (in *interp) evalSource(text string, fr frame) (value.Value, error) {
	return in.evalPathText(text, fr)
}

func (in *interp) evalPathText(text string, fr frame) (value.Value, error) {
	path, err := lesson.ParsePath(text)
	if err != nil {
		return nil, raise(lesson.KindSyntaxError, "%s", err.Error())
	}
	return in.evalPath(path, fr)
}

func (in *interp) evalPath(path lesson.Path, fr frame) (value.Value, error) {
	first := path.Segments[0]
	v, err := in.resolveHead(first.Name, fr)
	if err != nil {
		return nil, err
	}
	if v, err = in.index(v, first.Index); err != nil {
		return nil, err
	}

	for _, seg := range path.Segments[1:] {
		if v, err = in.send(v, seg.Name, nil); err != nil {
			return nil, err
		}
		if v, err = in.index(v, seg.Index); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// resolveHead resolves the first segment of a path: self, an instance
// variable of self, a constant, a local, or an implicit call on self.
func (in *interp) resolveHead(name string, fr frame) (value.Value, error) {
	switch {
	case name == "self":
		if fr.self == nil {
			return value.Nil{}, nil
		}
		return fr.self, nil

	case strings.HasPrefix(name, "@"):
		if inst, ok := fr.self.(*value.Instance); ok {
			if v, ok := inst.Ivar(name); ok {
				return v, nil
			}
		}
		return value.Nil{}, nil

	case name[0] >= 'A' && name[0] <= 'Z':
		c, ok := in.prog.lookupClass(name)
		if !ok {
			return nil, raise(lesson.KindNameError, "uninitialized constant %s", name)
		}
		return c, nil
	}

	if v, ok := fr.env.Get(name); ok {
		return v, nil
	}
	if fr.self != nil {
		return in.send(fr.self, name, nil)
	}
	return nil, raise(lesson.KindNameError, "undefined local variable or method '%s' for main", name)
}

func (in *interp) index(v value.Value, idx []int) (value.Value, error) {
	var err error
	for _, i := range idx {
		if v, err = in.send(v, "[]", []value.Value{value.Int(i)}); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (in *interp) evalCall(e lesson.Expr, fr frame) (value.Value, error) {
	path, err := lesson.ParsePath(e.Text)
	if err != nil {
		return nil, raise(lesson.KindSyntaxError, "%s", err.Error())
	}

	recvText, method := path.Receiver()
	var recv value.Value
	if recvText == "" {
		if fr.self == nil {
			if _, err := in.evalList(e.Args, fr); err != nil {
				return nil, err
			}
			return nil, raise(lesson.KindNoMethodError, "undefined method '%s' for main", method)
		}
		recv = fr.self
	} else {
		if recv, err = in.evalPathText(recvText, fr); err != nil {
			return nil, err
		}
	}

	args, err := in.evalList(e.Args, fr)
	if err != nil {
		return nil, err
	}
	return in.send(recv, method, args)
}

// interpolate expands each #{path} in template with the to_s form of the
// path's value.
func (in *interp) interpolate(template string, fr frame) (string, error) {
	var b strings.Builder
	rest := template
	for {
		start := strings.Index(rest, "#{")
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		b.WriteString(rest[:start])
		rest = rest[start+2:]

		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return "", raise(lesson.KindSyntaxError, "unterminated interpolation in %q", template)
		}
		v, err := in.evalPathText(rest[:end], fr)
		if err != nil {
			return "", err
		}
		s, err := in.toS(v)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
		rest = rest[end+1:]
	}
}
