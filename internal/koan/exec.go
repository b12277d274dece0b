package koan

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/koans/internal/lesson"
	"github.com/roach88/koans/internal/value"
)

// Executor runs lesson cases. Class tables are built once per lesson file
// and shared across that file's cases; every case gets a fresh Env.
// Safe for concurrent use.
type Executor struct {
	mu       sync.Mutex
	programs map[*lesson.File]*program
}

// NewExecutor creates an Executor.
func NewExecutor() *Executor {
	return &Executor{programs: make(map[*lesson.File]*program)}
}

// Execute runs one case to completion. It returns nil when every step
// passed, a *Failure for an unmet expectation, or a *RaisedError for an
// error raised outside assert_raise.
func (x *Executor) Execute(file *lesson.File, c *lesson.Case) error {
	_, err := x.Trace(file, c)
	return err
}

// Trace runs a case like Execute and also returns the final Env, for
// tooling that shows the state a case ends in.
func (x *Executor) Trace(file *lesson.File, c *lesson.Case) (*Env, error) {
	in := &interp{prog: x.program(file)}
	env := NewEnv()

	for i := range c.Steps {
		step := &c.Steps[i]
		if err := in.step(step, env); err != nil {
			return env, withLine(err, step.Line)
		}
	}
	return env, nil
}

func (x *Executor) program(file *lesson.File) *program {
	x.mu.Lock()
	defer x.mu.Unlock()

	p, ok := x.programs[file]
	if !ok {
		p = newProgram(file)
		x.programs[file] = p
	}
	return p
}

func withLine(err error, line int) error {
	var f *Failure
	if errors.As(err, &f) {
		if f.Line == 0 {
			f.Line = line
		}
		return f
	}
	var r *RaisedError
	if errors.As(err, &r) {
		if r.Line == 0 {
			r.Line = line
		}
		return r
	}
	return fmt.Errorf("line %d: %w", line, err)
}

func (in *interp) step(s *lesson.Step, env *Env) error {
	fr := frame{env: env}

	switch s.Kind {
	case lesson.StepLet:
		v, err := in.eval(s.Value, fr)
		if err != nil {
			return err
		}
		env.Set(s.Name, v)
		return nil

	case lesson.StepAssign:
		v, err := in.eval(s.Value, fr)
		if err != nil {
			return err
		}
		destructure(env, s.Targets, v)
		return nil

	case lesson.StepSet:
		path, err := lesson.ParsePath(s.Name)
		if err != nil {
			return raise(lesson.KindSyntaxError, "%s", err.Error())
		}
		recvText, attr := path.Receiver()
		recv, err := in.evalPathText(recvText, fr)
		if err != nil {
			return err
		}
		v, err := in.eval(s.Value, fr)
		if err != nil {
			return err
		}
		_, err = in.send(recv, attr+"=", []value.Value{v})
		return err

	case lesson.StepDo:
		_, err := in.eval(s.Value, fr)
		return err

	case lesson.StepAssert:
		return in.assert(s, fr)

	case lesson.StepAssertEqual:
		return in.assertEqual(s, fr)

	case lesson.StepAssertRaise:
		return in.assertRaise(s, fr)

	default:
		return fmt.Errorf("unknown step kind %q", s.Kind)
	}
}

// destructure binds targets from v with parallel-assignment rules:
// an array spreads across targets, missing positions read as nil, and a
// single "*name" target collects whatever the others leave.
func destructure(env *Env, targets []string, v value.Value) {
	var vals value.Array
	if arr, ok := v.(value.Array); ok {
		vals = arr
	} else {
		vals = value.Array{v}
	}

	at := func(i int) value.Value {
		if i < len(vals) {
			return vals[i]
		}
		return value.Nil{}
	}

	splat := -1
	for i, t := range targets {
		if strings.HasPrefix(t, "*") {
			splat = i
			break
		}
	}

	if splat < 0 {
		for i, t := range targets {
			env.Set(t, at(i))
		}
		return
	}

	pre, post := targets[:splat], targets[splat+1:]
	for i, t := range pre {
		env.Set(t, at(i))
	}

	var rest value.Array
	if len(pre) < len(vals) {
		rest = vals[len(pre):]
	}
	collected := value.Array{}
	var tail value.Array
	if len(rest) >= len(post) {
		collected = append(collected, rest[:len(rest)-len(post)]...)
		tail = rest[len(rest)-len(post):]
	} else {
		tail = rest
	}
	env.Set(strings.TrimPrefix(targets[splat], "*"), collected)

	for i, t := range post {
		if i < len(tail) {
			env.Set(t, tail[i])
		} else {
			env.Set(t, value.Nil{})
		}
	}
}

func (in *interp) assert(s *lesson.Step, fr frame) error {
	v, err := in.eval(s.Value, fr)
	if err != nil {
		return err
	}
	if value.ContainsBlank(v) {
		return blankFailure()
	}
	if value.Truthy(v) {
		return nil
	}

	msg := s.Message
	if msg == "" {
		desc, err := in.inspect(v)
		if err != nil {
			return err
		}
		msg = fmt.Sprintf("Expected %s to be truthy", desc)
	}
	return &Failure{Kind: KindAssertionMismatch, Message: msg}
}

func (in *interp) assertEqual(s *lesson.Step, fr frame) error {
	expected, err := in.eval(s.Expected, fr)
	if err != nil {
		return err
	}
	actual, err := in.eval(s.Actual, fr)
	if err != nil {
		return err
	}
	if value.ContainsBlank(expected) {
		return blankFailure()
	}
	if value.Equal(expected, actual) {
		return nil
	}

	want, err := in.inspect(expected)
	if err != nil {
		return err
	}
	got, err := in.inspect(actual)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("Expected %s, got %s", want, got)
	if detail := value.Explain(expected, actual); detail != "" {
		msg += " (" + detail + ")"
	}
	if s.Message != "" {
		msg = s.Message + ": " + msg
	}
	return &Failure{Kind: KindAssertionMismatch, Message: msg}
}

func (in *interp) assertRaise(s *lesson.Step, fr frame) error {
	if s.Error == lesson.BlankMarker {
		return blankFailure()
	}

	_, err := in.eval(s.Value, fr)
	if err == nil {
		return &Failure{
			Kind:    KindExpectedErrorNotRaised,
			Message: fmt.Sprintf("Expected %s to be raised, but nothing was raised", s.Error),
		}
	}

	var raised *RaisedError
	if !errors.As(err, &raised) {
		return err
	}
	if lesson.KindMatches(raised.Kind, s.Error) {
		return nil
	}
	return &Failure{
		Kind:    KindExpectedErrorNotRaised,
		Message: fmt.Sprintf("Expected %s to be raised, but %s was raised: %s", s.Error, raised.Kind, raised.Message),
	}
}
