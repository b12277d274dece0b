package koan

import (
	"strings"
	"unicode/utf8"

	"github.com/roach88/koans/internal/lesson"
	"github.com/roach88/koans/internal/value"
)

// send invokes method name on recv. Declared attributes and methods take
// precedence over builtins.
func (in *interp) send(recv value.Value, name string, args []value.Value) (value.Value, error) {
	if inst, ok := recv.(*value.Instance); ok {
		if def := in.prog.defOf(inst); def != nil {
			if m, ok := def.methods[name]; ok {
				return in.callMethod(inst, m, args)
			}
			if ivar, ok := def.readers[name]; ok {
				if err := checkArity(args, 0); err != nil {
					return nil, err
				}
				if v, ok := inst.Ivar(ivar); ok {
					return v, nil
				}
				return value.Nil{}, nil
			}
			if ivar, ok := def.writers[name]; ok {
				if err := checkArity(args, 1); err != nil {
					return nil, err
				}
				inst.SetIvar(ivar, args[0])
				return args[0], nil
			}
		}
	}

	v, handled, err := in.builtin(recv, name, args)
	if err != nil {
		return nil, err
	}
	if !handled {
		return nil, raise(lesson.KindNoMethodError, "undefined method '%s' for %s", name, describeReceiver(recv))
	}
	return v, nil
}

func (in *interp) callMethod(self *value.Instance, m *lesson.Method, args []value.Value) (value.Value, error) {
	if err := checkArity(args, len(m.Params)); err != nil {
		return nil, err
	}
	if in.depth >= maxDepth {
		return nil, raise(lesson.KindSystemStackError, "stack level too deep")
	}
	in.depth++
	defer func() { in.depth-- }()

	env := NewEnv()
	for i, param := range m.Params {
		env.Set(param, args[i])
	}
	fr := frame{env: env, self: self}

	var last value.Value = value.Nil{}
	for _, a := range m.Sets {
		v, err := in.eval(a.Value, fr)
		if err != nil {
			return nil, err
		}
		self.SetIvar(a.Ivar, v)
		last = v
	}
	if m.Returns != nil {
		return in.eval(*m.Returns, fr)
	}
	return last, nil
}

// instantiate creates an instance of a declared class and runs its
// initialize method, if any.
func (in *interp) instantiate(className string, args []value.Value) (value.Value, error) {
	def, ok := in.prog.classes[className]
	if !ok {
		return nil, raise(lesson.KindNameError, "uninitialized constant %s", className)
	}
	inst := value.NewInstance(def.class)
	if init, ok := def.methods["initialize"]; ok {
		if _, err := in.callMethod(inst, init, args); err != nil {
			return nil, err
		}
		return inst, nil
	}
	if err := checkArity(args, 0); err != nil {
		return nil, err
	}
	return inst, nil
}

func checkArity(args []value.Value, want int) error {
	if len(args) != want {
		return raise(lesson.KindArgumentError, "wrong number of arguments (given %d, expected %d)", len(args), want)
	}
	return nil
}

func describeReceiver(v value.Value) string {
	switch val := v.(type) {
	case value.Nil:
		return "nil"
	case *value.Class:
		return "class " + val.Name
	case value.Blank:
		return value.BlankText
	}
	if c := value.ClassOf(v); c != nil {
		return "an instance of " + c.Name
	}
	return value.KindName(v)
}

// builtin handles methods every value responds to, followed by the
// methods of arrays and strings. handled is false when no builtin matches.
func (in *interp) builtin(recv value.Value, name string, args []value.Value) (value.Value, bool, error) {
	if _, blank := recv.(value.Blank); blank {
		return nil, false, nil
	}

	switch name {
	case "class":
		return arity0(args, func() (value.Value, error) { return value.ClassOf(recv), nil })

	case "to_s":
		return arity0(args, func() (value.Value, error) {
			s, err := in.toS(recv)
			return value.String(s), err
		})

	case "inspect":
		return arity0(args, func() (value.Value, error) {
			s, err := in.inspect(recv)
			return value.String(s), err
		})

	case "nil?":
		return arity0(args, func() (value.Value, error) {
			_, isNil := recv.(value.Nil)
			return value.Bool(isNil), nil
		})

	case "equal?":
		if err := checkArity(args, 1); err != nil {
			return nil, true, err
		}
		return value.Bool(value.Identical(recv, args[0])), true, nil

	case "eql?":
		if err := checkArity(args, 1); err != nil {
			return nil, true, err
		}
		// Unlike equal, eql? does not cross Integer and Float.
		same := value.KindName(recv) == value.KindName(args[0]) && value.Equal(recv, args[0])
		return value.Bool(same), true, nil

	case "is_a?", "kind_of?", "instance_of?":
		if err := checkArity(args, 1); err != nil {
			return nil, true, err
		}
		c, ok := args[0].(*value.Class)
		if !ok {
			return nil, true, raise(lesson.KindTypeError, "class or module required")
		}
		if name == "instance_of?" {
			return value.Bool(value.ClassOf(recv) == c), true, nil
		}
		return value.Bool(value.ClassOf(recv).DescendsFrom(c)), true, nil

	case "instance_variables":
		return arity0(args, func() (value.Value, error) {
			out := value.Array{}
			if inst, ok := recv.(*value.Instance); ok {
				for _, ivar := range inst.Ivars() {
					out = append(out, value.Symbol(ivar))
				}
			}
			return out, nil
		})

	case "instance_variable_get":
		if err := checkArity(args, 1); err != nil {
			return nil, true, err
		}
		ivar, err := ivarName(args[0])
		if err != nil {
			return nil, true, err
		}
		if inst, ok := recv.(*value.Instance); ok {
			if v, ok := inst.Ivar(ivar); ok {
				return v, true, nil
			}
		}
		return value.Nil{}, true, nil

	case "instance_variable_set":
		if err := checkArity(args, 2); err != nil {
			return nil, true, err
		}
		ivar, err := ivarName(args[0])
		if err != nil {
			return nil, true, err
		}
		inst, ok := recv.(*value.Instance)
		if !ok {
			return nil, true, raise(lesson.KindTypeError, "can't modify %s", describeReceiver(recv))
		}
		inst.SetIvar(ivar, args[1])
		return args[1], true, nil
	}

	switch val := recv.(type) {
	case value.Array:
		return arrayMethod(val, name, args)
	case value.String:
		return stringMethod(val, name, args)
	case *value.Class:
		switch name {
		case "name":
			return arity0(args, func() (value.Value, error) { return value.String(val.Name), nil })
		case "superclass":
			return arity0(args, func() (value.Value, error) {
				if val.Superclass == nil {
					return value.Nil{}, nil
				}
				return val.Superclass, nil
			})
		}
	}
	return nil, false, nil
}

func arrayMethod(arr value.Array, name string, args []value.Value) (value.Value, bool, error) {
	switch name {
	case "length", "size":
		return arity0(args, func() (value.Value, error) { return value.Int(len(arr)), nil })
	case "empty?":
		return arity0(args, func() (value.Value, error) { return value.Bool(len(arr) == 0), nil })
	case "first":
		return arity0(args, func() (value.Value, error) { return elementAt(arr, 0), nil })
	case "last":
		return arity0(args, func() (value.Value, error) { return elementAt(arr, -1), nil })
	case "[]":
		if err := checkArity(args, 1); err != nil {
			return nil, true, err
		}
		i, err := intArg(args[0])
		if err != nil {
			return nil, true, err
		}
		return elementAt(arr, i), true, nil
	case "include?":
		if err := checkArity(args, 1); err != nil {
			return nil, true, err
		}
		for _, elem := range arr {
			if value.Equal(elem, args[0]) {
				return value.Bool(true), true, nil
			}
		}
		return value.Bool(false), true, nil
	}
	return nil, false, nil
}

func stringMethod(s value.String, name string, args []value.Value) (value.Value, bool, error) {
	switch name {
	case "length", "size":
		return arity0(args, func() (value.Value, error) { return value.Int(utf8.RuneCountInString(string(s))), nil })
	case "empty?":
		return arity0(args, func() (value.Value, error) { return value.Bool(s == ""), nil })
	case "upcase":
		return arity0(args, func() (value.Value, error) { return value.String(strings.ToUpper(string(s))), nil })
	case "downcase":
		return arity0(args, func() (value.Value, error) { return value.String(strings.ToLower(string(s))), nil })
	case "reverse":
		return arity0(args, func() (value.Value, error) {
			runes := []rune(string(s))
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			return value.String(runes), nil
		})
	case "to_sym":
		return arity0(args, func() (value.Value, error) { return value.Symbol(s), nil })
	case "concat":
		if err := checkArity(args, 1); err != nil {
			return nil, true, err
		}
		other, ok := args[0].(value.String)
		if !ok {
			return nil, true, raise(lesson.KindTypeError, "no implicit conversion of %s into String", className(args[0]))
		}
		return s + other, true, nil
	case "[]":
		if err := checkArity(args, 1); err != nil {
			return nil, true, err
		}
		i, err := intArg(args[0])
		if err != nil {
			return nil, true, err
		}
		runes := []rune(string(s))
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return value.Nil{}, true, nil
		}
		return value.String(string(runes[i])), true, nil
	}
	return nil, false, nil
}

func arity0(args []value.Value, fn func() (value.Value, error)) (value.Value, bool, error) {
	if err := checkArity(args, 0); err != nil {
		return nil, true, err
	}
	v, err := fn()
	return v, true, err
}

func elementAt(arr value.Array, i int) value.Value {
	if i < 0 {
		i += len(arr)
	}
	if i < 0 || i >= len(arr) {
		return value.Nil{}
	}
	return arr[i]
}

func intArg(v value.Value) (int, error) {
	i, ok := v.(value.Int)
	if !ok {
		return 0, raise(lesson.KindTypeError, "no implicit conversion of %s into Integer", className(v))
	}
	return int(i), nil
}

func ivarName(v value.Value) (string, error) {
	var name string
	switch val := v.(type) {
	case value.Symbol:
		name = string(val)
	case value.String:
		name = string(val)
	default:
		return "", raise(lesson.KindTypeError, "%s is not a symbol nor a string", value.Describe(v))
	}
	if !strings.HasPrefix(name, "@") || len(name) < 2 {
		return "", raise(lesson.KindNameError, "'%s' is not allowed as an instance variable name", name)
	}
	return name, nil
}

func className(v value.Value) string {
	if _, ok := v.(value.Nil); ok {
		return "nil"
	}
	if c := value.ClassOf(v); c != nil {
		return c.Name
	}
	return value.KindName(v)
}

// inspect renders v in debug form, honoring user-defined inspect methods.
func (in *interp) inspect(v value.Value) (string, error) {
	return in.inspectSeen(v, make(map[*value.Instance]bool))
}

// inspectSeen is inspect with the set of instances already being rendered,
// so an instance that reaches itself through its ivars terminates.
func (in *interp) inspectSeen(v value.Value, seen map[*value.Instance]bool) (string, error) {
	switch val := v.(type) {
	case *value.Instance:
		if def := in.prog.defOf(val); def != nil {
			if m, ok := def.methods["inspect"]; ok && len(m.Params) == 0 {
				out, err := in.callMethod(val, m, nil)
				if err != nil {
					return "", err
				}
				return value.ToS(out), nil
			}
		}
		var firstErr error
		s := value.DescribeInstance(val, seen, func(elem value.Value) string {
			out, err := in.inspectSeen(elem, seen)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			return out
		})
		return s, firstErr

	case value.Array:
		parts := make([]string, len(val))
		for i, elem := range val {
			s, err := in.inspectSeen(elem, seen)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	}
	return value.Describe(v), nil
}

// toS renders v in plain form, honoring user-defined to_s methods.
func (in *interp) toS(v value.Value) (string, error) {
	switch val := v.(type) {
	case *value.Instance:
		if def := in.prog.defOf(val); def != nil {
			if m, ok := def.methods["to_s"]; ok && len(m.Params) == 0 {
				out, err := in.callMethod(val, m, nil)
				if err != nil {
					return "", err
				}
				return value.ToS(out), nil
			}
		}
	case value.Array:
		return in.inspect(val)
	}
	return value.ToS(v), nil
}
