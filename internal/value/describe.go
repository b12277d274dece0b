package value

import (
	"strconv"
	"strings"
)

// BlankText is how a blank prints when it is described.
const BlankText = "__"

// Describe returns the debug representation of v (the "inspect" form).
// Strings are quoted, symbols carry a leading colon and arrays describe
// their elements recursively.
func Describe(v Value) string {
	return describe(v, make(map[*Instance]bool))
}

func describe(v Value, seen map[*Instance]bool) string {
	switch val := v.(type) {
	case nil, Nil:
		return "nil"
	case Bool:
		return strconv.FormatBool(bool(val))
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return formatFloat(float64(val))
	case String:
		return strconv.Quote(string(val))
	case Symbol:
		return ":" + string(val)
	case Array:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = describe(elem, seen)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Blank:
		return BlankText
	case *Class:
		return val.Name
	case *Instance:
		return DescribeInstance(val, seen, func(elem Value) string {
			return describe(elem, seen)
		})
	default:
		return "#<unknown>"
	}
}

// DescribeInstance renders an instance using elem to describe its ivars.
// Callers with method dispatch pass their own elem so that user-defined
// inspect methods apply to nested values.
//
// seen holds the instances currently being described. An instance met
// again while its own ivars are being described prints as "#<Dog ...>",
// so self-referencing objects terminate.
func DescribeInstance(i *Instance, seen map[*Instance]bool, elem func(Value) string) string {
	if seen[i] {
		return "#<" + i.Class.Name + " ...>"
	}
	seen[i] = true
	defer delete(seen, i)

	var b strings.Builder
	b.WriteString("#<")
	b.WriteString(i.Class.Name)
	for _, name := range i.names {
		b.WriteByte(' ')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(elem(i.ivars[name]))
	}
	b.WriteByte('>')
	return b.String()
}

// ToS returns the plain string form of v (the "to_s" form).
// Nil is empty, strings and symbols are unquoted and arrays use Describe.
func ToS(v Value) string {
	switch val := v.(type) {
	case nil, Nil:
		return ""
	case String:
		return string(val)
	case Symbol:
		return string(val)
	case *Instance:
		return "#<" + val.Class.Name + ">"
	default:
		return Describe(v)
	}
}

// KindName names the variant of v, for error messages.
func KindName(v Value) string {
	switch v.(type) {
	case nil, Nil:
		return "nil"
	case Bool:
		return "bool"
	case Int:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Symbol:
		return "symbol"
	case Array:
		return "array"
	case Blank:
		return "blank"
	case *Class:
		return "class"
	case *Instance:
		return "instance"
	default:
		return "unknown"
	}
}

// formatFloat always keeps a fractional part so 1.0 does not print as 1.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}
