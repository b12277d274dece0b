package lesson

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/koans/internal/value"
)

// BlankMarker is the scalar a learner replaces with an answer.
const BlankMarker = "__"

var (
	identPattern = regexp.MustCompile(`^[a-z_][A-Za-z0-9_]*$`)
	constPattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9_]*$`)
	ivarPattern  = regexp.MustCompile(`^@[a-z_][A-Za-z0-9_]*$`)
)

func isIdent(s string) bool    { return identPattern.MatchString(s) }
func isConst(s string) bool    { return constPattern.MatchString(s) }
func isIvarName(s string) bool { return ivarPattern.MatchString(s) }

// opCompanions lists, per operation key, the other keys allowed beside it.
var opCompanions = map[string][]string{
	"lit":           nil,
	"ref":           nil,
	"sym":           nil,
	"array":         nil,
	"new":           {"args"},
	"call":          {"args"},
	"interpolate":   nil,
	"eval":          nil,
	"instance_eval": {"on"},
	"equal":         nil,
	"not_equal":     nil,
	"class":         nil,
}

// parseExpr converts a YAML node into an expression. When scalarsArePaths is
// true a string scalar is a path; otherwise it is a literal string.
func parseExpr(node *yaml.Node, scalarsArePaths bool) (Expr, error) {
	node = resolveAlias(node)

	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!str" {
			if node.Value == BlankMarker {
				return Expr{Kind: ExprBlank}, nil
			}
			if scalarsArePaths {
				if _, err := ParsePath(node.Value); err != nil {
					return Expr{}, fmt.Errorf("line %d: %w", node.Line, err)
				}
				return PathExpr(node.Value), nil
			}
		}
		v, err := parseScalar(node)
		if err != nil {
			return Expr{}, err
		}
		return Literal(v), nil

	case yaml.SequenceNode:
		items, err := parseExprList(node, false)
		if err != nil {
			return Expr{}, err
		}
		return Expr{Kind: ExprArray, Items: items}, nil

	case yaml.MappingNode:
		return parseOp(node)

	default:
		return Expr{}, fmt.Errorf("line %d: unsupported expression", node.Line)
	}
}

func parseExprList(node *yaml.Node, scalarsArePaths bool) ([]Expr, error) {
	node = resolveAlias(node)
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list", node.Line)
	}
	items := make([]Expr, 0, len(node.Content))
	for _, child := range node.Content {
		item, err := parseExpr(child, scalarsArePaths)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// parseOp decodes a single-operation mapping such as {new: Dog, args: [Fido]}.
func parseOp(node *yaml.Node) (Expr, error) {
	fields := mappingFields(node)

	var op string
	for key := range fields {
		if _, ok := opCompanions[key]; ok {
			if op != "" {
				return Expr{}, fmt.Errorf("line %d: expression has both %q and %q", node.Line, op, key)
			}
			op = key
		}
	}
	if op == "" {
		return Expr{}, fmt.Errorf("line %d: unknown expression operation (keys: %s)", node.Line, strings.Join(sortedKeys(fields), ", "))
	}
	if err := checkKeys(node, append([]string{op}, opCompanions[op]...)...); err != nil {
		return Expr{}, err
	}

	arg := fields[op]
	switch op {
	case "lit":
		v, err := parseLiteralValue(arg)
		if err != nil {
			return Expr{}, err
		}
		return Literal(v), nil

	case "ref":
		text, err := scalarString(arg, op)
		if err != nil {
			return Expr{}, err
		}
		if _, err := ParsePath(text); err != nil {
			return Expr{}, fmt.Errorf("line %d: %w", arg.Line, err)
		}
		return PathExpr(text), nil

	case "sym":
		text, err := scalarString(arg, op)
		if err != nil {
			return Expr{}, err
		}
		return Literal(value.Symbol(text)), nil

	case "array":
		items, err := parseExprList(arg, true)
		if err != nil {
			return Expr{}, err
		}
		return Expr{Kind: ExprArray, Items: items}, nil

	case "new", "class":
		text, err := scalarString(arg, op)
		if err != nil {
			return Expr{}, err
		}
		if !isConst(text) {
			return Expr{}, fmt.Errorf("line %d: %s: %q is not a class name", arg.Line, op, text)
		}
		kind := ExprClass
		if op == "new" {
			kind = ExprNew
		}
		expr := Expr{Kind: kind, Text: text}
		if argsNode, ok := fields["args"]; ok {
			args, err := parseExprList(argsNode, false)
			if err != nil {
				return Expr{}, err
			}
			expr.Args = args
		}
		return expr, nil

	case "call":
		text, err := scalarString(arg, op)
		if err != nil {
			return Expr{}, err
		}
		path, err := ParsePath(text)
		if err != nil {
			return Expr{}, fmt.Errorf("line %d: %w", arg.Line, err)
		}
		if last := path.Segments[len(path.Segments)-1]; len(last.Index) > 0 {
			return Expr{}, fmt.Errorf("line %d: call: %q must end in a method name", arg.Line, text)
		}
		expr := Expr{Kind: ExprCall, Text: text}
		if argsNode, ok := fields["args"]; ok {
			args, err := parseExprList(argsNode, false)
			if err != nil {
				return Expr{}, err
			}
			expr.Args = args
		}
		return expr, nil

	case "interpolate", "eval":
		text, err := scalarString(arg, op)
		if err != nil {
			return Expr{}, err
		}
		kind := ExprInterpolate
		if op == "eval" {
			kind = ExprEval
		}
		return Expr{Kind: kind, Text: text}, nil

	case "instance_eval":
		text, err := scalarString(arg, op)
		if err != nil {
			return Expr{}, err
		}
		onNode, ok := fields["on"]
		if !ok {
			return Expr{}, fmt.Errorf("line %d: instance_eval requires \"on\"", node.Line)
		}
		recv, err := parseExpr(onNode, true)
		if err != nil {
			return Expr{}, err
		}
		return Expr{Kind: ExprInstanceEval, Text: text, Receiver: &recv}, nil

	case "equal", "not_equal":
		items, err := parseExprList(arg, true)
		if err != nil {
			return Expr{}, err
		}
		if len(items) != 2 {
			return Expr{}, fmt.Errorf("line %d: %s takes exactly 2 operands, got %d", arg.Line, op, len(items))
		}
		kind := ExprEqual
		if op == "not_equal" {
			kind = ExprNotEqual
		}
		return Expr{Kind: kind, Items: items}, nil
	}

	return Expr{}, fmt.Errorf("line %d: unhandled operation %q", node.Line, op)
}

// parseScalar converts a scalar node to a value using its resolved YAML tag.
func parseScalar(node *yaml.Node) (value.Value, error) {
	switch node.Tag {
	case "!!null":
		return value.Nil{}, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return value.Bool(b), nil
	case "!!int":
		var n int64
		if err := node.Decode(&n); err != nil {
			return nil, err
		}
		return value.Int(n), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, err
		}
		return value.Float(f), nil
	case "!!str":
		return value.String(node.Value), nil
	default:
		return nil, fmt.Errorf("line %d: unsupported scalar tag %s", node.Line, node.Tag)
	}
}

// parseLiteralValue decodes the body of a lit operation. Blanks are not
// recognized here, so {lit: "__"} is the string "__".
func parseLiteralValue(node *yaml.Node) (value.Value, error) {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.ScalarNode:
		return parseScalar(node)
	case yaml.SequenceNode:
		arr := make(value.Array, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := parseLiteralValue(child)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("line %d: lit only accepts scalars and lists", node.Line)
	}
}

// UnmarshalYAML decodes a step. Exactly one verb key is allowed, together
// with the companion keys that verb accepts.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: step must be a mapping", node.Line)
	}
	fields := mappingFields(node)

	var verb StepKind
	for _, k := range []StepKind{StepLet, StepAssign, StepSet, StepDo, StepAssert, StepAssertEqual, StepAssertRaise} {
		if _, ok := fields[string(k)]; !ok {
			continue
		}
		if verb != "" {
			return fmt.Errorf("line %d: step has both %q and %q", node.Line, verb, k)
		}
		verb = k
	}
	if verb == "" {
		return fmt.Errorf("line %d: unknown step (keys: %s)", node.Line, strings.Join(sortedKeys(fields), ", "))
	}

	step := Step{Kind: verb, Line: node.Line}
	var err error

	switch verb {
	case StepLet:
		if err := checkKeys(node, "let", "be"); err != nil {
			return err
		}
		if step.Name, err = scalarString(fields["let"], "let"); err != nil {
			return err
		}
		if !isIdent(step.Name) {
			return fmt.Errorf("line %d: let: %q is not a valid name", node.Line, step.Name)
		}
		if step.Value, err = requiredExpr(node, fields, "be", true); err != nil {
			return err
		}

	case StepAssign:
		if err := checkKeys(node, "assign", "be"); err != nil {
			return err
		}
		if err := fields["assign"].Decode(&step.Targets); err != nil {
			return fmt.Errorf("line %d: assign must be a list of names: %w", node.Line, err)
		}
		if err := validateTargets(step.Targets); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		if step.Value, err = requiredExpr(node, fields, "be", true); err != nil {
			return err
		}

	case StepSet:
		if err := checkKeys(node, "set", "to"); err != nil {
			return err
		}
		if step.Name, err = scalarString(fields["set"], "set"); err != nil {
			return err
		}
		path, perr := ParsePath(step.Name)
		if perr != nil {
			return fmt.Errorf("line %d: %w", node.Line, perr)
		}
		if len(path.Segments) < 2 || len(path.Segments[len(path.Segments)-1].Index) > 0 {
			return fmt.Errorf("line %d: set: %q must be receiver.attribute", node.Line, step.Name)
		}
		if step.Value, err = requiredExpr(node, fields, "to", false); err != nil {
			return err
		}

	case StepDo:
		if err := checkKeys(node, "do"); err != nil {
			return err
		}
		if step.Value, err = parseExpr(fields["do"], true); err != nil {
			return err
		}

	case StepAssert:
		if err := checkKeys(node, "assert", "message"); err != nil {
			return err
		}
		if step.Value, err = parseExpr(fields["assert"], true); err != nil {
			return err
		}
		if msg, ok := fields["message"]; ok {
			if step.Message, err = scalarString(msg, "message"); err != nil {
				return err
			}
		}

	case StepAssertEqual:
		body := resolveAlias(fields["assert_equal"])
		if err := checkKeys(node, "assert_equal"); err != nil {
			return err
		}
		if body.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: assert_equal must be a mapping", body.Line)
		}
		if err := checkKeys(body, "expected", "actual", "message"); err != nil {
			return err
		}
		bodyFields := mappingFields(body)
		if step.Expected, err = requiredExpr(body, bodyFields, "expected", false); err != nil {
			return err
		}
		if step.Actual, err = requiredExpr(body, bodyFields, "actual", true); err != nil {
			return err
		}
		if msg, ok := bodyFields["message"]; ok {
			if step.Message, err = scalarString(msg, "message"); err != nil {
				return err
			}
		}

	case StepAssertRaise:
		body := resolveAlias(fields["assert_raise"])
		if err := checkKeys(node, "assert_raise"); err != nil {
			return err
		}
		if body.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: assert_raise must be a mapping", body.Line)
		}
		if err := checkKeys(body, "error", "do"); err != nil {
			return err
		}
		bodyFields := mappingFields(body)
		errNode, ok := bodyFields["error"]
		if !ok {
			return fmt.Errorf("line %d: assert_raise requires \"error\"", body.Line)
		}
		if step.Error, err = scalarString(errNode, "error"); err != nil {
			return err
		}
		if step.Value, err = requiredExpr(body, bodyFields, "do", true); err != nil {
			return err
		}
	}

	*s = step
	return nil
}

func requiredExpr(node *yaml.Node, fields map[string]*yaml.Node, key string, scalarsArePaths bool) (Expr, error) {
	child, ok := fields[key]
	if !ok {
		return Expr{}, fmt.Errorf("line %d: missing %q", node.Line, key)
	}
	return parseExpr(child, scalarsArePaths)
}

// validateTargets checks parallel assignment targets: plain names plus at
// most one "*name" splat.
func validateTargets(targets []string) error {
	if len(targets) == 0 {
		return fmt.Errorf("assign needs at least one target")
	}
	splats := 0
	for _, t := range targets {
		name := strings.TrimPrefix(t, "*")
		if name != t {
			splats++
		}
		if !isIdent(name) {
			return fmt.Errorf("assign: %q is not a valid target", t)
		}
	}
	if splats > 1 {
		return fmt.Errorf("assign: only one splat target is allowed")
	}
	return nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func mappingFields(node *yaml.Node) map[string]*yaml.Node {
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		fields[node.Content[i].Value] = node.Content[i+1]
	}
	return fields
}

// checkKeys rejects mapping keys outside allowed. Custom unmarshalers decode
// through yaml.Node, which does not inherit the decoder's KnownFields setting.
func checkKeys(node *yaml.Node, allowed ...string) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		known := false
		for _, a := range allowed {
			if key.Value == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("line %d: field %s not allowed here (allowed: %s)", key.Line, key.Value, strings.Join(allowed, ", "))
		}
	}
	return nil
}

func scalarString(node *yaml.Node, field string) (string, error) {
	node = resolveAlias(node)
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: %s must be a string", node.Line, field)
	}
	return node.Value, nil
}

func sortedKeys(m map[string]*yaml.Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
