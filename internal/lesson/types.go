package lesson

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/koans/internal/value"
)

// File is one lesson: an ordered sequence of cases covering one topic.
// Files are immutable after Load returns them.
type File struct {
	// Name is the stable lesson identifier (snake_case).
	Name string `yaml:"lesson"`

	// Description explains what the lesson teaches.
	Description string `yaml:"description,omitempty"`

	// Classes declares the classes the cases may instantiate.
	Classes []Class `yaml:"classes,omitempty"`

	// Cases are executed in declaration order.
	Cases []Case `yaml:"cases"`

	// Path is the source file the lesson was loaded from.
	Path string `yaml:"-"`
}

// Class declares a class available to the lesson's cases.
type Class struct {
	Name         string   `yaml:"name"`
	AttrReader   []string `yaml:"attr_reader,omitempty"`
	AttrWriter   []string `yaml:"attr_writer,omitempty"`
	AttrAccessor []string `yaml:"attr_accessor,omitempty"`
	Methods      []Method `yaml:"methods,omitempty"`
}

// Method declares a method with positional params.
// Calling it assigns Sets in order, then evaluates Returns.
// Without Returns the method returns the last assigned value, or nil.
type Method struct {
	Name    string      `yaml:"name"`
	Params  []string    `yaml:"params,omitempty"`
	Sets    Assignments `yaml:"sets,omitempty"`
	Returns *Expr       `yaml:"returns,omitempty"`
}

// Assignment sets one instance variable from an expression.
type Assignment struct {
	Ivar  string
	Value Expr
}

// Assignments keeps the declaration order of a "sets" mapping.
type Assignments []Assignment

// UnmarshalYAML decodes a mapping of "@ivar: expr" pairs in order.
func (a *Assignments) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: sets must be a mapping of @ivar to expression", node.Line)
	}

	out := make(Assignments, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if key.Kind != yaml.ScalarNode || !isIvarName(key.Value) {
			return fmt.Errorf("line %d: sets key %q must be an instance variable like @name", key.Line, key.Value)
		}
		expr, err := parseExpr(node.Content[i+1], true)
		if err != nil {
			return err
		}
		out = append(out, Assignment{Ivar: key.Value, Value: expr})
	}
	*a = out
	return nil
}

// Case is one self-contained, assertion-bearing example.
type Case struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`

	// Ordinal is the 1-indexed position of the case within its file.
	Ordinal int `yaml:"-"`

	// Line is the source line the case is declared on.
	Line int `yaml:"-"`
}

// UnmarshalYAML decodes a case and records its source line.
func (c *Case) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: case must be a mapping", node.Line)
	}
	if err := checkKeys(node, "name", "steps"); err != nil {
		return err
	}

	type plain Case
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = Case(p)
	c.Line = node.Line
	return nil
}

// StepKind names the verb of a step.
type StepKind string

// Step verbs.
const (
	StepLet         StepKind = "let"
	StepAssign      StepKind = "assign"
	StepSet         StepKind = "set"
	StepDo          StepKind = "do"
	StepAssert      StepKind = "assert"
	StepAssertEqual StepKind = "assert_equal"
	StepAssertRaise StepKind = "assert_raise"
)

// Step is one statement of a case body.
type Step struct {
	Kind StepKind
	Line int

	// Name is the binding for let, or the receiver.attribute path for set.
	Name string

	// Targets are the parallel assignment targets; "*name" marks a splat.
	Targets []string

	// Value is the expression for be, to, do, assert, and assert_raise's do.
	Value Expr

	// Expected and Actual are the operands of assert_equal.
	Expected Expr
	Actual   Expr

	// Error is the expected error kind for assert_raise ("__" when blank).
	Error string

	// Message is an optional hint shown when the assertion fails.
	Message string
}

// ExprKind identifies the operation an expression performs.
type ExprKind int

// Expression kinds.
const (
	ExprLiteral ExprKind = iota
	ExprBlank
	ExprPath
	ExprArray
	ExprNew
	ExprCall
	ExprInterpolate
	ExprEval
	ExprInstanceEval
	ExprEqual
	ExprNotEqual
	ExprClass
)

var exprKindNames = map[ExprKind]string{
	ExprLiteral:      "literal",
	ExprBlank:        "blank",
	ExprPath:         "path",
	ExprArray:        "array",
	ExprNew:          "new",
	ExprCall:         "call",
	ExprInterpolate:  "interpolate",
	ExprEval:         "eval",
	ExprInstanceEval: "instance_eval",
	ExprEqual:        "equal",
	ExprNotEqual:     "not_equal",
	ExprClass:        "class",
}

func (k ExprKind) String() string {
	if name, ok := exprKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ExprKind(%d)", int(k))
}

// Expr is a parsed expression.
type Expr struct {
	Kind ExprKind

	// Value holds the literal for ExprLiteral.
	Value value.Value

	// Text is the path (ExprPath, ExprCall), class name (ExprNew, ExprClass),
	// template (ExprInterpolate) or source (ExprEval, ExprInstanceEval).
	Text string

	// Items are array elements or comparison operands.
	Items []Expr

	// Args are call or constructor arguments.
	Args []Expr

	// Receiver is the object instance_eval runs against.
	Receiver *Expr
}

// UnmarshalYAML decodes an expression in expression position, where a
// scalar string is a path.
func (e *Expr) UnmarshalYAML(node *yaml.Node) error {
	expr, err := parseExpr(node, true)
	if err != nil {
		return err
	}
	*e = expr
	return nil
}

// Literal builds a literal expression.
func Literal(v value.Value) Expr {
	return Expr{Kind: ExprLiteral, Value: v}
}

// PathExpr builds a path expression.
func PathExpr(path string) Expr {
	return Expr{Kind: ExprPath, Text: path}
}
