package lesson

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// parseCUE compiles a CUE lesson, unifies it with the #Lesson schema and
// decodes the concrete result through the same strict decoder YAML lessons
// use. Case and step lines are taken from CUE source positions.
func parseCUE(data []byte, path string) (*File, error) {
	ctx := cuecontext.New()

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, cueLoadError(path, "failed to compile lesson", err)
	}

	schema := ctx.CompileString(schemaSource, cue.Filename("lesson_schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &LoadError{Path: path, Message: "failed to compile lesson schema", Err: err}
	}

	unified := schema.LookupPath(cue.ParsePath("#Lesson")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(path, "lesson does not match schema", err)
	}

	data, err := unified.MarshalJSON()
	if err != nil {
		return nil, cueLoadError(path, "failed to export lesson", err)
	}

	// JSON is a subset of YAML, so the exported form goes through the
	// same decoder and Step/Expr rules as a .yaml lesson.
	file, err := parseYAML(data, path)
	if err != nil {
		return nil, err
	}

	applyCUELines(file, v)
	return file, nil
}

// applyCUELines replaces line numbers from the exported JSON with the
// positions of the original CUE source.
func applyCUELines(file *File, v cue.Value) {
	cases, err := v.LookupPath(cue.ParsePath("cases")).List()
	if err != nil {
		return
	}

	for i := 0; cases.Next() && i < len(file.Cases); i++ {
		c := cases.Value()
		file.Cases[i].Line = c.Pos().Line()

		steps, err := c.LookupPath(cue.ParsePath("steps")).List()
		if err != nil {
			continue
		}
		for j := 0; steps.Next() && j < len(file.Cases[i].Steps); j++ {
			file.Cases[i].Steps[j].Line = steps.Value().Pos().Line()
		}
	}
}

// cueLoadError extracts position info from CUE errors.
func cueLoadError(path, message string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Path: path, Message: message, Err: err}
	}

	// Return first error with position info
	first := errs[0]
	loadErr := &LoadError{Path: path, Message: message, Err: fmt.Errorf("%s", errors.Details(first, nil))}
	if positions := errors.Positions(first); len(positions) > 0 {
		loadErr.Line = positions[0].Line()
	}
	return loadErr
}
