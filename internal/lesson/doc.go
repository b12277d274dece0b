// Package lesson loads koan lesson files.
//
// A lesson file is a YAML (.yaml, .yml) or CUE (.cue) document describing one
// topic: a stable lesson name, optional class declarations and an ordered
// list of cases. Each case is an ordered list of steps with embedded
// "fill in the blank" assertions.
//
// # Lesson Format
//
//	lesson: about_classes
//	description: "Objects, instance variables and accessors"
//	classes:
//	  - name: Dog6
//	    attr_reader: [name]
//	    methods:
//	      - name: initialize
//	        params: [initial_name]
//	        sets: { "@name": initial_name }
//	cases:
//	  - name: initialize_provides_initial_values
//	    steps:
//	      - let: fido
//	        be: { new: Dog6, args: [Fido] }
//	      - assert_equal: { expected: __, actual: fido.name }
//
// # Steps
//
//   - let + be: bind a name in the case state
//   - assign + be: parallel assignment, "*name" is a splat target
//   - set + to: call an attribute writer ("fido.name" calls name=)
//   - do: evaluate an expression for its side effects
//   - assert (+ message): the expression must be truthy
//   - assert_equal: { expected, actual, message }
//   - assert_raise: { error, do }
//
// # Expressions
//
// In expression position a scalar string is a path such as fido.name,
// names[0], @name, self or Dog. In literal position (expected, to, args)
// scalars are literal values. Sequences are arrays of literal-position
// items in both positions. Mappings are operations: lit, ref, sym, array,
// new, call, interpolate, eval, instance_eval, equal, not_equal and class.
// The scalar __ is a blank for the learner to fill in.
//
// Inside flow collections ({ ... } or [ ... ]) YAML only accepts a path
// ending in ? or ! when it is quoted:
//
//	- do: { call: "names.include?", args: [Smith] }
//
// # Ordering
//
// Load returns files in the order of the given paths and cases in
// declaration order. Discover expands directories, following
// path_to_enlightenment.yaml when present.
package lesson
