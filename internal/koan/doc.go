// Package koan executes lesson cases.
//
// Each case runs against a fresh Env: an explicit mapping from name to value
// that steps read and write. Objects keep their state in an ordered
// instance-variable mapping (value.Instance) that lessons inspect through
// builtin accessors such as instance_variables and instance_variable_get.
//
// Case execution ends at the first failing step. Assertion failures are
// returned as *Failure; errors raised by lesson content (calling an
// undefined method, wrong arity, malformed eval source) are returned as
// *RaisedError. Both carry the source line of the step that failed.
package koan
