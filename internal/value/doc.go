// Package value provides the tagged value model that lesson content evaluates to.
//
// This package contains value types and the pure functions over them. It
// imports nothing internal; every other package that touches lesson values
// imports value.
//
// Key design constraints:
//   - Value is sealed: only the kinds declared here implement it
//   - Learner-visible object state is an explicit ordered ivar mapping on
//     Instance, read through Ivar and Ivars rather than reflection
//   - Debug formatting is a per-kind switch (Describe, ToS), never implicit
//     dispatch on Go types
//   - Canonical JSON (MarshalCanonical) is the only serialization used for
//     run digests and golden snapshots
package value
