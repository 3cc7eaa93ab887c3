// Package stage implements the three refinement passes of the generator:
// syntax (structural skeleton), semantic (lexical fill) and cohesion
// (surface text). Each stage is built once from an immutable configuration
// and is safe to run from many goroutines.
package stage
