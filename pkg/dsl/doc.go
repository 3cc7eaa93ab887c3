/*
Package dsl provides a Go DSL for programmatically constructing HLG models.

It lets developers define syntax layers, candidate chains and cohesion rules
with a fluent builder instead of YAML model files. This is particularly
useful for unit tests, toy languages and generated grammars.

Example usage:

	b := dsl.New()

	b.Syntax("clause", "role", 3).
		Sequence(domain.StartSymbol, "det", "noun", "verb", "punct")

	b.Chain("general", 2).
		Candidate("det", nil, "the", 3).
		Candidate("noun", nil, "cat", 1).
		Candidate("verb", nil, "sleeps", 1).
		Candidate("punct", nil, ".", 1)

	b.Cohesion(0, 2).
		Rule("the", []string{domain.PadSymbol}, "The", 1)

	// The result is a ports.ModelLoader serving the default memory paths.
	loader, err := b.Build()
*/
package dsl
