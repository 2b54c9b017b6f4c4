/*
Package dsl provides a fluent builder for constructing conversation graphs in Go.

It allows menu trees to be declared with a type-safe, chainable API instead of
YAML, which is useful for the built-in tree, tests and generated variants.

Example usage:

	b := dsl.New()

	b.Add("Root").
		Say("Pick one:\n1. Weather\n2. Exit").
		Expects(domain.SlotVertical).
		Option("1", "Done", dsl.Identifier("WE"), dsl.Fetch()).
		Option("2", "Bye")

	b.Add("Done").Say("Anything else?").Option("1", "Root")
	b.Add("Bye").Say("Goodbye!").Terminal("Root")

	g, err := b.Build("Root")
*/
package dsl
