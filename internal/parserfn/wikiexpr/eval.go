package wikiexpr

// Eval parses and evaluates a #expr operand, returning the rendered result
// string or a descriptive error for the caller to wrap as an inline
// "Expression error" marker (spec §7's never-throw-across-pages policy;
// the parser-function layer is responsible for that wrapping, not this
// package).
func Eval(text string) (string, error) {
	e, err := Parse(text)
	if err != nil {
		return "", err
	}
	v, err := e.Eval()
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Truthy evaluates text and reports whether the result is non-zero,
// backing #ifexpr's three-way branch.
func Truthy(text string) (bool, error) {
	e, err := Parse(text)
	if err != nil {
		return false, err
	}
	v, err := e.Eval()
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}
