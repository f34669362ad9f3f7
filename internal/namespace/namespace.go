// Package namespace implements the NameData collaborator (spec §3, §6),
// grounded in original_source/wikimunge/namespace.py and namespace_data.py.
package namespace

import "strconv"

// Namespace describes one MediaWiki namespace (e.g. "Template", "Module").
type Namespace struct {
	ID            int
	Name          string
	IsSubject     bool
	IsContent     bool
	IsTalk        bool
	Aliases       []string
	CanonicalName string
}

// Match reports whether name (a localized name, alias, canonical name, or
// stringified id) identifies this namespace.
func (n Namespace) Match(name string) bool {
	if name == "" {
		return false
	}
	if id, err := strconv.Atoi(name); err == nil {
		return id == n.ID
	}

	lower := toLower(name)
	if n.Name != "" && lower == toLower(n.Name) {
		return true
	}
	if n.CanonicalName != "" && lower == toLower(n.CanonicalName) {
		return true
	}
	for _, a := range n.Aliases {
		if lower == toLower(a) {
			return true
		}
	}
	return false
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
