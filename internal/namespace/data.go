package namespace

import (
	"encoding/json"
	"regexp"
	"strings"
)

// entry is the on-disk JSON shape for one namespace (spec §6): a mapping
// from canonical namespace name to {id, name, issubject, content, istalk,
// aliases[]}.
type entry struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	IsSubject bool     `json:"issubject"`
	Content   bool     `json:"content"`
	IsTalk    bool     `json:"istalk"`
	Aliases   []string `json:"aliases"`
}

// Data is a loaded namespace/alias table for one language (NameData, spec §3).
type Data struct {
	raw        map[string]entry
	byID       map[int]*Namespace
	byCanonical map[string]*Namespace
}

// Load parses the documented JSON shape into a Data.
func Load(jsonBytes []byte) (*Data, error) {
	var raw map[string]entry
	if err := json.Unmarshal(jsonBytes, &raw); err != nil {
		return nil, err
	}

	d := &Data{
		raw:         raw,
		byID:        make(map[int]*Namespace),
		byCanonical: make(map[string]*Namespace),
	}

	for canon, e := range raw {
		ns := &Namespace{
			ID:            e.ID,
			Name:          e.Name,
			IsSubject:     e.IsSubject,
			IsContent:     e.Content,
			IsTalk:        e.IsTalk,
			Aliases:       e.Aliases,
			CanonicalName: canon,
		}
		d.byID[ns.ID] = ns
		d.byCanonical[canon] = ns
	}

	return d, nil
}

// Get resolves a (possibly "Name:Rest") string to its namespace, or nil if
// unknown. Mirrors NamespaceData.get.
func (d *Data) Get(name string) *Namespace {
	if i := strings.IndexByte(name, ':'); i != -1 {
		name = name[:i]
	}

	if ns, ok := d.byCanonical[name]; ok {
		return ns
	}

	for _, ns := range d.byID {
		if ns.Match(name) {
			return ns
		}
	}
	return nil
}

// GetName returns the localized name for a canonical namespace name (e.g.
// GetName("Template") -> "Template" or its localized equivalent).
func (d *Data) GetName(name string) string {
	ns := d.Get(name)
	if ns == nil {
		return name
	}
	return ns.Name
}

var reWhitespace = regexp.MustCompile(`\s+`)

// CanonicalizeParserFnName normalizes whitespace/underscores; if name is
// not a known parser-function name per the known predicate, it is
// lowercased (spec §3). known is injected rather than imported to avoid a
// dependency cycle between this package and the parser-function registry.
func (d *Data) CanonicalizeParserFnName(name string, known func(string) bool) string {
	name = strings.TrimSpace(reWhitespace.ReplaceAllString(strings.ReplaceAll(name, "_", " "), " "))
	if known == nil || !known(name) {
		name = strings.ToLower(name)
	}
	return name
}

var templateNameReplacer = strings.NewReplacer(
	"_", " ",
	"(", "%28",
	")", "%29",
	"&", "%26",
	"+", "%2B",
)

// CanonicalizeTemplateName strips the localized "Template:" prefix
// (case-insensitive), normalizes underscores to spaces, percent-encodes
// "( ) & +", collapses whitespace, and trims (spec §3).
func (d *Data) CanonicalizeTemplateName(name string) string {
	prefix := strings.ToLower(d.GetName("Template")) + ":"
	if strings.HasPrefix(strings.ToLower(name), prefix) {
		name = name[len(prefix):]
	}

	name = templateNameReplacer.Replace(name)
	name = reWhitespace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
