package encoder

import "strings"

// vbarSplit splits an encoded interior on '|', skipping pipes that sit
// inside a balanced <tag>...</tag> span sharing the same tag name (spec
// §4.3 "Pipe splitting"). It is a hand-written scanner rather than a
// regexp because the original implementation relies on a regex
// backreference (matching the same tag name at open and close) that RE2
// (and so Go's regexp package) cannot express.
func vbarSplit(v string) []string {
	r := []rune(v)
	var fields []string
	var cur strings.Builder

	i := 0
	for i < len(r) {
		if r[i] == '|' {
			fields = append(fields, cur.String())
			cur.Reset()
			i++
			continue
		}

		if span, ok := matchTagSpan(r, i); ok {
			for _, c := range r[i : i+span] {
				cur.WriteRune(c)
			}
			i += span
			continue
		}

		cur.WriteRune(r[i])
		i++
	}
	fields = append(fields, cur.String())
	return fields
}

func isSpace(c rune) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v' }

func isTagNameChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-'
}

// matchTagSpan tries to match, starting at i, an opening tag, content free
// of '[', ']', '{', '}' (non-greedy), and a matching closing tag with the
// same name (case-insensitive). Returns the span length on success.
func matchTagSpan(r []rune, i int) (int, bool) {
	n := len(r)
	if i >= n || r[i] != '<' {
		return 0, false
	}
	j := i + 1
	for j < n && isSpace(r[j]) {
		j++
	}

	nameStart := j
	for j < n && isTagNameChar(r[j]) {
		j++
	}
	if j == nameStart {
		return 0, false
	}
	name := string(r[nameStart:j])

	// [^>]* up to '>'
	for j < n && r[j] != '>' {
		j++
	}
	if j >= n {
		return 0, false
	}
	j++ // consume '>'

	contentStart := j
	closeTag := "</" + strings.ToLower(name)

	for j < n {
		if r[j] == '[' || r[j] == ']' || r[j] == '{' || r[j] == '}' {
			return 0, false
		}
		if r[j] == '<' {
			if end, ok := matchCloseTag(r, j, name); ok {
				_ = contentStart
				return end - i, true
			}
		}
		j++
	}

	_ = closeTag
	return 0, false
}

// matchCloseTag tries to match </\s*name\s*> (case-insensitive) at
// position j, returning the index just past '>' on success.
func matchCloseTag(r []rune, j int, name string) (int, bool) {
	n := len(r)
	k := j
	if k >= n || r[k] != '<' {
		return 0, false
	}
	k++
	for k < n && isSpace(r[k]) {
		k++
	}
	if k >= n || r[k] != '/' {
		return 0, false
	}
	k++
	for k < n && isSpace(r[k]) {
		k++
	}

	nameStart := k
	for k < n && isTagNameChar(r[k]) {
		k++
	}
	if !strings.EqualFold(string(r[nameStart:k]), name) {
		return 0, false
	}

	for k < n && isSpace(r[k]) {
		k++
	}
	if k >= n || r[k] != '>' {
		return 0, false
	}
	return k + 1, true
}
