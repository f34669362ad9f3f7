// Package encoder implements the Encoder (spec §4.3, C3): an inside-out
// lexical pass converting nested wiki constructs into magic-cookie
// characters by fixed-point iteration, grounded in
// original_source/wikimunge/encoder.py.
package encoder

import (
	"regexp"
	"strings"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/cookie"
)

var nowikiChar = regexp.QuoteMeta(string(cookie.NowikiSentinel))

var (
	reComment = regexp.MustCompile(`(?s)<\s*!\s*--.*?--\s*>`)

	reNowiki          = regexp.MustCompile(`(?is)<\s*nowiki\s*>(.*?)<\s*/\s*nowiki\s*>`)
	reNowikiSelfClose = regexp.MustCompile(`(?i)<\s*nowiki\s*/\s*>`)

	reLink = regexp.MustCompile(
		`(?s)\[` + nowikiChar + `?\[(([^][{}<>]|<[-+*a-zA-Z0-9]*>)+)\]` + nowikiChar + `?\]`)

	reExtLink = regexp.MustCompile(`(?s)\[([^][{}<>|]+)\]`)

	reArgRef = regexp.MustCompile(
		`(?s)\{` + nowikiChar + `?\{` + nowikiChar + `?\{(([^{}]|\{\|[^{}]*\|\})*?)\}` +
			nowikiChar + `?\}` + nowikiChar + `?\}`)

	reArgRefMissingBrace = regexp.MustCompile(
		`(?s)([^{])\{` + nowikiChar + `?\{` + nowikiChar + `?\{([^{}]*?)\}` + nowikiChar + `?\}`)

	reTemplate = regexp.MustCompile(
		`(?si)\{` + nowikiChar + `?\{((\{\|[^{}]*?\|\}|\}[^{}]|[^{}](\{[^{}|])?)+?)\}` +
			nowikiChar + `?\}`)

	reTemplateMissingBrace = regexp.MustCompile(
		`(?s)([^{])\{` + nowikiChar + `?\{(([^{}]|\{\|[^{}]*?\|\}|\}[^{}])+?)\}`)
)

// DebugLog receives a message when a missing-brace heuristic fires. It
// corresponds to the DEBUG-level diagnostics required by spec §4.3/§9.
type DebugLog func(msg string)

func hasNowiki(s string) bool { return strings.ContainsRune(s, cookie.NowikiSentinel) }

// replaceFunc runs re against text like re.sub in Python, but gives the
// callback access to every capture group (Go's ReplaceAllStringFunc only
// exposes the whole match).
func replaceFunc(re *regexp.Regexp, text string, repl func(whole string, groups []string) string) (string, bool) {
	idx := re.FindAllStringSubmatchIndex(text, -1)
	if idx == nil {
		return text, false
	}

	var b strings.Builder
	last := 0
	for _, m := range idx {
		b.WriteString(text[last:m[0]])

		groups := make([]string, len(m)/2)
		for i := range groups {
			if m[2*i] < 0 {
				groups[i] = ""
			} else {
				groups[i] = text[m[2*i]:m[2*i+1]]
			}
		}

		b.WriteString(repl(text[m[0]:m[1]], groups))
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String(), true
}

// Encode converts raw wiki text into cookie-bearing text, proceeding
// inside-out to a fixed point (spec §4.3).
func Encode(t *cookie.Table, text string, debug DebugLog) string {
	text = reComment.ReplaceAllString(text, "")
	text, _ = replaceFunc(reNowiki, text, func(_ string, g []string) string {
		return t.Save(cookie.Nowiki, []string{g[1]}, false)
	})
	text = reNowikiSelfClose.ReplaceAllString(text, string(cookie.NowikiSentinel))

	for {
		prev := text
		text = encodeArgsAndLinks(t, text, debug)

		text, _ = replaceFunc(reTemplate, text, func(_ string, g []string) string {
			nowiki := hasNowiki(g[0])
			args := vbarSplit(g[1])
			return t.Save(cookie.Template, args, nowiki)
		})

		if text == prev {
			repaired, changed := replaceFunc(reTemplateMissingBrace, text, func(_ string, g []string) string {
				nowiki := hasNowiki(g[0])
				prefix := g[1]
				args := vbarSplit(g[2])
				if debug != nil {
					debug("heuristically added missing }} to template " + firstArgLabel(args))
				}
				return prefix + t.Save(cookie.Template, args, nowiki)
			})

			if changed && repaired != prev {
				text = repaired
				continue
			}
			break
		}
	}

	return text
}

// encodeArgsAndLinks is Step A of spec §4.3: links to a fixed point, a
// single external-link pass, a single template-argument pass, repeated
// until none of the three produce further change (with one missing-brace
// repair attempt for arguments at the end).
func encodeArgsAndLinks(t *cookie.Table, text string, debug DebugLog) string {
	for {
		for {
			next, _ := replaceFunc(reLink, text, func(whole string, g []string) string {
				nowiki := hasNowiki(whole)
				args := vbarSplit(g[1])
				return t.Save(cookie.Link, args, nowiki)
			})
			if next == text {
				break
			}
			text = next
		}
		linkFixed := text

		text, _ = replaceFunc(reExtLink, text, func(whole string, g []string) string {
			nowiki := hasNowiki(whole)
			return t.Save(cookie.ExtLink, []string{g[1]}, nowiki)
		})

		text, _ = replaceFunc(reArgRef, text, func(whole string, g []string) string {
			nowiki := hasNowiki(whole)
			args := vbarSplit(g[1])
			return t.Save(cookie.ArgRef, args, nowiki)
		})

		if text == linkFixed {
			repaired, changed := replaceFunc(reArgRefMissingBrace, text, func(_ string, g []string) string {
				nowiki := hasNowiki(g[0])
				prefix := g[1]
				args := vbarSplit(g[2])
				if debug != nil {
					debug("heuristically added missing }} to template arg " + firstArgLabel(args))
				}
				return prefix + t.Save(cookie.ArgRef, args, nowiki)
			})
			text = repaired
			if !changed || text == linkFixed {
				return text
			}
		}
	}
}

func firstArgLabel(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}
