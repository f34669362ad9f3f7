// Package finalize implements the Finalizer (C6, spec §4.6): re-serializes
// any cookies that survived expansion back to literal wiki syntax and
// replaces the nowiki sentinel with a literal <nowiki />, grounded in
// original_source/wikimunge/expander.py's finalize_expand.
package finalize

import (
	"strings"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/cookie"
)

// Logger receives a diagnostic when an unknown cookie kind is encountered;
// this should not happen in practice since Kind is a closed enum, but the
// spec requires the error to be logged rather than panicking.
type Logger func(kind, msg string)

// Finalize iterates over the cookie range until no cookie remains, then
// replaces the nowiki sentinel with a literal "<nowiki />" (spec §4.6).
func Finalize(t *cookie.Table, text string, log Logger) string {
	for {
		prev := text
		text = finalizePass(t, text, log)
		if text == prev {
			break
		}
	}
	return strings.ReplaceAll(text, string(cookie.NowikiSentinel), "<nowiki />")
}

func finalizePass(t *cookie.Table, text string, log Logger) string {
	var out strings.Builder
	for _, ch := range text {
		idx, ok := cookie.IndexOf(ch)
		if !ok || !t.Has(idx) {
			out.WriteRune(ch)
			continue
		}

		c := t.Load(idx)
		switch c.Kind {
		case cookie.Template:
			out.WriteString(renderTemplate(c.Args, c.Nowiki))
		case cookie.ArgRef:
			out.WriteString(renderArg(c.Args, c.Nowiki))
		case cookie.Link:
			out.WriteString(renderLink(c.Args, c.Nowiki))
		case cookie.ExtLink:
			out.WriteString(renderExtLink(c.Args, c.Nowiki))
		case cookie.Nowiki:
			body := ""
			if len(c.Args) > 0 {
				body = c.Args[0]
			}
			out.WriteString("<nowiki>" + body + "</nowiki>")
		default:
			if log != nil {
				log("ERROR", "finalize: unsupported cookie kind "+c.Kind.String())
			}
		}
	}
	return out.String()
}

func renderTemplate(args []string, nowiki bool) string {
	if nowiki {
		return "&lbrace;&lbrace;" + strings.Join(args, "&vert;") + "&rbrace;&rbrace;"
	}
	return "{{" + strings.Join(args, "|") + "}}"
}

func renderArg(args []string, nowiki bool) string {
	if nowiki {
		return "&lbrace;&lbrace;&lbrace;" + strings.Join(args, "&vert;") + "&rbrace;&rbrace;&rbrace;"
	}
	return "{{{" + strings.Join(args, "|") + "}}}"
}

func renderLink(args []string, nowiki bool) string {
	if nowiki {
		return "&lsqb;&lsqb;" + strings.Join(args, "&vert;") + "&rsqb;&rsqb;"
	}
	return "[[" + strings.Join(args, "|") + "]]"
}

func renderExtLink(args []string, nowiki bool) string {
	if nowiki {
		return "&lsqb;" + strings.Join(args, "&vert;") + "&rsqb;"
	}
	return "[" + strings.Join(args, "|") + "]"
}
