package parserfn

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/frame"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/parserfn/wikiexpr"
)

func registerBuiltins(d *Dispatcher) {
	d.Register("#if", hashIf)
	d.Register("#ifeq", hashIfeq)
	d.Register("#switch", hashSwitch)
	d.Register("#ifexpr", hashIfexpr)
	d.Register("#expr", hashExpr)
	d.Register("#time", hashTime)
	d.Register("#tag", hashTag)
	d.Register("lc", func(ctx *Context, args []string, p *frame.Frame, e frame.ExpandFunc) string {
		return strings.ToLower(arg(args, 0, e))
	})
	d.Register("uc", func(ctx *Context, args []string, p *frame.Frame, e frame.ExpandFunc) string {
		return strings.ToUpper(arg(args, 0, e))
	})
	d.Register("ucfirst", func(ctx *Context, args []string, p *frame.Frame, e frame.ExpandFunc) string {
		return ucfirst(arg(args, 0, e))
	})
	d.Register("lcfirst", func(ctx *Context, args []string, p *frame.Frame, e frame.ExpandFunc) string {
		return lcfirst(arg(args, 0, e))
	})
	d.Register("padleft", hashPad(true))
	d.Register("padright", hashPad(false))
	d.Register("urlencode", hashURLEncode)
	d.Register("anchorencode", hashAnchorEncode)
	d.Register("ns", hashNS)
	d.Register("namespace", hashNamespace)
	d.Register("fullpagename", func(ctx *Context, args []string, p *frame.Frame, e frame.ExpandFunc) string {
		if ctx.FullPageName != nil {
			return ctx.FullPageName()
		}
		return ctx.Title
	})
	d.Register("pagename", func(ctx *Context, args []string, p *frame.Frame, e frame.ExpandFunc) string {
		if ctx.PageName != nil {
			return ctx.PageName()
		}
		return ctx.Title
	})
	d.Register("subpagename", func(ctx *Context, args []string, p *frame.Frame, e frame.ExpandFunc) string {
		if ctx.SubPageName != nil {
			return ctx.SubPageName()
		}
		return ctx.Title
	})
	d.Register("formatnum", hashFormatNum)
	d.Register("plural", hashPlural)
	d.Register("#titleparts", hashTitleParts)
	d.Register("len", func(ctx *Context, args []string, p *frame.Frame, e frame.ExpandFunc) string {
		return strconv.Itoa(len([]rune(arg(args, 0, e))))
	})
	d.Register("pos", hashPos)
	d.Register("#sub", hashSub)
	d.Register("replace", hashReplace)
	d.Register("#explode", hashExplode)
	d.Register("#invoke", hashInvoke)
}

// arg expands args[i] through expand if present, else returns "".
func arg(args []string, i int, expand frame.ExpandFunc) string {
	if i >= len(args) {
		return ""
	}
	return expand(args[i])
}

func rawArg(args []string, i int) string {
	if i >= len(args) {
		return ""
	}
	return args[i]
}

func ucfirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func lcfirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToLower(string(r[0])) + string(r[1:])
}

// hashIf implements {{#if: cond | then | else }} (spec S3/S4): only the
// taken branch is expanded, matching the short-circuit contract handlers
// receive the lazy expand closure for.
func hashIf(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	cond := strings.TrimSpace(arg(args, 0, expand))
	if cond != "" {
		return strings.TrimSpace(arg(args, 1, expand))
	}
	return strings.TrimSpace(arg(args, 2, expand))
}

func hashIfeq(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	a := strings.TrimSpace(arg(args, 0, expand))
	b := strings.TrimSpace(arg(args, 1, expand))
	if a == b {
		return arg(args, 2, expand)
	}
	return arg(args, 3, expand)
}

// hashSwitch implements {{#switch: val | case1 = r1 | case2 = r2 | default }}.
// Cases are matched in order; a bare "| default" (no '=') with no matching
// case becomes the fallback. Only the matched branch's value is expanded.
func hashSwitch(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	if len(args) == 0 {
		return ""
	}
	target := strings.TrimSpace(expand(args[0]))

	var defaultVal string
	haveDefault := false
	matched := false

	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		raw := rest[i]
		key, val, hasEq := strings.Cut(raw, "=")
		if !hasEq {
			// bare value with no following case acts as the unconditional
			// default if it's the last entry; otherwise it is an
			// alternative for the next case ("| a | b = result").
			if i == len(rest)-1 {
				defaultVal = raw
				haveDefault = true
			} else if strings.TrimSpace(expand(raw)) == target {
				matched = true
			}
			continue
		}

		if matched || strings.TrimSpace(expand(key)) == target {
			return expand(val)
		}

		if strings.TrimSpace(key) == "#default" {
			defaultVal = val
			haveDefault = true
		}
	}

	if haveDefault {
		return expand(defaultVal)
	}
	return ""
}

func hashExpr(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	text := arg(args, 0, expand)
	v, err := wikiexpr.Eval(text)
	if err != nil {
		if ctx.Log != nil {
			ctx.Log("ERROR", "#expr: "+err.Error())
		}
		return "<strong class='error'>Expression error: " + err.Error() + "</strong>"
	}
	return v
}

func hashIfexpr(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	text := arg(args, 0, expand)
	truthy, err := wikiexpr.Truthy(text)
	if err != nil {
		if ctx.Log != nil {
			ctx.Log("ERROR", "#ifexpr: "+err.Error())
		}
		return "<strong class='error'>Expression error: " + err.Error() + "</strong>"
	}
	if truthy {
		return arg(args, 1, expand)
	}
	return arg(args, 2, expand)
}

// mwTimeCodes maps a subset of MediaWiki's #time format letters to Go's
// reference-time layout, covering the codes template dates commonly use.
var mwTimeCodes = map[byte]string{
	'Y': "2006", 'y': "06",
	'm': "01", 'n': "1",
	'd': "02", 'j': "2",
	'H': "15", 'G': "15",
	'i': "04", 's': "05",
	'M': "Jan", 'F': "January",
	'D': "Mon", 'l': "Monday",
}

func hashTime(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	format := arg(args, 0, expand)
	var t time.Time
	if src := strings.TrimSpace(arg(args, 1, expand)); src != "" {
		parsed, err := time.Parse("2006-01-02T15:04:05Z", src)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", src)
		}
		if err != nil {
			if ctx.Log != nil {
				ctx.Log("ERROR", "#time: unparseable date "+src)
			}
			return "<strong class='error'>Invalid time.</strong>"
		}
		t = parsed
	} else {
		t = time.Now().UTC()
	}

	var out strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c == '\\' && i+1 < len(format) {
			out.WriteByte(format[i+1])
			i++
			continue
		}
		if layout, ok := mwTimeCodes[c]; ok {
			out.WriteString(t.Format(layout))
			continue
		}
		out.WriteByte(c)
	}
	return out.String()
}

// hashTag implements {{#tag:name|content|attr=val|...}}.
func hashTag(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	if len(args) == 0 {
		return ""
	}
	name := strings.TrimSpace(expand(args[0]))
	content := ""
	if len(args) > 1 {
		content = expand(args[1])
	}

	var attrs strings.Builder
	for _, raw := range args[2:] {
		k, v, ok := strings.Cut(raw, "=")
		if !ok {
			continue
		}
		fmt.Fprintf(&attrs, " %s=%q", strings.TrimSpace(expand(k)), expand(v))
	}

	if content == "" {
		return fmt.Sprintf("<%s%s />", name, attrs.String())
	}
	return fmt.Sprintf("<%s%s>%s</%s>", name, attrs.String(), content, name)
}

func hashPad(left bool) Handler {
	return func(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
		s := arg(args, 0, expand)
		n, _ := strconv.Atoi(strings.TrimSpace(arg(args, 1, expand)))
		pad := " "
		if v := arg(args, 2, expand); v != "" {
			pad = v
		}
		r := []rune(s)
		if n <= len(r) || pad == "" {
			return s
		}
		need := n - len(r)
		var fill strings.Builder
		for fill.Len() == 0 || len([]rune(fill.String())) < need {
			fill.WriteString(pad)
		}
		fillRunes := []rune(fill.String())[:need]
		if left {
			return string(fillRunes) + s
		}
		return s + string(fillRunes)
	}
}

func hashURLEncode(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	s := arg(args, 0, expand)
	var out strings.Builder
	for _, b := range []byte(s) {
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9', b == '-' || b == '_' || b == '.':
			out.WriteByte(b)
		case b == ' ':
			out.WriteByte('+')
		default:
			fmt.Fprintf(&out, "%%%02X", b)
		}
	}
	return out.String()
}

func hashAnchorEncode(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	s := arg(args, 0, expand)
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}

func hashNS(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	if ctx.NamespaceOf == nil {
		return ""
	}
	return ctx.NamespaceOf(strings.TrimSpace(arg(args, 0, expand)))
}

func hashNamespace(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	if ctx.NamespaceOf == nil {
		return ""
	}
	title := ctx.Title
	if len(args) > 0 {
		title = arg(args, 0, expand)
	}
	return ctx.NamespaceOf(title)
}

// hashFormatNum adds thousands separators to an integer/decimal string.
func hashFormatNum(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	s := strings.TrimSpace(arg(args, 0, expand))
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var out []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	result := string(out)
	if hasFrac {
		result += "." + frac
	}
	if neg {
		result = "-" + result
	}
	return result
}

func hashPlural(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	n, _ := strconv.Atoi(strings.TrimSpace(arg(args, 0, expand)))
	if n == 1 {
		return arg(args, 1, expand)
	}
	if len(args) > 2 {
		return arg(args, 2, expand)
	}
	return arg(args, 1, expand) + "s"
}

// hashTitleParts implements {{#titleparts:title|count|start}}.
func hashTitleParts(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	title := arg(args, 0, expand)
	parts := strings.Split(title, "/")

	count := len(parts)
	if v := strings.TrimSpace(arg(args, 1, expand)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n != 0 {
			count = n
		}
	}
	start := 1
	if v := strings.TrimSpace(arg(args, 2, expand)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			start = n
		}
	}
	if start < 1 {
		start = 1
	}

	from := start - 1
	if from > len(parts) {
		from = len(parts)
	}
	to := from + count
	if count < 0 {
		to = len(parts) + count
	}
	if to > len(parts) {
		to = len(parts)
	}
	if to < from {
		to = from
	}
	return strings.Join(parts[from:to], "/")
}

func hashPos(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	s := arg(args, 0, expand)
	needle := arg(args, 1, expand)
	offset := 0
	if v := strings.TrimSpace(arg(args, 2, expand)); v != "" {
		offset, _ = strconv.Atoi(v)
	}
	r := []rune(s)
	if offset < 0 || offset > len(r) {
		return ""
	}
	idx := strings.Index(string(r[offset:]), needle)
	if idx < 0 {
		return ""
	}
	return strconv.Itoa(offset + len([]rune(string(r[offset:])[:idx])))
}

// hashSub implements {{#sub:string|start|length}} with Python-style
// negative indices.
func hashSub(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	s := []rune(arg(args, 0, expand))
	n := len(s)

	start := 0
	if v := strings.TrimSpace(arg(args, 1, expand)); v != "" {
		start, _ = strconv.Atoi(v)
	}
	if start < 0 {
		start = n + start
	}
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}

	end := n
	if v := strings.TrimSpace(arg(args, 2, expand)); v != "" {
		length, _ := strconv.Atoi(v)
		if length < 0 {
			end = n + length
		} else {
			end = start + length
		}
	}
	if end > n {
		end = n
	}
	if end < start {
		end = start
	}
	return string(s[start:end])
}

func hashReplace(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	s := arg(args, 0, expand)
	from := arg(args, 1, expand)
	to := arg(args, 2, expand)
	if from == "" {
		return s
	}
	return strings.ReplaceAll(s, from, to)
}

// hashExplode implements {{#explode:string|delimiter|position|limit}}: split
// on delimiter (capped at limit pieces, the final piece holding the
// remainder), then return the piece at position (negative counts from the
// end).
func hashExplode(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	s := arg(args, 0, expand)
	delim := arg(args, 1, expand)
	if delim == "" {
		return s
	}

	limit := -1
	if v := strings.TrimSpace(arg(args, 3, expand)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	var parts []string
	if limit > 0 {
		parts = strings.SplitN(s, delim, limit)
	} else {
		parts = strings.Split(s, delim)
	}

	idx := 0
	if v := strings.TrimSpace(arg(args, 2, expand)); v != "" {
		idx, _ = strconv.Atoi(v)
	}
	if idx < 0 {
		idx = len(parts) + idx
	}
	if idx < 0 || idx >= len(parts) {
		return ""
	}
	return parts[idx]
}

// hashInvoke dispatches #invoke to the Lua sandbox collaborator injected
// into ctx.Invoke (spec §4.5, §6); arguments are passed unexpanded, as Lua
// modules decide their own argument-evaluation order via frame access.
func hashInvoke(ctx *Context, args []string, p *frame.Frame, expand frame.ExpandFunc) string {
	if ctx.Invoke == nil {
		return "<strong class='error'>Lua module invocation not available</strong>"
	}
	out, err := ctx.Invoke(args, p, 10*time.Second)
	if err != nil {
		if ctx.Log != nil {
			ctx.Log("WARNING", "#invoke: "+err.Error())
		}
		return "<strong class='error'>" + err.Error() + "</strong>"
	}
	return out
}
