// Package templatebody implements the Template-Body Normalizer (spec §4.2,
// C2): a pure function from a raw template page's text to its transcluded
// form, grounded in original_source/wikimunge/cache.py's _get_template_body.
package templatebody

import "regexp"

var (
	reComment           = regexp.MustCompile(`(?s)<\s*!\s*--.*?--\s*>`)
	reClosedNoinclude   = regexp.MustCompile(`(?is)<\s*noinclude\s*>.*?<\s*/\s*noinclude\s*>`)
	reUnclosedNoinclude = regexp.MustCompile(`(?is)<\s*noinclude\s*>.*`)
	reTrailingComment   = regexp.MustCompile(`(?s)<!\s*--.*`)
	reOnlyInclude       = regexp.MustCompile(`(?is)<\s*onlyinclude\s*>(.*?)<\s*/\s*onlyinclude\s*>|<\s*onlyinclude\s*/\s*>`)
	reIncludeOnlyTag    = regexp.MustCompile(`(?is)<\s*(/\s*)?includeonly\s*(/\s*)?>`)
)

// Normalize converts raw template text into the normalized Body substituted
// at transclusion, in six ordered steps.
//
//  1. Remove <!-- ... --> comments.
//  2. Remove closed <noinclude>...</noinclude> spans.
//  3. Remove from the first unclosed <noinclude> to end of string.
//  4. Remove an unclosed trailing <!--.
//  5. If any <onlyinclude>...</onlyinclude> (or self-closing variant)
//     exists, replace the whole body with the concatenation of their
//     captured contents.
//  6. Remove <includeonly>/</includeonly> tags, keeping their content.
func Normalize(text string) string {
	text = reComment.ReplaceAllString(text, "")
	text = reClosedNoinclude.ReplaceAllString(text, "")
	text = reUnclosedNoinclude.ReplaceAllString(text, "")
	text = reTrailingComment.ReplaceAllString(text, "")

	if matches := reOnlyInclude.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		joined := ""
		for _, m := range matches {
			joined += m[1] // empty for the self-closing alternative
		}
		text = joined
	}

	return reIncludeOnlyTag.ReplaceAllString(text, "")
}
