package resolve

import (
	"regexp"
	"strings"
)

// loraTagRe matches the inline adapter-reference syntax embedded in
// prompt text: <lora:name:strength> or <lora:name:strength:clipStrength>.
var loraTagRe = regexp.MustCompile(`<lora:([^:>]+):([^:>]+)(?::([^>]+))?>`)

var spaceRunRe = regexp.MustCompile(`\s+`)

// ExtractInlineLoras parses inline adapter references out of resolved
// text. It returns the referenced adapters in match order and the text
// with all matched spans removed and surrounding whitespace collapsed
// to single spaces. Strength defaults to 1.0 and clip strength to the
// model strength when omitted or unparseable.
func ExtractInlineLoras(text string) ([]Lora, string) {
	var loras []Lora
	for _, m := range loraTagRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		strength := coerceFloat(m[2], 1.0)
		clip := strength
		if m[3] != "" {
			clip = coerceFloat(m[3], strength)
		}
		loras = append(loras, Lora{
			Name:          name,
			ModelStrength: strength,
			ClipStrength:  clip,
			Active:        true,
		})
	}
	return loras, StripInlineLoras(text)
}

// StripInlineLoras removes inline adapter references from text and
// collapses the leftover whitespace.
func StripInlineLoras(text string) string {
	cleaned := loraTagRe.ReplaceAllString(text, "")
	cleaned = spaceRunRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
