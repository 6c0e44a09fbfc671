package loradir

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// wanTokens are model-variant markers commonly dropped or added when
// adapters get renamed. Longer tokens come first so a broad token never
// eats part of a narrow one.
var wanTokens = []string{"wan_2_2", "wan22", "wan2.2", "20epoc", "a14b", "14b", "i2v", "t2v"}

var (
	parenRe    = regexp.MustCompile(`\s*\([^)]*\)`)
	partSepRe  = regexp.MustCompile(`[_-]`)
	wanTokenRe = make(map[string]*regexp.Regexp, len(wanTokens))
)

func init() {
	for _, t := range wanTokens {
		wanTokenRe[t] = regexp.MustCompile(`(?:^|[_-])` + regexp.QuoteMeta(t) + `(?:[_-]|$)`)
	}
}

// nameParts normalizes an adapter name for fuzzy comparison: lowercase,
// parenthesized suffixes removed, variant tokens removed at separator
// boundaries, then split on separators.
func nameParts(name string) []string {
	lower := parenRe.ReplaceAllString(strings.ToLower(name), "")
	for _, t := range wanTokens {
		lower = wanTokenRe[t].ReplaceAllString(lower, "_")
	}
	var parts []string
	for _, p := range partSepRe.Split(lower, -1) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func partSet(parts []string) map[string]bool {
	set := make(map[string]bool, len(parts))
	for _, p := range parts {
		set[p] = true
	}
	return set
}

type fuzzyCandidate struct {
	file  string
	base  string
	extra int
}

// fuzzyMatch finds files whose normalized token set contains every
// token of the wanted name. Among multiple hits, a file sharing the
// name's i2v/t2v marker is preferred, then the fewest surplus tokens.
func (l *Library) fuzzyMatch(name string) (string, bool) {
	want := partSet(nameParts(strings.TrimSuffix(name, filepath.Ext(name))))
	if len(want) == 0 {
		return "", false
	}

	var candidates []fuzzyCandidate
	for _, f := range l.files {
		base := baseName(f)
		have := partSet(nameParts(base))
		if !subset(want, have) {
			continue
		}
		candidates = append(candidates, fuzzyCandidate{file: f, base: base, extra: len(have) - countShared(want, have)})
	}
	if len(candidates) == 0 {
		return "", false
	}
	if len(candidates) == 1 {
		return candidates[0].file, true
	}

	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "i2v"):
		candidates = preferMarker(candidates, "i2v")
	case strings.Contains(lower, "t2v"):
		candidates = preferMarker(candidates, "t2v")
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].extra < candidates[j].extra
	})
	return candidates[0].file, true
}

func subset(want, have map[string]bool) bool {
	for p := range want {
		if !have[p] {
			return false
		}
	}
	return true
}

func countShared(want, have map[string]bool) int {
	n := 0
	for p := range want {
		if have[p] {
			n++
		}
	}
	return n
}

func preferMarker(candidates []fuzzyCandidate, marker string) []fuzzyCandidate {
	var marked []fuzzyCandidate
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.base), marker) {
			marked = append(marked, c)
		}
	}
	if len(marked) > 0 {
		return marked
	}
	return candidates
}
