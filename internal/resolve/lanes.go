package resolve

import (
	"regexp"
	"strings"
)

// Word matching treats underscores as separators, unlike \b, so a slot
// label like "model_high_noise" counts while "highlight" does not.
var (
	wholeWordHigh = regexp.MustCompile(`(?i)(^|[^a-z])high($|[^a-z])`)
	wholeWordLow  = regexp.MustCompile(`(?i)(^|[^a-z])low($|[^a-z])`)
)

// highNameTokens and lowNameTokens are the filename patterns counted in
// the majority vote. The single-letter forms cover the common _H/_L
// abbreviations.
var highNameTokens = []string{"_high", "-high", "high_", "_h"}
var lowNameTokens = []string{"_low", "-low", "low_", "_l"}

// classifyLanes buckets chains into the two output lanes. Priority per
// chain: whole-word high/low on the terminal slot label or any chain
// title; then a majority vote over adapter filename tokens; then
// position (first unresolved chain to A, second to B, the rest to A).
// Within a lane, adapters dedup first-wins by case-insensitive
// normalized name, and only active ones are retained.
func classifyLanes(chains []Chain, bl Blacklist) (laneA, laneB []Lora) {
	var a, b laneBuilder
	positional := 0

	for _, c := range chains {
		loras := bl.Filter(c.Loras)
		if len(loras) == 0 {
			continue
		}

		switch laneSignal(c) {
		case laneHigh:
			a.add(loras)
			continue
		case laneLow:
			b.add(loras)
			continue
		}

		switch vote(loras) {
		case laneHigh:
			a.add(loras)
			continue
		case laneLow:
			b.add(loras)
			continue
		}

		if positional == 1 {
			b.add(loras)
		} else {
			a.add(loras)
		}
		positional++
	}

	return a.active(), b.active()
}

type laneHint int

const (
	laneNone laneHint = iota
	laneHigh
	laneLow
)

// laneSignal checks the structural/lexical signal on the chain itself:
// the terminal's slot label and every node title, whole-word matched.
// A chain carrying both words is ambiguous and yields no signal.
func laneSignal(c Chain) laneHint {
	joined := c.TerminalLabel + " " + strings.Join(c.Titles, " ")
	hasHigh := wholeWordHigh.MatchString(joined)
	hasLow := wholeWordLow.MatchString(joined)
	switch {
	case hasHigh && !hasLow:
		return laneHigh
	case hasLow && !hasHigh:
		return laneLow
	}
	return laneNone
}

// vote counts high- against low-patterned adapter names; the side with
// strictly more votes wins. Blacklisted adapters were already filtered
// out before the count.
func vote(loras []Lora) laneHint {
	high, low := 0, 0
	for _, l := range loras {
		name := strings.ToLower(l.Name)
		if containsAny(name, highNameTokens) {
			high++
		}
		if containsAny(name, lowNameTokens) {
			low++
		}
	}
	switch {
	case high > low:
		return laneHigh
	case low > high:
		return laneLow
	}
	return laneNone
}

func containsAny(name string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(name, t) {
			return true
		}
	}
	return false
}

// laneBuilder accumulates a lane with first-wins dedup across chains.
// Dedup runs over all appended adapters, active or not, so an inactive
// first occurrence suppresses a later active duplicate; the inactive
// ones drop out at the end.
type laneBuilder struct {
	loras []Lora
	seen  map[string]bool
}

func (lb *laneBuilder) add(loras []Lora) {
	if lb.seen == nil {
		lb.seen = make(map[string]bool)
	}
	for _, l := range loras {
		key := strings.ToLower(l.Name)
		if key == "" || lb.seen[key] {
			continue
		}
		lb.seen[key] = true
		lb.loras = append(lb.loras, l)
	}
}

// active returns the lane's retained adapters.
func (lb *laneBuilder) active() []Lora {
	var out []Lora
	for _, l := range lb.loras {
		if l.Active {
			out = append(out, l)
		}
	}
	return out
}
