package resolve

import "strings"

// Blacklist excludes adapters by normalized-name match. Each entry is a
// group of keywords that must all match (AND); a single-keyword group is
// the common case. Matching is a case-insensitive substring test.
type Blacklist [][]string

// NewBlacklist builds a blacklist from mixed entries: a string is a
// single keyword, a []string (or []any of strings) is an AND group.
// Empty keywords and empty groups are dropped.
func NewBlacklist(entries []any) Blacklist {
	var bl Blacklist
	for _, e := range entries {
		switch v := e.(type) {
		case string:
			if kw := strings.TrimSpace(v); kw != "" {
				bl = append(bl, []string{strings.ToLower(kw)})
			}
		case []string:
			if group := cleanGroup(v); len(group) > 0 {
				bl = append(bl, group)
			}
		case []any:
			var raw []string
			for _, g := range v {
				if s, ok := g.(string); ok {
					raw = append(raw, s)
				}
			}
			if group := cleanGroup(raw); len(group) > 0 {
				bl = append(bl, group)
			}
		}
	}
	return bl
}

func cleanGroup(raw []string) []string {
	var group []string
	for _, kw := range raw {
		if kw = strings.TrimSpace(kw); kw != "" {
			group = append(group, strings.ToLower(kw))
		}
	}
	return group
}

// Matches reports whether the normalized adapter name hits any entry.
func (bl Blacklist) Matches(name string) bool {
	if len(bl) == 0 {
		return false
	}
	lower := strings.ToLower(name)
	for _, group := range bl {
		all := true
		for _, kw := range group {
			if !strings.Contains(lower, kw) {
				all = false
				break
			}
		}
		if all && len(group) > 0 {
			return true
		}
	}
	return false
}

// Filter drops blacklisted adapters. Runs before lane assignment so
// excluded adapters neither land in a lane nor sway the majority vote.
func (bl Blacklist) Filter(loras []Lora) []Lora {
	if len(bl) == 0 {
		return loras
	}
	out := loras[:0:0]
	for _, l := range loras {
		if !bl.Matches(l.Name) {
			out = append(out, l)
		}
	}
	return out
}
