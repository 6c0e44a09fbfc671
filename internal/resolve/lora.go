package resolve

import (
	"path"
	"strconv"
	"strings"

	"github.com/promptforge/prompt-extract-mcp/internal/workflow"
)

// Lora is the canonical adapter record produced by every loader family.
type Lora struct {
	// Name is the normalized, extension-stripped adapter name.
	Name string `json:"name"`
	// PathHint is the best-known file reference, possibly empty.
	PathHint string `json:"path,omitempty"`
	// ModelStrength weights the adapter on the base model.
	ModelStrength float64 `json:"model_strength"`
	// ClipStrength weights the adapter on the text encoder. Families
	// without a separate value default it to ModelStrength.
	ClipStrength float64 `json:"clip_strength"`
	// Active is false only for families with an explicit enable flag.
	Active bool `json:"active"`
}

// NormalizeLoraName strips any directory prefix and file extension and
// trims whitespace. Dedup and blacklist matching operate on this form.
func NormalizeLoraName(ref string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(ref), "\\", "/"))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// DecodeLoras turns a node's raw config into adapter records, dispatching
// on the node's kind family. Unknown kinds and short or malformed config
// arrays yield an empty list.
func DecodeLoras(n *workflow.Node, opts Options) []Lora {
	if n == nil {
		return nil
	}
	switch FamilyOf(n.Kind) {
	case FamilyLoaderEntries:
		return decodeEntryLoader(n.Config)
	case FamilyLoaderStackList:
		return decodeStackList(n.Config)
	case FamilyLoaderPairs:
		return decodePairs(n.Config, -1)
	case FamilyLoaderFixed:
		return decodePairs(n.Config, opts.FixedPairSlots)
	case FamilyLoaderSingle:
		return decodeSingleSlot(n.Config)
	}
	return nil
}

// decodeEntryLoader handles configs holding one record per entry:
// {"on": true, "lora": "path", "strength": 1.0, "strengthTwo": null}.
func decodeEntryLoader(cfg workflow.ConfigValues) []Lora {
	var out []Lora
	for _, v := range cfg {
		rec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		ref, _ := rec["lora"].(string)
		if ref == "" {
			continue
		}
		strength := coerceFloat(rec["strength"], 1.0)
		clip := strength
		if two, present := rec["strengthTwo"]; present && two != nil {
			clip = coerceFloat(two, strength)
		}
		active := true
		if on, ok := rec["on"].(bool); ok {
			active = on
		}
		out = append(out, Lora{
			Name:          NormalizeLoraName(ref),
			PathHint:      ref,
			ModelStrength: strength,
			ClipStrength:  clip,
			Active:        active,
		})
	}
	return out
}

// decodeStackList handles configs where one value is itself a list of
// records: [{"name": ..., "strength": ..., "clipStrength": ..., "active": ...}].
// Strengths may arrive as strings and are coerced.
func decodeStackList(cfg workflow.ConfigValues) []Lora {
	var out []Lora
	for _, v := range cfg {
		list, ok := v.([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			rec, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, _ := rec["name"].(string)
			if name == "" {
				continue
			}
			strength := coerceFloat(rec["strength"], 1.0)
			clip := strength
			if cs, present := rec["clipStrength"]; present && cs != nil {
				clip = coerceFloat(cs, strength)
			}
			active := true
			if a, ok := rec["active"].(bool); ok {
				active = a
			}
			out = append(out, Lora{
				Name:          NormalizeLoraName(name),
				ModelStrength: strength,
				ClipStrength:  clip,
				Active:        active,
			})
		}
	}
	return out
}

// decodePairs handles flat alternating (name, strength) sequences,
// optionally terminated by sentinel "none" entries and trailing flags.
// maxPairs < 0 means unbounded. All entries are active: this family has
// no enable concept.
func decodePairs(cfg workflow.ConfigValues, maxPairs int) []Lora {
	var out []Lora
	for i := 0; i+1 < len(cfg); i += 2 {
		if maxPairs >= 0 && len(out) >= maxPairs {
			break
		}
		name, ok := cfg[i].(string)
		if !ok {
			// Trailing flags end the pair sequence.
			break
		}
		trimmed := strings.TrimSpace(name)
		if trimmed == "" || strings.EqualFold(trimmed, "none") {
			continue
		}
		strength := coerceFloat(cfg[i+1], 1.0)
		out = append(out, Lora{
			Name:          NormalizeLoraName(trimmed),
			PathHint:      trimmed,
			ModelStrength: strength,
			ClipStrength:  strength,
			Active:        true,
		})
	}
	return out
}

// decodeSingleSlot handles the conventional loader layout
// [name, strength, clipStrength?]; always active.
func decodeSingleSlot(cfg workflow.ConfigValues) []Lora {
	if len(cfg) == 0 {
		return nil
	}
	name, _ := cfg[0].(string)
	if name == "" {
		return nil
	}
	strength := 1.0
	if len(cfg) >= 2 {
		strength = coerceFloat(cfg[1], 1.0)
	}
	clip := strength
	if len(cfg) >= 3 {
		clip = coerceFloat(cfg[2], strength)
	}
	return []Lora{{
		Name:          NormalizeLoraName(name),
		PathHint:      name,
		ModelStrength: strength,
		ClipStrength:  clip,
		Active:        true,
	}}
}

// coerceFloat converts numbers and numeric strings, falling back to def
// for anything uninterpretable. Found-but-unparseable strengths must
// degrade to a documented default, never to an error.
func coerceFloat(v any, def float64) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
	}
	return def
}
