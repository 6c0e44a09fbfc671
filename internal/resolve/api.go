package resolve

import (
	"encoding/json"
	"sort"
	"strings"
)

// APINode is one entry of an API-format document, keyed by node id.
// API documents carry no link table, so resolution reads input values
// directly instead of walking producers.
type APINode struct {
	ClassType string         `json:"class_type"`
	Inputs    map[string]any `json:"inputs"`
}

// APIDocument maps node id to node. Ids stay strings because API
// documents use them only as map keys.
type APIDocument map[string]APINode

// ParseAPIDocument decodes an API-format document. A document
// qualifies when at least one value carries a class_type. Returns
// nil when the data is not API-shaped.
func ParseAPIDocument(data []byte) APIDocument {
	var doc APIDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	for _, n := range doc {
		if n.ClassType != "" {
			return doc
		}
	}
	return nil
}

var apiEncoderKinds = map[string]bool{
	"CLIPTextEncode":        true,
	"CLIPTextEncodeSDXL":    true,
	"CLIPTextEncodeFlux":    true,
	"PromptManager":         true,
	"PromptManagerAdvanced": true,
}

var apiLoaderKinds = map[string]bool{
	"LoraLoader":          true,
	"LoraLoaderModelOnly": true,
}

// ResolveAPI resolves an API-format document. Encoder and prompt
// manager text feeds the positive prompt; loader inputs feed lane A.
// Node ids are visited in sorted order so serialization order never
// changes the result.
func ResolveAPI(doc APIDocument, opts Options) Result {
	ids := make([]string, 0, len(doc))
	for id := range doc {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var positive []string
	var laneA []Lora
	seen := map[string]bool{}

	for _, id := range ids {
		n := doc[id]
		switch {
		case apiEncoderKinds[n.ClassType]:
			if text, ok := n.Inputs["text"].(string); ok && text != "" {
				positive = append(positive, strings.TrimSpace(text))
			}
		case apiLoaderKinds[n.ClassType]:
			name, ok := n.Inputs["lora_name"].(string)
			if !ok || name == "" || seen[strings.ToLower(name)] {
				continue
			}
			seen[strings.ToLower(name)] = true
			if opts.Blacklist.Matches(NormalizeLoraName(name)) {
				continue
			}
			model := coerceFloat(n.Inputs["strength_model"], coerceFloat(n.Inputs["strength"], 1.0))
			laneA = append(laneA, Lora{
				Name:          NormalizeLoraName(name),
				PathHint:      name,
				ModelStrength: model,
				ClipStrength:  coerceFloat(n.Inputs["strength_clip"], model),
				Active:        true,
			})
		}
	}

	res := Result{PositiveText: strings.Join(positive, ", "), LaneA: laneA}
	res.LaneA, res.PositiveText, res.NegativeText = mergeInline(res.LaneA, res.PositiveText, res.NegativeText, opts.Blacklist)
	return res
}
