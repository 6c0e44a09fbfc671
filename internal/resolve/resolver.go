// Package resolve reconstructs the effective prompts and adapter stacks
// of a serialized workflow graph by structural inference: backward
// traversal from consumers, per-kind config decoding, and a priority
// chain of lane heuristics. The whole package is a pure computation over
// an immutable document; it performs no I/O and returns no errors —
// anything unresolvable degrades to empty output.
package resolve

import (
	"strings"

	"github.com/promptforge/prompt-extract-mcp/internal/workflow"
)

// Result is the full outcome of one resolution call. It is recomputed
// from scratch on every call and never mutated in place.
type Result struct {
	PositiveText string `json:"positive"`
	NegativeText string `json:"negative"`
	LaneA        []Lora `json:"lane_a"`
	LaneB        []Lora `json:"lane_b"`
}

// Resolver binds a built index to one set of options. A Resolver is
// read-only after construction; concurrent Resolve calls are safe since
// each call owns its visited sets.
type Resolver struct {
	index *workflow.Index
	opts  Options
}

// New builds a Resolver over a document.
func New(doc *workflow.Document, opts Options) *Resolver {
	return &Resolver{index: workflow.BuildIndex(doc), opts: opts}
}

// Resolve computes the Resolution Result for the document. Nodes are
// visited in ascending id order so the output is invariant under
// reordering of the serialized node/link arrays.
func (r *Resolver) Resolve() *Result {
	var positives, negatives []string

	for _, id := range r.index.SortedNodeIDs() {
		n := r.index.Node(id)
		if n == nil || !r.isPromptSource(n) {
			continue
		}
		text := r.resolveText(id, make(map[workflow.ID]bool), r.opts.MaxTextDepth)
		if text == "" {
			continue
		}
		if r.polarityOf(n) == Negative {
			negatives = append(negatives, text)
		} else {
			positives = append(positives, text)
		}
	}

	chains := r.collectChains()
	laneA, laneB := classifyLanes(chains, r.opts.Blacklist)

	positive := strings.Join(positives, ", ")
	negative := strings.Join(negatives, ", ")
	laneA, positive, negative = mergeInline(laneA, positive, negative, r.opts.Blacklist)

	return &Result{
		PositiveText: positive,
		NegativeText: negative,
		LaneA:        laneA,
		LaneB:        laneB,
	}
}

// isPromptSource decides whether a node contributes resolved text
// directly. Encoders always do. Managers and literal-text nodes count
// only when nothing consumes their text output, otherwise the consuming
// encoder chain would surface the same text twice. Literal-text nodes
// are additionally gated on length: a short standalone string is a
// utility value (a filename prefix, a delimiter), not a prompt, though
// traversal still reads short literals when a text chain reaches them.
func (r *Resolver) isPromptSource(n *workflow.Node) bool {
	switch FamilyOf(n.Kind) {
	case FamilyPromptEncoder:
		return true
	case FamilyPromptManager:
		return !r.feedsTextChain(n)
	case FamilyLiteralText:
		if len(strings.TrimSpace(n.Config.FirstString())) <= r.opts.LongLiteralMin {
			return false
		}
		return !r.feedsTextChain(n)
	}
	return false
}

// feedsTextChain reports whether any output link of the node lands on a
// kind that itself resolves text, meaning this node's value will be
// reached by traversal instead.
func (r *Resolver) feedsTextChain(n *workflow.Node) bool {
	for _, l := range r.index.LinksFrom(n.ID) {
		dest := r.index.Node(l.DestNode)
		if dest == nil {
			continue
		}
		switch FamilyOf(dest.Kind) {
		case FamilyPromptEncoder, FamilyConcat, FamilyPassThrough, FamilyPromptManager:
			return true
		}
	}
	return false
}

// mergeInline extracts inline adapter references from both resolved
// texts, appends them to lane A behind the blacklist and a dedup
// against lane A, and strips the syntax from the texts.
func mergeInline(laneA []Lora, positive, negative string, bl Blacklist) ([]Lora, string, string) {
	seen := make(map[string]bool, len(laneA))
	for _, l := range laneA {
		seen[strings.ToLower(l.Name)] = true
	}

	for _, text := range []string{positive, negative} {
		inline, _ := ExtractInlineLoras(text)
		for _, l := range inline {
			key := strings.ToLower(l.Name)
			if seen[key] || bl.Matches(l.Name) {
				continue
			}
			seen[key] = true
			laneA = append(laneA, l)
		}
	}

	return laneA, StripInlineLoras(positive), StripInlineLoras(negative)
}
