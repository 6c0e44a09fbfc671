package resolve

import (
	"strings"

	"github.com/promptforge/prompt-extract-mcp/internal/workflow"
)

// resolveText finds the literal text flowing into a node, following
// producer chains backward through concatenation, rewrite, and
// pass-through kinds. It never fails: cycles, exhausted depth, and
// missing producers all resolve to "".
func (r *Resolver) resolveText(id workflow.ID, visited map[workflow.ID]bool, depth int) string {
	if visited[id] || depth <= 0 {
		return ""
	}
	visited[id] = true

	n := r.index.Node(id)
	if n == nil {
		return ""
	}

	switch FamilyOf(n.Kind) {
	case FamilyLiteralText:
		return strings.TrimSpace(n.Config.FirstString())

	case FamilyPromptEncoder:
		// A baked-in literal wins over a wired input, length-gated so a
		// throwaway short string does not shadow the real producer. A
		// short literal still surfaces when traversal finds nothing.
		for _, v := range n.Config {
			if s, ok := v.(string); ok && len(s) > r.opts.EncoderLiteralMin {
				return strings.TrimSpace(s)
			}
		}
		if ref, ok := r.index.FollowInput(id, workflow.SlotNamed("text")); ok {
			if text := r.resolveText(ref.NodeID, visited, depth-1); text != "" {
				return text
			}
		}
		return strings.TrimSpace(n.Config.FirstString())

	case FamilyConcat:
		return r.resolveConcat(n, visited, depth)

	case FamilyPassThrough:
		if ref, ok := r.index.FollowInput(id, passThroughSlot); ok {
			return r.resolveText(ref.NodeID, visited, depth-1)
		}
		return ""

	case FamilyCaption:
		// No producer to traverse; a cached caption may sit in config.
		for _, v := range n.Config {
			if s, ok := v.(string); ok && len(s) > r.opts.LongLiteralMin {
				return strings.TrimSpace(s)
			}
		}
		return ""
	}

	// Fallback: any long literal in config, then the first linked input
	// whose name suggests text.
	for _, v := range n.Config {
		if s, ok := v.(string); ok && len(s) > r.opts.LongLiteralMin {
			return strings.TrimSpace(s)
		}
	}
	if ref, ok := r.index.FollowInput(id, textLikeSlot); ok {
		return r.resolveText(ref.NodeID, visited, depth-1)
	}
	return ""
}

// resolveConcat joins the designated operand inputs of a concatenation
// node. Each operand recurses with an independent copy of the visited
// set so siblings cannot poison each other's cycle guard.
func (r *Resolver) resolveConcat(n *workflow.Node, visited map[workflow.ID]bool, depth int) string {
	delimiter := " "
	for _, v := range n.Config {
		if s, ok := v.(string); ok && len(s) <= r.opts.DelimiterMax {
			delimiter = s
			break
		}
	}

	var parts []string
	for _, in := range n.Inputs {
		if !concatOperandSlot(in) || in.Link == nil {
			continue
		}
		l, ok := r.index.Links[*in.Link]
		if !ok {
			continue
		}
		part := r.resolveText(l.SourceNode, copyVisited(visited), depth-1)
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, delimiter)
}

// concatOperandSlot matches the conventional paired operand names of
// concatenation kinds.
func concatOperandSlot(in workflow.InputSlot) bool {
	switch in.Name {
	case "string_a", "string_b", "text_a", "text_b", "first", "second":
		return true
	}
	return false
}

// passThroughSlot matches the single relevant input of rewrite and
// show-text kinds; show-text variants declare an unnamed anything slot,
// so an empty predicate match falls through to any linked slot.
func passThroughSlot(in workflow.InputSlot) bool {
	switch in.Name {
	case "text", "string", "input", "anything", "":
		return true
	}
	return false
}

// textLikeSlot matches inputs whose name contains a text-ish token.
func textLikeSlot(in workflow.InputSlot) bool {
	name := strings.ToLower(in.Name)
	return strings.Contains(name, "text") ||
		strings.Contains(name, "string") ||
		strings.Contains(name, "prompt")
}

func copyVisited(visited map[workflow.ID]bool) map[workflow.ID]bool {
	cp := make(map[workflow.ID]bool, len(visited))
	for id := range visited {
		cp[id] = true
	}
	return cp
}

// Polarity classifies a prompt source as positive or negative.
type Polarity int

const (
	Positive Polarity = iota
	Negative
)

// polarityOf decides a prompt source's polarity. The consumer's slot
// naming is authoritative: any link from this node landing on an input
// slot named "positive"/"negative" decides it. The node's own title is
// the fallback; absent both signals the node is positive.
func (r *Resolver) polarityOf(n *workflow.Node) Polarity {
	for _, l := range r.index.LinksFrom(n.ID) {
		dest := r.index.Node(l.DestNode)
		if dest == nil || l.DestSlot < 0 || l.DestSlot >= len(dest.Inputs) {
			continue
		}
		slot := dest.Inputs[l.DestSlot]
		label := strings.ToLower(slot.Name + " " + slot.Label)
		if strings.Contains(label, "negative") {
			return Negative
		}
		if strings.Contains(label, "positive") {
			return Positive
		}
	}
	if strings.Contains(strings.ToLower(n.Title), "negative") {
		return Negative
	}
	return Positive
}
