package resolve

import (
	"sort"

	"github.com/promptforge/prompt-extract-mcp/internal/workflow"
)

// Chain is the aggregate collected by one backward walk from a terminal:
// every adapter found along the connected chain, the node titles
// encountered, and metadata used only for lane classification.
type Chain struct {
	Loras         []Lora
	Titles        []string
	TerminalLabel string
	SortKey       workflow.ID
}

// modelConnectionSlot matches input slots wired into a model or
// adapter-stack chain, by declared name or declared type.
func modelConnectionSlot(in workflow.InputSlot) bool {
	return isModelSlotName(in.Name) || isModelSlotType(in.Type)
}

// collectChain walks backward from a node, gathering adapters from every
// loader encountered along connected model/stack inputs. Node kind is
// irrelevant except at the loaders themselves: any number of
// pass-through or unrelated nodes may sit between a loader and its
// terminal. A loader with no live model-typed output contributes nothing
// even when reachable.
func (r *Resolver) collectChain(id workflow.ID, visited map[workflow.ID]bool) ([]Lora, []string) {
	if visited[id] {
		return nil, nil
	}
	visited[id] = true

	n := r.index.Node(id)
	if n == nil {
		return nil, nil
	}

	var loras []Lora
	var titles []string

	if IsLoaderKind(n.Kind) && r.index.HasLiveOutput(id, isModelSlotType) {
		loras = append(loras, DecodeLoras(n, r.opts)...)
		if n.Title != "" {
			titles = append(titles, n.Title)
		}
	}

	for _, in := range n.Inputs {
		if !modelConnectionSlot(in) || in.Link == nil {
			continue
		}
		l, ok := r.index.Links[*in.Link]
		if !ok {
			continue
		}
		chainLoras, chainTitles := r.collectChain(l.SourceNode, visited)
		loras = append(loras, chainLoras...)
		titles = append(titles, chainTitles...)
	}

	return loras, titles
}

// traceToLoader walks backward through model-typed connections from a
// node until it hits a loader, and returns that loader's id. The walk is
// depth-bounded and does not collect anything; it only decides whether a
// terminal's chain should be collected and from where.
func (r *Resolver) traceToLoader(id workflow.ID, depth int, visited map[workflow.ID]bool) (workflow.ID, bool) {
	if depth <= 0 || visited[id] {
		return 0, false
	}
	visited[id] = true

	n := r.index.Node(id)
	if n == nil {
		return 0, false
	}
	if IsLoaderKind(n.Kind) {
		return id, true
	}
	for _, in := range n.Inputs {
		if !modelConnectionSlot(in) || in.Link == nil {
			continue
		}
		l, ok := r.index.Links[*in.Link]
		if !ok {
			continue
		}
		if loader, found := r.traceToLoader(l.SourceNode, depth-1, visited); found {
			return loader, true
		}
	}
	return 0, false
}

// collectChains discovers every chain in the graph. Terminals are
// non-loader nodes whose model-typed input traces back to a loader;
// stack-type chains are additionally discovered from terminal stacker
// nodes (stackers not feeding other stackers). Chains are keyed by
// their starting loader, and each loader is collected once globally:
// a loader shared between several terminals yields a single chain.
func (r *Resolver) collectChains() []Chain {
	var chains []Chain
	collected := make(map[workflow.ID]bool)

	for _, id := range r.index.SortedNodeIDs() {
		n := r.index.Node(id)
		if n == nil || IsLoaderKind(n.Kind) {
			continue
		}
		for _, in := range n.Inputs {
			if !modelConnectionSlot(in) || in.Link == nil {
				continue
			}
			l, ok := r.index.Links[*in.Link]
			if !ok {
				continue
			}
			loader, found := r.traceToLoader(l.SourceNode, r.opts.TraceDepth, make(map[workflow.ID]bool))
			if !found || collected[loader] {
				continue
			}
			collected[loader] = true

			loras, titles := r.collectChain(loader, make(map[workflow.ID]bool))
			if len(loras) == 0 {
				continue
			}
			label := in.Name
			if in.Label != "" {
				label = in.Label
			}
			chains = append(chains, Chain{
				Loras:         loras,
				Titles:        titles,
				TerminalLabel: label,
				SortKey:       loader,
			})
		}
	}

	chains = append(chains, r.collectStackerChains(collected)...)

	sort.SliceStable(chains, func(i, j int) bool {
		return chains[i].SortKey < chains[j].SortKey
	})
	return chains
}

// collectStackerChains finds stack-type entry points: stacker nodes that
// do not feed another stacker. These cover stack wiring whose consumer
// is itself outside the model-input convention.
func (r *Resolver) collectStackerChains(collected map[workflow.ID]bool) []Chain {
	feedsStacker := make(map[workflow.ID]bool)
	var stackers []workflow.ID

	for _, id := range r.index.SortedNodeIDs() {
		n := r.index.Node(id)
		if n == nil || !IsStackerKind(n.Kind) {
			continue
		}
		stackers = append(stackers, id)
		for _, in := range n.Inputs {
			if in.Name != "lora_stack" || in.Link == nil {
				continue
			}
			l, ok := r.index.Links[*in.Link]
			if !ok {
				continue
			}
			if src := r.index.Node(l.SourceNode); src != nil && IsStackerKind(src.Kind) {
				feedsStacker[l.SourceNode] = true
			}
		}
	}

	var chains []Chain
	for _, id := range stackers {
		if feedsStacker[id] || collected[id] {
			continue
		}
		loras, titles := r.collectChain(id, make(map[workflow.ID]bool))
		if len(loras) == 0 {
			continue
		}
		collected[id] = true
		n := r.index.Node(id)
		chains = append(chains, Chain{
			Loras:         loras,
			Titles:        titles,
			TerminalLabel: n.Title,
			SortKey:       id,
		})
	}
	return chains
}
