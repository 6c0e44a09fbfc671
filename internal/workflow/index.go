package workflow

import "sort"

// Index flattens a document into global node and link lookup tables.
// Later insertions silently overwrite earlier ones sharing an id;
// documents are assumed to guarantee global uniqueness already.
type Index struct {
	Nodes map[ID]*Node
	Links map[ID]*Link
}

// BuildIndex walks the top-level node/link arrays and every nested
// subgraph's arrays, merging them into one addressable space.
func BuildIndex(doc *Document) *Index {
	ix := &Index{
		Nodes: make(map[ID]*Node),
		Links: make(map[ID]*Link),
	}
	if doc == nil {
		return ix
	}
	ix.insert(doc.Nodes, doc.Links)
	for _, sg := range doc.Definitions.Subgraphs {
		if sg != nil {
			ix.insert(sg.Nodes, sg.Links)
		}
	}
	return ix
}

func (ix *Index) insert(nodes []*Node, links []*Link) {
	for _, n := range nodes {
		if n != nil {
			ix.Nodes[n.ID] = n
		}
	}
	for _, l := range links {
		if l != nil && l.ID != 0 {
			ix.Links[l.ID] = l
		}
	}
}

// Node returns the node for an id, or nil.
func (ix *Index) Node(id ID) *Node {
	return ix.Nodes[id]
}

// SortedNodeIDs returns all node ids in ascending order. Traversal entry
// points iterate this instead of the document arrays so output does not
// depend on serialization order.
func (ix *Index) SortedNodeIDs() []ID {
	ids := make([]ID, 0, len(ix.Nodes))
	for id := range ix.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ProducerRef identifies the producing side of a link: a node and the
// output slot index on it.
type ProducerRef struct {
	NodeID ID
	Slot   int
}

// SlotPredicate selects input slots during a FollowInput scan.
type SlotPredicate func(in InputSlot) bool

// SlotNamed matches slots whose declared name equals any of the given names.
func SlotNamed(names ...string) SlotPredicate {
	return func(in InputSlot) bool {
		for _, n := range names {
			if in.Name == n {
				return true
			}
		}
		return false
	}
}

// AnySlot matches every input slot.
func AnySlot(InputSlot) bool { return true }

// FollowInput scans a node's input slots for the first one matching pred
// that also carries a link resolvable in the index, and returns the
// producing node and output slot. Dangling links are skipped, not errors.
func (ix *Index) FollowInput(nodeID ID, pred SlotPredicate) (ProducerRef, bool) {
	n := ix.Nodes[nodeID]
	if n == nil {
		return ProducerRef{}, false
	}
	for _, in := range n.Inputs {
		if !pred(in) || in.Link == nil {
			continue
		}
		l, ok := ix.Links[*in.Link]
		if !ok {
			continue
		}
		if _, exists := ix.Nodes[l.SourceNode]; !exists {
			continue
		}
		return ProducerRef{NodeID: l.SourceNode, Slot: l.SourceSlot}, true
	}
	return ProducerRef{}, false
}

// LinksFrom returns every resolvable link whose source is the given node,
// in ascending link-id order.
func (ix *Index) LinksFrom(nodeID ID) []*Link {
	var out []*Link
	for _, l := range ix.Links {
		if l.SourceNode == nodeID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HasLiveOutput reports whether any of the node's output slots matching
// typePred feeds at least one link that resolves to an existing node.
func (ix *Index) HasLiveOutput(nodeID ID, typePred func(slotType string) bool) bool {
	n := ix.Nodes[nodeID]
	if n == nil {
		return false
	}
	for _, out := range n.Outputs {
		if !typePred(out.Type) {
			continue
		}
		for _, lid := range out.Links {
			l, ok := ix.Links[lid]
			if !ok {
				continue
			}
			if _, exists := ix.Nodes[l.DestNode]; exists {
				return true
			}
		}
	}
	return false
}
