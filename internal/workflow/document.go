package workflow

import (
	"encoding/json"

	"github.com/zeebo/xxh3"
)

// ID is a node or link identifier. ComfyUI serializes most ids as JSON
// numbers, but subgraph-internal nodes may carry UUID strings; those are
// hashed into the same int64 space so every id is addressable in one map.
type ID int64

// UnmarshalJSON accepts numbers, numeric strings, and arbitrary strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if v, intErr := n.Int64(); intErr == nil {
			*id = ID(v)
			return nil
		}
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = HashID(s)
		return nil
	}
	*id = 0
	return nil
}

// HashID maps a string id deterministically into the int64 id space.
// The high bit is cleared so hashed ids never collide with small
// serialized integer ids in practice and sort stably.
func HashID(s string) ID {
	return ID(int64(xxh3.HashString(s) >> 1))
}

// InputSlot is one declared input of a node.
type InputSlot struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
	Link  *ID    `json:"link"`
}

// OutputSlot is one declared output of a node with the links it feeds.
type OutputSlot struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Links []ID   `json:"links"`
}

// Node is a single workflow node. Config carries the node's baked-in
// widget values; its layout is positional and specific to each kind.
type Node struct {
	ID      ID           `json:"id"`
	Kind    string       `json:"type"`
	Title   string       `json:"title,omitempty"`
	Config  ConfigValues `json:"widgets_values"`
	Inputs  []InputSlot  `json:"inputs"`
	Outputs []OutputSlot `json:"outputs"`
}

// ConfigValues is an ordered sequence of literal widget values. Some node
// families serialize widgets_values as a JSON object instead of an array;
// that shape is preserved as a single map element so per-kind decoders can
// still reach it.
type ConfigValues []any

// UnmarshalJSON tolerates both array and object shapes, and anything
// else decodes to nil rather than failing the whole document.
func (c *ConfigValues) UnmarshalJSON(data []byte) error {
	var arr []any
	if err := json.Unmarshal(data, &arr); err == nil {
		*c = arr
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err == nil {
		*c = ConfigValues{obj}
		return nil
	}
	*c = nil
	return nil
}

// FirstString returns the first non-empty string in the config, or "".
func (c ConfigValues) FirstString() string {
	for _, v := range c {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Link is a directed edge from a node's output slot to another node's
// input slot. ComfyUI serializes links as positional arrays
// [id, sourceNode, sourceSlot, destNode, destSlot, type]; subgraph link
// tables may use keyed objects instead. Both shapes are accepted, and a
// short or malformed entry decodes to a zero link, which every traversal
// treats as unresolved.
type Link struct {
	ID         ID
	SourceNode ID
	SourceSlot int
	DestNode   ID
	DestSlot   int
	Type       string
}

type linkObject struct {
	ID         ID     `json:"id"`
	OriginID   ID     `json:"origin_id"`
	OriginSlot int    `json:"origin_slot"`
	TargetID   ID     `json:"target_id"`
	TargetSlot int    `json:"target_slot"`
	Type       string `json:"type"`
}

// UnmarshalJSON decodes either the array or the object link shape.
func (l *Link) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) < 5 {
			*l = Link{}
			return nil
		}
		var ids [4]ID
		var slots [2]int
		_ = json.Unmarshal(arr[0], &ids[0]) // link id
		_ = json.Unmarshal(arr[1], &ids[1]) // source node
		_ = json.Unmarshal(arr[2], &slots[0])
		_ = json.Unmarshal(arr[3], &ids[2]) // dest node
		_ = json.Unmarshal(arr[4], &slots[1])
		l.ID = ids[0]
		l.SourceNode = ids[1]
		l.SourceSlot = slots[0]
		l.DestNode = ids[2]
		l.DestSlot = slots[1]
		if len(arr) >= 6 {
			_ = json.Unmarshal(arr[5], &l.Type)
		}
		return nil
	}
	var obj linkObject
	if err := json.Unmarshal(data, &obj); err == nil {
		*l = Link{
			ID:         obj.ID,
			SourceNode: obj.OriginID,
			SourceSlot: obj.OriginSlot,
			DestNode:   obj.TargetID,
			DestSlot:   obj.TargetSlot,
			Type:       obj.Type,
		}
		return nil
	}
	*l = Link{}
	return nil
}

// Subgraph is a nested node/link set inside a document's definitions.
type Subgraph struct {
	ID    string  `json:"id"`
	Name  string  `json:"name,omitempty"`
	Nodes []*Node `json:"nodes"`
	Links []*Link `json:"links"`
}

// Definitions holds a document's nested subgraph definitions.
type Definitions struct {
	Subgraphs []*Subgraph `json:"subgraphs"`
}

// Document is a serialized workflow: a top-level node/link set plus zero
// or more nested subgraph definitions. Node and link ids are unique
// across the flattened union.
type Document struct {
	Nodes       []*Node     `json:"nodes"`
	Links       []*Link     `json:"links"`
	Definitions Definitions `json:"definitions"`
}

// ParseDocument decodes a workflow document from JSON. A malformed
// document yields an empty Document, never an error for the caller to
// branch on: downstream resolution degrades to empty output.
func ParseDocument(data []byte) *Document {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return &Document{}
	}
	return &doc
}
