package workflow

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshal(t *testing.T) {
	var id ID
	if err := json.Unmarshal([]byte(`42`), &id); err != nil || id != 42 {
		t.Errorf("numeric id = %d, err %v", id, err)
	}
	if err := json.Unmarshal([]byte(`"17"`), &id); err != nil || id != 17 {
		t.Errorf("numeric string id = %d, err %v", id, err)
	}

	if err := json.Unmarshal([]byte(`"f9a2c0de-1111-2222-3333-444455556666"`), &id); err != nil {
		t.Fatal(err)
	}
	if id <= 0 {
		t.Errorf("uuid id = %d, want positive hash", id)
	}
	var again ID
	if err := json.Unmarshal([]byte(`"f9a2c0de-1111-2222-3333-444455556666"`), &again); err != nil {
		t.Fatal(err)
	}
	if again != id {
		t.Errorf("uuid hash not deterministic: %d vs %d", id, again)
	}
}

func TestLinkUnmarshalArray(t *testing.T) {
	var l Link
	if err := json.Unmarshal([]byte(`[7, 1, 0, 2, 3, "STRING"]`), &l); err != nil {
		t.Fatal(err)
	}
	want := Link{ID: 7, SourceNode: 1, SourceSlot: 0, DestNode: 2, DestSlot: 3, Type: "STRING"}
	if l != want {
		t.Errorf("got %+v, want %+v", l, want)
	}

	// Five elements, no type.
	if err := json.Unmarshal([]byte(`[7, 1, 0, 2, 3]`), &l); err != nil {
		t.Fatal(err)
	}
	if l.ID != 7 || l.Type != "" {
		t.Errorf("got %+v", l)
	}

	// Too short decodes to a zero link.
	if err := json.Unmarshal([]byte(`[7, 1]`), &l); err != nil {
		t.Fatal(err)
	}
	if l != (Link{}) {
		t.Errorf("short link = %+v, want zero", l)
	}
}

func TestLinkUnmarshalObject(t *testing.T) {
	var l Link
	data := `{"id": 9, "origin_id": 4, "origin_slot": 1, "target_id": 5, "target_slot": 0, "type": "MODEL"}`
	if err := json.Unmarshal([]byte(data), &l); err != nil {
		t.Fatal(err)
	}
	want := Link{ID: 9, SourceNode: 4, SourceSlot: 1, DestNode: 5, DestSlot: 0, Type: "MODEL"}
	if l != want {
		t.Errorf("got %+v, want %+v", l, want)
	}
}

func TestConfigValuesShapes(t *testing.T) {
	var c ConfigValues
	if err := json.Unmarshal([]byte(`["a", 1.5, true]`), &c); err != nil {
		t.Fatal(err)
	}
	if len(c) != 3 || c[0] != "a" {
		t.Errorf("array shape = %v", c)
	}

	if err := json.Unmarshal([]byte(`{"on": true, "lora": "x"}`), &c); err != nil {
		t.Fatal(err)
	}
	if len(c) != 1 {
		t.Fatalf("object shape = %v", c)
	}
	if rec, ok := c[0].(map[string]any); !ok || rec["lora"] != "x" {
		t.Errorf("object element = %v", c[0])
	}

	if err := json.Unmarshal([]byte(`"scalar"`), &c); err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Errorf("scalar shape = %v, want nil", c)
	}
}

func TestConfigValuesFirstString(t *testing.T) {
	c := ConfigValues{1.0, "", "found", "later"}
	if got := c.FirstString(); got != "found" {
		t.Errorf("FirstString = %q", got)
	}
	if got := (ConfigValues{}).FirstString(); got != "" {
		t.Errorf("empty FirstString = %q", got)
	}
}

func TestParseDocument(t *testing.T) {
	doc := ParseDocument([]byte(`{
		"nodes": [{"id": 1, "type": "KSampler", "title": "Main"}],
		"links": [[5, 1, 0, 2, 0, "MODEL"]]
	}`))
	if len(doc.Nodes) != 1 || doc.Nodes[0].Kind != "KSampler" {
		t.Errorf("nodes = %+v", doc.Nodes)
	}
	if len(doc.Links) != 1 || doc.Links[0].ID != 5 {
		t.Errorf("links = %+v", doc.Links)
	}
}

func TestParseDocumentMalformed(t *testing.T) {
	doc := ParseDocument([]byte(`{"nodes": [`))
	if doc == nil || len(doc.Nodes) != 0 {
		t.Errorf("malformed input should parse to empty document, got %+v", doc)
	}
}
