package resolve

import (
	"reflect"
	"testing"

	"github.com/promptforge/prompt-extract-mcp/internal/workflow"
)

func decodeKind(t *testing.T, kind string, cfg workflow.ConfigValues) []Lora {
	t.Helper()
	return DecodeLoras(&workflow.Node{Kind: kind, Config: cfg}, DefaultOptions())
}

func TestNormalizeLoraName(t *testing.T) {
	cases := map[string]string{
		"styles/anime_v2.safetensors":     "anime_v2",
		"styles\\win\\path.safetensors":   "path",
		"  spaced.ckpt ":                  "spaced",
		"plain_name":                      "plain_name",
		"nested/dir/with.dots.in.it.pt":   "with.dots.in.it",
		"wan/high_noise/detail_boost.pt":  "detail_boost",
	}
	for in, want := range cases {
		if got := NormalizeLoraName(in); got != want {
			t.Errorf("NormalizeLoraName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeEntryLoader(t *testing.T) {
	got := decodeKind(t, "Power Lora Loader (rgthree)", workflow.ConfigValues{
		map[string]any{"on": true, "lora": "styles/alpha.safetensors", "strength": 0.8, "strengthTwo": 0.6},
		map[string]any{"on": false, "lora": "beta.safetensors", "strength": 1.0, "strengthTwo": nil},
		map[string]any{"type": "PowerLoraLoaderHeaderWidget"},
		"some stray string",
	})
	want := []Lora{
		{Name: "alpha", PathHint: "styles/alpha.safetensors", ModelStrength: 0.8, ClipStrength: 0.6, Active: true},
		{Name: "beta", PathHint: "beta.safetensors", ModelStrength: 1.0, ClipStrength: 1.0, Active: false},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
}

func TestDecodeStackList(t *testing.T) {
	got := decodeKind(t, "Lora Stacker (LoraManager)", workflow.ConfigValues{
		"header text",
		[]any{
			map[string]any{"name": "one", "strength": "0.75", "active": true},
			map[string]any{"name": "two", "strength": 0.5, "clipStrength": 0.25, "active": false},
			map[string]any{"strength": 0.5},
		},
	})
	want := []Lora{
		{Name: "one", ModelStrength: 0.75, ClipStrength: 0.75, Active: true},
		{Name: "two", ModelStrength: 0.5, ClipStrength: 0.25, Active: false},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
}

func TestDecodePairsSkipsSentinels(t *testing.T) {
	got := decodeKind(t, "WanVideoLoraSelectMulti", workflow.ConfigValues{
		"high_a.safetensors", 1.0,
		"none", 1.0,
		"", 1.0,
		"high_b.safetensors", 0.3,
	})
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	if got[0].Name != "high_a" || got[1].Name != "high_b" {
		t.Errorf("names = %q, %q", got[0].Name, got[1].Name)
	}
	if got[1].ModelStrength != 0.3 || got[1].ClipStrength != 0.3 {
		t.Errorf("strengths = %v/%v, want 0.3/0.3", got[1].ModelStrength, got[1].ClipStrength)
	}
}

func TestDecodePairsStopsAtTrailingFlags(t *testing.T) {
	got := decodeKind(t, "WanVideoLoraSelectMulti", workflow.ConfigValues{
		"a.safetensors", 1.0,
		false, true,
	})
	if len(got) != 1 || got[0].Name != "a" {
		t.Errorf("got %+v, want only the leading pair", got)
	}
}

func TestDecodeFixedPairsCapped(t *testing.T) {
	got := decodeKind(t, "WanVideoLoraSelect", workflow.ConfigValues{
		"a", 1.0, "b", 1.0, "c", 1.0, "d", 1.0, "e", 1.0,
	})
	if len(got) != 4 {
		t.Errorf("got %d records, want the fixed slot count 4", len(got))
	}
}

func TestDecodeSingleSlot(t *testing.T) {
	got := decodeKind(t, "LoraLoader", workflow.ConfigValues{"dir/fx.safetensors", 0.9, 0.45})
	want := []Lora{{Name: "fx", PathHint: "dir/fx.safetensors", ModelStrength: 0.9, ClipStrength: 0.45, Active: true}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	got = decodeKind(t, "LoraLoaderModelOnly", workflow.ConfigValues{"fx.safetensors", 0.9})
	if len(got) != 1 || got[0].ClipStrength != 0.9 {
		t.Errorf("clip should default to model strength, got %+v", got)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	if got := decodeKind(t, "KSampler", workflow.ConfigValues{"x", 1.0}); got != nil {
		t.Errorf("unknown kind decoded %+v", got)
	}
}

func TestDecodeMalformedConfig(t *testing.T) {
	for kind, cfg := range map[string]workflow.ConfigValues{
		"LoraLoader":               nil,
		"LoraLoaderModelOnly":      {42},
		"WanVideoLoraSelect":       {"only_a_name"},
		"Power Lora Loader (rgthree)": {"not a record"},
	} {
		if got := decodeKind(t, kind, cfg); len(got) != 0 {
			t.Errorf("%s with malformed config decoded %+v", kind, got)
		}
	}
}

func TestCoerceFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{0.5, 0.5},
		{2, 2},
		{"0.75", 0.75},
		{" 1.5 ", 1.5},
		{"notanumber", 9},
		{nil, 9},
		{true, 9},
	}
	for _, c := range cases {
		if got := coerceFloat(c.in, 9); got != c.want {
			t.Errorf("coerceFloat(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
