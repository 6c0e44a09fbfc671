package loradir

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/promptforge/prompt-extract-mcp/internal/resolve"
)

func TestScan(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{
		"styles/anime.safetensors",
		"wan/detail_high.safetensors",
		"old.ckpt",
		"notes.txt",
	} {
		path := filepath.Join(dir, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	lib, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"old.ckpt", "styles/anime.safetensors", "wan/detail_high.safetensors"}
	if !reflect.DeepEqual(lib.Files(), want) {
		t.Errorf("Files = %v, want %v", lib.Files(), want)
	}
}

func TestScanMissingRoot(t *testing.T) {
	lib, err := Scan(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatal(err)
	}
	if lib.Len() != 0 {
		t.Errorf("Len = %d, want 0", lib.Len())
	}
}

func TestMatchPrecedence(t *testing.T) {
	lib := NewLibrary([]string{
		"styles/anime_v2.safetensors",
		"anime_v2_backup.safetensors",
		"plain.safetensors",
	})

	// Path hint suffix beats name matching.
	if got, ok := lib.Match("whatever", "styles/anime_v2.safetensors"); !ok || got != "styles/anime_v2.safetensors" {
		t.Errorf("path hint match = %q, %v", got, ok)
	}
	// A hint rooted elsewhere still suffix-matches the library path.
	if got, ok := lib.Match("whatever", "other_root\\styles\\anime_v2.safetensors"); !ok || got != "styles/anime_v2.safetensors" {
		t.Errorf("foreign-root hint match = %q, %v", got, ok)
	}

	// Exact base name beats substring.
	if got, ok := lib.Match("anime_v2", ""); !ok || got != "styles/anime_v2.safetensors" {
		t.Errorf("exact name match = %q, %v", got, ok)
	}

	// Substring fallback.
	if got, ok := lib.Match("backup", ""); !ok || got != "anime_v2_backup.safetensors" {
		t.Errorf("substring match = %q, %v", got, ok)
	}

	if _, ok := lib.Match("missing_entirely", ""); ok {
		t.Error("unexpected match for unknown name")
	}
}

func TestFuzzyMatchRenamedVariants(t *testing.T) {
	lib := NewLibrary([]string{
		"DR34LAY_I2V_14B_HIGH_V2.safetensors",
		"DR34LAY_T2V_14B_HIGH_V2.safetensors",
		"DR34LAY_I2V_A14B_LOW_V2.safetensors",
		"SomeOther_I2V_LoRA.safetensors",
		"MyLora_WAN_2_2_I2V_Style.safetensors",
		"CoolStyle_I2V (1).safetensors",
	})

	cases := []struct {
		name string
		want string
	}{
		{"DR34LAY_HIGH_V2", "DR34LAY_I2V_14B_HIGH_V2.safetensors"},
		{"DR34LAY_HIGH_V2.safetensors", "DR34LAY_I2V_14B_HIGH_V2.safetensors"},
		{"DR34LAY_LOW_V2", "DR34LAY_I2V_A14B_LOW_V2.safetensors"},
		{"DR34LAY_I2V_HIGH_V2", "DR34LAY_I2V_14B_HIGH_V2.safetensors"},
		{"DR34LAY_T2V_HIGH_V2", "DR34LAY_T2V_14B_HIGH_V2.safetensors"},
		{"MyLora_Style", "MyLora_WAN_2_2_I2V_Style.safetensors"},
		{"CoolStyle_I2V", "CoolStyle_I2V (1).safetensors"},
	}
	for _, c := range cases {
		got, ok := lib.fuzzyMatch(c.name)
		if !ok || got != c.want {
			t.Errorf("fuzzyMatch(%q) = %q, %v; want %q", c.name, got, ok, c.want)
		}
	}

	if _, ok := lib.fuzzyMatch("NonExistent_LoRA"); ok {
		t.Error("unexpected fuzzy match for unknown name")
	}
}

func TestFuzzyPrefersFewestExtraTokens(t *testing.T) {
	lib := NewLibrary([]string{
		"Style_I2V_14B_Extra_Long_Variant.safetensors",
		"Style_I2V_14B.safetensors",
	})
	got, ok := lib.fuzzyMatch("Style")
	if !ok || got != "Style_I2V_14B.safetensors" {
		t.Errorf("fuzzyMatch = %q, %v", got, ok)
	}
}

func TestStack(t *testing.T) {
	lib := NewLibrary([]string{"styles/noir.safetensors"})
	got := lib.Stack([]resolve.Lora{
		{Name: "noir", PathHint: "noir.safetensors", ModelStrength: 0.8, ClipStrength: 0.4, Active: true},
		{Name: "ghost", ModelStrength: 1.0, ClipStrength: 1.0, Active: true},
	})
	want := []StackEntry{
		{File: "styles/noir.safetensors", ModelWeight: 0.8, ClipWeight: 0.4},
		{File: "ghost.safetensors", ModelWeight: 1.0, ClipWeight: 1.0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Stack = %+v, want %+v", got, want)
	}
}
