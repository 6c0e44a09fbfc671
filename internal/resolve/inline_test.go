package resolve

import "testing"

func TestExtractInlineLoras(t *testing.T) {
	loras, cleaned := ExtractInlineLoras("a knight <lora:armor_v1:0.8> in a storm <lora:rain:0.5:0.25>")

	if cleaned != "a knight in a storm" {
		t.Errorf("cleaned = %q", cleaned)
	}
	if len(loras) != 2 {
		t.Fatalf("got %d records: %+v", len(loras), loras)
	}
	if loras[0].Name != "armor_v1" || loras[0].ModelStrength != 0.8 || loras[0].ClipStrength != 0.8 {
		t.Errorf("first = %+v", loras[0])
	}
	if loras[1].Name != "rain" || loras[1].ModelStrength != 0.5 || loras[1].ClipStrength != 0.25 {
		t.Errorf("second = %+v", loras[1])
	}
	if !loras[0].Active || !loras[1].Active {
		t.Error("inline records must be active")
	}
}

func TestExtractInlineUnparseableStrength(t *testing.T) {
	loras, _ := ExtractInlineLoras("<lora:fx:abc>")
	if len(loras) != 1 || loras[0].ModelStrength != 1.0 {
		t.Errorf("strength should default to 1.0, got %+v", loras)
	}
}

func TestExtractInlineNone(t *testing.T) {
	loras, cleaned := ExtractInlineLoras("plain text, nothing embedded")
	if loras != nil {
		t.Errorf("got %+v, want nil", loras)
	}
	if cleaned != "plain text, nothing embedded" {
		t.Errorf("cleaned = %q", cleaned)
	}
}

func TestStripInlineLoras(t *testing.T) {
	got := StripInlineLoras("  start <lora:a:1> mid  <lora:b:1>  end ")
	if got != "start mid end" {
		t.Errorf("got %q", got)
	}
}
