package metadata

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func chunk(t *testing.T, chunkType string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(data))); err != nil {
		t.Fatal(err)
	}
	buf.WriteString(chunkType)
	buf.Write(data)
	buf.Write([]byte{0, 0, 0, 0}) // CRC, not validated
	return buf.Bytes()
}

func textChunk(t *testing.T, key, value string) []byte {
	t.Helper()
	return chunk(t, "tEXt", append(append([]byte(key), 0), []byte(value)...))
}

func buildPNG(t *testing.T, chunks ...[]byte) []byte {
	t.Helper()
	out := append([]byte{}, pngSignature...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	out = append(out, chunk(t, "IEND", nil)...)
	return out
}

func TestPNGTextChunks(t *testing.T) {
	png := buildPNG(t,
		chunk(t, "IHDR", make([]byte, 13)),
		textChunk(t, "prompt", `{"1": {}}`),
		chunk(t, "IDAT", []byte{1, 2, 3}),
		textChunk(t, "workflow", `{"nodes": []}`),
	)
	texts, err := pngTextChunks(bytes.NewReader(png))
	if err != nil {
		t.Fatal(err)
	}
	if texts["prompt"] != `{"1": {}}` {
		t.Errorf("prompt = %q", texts["prompt"])
	}
	if texts["workflow"] != `{"nodes": []}` {
		t.Errorf("workflow = %q", texts["workflow"])
	}
}

func TestPNGCompressedChunks(t *testing.T) {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write([]byte(`{"nodes": [1]}`)); err != nil {
		t.Fatal(err)
	}
	zw.Close()

	ztxt := append(append([]byte("workflow"), 0, 0), compressed.Bytes()...)
	itxt := append([]byte("prompt"), 0, 0, 0)
	itxt = append(itxt, 0)               // empty language tag
	itxt = append(itxt, 0)               // empty translated keyword
	itxt = append(itxt, []byte(`{}`)...) // uncompressed body

	texts, err := pngTextChunks(bytes.NewReader(buildPNG(t,
		chunk(t, "zTXt", ztxt),
		chunk(t, "iTXt", itxt),
	)))
	if err != nil {
		t.Fatal(err)
	}
	if texts["workflow"] != `{"nodes": [1]}` {
		t.Errorf("zTXt workflow = %q", texts["workflow"])
	}
	if texts["prompt"] != `{}` {
		t.Errorf("iTXt prompt = %q", texts["prompt"])
	}
}

func TestPNGRejectsOtherFormats(t *testing.T) {
	if _, err := pngTextChunks(bytes.NewReader([]byte("GIF89a trailing"))); err == nil {
		t.Error("non-png accepted")
	}
	if _, err := pngTextChunks(bytes.NewReader(nil)); err == nil {
		t.Error("empty stream accepted")
	}
}

func TestPNGTruncatedStream(t *testing.T) {
	png := buildPNG(t, textChunk(t, "prompt", `{}`))
	texts, err := pngTextChunks(bytes.NewReader(png[:len(png)-14]))
	if err != nil {
		t.Fatalf("truncation should degrade, got %v", err)
	}
	if texts["prompt"] != `{}` {
		t.Errorf("prompt = %q", texts["prompt"])
	}
}

func TestFromFilePNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gen.png")
	png := buildPNG(t,
		textChunk(t, "workflow", `{"nodes": []}`),
		textChunk(t, "prompt", `{"1": {"class_type": "KSampler"}}`),
	)
	if err := os.WriteFile(path, png, 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := FromFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(p.Workflow) != `{"nodes": []}` {
		t.Errorf("workflow = %s", p.Workflow)
	}
	if len(p.API) == 0 {
		t.Error("prompt payload missing")
	}
}

func TestFromFilePNGPlainTextPrompt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a1111.png")
	png := buildPNG(t, textChunk(t, "parameters", "a moody alley, rain\nNegative prompt: blurry"))
	if err := os.WriteFile(path, png, 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := FromFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.PlainText == "" || len(p.API) != 0 {
		t.Errorf("payload = %+v, want plain text only", p)
	}
}

func TestFromFileCachePreferred(t *testing.T) {
	cache := NewCache()
	if !cache.Put("clip.mp4", []byte(`{"workflow": {"nodes": []}}`)) {
		t.Fatal("cache rejected payload")
	}

	p, err := FromFile(filepath.Join("anywhere", "clip.mp4"), cache)
	if err != nil {
		t.Fatal(err)
	}
	if string(p.Workflow) != `{"nodes": []}` {
		t.Errorf("workflow = %s", p.Workflow)
	}
}

func TestFromFileCacheOnlyWithoutEntry(t *testing.T) {
	if _, err := FromFile("clip.webm", NewCache()); err != ErrNoMetadata {
		t.Errorf("err = %v, want ErrNoMetadata", err)
	}
}

func TestClassifyJSON(t *testing.T) {
	if p := ClassifyJSON([]byte(`{"7": {"class_type": "KSampler", "inputs": {}}}`)); len(p.API) == 0 || len(p.Workflow) != 0 {
		t.Errorf("prompt-format = %+v", p)
	}
	if p := ClassifyJSON([]byte(`{"nodes": [], "links": []}`)); len(p.Workflow) == 0 {
		t.Errorf("graph-format = %+v", p)
	}
	p := ClassifyJSON([]byte(`{"prompt": {"1": {}}, "workflow": {"nodes": []}}`))
	if len(p.API) == 0 || len(p.Workflow) == 0 {
		t.Errorf("wrapped = %+v", p)
	}
	if p := ClassifyJSON([]byte(`not json`)); !p.Empty() {
		t.Errorf("garbage = %+v", p)
	}
}

func TestCacheForget(t *testing.T) {
	cache := NewCache()
	cache.Put("x.png", []byte(`{"workflow": {"nodes": []}}`))
	if cache.Len() != 1 {
		t.Fatalf("len = %d", cache.Len())
	}
	cache.Forget("x.png")
	if _, ok := cache.Get("x.png"); ok {
		t.Error("entry survived Forget")
	}
}
