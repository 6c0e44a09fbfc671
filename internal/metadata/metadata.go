// Package metadata locates serialized workflow documents inside
// generated media and sidecar files: PNG textual chunks, raw JSON
// sidecars, and a caller-fed cache for formats whose metadata only the
// client can read (JPEG, WebP, video containers).
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoMetadata marks a file that was readable but carried no workflow
// payload this package recognizes.
var ErrNoMetadata = errors.New("no workflow metadata found")

// Payload is the extracted raw material for resolution. Workflow holds
// graph-format JSON, API holds prompt-format JSON; either may be empty.
// PlainText carries a bare text prompt found where JSON was expected.
type Payload struct {
	Workflow  []byte
	API       []byte
	PlainText string
}

// Empty reports whether nothing usable was found.
func (p *Payload) Empty() bool {
	return p == nil || (len(p.Workflow) == 0 && len(p.API) == 0 && p.PlainText == "")
}

// CacheOnlyExts are extensions whose embedded metadata this package
// cannot read directly; payloads for these arrive via the Cache.
var CacheOnlyExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".webp": true,
	".mp4": true, ".webm": true, ".mov": true, ".avi": true,
}

// FromFile extracts the workflow payload for a file, preferring a cache
// entry keyed by base name over reading the file itself. cache may be
// nil.
func FromFile(path string, cache *Cache) (*Payload, error) {
	if cache != nil {
		if p, ok := cache.Get(filepath.Base(path)); ok {
			return p, nil
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".png":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		texts, err := pngTextChunks(f)
		if err != nil {
			return nil, fmt.Errorf("parse png %s: %w", filepath.Base(path), err)
		}
		p := payloadFromTexts(texts)
		if p.Empty() {
			return nil, ErrNoMetadata
		}
		return p, nil

	case ext == ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		p := ClassifyJSON(data)
		if p.Empty() {
			return nil, ErrNoMetadata
		}
		return p, nil

	case CacheOnlyExts[ext]:
		return nil, ErrNoMetadata

	default:
		return nil, fmt.Errorf("unsupported extension %q", ext)
	}
}

// pngPromptKeys and pngWorkflowKeys are checked in order; the canonical
// lowercase names come first, tool-specific spellings after.
var pngPromptKeys = []string{"prompt", "Prompt", "parameters", "Comment"}
var pngWorkflowKeys = []string{"workflow", "Workflow"}

func payloadFromTexts(texts map[string]string) *Payload {
	p := &Payload{}

	for _, key := range pngWorkflowKeys {
		if v := texts[key]; v != "" && json.Valid([]byte(v)) {
			p.Workflow = []byte(v)
			break
		}
	}
	for _, key := range pngPromptKeys {
		v := texts[key]
		if v == "" {
			continue
		}
		if json.Valid([]byte(v)) {
			p.API = []byte(v)
		} else {
			// A bare text prompt stored where tools put their JSON.
			p.PlainText = strings.TrimSpace(v)
		}
		break
	}
	return p
}

// ClassifyJSON decides the shape of a standalone JSON document: a
// prompt-format map (values carrying class_type), a graph document
// (top-level nodes array), or a wrapper holding both under "prompt" and
// "workflow". Anything else is treated as prompt-format as-is.
func ClassifyJSON(data []byte) *Payload {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return &Payload{}
	}

	for _, raw := range top {
		var probe struct {
			ClassType string `json:"class_type"`
		}
		if err := json.Unmarshal(raw, &probe); err == nil && probe.ClassType != "" {
			return &Payload{API: data}
		}
	}
	if _, ok := top["nodes"]; ok {
		return &Payload{Workflow: data}
	}
	if _, ok := top["prompt"]; ok {
		p := &Payload{API: top["prompt"]}
		if wf, ok := top["workflow"]; ok {
			p.Workflow = wf
		}
		return p
	}
	return &Payload{API: data}
}
