package metadata

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// maxTextChunk caps how much of a single textual chunk is read. Workflow
// payloads run to a few megabytes at most; anything larger is not ours.
const maxTextChunk = 64 << 20

// pngTextChunks walks a PNG stream and collects its textual chunks
// (tEXt, zTXt, iTXt) into a keyword map. Pixel data is skipped without
// buffering. Duplicate keywords keep the first occurrence.
func pngTextChunks(r io.Reader) (map[string]string, error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, fmt.Errorf("read signature: %w", err)
	}
	if !bytes.Equal(sig, pngSignature) {
		return nil, fmt.Errorf("not a png stream")
	}

	texts := make(map[string]string)
	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return texts, nil
			}
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		length := binary.BigEndian.Uint32(header[:4])
		chunkType := string(header[4:8])

		switch chunkType {
		case "tEXt", "zTXt", "iTXt":
			if length > maxTextChunk {
				return nil, fmt.Errorf("%s chunk of %d bytes exceeds limit", chunkType, length)
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("read %s chunk: %w", chunkType, err)
			}
			key, text, err := decodeTextChunk(chunkType, data)
			if err == nil && key != "" {
				if _, dup := texts[key]; !dup {
					texts[key] = text
				}
			}
			if err := skip(r, 4); err != nil { // CRC
				return texts, nil
			}
		case "IEND":
			return texts, nil
		default:
			if err := skip(r, int64(length)+4); err != nil {
				return texts, nil
			}
		}
	}
}

func skip(r io.Reader, n int64) error {
	_, err := io.CopyN(io.Discard, r, n)
	return err
}

// decodeTextChunk splits one textual chunk into keyword and value,
// inflating compressed bodies where the chunk type calls for it.
func decodeTextChunk(chunkType string, data []byte) (string, string, error) {
	key, rest, found := bytes.Cut(data, []byte{0})
	if !found {
		return "", "", fmt.Errorf("missing keyword separator")
	}

	switch chunkType {
	case "tEXt":
		return string(key), string(rest), nil

	case "zTXt":
		if len(rest) < 1 {
			return "", "", fmt.Errorf("truncated zTXt body")
		}
		// rest[0] is the compression method; zlib is the only defined one.
		text, err := inflate(rest[1:])
		if err != nil {
			return "", "", err
		}
		return string(key), text, nil

	case "iTXt":
		// compressionFlag, compressionMethod, languageTag\0, translatedKeyword\0, text
		if len(rest) < 2 {
			return "", "", fmt.Errorf("truncated iTXt body")
		}
		compressed := rest[0] == 1
		rest = rest[2:]
		if _, rest, found = bytes.Cut(rest, []byte{0}); !found {
			return "", "", fmt.Errorf("missing language tag separator")
		}
		if _, rest, found = bytes.Cut(rest, []byte{0}); !found {
			return "", "", fmt.Errorf("missing translated keyword separator")
		}
		if !compressed {
			return string(key), string(rest), nil
		}
		text, err := inflate(rest)
		if err != nil {
			return "", "", err
		}
		return string(key), text, nil
	}
	return "", "", fmt.Errorf("unknown chunk type %s", chunkType)
}

func inflate(data []byte) (string, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open zlib stream: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxTextChunk))
	if err != nil {
		return "", fmt.Errorf("inflate chunk: %w", err)
	}
	return string(out), nil
}
