package vector

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Binary embedding encoding: 2-byte magic "FW", 1-byte version, uint16
// dimension (little-endian), then dim float32 values (little-endian).
// The explicit dimension field lets readers reject vectors written with a
// different embedding model instead of silently misinterpreting them.

const (
	codecVersion  = 1
	headerSize    = 2 + 1 + 2 // magic + version + dim
	maxDimensions = math.MaxUint16
)

var codecMagic = [2]byte{'F', 'W'}

// Encode serializes an embedding into the versioned binary format.
func Encode(embedding []float32) ([]byte, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("cannot encode empty embedding")
	}
	if len(embedding) > maxDimensions {
		return nil, fmt.Errorf("embedding dimension %d exceeds maximum %d", len(embedding), maxDimensions)
	}

	buf := make([]byte, headerSize+4*len(embedding))
	buf[0] = codecMagic[0]
	buf[1] = codecMagic[1]
	buf[2] = codecVersion
	binary.LittleEndian.PutUint16(buf[3:5], uint16(len(embedding)))

	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[headerSize+4*i:], math.Float32bits(v))
	}
	return buf, nil
}

// Decode parses the versioned binary format back into an embedding.
// If wantDim > 0 the encoded dimension must match it exactly.
func Decode(data []byte, wantDim int) ([]float32, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("encoded embedding too short (%d bytes)", len(data))
	}
	if data[0] != codecMagic[0] || data[1] != codecMagic[1] {
		return nil, fmt.Errorf("invalid embedding magic %q", string(data[:2]))
	}
	if data[2] != codecVersion {
		return nil, fmt.Errorf("unsupported embedding codec version %d", data[2])
	}

	dim := int(binary.LittleEndian.Uint16(data[3:5]))
	if dim == 0 {
		return nil, fmt.Errorf("encoded embedding has zero dimension")
	}
	if wantDim > 0 && dim != wantDim {
		return nil, fmt.Errorf("embedding dimension mismatch: encoded %d, expected %d", dim, wantDim)
	}
	if len(data) != headerSize+4*dim {
		return nil, fmt.Errorf("encoded embedding length %d does not match dimension %d", len(data), dim)
	}

	embedding := make([]float32, dim)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[headerSize+4*i:]))
	}
	return embedding, nil
}

// ParseLegacyText parses the old comma-delimited text descriptor format used
// by the previous hosted backend. Only the MariaDB import path accepts it.
func ParseLegacyText(text string, wantDim int) ([]float32, error) {
	parts := strings.Split(strings.TrimSpace(text), ",")
	if len(parts) == 0 || (len(parts) == 1 && parts[0] == "") {
		return nil, fmt.Errorf("empty descriptor")
	}
	if wantDim > 0 && len(parts) != wantDim {
		return nil, fmt.Errorf("descriptor dimension mismatch: got %d values, expected %d", len(parts), wantDim)
	}

	embedding := make([]float32, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid descriptor value at index %d: %w", i, err)
		}
		embedding[i] = float32(v)
	}
	return embedding, nil
}
