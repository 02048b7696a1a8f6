package database

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/coder/hnsw"
)

// HNSWIndexMetadata stores metadata for validating cached HNSW indexes.
type HNSWIndexMetadata struct {
	IdentityCount int64     `json:"identity_count"`
	MaxIdentityID int64     `json:"max_identity_id"`
	BuildTime     time.Time `json:"build_time"`
	Version       int       `json:"version"` // For future compatibility
}

const hnswMetadataVersion = 1

// HNSWIndex wraps the HNSW graph for identity embedding search.
type HNSWIndex struct {
	graph      *hnsw.Graph[int64]
	savedGraph *hnsw.SavedGraph[int64] // For persistence
	idToIdent  map[int64]*StoredIdentity
	mu         sync.RWMutex
	path       string // Path to save/load index
}

// NewHNSWIndex creates a new empty HNSW index.
func NewHNSWIndex() *HNSWIndex {
	return &HNSWIndex{
		idToIdent: make(map[int64]*StoredIdentity),
	}
}

func newIdentityGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	// Euclidean distance matches the controller's metric so index results
	// rank identically to a linear scan.
	g.Distance = hnsw.EuclideanDistance
	return g
}

// BuildFromIdentities builds the index from a slice of identities.
func (h *HNSWIndex) BuildFromIdentities(identities []StoredIdentity) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(identities) == 0 {
		h.graph = nil
		h.savedGraph = nil
		h.idToIdent = make(map[int64]*StoredIdentity)
		return nil
	}

	g := newIdentityGraph()
	h.idToIdent = make(map[int64]*StoredIdentity, len(identities))

	for i := range identities {
		ident := &identities[i]
		if len(ident.Embedding) == 0 {
			continue
		}

		g.Add(hnsw.MakeNode(ident.ID, ident.Embedding))
		h.idToIdent[ident.ID] = ident
	}

	h.graph = g
	return nil
}

// Search finds the k nearest neighbors to the query embedding.
// Returns identity IDs and their Euclidean distances.
func (h *HNSWIndex) Search(query []float32, k int) ([]int64, []float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil && h.savedGraph == nil {
		return nil, nil, errors.New("index not initialized")
	}

	var neighbors []hnsw.Node[int64]
	if h.savedGraph != nil {
		neighbors = h.savedGraph.Search(query, k)
	} else {
		neighbors = h.graph.Search(query, k)
	}

	ids := make([]int64, 0, len(neighbors))
	distances := make([]float64, 0, len(neighbors))

	for _, n := range neighbors {
		// Deleted identities stay in the graph but are filtered by lookup.
		if _, ok := h.idToIdent[n.Key]; !ok {
			continue
		}
		ids = append(ids, n.Key)
		distances = append(distances, float64(hnsw.EuclideanDistance(query, n.Value)))
	}

	return ids, distances, nil
}

// GetIdentity returns the identity for a given ID.
func (h *HNSWIndex) GetIdentity(id int64) *StoredIdentity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.idToIdent[id]
}

// Add adds a single identity to the index.
func (h *HNSWIndex) Add(identity *StoredIdentity) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(identity.Embedding) == 0 {
		return nil
	}

	if h.graph == nil {
		h.graph = newIdentityGraph()
	}

	h.graph.Add(hnsw.MakeNode(identity.ID, identity.Embedding))
	h.idToIdent[identity.ID] = identity

	return nil
}

// Delete removes an identity from the index (marks as deleted).
func (h *HNSWIndex) Delete(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.idToIdent, id)
	// HNSW doesn't support true deletion; removing from idToIdent
	// effectively removes it from search results since we filter by lookup.
}

// Count returns the number of indexed identities.
func (h *HNSWIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.idToIdent)
}

// IsEmpty returns true if the index has no graph data loaded.
func (h *HNSWIndex) IsEmpty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph == nil && h.savedGraph == nil
}

// SetPath sets the path for saving/loading the index.
func (h *HNSWIndex) SetPath(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.path = path
}

// Save persists the index, its metadata, and the identity records to disk.
func (h *HNSWIndex) Save(metadata HNSWIndexMetadata) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.path == "" {
		return nil // No path set
	}

	if h.graph == nil && h.savedGraph == nil {
		// Remove existing files if index is empty (best-effort cleanup).
		_ = os.Remove(h.path)
		_ = os.Remove(h.path + ".meta")
		_ = os.Remove(h.path + ".identities")
		return nil
	}

	f, err := os.Create(h.path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to create HNSW index file: %w", err)
	}
	defer f.Close()

	if h.savedGraph != nil {
		err = h.savedGraph.Export(f)
	} else {
		err = h.graph.Export(f)
	}
	if err != nil {
		return fmt.Errorf("exporting HNSW graph: %w", err)
	}

	metadata.Version = hnswMetadataVersion
	metaData, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(h.path+".meta", metaData, 0600); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	identities := make([]StoredIdentity, 0, len(h.idToIdent))
	for _, ident := range h.idToIdent {
		identities = append(identities, *ident)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(identities); err != nil {
		return fmt.Errorf("failed to encode identities: %w", err)
	}
	if err := os.WriteFile(h.path+".identities", buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write identities file: %w", err)
	}

	return nil
}

// Load loads the index and identity records from disk.
// Returns os.ErrNotExist if no index file is present at the path.
func (h *HNSWIndex) Load(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.path = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	saved, err := hnsw.LoadSavedGraph[int64](path)
	if err != nil {
		return fmt.Errorf("failed to load HNSW index: %w", err)
	}

	data, err := os.ReadFile(path + ".identities") //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to read identities file: %w", err)
	}

	var identities []StoredIdentity
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&identities); err != nil {
		return fmt.Errorf("failed to decode identities: %w", err)
	}

	h.savedGraph = saved
	h.idToIdent = make(map[int64]*StoredIdentity, len(identities))
	for i := range identities {
		h.idToIdent[identities[i].ID] = &identities[i]
	}

	return nil
}

// LoadHNSWMetadata loads metadata from a separate .meta file.
func LoadHNSWMetadata(path string) (HNSWIndexMetadata, error) {
	var metadata HNSWIndexMetadata

	data, err := os.ReadFile(path + ".meta") //nolint:gosec // path is from trusted config
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata file: %w", err)
	}

	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return metadata, nil
}
