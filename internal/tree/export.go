package tree

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fibertree/fibertree/internal/fiber"
	"github.com/fibertree/fibertree/internal/storage"
)

// exportVersion identifies the export document layout.
const exportVersion = "1"

// Document is the interchange form of a whole tree: the root id plus
// every live node record. Import of an exported document reconstructs a
// tree with identical structure and statistics.
type Document struct {
	Metadata Metadata                `json:"metadata"`
	Root     string                  `json:"root"`
	Fibers   map[string]*fiber.Fiber `json:"fibers"`
}

// Metadata describes an export document.
type Metadata struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	FiberCount int       `json:"fiber_count"`
}

// Export writes the whole tree as a single JSON document. Only nodes
// reachable from the root are included.
func (t *Tree) Export(w io.Writer) error {
	doc := Document{
		Root:   fiber.RootID,
		Fibers: make(map[string]*fiber.Fiber),
	}
	err := t.walk(func(f *fiber.Fiber, _ int, _ []fiber.Move) error {
		doc.Fibers[f.ID] = f
		return nil
	})
	if err != nil {
		return err
	}
	doc.Metadata = Metadata{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		FiberCount: len(doc.Fibers),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", fiber.ErrSerialization)
	}
	return nil
}

// Import reads an export document and reconstructs the tree into the
// given backend, replacing anything the backend already holds.
func Import(r io.Reader, store storage.Backend) (*Tree, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode export: %w", fiber.ErrSerialization)
	}
	if _, ok := doc.Fibers[doc.Root]; !ok {
		return nil, fmt.Errorf("export document has no root record: %w", fiber.ErrSerialization)
	}

	if err := store.Clear(); err != nil {
		return nil, err
	}
	for id, f := range doc.Fibers {
		if f.Children == nil {
			f.Children = make(map[string]string)
		}
		if err := store.Put(id, f); err != nil {
			return nil, err
		}
	}
	return New(store)
}

// Save exports the tree to a file.
func (t *Tree) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()
	if err := t.Export(f); err != nil {
		return err
	}
	return f.Close()
}

// Load imports a tree from a file into the given backend.
func Load(path string, store storage.Backend) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()
	return Import(f, store)
}
