// Package file provides file-based persistence for workflows, executions,
// agents and conversations. Each entity is one JSON document under a
// per-kind subdirectory of the root.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/prodflow/prodflow/pkg/persistence"
)

const (
	workflowsDir     = "workflows"
	executionsDir    = "executions"
	agentsDir        = "agents"
	conversationsDir = "conversations"
)

// Persistence implements persistence.Persistence on the local file system.
// A single mutex serializes writes; the interpreter guarantees one logical
// stepper per execution, so this only guards unrelated entities sharing the
// directory tree.
type Persistence struct {
	root string
	mu   sync.Mutex
}

// NewPersistence creates a file persistence rooted at the given directory,
// accepting either a plain path or a file:// URL.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs cleanup. For file persistence there is nothing to close.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) write(kind, id string, entity any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dir := filepath.Join(p.root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(entity, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", kind, id, err)
	}

	path := filepath.Join(dir, id+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func (p *Persistence) read(kind, id string, entity any, notFound error) error {
	path := filepath.Join(p.root, kind, id+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound
		}

		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal %s %s: %w", kind, id, err)
	}

	return nil
}

func (p *Persistence) remove(kind, id string, notFound error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	path := filepath.Join(p.root, kind, id+".json")

	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return notFound
	}

	return err
}

func (p *Persistence) ids(kind string) ([]string, error) {
	root := os.DirFS(filepath.Join(p.root, kind))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", kind, err)
	}

	ids := make([]string, 0, len(jsonFiles))
	for _, file := range jsonFiles {
		ids = append(ids, strings.TrimSuffix(file, ".json"))
	}

	return ids, nil
}

var _ persistence.Persistence = (*Persistence)(nil)
