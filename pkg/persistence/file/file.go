// Package file provides a filesystem-backed implementation of the
// persistence port. Each entity kind lives in its own directory of JSON
// documents under a configurable root. It is the default store for local
// and single-operator deployments.
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
)

const (
	workflowsDir   = "workflows"
	stepsDir       = "steps"
	dataSourcesDir = "datasources"
	logsDir        = "logs"
	queueDir       = "queue"
)

// Persistence is the file-backed store. It implements persistence.Persistence.
type Persistence struct {
	root string
}

func NewPersistence(root string) *Persistence {
	root = strings.TrimPrefix(root, "file://")

	return &Persistence{root: root}
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(p.root)
	if err != nil {
		return fmt.Errorf("persistence root %s not usable: %w", p.root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("persistence root %s is not a directory", p.root)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) dir(kind string) string {
	return filepath.Join(p.root, kind)
}

func (p *Persistence) path(kind, id string) string {
	return filepath.Join(p.root, kind, id+".json")
}

func (p *Persistence) read(kind, id string, out any) error {
	data, err := os.ReadFile(p.path(kind, id))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

func (p *Persistence) write(kind, id string, in any) error {
	if err := os.MkdirAll(p.dir(kind), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(p.path(kind, id), data, 0o644)
}

func (p *Persistence) remove(kind, id string) error {
	return os.Remove(p.path(kind, id))
}

func (p *Persistence) list(kind string) ([]string, error) {
	root := os.DirFS(p.dir(kind))

	files, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, strings.TrimSuffix(f, ".json"))
	}

	return ids, nil
}

func notExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
