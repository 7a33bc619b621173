package storage

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/stacklok/country-registry/internal/service"
)

const (
	snapshotSchemaURL = "https://stacklok.dev/schemas/country-registry/snapshot.json"
	lockRetryDelay    = 50 * time.Millisecond
)

//go:embed schema/countries.schema.json
var snapshotSchemaJSON []byte

var compileSnapshotSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(snapshotSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(snapshotSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add snapshot schema: %w", err)
	}
	return c.Compile(snapshotSchemaURL)
})

// filePersister keeps the snapshot as a JSON array on the local filesystem
type filePersister struct {
	path   string
	lock   *flock.Flock
	schema *jsonschema.Schema
}

// NewFilePersister creates a JSON file persister writing to path.
// A sibling "<path>.lock" file serializes writers across processes.
func NewFilePersister(path string) (Persister, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}

	schema, err := compileSnapshotSchema()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	return &filePersister{
		path:   path,
		lock:   flock.New(path + ".lock"),
		schema: schema,
	}, nil
}

func (f *filePersister) Load(ctx context.Context) ([]service.Country, error) {
	if err := f.acquire(ctx); err != nil {
		return nil, err
	}
	defer f.release()

	// #nosec G304 -- path comes from the operator supplied configuration
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", f.path, err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s is not valid JSON: %w", f.path, err)
	}
	if err := f.schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("snapshot %s does not match the expected format: %w", f.path, err)
	}

	var countries []service.Country
	if err := json.Unmarshal(data, &countries); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", f.path, err)
	}
	return countries, nil
}

func (f *filePersister) Save(ctx context.Context, countries []service.Country) error {
	if countries == nil {
		countries = []service.Country{}
	}

	data, err := json.MarshalIndent(countries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := f.acquire(ctx); err != nil {
		return err
	}
	defer f.release()

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary snapshot: %w", err)
	}

	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to replace snapshot %s: %w", f.path, err)
	}

	return nil
}

func (f *filePersister) Ping(context.Context) error {
	info, err := os.Stat(filepath.Dir(f.path))
	if err != nil {
		return fmt.Errorf("snapshot directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(f.path))
	}
	return nil
}

func (f *filePersister) Source() string {
	return "file:" + f.path
}

func (f *filePersister) Close() error {
	return f.lock.Close()
}

func (f *filePersister) acquire(ctx context.Context) error {
	locked, err := f.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", f.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("failed to lock %s", f.lock.Path())
	}
	return nil
}

func (f *filePersister) release() {
	_ = f.lock.Unlock()
}
