package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aevon-lab/aevon-search/internal/schema"
)

// ErrReadOnly is returned by mutating calls on a FileSystemRepository.
var ErrReadOnly = errors.New("schema repository is read-only")

// FileSystemRepository implements schema.Repository using the local file system.
// It expects a directory structure: root/{index}/v{version}.[yaml|proto]
// YAML files take precedence over protobuf files if both exist.
type FileSystemRepository struct {
	rootDir string
}

// NewFileSystemRepository creates a new file system backed repository.
func NewFileSystemRepository(rootDir string) *FileSystemRepository {
	return &FileSystemRepository{
		rootDir: rootDir,
	}
}

// Create is not supported; add .yaml or .proto files to the directory instead.
func (r *FileSystemRepository) Create(ctx context.Context, s *schema.Schema) error {
	ext := ".yaml"
	if s.Format == schema.FormatProtobuf {
		ext = ".proto"
	}
	return fmt.Errorf("%w: add %s", ErrReadOnly, filepath.Join(r.rootDir, s.Index, fmt.Sprintf("v%d%s", s.Version, ext)))
}

// Get reads one model version from disk.
func (r *FileSystemRepository) Get(ctx context.Context, key schema.Key) (*schema.Schema, error) {
	yamlPath := r.path(key, ".yaml")
	protoPath := r.path(key, ".proto")

	yamlExists := fileExists(yamlPath)
	protoExists := fileExists(protoPath)

	if yamlExists && protoExists {
		slog.Warn("Both .yaml and .proto exist for index model - using .yaml",
			"index", key.Index, "version", key.Version)
	}

	path, format := yamlPath, schema.FormatYaml
	switch {
	case yamlExists:
	case protoExists:
		path, format = protoPath, schema.FormatProtobuf
	default:
		return nil, schema.ErrNotFound
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s model: %w", format, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return buildSchema(key, content, format, info.ModTime()), nil
}

func (r *FileSystemRepository) path(key schema.Key, ext string) string {
	return filepath.Join(r.rootDir, key.Index, fmt.Sprintf("v%d%s", key.Version, ext))
}

func buildSchema(key schema.Key, content []byte, format schema.Format, modTime time.Time) *schema.Schema {
	return &schema.Schema{
		ID:          fmt.Sprintf("%s-%d", key.Index, key.Version),
		Index:       key.Index,
		Version:     key.Version,
		Format:      format,
		Definition:  content,
		Fingerprint: schema.ComputeFingerprint(content),
		State:       schema.StateActive, // files on disk are always active
		CreatedAt:   modTime.UTC(),
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// List scans root (or root/{index} when index is set) for model files.
func (r *FileSystemRepository) List(ctx context.Context, index string) ([]*schema.Schema, error) {
	if index != "" {
		return r.scanIndexDir(ctx, index)
	}

	entries, err := os.ReadDir(r.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*schema.Schema{}, nil
		}
		return nil, err
	}

	var result []*schema.Schema
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		schemas, err := r.scanIndexDir(ctx, entry.Name())
		if err != nil {
			return nil, err
		}
		result = append(result, schemas...)
	}
	return result, nil
}

func (r *FileSystemRepository) scanIndexDir(ctx context.Context, index string) ([]*schema.Schema, error) {
	entries, err := os.ReadDir(filepath.Join(r.rootDir, index))
	if err != nil {
		if os.IsNotExist(err) {
			return []*schema.Schema{}, nil
		}
		return nil, err
	}

	var schemas []*schema.Schema
	seen := make(map[int]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, ok := parseVersionFile(entry.Name())
		if !ok || seen[version] {
			continue
		}

		s, err := r.Get(ctx, schema.Key{Index: index, Version: version})
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
		seen[version] = true
	}
	return schemas, nil
}

// parseVersionFile accepts "v{n}.yaml" and "v{n}.proto".
func parseVersionFile(name string) (int, bool) {
	ext := filepath.Ext(name)
	if ext != ".yaml" && ext != ".proto" {
		return 0, false
	}
	if !strings.HasPrefix(name, "v") {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "v"), ext))
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

// UpdateState is not supported in read-only mode.
func (r *FileSystemRepository) UpdateState(ctx context.Context, key schema.Key, state schema.State) error {
	return fmt.Errorf("%w: cannot change state of %s", ErrReadOnly, key)
}

// Delete is not supported in read-only mode.
func (r *FileSystemRepository) Delete(ctx context.Context, key schema.Key) error {
	return fmt.Errorf("%w: remove %s instead", ErrReadOnly, r.path(key, ".yaml"))
}
