package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/sosostris/german-english-bilingual-reader/internal/storage"
	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// ErrNotFound is returned for unknown text ids and out-of-range pages
var ErrNotFound = errors.New("text or page not found")

// Repository provides read access to the text library
type Repository interface {
	// List returns metadata for every text in the library
	List(ctx context.Context) ([]*types.TextMetadata, error)

	// GetPage retrieves one page of a text. Pages are 0-indexed.
	GetPage(ctx context.Context, textID string, page int) (*types.PageData, error)

	// GetMetadata retrieves the metadata for a single text
	GetMetadata(ctx context.Context, textID string) (*types.TextMetadata, error)
}

// StorageRepository reads a folder-per-text layout from a storage
// adapter: {prefix}/{id}/metadata.json plus {prefix}/{id}/page-NNN.json,
// where NNN is the 1-indexed page number.
type StorageRepository struct {
	storage storage.Adapter
	prefix  string
}

// NewRepository creates a text library repository over the given adapter
func NewRepository(adapter storage.Adapter, prefix string) *StorageRepository {
	return &StorageRepository{
		storage: adapter,
		prefix:  prefix,
	}
}

// List returns metadata for every text in the library. Folders without a
// readable metadata.json are skipped.
func (r *StorageRepository) List(ctx context.Context) ([]*types.TextMetadata, error) {
	paths, err := r.storage.List(ctx, r.prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to list library: %w", err)
	}

	texts := make([]*types.TextMetadata, 0)
	for _, p := range paths {
		if path.Base(p) != "metadata.json" {
			continue
		}

		meta, err := r.readMetadata(ctx, p)
		if err != nil {
			continue // skip unreadable entries
		}

		// Derive the text id from the folder name when the file omits it
		if meta.ID == "" {
			meta.ID = path.Base(path.Dir(p))
		}
		texts = append(texts, meta)
	}

	sort.Slice(texts, func(i, j int) bool { return texts[i].ID < texts[j].ID })
	return texts, nil
}

// GetMetadata retrieves the metadata for a single text
func (r *StorageRepository) GetMetadata(ctx context.Context, textID string) (*types.TextMetadata, error) {
	metaPath := path.Join(r.prefix, textID, "metadata.json")

	exists, err := r.storage.Exists(ctx, metaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check text %s: %w", textID, err)
	}
	if !exists {
		return nil, fmt.Errorf("text %s: %w", textID, ErrNotFound)
	}

	meta, err := r.readMetadata(ctx, metaPath)
	if err != nil {
		return nil, err
	}
	if meta.ID == "" {
		meta.ID = textID
	}
	return meta, nil
}

// GetPage retrieves one page of a text. The page number is 0-indexed;
// page files on disk are 1-indexed.
func (r *StorageRepository) GetPage(ctx context.Context, textID string, page int) (*types.PageData, error) {
	meta, err := r.GetMetadata(ctx, textID)
	if err != nil {
		return nil, err
	}

	if page < 0 || page >= meta.TotalPages {
		return nil, fmt.Errorf("page %d of text %s: %w", page, textID, ErrNotFound)
	}

	pagePath := path.Join(r.prefix, textID, fmt.Sprintf("page-%03d.json", page+1))
	reader, err := r.storage.Get(ctx, pagePath)
	if err != nil {
		return nil, fmt.Errorf("page %d of text %s: %w", page, textID, ErrNotFound)
	}
	defer reader.Close()

	var pg types.Page
	if err := json.NewDecoder(reader).Decode(&pg); err != nil {
		return nil, fmt.Errorf("failed to decode page %d of text %s: %w", page, textID, err)
	}

	// Page files carry the 1-indexed number; normalize to internal indexing
	pg.Number = page

	return &types.PageData{
		TextID:     textID,
		Page:       &pg,
		Metadata:   meta,
		TotalPages: meta.TotalPages,
	}, nil
}

func (r *StorageRepository) readMetadata(ctx context.Context, metaPath string) (*types.TextMetadata, error) {
	reader, err := r.storage.Get(ctx, metaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", metaPath, err)
	}
	defer reader.Close()

	var meta types.TextMetadata
	if err := json.NewDecoder(reader).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", metaPath, err)
	}
	return &meta, nil
}

// WriteText stores a text's metadata and pages. Used by fixtures and the
// import tooling; the reading path never mutates the library.
func WriteText(ctx context.Context, adapter storage.Adapter, prefix string, meta *types.TextMetadata, pages []*types.Page) error {
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	metaPath := path.Join(prefix, meta.ID, "metadata.json")
	if err := adapter.Put(ctx, metaPath, bytes.NewReader(metaData)); err != nil {
		return fmt.Errorf("failed to store metadata: %w", err)
	}

	for i, pg := range pages {
		// Stored page files use 1-indexed numbers
		stored := *pg
		stored.Number = i + 1

		data, err := json.Marshal(&stored)
		if err != nil {
			return fmt.Errorf("failed to marshal page %d: %w", i, err)
		}
		pagePath := path.Join(prefix, meta.ID, fmt.Sprintf("page-%03d.json", i+1))
		if err := adapter.Put(ctx, pagePath, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("failed to store page %d: %w", i, err)
		}
	}

	return nil
}
