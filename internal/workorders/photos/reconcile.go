// Package photos merges kept, removed, and newly submitted photo references
// into one consistent ordered URL list per logical field.
package photos

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/sync/errgroup"
)

// maxParallelUploads bounds concurrent uploads per reconciliation pass.
const maxParallelUploads = 4

// ObjectStore is the narrow storage contract the engine needs. Both methods
// must be safe for concurrent use.
type ObjectStore interface {
	// Put stores the object and returns its public URL.
	Put(ctx context.Context, storagePath string, data []byte, contentType string) (string, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, storagePath string) error
}

// Upload is one raw file submitted for a logical field.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Asset describes one successfully stored photo.
type Asset struct {
	URL          string
	StoragePath  string
	LogicalField string
	UploadedAt   time.Time
	// CapturedAt is the EXIF original-capture timestamp when the file
	// carries one; nil otherwise.
	CapturedAt *time.Time
}

// Warning records one non-fatal storage failure. Reconciliation always runs
// to completion; the caller decides whether to surface warnings to the actor.
type Warning struct {
	Operation string `json:"operation"` // "delete" or "upload"
	Field     string `json:"field,omitempty"`
	Path      string `json:"path"`
	Reason    string `json:"reason"`
}

// Request is one reconciliation operation.
type Request struct {
	// Existing maps field name to the URL list currently persisted.
	Existing map[string][]string
	// KeepPaths lists the URLs the caller wants retained. Anything existing
	// and not kept is removed; the remove set is never caller-supplied.
	KeepPaths []string
	// NewUploads maps field name to the ordered raw files to store.
	NewUploads map[string][]Upload
	// PathPrefix namespaces generated storage keys (e.g. the work-order id).
	PathPrefix string
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	// MergedByField holds, per field, the ordered URL list the field's photos
	// will have after this operation: kept URLs first (existing order), then
	// newly uploaded URLs in submission order. Every field that had existing
	// photos or received uploads is present, possibly with an empty list.
	MergedByField map[string][]string
	Assets        []Asset
	Warnings      []Warning
}

// Engine performs photo reconciliation against an object store.
type Engine struct {
	store ObjectStore
	now   func() time.Time
}

// NewEngine creates a reconciliation engine.
func NewEngine(store ObjectStore) *Engine {
	return &Engine{store: store, now: time.Now}
}

// Reconcile computes and applies the minimum storage side effects for the
// request, then returns the merged per-field URL lists. Individual delete and
// upload failures become warnings and never abort the pass. Generated storage
// keys are unique per call, so re-running a pass cannot corrupt state.
func (e *Engine) Reconcile(ctx context.Context, req Request) Result {
	keep := make(map[string]bool, len(req.KeepPaths))
	for _, p := range req.KeepPaths {
		keep[p] = true
	}

	result := Result{MergedByField: make(map[string][]string)}

	// Phase 1: best-effort deletes of everything existing but not kept.
	for field, urls := range req.Existing {
		kept := make([]string, 0, len(urls))
		for _, url := range urls {
			if keep[url] {
				kept = append(kept, url)
				continue
			}
			if err := e.store.Delete(ctx, url); err != nil {
				result.Warnings = append(result.Warnings, Warning{
					Operation: "delete",
					Field:     field,
					Path:      url,
					Reason:    err.Error(),
				})
			}
		}
		result.MergedByField[field] = kept
	}

	// Phase 2: uploads, bounded-parallel but index-addressed so the merged
	// order always matches submission order.
	var mu sync.Mutex
	for field, uploads := range req.NewUploads {
		if _, ok := result.MergedByField[field]; !ok {
			result.MergedByField[field] = []string{}
		}

		urls := make([]string, len(uploads))
		assets := make([]Asset, len(uploads))
		stored := make([]bool, len(uploads))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxParallelUploads)
		for i, up := range uploads {
			i, up := i, up
			g.Go(func() error {
				storagePath := e.generatePath(req.PathPrefix, field, i, up.FileName)
				url, err := e.store.Put(gctx, storagePath, up.Data, up.ContentType)
				if err != nil {
					mu.Lock()
					result.Warnings = append(result.Warnings, Warning{
						Operation: "upload",
						Field:     field,
						Path:      storagePath,
						Reason:    err.Error(),
					})
					mu.Unlock()
					return nil
				}
				urls[i] = url
				assets[i] = Asset{
					URL:          url,
					StoragePath:  storagePath,
					LogicalField: field,
					UploadedAt:   e.now(),
					CapturedAt:   captureTime(up.Data),
				}
				stored[i] = true
				return nil
			})
		}
		// Workers only record warnings, never return errors.
		_ = g.Wait()

		for i := range uploads {
			if !stored[i] {
				continue
			}
			result.MergedByField[field] = append(result.MergedByField[field], urls[i])
			result.Assets = append(result.Assets, assets[i])
		}
	}

	sortAssets(result.Assets)
	return result
}

// generatePath builds a unique storage key. The uuid suffix guarantees a key
// is never reused across calls, which keeps retried passes harmless.
func (e *Engine) generatePath(prefix, field string, index int, fileName string) string {
	ext := path.Ext(fileName)
	ts := e.now().UnixMilli()
	key := fmt.Sprintf("%s-%d-%d_%s%s", field, ts, index, uuid.New().String()[:8], ext)
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// captureTime extracts the EXIF original-capture timestamp from image bytes.
// Files without EXIF data (or non-images) simply yield nil.
func captureTime(data []byte) *time.Time {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	t, err := x.DateTime()
	if err != nil {
		return nil
	}
	return &t
}

func sortAssets(assets []Asset) {
	sort.SliceStable(assets, func(i, j int) bool {
		if assets[i].LogicalField != assets[j].LogicalField {
			return assets[i].LogicalField < assets[j].LogicalField
		}
		return assets[i].StoragePath < assets[j].StoragePath
	})
}
