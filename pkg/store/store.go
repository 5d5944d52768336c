// Package store persists detection reports.
//
// A [Document] is the durable form of a pipeline report: summary fields
// for querying plus the full JSON report. [MongoStore] keeps documents in
// a MongoDB collection keyed by run id; [MemoryStore] keeps them in
// process and backs tests and the API when no database is configured.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/matzehuels/pardetect/pkg/pipeline"
)

// ErrNotFound is returned when no document has the requested run id.
var ErrNotFound = errors.New("report not found")

// Document is a stored report.
type Document struct {
	RunID       string         `bson:"_id" json:"run_id"`
	Fingerprint string         `bson:"fingerprint" json:"fingerprint"`
	Nodes       int            `bson:"nodes" json:"nodes"`
	Edges       int            `bson:"edges" json:"edges"`
	Counts      map[string]int `bson:"counts" json:"counts"`
	Report      string         `bson:"report" json:"-"`
	CreatedAt   time.Time      `bson:"created_at" json:"created_at"`
}

// NewDocument converts a report into a document stamped with now.
func NewDocument(rep *pipeline.Report, now time.Time) (*Document, error) {
	data, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	counts := make(map[string]int, len(rep.Counts))
	for p, n := range rep.Counts {
		counts[string(p)] = n
	}
	return &Document{
		RunID:       rep.RunID,
		Fingerprint: rep.Fingerprint,
		Nodes:       rep.Nodes,
		Edges:       rep.Edges,
		Counts:      counts,
		Report:      string(data),
		CreatedAt:   now.UTC(),
	}, nil
}

// Store saves and retrieves report documents.
type Store interface {
	Save(ctx context.Context, doc *Document) error
	Get(ctx context.Context, runID string) (*Document, error)
	// List returns up to limit documents, newest first.
	List(ctx context.Context, limit int) ([]*Document, error)
	Close(ctx context.Context) error
}

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

func (s *MemoryStore) Save(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	s.docs[doc.RunID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, runID string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]*Document, error) {
	s.mu.RLock()
	out := make([]*Document, 0, len(s.docs))
	for _, doc := range s.docs {
		cp := *doc
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RunID < out[j].RunID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
