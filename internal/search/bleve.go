package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperengineering/waypoint/internal/types"
)

// Compile-time interface check
var _ Searcher = (*BleveSearcher)(nil)

// BleveSearcher is an in-memory BM25 index over the workflow library.
// Documents carry only the searchable text; full workflow records are
// resolved from the side table by hit ID.
type BleveSearcher struct {
	mu        sync.RWMutex
	index     bleve.Index
	workflows map[string]types.Workflow
}

// NewBleveSearcher creates an empty in-memory searcher.
func NewBleveSearcher() (*BleveSearcher, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}

	return &BleveSearcher{
		index:     index,
		workflows: make(map[string]types.Workflow),
	}, nil
}

// buildIndexMapping creates the Bleve index mapping for workflow documents.
func buildIndexMapping() mapping.IndexMapping {
	workflowMapping := bleve.NewDocumentMapping()

	titleMapping := bleve.NewTextFieldMapping()
	workflowMapping.AddFieldMappingsAt("title", titleMapping)

	descMapping := bleve.NewTextFieldMapping()
	workflowMapping.AddFieldMappingsAt("description", descMapping)

	categoryMapping := bleve.NewTextFieldMapping()
	workflowMapping.AddFieldMappingsAt("category", categoryMapping)

	tagsMapping := bleve.NewTextFieldMapping()
	workflowMapping.AddFieldMappingsAt("tags", tagsMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", workflowMapping)

	return indexMapping
}

// Index replaces or inserts the given workflows in the index.
func (s *BleveSearcher) Index(workflows []types.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	for _, w := range workflows {
		doc := map[string]interface{}{
			"title":       w.Title,
			"description": w.Description,
			"category":    w.Category,
			"tags":        strings.Join(w.Tags, " "),
		}
		if err := batch.Index(w.ID, doc); err != nil {
			return fmt.Errorf("index workflow %s: %w", w.ID, err)
		}
		s.workflows[w.ID] = w
	}

	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("batch index workflows: %w", err)
	}

	return nil
}

// SearchWorkflows implements Searcher. An empty query matches every
// document (useful for the category-scoped popularity strategy). Bleve
// has no usage-count sort, so SortByPopularity re-sorts the hit set
// in process before truncation.
func (s *BleveSearcher) SearchWorkflows(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	// Fetch a wider window when re-sorting by popularity so truncation
	// happens after the sort, not before.
	fetch := limit
	if req.SortBy == SortByPopularity {
		fetch = limit * 4
	}

	searchRequest := bleve.NewSearchRequestOptions(s.buildQuery(req), fetch, 0, false)

	results, err := s.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	workflows := make([]types.Workflow, 0, len(results.Hits))
	for _, hit := range results.Hits {
		if w, ok := s.workflows[hit.ID]; ok {
			workflows = append(workflows, w)
		}
	}

	if req.SortBy == SortByPopularity {
		sort.SliceStable(workflows, func(i, j int) bool {
			return workflows[i].UsageCount > workflows[j].UsageCount
		})
	}
	if len(workflows) > limit {
		workflows = workflows[:limit]
	}

	return &Result{
		Workflows: workflows,
		Total:     int64(results.Total),
	}, nil
}

// Count returns the total number of indexed workflows.
func (s *BleveSearcher) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count, err := s.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("get doc count: %w", err)
	}
	return count, nil
}

// Close closes the index and releases resources.
func (s *BleveSearcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return s.index.Close()
	}
	return nil
}

func (s *BleveSearcher) buildQuery(req Request) query.Query {
	var base query.Query
	if strings.TrimSpace(req.Query) == "" {
		base = bleve.NewMatchAllQuery()
	} else {
		base = bleve.NewMatchQuery(req.Query)
	}

	if req.Category == "" {
		return base
	}

	categoryQuery := bleve.NewMatchQuery(req.Category)
	categoryQuery.SetField("category")
	return bleve.NewConjunctionQuery(base, categoryQuery)
}
