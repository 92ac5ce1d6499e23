package company

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

const defaultDocumentLimit = 5

// Embedder turns text into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PointQuerier is the subset of *qdrant.Client used for search.
type PointQuerier interface {
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

// DocumentHit is one search result.
type DocumentHit struct {
	ID       string                 `json:"id"`
	Score    float32                `json:"score"`
	Content  string                 `json:"content"`
	Filename string                 `json:"filename,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// DocumentSearch runs semantic search over a tenant's Qdrant collection.
type DocumentSearch struct {
	Description string
	points      PointQuerier
	embedder    Embedder
	collection  string
	limit       int
}

// NewQdrantClient connects to Qdrant over gRPC.
func NewQdrantClient(host string, port int, apiKey string, useTLS bool) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return client, nil
}

// NewDocumentSearch creates a searcher for one collection.
func NewDocumentSearch(points PointQuerier, embedder Embedder, collection, description string, limit int) *DocumentSearch {
	if limit <= 0 {
		limit = defaultDocumentLimit
	}
	return &DocumentSearch{
		Description: description,
		points:      points,
		embedder:    embedder,
		collection:  collection,
		limit:       limit,
	}
}

// Search returns the passages closest to query, optionally restricted to a document type.
func (d *DocumentSearch) Search(ctx context.Context, query, documentType string) ([]DocumentHit, error) {
	vector, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	limit := uint64(d.limit)
	req := &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if documentType != "" {
		req.Filter = &qdrant.Filter{Must: []*qdrant.Condition{{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   "document_type",
					Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: documentType}},
				},
			},
		}}}
	}

	points, err := d.points.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	hits := make([]DocumentHit, 0, len(points))
	for _, point := range points {
		hit := DocumentHit{Score: point.Score, Metadata: make(map[string]interface{})}

		if point.Id != nil {
			if id := point.Id.GetUuid(); id != "" {
				hit.ID = id
			} else {
				hit.ID = fmt.Sprintf("%d", point.Id.GetNum())
			}
		}

		for k, v := range point.Payload {
			switch k {
			case "content":
				hit.Content = v.GetStringValue()
			case "filename":
				hit.Filename = v.GetStringValue()
			default:
				hit.Metadata[k] = extractValue(v)
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// extractValue converts a Qdrant payload value to a plain Go value.
func extractValue(v *qdrant.Value) interface{} {
	if v == nil {
		return nil
	}

	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_ListValue:
		out := make([]interface{}, 0, len(val.ListValue.GetValues()))
		for _, item := range val.ListValue.GetValues() {
			out = append(out, extractValue(item))
		}
		return out
	case *qdrant.Value_StructValue:
		out := make(map[string]interface{}, len(val.StructValue.GetFields()))
		for k, item := range val.StructValue.GetFields() {
			out[k] = extractValue(item)
		}
		return out
	default:
		return nil
	}
}
