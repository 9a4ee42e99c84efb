// Package milvus indexes ticket TF-IDF vectors so classified tickets can be
// looked up by similarity.
package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/ticket-triage/backend/pkg/logger"
)

type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

type TicketVector struct {
	Reference string
	Vector    []float32
	Subject   string
	Category  string
	Timestamp time.Time
}

type SearchResult struct {
	Reference string
	Subject   string
	Category  string
	Score     float32
}

func NewClient(endpoint, collectionName string, vectorDim int) (*Client, error) {
	c, err := client.NewGrpcClient(
		context.Background(),
		endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

func (m *Client) CreateCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if has {
		logger.Info("Collection already exists", zap.String("collection", m.collectionName))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "Support ticket TF-IDF vectors",
		Fields: []*entity.Field{
			{
				Name:       "reference",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "32",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.vectorDim),
				},
			},
			{
				Name:     "subject",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "category",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "32",
				},
			},
			{
				Name:     "timestamp",
				DataType: entity.FieldTypeInt64,
			},
		},
	}

	err = m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := vectorIndex()
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	err = m.client.CreateIndex(ctx, m.collectionName, "vector", idx, false)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = m.client.LoadCollection(ctx, m.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", m.collectionName))

	return nil
}

func (m *Client) Insert(ctx context.Context, vectors []TicketVector) error {
	if len(vectors) == 0 {
		return nil
	}

	references := make([]string, len(vectors))
	embeddings := make([][]float32, len(vectors))
	subjects := make([]string, len(vectors))
	categories := make([]string, len(vectors))
	timestamps := make([]int64, len(vectors))

	for i, v := range vectors {
		references[i] = v.Reference
		embeddings[i] = v.Vector
		subjects[i] = v.Subject
		categories[i] = v.Category
		timestamps[i] = v.Timestamp.Unix()
	}

	_, err := m.client.Insert(
		ctx,
		m.collectionName,
		"",
		entity.NewColumnVarChar("reference", references),
		entity.NewColumnFloatVector("vector", m.vectorDim, embeddings),
		entity.NewColumnVarChar("subject", subjects),
		entity.NewColumnVarChar("category", categories),
		entity.NewColumnInt64("timestamp", timestamps),
	)

	if err != nil {
		return fmt.Errorf("failed to insert vectors: %w", err)
	}

	err = m.client.Flush(ctx, m.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Ticket vectors inserted", zap.Int("count", len(vectors)))

	return nil
}

// Search returns the topK nearest tickets. Pass a category to restrict the
// search to tickets classified under it.
func (m *Client) Search(ctx context.Context, queryVector []float32, topK int, category string) ([]SearchResult, error) {
	expr := ""
	if category != "" {
		expr = fmt.Sprintf(`category == "%s"`, category)
	}

	sp, err := searchParam()
	if err != nil {
		return nil, fmt.Errorf("failed to build search param: %w", err)
	}

	searchResult, err := m.client.Search(
		ctx,
		m.collectionName,
		[]string{},
		expr,
		[]string{"reference", "subject", "category"},
		[]entity.Vector{entity.FloatVector(queryVector)},
		"vector",
		entity.L2,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0)
	for _, sr := range searchResult {
		for i := 0; i < sr.ResultCount; i++ {
			referenceCol := sr.Fields.GetColumn("reference")
			subjectCol := sr.Fields.GetColumn("subject")
			categoryCol := sr.Fields.GetColumn("category")

			reference, _ := referenceCol.Get(i)
			subject, _ := subjectCol.Get(i)
			cat, _ := categoryCol.Get(i)

			results = append(results, SearchResult{
				Reference: reference.(string),
				Subject:   subject.(string),
				Category:  cat.(string),
				Score:     sr.Scores[i],
			})
		}
	}

	logger.Debug("Vector search completed",
		zap.Int("topK", topK),
		zap.Int("results", len(results)),
		zap.String("filter", expr),
	)

	return results, nil
}

// IVF_FLAT over L2: the collection holds at most a few thousand sparse
// TF-IDF vectors, so a flat inverted index is plenty.
const (
	indexNlist  = 1024
	searchProbe = 16
)

func vectorIndex() (entity.Index, error) {
	return entity.NewIndexIvfFlat(entity.L2, indexNlist)
}

func searchParam() (entity.SearchParam, error) {
	return entity.NewIndexIvfFlatSearchParam(searchProbe)
}

// Float32s converts a TF-IDF vector to the float32 form milvus stores.
func Float32s(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
