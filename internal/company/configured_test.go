package company

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qdrant/go-client/qdrant"

	"tenantchat/internal/domain/models"
)

func openSalesDB(t *testing.T) *SQLSource {
	t.Helper()
	db, err := sql.Open(DriverSQLite, filepath.Join(t.TempDir(), "sales.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer TEXT, total REAL)`,
		`CREATE TABLE audit (id INTEGER PRIMARY KEY, note TEXT)`,
		`INSERT INTO orders (customer, total) VALUES ('ana', 10.5), ('bo', 20)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	return NewSQLSource("sales", DriverSQLite, "Order history", []string{"orders"}, db)
}

type fakeEmbedder struct{ texts []string }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.texts = append(f.texts, text)
	return []float32{0.1, 0.2}, nil
}

type fakePoints struct {
	last   *qdrant.QueryPoints
	points []*qdrant.ScoredPoint
}

func (f *fakePoints) Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.last = req
	return f.points, nil
}

func newAcme(t *testing.T, points *fakePoints, embedder *fakeEmbedder) *ConfiguredCompany {
	cfg := &models.CompanyConfig{
		ShortName:     "acme",
		Name:          "Acme Corp",
		Instructions:  "Be brief.",
		FilenameRules: []models.FilenameRule{{Prefix: "INV_", DocumentType: "invoice"}},
	}
	docs := NewDocumentSearch(points, embedder, "acme_docs", "Contracts and invoices", 3)
	return NewConfiguredCompany(cfg, []*SQLSource{openSalesDB(t)}, docs, discardLogger())
}

func TestConfiguredCompany_Context(t *testing.T) {
	c := newAcme(t, &fakePoints{}, &fakeEmbedder{})

	text, err := c.GetCompanyContext(context.Background())
	if err != nil {
		t.Fatalf("GetCompanyContext() error = %v", err)
	}

	for _, want := range []string{"# Acme Corp", "Be brief.", "orders(id integer, customer text, total real)", "Contracts and invoices", ActionDocumentSearch} {
		if !strings.Contains(text, want) {
			t.Errorf("context missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "audit") {
		t.Errorf("context exposes a table outside the allow list:\n%s", text)
	}

	if tools := c.Tools(); len(tools) != 2 {
		t.Errorf("Tools() = %d, want 2", len(tools))
	}
}

func TestConfiguredCompany_SQLQuery(t *testing.T) {
	c := newAcme(t, &fakePoints{}, &fakeEmbedder{})
	ctx := context.Background()

	result, err := c.HandleRequest(ctx, ActionSQLQuery, map[string]interface{}{
		"source": "sales",
		"query":  "SELECT customer, total FROM orders ORDER BY id;",
	})
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}
	rows := result.([]map[string]interface{})
	if len(rows) != 2 || rows[0]["customer"] != "ana" {
		t.Errorf("rows = %v", rows)
	}

	rejected := []string{
		"DELETE FROM orders",
		"SELECT 1; DROP TABLE orders",
		"",
	}
	for _, q := range rejected {
		if _, err := c.HandleRequest(ctx, ActionSQLQuery, map[string]interface{}{"source": "sales", "query": q}); err == nil {
			t.Errorf("query %q should be rejected", q)
		}
	}

	if _, err := c.HandleRequest(ctx, ActionSQLQuery, map[string]interface{}{"source": "hr", "query": "SELECT 1"}); err == nil {
		t.Error("unknown source should be rejected")
	}
}

func TestConfiguredCompany_DocumentSearch(t *testing.T) {
	points := &fakePoints{points: []*qdrant.ScoredPoint{{
		Id:    qdrant.NewIDNum(7),
		Score: 0.91,
		Payload: map[string]*qdrant.Value{
			"content":  qdrant.NewValueString("Net 30 payment terms"),
			"filename": qdrant.NewValueString("inv_2024.pdf"),
			"page":     qdrant.NewValueInt(3),
		},
	}}}
	embedder := &fakeEmbedder{}
	c := newAcme(t, points, embedder)

	result, err := c.HandleRequest(context.Background(), ActionDocumentSearch, map[string]interface{}{
		"query":         "payment terms",
		"document_type": "invoice",
	})
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}

	hits := result.([]DocumentHit)
	if len(hits) != 1 || hits[0].ID != "7" || hits[0].Content != "Net 30 payment terms" || hits[0].Metadata["page"] != int64(3) {
		t.Errorf("hits = %+v", hits)
	}
	if points.last.CollectionName != "acme_docs" || *points.last.Limit != 3 || points.last.Filter == nil {
		t.Errorf("query = %+v", points.last)
	}
	if len(embedder.texts) != 1 || embedder.texts[0] != "payment terms" {
		t.Errorf("embedded = %v", embedder.texts)
	}
}

func TestConfiguredCompany_MetadataFromFilename(t *testing.T) {
	c := newAcme(t, &fakePoints{}, &fakeEmbedder{})

	tests := []struct {
		filename string
		wantType string
		wantExt  string
	}{
		{"uploads/inv_2024_03.PDF", "invoice", "pdf"},
		{"notes.txt", "general", "txt"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			meta, err := c.GetMetadataFromFilename(tt.filename)
			if err != nil {
				t.Fatal(err)
			}
			if meta["document_type"] != tt.wantType || meta["extension"] != tt.wantExt {
				t.Errorf("metadata = %v", meta)
			}
		})
	}
}
