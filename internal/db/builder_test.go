package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Catalog(t *testing.T) {
	idx := NewIndex("products").
		Prefix("product:").
		Keyword("articleType", "baseColour", "gender").
		Text("productDisplayName").
		Numeric("year").
		MustBuild()

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "products" {
		t.Errorf("name = %q, want products", idx.Name)
	}
	if len(idx.Fields) != 5 {
		t.Fatalf("fields count = %d, want 5", len(idx.Fields))
	}
	if idx.Fields[0].Name != "articleType" || idx.Fields[0].Type != IndexFieldKeyword {
		t.Errorf("field[0] = %+v, want articleType KEYWORD", idx.Fields[0])
	}
	if idx.Fields[3].Type != IndexFieldText {
		t.Errorf("field[3] type = %v, want TEXT", idx.Fields[3].Type)
	}
	if idx.Fields[4].Type != IndexFieldNumeric {
		t.Errorf("field[4] type = %v, want NUMERIC", idx.Fields[4].Type)
	}
}

func TestIndexBuilder_Vector(t *testing.T) {
	idx := NewIndex("hnsw-idx").
		Keyword("gender").
		Vector("vector", 768, DistanceCosine, 32, 400).
		MustBuild()

	f, ok := idx.VectorField()
	if !ok {
		t.Fatal("expected vector field")
	}
	if f.VectorDim != 768 {
		t.Errorf("dim = %d, want 768", f.VectorDim)
	}
	if f.VectorDistance != DistanceCosine {
		t.Errorf("distance = %q, want COSINE", f.VectorDistance)
	}
	if f.VectorM != 32 || f.VectorEFConstruct != 400 {
		t.Errorf("M/EF = %d/%d, want 32/400", f.VectorM, f.VectorEFConstruct)
	}
}

func TestIndexDefinition_NoVectorField(t *testing.T) {
	idx := NewIndex("plain").Keyword("x").MustBuild()
	if _, ok := idx.VectorField(); ok {
		t.Error("expected no vector field")
	}
}

func TestIndexBuilder_MultiplePrefixes(t *testing.T) {
	idx := NewIndex("multi-idx").
		Prefix("a:", "b:", "c:").
		Keyword("x").
		MustBuild()

	if len(idx.Prefixes) != 3 {
		t.Errorf("prefix count = %d, want 3", len(idx.Prefixes))
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").Keyword("x").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "vector without dim",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Vector("v", 0, DistanceCosine, 0, 0).Build()
			},
			wantErr: "positive DIM",
		},
		{
			name: "two vectors",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").
					Vector("a", 4, DistanceCosine, 0, 0).
					Vector("b", 4, DistanceCosine, 0, 0).
					Build()
			},
			wantErr: "at most one vector",
		},
		{
			name: "invalid characters",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx with spaces").Keyword("x").Build()
			},
			wantErr: "invalid characters",
		},
		{
			name: "duplicate fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Keyword("x").Numeric("x").Build()
			},
			wantErr: "duplicate field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexBuilder_MustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewIndex("").MustBuild()
}
