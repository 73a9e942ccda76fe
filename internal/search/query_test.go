package search

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pixelhoard/gallery/internal/gallery"
	"github.com/pixelhoard/gallery/internal/store"
	"github.com/pixelhoard/gallery/internal/store/mock"
)

// mapEmbedder returns canned vectors per text, falling back to a default.
type mapEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
}

func (m *mapEmbedder) EncodeText(ctx context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func paths(photos []gallery.Summary) []string {
	out := make([]string, len(photos))
	for i, p := range photos {
		out[i] = p.Path
	}
	return out
}

func testCollection() []gallery.Summary {
	return []gallery.Summary{
		{Path: "a.jpg", Tags: "dog, beach", Caption: "a dog on a beach"},
		{Path: "b.jpg", Tags: "cat, sofa"},
		{Path: "c.jpg", Tags: "mountain, snow"},
	}
}

func TestResolveEmptyQuery(t *testing.T) {
	r := NewResolver(mock.New(), nil)
	photos := testCollection()

	for _, query := range []string{"", "   ", "\t"} {
		got, err := r.Resolve(context.Background(), photos, query)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", query, err)
		}
		if !reflect.DeepEqual(got, photos) {
			t.Errorf("Resolve(%q) filtered the collection; want it unchanged", query)
		}
	}
}

func TestResolveTagMatch(t *testing.T) {
	r := NewResolver(mock.New(), nil)
	photos := testCollection()

	tests := []struct {
		query    string
		expected []string
	}{
		{"dog", []string{"a.jpg"}},
		{"DOG", []string{"a.jpg"}},
		{"dog cat", []string{"a.jpg", "b.jpg"}}, // OR semantics, collection order
		{"moun", []string{"c.jpg"}},             // substring match
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), photos, tc.query)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if !reflect.DeepEqual(paths(got), tc.expected) {
				t.Errorf("Resolve(%q) = %v; want %v", tc.query, paths(got), tc.expected)
			}
		})
	}
}

func TestResolvePersonMatch(t *testing.T) {
	st := mock.New()
	ctx := context.Background()
	if err := st.AddFace(ctx, store.Face{Path: "b.jpg", Encoding: []float32{0.1}, Name: "Tina"}); err != nil {
		t.Fatal(err)
	}
	if err := st.AddFace(ctx, store.Face{Path: "c.jpg", Encoding: []float32{0.2}, Name: "Jiří"}); err != nil {
		t.Fatal(err)
	}
	if err := st.AddFace(ctx, store.Face{Path: "a.jpg", Encoding: []float32{0.3}}); err != nil { // unnamed
		t.Fatal(err)
	}

	r := NewResolver(st, nil)
	photos := testCollection()

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"single person", "with Tina", []string{"b.jpg"}},
		{"case insensitive", "with tina", []string{"b.jpg"}},
		{"diacritics folded", "with jiri", []string{"c.jpg"}},
		{"and-delimited list", "with tina and jiri", []string{"b.jpg", "c.jpg"}},
		{"comma-delimited list", "with tina, jiri", []string{"b.jpg", "c.jpg"}},
		{"tags and person combined", "dog with tina", []string{"a.jpg", "b.jpg"}},
		{"exact name only", "with tin", nil}, // prefix of a name is not a match
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, photos, tc.query)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if tc.expected == nil {
				// No exact match anywhere: falls back to semantic, and with a
				// nil embedder that fails open to the full collection.
				if len(got) != len(photos) {
					t.Errorf("Resolve(%q) = %v; want full collection fallback", tc.query, paths(got))
				}
				return
			}
			if !reflect.DeepEqual(paths(got), tc.expected) {
				t.Errorf("Resolve(%q) = %v; want %v", tc.query, paths(got), tc.expected)
			}
		})
	}
}

func TestResolveSemanticFallback(t *testing.T) {
	embedder := &mapEmbedder{
		vectors: map[string][]float32{
			"sunset over water":  {1, 0},
			"a dog on a beach":   {0.8, 0.6}, // similarity 0.8
			"cat, sofa":          {0, 1},     // similarity 0
			"mountain, snow":     {0.6, 0.8}, // similarity 0.6
		},
	}

	r := NewResolver(mock.New(), embedder)
	got, err := r.Resolve(context.Background(), testCollection(), "sunset over water")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Ranked by descending similarity, below-threshold photo dropped.
	want := []string{"a.jpg", "c.jpg"}
	if !reflect.DeepEqual(paths(got), want) {
		t.Errorf("semantic results = %v; want %v", paths(got), want)
	}
}

func TestResolveSemanticThreshold(t *testing.T) {
	embedder := &mapEmbedder{
		vectors: map[string][]float32{
			"query":            {1, 0},
			"a dog on a beach": {0.8, 0.6},
		},
		fallback: []float32{0, 1},
	}

	r := NewResolver(mock.New(), embedder)
	r.SetThreshold(0.9)

	got, err := r.Resolve(context.Background(), testCollection(), "query")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("results above threshold 0.9 = %v; want none", paths(got))
	}
}

func TestResolveSemanticLimit(t *testing.T) {
	embedder := &mapEmbedder{
		vectors:  map[string][]float32{"query": {1, 0}},
		fallback: []float32{1, 0}, // every photo matches perfectly
	}

	r := NewResolver(mock.New(), embedder)
	r.SetLimit(2)

	got, err := r.Resolve(context.Background(), testCollection(), "query")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("results = %d; want capped at 2", len(got))
	}
}

func TestResolveFailsOpen(t *testing.T) {
	photos := testCollection()

	t.Run("nil embedder", func(t *testing.T) {
		r := NewResolver(mock.New(), nil)
		got, err := r.Resolve(context.Background(), photos, "no tag matches this")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if len(got) != len(photos) {
			t.Errorf("results = %v; want full collection", paths(got))
		}
	})

	t.Run("embedder error", func(t *testing.T) {
		r := NewResolver(mock.New(), &mapEmbedder{err: errors.New("connection refused")})
		got, err := r.Resolve(context.Background(), photos, "no tag matches this")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if len(got) != len(photos) {
			t.Errorf("results = %v; want full collection", paths(got))
		}
	})
}

func TestResolveFaceStoreError(t *testing.T) {
	st := mock.New()
	st.FaceError = errors.New("database locked")

	r := NewResolver(st, nil)
	if _, err := r.Resolve(context.Background(), testCollection(), "with tina"); err == nil {
		t.Error("Resolve with failing face store succeeded; want error")
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		tags    []string
		persons []string
	}{
		{"tags only", "dog beach", []string{"dog", "beach"}, nil},
		{"person only", "with tina", nil, []string{"tina"}},
		{"tags and person", "beach with tina", []string{"beach"}, []string{"tina"}},
		{"and list", "with tina and marco", nil, []string{"tina", "marco"}},
		{"comma list", "with tina, marco", nil, []string{"tina", "marco"}},
		{"word containing with", "withered tree", []string{"withered", "tree"}, nil},
		{"multi-word name", "with mary jane", nil, []string{"mary jane"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tags, persons := parseQuery(tc.query)
			// Join before comparing so an empty slice equals nil.
			if strings.Join(tags, "|") != strings.Join(tc.tags, "|") {
				t.Errorf("tags = %v; want %v", tags, tc.tags)
			}
			if strings.Join(persons, "|") != strings.Join(tc.persons, "|") {
				t.Errorf("persons = %v; want %v", persons, tc.persons)
			}
		})
	}
}
