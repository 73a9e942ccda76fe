// Package search resolves free-text queries against the resolved photo
// collection, mixing exact tag/person matches with semantic embedding
// similarity.
package search

import (
	"context"
	"log"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pixelhoard/gallery/internal/ai"
	"github.com/pixelhoard/gallery/internal/embed"
	"github.com/pixelhoard/gallery/internal/gallery"
	"github.com/pixelhoard/gallery/internal/store"
)

const (
	// DefaultThreshold is the minimum cosine similarity for a semantic
	// match.
	DefaultThreshold = 0.3
	// DefaultLimit caps the number of semantic results.
	DefaultLimit = 10
)

// Resolver answers queries over the current resolved collection. Person
// lookups read face records from the store; semantic fallback uses the
// embedding provider.
type Resolver struct {
	faces     store.FaceReader
	embedder  embed.Provider // nil when the embedding backend is unavailable
	threshold float64
	limit     int
}

// NewResolver creates a resolver. embedder may be nil; semantic queries then
// fail open to the full collection.
func NewResolver(faces store.FaceReader, embedder embed.Provider) *Resolver {
	return &Resolver{
		faces:     faces,
		embedder:  embedder,
		threshold: DefaultThreshold,
		limit:     DefaultLimit,
	}
}

// SetThreshold overrides the semantic similarity threshold.
func (r *Resolver) SetThreshold(threshold float64) {
	r.threshold = threshold
}

// SetLimit overrides the semantic result cap.
func (r *Resolver) SetLimit(limit int) {
	r.limit = limit
}

// Resolve returns the subset of photos matching the query, preserving the
// collection's current order among matches except in the pure-semantic
// fallback, which ranks by descending similarity. An empty query returns the
// full collection unmodified.
func (r *Resolver) Resolve(ctx context.Context, photos []gallery.Summary, query string) ([]gallery.Summary, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return photos, nil
	}

	tagTerms, personTerms := parseQuery(query)

	matched := make(map[int]bool)
	for i, photo := range photos {
		tags := strings.ToLower(photo.Tags)
		for _, term := range tagTerms {
			if strings.Contains(tags, term) {
				matched[i] = true
				break
			}
		}
	}
	if len(personTerms) > 0 {
		if err := r.matchPersons(ctx, photos, personTerms, matched); err != nil {
			return nil, err
		}
	}

	// A photo matching any one term qualifies; this is an OR, not an AND.
	if len(matched) > 0 {
		results := make([]gallery.Summary, 0, len(matched))
		for i, photo := range photos {
			if matched[i] {
				results = append(results, photo)
			}
		}
		return results, nil
	}

	return r.semantic(ctx, photos, query), nil
}

// parseQuery splits a lower-cased query into tag terms and person-name
// terms. Everything after the first "with" is a comma/"and"-delimited person
// list; remaining tokens are tag terms.
func parseQuery(query string) (tagTerms, personTerms []string) {
	padded := " " + query + " "
	idx := strings.Index(padded, " with ")
	if idx < 0 {
		return strings.Fields(query), nil
	}

	before := strings.TrimSpace(padded[:idx])
	after := strings.TrimSpace(padded[idx+len(" with "):])

	tagTerms = strings.Fields(before)

	after = strings.ReplaceAll(after, ",", " and ")
	for _, name := range strings.Split(after, " and ") {
		name = strings.TrimSpace(name)
		if name != "" {
			personTerms = append(personTerms, name)
		}
	}
	return tagTerms, personTerms
}

// matchPersons marks every photo with a face named after one of the person
// terms. Names are compared case-insensitively with diacritics folded, so
// "jiri" matches a face tagged "Jiří".
func (r *Resolver) matchPersons(ctx context.Context, photos []gallery.Summary, personTerms []string, matched map[int]bool) error {
	terms := make([]string, len(personTerms))
	for i, term := range personTerms {
		terms[i] = normalizeName(term)
	}

	for i, photo := range photos {
		if matched[i] {
			continue
		}
		faces, err := r.faces.GetFaces(ctx, photo.Path)
		if err != nil {
			return err
		}
		for _, f := range faces {
			if f.Name == "" {
				continue
			}
			name := normalizeName(f.Name)
			for _, term := range terms {
				if name == term {
					matched[i] = true
					break
				}
			}
		}
	}
	return nil
}

var nameFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName lowercases a person name and strips diacritics.
func normalizeName(s string) string {
	folded, _, err := transform.String(nameFolder, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return folded
}

// scored pairs a collection index with its similarity for ranking.
type scored struct {
	index      int
	similarity float64
}

// semantic ranks photos by embedding similarity between the query and each
// photo's caption/tag text. When the embedding backend is unavailable or
// fails, the full collection is returned instead of an empty screen.
func (r *Resolver) semantic(ctx context.Context, photos []gallery.Summary, query string) []gallery.Summary {
	if r.embedder == nil {
		log.Printf("search: embedding backend unavailable, returning unfiltered collection")
		return photos
	}

	queryVec, err := r.embedder.EncodeText(ctx, query)
	if err != nil {
		log.Printf("search: failed to encode query: %v", err)
		return photos
	}

	var candidates []scored
	for i, photo := range photos {
		text := photo.Caption
		if text == "" {
			text = photo.Tags
		}
		if text == "" || text == ai.TagsUnavailable {
			continue
		}
		vec, err := r.embedder.EncodeText(ctx, text)
		if err != nil {
			log.Printf("search: failed to encode caption for %s: %v", photo.Path, err)
			return photos
		}
		similarity := embed.CosineSimilarity(queryVec, vec)
		if similarity > r.threshold {
			candidates = append(candidates, scored{index: i, similarity: similarity})
		}
	}

	// Ties keep original collection order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})
	if len(candidates) > r.limit {
		candidates = candidates[:r.limit]
	}

	results := make([]gallery.Summary, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, photos[c.index])
	}
	return results
}
