package badger

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/dragnet-io/dragnet/core"
	"github.com/dragnet-io/dragnet/storage"
)

// IndexEntity upserts a derived entity record under its (kind, name) key.
func (b *Backend) IndexEntity(ctx context.Context, entity *storage.Entity) error {
	value, err := storage.MarshalEntity(entity)
	if err != nil {
		return err
	}
	return b.WithTx(func(tx *badger.Txn) error {
		return tx.Set(makeEntityKey(entity.Kind, entity.Name), value)
	}, true)
}

// IndexDocument upserts a document and maintains its keyword posting list
// and domain adjacency entries. Re-indexing the same ID replaces the old
// index entries.
func (b *Backend) IndexDocument(ctx context.Context, doc *core.Document) error {
	value, err := storage.MarshalDocument(doc)
	if err != nil {
		return err
	}

	return b.WithTx(func(tx *badger.Txn) error {
		if old, err := readDocument(tx, doc.Id); err == nil {
			if err := removeIndexEntries(tx, old); err != nil {
				return err
			}
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		if err := tx.Set(makeDocumentKey(doc.Id), value); err != nil {
			return err
		}

		for _, token := range documentTokens(doc) {
			if err := tx.Set(makeTokenKey(token, doc.Id), nil); err != nil {
				return err
			}
		}

		if domain := core.DomainOf(doc.URL); domain != "" {
			if err := tx.Set(makeDomainKey(domain, doc.Id), nil); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// SearchKeyword matches documents against the query tokens. Documents
// containing every token rank first; when no document matches all tokens,
// partial matches are returned ranked by match ratio.
func (b *Backend) SearchKeyword(ctx context.Context, query string, limit int) ([]*core.Document, error) {
	tokens := core.Tokenize(query)
	if len(tokens) == 0 || limit <= 0 {
		return nil, nil
	}

	type candidate struct {
		doc   *core.Document
		ratio float64
	}
	var candidates []candidate

	err := b.WithTx(func(tx *badger.Txn) error {
		matches := make(map[core.ID]int)
		for _, token := range tokens {
			for _, id := range scanPostings(tx, makePartialTokenKey(token)) {
				matches[id]++
			}
		}

		full := 0
		for _, count := range matches {
			if count == len(tokens) {
				full++
			}
		}

		for id, count := range matches {
			if full > 0 && count < len(tokens) {
				continue
			}
			doc, err := readDocument(tx, id)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					continue
				}
				return err
			}
			candidates = append(candidates, candidate{
				doc:   doc,
				ratio: float64(count) / float64(len(tokens)),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(candidates, func(a, c candidate) int {
		if a.ratio != c.ratio {
			if a.ratio > c.ratio {
				return -1
			}
			return 1
		}
		return c.doc.Score - a.doc.Score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	docs := make([]*core.Document, len(candidates))
	for i, c := range candidates {
		docs[i] = c.doc
	}
	return docs, nil
}

// SearchVector scans stored vectors and returns documents with cosine
// similarity >= minSimilarity, highest first.
func (b *Backend) SearchVector(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.Document, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, nil
	}

	type scored struct {
		doc   *core.Document
		score float32
	}
	var results []scored

	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc == nil || len(doc.Vector) == 0 {
				continue
			}

			similarity := cosineSimilarity(vector, doc.Vector)
			if similarity >= minSimilarity {
				results = append(results, scored{doc: doc, score: similarity})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, c scored) int {
		if a.score > c.score {
			return -1
		}
		if a.score < c.score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	docs := make([]*core.Document, len(results))
	for i, r := range results {
		docs[i] = r.doc
	}
	return docs, nil
}

const rrfRankConstant = 60

// SearchHybrid merges keyword and vector rankings with reciprocal rank
// fusion.
func (b *Backend) SearchHybrid(ctx context.Context, query string, vector []float32, limit int) ([]*core.Document, error) {
	if limit <= 0 {
		return nil, nil
	}

	keywordDocs, err := b.SearchKeyword(ctx, query, limit*2)
	if err != nil {
		return nil, err
	}
	vectorDocs, err := b.SearchVector(ctx, vector, 0, limit*2)
	if err != nil {
		return nil, err
	}

	fused := make(map[core.ID]float64)
	byID := make(map[core.ID]*core.Document)
	for rank, doc := range keywordDocs {
		fused[doc.Id] += 1.0 / float64(rrfRankConstant+rank+1)
		byID[doc.Id] = doc
	}
	for rank, doc := range vectorDocs {
		fused[doc.Id] += 1.0 / float64(rrfRankConstant+rank+1)
		byID[doc.Id] = doc
	}

	ids := make([]core.ID, 0, len(fused))
	for id := range fused {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, c core.ID) int {
		if fused[a] > fused[c] {
			return -1
		}
		if fused[a] < fused[c] {
			return 1
		}
		return 0
	})

	if len(ids) > limit {
		ids = ids[:limit]
	}
	docs := make([]*core.Document, len(ids))
	for i, id := range ids {
		docs[i] = byID[id]
	}
	return docs, nil
}

// TraverseGraph returns documents sharing the seed document's domain, the
// seed excluded. Only depth 1 adjacency is maintained; deeper traversals
// return the same neighborhood.
func (b *Backend) TraverseGraph(ctx context.Context, seed core.ID, depth int) ([]*core.Document, error) {
	if depth <= 0 {
		return nil, nil
	}

	var docs []*core.Document
	err := b.WithTx(func(tx *badger.Txn) error {
		seedDoc, err := readDocument(tx, seed)
		if err != nil {
			return err
		}
		domain := core.DomainOf(seedDoc.URL)
		if domain == "" {
			return nil
		}

		for _, id := range scanPostings(tx, makePartialDomainKey(domain)) {
			if id == seed {
				continue
			}
			doc, err := readDocument(tx, id)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					continue
				}
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// GetByID retrieves a single document.
func (b *Backend) GetByID(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document
	err := b.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = readDocument(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteByID removes a document and its index entries.
func (b *Backend) DeleteByID(ctx context.Context, id core.ID) error {
	return b.WithTx(func(tx *badger.Txn) error {
		doc, err := readDocument(tx, id)
		if err != nil {
			return err
		}
		if err := removeIndexEntries(tx, doc); err != nil {
			return err
		}
		return tx.Delete(makeDocumentKey(id))
	}, true)
}

// readDocument loads and decodes one document within a transaction.
func readDocument(tx *badger.Txn, id core.ID) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// removeIndexEntries deletes the posting-list and adjacency keys derived
// from a stored document.
func removeIndexEntries(tx *badger.Txn, doc *core.Document) error {
	for _, token := range documentTokens(doc) {
		if err := tx.Delete(makeTokenKey(token, doc.Id)); err != nil {
			return err
		}
	}
	if domain := core.DomainOf(doc.URL); domain != "" {
		if err := tx.Delete(makeDomainKey(domain, doc.Id)); err != nil {
			return err
		}
	}
	return nil
}

// scanPostings collects the document IDs under a posting-list prefix.
func scanPostings(tx *badger.Txn, prefix []byte) []core.ID {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		if id, ok := idFromCompositeKey(iter.Item().Key()); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// documentTokens derives the dedup'd token set indexed for a document.
func documentTokens(doc *core.Document) []string {
	tokens := core.Tokenize(strings.TrimSpace(doc.Title + " " + doc.Snippet))
	slices.Sort(tokens)
	return slices.Compact(tokens)
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths are compared over the shorter prefix.
func cosineSimilarity(a, b []float32) float32 {
	minLen := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
