package sqlite

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/store"
)

func (d *DB) UpsertPassage(ctx context.Context, upsert *store.Passage) (*store.Passage, error) {
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = time.Now().Unix()
	}

	tags, err := json.Marshal(upsert.Tags)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal tags")
	}
	embedding, err := json.Marshal(upsert.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal embedding")
	}

	stmt := `
		INSERT INTO passage (uid, content, source, tags, embedding, created_ts)
		VALUES (` + placeholders(6) + `)
		ON CONFLICT (uid)
		DO UPDATE SET
			content = EXCLUDED.content,
			source = EXCLUDED.source,
			tags = EXCLUDED.tags,
			embedding = EXCLUDED.embedding
		RETURNING id, created_ts
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.UID,
		upsert.Content,
		upsert.Source,
		string(tags),
		string(embedding),
		upsert.CreatedTs,
	).Scan(&upsert.ID, &upsert.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert passage")
	}

	return upsert, nil
}

func (d *DB) ListPassages(ctx context.Context, find *store.FindPassage) ([]*store.Passage, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}

	query := `
		SELECT id, uid, content, source, tags, embedding, created_ts
		FROM passage
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list passages")
	}
	defer rows.Close()

	list := []*store.Passage{}
	for rows.Next() {
		passage, err := scanPassage(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, passage)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate passages")
	}

	return list, nil
}

func (d *DB) DeletePassage(ctx context.Context, delete *store.DeletePassage) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM passage WHERE id = ?", delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete passage")
	}
	return nil
}

// VectorSearchPassages performs a brute-force cosine-similarity scan.
// SQLite has no vector index; this is acceptable for development corpora.
func (d *DB) VectorSearchPassages(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.PassageWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	passages, err := d.ListPassages(ctx, &store.FindPassage{})
	if err != nil {
		return nil, err
	}

	results := []*store.PassageWithScore{}
	for _, passage := range passages {
		if !matchesTagFilter(passage.Tags, opts.TagFilter) {
			continue
		}
		score := cosineSimilarity(opts.Vector, passage.Embedding)
		if score <= 0 {
			continue
		}
		results = append(results, &store.PassageWithScore{Passage: passage, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func scanPassage(scan func(dest ...any) error) (*store.Passage, error) {
	var passage store.Passage
	var tags, embedding string
	if err := scan(
		&passage.ID,
		&passage.UID,
		&passage.Content,
		&passage.Source,
		&tags,
		&embedding,
		&passage.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan passage")
	}
	if err := json.Unmarshal([]byte(tags), &passage.Tags); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal tags of passage %s", passage.UID)
	}
	if err := json.Unmarshal([]byte(embedding), &passage.Embedding); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal embedding of passage %s", passage.UID)
	}
	return &passage, nil
}

func matchesTagFilter(tags, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, want := range filter {
		for _, tag := range tags {
			if strings.EqualFold(tag, want) {
				return true
			}
		}
	}
	return false
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
