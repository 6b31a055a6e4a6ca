package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
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
	vector := pgvector.NewVector(upsert.Embedding)
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.UID,
		upsert.Content,
		upsert.Source,
		tags,
		vector,
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
		var passage store.Passage
		var tags []byte
		var vector pgvector.Vector
		if err := rows.Scan(
			&passage.ID,
			&passage.UID,
			&passage.Content,
			&passage.Source,
			&tags,
			&vector,
			&passage.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan passage")
		}
		if err := json.Unmarshal(tags, &passage.Tags); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal tags of passage %s", passage.UID)
		}
		passage.Embedding = vector.Slice()
		list = append(list, &passage)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate passages")
	}

	return list, nil
}

func (d *DB) DeletePassage(ctx context.Context, delete *store.DeletePassage) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM passage WHERE id = $1", delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete passage")
	}
	return nil
}

// VectorSearchPassages performs vector similarity search using pgvector.
// The <=> operator computes cosine distance (1 - cosine_similarity), so
// ordering by distance ASC yields the most similar passages first.
func (d *DB) VectorSearchPassages(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.PassageWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	where, args := []string{"embedding IS NOT NULL"}, []any{}

	vector := pgvector.NewVector(opts.Vector)
	args = append(args, vector)
	scoreExpr := "1 - (embedding <=> " + placeholder(1) + ")"

	if len(opts.TagFilter) > 0 {
		tagFilter, err := json.Marshal(opts.TagFilter)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal tag filter")
		}
		// Keep passages whose tags overlap the filter set.
		where, args = append(where, "tags ?| ARRAY(SELECT jsonb_array_elements_text("+placeholder(len(args)+1)+"::jsonb))"), append(args, tagFilter)
	}

	args = append(args, vector, limit)
	query := `
		SELECT id, uid, content, source, tags, embedding, created_ts, ` + scoreExpr + ` AS score
		FROM passage
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY embedding <=> ` + placeholder(len(args)-1) + `
		LIMIT ` + placeholder(len(args))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search passages")
	}
	defer rows.Close()

	results := []*store.PassageWithScore{}
	for rows.Next() {
		var result store.PassageWithScore
		var passage store.Passage
		var tags []byte
		var vec pgvector.Vector
		if err := rows.Scan(
			&passage.ID,
			&passage.UID,
			&passage.Content,
			&passage.Source,
			&tags,
			&vec,
			&passage.CreatedTs,
			&result.Score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}
		if err := json.Unmarshal(tags, &passage.Tags); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal tags of passage %s", passage.UID)
		}
		passage.Embedding = vec.Slice()
		result.Passage = &passage
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate vector search results")
	}

	return results, nil
}
