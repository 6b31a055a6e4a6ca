package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/store"
)

func (d *DB) UpsertTranscript(ctx context.Context, upsert *store.Transcript) (*store.Transcript, error) {
	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now

	turns, err := json.Marshal(upsert.Turns)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal turns")
	}

	stmt := `
		INSERT INTO transcript (uid, creator_id, title, agent_name, pinned, turns, created_ts, updated_ts)
		VALUES (` + placeholders(8) + `)
		ON CONFLICT (uid)
		DO UPDATE SET
			title = EXCLUDED.title,
			agent_name = EXCLUDED.agent_name,
			pinned = EXCLUDED.pinned,
			turns = EXCLUDED.turns,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, created_ts
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.UID,
		upsert.CreatorID,
		upsert.Title,
		upsert.AgentName,
		upsert.Pinned,
		turns,
		upsert.CreatedTs,
		upsert.UpdatedTs,
	).Scan(&upsert.ID, &upsert.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert transcript")
	}

	return upsert, nil
}

func (d *DB) ListTranscripts(ctx context.Context, find *store.FindTranscript) ([]*store.Transcript, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *find.CreatorID)
	}
	if find.AgentName != nil {
		where, args = append(where, "agent_name = "+placeholder(len(args)+1)), append(args, *find.AgentName)
	}
	if find.Pinned != nil {
		where, args = append(where, "pinned = "+placeholder(len(args)+1)), append(args, *find.Pinned)
	}

	query := `
		SELECT id, uid, creator_id, title, agent_name, pinned, turns, created_ts, updated_ts
		FROM transcript
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list transcripts")
	}
	defer rows.Close()

	list := []*store.Transcript{}
	for rows.Next() {
		var transcript store.Transcript
		var turns []byte
		if err := rows.Scan(
			&transcript.ID,
			&transcript.UID,
			&transcript.CreatorID,
			&transcript.Title,
			&transcript.AgentName,
			&transcript.Pinned,
			&turns,
			&transcript.CreatedTs,
			&transcript.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan transcript")
		}
		if err := json.Unmarshal(turns, &transcript.Turns); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal turns of transcript %s", transcript.UID)
		}
		list = append(list, &transcript)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate transcripts")
	}

	return list, nil
}

func (d *DB) DeleteTranscript(ctx context.Context, delete *store.DeleteTranscript) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM transcript WHERE id = $1", delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete transcript")
	}
	return nil
}
