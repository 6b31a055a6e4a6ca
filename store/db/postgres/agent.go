package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/store"
)

func (d *DB) UpsertAgent(ctx context.Context, upsert *store.Agent) (*store.Agent, error) {
	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now

	enabledTools, err := json.Marshal(upsert.EnabledTools)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal enabled tools")
	}
	tags, err := json.Marshal(upsert.Tags)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal tags")
	}

	stmt := `
		INSERT INTO agent (name, system_prompt, enabled_tools, strictness, tags, created_ts, updated_ts)
		VALUES (` + placeholders(7) + `)
		ON CONFLICT (name)
		DO UPDATE SET
			system_prompt = EXCLUDED.system_prompt,
			enabled_tools = EXCLUDED.enabled_tools,
			strictness = EXCLUDED.strictness,
			tags = EXCLUDED.tags,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, created_ts
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.Name,
		upsert.SystemPrompt,
		enabledTools,
		upsert.Strictness,
		tags,
		upsert.CreatedTs,
		upsert.UpdatedTs,
	).Scan(&upsert.ID, &upsert.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert agent")
	}

	return upsert, nil
}

func (d *DB) ListAgents(ctx context.Context, find *store.FindAgent) ([]*store.Agent, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.Name != nil {
		where, args = append(where, "name = "+placeholder(len(args)+1)), append(args, *find.Name)
	}

	query := `
		SELECT id, name, system_prompt, enabled_tools, strictness, tags, created_ts, updated_ts
		FROM agent
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY name ASC
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list agents")
	}
	defer rows.Close()

	list := []*store.Agent{}
	for rows.Next() {
		var agent store.Agent
		var enabledTools, tags []byte
		if err := rows.Scan(
			&agent.ID,
			&agent.Name,
			&agent.SystemPrompt,
			&enabledTools,
			&agent.Strictness,
			&tags,
			&agent.CreatedTs,
			&agent.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan agent")
		}
		if err := json.Unmarshal(enabledTools, &agent.EnabledTools); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal enabled tools of agent %s", agent.Name)
		}
		if err := json.Unmarshal(tags, &agent.Tags); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal tags of agent %s", agent.Name)
		}
		list = append(list, &agent)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate agents")
	}

	return list, nil
}

func (d *DB) DeleteAgent(ctx context.Context, delete *store.DeleteAgent) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM agent WHERE id = $1", delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete agent")
	}
	return nil
}
