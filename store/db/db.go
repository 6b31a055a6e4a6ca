package db

import (
	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/internal/profile"
	"github.com/Arvoid00/seamless-ai/store"
	"github.com/Arvoid00/seamless-ai/store/db/postgres"
	"github.com/Arvoid00/seamless-ai/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
//
// PostgreSQL is the production driver with pgvector-backed passage search.
// SQLite is intended for development and testing; its vector search is a
// brute-force scan, acceptable for small corpora only.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
