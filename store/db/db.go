// Package db provides the database driver factory.
package db

import (
	"github.com/pkg/errors"

	"github.com/mlmentor/mlmentor/internal/profile"
	"github.com/mlmentor/mlmentor/store"
	"github.com/mlmentor/mlmentor/store/db/postgres"
	"github.com/mlmentor/mlmentor/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unsupported driver: %s", profile.Driver)
	}

	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
