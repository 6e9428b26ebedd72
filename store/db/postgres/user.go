package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/mlmentor/mlmentor/store"
)

func (d *DB) CreateUser(ctx context.Context, create *store.User) (*store.User, error) {
	stmt := `
		INSERT INTO "user" (username, code_hash, created_ts)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.Username,
		create.CodeHash,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}
	return create, nil
}

func (d *DB) GetUser(ctx context.Context, find *store.FindUser) (*store.User, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, fmt.Sprintf("id = $%d", len(args)+1)), append(args, *find.ID)
	}
	if find.Username != nil {
		where, args = append(where, fmt.Sprintf("username = $%d", len(args)+1)), append(args, *find.Username)
	}

	query := `
		SELECT id, username, code_hash, created_ts
		FROM "user"
		WHERE ` + strings.Join(where, " AND ") + `
		LIMIT 1
	`

	var user store.User
	err := d.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Username,
		&user.CodeHash,
		&user.CreatedTs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get user")
	}
	return &user, nil
}
