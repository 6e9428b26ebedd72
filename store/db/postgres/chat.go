package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/mlmentor/mlmentor/store"
)

func (d *DB) CreateChat(ctx context.Context, create *store.Chat) (*store.Chat, error) {
	messagesJSON, err := marshalMessages(create.Messages)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO chat (uid, user_id, name, messages, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.UserID,
		create.Name,
		messagesJSON,
		create.CreatedTs,
		create.UpdatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create chat")
	}
	return create, nil
}

func (d *DB) ListChats(ctx context.Context, find *store.FindChat) ([]*store.Chat, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, fmt.Sprintf("id = $%d", len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, fmt.Sprintf("uid = $%d", len(args)+1)), append(args, *find.UID)
	}
	if find.UserID != nil {
		where, args = append(where, fmt.Sprintf("user_id = $%d", len(args)+1)), append(args, *find.UserID)
	}

	query := `
		SELECT id, uid, user_id, name, messages, created_ts, updated_ts
		FROM chat
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chats")
	}
	defer rows.Close()

	list := []*store.Chat{}
	for rows.Next() {
		var chat store.Chat
		var messagesJSON []byte
		if err := rows.Scan(
			&chat.ID,
			&chat.UID,
			&chat.UserID,
			&chat.Name,
			&messagesJSON,
			&chat.CreatedTs,
			&chat.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat")
		}
		if err := json.Unmarshal(messagesJSON, &chat.Messages); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal chat messages")
		}
		list = append(list, &chat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateChat(ctx context.Context, update *store.UpdateChat) (*store.Chat, error) {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, fmt.Sprintf("name = $%d", len(args)+1)), append(args, *update.Name)
	}
	if update.Messages != nil {
		messagesJSON, err := marshalMessages(*update.Messages)
		if err != nil {
			return nil, err
		}
		set, args = append(set, fmt.Sprintf("messages = $%d", len(args)+1)), append(args, messagesJSON)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, fmt.Sprintf("updated_ts = $%d", len(args)+1)), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	args = append(args, update.ID)

	stmt := `UPDATE chat SET ` + strings.Join(set, ", ") + fmt.Sprintf(` WHERE id = $%d`, len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to update chat")
	}

	list, err := d.ListChats(ctx, &store.FindChat{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Errorf("chat %d not found", update.ID)
	}
	return list[0], nil
}

func (d *DB) DeleteChat(ctx context.Context, delete *store.DeleteChat) error {
	stmt := `DELETE FROM chat WHERE id = $1`
	if _, err := d.db.ExecContext(ctx, stmt, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete chat")
	}
	return nil
}

func marshalMessages(messages []store.ChatMessage) ([]byte, error) {
	if messages == nil {
		messages = []store.ChatMessage{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal chat messages")
	}
	return raw, nil
}
