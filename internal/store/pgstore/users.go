package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/user"
)

const userColumns = `
		id, name, username, email, password_hash, email_verified,
		COALESCE(profile, '{}'), COALESCE(avatar, '{}'),
		COALESCE(device_tokens, '[]'), created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	var profileRaw, avatarRaw, tokensRaw []byte

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.EmailVerified,
		&profileRaw,
		&avatarRaw,
		&tokensRaw,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(profileRaw, &u.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode user profile: %w", err)
	}
	if err := json.Unmarshal(avatarRaw, &u.Avatar); err != nil {
		return nil, fmt.Errorf("failed to decode user avatar: %w", err)
	}
	if err := json.Unmarshal(tokensRaw, &u.DeviceTokens); err != nil {
		return nil, fmt.Errorf("failed to decode device tokens: %w", err)
	}

	return &u, nil
}

func (s *PGStore) RetrieveUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `
		SELECT` + userColumns + `
		FROM users
		WHERE id = $1
	`

	u, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return u, nil
}

func (s *PGStore) UsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.User, error) {
	users := make(map[uuid.UUID]*user.User)
	if len(ids) == 0 {
		return users, nil
	}

	query := `
		SELECT` + userColumns + `
		FROM users
		WHERE id = ANY($1)
	`

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[u.ID] = u
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (s *PGStore) UpdateUserDeviceTokens(ctx context.Context, id uuid.UUID, tokens []user.DeviceToken) error {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to encode device tokens: %w", err)
	}

	query := `
		UPDATE users
		SET device_tokens = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, id, raw)
	if err != nil {
		return fmt.Errorf("failed to update device tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
