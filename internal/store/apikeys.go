package store

import (
	"context"
	"database/sql"
	"errors"

	"cmms/internal/models"
)

// APIKeyCredential is what bearer-token verification needs for one key.
type APIKeyCredential struct {
	ID      int
	Hash    string
	Enabled bool
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, key_prefix, enabled, created_at, last_used
		FROM api_keys ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []models.APIKey{}
	for rows.Next() {
		var k models.APIKey
		var lastUsed sql.NullString
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyPrefix, &k.Enabled, &k.CreatedAt, &lastUsed); err != nil {
			return nil, err
		}
		k.LastUsed = sp(lastUsed)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// CreateAPIKey stores a key by prefix and hash. The plaintext is never
// written.
func (s *Store) CreateAPIKey(ctx context.Context, name, prefix, hash, createdBy string) (models.APIKey, error) {
	k := models.APIKey{Name: name, KeyPrefix: prefix, Enabled: true, CreatedAt: s.timestamp()}
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO api_keys (name, key_hash, key_prefix, created_by, created_at) VALUES (?,?,?,?,?)",
		name, hash, prefix, createdBy, k.CreatedAt)
	if err != nil {
		return k, err
	}
	id, err := res.LastInsertId()
	k.ID = int(id)
	return k, err
}

// APIKeyByPrefix looks up the credential for a key prefix.
func (s *Store) APIKeyByPrefix(ctx context.Context, prefix string) (APIKeyCredential, error) {
	var c APIKeyCredential
	err := s.DB.QueryRowContext(ctx, "SELECT id, key_hash, enabled FROM api_keys WHERE key_prefix=?", prefix).
		Scan(&c.ID, &c.Hash, &c.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

func (s *Store) TouchAPIKey(ctx context.Context, id int) error {
	_, err := s.DB.ExecContext(ctx, "UPDATE api_keys SET last_used=? WHERE id=?", s.timestamp(), id)
	return err
}

func (s *Store) SetAPIKeyEnabled(ctx context.Context, id int, enabled bool) error {
	return checkAffected(s.DB.ExecContext(ctx, "UPDATE api_keys SET enabled=? WHERE id=?", enabled, id))
}

func (s *Store) DeleteAPIKey(ctx context.Context, id int) error {
	return checkAffected(s.DB.ExecContext(ctx, "DELETE FROM api_keys WHERE id=?", id))
}

// CountAPIKeys reports how many keys exist; the server runs open until the
// first one is created.
func (s *Store) CountAPIKeys(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM api_keys").Scan(&n)
	return n, err
}
