package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mediread/vault/internal/common"
	"github.com/mediread/vault/internal/entity"
)

const profileKey = "singleton"

// ProfileStore holds the single user profile.
type ProfileStore interface {
	Get(ctx context.Context) (*entity.Profile, error)
	Save(ctx context.Context, profile entity.Profile) error
}

type profileStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewProfileStore(db *sql.DB, logger *slog.Logger) ProfileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &profileStore{db: db, logger: logger}
}

func (s *profileStore) Get(ctx context.Context) (*entity.Profile, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM profile WHERE id = $1`, profileKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundErrorf("profile not set")
	}
	if err != nil {
		return nil, common.WrapError(err, "get profile")
	}
	var p entity.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, common.WrapError(err, "decode profile")
	}
	return &p, nil
}

func (s *profileStore) Save(ctx context.Context, profile entity.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return common.WrapError(err, "encode profile")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profile (id, data) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data`,
		profileKey, string(data))
	if err != nil {
		s.logger.Error("profile.save.failed", "error", err)
		return common.WrapError(err, "save profile")
	}
	return nil
}
