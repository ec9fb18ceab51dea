// Package offchain keeps full credential documents outside the ledger. The
// ledger only ever sees their fingerprint.
package offchain

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/common/migrations"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var (
	ErrNotFound      = errors.New("payload not found")
	ErrAlreadyExists = errors.New("payload already exists")
)

// Payload is a credential document and the fingerprint committed for it
type Payload struct {
	ID               string `gorm:"primaryKey;size:255"`
	StudentWallet    string `gorm:"size:255"`
	UniversityWallet string `gorm:"size:255"`
	Hash             string `gorm:"size:255"`
	// Document is the canonical JSON of the credential
	Document  string
	CreatedAt time.Time
}

func (Payload) TableName() string {
	return "credential_payloads"
}

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New migrates the schema and returns the store
func New(ctx context.Context, db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(ctx, db, sub, logger); err != nil {
		return nil, fmt.Errorf("failed to migrate off-chain store: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Put stores a payload. Payloads are written once.
func (s *Store) Put(ctx context.Context, payload *Payload) error {
	if payload.ID == "" {
		return errors.New("payload id must not be empty")
	}
	if payload.CreatedAt.IsZero() {
		payload.CreatedAt = time.Now().UTC()
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(payload)
	if result.Error != nil {
		return fmt.Errorf("failed to store payload %s: %w", payload.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, payload.ID)
	}
	s.logger.Debug("stored credential payload", "id", payload.ID)
	return nil
}

// Get loads the payload stored under id
func (s *Store) Get(ctx context.Context, id string) (*Payload, error) {
	var payload Payload
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&payload).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payload %s: %w", id, err)
	}
	return &payload, nil
}

// ListByStudent returns the payloads issued to a student wallet, oldest first
func (s *Store) ListByStudent(ctx context.Context, studentWallet string) ([]Payload, error) {
	payloads := make([]Payload, 0)
	err := s.db.WithContext(ctx).
		Where("student_wallet = ?", studentWallet).
		Order("created_at, id").
		Find(&payloads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payloads: %w", err)
	}
	return payloads, nil
}
