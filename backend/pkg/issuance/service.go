// Package issuance issues credentials: the document is kept off-chain and
// only its fingerprint is committed to the ledger.
package issuance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/fabricclient"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/fingerprint"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/offchain"
	"github.com/google/uuid"
)

// Ledger is the part of the gateway client issuance needs
type Ledger interface {
	StoreCredentialHash(ctx context.Context, record fabricclient.CredentialHash) error
	GetCredentialHash(ctx context.Context, id string) (*fabricclient.CredentialHash, error)
	VerifyCredentialHash(ctx context.Context, id, hash string) (*fabricclient.Verification, error)
}

// Payloads stores credential documents
type Payloads interface {
	Put(ctx context.Context, payload *offchain.Payload) error
	Get(ctx context.Context, id string) (*offchain.Payload, error)
}

type Config struct {
	Ledger   Ledger
	Payloads Payloads
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

type Service struct {
	ledger   Ledger
	payloads Payloads
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Request describes a credential to issue. ID and IssueDate are filled in
// when empty.
type Request struct {
	ID               string
	StudentWallet    string
	UniversityWallet string
	IssueDate        string
	Document         json.RawMessage
}

// Issued is the commitment written for an issued credential
type Issued struct {
	ID        string `json:"id"`
	Hash      string `json:"hash"`
	IssueDate string `json:"issueDate"`
}

// Result is the outcome of checking a stored credential against the ledger
type Result struct {
	ID           string                     `json:"id"`
	Hash         string                     `json:"hash"`
	Verification *fabricclient.Verification `json:"verification"`
}

// Valid reports whether the stored document still matches its commitment
func (r *Result) Valid() bool {
	return r.Verification != nil && r.Verification.IsValid
}

var ErrInvalidRequest = errors.New("invalid issuance request")

func New(cfg Config) (*Service, error) {
	if cfg.Ledger == nil || cfg.Payloads == nil {
		return nil, errors.New("issuance needs a ledger and a payload store")
	}
	s := &Service{
		ledger:   cfg.Ledger,
		payloads: cfg.Payloads,
		logger:   cfg.Logger,
		now:      cfg.Now,
		newID:    cfg.NewID,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s, nil
}

// Issue stores the document off-chain and commits its fingerprint. Retrying
// a request is safe whether the earlier attempt failed before or after the
// commitment landed.
func (s *Service) Issue(ctx context.Context, req Request) (*Issued, error) {
	if len(req.Document) == 0 {
		return nil, fmt.Errorf("%w: document is required", ErrInvalidRequest)
	}
	if req.StudentWallet == "" || req.UniversityWallet == "" {
		return nil, fmt.Errorf("%w: student and university wallets are required", ErrInvalidRequest)
	}
	if req.ID == "" {
		req.ID = s.newID()
	}
	if req.IssueDate == "" {
		req.IssueDate = s.now().UTC().Format("2006-01-02")
	}

	hash, document, err := fingerprint.Sum(req.Document)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	err = s.payloads.Put(ctx, &offchain.Payload{
		ID:               req.ID,
		StudentWallet:    req.StudentWallet,
		UniversityWallet: req.UniversityWallet,
		Hash:             hash,
		Document:         string(document),
		CreatedAt:        s.now().UTC(),
	})
	if errors.Is(err, offchain.ErrAlreadyExists) {
		existing, getErr := s.payloads.Get(ctx, req.ID)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Hash != hash {
			return nil, fmt.Errorf("credential %s: %w", req.ID, fabricclient.ErrAlreadyExists)
		}
		s.logger.Info("payload already stored, committing again", "id", req.ID)
		err = nil
	}
	if err != nil {
		return nil, err
	}

	err = s.ledger.StoreCredentialHash(ctx, fabricclient.CredentialHash{
		ID:               req.ID,
		Hash:             hash,
		StudentWallet:    req.StudentWallet,
		UniversityWallet: req.UniversityWallet,
		IssueDate:        req.IssueDate,
		Status:           fabricclient.StatusIssued,
	})
	if errors.Is(err, fabricclient.ErrAlreadyExists) {
		// an earlier attempt may have committed before its reply was lost
		committed, getErr := s.ledger.GetCredentialHash(ctx, req.ID)
		if getErr != nil {
			return nil, getErr
		}
		if committed.Hash != hash {
			return nil, err
		}
		s.logger.Info("commitment already on the ledger", "id", req.ID)
		return &Issued{ID: req.ID, Hash: hash, IssueDate: committed.IssueDate}, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("issued credential", "id", req.ID, "hash", hash)
	return &Issued{ID: req.ID, Hash: hash, IssueDate: req.IssueDate}, nil
}

// Check recomputes the fingerprint of the stored document and verifies it
// on the ledger. A tampered document is a result with Valid false.
func (s *Service) Check(ctx context.Context, id string) (*Result, error) {
	payload, err := s.payloads.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	hash, _, err := fingerprint.Sum(json.RawMessage(payload.Document))
	if err != nil {
		return nil, fmt.Errorf("stored document %s is not JSON: %w", id, err)
	}
	if hash != payload.Hash {
		s.logger.Warn("stored document no longer matches its recorded hash", "id", id)
	}

	verification, err := s.ledger.VerifyCredentialHash(ctx, id, hash)
	if err != nil {
		return nil, err
	}
	return &Result{ID: id, Hash: hash, Verification: verification}, nil
}
