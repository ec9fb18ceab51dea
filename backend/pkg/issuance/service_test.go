package issuance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/common"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/common/db"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/fabricclient"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/offchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryLedger keeps commitments the way the chaincode does: write-once,
// verification by exact comparison
type memoryLedger struct {
	records  map[string]fabricclient.CredentialHash
	storeErr error
	// dropReply commits the next store and then reports a failure
	dropReply bool
}

func (l *memoryLedger) StoreCredentialHash(_ context.Context, record fabricclient.CredentialHash) error {
	if l.storeErr != nil {
		err := l.storeErr
		l.storeErr = nil
		return err
	}
	if _, ok := l.records[record.ID]; ok {
		return &fabricclient.OperationError{Op: "StoreCredentialHash", ID: record.ID, Kind: fabricclient.ErrAlreadyExists}
	}
	l.records[record.ID] = record
	if l.dropReply {
		l.dropReply = false
		return &fabricclient.OperationError{Op: "StoreCredentialHash", ID: record.ID, Err: errors.New("rpc error: code = Unavailable")}
	}
	return nil
}

func (l *memoryLedger) GetCredentialHash(_ context.Context, id string) (*fabricclient.CredentialHash, error) {
	record, ok := l.records[id]
	if !ok {
		return nil, &fabricclient.OperationError{Op: "GetCredentialHash", ID: id, Kind: fabricclient.ErrNotFound}
	}
	return &record, nil
}

func (l *memoryLedger) VerifyCredentialHash(_ context.Context, id, hash string) (*fabricclient.Verification, error) {
	record, ok := l.records[id]
	if !ok {
		return nil, &fabricclient.OperationError{Op: "VerifyCredentialHash", ID: id, Kind: fabricclient.ErrNotFound}
	}
	return &fabricclient.Verification{
		ID:           id,
		IsValid:      record.Hash == hash,
		StoredHash:   record.Hash,
		ProvidedHash: hash,
		Status:       record.Status,
	}, nil
}

type fixture struct {
	service *Service
	ledger  *memoryLedger
	store   *offchain.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	gormDB, err := db.Open(ctx, common.DBConfig{Driver: common.DriverSqlite, Path: filepath.Join(t.TempDir(), "payloads.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gormDB) })
	store, err := offchain.New(ctx, gormDB, nil)
	require.NoError(t, err)

	ledger := &memoryLedger{records: make(map[string]fabricclient.CredentialHash)}
	seq := 0
	service, err := New(Config{
		Ledger:   ledger,
		Payloads: store,
		Now: func() time.Time {
			return time.Date(2024, time.July, 1, 10, 0, 0, 0, time.UTC)
		},
		NewID: func() string {
			seq++
			return fmt.Sprintf("generated-%d", seq)
		},
	})
	require.NoError(t, err)
	return &fixture{service: service, ledger: ledger, store: store}
}

var diploma = json.RawMessage(`{"name":"John Smith","degree":"BSc Computer Science","grade":"First"}`)

func TestIssueAndCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.service.Issue(ctx, Request{
		StudentWallet:    "0xstudent",
		UniversityWallet: "0xuniversity",
		Document:         diploma,
	})
	require.NoError(t, err)
	assert.Equal(t, "generated-1", issued.ID)
	assert.Equal(t, "2024-07-01", issued.IssueDate)

	record := f.ledger.records["generated-1"]
	assert.Equal(t, issued.Hash, record.Hash)
	assert.Equal(t, fabricclient.StatusIssued, record.Status)
	assert.Equal(t, "0xstudent", record.StudentWallet)

	payload, err := f.store.Get(ctx, "generated-1")
	require.NoError(t, err)
	assert.Equal(t, `{"degree":"BSc Computer Science","grade":"First","name":"John Smith"}`, payload.Document)

	result, err := f.service.Check(ctx, "generated-1")
	require.NoError(t, err)
	assert.True(t, result.Valid())
	assert.Equal(t, issued.Hash, result.Hash)
}

func TestCheckDetectsTamperedCommitment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Issue(ctx, Request{ID: "CRED-1", StudentWallet: "0xs", UniversityWallet: "0xu", IssueDate: "2023-06-15", Document: diploma})
	require.NoError(t, err)

	record := f.ledger.records["CRED-1"]
	record.Hash = "bafkreitampered"
	f.ledger.records["CRED-1"] = record

	result, err := f.service.Check(ctx, "CRED-1")
	require.NoError(t, err)
	assert.False(t, result.Valid())
	assert.True(t, result.Verification.Mismatch())
}

func TestIssueRetryAfterLedgerFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := Request{ID: "CRED-1", StudentWallet: "0xs", UniversityWallet: "0xu", Document: diploma}

	f.ledger.storeErr = &fabricclient.OperationError{Op: "StoreCredentialHash", ID: "CRED-1", Kind: fabricclient.ErrConflict}
	_, err := f.service.Issue(ctx, req)
	require.ErrorIs(t, err, fabricclient.ErrConflict)

	issued, err := f.service.Issue(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, f.ledger.records["CRED-1"].Hash, issued.Hash)
}

func TestIssueRetryAfterLostReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := Request{ID: "CRED-1", StudentWallet: "0xs", UniversityWallet: "0xu", IssueDate: "2023-06-15", Document: diploma}

	f.ledger.dropReply = true
	_, err := f.service.Issue(ctx, req)
	require.Error(t, err)
	require.Contains(t, f.ledger.records, "CRED-1")

	req.IssueDate = ""
	issued, err := f.service.Issue(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, f.ledger.records["CRED-1"].Hash, issued.Hash)
	assert.Equal(t, "2023-06-15", issued.IssueDate)
}

func TestIssueRejectsDifferentDocumentForSameID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Issue(ctx, Request{ID: "CRED-1", StudentWallet: "0xs", UniversityWallet: "0xu", Document: diploma})
	require.NoError(t, err)

	_, err = f.service.Issue(ctx, Request{ID: "CRED-1", StudentWallet: "0xs", UniversityWallet: "0xu", Document: json.RawMessage(`{"name":"Mallory"}`)})
	require.ErrorIs(t, err, fabricclient.ErrAlreadyExists)
}

func TestIssueValidatesRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Issue(ctx, Request{StudentWallet: "0xs", UniversityWallet: "0xu"})
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, err = f.service.Issue(ctx, Request{Document: diploma})
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, err = f.service.Issue(ctx, Request{StudentWallet: "0xs", UniversityWallet: "0xu", Document: json.RawMessage(`{broken`)})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, f.ledger.records)
}

func TestCheckMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Check(context.Background(), "NOPE")
	require.True(t, errors.Is(err, offchain.ErrNotFound))
}
