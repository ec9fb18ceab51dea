package chaincode

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// CredentialContract keeps an append-only log of credential hash commitments.
// Only the digest and its routing metadata are written; the credential itself
// stays off the ledger. There is deliberately no update or delete transaction.
type CredentialContract struct{}

// StoreCredentialHash records the commitment for a credential id
func (s *CredentialContract) StoreCredentialHash(ctx contractapi.TransactionContextInterface, id string, hash string, studentWallet string, universityWallet string, issueDate string, status string) error {
	if hash == "" {
		return fmt.Errorf("hash for credential %s must not be empty", id)
	}
	exists, err := keyExists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return alreadyExists("credential hash", id)
	}

	storedAt, err := txTime(ctx)
	if err != nil {
		return err
	}
	record := CredentialHash{
		DocType:          DocTypeCredentialHash,
		ID:               id,
		Hash:             hash,
		StudentWallet:    studentWallet,
		UniversityWallet: universityWallet,
		IssueDate:        issueDate,
		Status:           status,
		StoredAt:         storedAt,
	}
	recordBytes, err := putCanonical(ctx, id, record)
	if err != nil {
		return err
	}
	return emit(ctx, EventCredentialHashStored, recordBytes)
}

// GetCredentialHash returns the stored commitment bytes unchanged
func (s *CredentialContract) GetCredentialHash(ctx contractapi.TransactionContextInterface, id string) (string, error) {
	recordBytes, err := readKind(ctx, id, DocTypeCredentialHash)
	if err != nil {
		return "", err
	}
	if recordBytes == nil {
		return "", notFound("credential hash", id)
	}
	return string(recordBytes), nil
}

// CredentialHashExists reports whether a commitment is stored for id
func (s *CredentialContract) CredentialHashExists(ctx contractapi.TransactionContextInterface, id string) (bool, error) {
	recordBytes, err := readKind(ctx, id, DocTypeCredentialHash)
	if err != nil {
		return false, err
	}
	return recordBytes != nil, nil
}

// VerifyCredentialHash compares providedHash with the stored commitment.
// A mismatch is a valid result with IsValid false, not an error.
func (s *CredentialContract) VerifyCredentialHash(ctx contractapi.TransactionContextInterface, id string, providedHash string) (*VerificationResult, error) {
	recordBytes, err := readKind(ctx, id, DocTypeCredentialHash)
	if err != nil {
		return nil, err
	}
	if recordBytes == nil {
		return nil, notFound("credential hash", id)
	}

	var record CredentialHash
	if err := json.Unmarshal(recordBytes, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential hash %s: %w", id, err)
	}
	verifiedAt, err := txTime(ctx)
	if err != nil {
		return nil, err
	}

	return &VerificationResult{
		ID:               id,
		IsValid:          record.Hash == providedHash,
		StoredHash:       record.Hash,
		ProvidedHash:     providedHash,
		StudentWallet:    record.StudentWallet,
		UniversityWallet: record.UniversityWallet,
		IssueDate:        record.IssueDate,
		Status:           record.Status,
		VerifiedAt:       verifiedAt,
	}, nil
}

// GetAllCredentialHashes returns every stored commitment as a JSON array
func (s *CredentialContract) GetAllCredentialHashes(ctx contractapi.TransactionContextInterface) (string, error) {
	return scanRange(ctx, "", "", DocTypeCredentialHash)
}
