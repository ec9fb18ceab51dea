package chaincode

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// AssetContract holds the credential record transactions
type AssetContract struct{}

// CreateAsset issues a new credential record. Fails if the id is taken.
func (s *AssetContract) CreateAsset(ctx contractapi.TransactionContextInterface, id string, owner string, department string, academicYear string, startDate string, endDate string, certificateType string, issueDate string, status string, txHash string) error {
	if err := checkStatus(status); err != nil {
		return err
	}
	exists, err := keyExists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return alreadyExists("asset", id)
	}

	by, at, err := auditStamp(ctx)
	if err != nil {
		return err
	}
	asset := Asset{
		DocType:         DocTypeAsset,
		ID:              id,
		Owner:           owner,
		Department:      department,
		AcademicYear:    academicYear,
		StartDate:       startDate,
		EndDate:         endDate,
		CertificateType: certificateType,
		IssueDate:       issueDate,
		Status:          status,
		TxHash:          txHash,
		CreatedBy:       by,
		CreatedAt:       at,
	}
	assetBytes, err := putCanonical(ctx, id, asset)
	if err != nil {
		return err
	}
	return emit(ctx, EventAssetCreated, assetBytes)
}

// ReadAsset returns the stored record bytes unchanged
func (s *AssetContract) ReadAsset(ctx contractapi.TransactionContextInterface, id string) (string, error) {
	assetBytes, err := readKind(ctx, id, DocTypeAsset)
	if err != nil {
		return "", err
	}
	if assetBytes == nil {
		return "", notFound("asset", id)
	}
	return string(assetBytes), nil
}

// UpdateAsset replaces every caller-supplied field of an existing record.
// Nothing from the previous record survives apart from the creation audit stamp.
func (s *AssetContract) UpdateAsset(ctx contractapi.TransactionContextInterface, id string, owner string, department string, academicYear string, startDate string, endDate string, certificateType string, issueDate string, status string, txHash string) error {
	if err := checkStatus(status); err != nil {
		return err
	}
	existing, err := s.loadAsset(ctx, id)
	if err != nil {
		return err
	}

	by, at, err := auditStamp(ctx)
	if err != nil {
		return err
	}
	asset := Asset{
		DocType:         DocTypeAsset,
		ID:              id,
		Owner:           owner,
		Department:      department,
		AcademicYear:    academicYear,
		StartDate:       startDate,
		EndDate:         endDate,
		CertificateType: certificateType,
		IssueDate:       issueDate,
		Status:          status,
		TxHash:          txHash,
		CreatedBy:       existing.CreatedBy,
		CreatedAt:       existing.CreatedAt,
		UpdatedBy:       by,
		UpdatedAt:       at,
	}
	assetBytes, err := putCanonical(ctx, id, asset)
	if err != nil {
		return err
	}
	return emit(ctx, EventAssetUpdated, assetBytes)
}

// UpdateAssetStatus changes only the status of an existing record.
// Any status may replace any other, including revoked and expired.
func (s *AssetContract) UpdateAssetStatus(ctx contractapi.TransactionContextInterface, id string, newStatus string) error {
	if err := checkStatus(newStatus); err != nil {
		return err
	}
	asset, err := s.loadAsset(ctx, id)
	if err != nil {
		return err
	}

	by, at, err := auditStamp(ctx)
	if err != nil {
		return err
	}
	asset.Status = newStatus
	asset.UpdatedBy = by
	asset.UpdatedAt = at

	assetBytes, err := putCanonical(ctx, id, asset)
	if err != nil {
		return err
	}
	return emit(ctx, EventAssetStatusUpdated, assetBytes)
}

// DeleteAsset removes a record from the world state
func (s *AssetContract) DeleteAsset(ctx contractapi.TransactionContextInterface, id string) error {
	if _, err := s.loadAsset(ctx, id); err != nil {
		return err
	}

	if err := ctx.GetStub().DelState(id); err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", id, err)
	}
	return emit(ctx, EventAssetDeleted, []byte(id))
}

// TransferAsset sets a new owner and returns the previous one
func (s *AssetContract) TransferAsset(ctx contractapi.TransactionContextInterface, id string, newOwner string) (string, error) {
	asset, err := s.loadAsset(ctx, id)
	if err != nil {
		return "", err
	}

	by, at, err := auditStamp(ctx)
	if err != nil {
		return "", err
	}
	oldOwner := asset.Owner
	asset.Owner = newOwner
	asset.UpdatedBy = by
	asset.UpdatedAt = at

	assetBytes, err := putCanonical(ctx, id, asset)
	if err != nil {
		return "", err
	}
	if err := emit(ctx, EventAssetTransferred, assetBytes); err != nil {
		return "", err
	}
	return oldOwner, nil
}

// AssetExists returns true when an asset with the given id exists in world state
func (s *AssetContract) AssetExists(ctx contractapi.TransactionContextInterface, id string) (bool, error) {
	assetBytes, err := readKind(ctx, id, DocTypeAsset)
	if err != nil {
		return false, err
	}
	return assetBytes != nil, nil
}

// GetAllAssets returns every asset in the world state as a JSON array
func (s *AssetContract) GetAllAssets(ctx contractapi.TransactionContextInterface) (string, error) {
	return scanRange(ctx, "", "", DocTypeAsset)
}

// GetAssetHistory returns the modifications recorded for an asset key.
// Credential hashes stored under the same key are not part of it.
func (s *AssetContract) GetAssetHistory(ctx contractapi.TransactionContextInterface, id string) (string, error) {
	if id == "" {
		return "", ErrEmptyID
	}
	return history(ctx, id, DocTypeAsset)
}

func (s *AssetContract) loadAsset(ctx contractapi.TransactionContextInterface, id string) (*Asset, error) {
	assetBytes, err := readKind(ctx, id, DocTypeAsset)
	if err != nil {
		return nil, err
	}
	if assetBytes == nil {
		return nil, notFound("asset", id)
	}

	var asset Asset
	if err := json.Unmarshal(assetBytes, &asset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset %s: %w", id, err)
	}
	asset.DocType = DocTypeAsset
	return &asset, nil
}
