package fabricclient

import (
	"context"
	"errors"
)

// StoreCredentialHash records a commitment. Commitments are write-once.
func (c *Client) StoreCredentialHash(ctx context.Context, record CredentialHash) error {
	if err := requireID("StoreCredentialHash", record.ID); err != nil {
		return err
	}
	if record.Hash == "" {
		return &OperationError{Op: "StoreCredentialHash", ID: record.ID, Kind: ErrInvalidArgument, Err: errors.New("hash must not be empty")}
	}
	_, err := c.submit(ctx, "StoreCredentialHash", record.args()...)
	return opError("StoreCredentialHash", record.ID, err)
}

// GetCredentialHash returns the commitment stored under id
func (c *Client) GetCredentialHash(ctx context.Context, id string) (*CredentialHash, error) {
	if err := requireID("GetCredentialHash", id); err != nil {
		return nil, err
	}
	record, err := evaluateInto[CredentialHash](ctx, c, "GetCredentialHash", id, id)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CredentialHashExists reports whether a commitment is stored under id
func (c *Client) CredentialHashExists(ctx context.Context, id string) (bool, error) {
	if err := requireID("CredentialHashExists", id); err != nil {
		return false, err
	}
	return evaluateInto[bool](ctx, c, "CredentialHashExists", id, id)
}

// VerifyCredentialHash compares hash with the stored commitment. A mismatch
// is reported through Verification.IsValid, not as an error.
func (c *Client) VerifyCredentialHash(ctx context.Context, id, hash string) (*Verification, error) {
	if err := requireID("VerifyCredentialHash", id); err != nil {
		return nil, err
	}
	result, err := evaluateInto[Verification](ctx, c, "VerifyCredentialHash", id, id, hash)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAllCredentialHashes returns every stored commitment
func (c *Client) GetAllCredentialHashes(ctx context.Context) (*ScanResult[CredentialHash], error) {
	payload, err := c.evaluate(ctx, "GetAllCredentialHashes")
	if err != nil {
		return nil, opError("GetAllCredentialHashes", "", err)
	}
	decoded := decodeScan[CredentialHash](payload)
	c.noteDecode("GetAllCredentialHashes", decoded.Path)
	result, err := decoded.Result()
	if err != nil {
		return nil, opError("GetAllCredentialHashes", "", err)
	}
	return &result, nil
}
