package fabricclient

import (
	"context"
	"errors"
	"fmt"
)

const dateLayout = "2006-01-02"

func requireID(op, id string) error {
	if id == "" {
		return &OperationError{Op: op, Kind: ErrInvalidArgument, Err: errors.New("id must not be empty")}
	}
	return nil
}

// CreateAsset issues a new credential record
func (c *Client) CreateAsset(ctx context.Context, asset Asset) error {
	if err := requireID("CreateAsset", asset.ID); err != nil {
		return err
	}
	_, err := c.submit(ctx, "CreateAsset", asset.args()...)
	return opError("CreateAsset", asset.ID, err)
}

// ReadAsset returns the record stored under id
func (c *Client) ReadAsset(ctx context.Context, id string) (*Asset, error) {
	if err := requireID("ReadAsset", id); err != nil {
		return nil, err
	}
	asset, err := evaluateInto[Asset](ctx, c, "ReadAsset", id, id)
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// UpdateAsset replaces every field of an existing record
func (c *Client) UpdateAsset(ctx context.Context, asset Asset) error {
	if err := requireID("UpdateAsset", asset.ID); err != nil {
		return err
	}
	_, err := c.submit(ctx, "UpdateAsset", asset.args()...)
	return opError("UpdateAsset", asset.ID, err)
}

// DeleteAsset removes a record
func (c *Client) DeleteAsset(ctx context.Context, id string) error {
	if err := requireID("DeleteAsset", id); err != nil {
		return err
	}
	_, err := c.submit(ctx, "DeleteAsset", id)
	return opError("DeleteAsset", id, err)
}

// TransferAsset sets a new owner and returns the previous one
func (c *Client) TransferAsset(ctx context.Context, id, newOwner string) (string, error) {
	if err := requireID("TransferAsset", id); err != nil {
		return "", err
	}
	payload, err := c.submit(ctx, "TransferAsset", id, newOwner)
	if err != nil {
		return "", opError("TransferAsset", id, err)
	}
	decoded := DecodeText(payload)
	c.noteDecode("TransferAsset", decoded.Path)
	previous, err := decoded.Result()
	if err != nil {
		return "", opError("TransferAsset", id, err)
	}
	return previous, nil
}

// UpdateAssetStatus changes only the status of a record. When the chaincode
// has no UpdateAssetStatus function the record is read and written back
// whole through UpdateAsset.
func (c *Client) UpdateAssetStatus(ctx context.Context, id, status string) error {
	const op = "UpdateAssetStatus"
	if err := requireID(op, id); err != nil {
		return err
	}
	if c.config.EnforceTransitions {
		current, err := c.ReadAsset(ctx, id)
		if err != nil {
			return opError(op, id, err)
		}
		if terminal[current.Status] && current.Status != status {
			return &OperationError{
				Op:   op,
				ID:   id,
				Kind: ErrInvalidTransition,
				Err:  fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, status),
			}
		}
	}

	_, err := c.submit(ctx, op, id, status)
	if err == nil {
		return nil
	}
	if !missingFunction(err) {
		return opError(op, id, err)
	}

	c.logger.Warn("chaincode has no status update, rewriting whole record", "id", id, "status", status)
	asset, err := c.ReadAsset(ctx, id)
	if err != nil {
		return opError(op, id, err)
	}
	asset.Status = status
	if status == StatusIssued && asset.IssueDate == "" {
		asset.IssueDate = c.now().Format(dateLayout)
	}
	return opError(op, id, c.UpdateAsset(ctx, *asset))
}

// AssetExists reports whether an asset is stored under id. Failures are
// returned rather than read as absence.
func (c *Client) AssetExists(ctx context.Context, id string) (bool, error) {
	if err := requireID("AssetExists", id); err != nil {
		return false, err
	}
	return evaluateInto[bool](ctx, c, "AssetExists", id, id)
}

// GetAllAssets returns every asset. Entries the ledger could not parse are
// returned in Raw.
func (c *Client) GetAllAssets(ctx context.Context) (*ScanResult[Asset], error) {
	payload, err := c.evaluate(ctx, "GetAllAssets")
	if err != nil {
		return nil, opError("GetAllAssets", "", err)
	}
	decoded := decodeScan[Asset](payload)
	c.noteDecode("GetAllAssets", decoded.Path)
	result, err := decoded.Result()
	if err != nil {
		return nil, opError("GetAllAssets", "", err)
	}
	if len(result.Raw) > 0 {
		c.logger.Warn("ledger returned unparsable assets", "count", len(result.Raw))
	}
	return &result, nil
}

// GetAssetsByOwner filters GetAllAssets by owner
func (c *Client) GetAssetsByOwner(ctx context.Context, owner string) ([]Asset, error) {
	return c.filterAssets(ctx, "GetAssetsByOwner", func(a *Asset) bool {
		return a.Owner == owner
	})
}

// GetAssetsByStatus filters GetAllAssets by status
func (c *Client) GetAssetsByStatus(ctx context.Context, status string) ([]Asset, error) {
	return c.filterAssets(ctx, "GetAssetsByStatus", func(a *Asset) bool {
		return a.Status == status
	})
}

func (c *Client) filterAssets(ctx context.Context, op string, keep func(*Asset) bool) ([]Asset, error) {
	all, err := c.GetAllAssets(ctx)
	if err != nil {
		return nil, &OperationError{Op: op, Kind: classify(err), Err: err}
	}
	matched := make([]Asset, 0)
	for i := range all.Records {
		if keep(&all.Records[i]) {
			matched = append(matched, all.Records[i])
		}
	}
	return matched, nil
}

// GetAssetHistory returns the committed modifications of an asset, oldest
// first. History is informational: failures are logged and yield an empty
// list.
func (c *Client) GetAssetHistory(ctx context.Context, id string) []HistoryEntry {
	if id == "" {
		return []HistoryEntry{}
	}
	entries, err := evaluateInto[[]HistoryEntry](ctx, c, "GetAssetHistory", id, id)
	if err != nil {
		c.logger.Warn("failed to read asset history", "id", id, "error", err)
		return []HistoryEntry{}
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	return entries
}
