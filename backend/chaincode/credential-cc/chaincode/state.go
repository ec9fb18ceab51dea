package chaincode

import (
	"fmt"
	"time"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/canonical"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

func readState(ctx contractapi.TransactionContextInterface, id string) ([]byte, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	data, err := ctx.GetStub().GetState(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read from world state: %w", err)
	}
	return data, nil
}

func keyExists(ctx contractapi.TransactionContextInterface, id string) (bool, error) {
	data, err := readState(ctx, id)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// readKind returns the record stored under id when it is of the given docType.
// Records of another kind read as absent; untagged records are accepted.
func readKind(ctx contractapi.TransactionContextInterface, id, docType string) ([]byte, error) {
	data, err := readState(ctx, id)
	if err != nil || data == nil {
		return data, err
	}
	if record, ok := decodeRecord(data); ok {
		if kind, tagged := record["docType"].(string); tagged && kind != docType {
			return nil, nil
		}
	}
	return data, nil
}

// putCanonical stores v under id in canonical form and returns the bytes written
func putCanonical(ctx contractapi.TransactionContextInterface, id string, v any) ([]byte, error) {
	data, err := canonical.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := ctx.GetStub().PutState(id, data); err != nil {
		return nil, fmt.Errorf("failed to put %s to world state: %w", id, err)
	}
	return data, nil
}

// txTime is the proposal timestamp. Endorsers share it, the wall clock they do not.
func txTime(ctx contractapi.TransactionContextInterface) (string, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return "", fmt.Errorf("failed to read transaction timestamp: %w", err)
	}
	if ts == nil {
		return "", nil
	}
	return ts.AsTime().UTC().Format(time.RFC3339Nano), nil
}

func submitter(ctx contractapi.TransactionContextInterface) (string, error) {
	clientID := ctx.GetClientIdentity()
	if clientID == nil {
		return "", nil
	}
	id, err := clientID.GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get client identity: %w", err)
	}
	return id, nil
}

// auditStamp returns who and when for the current transaction
func auditStamp(ctx contractapi.TransactionContextInterface) (string, string, error) {
	by, err := submitter(ctx)
	if err != nil {
		return "", "", err
	}
	at, err := txTime(ctx)
	if err != nil {
		return "", "", err
	}
	return by, at, nil
}

func emit(ctx contractapi.TransactionContextInterface, name string, payload []byte) error {
	if err := ctx.GetStub().SetEvent(name, payload); err != nil {
		return fmt.Errorf("failed to set event %s: %w", name, err)
	}
	return nil
}
