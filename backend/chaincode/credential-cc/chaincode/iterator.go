package chaincode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/canonical"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// scanRange walks [startKey, endKey) and returns a canonical JSON array of
// every record of the given docType. An empty start and end key scan the whole
// namespace. Records tagged with a different docType are skipped; values that
// do not parse as a JSON object are kept as raw strings rather than failing
// the scan.
func scanRange(ctx contractapi.TransactionContextInterface, startKey, endKey, docType string) (string, error) {
	resultsIterator, err := ctx.GetStub().GetStateByRange(startKey, endKey)
	if err != nil {
		return "", fmt.Errorf("failed to open range %q-%q: %w", startKey, endKey, err)
	}
	defer resultsIterator.Close()

	results := make([]any, 0)
	for resultsIterator.HasNext() {
		kv, err := resultsIterator.Next()
		if err != nil {
			return "", fmt.Errorf("failed to iterate range: %w", err)
		}

		record, ok := decodeRecord(kv.Value)
		if !ok {
			results = append(results, string(kv.Value))
			continue
		}
		if kind, tagged := record["docType"].(string); tagged && kind != docType {
			continue
		}
		results = append(results, record)
	}

	return canonical.MarshalString(results)
}

// history returns the modifications of key in the order the peer reports
// them. Writes of records of another docType are left out; deletes are kept
// since only assets are ever deleted.
func history(ctx contractapi.TransactionContextInterface, key, docType string) (string, error) {
	historyIterator, err := ctx.GetStub().GetHistoryForKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to read history for %s: %w", key, err)
	}
	defer historyIterator.Close()

	entries := make([]HistoryEntry, 0)
	for historyIterator.HasNext() {
		mod, err := historyIterator.Next()
		if err != nil {
			return "", fmt.Errorf("failed to iterate history: %w", err)
		}
		entry := HistoryEntry{
			TxID:     mod.TxId,
			IsDelete: mod.IsDelete,
		}
		if mod.Timestamp != nil {
			entry.Timestamp = mod.Timestamp.AsTime().UTC().Format(time.RFC3339Nano)
		}
		if len(mod.Value) > 0 {
			if record, ok := decodeRecord(mod.Value); ok {
				if kind, tagged := record["docType"].(string); tagged && kind != docType {
					continue
				}
				entry.Value = record
			} else {
				entry.Value = string(mod.Value)
			}
		}
		entries = append(entries, entry)
	}

	return canonical.MarshalString(entries)
}

func decodeRecord(value []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil || record == nil || dec.More() {
		return nil, false
	}
	return record, true
}
