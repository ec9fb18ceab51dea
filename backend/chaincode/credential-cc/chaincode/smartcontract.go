package chaincode

import (
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// SmartContract is the single default contract of the credential chaincode.
// Asset and credential hash transactions are promoted from the embedded
// contracts so clients call them unqualified, e.g. "CreateAsset" rather
// than "AssetContract:CreateAsset".
type SmartContract struct {
	contractapi.Contract
	AssetContract
	CredentialContract
}

// NewSmartContract returns the contract with its name and metadata set
func NewSmartContract() *SmartContract {
	sc := &SmartContract{}
	sc.Name = "CredentialLedger"
	sc.Info.Title = "Educational credential ledger"
	sc.Info.Version = "1.0.0"
	return sc
}

// GetEvaluateTransactions marks the read-only transactions in the contract metadata
func (s *SmartContract) GetEvaluateTransactions() []string {
	return []string{
		"ReadAsset",
		"AssetExists",
		"GetAllAssets",
		"GetAssetHistory",
		"GetCredentialHash",
		"CredentialHashExists",
		"VerifyCredentialHash",
		"GetAllCredentialHashes",
	}
}
