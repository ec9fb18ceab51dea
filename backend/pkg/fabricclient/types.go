package fabricclient

import "encoding/json"

// Asset lifecycle states
const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusIssued   = "issued"
	StatusVerified = "verified"
	StatusRevoked  = "revoked"
	StatusExpired  = "expired"
)

// terminal states are only left when the client does not enforce transitions
var terminal = map[string]bool{
	StatusRevoked: true,
	StatusExpired: true,
}

// Asset is a credential record as stored by the chaincode
type Asset struct {
	ID              string `json:"id"`
	Owner           string `json:"owner"`
	Department      string `json:"department"`
	AcademicYear    string `json:"academicYear"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	CertificateType string `json:"certificateType"`
	IssueDate       string `json:"issueDate"`
	Status          string `json:"status"`
	TxHash          string `json:"txHash"`
	DocType         string `json:"docType,omitempty"`
	CreatedBy       string `json:"createdBy,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
	UpdatedBy       string `json:"updatedBy,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

// args returns the positional arguments of CreateAsset and UpdateAsset
func (a *Asset) args() []string {
	return []string{
		a.ID,
		a.Owner,
		a.Department,
		a.AcademicYear,
		a.StartDate,
		a.EndDate,
		a.CertificateType,
		a.IssueDate,
		a.Status,
		a.TxHash,
	}
}

// CredentialHash is the on-ledger commitment to an off-ledger credential
type CredentialHash struct {
	ID               string `json:"id"`
	Hash             string `json:"hash"`
	StudentWallet    string `json:"studentWallet"`
	UniversityWallet string `json:"universityWallet"`
	IssueDate        string `json:"issueDate"`
	Status           string `json:"status"`
	StoredAt         string `json:"storedAt,omitempty"`
	DocType          string `json:"docType,omitempty"`
}

func (h *CredentialHash) args() []string {
	return []string{
		h.ID,
		h.Hash,
		h.StudentWallet,
		h.UniversityWallet,
		h.IssueDate,
		h.Status,
	}
}

// Verification is the outcome of comparing a hash against its commitment.
// A mismatch is a valid outcome and not an error.
type Verification struct {
	ID               string `json:"id"`
	IsValid          bool   `json:"isValid"`
	StoredHash       string `json:"storedHash"`
	ProvidedHash     string `json:"providedHash"`
	StudentWallet    string `json:"studentWallet"`
	UniversityWallet string `json:"universityWallet"`
	IssueDate        string `json:"issueDate"`
	Status           string `json:"status"`
	VerifiedAt       string `json:"verifiedAt"`
}

// Mismatch reports whether the provided hash differs from the stored one
func (v *Verification) Mismatch() bool {
	return !v.IsValid
}

// HistoryEntry is one committed modification of an asset key
type HistoryEntry struct {
	TxID      string          `json:"txId"`
	Timestamp string          `json:"timestamp"`
	IsDelete  bool            `json:"isDelete"`
	Value     json.RawMessage `json:"value,omitempty"`
}

// Asset decodes the record written by this modification, if any
func (h *HistoryEntry) Asset() (*Asset, bool) {
	if h.IsDelete || len(h.Value) == 0 {
		return nil, false
	}
	var asset Asset
	if err := json.Unmarshal(h.Value, &asset); err != nil {
		return nil, false
	}
	return &asset, true
}
