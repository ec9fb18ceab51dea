package chaincode

// Asset is a credential record keyed by its certificate id
type Asset struct {
	DocType         string `json:"docType"`
	ID              string `json:"id"`
	Owner           string `json:"owner"`
	Department      string `json:"department"`
	AcademicYear    string `json:"academicYear"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	CertificateType string `json:"certificateType"`
	IssueDate       string `json:"issueDate"`
	Status          string `json:"status"` // draft, pending, issued, verified, revoked, expired
	TxHash          string `json:"txHash"`
	CreatedBy       string `json:"createdBy,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
	UpdatedBy       string `json:"updatedBy,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

// CredentialHash is the on-ledger commitment to an off-ledger credential.
// It never carries the credential content itself.
type CredentialHash struct {
	DocType          string `json:"docType"`
	ID               string `json:"id"`
	Hash             string `json:"hash"`
	StudentWallet    string `json:"studentWallet"`
	UniversityWallet string `json:"universityWallet"`
	IssueDate        string `json:"issueDate"`
	Status           string `json:"status"`
	StoredAt         string `json:"storedAt"`
}

// VerificationResult is returned by VerifyCredentialHash
type VerificationResult struct {
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

// HistoryEntry is one modification of a key as reported by GetAssetHistory
type HistoryEntry struct {
	TxID      string `json:"txId"`
	Timestamp string `json:"timestamp"`
	IsDelete  bool   `json:"isDelete"`
	Value     any    `json:"value,omitempty"`
}

const (
	DocTypeAsset          = "asset"
	DocTypeCredentialHash = "credentialHash"
)

const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusIssued   = "issued"
	StatusVerified = "verified"
	StatusRevoked  = "revoked"
	StatusExpired  = "expired"
)

// Event names emitted with SetEvent
const (
	EventAssetCreated         = "AssetCreated"
	EventAssetUpdated         = "AssetUpdated"
	EventAssetStatusUpdated   = "AssetStatusUpdated"
	EventAssetDeleted         = "AssetDeleted"
	EventAssetTransferred     = "AssetTransferred"
	EventCredentialHashStored = "CredentialHashStored"
)

var validStatuses = map[string]struct{}{
	StatusDraft:    {},
	StatusPending:  {},
	StatusIssued:   {},
	StatusVerified: {},
	StatusRevoked:  {},
	StatusExpired:  {},
}

// ValidStatus reports whether status is one of the asset lifecycle states
func ValidStatus(status string) bool {
	_, ok := validStatuses[status]
	return ok
}
