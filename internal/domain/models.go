package domain

import "time"

// DocumentRequest is the canonical record every generation works from.
// All fields are populated after normalization; values are display text.
type DocumentRequest struct {
	DocumentType           string `json:"document_type"`
	BuyerName              string `json:"buyer_name"`
	SellerName             string `json:"seller_name"`
	ClientName             string `json:"client_name"`
	PropertyAddress        string `json:"property_address"`
	PurchasePrice          string `json:"purchase_price"`
	ClosingDate            string `json:"closing_date"`
	PartyRole              string `json:"party_role"`
	PropertyState          string `json:"property_state"`
	TransactionType        string `json:"transaction_type"`
	ClauseInspection       bool   `json:"clause_inspection"`
	ClauseFinancing        bool   `json:"clause_financing"`
	ClauseAppraisal        bool   `json:"clause_appraisal"`
	ClauseHOA              bool   `json:"clause_hoa"`
	AdditionalInstructions string `json:"additional_instructions"`
}

// ArtifactPair names the preview and final PDFs of one generation.
// Both filenames carry the same Token.
type ArtifactPair struct {
	Token        string `json:"token"`
	DocumentType string `json:"document_type"`
	Preview      string `json:"preview"`
	Final        string `json:"final"`
}

// GenerationResult is returned to the caller once both artifacts are stored.
type GenerationResult struct {
	Success       bool   `json:"success"`
	PreviewURL    string `json:"preview_url"`
	FinalFilename string `json:"final_filename"`
}

// CheckoutSession is the payment backend's session handle.
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url,omitempty"`
}

// ArtifactInfo describes a stored artifact.
type ArtifactInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}
