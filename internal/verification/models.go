package verification

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the verdict returned by the certificate verification service.
type Status string

const (
	StatusVerified    Status = "VERIFIED"
	StatusNeedsReview Status = "NEEDS_REVIEW"
	StatusRejected    Status = "REJECTED"
	// StatusPending is only produced when reconstructing incomplete history rows.
	StatusPending Status = "PENDING"
)

// RiskLevel classifies the risk score. The level is assigned by the external
// service and is never recomputed locally.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// DocumentType is the Indonesian land document classification submitted with
// each certificate.
type DocumentType string

const (
	TypeSHM   DocumentType = "SHM"   // Sertifikat Hak Milik
	TypeSHGB  DocumentType = "SHGB"  // Sertifikat Hak Guna Bangunan
	TypeAJB   DocumentType = "AJB"   // Akta Jual Beli
	TypeIMB   DocumentType = "IMB"   // Izin Mendirikan Bangunan
	TypePBB   DocumentType = "PBB"   // Pajak Bumi dan Bangunan
	TypeGirik DocumentType = "GIRIK" // Girik / customary land letter
)

// DocumentTypes lists every accepted document type.
var DocumentTypes = []DocumentType{TypeSHM, TypeSHGB, TypeAJB, TypeIMB, TypePBB, TypeGirik}

// IsValidDocumentType reports whether s names a known document type.
func IsValidDocumentType(s string) bool {
	dt := DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range DocumentTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// FactorScore is one line of the risk breakdown.
type FactorScore struct {
	Score  float64 `json:"score"`
	Max    float64 `json:"max"`
	Detail string  `json:"detail,omitempty"`
}

// RiskAssessment carries the score and classification assigned upstream.
// Breakdown is optional; factor order follows the wire payload, not a sort.
type RiskAssessment struct {
	TotalScore     float64                `json:"total_score"`
	RiskLevel      RiskLevel              `json:"risk_level"`
	Color          string                 `json:"color,omitempty"`
	Recommendation string                 `json:"recommendation,omitempty"`
	Breakdown      map[string]FactorScore `json:"breakdown,omitempty"`

	// factorOrder records the breakdown key order observed while decoding.
	// Go maps don't keep insertion order, so it is captured separately.
	factorOrder []string
}

// UnmarshalJSON decodes the assessment and records the breakdown key order
// from the payload so rendering can preserve it.
func (ra *RiskAssessment) UnmarshalJSON(data []byte) error {
	type plain RiskAssessment
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*ra = RiskAssessment(p)
	ra.factorOrder = breakdownKeyOrder(data)
	return nil
}

// FactorOrder returns breakdown factor names in wire order when known,
// falling back to a stable sorted order for assessments built in code.
func (ra *RiskAssessment) FactorOrder() []string {
	if len(ra.factorOrder) == len(ra.Breakdown) {
		ordered := true
		for _, name := range ra.factorOrder {
			if _, ok := ra.Breakdown[name]; !ok {
				ordered = false
				break
			}
		}
		if ordered && len(ra.factorOrder) > 0 {
			return ra.factorOrder
		}
	}
	return sortedFactorNames(ra.Breakdown)
}

// breakdownKeyOrder walks the raw JSON tokens and returns the keys of the
// top-level "breakdown" object in the order they appear.
func breakdownKeyOrder(data []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(data))
	// Enter the assessment object.
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, _ := keyTok.(string)
		if key != "breakdown" {
			// Skip this value entirely.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil
			}
			continue
		}
		tok, err := dec.Token()
		if err != nil || tok != json.Delim('{') {
			return nil
		}
		var order []string
		for dec.More() {
			nameTok, err := dec.Token()
			if err != nil {
				return nil
			}
			name, ok := nameTok.(string)
			if !ok {
				return nil
			}
			order = append(order, name)
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil
			}
		}
		return order
	}
	return nil
}

// ExtractedData holds fields the service read off the certificate. None of
// the fields is guaranteed present; consumers must treat every one as
// optional.
type ExtractedData struct {
	OwnerName         *string  `json:"owner_name,omitempty"`
	CertificateNumber *string  `json:"certificate_number,omitempty"`
	TaxObjectNumber   *string  `json:"tax_object_number,omitempty"`
	Address           *string  `json:"address,omitempty"`
	LandAreaSqM       *float64 `json:"land_area_sqm,omitempty"`
	Province          *string  `json:"province,omitempty"`
	City              *string  `json:"city,omitempty"`
	District          *string  `json:"district,omitempty"`
	Village           *string  `json:"village,omitempty"`
	ParcelNIB         *string  `json:"parcel_nib,omitempty"`
}

// ValidationIssue is a field-level finding reported by the service.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationDetails groups validation findings by severity.
type ValidationDetails struct {
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// Result is the structured outcome of one verification submission as returned
// by the external service (or the demo-mode generator).
type Result struct {
	VerificationID    string             `json:"verification_id"`
	Status            Status             `json:"verification_status"`
	RiskAssessment    RiskAssessment     `json:"risk_assessment"`
	ExtractedData     *ExtractedData     `json:"extracted_data,omitempty"`
	ValidationDetails *ValidationDetails `json:"validation_details,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// HistoryItem is the persisted, flattened copy of a Result. Rows are created
// once per completed submission, owned by exactly one user, and never mutated
// or deleted by this workflow.
type HistoryItem struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	UserID             uuid.UUID       `json:"user_id" db:"user_id"`
	VerificationID     string          `json:"verification_id" db:"verification_id"`
	DocumentType       DocumentType    `json:"document_type" db:"document_type"`
	VerificationStatus string          `json:"verification_status" db:"verification_status"`
	RiskLevel          string          `json:"risk_level" db:"risk_level"`
	RiskScore          float64         `json:"risk_score" db:"risk_score"`
	RiskRecommendation string          `json:"risk_recommendation" db:"risk_recommendation"`
	ExtractedData      json.RawMessage `json:"extracted_data" db:"extracted_data"`
	ValidationDetails  json.RawMessage `json:"validation_details" db:"validation_details"`
	StorageKey         string          `json:"storage_key,omitempty" db:"storage_key"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

// SubmitRequest is the input to one verification submission.
type SubmitRequest struct {
	UserID       uuid.UUID
	DocumentType DocumentType
	FileName     string
	ContentType  string
	FileSize     int64
	FileContent  []byte
}
