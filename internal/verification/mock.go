package verification

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"
)

// mockClient answers submissions locally when no verification endpoint is
// configured (demo mode). Results are deterministic for a given document
// type and file name so demo behavior is reproducible and testable. Demo
// results are distinguishable from real ones by the "demo-" id prefix and by
// DemoMode().
type mockClient struct{}

// NewMockClient builds the demo-mode client.
func NewMockClient() Client {
	return &mockClient{}
}

func (c *mockClient) DemoMode() bool { return true }

// mockStatuses is the fixed set demo results are drawn from. PENDING is
// excluded: it only exists for incomplete history rows.
var mockStatuses = []Status{StatusVerified, StatusVerified, StatusNeedsReview, StatusRejected}

var mockOwners = []string{"Budi Santoso", "Siti Rahayu", "Agus Wijaya", "Dewi Lestari", "Hendra Gunawan"}

var mockRegions = []struct {
	Province string
	City     string
	District string
}{
	{"DKI Jakarta", "Jakarta Selatan", "Kebayoran Baru"},
	{"Jawa Barat", "Bandung", "Coblong"},
	{"Banten", "Tangerang Selatan", "Serpong"},
	{"Jawa Timur", "Surabaya", "Wonokromo"},
}

func (c *mockClient) Verify(ctx context.Context, req SubmitRequest) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.generate(string(req.DocumentType), req.FileName, req.DocumentType), nil
}

func (c *mockClient) Lookup(ctx context.Context, verificationID string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := c.generate(verificationID, "", TypeSHM)
	result.VerificationID = verificationID
	return result, nil
}

func (c *mockClient) Health(ctx context.Context) error { return nil }

func (c *mockClient) generate(seedA, seedB string, docType DocumentType) *Result {
	h := fnv.New64a()
	h.Write([]byte(seedA))
	h.Write([]byte{0})
	h.Write([]byte(seedB))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	status := mockStatuses[rng.Intn(len(mockStatuses))]

	// Score band follows the service's three-tier thresholding so the level
	// is always consistent with the score.
	var score float64
	var level RiskLevel
	switch status {
	case StatusVerified:
		score = float64(70 + rng.Intn(31)) // 70-100
		level = RiskLow
	case StatusNeedsReview:
		score = float64(40 + rng.Intn(30)) // 40-69
		level = RiskMedium
	default:
		score = float64(rng.Intn(40)) // 0-39
		level = RiskHigh
	}

	owner := mockOwners[rng.Intn(len(mockOwners))]
	region := mockRegions[rng.Intn(len(mockRegions))]
	certNo := fmt.Sprintf("%s-%04d/%s/%d", docType, rng.Intn(10000), region.City, 2015+rng.Intn(10))
	area := float64(90 + rng.Intn(910))

	result := &Result{
		VerificationID: fmt.Sprintf("demo-%016x", h.Sum64()),
		Status:         status,
		RiskAssessment: RiskAssessment{
			TotalScore: score,
			RiskLevel:  level,
			Color:      riskColor(level),
			Breakdown: map[string]FactorScore{
				"document_authenticity": {Score: clampFactor(score * 0.35), Max: 35, Detail: "Stamp and layout analysis"},
				"data_consistency":      {Score: clampFactor(score * 0.35), Max: 35, Detail: "Cross-field consistency"},
				"registry_match":        {Score: clampFactor(score * 0.30), Max: 30, Detail: "Land registry lookup"},
			},
		},
		ExtractedData: &ExtractedData{
			OwnerName:         &owner,
			CertificateNumber: &certNo,
			LandAreaSqM:       &area,
			Province:          &region.Province,
			City:              &region.City,
			District:          &region.District,
		},
		CreatedAt: time.Now(),
	}

	switch status {
	case StatusVerified:
		result.RiskAssessment.Recommendation = "Document appears authentic and consistent."
	case StatusNeedsReview:
		result.RiskAssessment.Recommendation = "Some fields could not be confirmed; manual review recommended."
		result.ValidationDetails = &ValidationDetails{
			Warnings: []ValidationIssue{{Field: "certificate_number", Message: "registry lookup inconclusive"}},
		}
	default:
		result.RiskAssessment.Recommendation = "Document failed authenticity checks."
		result.ValidationDetails = &ValidationDetails{
			Errors: []ValidationIssue{{Field: "document", Message: "authenticity markers missing"}},
		}
	}

	return result
}

func riskColor(level RiskLevel) string {
	switch level {
	case RiskLow:
		return "green"
	case RiskMedium:
		return "yellow"
	case RiskHigh:
		return "red"
	default:
		return "gray"
	}
}

func clampFactor(v float64) float64 {
	if v < 0 {
		return 0
	}
	return float64(int(v))
}
