package verification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRenderStatusTable(t *testing.T) {
	assert.Equal(t, StatusView{Label: "Verified", Tone: TonePositive}, RenderStatus(StatusVerified))
	assert.Equal(t, StatusView{Label: "Needs review", Tone: ToneCaution}, RenderStatus(StatusNeedsReview))
	assert.Equal(t, StatusView{Label: "Rejected", Tone: ToneNegative}, RenderStatus(StatusRejected))
	assert.Equal(t, StatusView{Label: "Pending", Tone: ToneNeutral}, RenderStatus(StatusPending))
	assert.Equal(t, StatusView{Label: "Pending", Tone: ToneNeutral}, RenderStatus(Status("SOMETHING_ELSE")))

	// Case-insensitive on stored strings.
	assert.Equal(t, StatusView{Label: "Verified", Tone: TonePositive}, RenderStatus(Status("verified")))
}

func TestRenderRiskToneTable(t *testing.T) {
	assert.Equal(t, TonePositive, RenderRiskTone(RiskLow))
	assert.Equal(t, ToneCaution, RenderRiskTone(RiskMedium))
	assert.Equal(t, ToneNegative, RenderRiskTone(RiskHigh))
	assert.Equal(t, ToneNeutral, RenderRiskTone(RiskLevel("UNKNOWN")))
	assert.Equal(t, TonePositive, RenderRiskTone(RiskLevel("low")))
}

func TestRenderWithoutBreakdown(t *testing.T) {
	result := &Result{
		VerificationID: "vrf-1",
		Status:         StatusVerified,
		RiskAssessment: RiskAssessment{TotalScore: 82, RiskLevel: RiskLow},
	}

	view := Render(result)
	assert.Equal(t, "Verified", view.Status.Label)
	assert.Equal(t, TonePositive, view.RiskTone)
	assert.Empty(t, view.Breakdown)
}

func TestRenderDoesNotRecomputeRiskLevel(t *testing.T) {
	// Upstream says HIGH even though the score looks good; rendering must
	// trust it.
	result := &Result{
		Status:         StatusNeedsReview,
		RiskAssessment: RiskAssessment{TotalScore: 95, RiskLevel: RiskHigh},
	}

	view := Render(result)
	assert.Equal(t, ToneNegative, view.RiskTone)
	assert.Equal(t, 95.0, view.Score)
}

func TestRenderIsIdempotent(t *testing.T) {
	result := &Result{
		Status: StatusVerified,
		RiskAssessment: RiskAssessment{
			TotalScore: 75,
			RiskLevel:  RiskLow,
			Breakdown: map[string]FactorScore{
				"registry_match":        {Score: 20, Max: 30},
				"document_authenticity": {Score: 30, Max: 35},
				"data_consistency":      {Score: 25, Max: 35},
			},
		},
	}

	first := Render(result)
	second := Render(result)
	assert.Equal(t, first, second)
}

func TestRenderPreservesWireFactorOrder(t *testing.T) {
	payload := []byte(`{
		"verification_id": "vrf-9",
		"verification_status": "VERIFIED",
		"risk_assessment": {
			"total_score": 80,
			"risk_level": "LOW",
			"breakdown": {
				"registry_match": {"score": 25, "max": 30},
				"document_authenticity": {"score": 30, "max": 35},
				"data_consistency": {"score": 25, "max": 35}
			}
		}
	}`)

	var result Result
	assert.NoError(t, json.Unmarshal(payload, &result))

	view := Render(&result)
	names := make([]string, 0, len(view.Breakdown))
	for _, factor := range view.Breakdown {
		names = append(names, factor.Name)
	}
	assert.Equal(t, []string{"registry_match", "document_authenticity", "data_consistency"}, names)
}

func TestRenderBreakdownPercent(t *testing.T) {
	result := &Result{
		Status: StatusVerified,
		RiskAssessment: RiskAssessment{
			RiskLevel: RiskLow,
			Breakdown: map[string]FactorScore{
				"half": {Score: 15, Max: 30},
				"zero_max": {Score: 5, Max: 0},
			},
		},
	}

	view := Render(result)
	byName := map[string]FactorView{}
	for _, factor := range view.Breakdown {
		byName[factor.Name] = factor
	}
	assert.Equal(t, 50.0, byName["half"].Percent)
	assert.Equal(t, 0.0, byName["zero_max"].Percent)
}

func TestReconstructNormalizesCase(t *testing.T) {
	// Scenario: a historical row stored risk_level as "low" (lowercase).
	item := &HistoryItem{
		VerificationID:     "vrf-old",
		DocumentType:       TypeSHM,
		VerificationStatus: "verified",
		RiskLevel:          "low",
		RiskScore:          88,
		CreatedAt:          time.Now(),
	}

	result := Reconstruct(item)
	assert.Equal(t, StatusVerified, result.Status)
	assert.Equal(t, RiskLow, result.RiskAssessment.RiskLevel)

	view := Render(result)
	assert.Equal(t, TonePositive, view.RiskTone)
}

func TestReconstructDefaultsMissingRisk(t *testing.T) {
	item := &HistoryItem{
		VerificationID:     "vrf-incomplete",
		VerificationStatus: "",
		RiskLevel:          "",
	}

	result := Reconstruct(item)
	assert.Equal(t, StatusPending, result.Status)
	assert.Equal(t, RiskMedium, result.RiskAssessment.RiskLevel)
	assert.Equal(t, 0.0, result.RiskAssessment.TotalScore)
}

func TestReconstructToleratesMalformedJSON(t *testing.T) {
	item := &HistoryItem{
		VerificationID:     "vrf-bad-json",
		VerificationStatus: "REJECTED",
		RiskLevel:          "HIGH",
		ExtractedData:      []byte("{not json"),
		ValidationDetails:  []byte("also not json"),
	}

	result := Reconstruct(item)
	assert.Equal(t, StatusRejected, result.Status)
	assert.Nil(t, result.ExtractedData)
	assert.Nil(t, result.ValidationDetails)
}

func TestPersistReconstructRoundTrip(t *testing.T) {
	owner := "Siti Rahayu"
	original := &Result{
		VerificationID: "vrf-round",
		Status:         StatusNeedsReview,
		RiskAssessment: RiskAssessment{
			TotalScore:     55,
			RiskLevel:      RiskMedium,
			Recommendation: "manual review recommended",
		},
		ExtractedData: &ExtractedData{OwnerName: &owner},
		ValidationDetails: &ValidationDetails{
			Warnings: []ValidationIssue{{Field: "certificate_number", Message: "inconclusive"}},
		},
		CreatedAt: time.Now(),
	}

	item, err := FlattenResult(uuid.New(), SubmitRequest{DocumentType: TypeAJB}, original, "")
	assert.NoError(t, err)
	assert.Equal(t, TypeAJB, item.DocumentType)

	rebuilt := Reconstruct(item)
	assert.Equal(t, Render(original).Status, Render(rebuilt).Status)
	assert.Equal(t, Render(original).RiskTone, Render(rebuilt).RiskTone)
	assert.Equal(t, original.RiskAssessment.TotalScore, rebuilt.RiskAssessment.TotalScore)
	assert.Equal(t, owner, *rebuilt.ExtractedData.OwnerName)
	assert.Len(t, rebuilt.ValidationDetails.Warnings, 1)
}
