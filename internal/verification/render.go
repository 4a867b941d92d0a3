package verification

import (
	"sort"
	"strings"
)

// Tone is the visual classification a result maps to.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneCaution  Tone = "caution"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

// StatusView is the display state for a verification status.
type StatusView struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

// FactorView is one rendered breakdown line.
type FactorView struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Max     float64 `json:"max"`
	Percent float64 `json:"percent"`
	Detail  string  `json:"detail,omitempty"`
}

// ResultView is the full display state derived from a Result. Deriving it is
// a pure mapping: the upstream risk level is trusted as-is and never
// recomputed from the score.
type ResultView struct {
	Status         StatusView   `json:"status"`
	RiskTone       Tone         `json:"risk_tone"`
	RiskLevel      RiskLevel    `json:"risk_level"`
	Score          float64      `json:"score"`
	Recommendation string       `json:"recommendation,omitempty"`
	Breakdown      []FactorView `json:"breakdown,omitempty"`
}

// RenderStatus maps a status to its label and tone. Matching is
// case-insensitive; anything unknown renders as pending/neutral.
func RenderStatus(status Status) StatusView {
	switch Status(strings.ToUpper(string(status))) {
	case StatusVerified:
		return StatusView{Label: "Verified", Tone: TonePositive}
	case StatusNeedsReview:
		return StatusView{Label: "Needs review", Tone: ToneCaution}
	case StatusRejected:
		return StatusView{Label: "Rejected", Tone: ToneNegative}
	default:
		return StatusView{Label: "Pending", Tone: ToneNeutral}
	}
}

// RenderRiskTone maps a risk level to a tone. Matching is case-insensitive;
// unknown levels render neutral.
func RenderRiskTone(level RiskLevel) Tone {
	switch RiskLevel(strings.ToUpper(string(level))) {
	case RiskLow:
		return TonePositive
	case RiskMedium:
		return ToneCaution
	case RiskHigh:
		return ToneNegative
	default:
		return ToneNeutral
	}
}

// Render derives the display state for a result. It has no side effects and
// no hidden state: rendering the same result twice yields identical views.
// An absent breakdown simply omits the breakdown section.
func Render(result *Result) ResultView {
	view := ResultView{
		Status:         RenderStatus(result.Status),
		RiskTone:       RenderRiskTone(result.RiskAssessment.RiskLevel),
		RiskLevel:      RiskLevel(strings.ToUpper(string(result.RiskAssessment.RiskLevel))),
		Score:          result.RiskAssessment.TotalScore,
		Recommendation: result.RiskAssessment.Recommendation,
	}

	breakdown := result.RiskAssessment.Breakdown
	if len(breakdown) == 0 {
		return view
	}

	for _, name := range result.RiskAssessment.FactorOrder() {
		factor, ok := breakdown[name]
		if !ok {
			continue
		}
		fv := FactorView{
			Name:   name,
			Score:  factor.Score,
			Max:    factor.Max,
			Detail: factor.Detail,
		}
		if factor.Max > 0 {
			fv.Percent = factor.Score / factor.Max * 100
		}
		view.Breakdown = append(view.Breakdown, fv)
	}
	return view
}

// sortedFactorNames is the fallback ordering for breakdowns built in code
// rather than decoded from the wire.
func sortedFactorNames(breakdown map[string]FactorScore) []string {
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
