package verification

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"tanaestate/portal-backend/pkg/pdf"
)

// Report renders a persisted verification as a downloadable PDF summary.
func (s *verificationService) Report(ctx context.Context, userID uuid.UUID, verificationID string) (io.ReadSeeker, error) {
	item, err := s.repo.GetByVerificationID(ctx, userID, verificationID)
	if err != nil {
		return nil, err
	}

	result := Reconstruct(item)
	view := Render(result)

	report := pdf.Report{
		Title:    "Certificate Verification Report",
		Subtitle: fmt.Sprintf("%s · %s · %s", item.DocumentType, result.VerificationID, item.CreatedAt.Format(time.RFC1123)),
		Sections: []pdf.Section{
			{
				Heading: "Outcome",
				Rows: []pdf.Row{
					{Label: "Status", Value: view.Status.Label},
					{Label: "Risk level", Value: string(view.RiskLevel)},
				},
				Bars: []pdf.Bar{
					{Label: "Overall score", Value: view.Score, Max: 100, Note: view.Recommendation},
				},
			},
		},
	}

	if len(view.Breakdown) > 0 {
		section := pdf.Section{Heading: "Risk breakdown"}
		for _, factor := range view.Breakdown {
			section.Bars = append(section.Bars, pdf.Bar{
				Label: factor.Name,
				Value: factor.Score,
				Max:   factor.Max,
				Note:  factor.Detail,
			})
		}
		report.Sections = append(report.Sections, section)
	}

	if data := result.ExtractedData; data != nil {
		section := pdf.Section{Heading: "Extracted data"}
		appendRow := func(label string, value *string) {
			if value != nil && *value != "" {
				section.Rows = append(section.Rows, pdf.Row{Label: label, Value: *value})
			}
		}
		appendRow("Owner", data.OwnerName)
		appendRow("Certificate number", data.CertificateNumber)
		appendRow("Tax object number", data.TaxObjectNumber)
		appendRow("Address", data.Address)
		if data.LandAreaSqM != nil {
			section.Rows = append(section.Rows, pdf.Row{Label: "Land area", Value: fmt.Sprintf("%.0f m²", *data.LandAreaSqM)})
		}
		appendRow("Province", data.Province)
		appendRow("City", data.City)
		appendRow("District", data.District)
		appendRow("Village", data.Village)
		appendRow("Parcel NIB", data.ParcelNIB)
		if len(section.Rows) > 0 {
			report.Sections = append(report.Sections, section)
		}
	}

	if details := result.ValidationDetails; details != nil {
		section := pdf.Section{Heading: "Validation findings"}
		for _, issue := range details.Errors {
			section.Rows = append(section.Rows, pdf.Row{Label: "Error: " + issue.Field, Value: issue.Message})
		}
		for _, issue := range details.Warnings {
			section.Rows = append(section.Rows, pdf.Row{Label: "Warning: " + issue.Field, Value: issue.Message})
		}
		if len(section.Rows) > 0 {
			report.Sections = append(report.Sections, section)
		}
	}

	return s.pdf.Generate(ctx, report)
}
