package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"transportdesk/internal/domain"
	"transportdesk/internal/domain/models"
	"transportdesk/internal/utils"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
)

// TripSheet renders the driver's trip sheet for an approved request.
func (s RequestService) TripSheet(ctx context.Context, id int64) ([]byte, string, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if r.Status != models.StatusApproved {
		return nil, "", domain.ConflictError{
			Resource: resourceTransportRequest,
			Msg:      fmt.Sprintf("trip sheet is only available for approved requests (current: %s)", r.Status),
		}
	}

	pdf, filename, err := buildTripSheetPDF(r, utils.FormatDateTime(s.now(), s.location()))
	if err != nil {
		return nil, "", domain.InternalError{Msg: "failed to render trip sheet", Err: err}
	}
	utils.LogEvent(s.logger(), s.RequestID, "docs", "trip_sheet", "trip sheet generated", zap.Int64("id", id))
	return pdf, filename, nil
}

func buildTripSheetPDF(r models.TransportRequest, printedAt string) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Trip Sheet", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRIP SHEET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Request No.    : TR-%06d", r.ID),
		fmt.Sprintf("Unit           : %s", safe(r.UnitName, "-")),
		fmt.Sprintf("Personnel      : %s", safe(r.PersonnelName, "-")),
		fmt.Sprintf("Phone          : %s", safe(r.PhoneNumber, "-")),
		fmt.Sprintf("Date / Time    : %s %s", safe(r.MissionDate, "-"), safe(timeHM(r.MissionTime), "-")),
		fmt.Sprintf("Destination    : %s", safe(r.Destination, "-")),
		fmt.Sprintf("Wheelchair     : %s", yesNo(r.WithWheelchair)),
		fmt.Sprintf("Stretcher      : %s", yesNo(r.WithStretcher)),
		fmt.Sprintf("Status         : %s", r.Status),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, tr(s))
		pdf.Ln(7)
	}

	if strings.TrimSpace(r.Notes) != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Notes")
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(r.Notes), "", "", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Printed "+printedAt+". Hand this sheet to the driver before departure.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("TRIP_SHEET_%d_%s.pdf", r.ID, safeFilenamePart(r.UnitName))
	return buf.Bytes(), filename, nil
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func timeHM(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 5 {
		return v[:5]
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
