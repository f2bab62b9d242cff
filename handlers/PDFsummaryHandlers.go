package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"time"

	"buildtrack/models"
	"buildtrack/services"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

type rgb struct{ R, G, B int }

var (
	headerBlue = rgb{R: 40, G: 60, B: 110}
	borderGray = rgb{R: 210, G: 210, B: 210}
)

// qrJPEG encodes data as JSON inside a JPEG QR code.
func qrJPEG(data interface{}, size int) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	qr, err := qrcode.New(string(payload), qrcode.Medium)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, qr.Image(size), nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func tableHeader(pdf *gofpdf.Fpdf, widths []float64, cols ...string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(headerBlue.R, headerBlue.G, headerBlue.B)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetDrawColor(borderGray.R, borderGray.G, borderGray.B)
	for i, col := range cols {
		pdf.CellFormat(widths[i], 8, col, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(255, 255, 255)
	pdf.SetTextColor(0, 0, 0)
}

func tableRow(pdf *gofpdf.Fpdf, widths []float64, cells ...string) {
	for i, cell := range cells {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, cell, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 13)
	pdf.SetTextColor(headerBlue.R, headerBlue.G, headerBlue.B)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// renderSummaryPDF lays out the overview on A4 with a QR code linking back to the project.
func renderSummaryPDF(projectID string, o *models.OverviewReport, critical []models.CriticalItem, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(130, 10, o.Project.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	loc := o.Project.Location
	pdf.CellFormat(130, 6, fmt.Sprintf("%s, %s", loc.Address, loc.City), "", 1, "L", false, 0, "")
	pdf.CellFormat(130, 6, "Status: "+humanize(string(o.Project.Status)), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(130, 6, "Generated On: "+now.Format("02-Jan-2006 15:04:05"), "", 1, "L", false, 0, "")

	qr, err := qrJPEG(struct {
		ProjectID string `json:"projectId"`
		Name      string `json:"name"`
	}{projectID, o.Project.Name}, 200)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "JPEG"}
	pdf.RegisterImageOptionsReader("project-qr", opts, bytes.NewReader(qr))
	pdf.ImageOptions("project-qr", 160, 12, 32, 32, false, opts, 0, "")
	pdf.SetY(50)

	sectionTitle(pdf, "Financial Summary")
	w := []float64{90, 90}
	f := o.FinancialSummary
	tableHeader(pdf, w, "Measure", "Amount")
	tableRow(pdf, w, "Total Budget", money(f.TotalBudget))
	tableRow(pdf, w, "Total Spent", money(f.TotalSpent))
	tableRow(pdf, w, "Remaining Budget", money(f.RemainingBudget))
	tableRow(pdf, w, "Budget Utilization", f.BudgetUtilization+"%")
	tableRow(pdf, w, "Land Costs", money(f.LandCosts))
	tableRow(pdf, w, "Construction Costs", money(f.ConstructionCosts))
	tableRow(pdf, w, "Consultant Costs", money(f.ConsultantCosts))

	sectionTitle(pdf, "Phase Progress")
	h := o.PhaseProgress
	w = []float64{36, 36, 36, 36, 36}
	tableHeader(pdf, w, "Total", "Completed", "In Progress", "Pending", "On Hold")
	tableRow(pdf, w, fmt.Sprint(h.Total), fmt.Sprint(h.Completed), fmt.Sprint(h.InProgress), fmt.Sprint(h.Pending), fmt.Sprint(h.OnHold))
	if len(o.CurrentPhases) > 0 {
		pdf.Ln(3)
		w = []float64{70, 30, 40, 40}
		tableHeader(pdf, w, "Current Phase", "Floor", "Progress", "Started")
		for _, cp := range o.CurrentPhases {
			started := "-"
			if cp.StartDate != nil {
				started = cp.StartDate.Format("02-Jan-2006")
			}
			tableRow(pdf, w, humanize(string(cp.Phase)), fmt.Sprint(cp.Floor), services.FormatFixed2(cp.Progress)+"%", started)
		}
	}

	sectionTitle(pdf, "Bill of Quantities")
	b := o.BOQSummary
	w = []float64{36, 36, 36, 36, 36}
	tableHeader(pdf, w, "Items", "Total", "Ordered", "Received", "Used")
	tableRow(pdf, w, fmt.Sprint(b.TotalItems), money(b.TotalValue), money(b.OrderedValue), money(b.ReceivedValue), money(b.UsedValue))
	if len(critical) > 0 {
		pdf.Ln(3)
		w = []float64{70, 40, 35, 35}
		tableHeader(pdf, w, "Critical Item", "Category", "Remaining", "Remaining %")
		for _, ci := range critical {
			tableRow(pdf, w, ci.ItemName, humanize(string(ci.Category)),
				fmt.Sprintf("%g %s", ci.RemainingQuantity, ci.Unit), ci.RemainingPercentage+"%")
		}
	}

	sectionTitle(pdf, "Timeline")
	t := o.Timeline
	w = []float64{90, 90}
	tableHeader(pdf, w, "Measure", "Days")
	tableRow(pdf, w, "Elapsed", fmt.Sprint(t.ElapsedDays))
	tableRow(pdf, w, "Remaining", fmt.Sprint(t.RemainingDays))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
