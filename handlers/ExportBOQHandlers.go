package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"buildtrack/models"
	"buildtrack/services"
	"buildtrack/utils"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	boqSheet      = "BOQ"
	criticalSheet = "Critical"
)

var boqHeaders = []interface{}{
	"Category", "Item", "Unit", "Quantity", "Rate", "Total",
	"Ordered", "Received", "Used", "Remaining", "Status", "Phase", "Floor", "Supplier",
}

var titleCaser = cases.Title(language.Und)

// humanize turns an enum value such as "grey-structure" into "Grey Structure".
func humanize(v string) string {
	return titleCaser.String(strings.ReplaceAll(v, "-", " "))
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func attachmentName(projectName, suffix string) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(projectName, "_"), "_")
	if base == "" {
		base = "project"
	}
	return fmt.Sprintf("%s_%s", base, suffix)
}

// buildBOQWorkbook lays out every item on one sheet and the critical items on another.
func buildBOQWorkbook(project *models.Project, items []models.BOQItem, now time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", boqSheet); err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"283C6E"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	criticalStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FDE2E1"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	_ = f.SetCellValue(boqSheet, "A1", fmt.Sprintf("%s - Bill of Quantities", project.Name))
	_ = f.SetCellValue(boqSheet, "A2", "Generated On: "+now.Format("02-Jan-2006 15:04"))
	if err := f.SetSheetRow(boqSheet, "A4", &boqHeaders); err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(boqHeaders))
	if err := f.SetCellStyle(boqSheet, "A4", lastCol+"4", headerStyle); err != nil {
		return nil, err
	}

	var total float64
	for i := range items {
		item := &items[i]
		row := i + 5
		phase, floor := "", ""
		if item.Phase != nil {
			phase = humanize(string(*item.Phase))
		}
		if item.Floor != nil {
			floor = fmt.Sprintf("%d", *item.Floor)
		}
		values := []interface{}{
			humanize(string(item.Category)),
			item.ItemName,
			item.Unit,
			item.Quantity,
			item.RatePerUnit,
			item.TotalAmount,
			item.OrderedQuantity,
			item.ReceivedQuantity,
			item.UsedQuantity,
			services.RemainingQuantity(item),
			humanize(string(item.Status)),
			phase,
			floor,
			item.Supplier.Data().Name,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(boqSheet, cell, &values); err != nil {
			return nil, err
		}
		if services.IsCritical(item) {
			_ = f.SetCellStyle(boqSheet, cell, fmt.Sprintf("%s%d", lastCol, row), criticalStyle)
		}
		total += item.TotalAmount
	}
	totalRow := len(items) + 5
	_ = f.SetCellValue(boqSheet, fmt.Sprintf("E%d", totalRow), "Total")
	_ = f.SetCellValue(boqSheet, fmt.Sprintf("F%d", totalRow), total)
	_ = f.SetColWidth(boqSheet, "A", "B", 24)
	_ = f.SetColWidth(boqSheet, "C", lastCol, 12)

	if _, err := f.NewSheet(criticalSheet); err != nil {
		return nil, err
	}
	critHeaders := []interface{}{"Item", "Category", "Unit", "Remaining", "Remaining %"}
	if err := f.SetSheetRow(criticalSheet, "A1", &critHeaders); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(criticalSheet, "A1", "E1", headerStyle)
	for i, ci := range services.CriticalItems(items) {
		values := []interface{}{ci.ItemName, humanize(string(ci.Category)), ci.Unit, ci.RemainingQuantity, ci.RemainingPercentage}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(criticalSheet, cell, &values); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(criticalSheet, "A", "B", 24)

	return f.WriteToBuffer()
}

// ExportBOQ godoc
// @Summary      BOQ spreadsheet
// @Tags         boq
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        projectId  path  string  true  "Project ID"
// @Success      200        {file}    file  "XLSX workbook"
// @Failure      403        {object}  models.ErrorResponse
// @Router       /api/boq/project/{projectId}/export.xlsx [get]
func ExportBOQ(boq *services.BOQService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetReportQueryContext(c.Request.Context())
		defer cancel()

		project, items, err := boq.Items(ctx, who, c.Param("projectId"))
		if err != nil {
			respondError(c, err)
			return
		}
		buf, err := buildBOQWorkbook(project, items, time.Now())
		if err != nil {
			respondError(c, fmt.Errorf("build boq workbook: %w", err))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", attachmentName(project.Name, "boq")))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	}
}
