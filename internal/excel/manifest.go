package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"freightflow/internal/model"
)

// TripSheetGenerator exports a manifest with its loading records as a trip
// sheet workbook.
type TripSheetGenerator struct{}

func NewTripSheetGenerator() *TripSheetGenerator {
	return &TripSheetGenerator{}
}

// Generate writes one summary sheet plus a consignment detail sheet. The
// manifest must be loaded with LoadingRecords.Booking preloaded.
func (g *TripSheetGenerator) Generate(manifest *model.Manifest) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Trip Summary"
	file.SetSheetName("Sheet1", summarySheet)
	g.writeSummary(file, summarySheet, manifest)

	detailSheet := "Consignments"
	if _, err := file.NewSheet(detailSheet); err != nil {
		return nil, err
	}
	g.writeDetail(file, detailSheet, manifest)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *TripSheetGenerator) writeSummary(file *excelize.File, sheet string, manifest *model.Manifest) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Manifest No")
	set("B1", manifest.ManifestNo)
	set("A2", "Status")
	set("B2", manifest.Status)
	set("A3", "Vehicle")
	set("B3", manifest.VehicleNumber)
	set("A4", "Driver")
	set("B4", manifest.DriverName)
	set("A5", "Driver Phone")
	set("B5", manifest.DriverPhone)
	set("A6", "Route")
	set("B6", routeLabel(manifest))
	set("A7", "Created")
	set("B7", formatDateTime(manifest.CreatedAt))
	set("A8", "Consignments")
	set("B8", len(manifest.LoadingRecords))

	_ = file.SetColWidth(sheet, "A", "A", 20)
	_ = file.SetColWidth(sheet, "B", "B", 40)
}

func (g *TripSheetGenerator) writeDetail(file *excelize.File, sheet string, manifest *model.Manifest) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"LR Number", "Status", "Payment", "Amount", "Loaded At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, record := range manifest.LoadingRecords {
		row := i + 2
		if record.Booking != nil {
			set(fmt.Sprintf("A%d", row), record.Booking.LRNumber)
			set(fmt.Sprintf("B%d", row), record.Booking.Status)
			set(fmt.Sprintf("C%d", row), record.Booking.PaymentType)
			set(fmt.Sprintf("D%d", row), record.Booking.TotalAmount.StringFixed(2))
		} else {
			set(fmt.Sprintf("A%d", row), record.BookingID.String())
		}
		set(fmt.Sprintf("E%d", row), formatDateTime(record.LoadedAt))
	}

	_ = file.SetColWidth(sheet, "A", "A", 20)
	_ = file.SetColWidth(sheet, "B", "C", 16)
	_ = file.SetColWidth(sheet, "D", "D", 14)
	_ = file.SetColWidth(sheet, "E", "E", 20)
}

func routeLabel(manifest *model.Manifest) string {
	if manifest.FromBranch != nil && manifest.ToBranch != nil {
		return manifest.FromBranch.Name + " to " + manifest.ToBranch.Name
	}
	return manifest.FromBranchID.String() + " to " + manifest.ToBranchID.String()
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
