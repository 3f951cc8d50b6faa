package excel

import (
	"bytes"
	"testing"
	"time"

	"freightflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestGenerateTripSheet(t *testing.T) {
	manifest := &model.Manifest{
		ManifestNo:    "MF-20260815-00001",
		Status:        model.ManifestInTransit,
		VehicleNumber: "MH12AB1234",
		DriverName:    "R. Sharma",
		FromBranch:    &model.Branch{Name: "Mumbai Central", StateCode: "27"},
		ToBranch:      &model.Branch{Name: "Pune Camp", StateCode: "27"},
		CreatedAt:     time.Now(),
		LoadingRecords: []model.LoadingRecord{
			{
				BookingID: uuid.New(),
				LoadedAt:  time.Now(),
				Booking: &model.Booking{
					LRNumber:    "LR-20260815-00001",
					Status:      model.BookingInTransit,
					PaymentType: model.PaymentToPay,
					TotalAmount: decimal.NewFromInt(500),
				},
			},
			{
				BookingID: uuid.New(),
				LoadedAt:  time.Now(),
			},
		},
	}

	data, err := NewTripSheetGenerator().Generate(manifest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty workbook")
	}

	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer file.Close()

	got, err := file.GetCellValue("Trip Summary", "B1")
	if err != nil {
		t.Fatalf("failed to read summary cell: %v", err)
	}
	if got != manifest.ManifestNo {
		t.Errorf("summary manifest no: got %q, want %q", got, manifest.ManifestNo)
	}

	lr, err := file.GetCellValue("Consignments", "A2")
	if err != nil {
		t.Fatalf("failed to read detail cell: %v", err)
	}
	if lr != "LR-20260815-00001" {
		t.Errorf("detail row: got %q, want the booking LR number", lr)
	}
}
