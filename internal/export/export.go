package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/AquaNexus/aquanexus_backend/internal/models"
)

// ExportService handles data export functionality
type ExportService struct{}

// NewExportService creates a new export service instance
func NewExportService() *ExportService {
	return &ExportService{}
}

// BuildWorkbook creates an Excel workbook with plant and fish reading
// history
func (es *ExportService) BuildWorkbook(plant []models.PlantReading, fish []models.FishReading) (*excelize.File, error) {
	f := excelize.NewFile()

	generatedAt := time.Now()
	f.SetDocProps(&excelize.DocProperties{
		Category:       "AquaNexus Aquaponics",
		Created:        generatedAt.Format(time.RFC3339),
		Creator:        "AquaNexus System",
		Description:    "Aquaponics sensor history export",
		LastModifiedBy: "AquaNexus Backend",
		Modified:       generatedAt.Format(time.RFC3339),
		Subject:        "Plant & Fish Tank Sensor History",
		Title:          "AquaNexus Sensor Report",
		Version:        "1.0",
	})

	es.createSummarySheet(f, generatedAt, len(plant), len(fish))
	es.createPlantSheet(f, plant)
	es.createFishSheet(f, fish)

	f.SetActiveSheet(0)
	return f, nil
}

func headerStyle(f *excelize.File, color string) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	return style
}

// createSummarySheet creates the summary overview sheet
func (es *ExportService) createSummarySheet(f *excelize.File, generatedAt time.Time, plantCount, fishCount int) error {
	sheetName := "Summary"
	f.SetSheetName("Sheet1", sheetName)

	style := headerStyle(f, "4472C4")

	f.SetCellValue(sheetName, "A1", "AquaNexus Aquaponics Sensor Report")
	f.MergeCell(sheetName, "A1", "D1")
	f.SetCellStyle(sheetName, "A1", "D1", style)
	f.SetRowHeight(sheetName, 1, 25)

	f.SetCellValue(sheetName, "A3", "Generated At:")
	f.SetCellValue(sheetName, "B3", generatedAt.Format("2006-01-02 15:04:05"))
	f.SetCellValue(sheetName, "A4", "Plant Readings:")
	f.SetCellValue(sheetName, "B4", plantCount)
	f.SetCellValue(sheetName, "A5", "Fish Readings:")
	f.SetCellValue(sheetName, "B5", fishCount)

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "D", 15)

	return nil
}

// createPlantSheet creates the plant environment readings sheet
func (es *ExportService) createPlantSheet(f *excelize.File, readings []models.PlantReading) error {
	sheetName := "Plant Readings"
	f.NewSheet(sheetName)

	headers := []string{"Timestamp", "Height (cm)", "Temperature (C)", "Humidity (%)", "Pressure (hPa)"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	f.SetCellStyle(sheetName, "A1", "E1", headerStyle(f, "70AD47"))

	for i, reading := range readings {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), reading.Timestamp.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), reading.Height)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), reading.Temperature)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), reading.Humidity)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), reading.Pressure)
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "E", 15)

	return nil
}

// createFishSheet creates the fish tank readings sheet
func (es *ExportService) createFishSheet(f *excelize.File, readings []models.FishReading) error {
	sheetName := "Fish Readings"
	f.NewSheet(sheetName)

	headers := []string{"Timestamp", "Water Temp (C)", "EC (uS/cm)", "TDS (ppm)", "Turbidity (NTU)", "pH"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	f.SetCellStyle(sheetName, "A1", "F1", headerStyle(f, "C55A11"))

	for i, reading := range readings {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), reading.Timestamp.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), reading.WaterTemperature)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), reading.ECValue)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), reading.TDS)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), reading.Turbidity)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), reading.WaterPh)
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "F", 15)

	return nil
}

// WritePlantCSV writes plant readings as CSV
func (es *ExportService) WritePlantCSV(w io.Writer, readings []models.PlantReading) error {
	records := [][]string{
		{"Timestamp", "Height (cm)", "Temperature (C)", "Humidity (%)", "Pressure (hPa)"},
	}
	for _, reading := range readings {
		records = append(records, []string{
			reading.Timestamp.Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(reading.Height, 'f', 2, 64),
			strconv.FormatFloat(reading.Temperature, 'f', 2, 64),
			strconv.FormatFloat(reading.Humidity, 'f', 2, 64),
			strconv.FormatFloat(reading.Pressure, 'f', 2, 64),
		})
	}
	return csv.NewWriter(w).WriteAll(records)
}

// WriteFishCSV writes fish readings as CSV
func (es *ExportService) WriteFishCSV(w io.Writer, readings []models.FishReading) error {
	records := [][]string{
		{"Timestamp", "Water Temp (C)", "EC (uS/cm)", "TDS (ppm)", "Turbidity (NTU)", "pH"},
	}
	for _, reading := range readings {
		records = append(records, []string{
			reading.Timestamp.Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(reading.WaterTemperature, 'f', 2, 64),
			strconv.FormatFloat(reading.ECValue, 'f', 2, 64),
			strconv.FormatFloat(reading.TDS, 'f', 1, 64),
			strconv.FormatFloat(reading.Turbidity, 'f', 2, 64),
			strconv.FormatFloat(reading.WaterPh, 'f', 2, 64),
		})
	}
	return csv.NewWriter(w).WriteAll(records)
}
