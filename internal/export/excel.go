package export

import (
	"fmt"
	"io"
	"time"

	"deskmap/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Schedule"

// WriteSchedule renders a desks-by-dates occupancy grid and writes the
// workbook to w. Each cell lists the bookings covering that desk and day;
// canceled bookings are skipped.
func WriteSchedule(w io.Writer, desks []models.Desk, startDate, endDate time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Desk schedule: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	dateCols := writeDateHeaders(f, startDate, endDate)
	writeDeskHeaders(f, desks)
	writeBookingCells(f, desks, dateCols)

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	for i := 'B'; i <= 'Z'; i++ {
		_ = f.SetColWidth(sheetName, string(i), string(i), 20)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(dateCols) + 1)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)

	_ = f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %v", err)
	}
	return nil
}

// FileName returns the download name for an export covering the range.
func FileName(startDate, endDate time.Time) string {
	return fmt.Sprintf("bookings_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
}

func writeDateHeaders(f *excelize.File, startDate, endDate time.Time) map[string]int {
	col := 2
	currentDate := models.DayOf(startDate)
	end := models.DayOf(endDate)
	dateCols := make(map[string]int)

	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for !currentDate.After(end) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, currentDate.Format("02.01"))
		_ = f.SetCellStyle(sheetName, cell, cell, style)
		dateCols[models.FormatDate(currentDate)] = col

		col++
		currentDate = currentDate.AddDate(0, 0, 1)
	}
	return dateCols
}

func writeDeskHeaders(f *excelize.File, desks []models.Desk) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	row := 3
	for _, desk := range desks {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		label := desk.Name
		if desk.Type != "" {
			label = fmt.Sprintf("%s (%s)", desk.Name, desk.Type)
		}
		_ = f.SetCellValue(sheetName, cell, label)
		_ = f.SetCellStyle(sheetName, cell, cell, style)
		row++
	}
}

func writeBookingCells(f *excelize.File, desks []models.Desk, dateCols map[string]int) {
	freeStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
	})
	partialStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFEB9C"}, Pattern: 1},
	})
	busyStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
	})

	row := 3
	for _, desk := range desks {
		byDate := make(map[string][]models.Booking)
		for _, booking := range desk.Bookings {
			if booking.Status == models.StatusCanceled {
				continue
			}
			key := models.FormatDate(booking.Date)
			byDate[key] = append(byDate[key], booking)
		}

		for dateKey, col := range dateCols {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			bookings := byDate[dateKey]

			if len(bookings) == 0 {
				_ = f.SetCellValue(sheetName, cell, "Free")
				_ = f.SetCellStyle(sheetName, cell, cell, freeStyle)
				continue
			}

			var cellValue string
			fullDay := false
			for _, booking := range bookings {
				cellValue += fmt.Sprintf("%s (%s)\n", booking.UserName, booking.Period.TimeRange())
				if booking.Period == models.PeriodFull {
					fullDay = true
				}
			}
			_ = f.SetCellValue(sheetName, cell, cellValue)

			if fullDay || len(bookings) > 1 {
				_ = f.SetCellStyle(sheetName, cell, cell, busyStyle)
			} else {
				_ = f.SetCellStyle(sheetName, cell, cell, partialStyle)
			}
		}
		row++
	}
}
