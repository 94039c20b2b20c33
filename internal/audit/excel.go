// Package audit exports booking data for offline review.
package audit

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"turfbook/internal/models"
)

var columns = []string{
	"ID", "Name", "Roll No", "Email", "Purpose", "Players",
	"Slot", "Time", "Date", "Status", "Requested At",
}

// WriteRequests renders booking requests as an xlsx workbook, one sheet per
// date, and writes it to w.
func WriteRequests(w io.Writer, requests []models.BookingRequest) error {
	f := excelize.NewFile()
	defer f.Close()

	byDate := make(map[string][]models.BookingRequest)
	var dates []string
	for _, r := range requests {
		if _, seen := byDate[r.Date]; !seen {
			dates = append(dates, r.Date)
		}
		byDate[r.Date] = append(byDate[r.Date], r)
	}
	if len(dates) == 0 {
		dates = []string{"Requests"}
	}

	for i, date := range dates {
		sheet := date
		if len(sheet) > 31 { // Excel sheet name limit
			sheet = sheet[:31]
		}
		if i == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("create sheet %s: %w", sheet, err)
			}
		}

		if err := writeHeader(f, sheet); err != nil {
			return err
		}

		for row, r := range byDate[date] {
			values := []interface{}{
				r.ID, r.Name, r.RollNo, r.Email, r.Purpose, r.PlayerCount,
				r.Slot, models.SlotTime(r.Slot), r.Date, r.Status,
				r.CreatedAt.Format("2006-01-02 15:04:05"),
			}
			for col, val := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row+2)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, val); err != nil {
					return err
				}
			}
		}
	}

	return f.Write(w)
}

func writeHeader(f *excelize.File, sheet string) error {
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}
	return nil
}
