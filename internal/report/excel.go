// Package report builds Excel exports for administrators.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kmvit/booking-bot/internal/model"
)

var appointmentColumns = []string{
	"ID", "Дата", "Время", "Процедура", "Клиент", "Телефон", "Статус", "Напоминание",
}

// AppointmentsWorkbook renders appointments into a single-sheet workbook.
func AppointmentsWorkbook(appointments []model.Appointment) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Записи"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range appointmentColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return nil, err
		}
	}

	// Bold header row.
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(appointmentColumns), 1)
		_ = f.SetCellStyle(sheet, "A1", endCell, style)
	}

	for i, a := range appointments {
		reminder := "нет"
		if a.ReminderSent {
			reminder = "да"
		}
		row := []interface{}{
			a.ID,
			a.Date.Format("02.01.2006"),
			a.Date.Format("15:04"),
			a.ProcedureName,
			a.ClientName,
			a.ClientPhone,
			a.Status,
			reminder,
		}
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return nil, fmt.Errorf("write row %d: %w", i+2, err)
			}
		}
	}

	return f, nil
}
