// Пакет export — выгрузка списков dashboard в книгу XLSX
// (листы Trainings, Gear, Incidents, Summary).
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/bigkaa/safety-portal/internal/domain/model"
)

// Имена листов книги.
const (
	SheetTrainings = "Trainings"
	SheetGear      = "Gear"
	SheetIncidents = "Incidents"
	SheetSummary   = "Summary"
)

// ContentType — MIME-тип книги XLSX.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const dateLayout = "2006-01-02"

// Data — содержимое выгрузки.
type Data struct {
	// Search — поисковый запрос, по которому отобраны списки
	Search    string
	Stats     model.Stats
	Trainings []*model.Training
	Gear      []*model.GearDistribution
	Incidents []*model.Incident
}

// sheet — заголовок и строки одного листа.
type sheet struct {
	name   string
	header []any
	rows   [][]any
}

func buildSheets(d Data) []sheet {
	trainings := sheet{
		name:   SheetTrainings,
		header: []any{"ID", "Title", "Date", "File", "Downloads"},
	}
	for _, t := range d.Trainings {
		trainings.rows = append(trainings.rows, []any{
			t.ID, t.Title, t.Date.Format(dateLayout), t.FileName(), t.Downloads,
		})
	}

	gear := sheet{
		name:   SheetGear,
		header: []any{"ID", "Employee", "Gear", "Date"},
	}
	for _, g := range d.Gear {
		gear.rows = append(gear.rows, []any{
			g.ID, g.EmployeeName, g.GearItem, g.Date.Format(dateLayout),
		})
	}

	incidents := sheet{
		name:   SheetIncidents,
		header: []any{"ID", "Description", "Reported by", "Date"},
	}
	for _, i := range d.Incidents {
		incidents.rows = append(incidents.rows, []any{
			i.ID, i.Description, i.ReportedBy, i.Date.Format(dateLayout),
		})
	}

	summary := sheet{
		name:   SheetSummary,
		header: []any{"Metric", "Value"},
		rows: [][]any{
			{"Search", d.Search},
			{"Trainings total", d.Stats.Trainings},
			{"Gear distributions total", d.Stats.Gear},
			{"Incidents total", d.Stats.Incidents},
			{"Trainings listed", len(d.Trainings)},
			{"Gear distributions listed", len(d.Gear)},
			{"Incidents listed", len(d.Incidents)},
		},
	}

	return []sheet{trainings, gear, incidents, summary}
}

// Write формирует книгу и записывает её в w.
func Write(w io.Writer, d Data) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("стиль заголовка: %w", err)
	}

	for idx, s := range buildSheets(d) {
		if idx == 0 {
			// Лист по умолчанию переименовывается, а не удаляется
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return fmt.Errorf("лист %s: %w", s.name, err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("лист %s: %w", s.name, err)
		}
		if err := writeSheet(f, s, bold); err != nil {
			return fmt.Errorf("лист %s: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("запись книги: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(s.header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(s.header))
	if err != nil {
		return err
	}
	return f.SetColWidth(s.name, "A", lastCol, 20)
}
