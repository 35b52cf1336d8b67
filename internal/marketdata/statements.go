package marketdata

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "valuationcli/internal/errors"
	"valuationcli/pkg/contracts/domain"
)

// LoadStatementsXLSX reads one statement per sheet. The first row holds a
// label cell followed by period dates; each following row is a line item
// name followed by its values. Header cells that are not dates, such as
// "TTM", drop their column. Sheets without any dated column are skipped.
func LoadStatementsXLSX(path string, logger *slog.Logger) ([]domain.Statement, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("statement workbook " + filepath.Base(path))
		}
		return nil, apperrors.NewParsingError("open statement workbook", err)
	}
	defer f.Close()

	var statements []domain.Statement
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, apperrors.NewParsingError("read sheet "+sheet, err)
		}

		st, err := parseStatement(sheet, rows)
		if err != nil {
			logger.Warn("skipping statement sheet",
				slog.String("file", filepath.Base(path)),
				slog.String("sheet", sheet),
				slog.String("error", err.Error()),
			)
			continue
		}
		statements = append(statements, st)
	}

	if len(statements) == 0 {
		return nil, apperrors.NewParsingError("no statement sheets in "+filepath.Base(path), nil)
	}
	return statements, nil
}

func parseStatement(name string, rows [][]string) (domain.Statement, error) {
	if len(rows) < 2 {
		return domain.Statement{}, fmt.Errorf("sheet has %d rows", len(rows))
	}

	st := domain.Statement{Name: name}
	var cols []int
	for i, h := range rows[0] {
		if i == 0 {
			continue
		}
		period, err := parseDate(h)
		if err != nil {
			continue
		}
		cols = append(cols, i)
		st.Periods = append(st.Periods, period)
	}
	if len(cols) == 0 {
		return domain.Statement{}, fmt.Errorf("no dated period columns")
	}

	for _, row := range rows[1:] {
		field := cell(row, 0)
		if field == "" {
			continue
		}
		item := domain.LineItem{Field: field, Values: make([]float64, len(cols))}
		for j, col := range cols {
			v, err := parseNumber(cell(row, col))
			if err != nil {
				v = math.NaN()
			}
			item.Values[j] = v
		}
		st.Items = append(st.Items, item)
	}

	if err := apperrors.ValidateStruct("statement", st); err != nil {
		return domain.Statement{}, err
	}
	return st, nil
}

// WriteStatementsXLSX writes statements in the layout LoadStatementsXLSX
// reads. NaN values are left blank.
func WriteStatementsXLSX(path string, statements []domain.Statement) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, st := range statements {
		sheet := st.Name
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}

		header := []interface{}{"Breakdown"}
		for _, p := range st.Periods {
			header = append(header, p.Format("2006-01-02"))
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}

		for r, item := range st.Items {
			row := []interface{}{item.Field}
			for _, v := range item.Values {
				if math.IsNaN(v) {
					row = append(row, nil)
					continue
				}
				row = append(row, v)
			}
			axis, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, axis, &row); err != nil {
				return err
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return f.SaveAs(path)
}
