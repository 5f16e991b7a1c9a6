// Package gradesheet reads and writes grades as xlsx spreadsheets.
package gradesheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/grade"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheetName   = "Grades"
)

// Columns are the header cells of an exported sheet. Imports locate columns by these names, in any order.
var Columns = []string{
	"studentId", "studentName", "subjectId", "groupId", "gradeValue", "maxValue", "gradeType", "title",
	"description", "gradedAt",
}

// Export writes grades to w as an xlsx workbook. studentNames maps student ids to display names.
func Export(w io.Writer, grades []grade.Grade, studentNames map[string]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	header := make([]interface{}, 0, len(Columns))
	for _, c := range Columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	for i, g := range grades {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		row := []interface{}{
			g.StudentID, studentNames[g.StudentID], g.SubjectID, g.GroupID, g.GradeValue, g.MaxValue, g.GradeType,
			g.Title, g.Description, g.GradedAt.Format(time.RFC3339),
		}
		if err = f.SetSheetRow(sheetName, cell, &row); err != nil {
			return errors.Wrap(err, "writing grade row")
		}
	}
	return errors.Wrap(f.Write(w), "writing workbook")
}

// Import reads the grades of the first sheet of an xlsx workbook. Blank rows are skipped.
// Cells that cannot be parsed yield a validation error naming the row and column.
func Import(r io.Reader) ([]grade.NewGrade, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, core.NewValidationError(errors.New("file is not a valid xlsx workbook"))
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.NewValidationError(errors.New("workbook has no sheet"))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "reading rows")
	}
	if len(rows) == 0 {
		return nil, core.NewValidationError(errors.New("sheet is empty"))
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"studentId", "subjectId", "groupId", "gradeValue", "gradeType", "title"} {
		if _, ok := index[strings.ToLower(required)]; !ok {
			return nil, core.NewValidationError(fmt.Errorf("missing column %q", required))
		}
	}

	grades := make([]grade.NewGrade, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(col string) string {
			i, ok := index[strings.ToLower(col)]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if isBlank(row) {
			continue
		}
		n := len(grades)

		ng := grade.NewGrade{
			StudentID:   cell("studentId"),
			SubjectID:   cell("subjectId"),
			GroupID:     cell("groupId"),
			GradeType:   cell("gradeType"),
			Title:       cell("title"),
			Description: cell("description"),
		}
		if ng.GradeValue, err = parseNumber(n, "gradeValue", cell("gradeValue")); err != nil {
			return nil, err
		}
		if ng.MaxValue, err = parseNumber(n, "maxValue", cell("maxValue")); err != nil {
			return nil, err
		}
		grades = append(grades, ng)
	}
	return grades, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseNumber returns nil for an empty cell.
func parseNumber(row int, field, s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{
			Field: fmt.Sprintf("row %d: %s", row+1, field),
			Error: "must be a number",
		})
	}
	return &v, nil
}
