package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"esltrainer/internal/apperr"
	"esltrainer/internal/domain"
)

// Columns of a vocabulary sheet, in default order
const (
	ColumnWord        = "word"
	ColumnTranslation = "translation"
	ColumnDefinition  = "definition"
	ColumnCategory    = "category"
	ColumnDifficulty  = "difficulty"
	ColumnExamples    = "examples"
)

var defaultColumns = []string{
	ColumnWord, ColumnTranslation, ColumnDefinition, ColumnCategory, ColumnDifficulty, ColumnExamples,
}

// Result holds the parsed items and per-row problems
type Result struct {
	Items  []domain.VocabularyItem
	Errors []string
}

// ReadFile parses an .xlsx file from disk. An empty sheet means the first sheet.
func ReadFile(path, sheet string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	return read(f, sheet)
}

// Read parses an .xlsx workbook from r
func Read(r io.Reader, sheet string) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	return read(f, sheet)
}

func read(f *excelize.File, sheet string) (*Result, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	result := &Result{Items: []domain.VocabularyItem{}, Errors: []string{}}
	if len(rows) == 0 {
		return result, nil
	}

	index, hasHeader := columnIndex(rows[0])
	start := 0
	if hasHeader {
		start = 1
	}

	for i := start; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}

		item, err := parseRow(row, index)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", i+1, apperr.MessageOf(err)))
			continue
		}
		result.Items = append(result.Items, item)
	}

	return result, nil
}

// columnIndex maps column names to positions. Without a recognisable
// header row the default column order is assumed.
func columnIndex(header []string) (map[string]int, bool) {
	index := make(map[string]int)
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for _, col := range defaultColumns {
			if name == col {
				index[col] = i
			}
		}
	}
	if _, ok := index[ColumnWord]; ok {
		return index, true
	}

	for i, col := range defaultColumns {
		index[col] = i
	}
	return index, false
}

func parseRow(row []string, index map[string]int) (domain.VocabularyItem, error) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	item := domain.VocabularyItem{
		Type:        domain.ItemWord,
		Word:        cell(ColumnWord),
		Translation: cell(ColumnTranslation),
		Definition:  cell(ColumnDefinition),
		Category:    normalizeCategory(cell(ColumnCategory)),
		Difficulty:  domain.Difficulty(strings.ToUpper(cell(ColumnDifficulty))),
		Examples:    splitExamples(cell(ColumnExamples)),
	}
	if item.Category == "" {
		item.Category = "general"
	}

	if err := item.Validate(); err != nil {
		return domain.VocabularyItem{}, err
	}
	return item, nil
}

func normalizeCategory(s string) domain.Category {
	s = strings.ToLower(strings.TrimSpace(s))
	return domain.Category(strings.Join(strings.Fields(s), "_"))
}

func splitExamples(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
