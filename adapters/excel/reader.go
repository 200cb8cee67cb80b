package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"insightdash/domain/table"
	"insightdash/internal"
	"insightdash/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader loads a CSV or XLSX file from disk as a table
type DataReader struct {
	filePath string
	fileType FileType
	config   ReaderConfig
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, config ReaderConfig) *DataReader {
	return &DataReader{
		filePath: filePath,
		fileType: DetectFileType(filePath),
		config:   config,
		logger:   internal.DefaultLogger.Named("excel"),
	}
}

// LoadTable reads the file into a table of raw string cells
func (r *DataReader) LoadTable(ctx context.Context) (table.Table, error) {
	if err := ctx.Err(); err != nil {
		return table.Table{}, errors.Canceled(err)
	}

	f, err := os.Open(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return table.Table{}, errors.InvalidInput(fmt.Sprintf("%s file not found: %s", strings.ToUpper(string(r.fileType)), r.filePath))
		}
		return table.Table{}, errors.Wrapf(err, "failed to open %s", r.filePath)
	}
	defer f.Close()

	start := time.Now()
	t, err := ReadTable(f, r.fileType, r.config)
	if err != nil {
		return table.Table{}, err
	}
	r.logger.Debug("%s read in %.2fms (%d columns, %d rows)",
		r.filePath, float64(time.Since(start).Nanoseconds())/1e6, len(t.Columns), t.Len())
	return t, nil
}

// ReadTable parses a CSV or XLSX stream. The first row is the header.
// Cells are kept as raw strings; normalization happens during cleaning.
func ReadTable(src io.Reader, fileType FileType, config ReaderConfig) (table.Table, error) {
	var rows [][]string
	var err error
	switch fileType {
	case FileTypeCSV:
		rows, err = readCSVRows(src)
	case FileTypeXLSX:
		rows, err = readExcelRows(src, config.SheetName)
	default:
		return table.Table{}, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", fileType))
	}
	if err != nil {
		return table.Table{}, err
	}
	if len(rows) < 2 {
		return table.Table{}, errors.InvalidInput("file must have a header row and at least one data row")
	}
	if config.MaxRows > 0 && len(rows)-1 > config.MaxRows {
		return table.Table{}, errors.ResourceLimitExceeded("row", len(rows)-1, config.MaxRows)
	}
	return processRows(rows), nil
}

func readCSVRows(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to read CSV: %w", err))
	}
	return rows, nil
}

func readExcelRows(src io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to open workbook: %w", err))
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to read sheet %q: %w", sheet, err))
	}
	return rows, nil
}

// processRows converts a header row plus string rows into a table.
// Blank headers get positional names and repeated headers get a numeric suffix.
func processRows(rows [][]string) table.Table {
	headers := uniqueHeaders(rows[0])

	data := make([]table.Row, 0, len(rows)-1)
	for _, raw := range rows[1:] {
		if isBlankRow(raw) {
			continue
		}
		row := make(table.Row, len(headers))
		for j, header := range headers {
			if j < len(raw) {
				row[header] = table.NewStringValue(raw[j])
			} else {
				row[header] = table.NewMissingValue()
			}
		}
		data = append(data, row)
	}
	return table.Table{Columns: headers, Rows: data}
}

func uniqueHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		headers[i] = name
	}
	return headers
}

func isBlankRow(raw []string) bool {
	for _, cell := range raw {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
