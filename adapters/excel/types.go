package excel

import (
	"path/filepath"
	"strings"
)

// FileType is a supported spreadsheet format
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
)

// DetectFileType maps a file name to a format by extension. Anything that is
// not .csv is treated as a workbook.
func DetectFileType(name string) FileType {
	if strings.ToLower(filepath.Ext(name)) == ".csv" {
		return FileTypeCSV
	}
	return FileTypeXLSX
}
