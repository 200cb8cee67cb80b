package excel

// ReaderConfig holds configuration for reading spreadsheet files
type ReaderConfig struct {
	// SheetName selects the worksheet; empty means the first sheet
	SheetName string `json:"sheet_name"`
	// MaxRows rejects files with more data rows; 0 disables the check
	MaxRows int `json:"max_rows"`
}

// DefaultReaderConfig returns the defaults used by the CLI and upload endpoint
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{MaxRows: 25000}
}
