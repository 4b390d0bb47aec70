package models

// DateColumn maps a grid column to its normalized date key.
type DateColumn struct {
	// Col is the column index (1-based).
	Col int `json:"col"`
	// Key is the normalized YYYY-MM-DD key (best effort for unexpected cell types).
	Key string `json:"key"`
}

// WorkbookLayout summarizes the structure the engine inferred from a document.
type WorkbookLayout struct {
	// BookName is the workbook file name (no path).
	BookName string `json:"book_name"`
	// SheetName is the sheet the engine operates on.
	SheetName string `json:"sheet_name"`
	// Sections lists detected sections in row order.
	Sections []Section `json:"sections"`
	// Dates is the shared date axis.
	Dates []DateColumn `json:"dates"`
}
