package utils

import (
	"fmt"
	"path/filepath"

	"golang.org/x/tools/imports"
)

// FixImports formats source and sorts its imports into groups. The import
// set itself is left alone; filename only names the file in errors.
func FixImports(filename string, source []byte) ([]byte, error) {
	out, err := imports.Process(filename, source, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fix imports of %s: %w", filepath.Base(filename), err)
	}
	return out, nil
}
