package tooladapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfpipe/server/internal/apperr"
)

// OfficeConverter wraps LibreOffice's headless conversion for office<->pdf
// round trips (office-convert's to-word/to-excel/to-ppt and office-import's
// from-word/from-excel/from-ppt, spec.md §4.3).
type OfficeConverter struct {
	Timeout time.Duration
}

func NewOfficeConverter(timeout time.Duration) *OfficeConverter {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &OfficeConverter{Timeout: timeout}
}

// filterByFormat is soffice's --convert-to target for each office-convert
// JobKind target format.
var filterByFormat = map[string]string{
	"word":  "docx",
	"excel": "xlsx",
	"ppt":   "pptx",
	"pdf":   "pdf",
}

// Convert runs inFile through soffice --headless --convert-to, writing the
// result into outDir under soffice's own basename-derived output name, and
// returns that resolved path. format is one of filterByFormat's keys.
func (o *OfficeConverter) Convert(ctx context.Context, inFile, outDir, format string) (string, *apperr.Coded) {
	filter, ok := filterByFormat[format]
	if !ok {
		return "", apperr.New(apperr.BadPayload, fmt.Sprintf("unknown office target format %q", format))
	}

	_, err := Run(ctx, Invocation{
		Name: "soffice",
		Args: []string{
			"--headless", "--norestore", "--invisible",
			"--convert-to", filter,
			"--outdir", outDir,
			inFile,
		},
		Timeout: o.Timeout,
	})
	if err != nil {
		return "", err
	}

	base := filepath.Base(inFile)
	ext := filepath.Ext(base)
	outName := base[:len(base)-len(ext)] + "." + filter
	outPath := filepath.Join(outDir, outName)
	if _, statErr := os.Stat(outPath); statErr != nil {
		return "", apperr.New(apperr.ToolFailed, "office converter did not produce the expected output file")
	}
	return outPath, nil
}
