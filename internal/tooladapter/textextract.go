package tooladapter

import (
	"context"
	"fmt"
	"time"

	"github.com/pdfpipe/server/internal/apperr"
)

// TextExtractor wraps pdftotext -layout. It is constructed into
// handlers.Deps; no handler calls it.
type TextExtractor struct {
	Timeout time.Duration
}

func NewTextExtractor(timeout time.Duration) *TextExtractor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &TextExtractor{Timeout: timeout}
}

// Extract writes inFile's text, preserving layout, to outFile. A nil
// pageRange extracts every page; otherwise pageRange is a 1-based
// [first, last] inclusive bound.
func (t *TextExtractor) Extract(ctx context.Context, inFile, outFile string, pageRange *[2]int) *apperr.Coded {
	args := []string{"-layout"}
	if pageRange != nil {
		args = append(args, "-f", fmt.Sprintf("%d", pageRange[0]), "-l", fmt.Sprintf("%d", pageRange[1]))
	}
	args = append(args, inFile, outFile)

	_, err := Run(ctx, Invocation{Name: "pdftotext", Args: args, Timeout: t.Timeout})
	return err
}
