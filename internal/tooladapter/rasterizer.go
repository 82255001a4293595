package tooladapter

import (
	"context"
	"fmt"
	"time"

	"github.com/pdfpipe/server/internal/apperr"
)

// Rasterizer wraps Ghostscript for recompression (spec.md §4.3's three
// named quality presets) and deep-repair re-rendering.
type Rasterizer struct {
	Timeout time.Duration // per-invocation deadline; compress allows up to 10 min (spec.md §5)
}

func NewRasterizer(timeout time.Duration) *Rasterizer {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Rasterizer{Timeout: timeout}
}

var presetArgs = map[string]string{
	"smallest": "/screen",
	"balanced": "/ebook",
	"high":     "/printer",
}

// Recompress re-encodes inFile at the named quality preset, writing to
// outFile. Output size is not guaranteed smaller than the input.
func (r *Rasterizer) Recompress(ctx context.Context, inFile, outFile, preset string) *apperr.Coded {
	setting, ok := presetArgs[preset]
	if !ok {
		return apperr.New(apperr.BadPayload, fmt.Sprintf("unknown compression preset %q", preset))
	}
	_, err := Run(ctx, Invocation{
		Name: "gs",
		Args: []string{
			"-sDEVICE=pdfwrite",
			"-dCompatibilityLevel=1.5",
			"-dPDFSETTINGS=" + setting,
			"-dNOPAUSE", "-dQUIET", "-dBATCH",
			"-sOutputFile=" + outFile,
			inFile,
		},
		Timeout: r.Timeout,
	})
	return err
}

// DeepRerender re-renders inFile page-by-page and reassembles it as a PDF,
// used as repair's last-resort strategy. permissive relaxes Ghostscript's
// PDF interpreter tolerance for badly malformed input.
func (r *Rasterizer) DeepRerender(ctx context.Context, inFile, outFile string, permissive bool) *apperr.Coded {
	args := []string{
		"-sDEVICE=pdfwrite",
		"-dNOPAUSE", "-dQUIET", "-dBATCH",
		"-sOutputFile=" + outFile,
	}
	if permissive {
		args = append(args, "-dPDFSTOPONERROR=false", "-dPDFSTOPONWARNING=false")
	}
	args = append(args, inFile)

	_, err := Run(ctx, Invocation{Name: "gs", Args: args, Timeout: r.Timeout})
	return err
}
