package tooladapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdfpipe/server/internal/apperr"
)

// PDFEngine is the PDF-engine tool family (spec.md §4.3): merge, page
// selection/extraction, encrypt/decrypt, per-page rotation, and crop. It is
// backed by pdfcpu as a library, not a subprocess, so its "deadline" is
// enforced by racing the call against ctx instead of killing a child
// process.
type PDFEngine struct{}

func NewPDFEngine() *PDFEngine { return &PDFEngine{} }

// run executes fn on its own goroutine and returns TOOL_TIMEOUT if ctx
// expires first. fn must not touch anything the caller reads before run
// returns, since a timed-out fn keeps running in the background until
// pdfcpu itself returns.
func run(ctx context.Context, fn func() error) *apperr.Coded {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		return mapPDFEngineError(err)
	case <-ctx.Done():
		return apperr.New(apperr.ToolTimeout, "pdf engine operation exceeded its deadline")
	}
}

func mapPDFEngineError(err error) *apperr.Coded {
	msg := err.Error()
	if strings.Contains(strings.ToLower(msg), "password") {
		return apperr.New(apperr.InvalidPassword, "incorrect password")
	}
	return apperr.New(apperr.ToolFailed, sanitizedTail([]byte(msg)))
}

// Merge concatenates inFiles, in order, into outFile.
func (e *PDFEngine) Merge(ctx context.Context, inFiles []string, outFile string) *apperr.Coded {
	return run(ctx, func() error {
		return api.MergeCreateFile(inFiles, outFile, false, nil)
	})
}

// ExtractPages writes a new PDF at outFile containing exactly the 1-based
// pages in pages, kept in document order (Organize handles reordering).
func (e *PDFEngine) ExtractPages(ctx context.Context, inFile string, pages []int, outFile string) *apperr.Coded {
	return run(ctx, func() error {
		return api.TrimFile(inFile, outFile, pageSelector(pages), nil)
	})
}

// PageCount returns the page count of inFile.
func (e *PDFEngine) PageCount(ctx context.Context, inFile string) (int, *apperr.Coded) {
	var n int
	err := run(ctx, func() error {
		count, err := api.PageCountFile(inFile)
		n = count
		return err
	})
	return n, err
}

// Encrypt writes an AES-256 encrypted copy of inFile to outFile, protected
// by userPW (the password required to open it).
func (e *PDFEngine) Encrypt(ctx context.Context, inFile, outFile, userPW string) *apperr.Coded {
	return run(ctx, func() error {
		conf := model.NewAESConfiguration(userPW, userPW, 256)
		return api.EncryptFile(inFile, outFile, conf)
	})
}

// Decrypt writes a decrypted copy of inFile to outFile using userPW.
func (e *PDFEngine) Decrypt(ctx context.Context, inFile, outFile, userPW string) *apperr.Coded {
	return run(ctx, func() error {
		conf := model.NewAESConfiguration(userPW, "", 256)
		return api.DecryptFile(inFile, outFile, conf)
	})
}

// Rotate adds degrees (already reduced modulo 360 by the caller) to the
// existing rotation of each page in pages (nil/empty means all pages).
func (e *PDFEngine) Rotate(ctx context.Context, inFile, outFile string, degrees int, pages []int) *apperr.Coded {
	return run(ctx, func() error {
		return api.RotateFile(inFile, outFile, degrees, pageSelector(pages), nil)
	})
}

// PageDims returns the width and height, in points, of inFile's first page
// — used to resolve percent-based crop margins to points, since every page
// a percent crop targets is assumed to share the document's nominal size.
func (e *PDFEngine) PageDims(ctx context.Context, inFile string) (width, height float64, coded *apperr.Coded) {
	coded = run(ctx, func() error {
		dims, err := api.PageDimsFile(inFile)
		if err != nil {
			return err
		}
		if len(dims) == 0 {
			return fmt.Errorf("no pages found")
		}
		width = dims[0].Width
		height = dims[0].Height
		return nil
	})
	return width, height, coded
}

// CropBox is a page-relative visible box, in PDF points.
type CropBox struct {
	Top, Bottom, Left, Right float64
}

// Crop sets the visible box of every page in pages (nil means all) using
// per-page margins already resolved to points by the caller.
func (e *PDFEngine) Crop(ctx context.Context, inFile, outFile string, box CropBox, pages []int) *apperr.Coded {
	return run(ctx, func() error {
		desc := fmt.Sprintf("t:%.2f, b:%.2f, l:%.2f, r:%.2f", box.Top, box.Bottom, box.Left, box.Right)
		return api.CropFile(inFile, outFile, pageSelector(pages), []string{desc}, nil)
	})
}

// Organize writes a new PDF with inFile's pages reordered per order
// (a permutation of 1..N).
func (e *PDFEngine) Organize(ctx context.Context, inFile string, order []int, outFile string) *apperr.Coded {
	return run(ctx, func() error {
		return api.CollectFile(inFile, outFile, pageSelector(order), nil)
	})
}

// Watermark stamps text across every page of inFile.
func (e *PDFEngine) Watermark(ctx context.Context, inFile, outFile, text string, opacity, fontSizePt float64) *apperr.Coded {
	return run(ctx, func() error {
		desc := fmt.Sprintf("opacity:%.2f, points:%.1f", opacity, fontSizePt)
		wm, err := api.TextWatermark(text, desc, true, false, model.POINTS)
		if err != nil {
			return err
		}
		return api.AddWatermarksFile(inFile, outFile, nil, wm, nil)
	})
}

// Relinearize re-emits inFile via pdfcpu's optimizer, the cheapest repair
// strategy (structural relinearize).
func (e *PDFEngine) Relinearize(ctx context.Context, inFile, outFile string) *apperr.Coded {
	return run(ctx, func() error {
		return api.OptimizeFile(inFile, outFile, nil)
	})
}

// ReEmit rewrites inFile by extracting every page into a fresh file,
// forcing pdfcpu to regenerate the cross-reference table from scratch.
func (e *PDFEngine) ReEmit(ctx context.Context, inFile, outFile string) *apperr.Coded {
	return run(ctx, func() error {
		return api.TrimFile(inFile, outFile, nil, nil)
	})
}

// ReEmitNoObjectStreams is ReEmit with object streams disabled in the
// output, for PDFs whose object streams are themselves the damage.
func (e *PDFEngine) ReEmitNoObjectStreams(ctx context.Context, inFile, outFile string) *apperr.Coded {
	return run(ctx, func() error {
		conf := model.NewDefaultConfiguration()
		conf.WriteObjectStream = false
		return api.TrimFile(inFile, outFile, nil, conf)
	})
}

// ValidateAndClean runs pdfcpu's structural validator, returning a non-nil
// error for anything it can't parse, then re-optimizes.
func (e *PDFEngine) ValidateAndClean(ctx context.Context, inFile, outFile string) *apperr.Coded {
	return run(ctx, func() error {
		if err := api.ValidateFile(inFile, nil); err != nil {
			return err
		}
		return api.OptimizeFile(inFile, outFile, nil)
	})
}

func pageSelector(pages []int) []string {
	if len(pages) == 0 {
		return nil
	}
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = fmt.Sprintf("%d", p)
	}
	return out
}
