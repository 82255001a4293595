package handlers

import (
	"context"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/jobkind"
	"github.com/pdfpipe/server/internal/tempstore"
	"github.com/pdfpipe/server/internal/tooladapter"
)

// Result is what a handler hands back to the worker on success: the
// artifact path already written via Deps.Store, and whether it is a
// multi-file zip.
type Result struct {
	OutputPath string
	IsMultiple bool

	// Sizes, populated only by compress. The worker does not copy them onto
	// the job record, so they are not reported to clients.
	OriginalSize   int64
	CompressedSize int64
}

// Deps bundles every collaborator a handler may need. Handlers hold no
// state of their own beyond these shared, already-constructed adapters.
type Deps struct {
	Store   *tempstore.Store
	PDF     *tooladapter.PDFEngine
	Raster  *tooladapter.Rasterizer
	Office  *tooladapter.OfficeConverter
	Text    *tooladapter.TextExtractor
	Browser *tooladapter.BrowserRenderer
}

// Handler runs one JobKind's logic for a single job. jobID seeds the
// artifact's filename; ctx carries the per-job deadline.
type Handler func(ctx context.Context, deps *Deps, jobID string, payload jobkind.Payload) (Result, *apperr.Coded)

// Registry maps each JobKind to its Handler.
type Registry map[jobkind.Kind]Handler

// NewRegistry wires every JobKind to its concrete handler function.
func NewRegistry() Registry {
	return Registry{
		jobkind.Merge:       handleMerge,
		jobkind.Split:       handleSplit,
		jobkind.Compress:    handleCompress,
		jobkind.Protect:     handleProtect,
		jobkind.Unlock:      handleUnlock,
		jobkind.RemovePages: handleRemovePages,
		jobkind.Rotate:      handleRotate,
		jobkind.Organize:    handleOrganize,
		jobkind.Crop:        handleCrop,
		jobkind.ToWord:      handleOfficeConvert,
		jobkind.ToExcel:     handleOfficeConvert,
		jobkind.ToPPT:       handleOfficeConvert,
		jobkind.FromWord:    handleOfficeImport,
		jobkind.FromExcel:   handleOfficeImport,
		jobkind.FromPPT:     handleOfficeImport,
		jobkind.FromHTML:    handleFromHTML,
		jobkind.Repair:      handleRepair,
		jobkind.Watermark:   handleWatermark,
		jobkind.CVGenerate:  handleCVGenerate,
	}
}

// resolveUnderUploads enforces spec.md §4.4's "resolve all input paths via
// validate_under(uploads_root, ...)" contract; every handler calls this
// before handing a path to a tool adapter.
func resolveUnderUploads(deps *Deps, path string) *apperr.Coded {
	if !tempstore.ValidateUnder(deps.Store.UploadsRoot(), path) {
		return apperr.New(apperr.PathEscape, "input path escapes the uploads root")
	}
	return nil
}
