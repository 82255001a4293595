package handlers

import (
	"context"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/jobkind"
	"github.com/pdfpipe/server/internal/tooladapter"
)

func handleRemovePages(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	rp, ok := p.(*jobkind.RemovePagesPayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "remove-pages handler received the wrong payload type")
	}
	if err := resolveUnderUploads(deps, rp.InputPath); err != nil {
		return Result{}, err
	}

	total, err := deps.PDF.PageCount(ctx, rp.InputPath)
	if err != nil {
		return Result{}, err
	}

	remove, parseErr := ParsePageSpec(rp.Spec, total)
	if parseErr != nil {
		return Result{}, parseErr
	}
	if len(remove) == 0 {
		return Result{}, apperr.New(apperr.BadPayload, "remove-pages selects no pages")
	}

	keep := Complement(remove, total)
	if len(keep) == 0 {
		return Result{}, apperr.New(apperr.BadPayload, "cannot remove all pages")
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "pdf")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}
	if err := deps.PDF.ExtractPages(ctx, rp.InputPath, keep, out); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: out}, nil
}

func handleRotate(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	rp, ok := p.(*jobkind.RotatePayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "rotate handler received the wrong payload type")
	}
	if err := resolveUnderUploads(deps, rp.InputPath); err != nil {
		return Result{}, err
	}

	switch rp.Angle {
	case 0, 90, 180, 270:
	default:
		return Result{}, apperr.New(apperr.BadPayload, "rotate angle must be one of 0, 90, 180, 270")
	}

	var pages []int
	if rp.Spec != "" {
		total, err := deps.PDF.PageCount(ctx, rp.InputPath)
		if err != nil {
			return Result{}, err
		}
		pages, err = ParsePageSpec(rp.Spec, total)
		if err != nil {
			return Result{}, err
		}
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "pdf")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}

	// pdfcpu's RotateFile itself accumulates rp.Angle with each selected
	// page's existing rotation modulo 360.
	if err := deps.PDF.Rotate(ctx, rp.InputPath, out, rp.Angle%360, pages); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: out}, nil
}

func handleOrganize(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	op, ok := p.(*jobkind.OrganizePayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "organize handler received the wrong payload type")
	}
	if err := resolveUnderUploads(deps, op.InputPath); err != nil {
		return Result{}, err
	}

	total, err := deps.PDF.PageCount(ctx, op.InputPath)
	if err != nil {
		return Result{}, err
	}
	if !isPermutation(op.Order, total) {
		return Result{}, apperr.New(apperr.BadPayload, "organize order must be a permutation of 1..N")
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "pdf")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}
	if err := deps.PDF.Organize(ctx, op.InputPath, op.Order, out); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: out}, nil
}

// isPermutation reports whether order is exactly {1,...,n} with no
// repeats and no omissions.
func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n+1)
	for _, v := range order {
		if v < 1 || v > n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func handleCrop(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	cp, ok := p.(*jobkind.CropPayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "crop handler received the wrong payload type")
	}
	if err := resolveUnderUploads(deps, cp.InputPath); err != nil {
		return Result{}, err
	}

	box := tooladapter.CropBox{Top: cp.Top, Bottom: cp.Bottom, Left: cp.Left, Right: cp.Right}
	if cp.Unit == jobkind.CropPercent {
		w, h, dimErr := deps.PDF.PageDims(ctx, cp.InputPath)
		if dimErr != nil {
			return Result{}, dimErr
		}
		box.Top = h * cp.Top / 100
		box.Bottom = h * cp.Bottom / 100
		box.Left = w * cp.Left / 100
		box.Right = w * cp.Right / 100

		remainingW := w - box.Left - box.Right
		remainingH := h - box.Top - box.Bottom
		if remainingW <= 0 || remainingH <= 0 {
			// spec.md §4.4: pages with a non-positive resulting box are
			// left unchanged, so crop nothing rather than fail the job.
			box = tooladapter.CropBox{}
		}
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "pdf")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}
	if err := deps.PDF.Crop(ctx, cp.InputPath, out, box, nil); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: out}, nil
}
