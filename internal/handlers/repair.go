package handlers

import (
	"context"
	"os"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/jobkind"
)

// quickStrategy is one bounded attempt tried, in order, by repair's auto
// method before it falls through to a deep re-render (spec.md §4.4).
type quickStrategy func(ctx context.Context, deps *Deps, in, out string) *apperr.Coded

var quickStrategies = []quickStrategy{
	func(ctx context.Context, deps *Deps, in, out string) *apperr.Coded {
		return deps.PDF.Relinearize(ctx, in, out)
	},
	func(ctx context.Context, deps *Deps, in, out string) *apperr.Coded {
		return deps.PDF.ReEmit(ctx, in, out)
	},
	func(ctx context.Context, deps *Deps, in, out string) *apperr.Coded {
		return deps.PDF.ReEmitNoObjectStreams(ctx, in, out)
	},
	func(ctx context.Context, deps *Deps, in, out string) *apperr.Coded {
		return deps.PDF.ValidateAndClean(ctx, in, out)
	},
}

func handleRepair(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	rp, ok := p.(*jobkind.RepairPayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "repair handler received the wrong payload type")
	}
	if err := resolveUnderUploads(deps, rp.InputPath); err != nil {
		return Result{}, err
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "pdf")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}

	switch rp.Method {
	case jobkind.RepairQuick:
		for _, attempt := range quickStrategies {
			if err := attempt(ctx, deps, rp.InputPath, out); err == nil && nonEmptyFile(out) {
				return Result{OutputPath: out}, nil
			}
			deps.Store.Unlink(out)
		}
		return Result{}, apperr.New(apperr.RepairFailed, "all quick repair strategies failed")

	case jobkind.RepairDeep:
		if err := deps.Raster.DeepRerender(ctx, rp.InputPath, out, false); err == nil && nonEmptyFile(out) {
			return Result{OutputPath: out}, nil
		}
		deps.Store.Unlink(out)
		if err := deps.Raster.DeepRerender(ctx, rp.InputPath, out, true); err == nil && nonEmptyFile(out) {
			return Result{OutputPath: out}, nil
		}
		deps.Store.Unlink(out)
		return Result{}, apperr.New(apperr.RepairFailed, "deep repair failed")

	case jobkind.RepairAuto:
		for _, attempt := range quickStrategies {
			if err := attempt(ctx, deps, rp.InputPath, out); err == nil && nonEmptyFile(out) {
				return Result{OutputPath: out}, nil
			}
			deps.Store.Unlink(out)
		}
		if err := deps.Raster.DeepRerender(ctx, rp.InputPath, out, false); err == nil && nonEmptyFile(out) {
			return Result{OutputPath: out}, nil
		}
		deps.Store.Unlink(out)
		if err := deps.Raster.DeepRerender(ctx, rp.InputPath, out, true); err == nil && nonEmptyFile(out) {
			return Result{OutputPath: out}, nil
		}
		deps.Store.Unlink(out)
		return Result{}, apperr.New(apperr.RepairFailed, "all repair strategies failed")

	default:
		return Result{}, apperr.New(apperr.BadPayload, "unknown repair method")
	}
}

func nonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
