package handlers

import (
	"context"
	"os"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/jobkind"
)

func handleCompress(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	cp, ok := p.(*jobkind.CompressPayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "compress handler received the wrong payload type")
	}
	if err := resolveUnderUploads(deps, cp.InputPath); err != nil {
		return Result{}, err
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "pdf")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}

	if err := deps.Raster.Recompress(ctx, cp.InputPath, out, string(cp.Preset)); err != nil {
		return Result{}, err
	}

	res := Result{OutputPath: out}
	if info, statErr := os.Stat(cp.InputPath); statErr == nil {
		res.OriginalSize = info.Size()
	}
	if info, statErr := os.Stat(out); statErr == nil {
		res.CompressedSize = info.Size()
	}
	return res, nil
}
