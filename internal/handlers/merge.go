package handlers

import (
	"context"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/jobkind"
)

func handleMerge(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	mp, ok := p.(*jobkind.MergePayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "merge handler received the wrong payload type")
	}
	if len(mp.InputPaths) < 2 {
		return Result{}, apperr.New(apperr.BadPayload, "merge requires at least two input files")
	}
	for _, in := range mp.InputPaths {
		if err := resolveUnderUploads(deps, in); err != nil {
			return Result{}, err
		}
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "pdf")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}

	if err := deps.PDF.Merge(ctx, mp.InputPaths, out); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: out}, nil
}
