package handlers

import (
	"context"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/jobkind"
)

func handleWatermark(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	wp, ok := p.(*jobkind.WatermarkPayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "watermark handler received the wrong payload type")
	}
	if err := resolveUnderUploads(deps, wp.InputPath); err != nil {
		return Result{}, err
	}
	if wp.Text == "" {
		return Result{}, apperr.New(apperr.BadPayload, "watermark requires non-empty text")
	}
	if wp.Opacity <= 0 || wp.Opacity > 1 {
		return Result{}, apperr.New(apperr.BadPayload, "watermark opacity must be in (0,1]")
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "pdf")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}
	if err := deps.PDF.Watermark(ctx, wp.InputPath, out, wp.Text, wp.Opacity, wp.FontSizePt); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: out}, nil
}
