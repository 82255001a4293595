package handlers

import (
	"context"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/jobkind"
)

func handleProtect(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	pp, ok := p.(*jobkind.ProtectPayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "protect handler received the wrong payload type")
	}
	if err := resolveUnderUploads(deps, pp.InputPath); err != nil {
		return Result{}, err
	}
	if pp.Password == "" {
		return Result{}, apperr.New(apperr.BadPayload, "protect requires a non-empty password")
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "pdf")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}

	if err := deps.PDF.Encrypt(ctx, pp.InputPath, out, pp.Password); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: out}, nil
}

func handleUnlock(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	up, ok := p.(*jobkind.UnlockPayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "unlock handler received the wrong payload type")
	}
	if err := resolveUnderUploads(deps, up.InputPath); err != nil {
		return Result{}, err
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "pdf")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}

	// pdfengine.go's mapPDFEngineError already turns a password-substring
	// match into INVALID_PASSWORD; any other decrypt failure is TOOL_FAILED.
	if err := deps.PDF.Decrypt(ctx, up.InputPath, out, up.Password); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: out}, nil
}
