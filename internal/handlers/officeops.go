package handlers

import (
	"context"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/jobkind"
)

var convertTargetFormat = map[jobkind.Kind]string{
	jobkind.ToWord:  "word",
	jobkind.ToExcel: "excel",
	jobkind.ToPPT:   "ppt",
}

func handleOfficeConvert(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	op, ok := p.(*jobkind.OfficeConvertPayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "office-convert handler received the wrong payload type")
	}
	if err := resolveUnderUploads(deps, op.InputPath); err != nil {
		return Result{}, err
	}
	format, ok := convertTargetFormat[op.Target]
	if !ok {
		return Result{}, apperr.New(apperr.BadPayload, "unknown office-convert target")
	}

	scratch, mkErr := deps.Store.AllocateUploadSubdir()
	if mkErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate scratch directory")
	}
	defer deps.Store.UnlinkDir(scratch)

	converted, err := deps.Office.Convert(ctx, op.InputPath, scratch, format)
	if err != nil {
		return Result{}, err
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "zip")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}
	if werr := deps.Store.WriteZip(out, []string{converted}); werr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to package converted document")
	}
	return Result{OutputPath: out, IsMultiple: true}, nil
}

func handleOfficeImport(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	ip, ok := p.(*jobkind.OfficeImportPayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "office-import handler received the wrong payload type")
	}
	if err := resolveUnderUploads(deps, ip.InputPath); err != nil {
		return Result{}, err
	}

	scratch, mkErr := deps.Store.AllocateUploadSubdir()
	if mkErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate scratch directory")
	}
	defer deps.Store.UnlinkDir(scratch)

	converted, cerr := deps.Office.Convert(ctx, ip.InputPath, scratch, "pdf")
	if cerr != nil {
		return Result{}, cerr
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "pdf")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}
	data, readErr := readAll(converted)
	if readErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to read converted PDF")
	}
	if werr := deps.Store.WriteBuffer(out, data); werr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to persist converted PDF")
	}
	return Result{OutputPath: out}, nil
}
