package handlers

import (
	"context"
	"strings"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/jobkind"
)

func handleFromHTML(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	hp, ok := p.(*jobkind.FromHTMLPayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "from-html handler received the wrong payload type")
	}
	if hp.HTML == "" {
		return Result{}, apperr.New(apperr.BadPayload, "from-html requires non-empty HTML")
	}
	if looksLikeRemoteURL(hp.HTML) {
		return Result{}, apperr.New(apperr.RemoteURLDisabled, "from-html accepts HTML content, not a remote URL")
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "pdf")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}

	if err := deps.Browser.RenderPDF(ctx, hp.HTML, out); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: out}, nil
}

// looksLikeRemoteURL rejects a payload that is just a bare http(s) URL
// rather than HTML content (spec.md §4.4 "remote URL mode is rejected").
func looksLikeRemoteURL(s string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://")
}
