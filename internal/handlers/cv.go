package handlers

import (
	"bytes"
	"context"
	"html/template"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/jobkind"
)

// cvTemplate is the sole source of HTML for cv-generate; it has no means
// of including user input except through html/template's automatic,
// context-aware entity encoding of every field below (spec.md §4.4).
var cvTemplate = template.Must(template.New("cv").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
body{font-family:sans-serif;margin:2em;color:#222}
h1{margin-bottom:0}
.contact{color:#555;margin-bottom:1em}
h2{border-bottom:1px solid #ccc;margin-top:1.5em}
.entry{margin-bottom:0.75em}
.entry .when{color:#777;font-size:0.9em}
</style></head><body lang="{{.Language}}">
<h1>{{.FullName}}</h1>
<div class="contact">{{.Email}}{{if .Phone}} &middot; {{.Phone}}{{end}}{{if .Location}} &middot; {{.Location}}{{end}}</div>
{{if .Summary}}<p>{{.Summary}}</p>{{end}}
{{if .Experience}}<h2>Experience</h2>
{{range .Experience}}<div class="entry"><strong>{{.Title}}</strong> &mdash; {{.Organization}}
<div class="when">{{.Start}} - {{.End}}</div>
<p>{{.Description}}</p></div>{{end}}{{end}}
{{if .Education}}<h2>Education</h2>
{{range .Education}}<div class="entry"><strong>{{.Title}}</strong> &mdash; {{.Organization}}
<div class="when">{{.Start}} - {{.End}}</div>
<p>{{.Description}}</p></div>{{end}}{{end}}
{{if .Skills}}<h2>Skills</h2><p>{{range $i, $s := .Skills}}{{if $i}}, {{end}}{{$s}}{{end}}</p>{{end}}
</body></html>`))

func handleCVGenerate(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	cp, ok := p.(*jobkind.CVGeneratePayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "cv-generate handler received the wrong payload type")
	}
	if cp.FullName == "" || cp.Email == "" {
		return Result{}, apperr.New(apperr.BadPayload, "cv-generate requires fullName and email")
	}

	var buf bytes.Buffer
	if err := cvTemplate.Execute(&buf, cp); err != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to render cv template")
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "pdf")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}
	// Rendered by the same browser renderer as from-html, network disabled:
	// cv-generate never reaches the network regardless of template content.
	if err := deps.Browser.RenderPDF(ctx, buf.String(), out); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: out}, nil
}
