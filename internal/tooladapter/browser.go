package tooladapter

import (
	"context"
	"encoding/base64"
	"os"
	"time"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/pdfpipe/server/internal/apperr"
)

// BrowserRenderer is the from-html tool family (spec.md §4.3): it loads
// caller-supplied HTML in headless Chrome and prints it to PDF. The HTML is
// navigated to as a data: URL rather than served over a local listener, and
// every outgoing request is intercepted and aborted unless its scheme is in
// allowedSchemes — from-html never fetches anything off the network.
type BrowserRenderer struct {
	Timeout      time.Duration
	ChromiumPath string
}

func NewBrowserRenderer(timeout time.Duration, chromiumPath string) *BrowserRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserRenderer{Timeout: timeout, ChromiumPath: chromiumPath}
}

var allowedSchemes = map[string]bool{
	"data":  true,
	"blob":  true,
	"about": true,
	"file":  true,
}

// RenderPDF navigates to a data: URL built from html and writes the
// resulting PDF to outFile.
func (b *BrowserRenderer) RenderPDF(ctx context.Context, html, outFile string) *apperr.Coded {
	allocOpts := chromedp.DefaultExecAllocatorOptions[:]
	if b.ChromiumPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(b.ChromiumPath))
	}
	allocOpts = append(allocOpts,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelTimeout := context.WithTimeout(browserCtx, b.Timeout)
	defer cancelTimeout()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	var pdfBuf []byte
	err := chromedp.Run(runCtx,
		chromedp.ActionFunc(interceptNonLocalRequests),
		chromedp.Navigate(dataURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return apperr.New(apperr.ToolTimeout, "browser render exceeded its deadline")
		}
		return apperr.New(apperr.ToolFailed, sanitizedTail([]byte(err.Error())))
	}

	if werr := os.WriteFile(outFile, pdfBuf, 0o644); werr != nil {
		return apperr.New(apperr.Internal, "failed to persist rendered PDF")
	}
	return nil
}

// interceptNonLocalRequests enables Fetch domain interception and aborts
// any request whose scheme is not in allowedSchemes, so from-html cannot be
// used to make the server fetch arbitrary network resources.
func interceptNonLocalRequests(ctx context.Context) error {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventRequestPaused:
			go func() {
				c := chromedp.FromContext(ctx)
				execCtx := context.WithoutCancel(ctx)
				reqURL := e.Request.URL
				scheme := schemeOf(reqURL)
				if allowedSchemes[scheme] {
					_ = fetch.ContinueRequest(e.RequestID).WithTarget(c.Target.TargetID).Do(execCtx)
				} else {
					_ = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).WithTarget(c.Target.TargetID).Do(execCtx)
				}
			}()
		}
	})
	return fetch.Enable().WithPatterns([]*fetch.RequestPattern{{URLPattern: "*"}}).Do(ctx)
}

func schemeOf(url string) string {
	for i := 0; i < len(url); i++ {
		if url[i] == ':' {
			return url[:i]
		}
		if !isSchemeChar(url[i]) {
			break
		}
	}
	return ""
}

func isSchemeChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.'
}
