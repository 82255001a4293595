// Package handlers implements one handler per JobKind: payload validation,
// path resolution under tempstore's roots, driving the tool adapter, and
// writing the resulting artifact. Handlers never touch queue state
// directly — they return a Result or an *apperr.Coded to the worker that
// invoked them.
package handlers

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pdfpipe/server/internal/apperr"
)

// ParsePageSpec parses a comma-separated list of page tokens (a bare
// integer n, or a range a-b with a<=b) against a document of total pages,
// returning a deterministic sorted set of 1-based page indices. Used by
// remove-pages and rotate; split's range mode keeps its groups separate
// via splitGroupsFromSpec, and crop applies to every page.
func ParsePageSpec(spec string, total int) ([]int, *apperr.Coded) {
	set := map[int]struct{}{}
	any := false

	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		any = true

		if a, b, ok := splitRange(tok); ok {
			lo, err1 := strconv.Atoi(a)
			hi, err2 := strconv.Atoi(b)
			if err1 != nil || err2 != nil || lo < 1 || lo > hi {
				return nil, apperr.New(apperr.BadPayload, "invalid page range token: "+tok)
			}
			for p := lo; p <= hi && p <= total; p++ {
				set[p] = struct{}{}
			}
			continue
		}

		n, err := strconv.Atoi(tok)
		if err != nil || n < 1 {
			return nil, apperr.New(apperr.BadPayload, "invalid page token: "+tok)
		}
		if n <= total {
			set[n] = struct{}{}
		}
	}

	if !any {
		return nil, apperr.New(apperr.BadPayload, "page spec is empty")
	}
	if len(set) == 0 {
		return nil, apperr.New(apperr.BadPayload, "page spec selects no pages in range")
	}

	out := make([]int, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Ints(out)
	return out, nil
}

func splitRange(tok string) (a, b string, ok bool) {
	i := strings.IndexByte(tok, '-')
	if i <= 0 || i == len(tok)-1 {
		return "", "", false
	}
	return tok[:i], tok[i+1:], true
}

// Complement returns the sorted set of 1-based pages in 1..total that are
// not present in pages, used by remove-pages to compute the keep set.
func Complement(pages []int, total int) []int {
	exclude := make(map[int]struct{}, len(pages))
	for _, p := range pages {
		exclude[p] = struct{}{}
	}
	out := make([]int, 0, total)
	for p := 1; p <= total; p++ {
		if _, skip := exclude[p]; !skip {
			out = append(out, p)
		}
	}
	return out
}
