package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/jobkind"
)

func handleSplit(ctx context.Context, deps *Deps, jobID string, p jobkind.Payload) (Result, *apperr.Coded) {
	sp, ok := p.(*jobkind.SplitPayload)
	if !ok {
		return Result{}, apperr.New(apperr.Internal, "split handler received the wrong payload type")
	}
	if err := resolveUnderUploads(deps, sp.InputPath); err != nil {
		return Result{}, err
	}

	total, err := deps.PDF.PageCount(ctx, sp.InputPath)
	if err != nil {
		return Result{}, err
	}

	var groups [][]int
	switch sp.Mode {
	case jobkind.SplitRange:
		groups, err = splitGroupsFromSpec(sp.Spec, total)
	case jobkind.SplitEveryN:
		groups, err = splitGroupsEveryN(sp.EveryN, total)
	case jobkind.SplitPages:
		groups, err = splitGroupsOnePerPage(total)
	default:
		return Result{}, apperr.New(apperr.BadPayload, fmt.Sprintf("unknown split mode %q", sp.Mode))
	}
	if err != nil {
		return Result{}, err
	}
	if len(groups) == 0 {
		return Result{}, apperr.New(apperr.BadPayload, "split produced no output files")
	}

	scratch, mkErr := deps.Store.AllocateUploadSubdir()
	if mkErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate scratch directory")
	}
	defer deps.Store.UnlinkDir(scratch)

	parts := make([]string, 0, len(groups))
	for i, pages := range groups {
		partPath := filepath.Join(scratch, fmt.Sprintf("part-%04d.pdf", i+1))
		if err := deps.PDF.ExtractPages(ctx, sp.InputPath, pages, partPath); err != nil {
			return Result{}, err
		}
		parts = append(parts, partPath)
	}

	out, storeErr := deps.Store.AllocateDownloadPath(jobID, "zip")
	if storeErr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to allocate output path")
	}
	if werr := deps.Store.WriteZip(out, parts); werr != nil {
		return Result{}, apperr.New(apperr.Internal, "failed to assemble split output")
	}

	return Result{OutputPath: out, IsMultiple: true}, nil
}

// splitGroupsFromSpec parses a comma-separated list of groups, each either a
// bare page or an a-b range, into one page-index slice per group — unlike
// ParsePageSpec, groups are kept separate rather than flattened into one set.
func splitGroupsFromSpec(spec string, total int) ([][]int, *apperr.Coded) {
	var groups [][]int
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if a, b, ok := splitRange(tok); ok {
			lo, err1 := strconv.Atoi(a)
			hi, err2 := strconv.Atoi(b)
			if err1 != nil || err2 != nil || lo < 1 || lo > hi {
				return nil, apperr.New(apperr.BadPayload, "invalid split range token: "+tok)
			}
			if hi > total {
				hi = total
			}
			if lo > hi {
				continue
			}
			group := make([]int, 0, hi-lo+1)
			for n := lo; n <= hi; n++ {
				group = append(group, n)
			}
			groups = append(groups, group)
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 1 {
			return nil, apperr.New(apperr.BadPayload, "invalid split page token: "+tok)
		}
		if n <= total {
			groups = append(groups, []int{n})
		}
	}
	if len(groups) == 0 {
		return nil, apperr.New(apperr.BadPayload, "split spec is empty or out of range")
	}
	return groups, nil
}

func splitGroupsEveryN(everyN, total int) ([][]int, *apperr.Coded) {
	if everyN < 1 {
		return nil, apperr.New(apperr.BadPayload, "split every-n requires a positive page count")
	}
	var groups [][]int
	for start := 1; start <= total; start += everyN {
		end := start + everyN - 1
		if end > total {
			end = total
		}
		group := make([]int, 0, end-start+1)
		for n := start; n <= end; n++ {
			group = append(group, n)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func splitGroupsOnePerPage(total int) ([][]int, *apperr.Coded) {
	groups := make([][]int, 0, total)
	for n := 1; n <= total; n++ {
		groups = append(groups, []int{n})
	}
	return groups, nil
}
