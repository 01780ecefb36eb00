package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"weave/internal/link"
	"weave/internal/trace"
)

// ErrNoUnits reports arguments that name no unit files.
var ErrNoUnits = errors.New("no unit files")

// isUnitFile reports whether path has a unit file extension.
func isUnitFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".msgpack", ".mp":
		return true
	}
	return false
}

// ListUnits expands args into a sorted, duplicate-free list of unit files.
// Directories are walked recursively; files are taken as given.
func ListUnits(args []string) ([]string, error) {
	seen := make(map[string]struct{}, len(args))
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && path != arg && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if !d.IsDir() && isUnitFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoUnits, strings.Join(args, ", "))
	}
	// deterministic order
	sort.Strings(files)
	return files, nil
}

// LinkFiles links every path with at most opts.Jobs units in flight.
// Outcomes parallel paths. A unit that fails does not stop the others; the
// error then wraps link.ErrLinkFailed (or the load error of the first
// failing unit). Cancellation stops scheduling and returns ctx.Err().
func LinkFiles(ctx context.Context, paths []string, opts Options) ([]*Outcome, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "link-files")
	defer span.End(fmt.Sprintf("%d units", len(paths)))

	for _, p := range paths {
		emit(opts.Progress, Event{File: p, Stage: StageLoad, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	outcomes := make([]*Outcome, len(paths))
	errs := make([]error, len(paths))
	if len(paths) == 0 {
		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// index i is unique per goroutine
			outcomes[i], errs[i] = LinkFile(gctx, path, opts)
			if err := gctx.Err(); err != nil && errors.Is(errs[i], err) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}

	failed := 0
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		failed++
		if first == nil {
			first = err
		}
	}
	switch {
	case failed == 0:
		return outcomes, nil
	case errors.Is(first, link.ErrLinkFailed):
		return outcomes, fmt.Errorf("%w: %d of %d unit(s)", link.ErrLinkFailed, failed, len(paths))
	default:
		return outcomes, fmt.Errorf("%d of %d unit(s) failed: %w", failed, len(paths), first)
	}
}
