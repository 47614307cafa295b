package archive

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driven"
)

// Ensure dirSource implements the interface.
var _ driven.ArchiveSource = (*dirSource)(nil)

// dirSource walks an extracted archive tree. Each directory's XML files
// form one bucket; tarballs found in the tree are unpacked in place.
type dirSource struct {
	root    string
	info    domain.ArchiveInfo
	opts    options
	skipped atomic.Int64
	walked  atomic.Bool
}

func newDirSource(root string, opts options) *dirSource {
	return &dirSource{
		root: root,
		info: domain.ArchiveInfo{
			Name:     filepath.Base(root),
			Revision: Revision(filepath.Base(root), opts.revisionTime),
			Path:     root,
		},
		opts: opts,
	}
}

func (s *dirSource) Info() domain.ArchiveInfo { return s.info }

func (s *dirSource) Skipped() int { return int(s.skipped.Load()) }

func (s *dirSource) Close() error { return nil }

// Buckets walks the tree once, depth first in lexical order.
func (s *dirSource) Buckets(ctx context.Context) (<-chan domain.Bucket, <-chan error) {
	out := make(chan domain.Bucket)
	errs := make(chan error, errBufferSize)

	if !s.walked.CompareAndSwap(false, true) {
		errs <- &domain.ArchiveReadError{Path: s.info.Name, Err: ErrAlreadyWalked}
		close(out)
		close(errs)
		return out, errs
	}

	go func() {
		defer close(errs)
		defer close(out)

		w := &walker{
			revision: s.info.Revision,
			maxEntry: s.opts.maxEntryBytes,
			out:      out,
			errs:     errs,
			skipped:  &s.skipped,
		}
		s.walkDir(ctx, w, ".")
	}()

	return out, errs
}

// walkDir emits the bucket of rel, then descends into its subdirectories.
func (s *dirSource) walkDir(ctx context.Context, w *walker, rel string) bool {
	entries, err := os.ReadDir(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return w.fail(ctx, rel, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var subdirs, nested []string
	for _, e := range entries {
		name := path.Join(rel, e.Name())
		switch {
		case e.IsDir():
			subdirs = append(subdirs, name)
		case !e.Type().IsRegular():
			s.skipped.Add(1)
		case IsTarGz(name):
			nested = append(nested, name)
		case IsXML(name):
			if !s.readFile(ctx, w, name) {
				return false
			}
		default:
			s.skipped.Add(1)
		}
	}
	if !w.flush(ctx) {
		return false
	}

	for _, name := range nested {
		if !s.walkTarFile(ctx, w, name) {
			return false
		}
		if !w.flush(ctx) {
			return false
		}
	}
	for _, name := range subdirs {
		if !s.walkDir(ctx, w, name) {
			return false
		}
	}
	return true
}

func (s *dirSource) readFile(ctx context.Context, w *walker, name string) bool {
	full := filepath.Join(s.root, filepath.FromSlash(name))
	st, err := os.Stat(full)
	if err != nil {
		return w.fail(ctx, name, err)
	}
	if st.Size() > s.opts.maxEntryBytes {
		return w.fail(ctx, name, ErrEntryTooLarge)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return w.fail(ctx, name, err)
	}
	return w.add(ctx, domain.Payload{Path: name, Revision: w.revision, Data: data})
}

func (s *dirSource) walkTarFile(ctx context.Context, w *walker, name string) bool {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		return w.fail(ctx, name, err)
	}
	defer f.Close()
	return w.walkNested(ctx, f, name)
}
