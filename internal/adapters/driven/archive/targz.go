package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"

	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driven"
)

// Ensure tarGzSource implements the interface.
var _ driven.ArchiveSource = (*tarGzSource)(nil)

// tarGzSource streams a gzip-compressed tarball.
type tarGzSource struct {
	info    domain.ArchiveInfo
	opts    options
	gz      *gzip.Reader
	file    io.Closer
	skipped atomic.Int64
	walked  atomic.Bool
}

// newTarGzSource reads the gzip header eagerly so that a file that is not
// gzip at all fails before the run starts.
func newTarGzSource(info domain.ArchiveInfo, r io.Reader, file io.Closer, opts options) (*tarGzSource, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrArchiveOpen, info.Name, err)
	}
	return &tarGzSource{info: info, opts: opts, gz: gz, file: file}, nil
}

func (s *tarGzSource) Info() domain.ArchiveInfo { return s.info }

func (s *tarGzSource) Skipped() int { return int(s.skipped.Load()) }

// Buckets walks the tarball once.
func (s *tarGzSource) Buckets(ctx context.Context) (<-chan domain.Bucket, <-chan error) {
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
		if w.walkTar(ctx, tar.NewReader(s.gz), "") {
			w.flush(ctx)
		}
	}()

	return out, errs
}

func (s *tarGzSource) Close() error {
	err := s.gz.Close()
	if s.file != nil {
		if ferr := s.file.Close(); ferr != nil {
			return ferr
		}
	}
	return err
}
