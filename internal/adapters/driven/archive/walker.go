package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"

	"github.com/custodia-labs/cassation/internal/core/domain"
)

// walker groups payloads into buckets and forwards them.
// Every method that sends returns false once ctx is done.
type walker struct {
	revision string
	maxEntry int64
	out      chan<- domain.Bucket
	errs     chan<- error
	skipped  *atomic.Int64
	current  domain.Bucket
}

// add appends p to the current bucket, flushing first when p belongs to
// another folder.
func (w *walker) add(ctx context.Context, p domain.Payload) bool {
	dir := path.Dir(p.Path)
	if len(w.current.Payloads) > 0 && dir != w.current.Path {
		if !w.flush(ctx) {
			return false
		}
	}
	w.current.Path = dir
	w.current.Payloads = append(w.current.Payloads, p)
	return true
}

func (w *walker) flush(ctx context.Context) bool {
	if len(w.current.Payloads) == 0 {
		return true
	}
	b := w.current
	w.current = domain.Bucket{}
	select {
	case <-ctx.Done():
		return false
	case w.out <- b:
		return true
	}
}

func (w *walker) fail(ctx context.Context, p string, err error) bool {
	select {
	case <-ctx.Done():
		return false
	case w.errs <- &domain.ArchiveReadError{Path: p, Err: err}:
		return true
	}
}

// walkTar reads every entry of tr. Entry names are joined under prefix,
// which is the path of the enclosing archive entry for nested tarballs.
// A corrupt header ends this tarball but not the enclosing one.
func (w *walker) walkTar(ctx context.Context, tr *tar.Reader, prefix string) bool {
	for {
		if ctx.Err() != nil {
			return false
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return true
		}
		if err != nil {
			where := prefix
			if where == "" {
				where = "."
			}
			return w.fail(ctx, where, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir, tar.TypeXGlobalHeader:
			continue
		case tar.TypeReg:
		default:
			w.skipped.Add(1)
			continue
		}

		name := entryName(prefix, hdr.Name)
		switch {
		case IsTarGz(name):
			if !w.walkNested(ctx, tr, name) {
				return false
			}
		case IsXML(name):
			if hdr.Size > w.maxEntry {
				if !w.fail(ctx, name, fmt.Errorf("%w: %d bytes", ErrEntryTooLarge, hdr.Size)) {
					return false
				}
				continue
			}
			data, err := io.ReadAll(io.LimitReader(tr, w.maxEntry))
			if err != nil {
				if !w.fail(ctx, name, err) {
					return false
				}
				continue
			}
			if !w.add(ctx, domain.Payload{Path: name, Revision: w.revision, Data: data}) {
				return false
			}
		default:
			w.skipped.Add(1)
		}
	}
}

func (w *walker) walkNested(ctx context.Context, r io.Reader, name string) bool {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return w.fail(ctx, name, err)
	}
	defer gz.Close()
	return w.walkTar(ctx, tar.NewReader(gz), name)
}

// entryName cleans a tar header name and places it under prefix.
func entryName(prefix, name string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
