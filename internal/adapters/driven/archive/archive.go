// Package archive reads DILA bulk archives: gzip-compressed tarballs of
// folders of XML files, possibly nested, or an already extracted directory.
package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driven"
)

// DefaultMaxEntryBytes bounds a single XML entry.
const DefaultMaxEntryBytes int64 = 64 << 20

// errBufferSize lets the walk run ahead of a slow error reader.
const errBufferSize = 16

// Entry errors reported on the error channel.
var (
	// ErrEntryTooLarge reports an XML entry above the size limit.
	ErrEntryTooLarge = errors.New("entry exceeds size limit")

	// ErrAlreadyWalked reports a second call to Buckets.
	ErrAlreadyWalked = errors.New("archive already walked")
)

// timestampPattern finds the timestamp DILA embeds in archive names,
// e.g. CASS_20231020-211500.tar.gz.
var timestampPattern = regexp.MustCompile(`\d{8}(-\d{6})?`)

// RevisionLayout formats revisions derived from a time rather than a name.
// It shares the DILA prefix so both kinds compare in time order as strings.
const RevisionLayout = "20060102-150405.000000000"

type options struct {
	maxEntryBytes int64
	revisionTime  time.Time
}

// Option configures a source.
type Option func(*options)

// WithMaxEntryBytes sets the XML entry size limit. Non-positive values
// keep the default.
func WithMaxEntryBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntryBytes = n
		}
	}
}

// WithRevisionTime sets the time used for the revision of a source whose
// name carries no timestamp. By default files and directories use their
// modification time and streams the time they were opened.
func WithRevisionTime(t time.Time) Option {
	return func(o *options) {
		o.revisionTime = t
	}
}

func buildOptions(opts []Option) options {
	o := options{maxEntryBytes: DefaultMaxEntryBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open opens a .tar.gz/.tgz file or an extracted directory.
// Any failure here is wrapped in domain.ErrArchiveOpen.
func Open(p string, opts ...Option) (driven.ArchiveSource, error) {
	st, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrArchiveOpen, err)
	}

	o := buildOptions(opts)
	if o.revisionTime.IsZero() {
		o.revisionTime = st.ModTime()
	}

	if st.IsDir() {
		return newDirSource(p, o), nil
	}

	if !IsTarGz(p) {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrArchiveOpen, p, domain.ErrUnsupportedType)
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrArchiveOpen, err)
	}

	digest, err := fileDigest(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: digest %s: %w", domain.ErrArchiveOpen, p, err)
	}

	name := filepath.Base(p)
	info := domain.ArchiveInfo{
		Name:     name,
		Revision: Revision(name, o.revisionTime),
		Path:     p,
		Size:     st.Size(),
		Digest:   digest,
	}
	src, err := newTarGzSource(info, f, f, o)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// NewTarGz reads a gzip-compressed tarball from r. The digest of a stream
// is unknown up front, so such sources are never recorded in the ledger.
func NewTarGz(name string, r io.Reader, opts ...Option) (driven.ArchiveSource, error) {
	o := buildOptions(opts)
	if o.revisionTime.IsZero() {
		o.revisionTime = time.Now()
	}
	info := domain.ArchiveInfo{Name: name, Revision: Revision(name, o.revisionTime)}
	return newTarGzSource(info, r, nil, o)
}

// IsTarGz reports whether name looks like a gzip-compressed tarball.
func IsTarGz(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz")
}

// IsXML reports whether name is an XML document.
func IsXML(name string) bool {
	return strings.EqualFold(path.Ext(name), ".xml")
}

// Revision derives the version label of an archive: the last timestamp
// embedded in its name, or fallback formatted with RevisionLayout. A
// date-only timestamp is read as midnight.
func Revision(name string, fallback time.Time) string {
	base := path.Base(filepath.ToSlash(name))
	if all := timestampPattern.FindAllString(base, -1); len(all) > 0 {
		ts := all[len(all)-1]
		if len(ts) == len("20060102") {
			ts += "-000000"
		}
		return ts
	}
	return fallback.UTC().Format(RevisionLayout)
}

func fileDigest(f *os.File) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
