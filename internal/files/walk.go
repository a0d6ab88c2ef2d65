package files

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/onboardbase/securelog/internal/ignore"
	"github.com/rs/zerolog/log"
)

// Kind is the document format of a target.
type Kind int

const (
	KindUnknown Kind = iota
	KindHTML
	KindYAML
)

func (k Kind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindYAML:
		return "yaml"
	}
	return "unknown"
}

// KindOf classifies path by extension.
func KindOf(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return KindHTML
	case ".yaml", ".yml":
		return KindYAML
	}
	return KindUnknown
}

// DefaultMaxBytes skips files larger than this when Options.MaxBytes is zero.
const DefaultMaxBytes int64 = 4 << 20

// Options filters discovery.
type Options struct {
	// Include and Exclude are comma-separated doublestar globs.
	Include         string
	Exclude         string
	MaxBytes        int64
	DefaultExcludes bool
}

// Target is one document to scan.
type Target struct {
	Path string
	Kind Kind
}

// Walk traverses root and invokes handle for each eligible document. Errors on
// individual entries are logged and skipped.
func Walk(ctx context.Context, root string, opts Options, handle func(Target)) error {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	ign, err := ignore.Load(filepath.Join(root, ignore.FileName))
	if err != nil {
		log.Warn().Err(err).Str("root", root).Msg("cannot read ignore file")
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug().Err(err).Str("path", p).Msg("skipping unreadable entry")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, _ := filepath.Rel(root, p)
		if d.IsDir() {
			if p == root {
				return nil
			}
			if opts.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			if ign.MatchDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		kind := KindOf(p)
		if kind == KindUnknown {
			return nil
		}
		if !allowedByGlobs(rel, opts) || ign.Match(rel) {
			return nil
		}
		if opts.DefaultExcludes && isDefaultFileExcluded(strings.ToLower(filepath.ToSlash(rel))) {
			return nil
		}
		if info, _ := d.Info(); info != nil && info.Size() > opts.MaxBytes {
			log.Debug().Str("path", p).Int64("size", info.Size()).Msg("skipping large file")
			return nil
		}
		handle(Target{Path: p, Kind: kind})
		return nil
	})
}

// Collect resolves paths into targets. Files named explicitly are kept when
// their format is known, regardless of globs; directories are walked. The
// result is sorted by path with duplicates removed.
func Collect(ctx context.Context, paths []string, opts Options) ([]Target, error) {
	seen := map[string]bool{}
	var out []Target
	add := func(t Target) {
		if !seen[t.Path] {
			seen[t.Path] = true
			out = append(out, t)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			kind := KindOf(p)
			if kind == KindUnknown {
				return nil, fmt.Errorf("%s: unsupported file type (want .html, .htm, .yaml or .yml)", p)
			}
			add(Target{Path: p, Kind: kind})
			continue
		}
		if err := Walk(ctx, p, opts, add); err != nil {
			return nil, err
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
