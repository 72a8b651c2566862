// Package workspace indexes the Lua files of a workspace and its library directories.
package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.lsp.dev/uri"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
)

// Extension is the file extension of indexed sources.
const Extension = ".lua"

// Scanner analyzes files from disk and records their entries in a shared index.
type Scanner struct {
	logger   *zap.Logger
	analyzer *analysis.Analyzer
	index    *analysis.Index
	cfg      *luna.Config
}

// NewScanner creates a scanner. A nil cfg behaves like luna.DefaultConfig.
func NewScanner(logger *zap.Logger, analyzer *analysis.Analyzer, index *analysis.Index, cfg *luna.Config) *Scanner {
	if cfg == nil {
		cfg = luna.DefaultConfig()
	}

	return &Scanner{logger: logger, analyzer: analyzer, index: index, cfg: cfg}
}

// Scan indexes every Lua file below root and below the configured library directories.
// Results are sorted by path. Unreadable files are logged and skipped; a missing root is an error.
func (s *Scanner) Scan(ctx context.Context, root string) ([]*analysis.AnalyzedFile, error) {
	files, err := s.listFiles(root)
	if err != nil {
		return nil, err
	}

	for _, lib := range s.cfg.LibraryDirs() {
		libFiles, err := s.listFiles(lib)
		if err != nil {
			s.logger.Warn("Skipping library directory", zap.String("dir", lib), zap.Error(err))

			continue
		}

		files = append(files, libFiles...)
	}

	sort.Strings(files)
	files = dedupe(files)

	if len(files) == 0 {
		return nil, nil
	}

	jobs := s.cfg.Workspace.Concurrency
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]*analysis.AnalyzedFile, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			f, err := s.IndexFile(path)
			if err != nil {
				s.logger.Warn("Skipping unreadable file", zap.String("path", path), zap.Error(err))

				return nil
			}

			results[i] = f

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	out := results[:0]

	for _, f := range results {
		if f != nil {
			out = append(out, f)
		}
	}

	s.logger.Info("Indexed workspace",
		zap.String("root", root),
		zap.Int("files", len(out)),
		zap.Int("documents", s.index.Documents()))

	return out, nil
}

// IndexFile analyzes the file at path as it is on disk and replaces its index entries.
func (s *Scanner) IndexFile(path string) (*analysis.AnalyzedFile, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	f := s.analyzer.Analyze(PathToURI(path), string(data))
	s.index.Replace(f.Path, f.Entries)

	return f, nil
}

// listFiles returns the Lua files below dir that are not excluded by the config.
func (s *Scanner) listFiles(dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var files []string

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(abs, path)
		if relErr != nil {
			return relErr
		}

		if rel != "." && s.cfg.Excluded(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.IsDir() && strings.HasSuffix(path, Extension) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	return files, nil
}

func dedupe(sorted []string) []string {
	out := sorted[:0]

	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}

	return out
}

// PathToURI converts a file system path to a document URI.
func PathToURI(path string) string {
	return string(uri.File(path))
}

// URIToPath converts a document URI to a file system path. Non-file URIs are returned unchanged.
func URIToPath(u string) string {
	if !strings.HasPrefix(u, "file://") {
		return u
	}

	return uri.URI(u).Filename()
}
