package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
	"github.com/rlch/luna/workspace"
)

// project is a scanned workspace: its config, the analyzed files and the shared index.
type project struct {
	root   string
	wd     string
	cfg    *luna.Config
	filter *analysis.Filter
	index  *analysis.Index
	files  []*analysis.AnalyzedFile
}

// loadProject scans root (a directory or a single file) with the nearest .luna.yaml applied.
func loadProject(ctx context.Context, logger *zap.Logger, root string) (*project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	cfg, err := luna.LoadConfigOrDefault(abs)
	if err != nil {
		return nil, err
	}

	filter, err := analysis.NewFilter(cfg.Diagnostics.Disable, cfg.Diagnostics.Ignore)
	if err != nil {
		return nil, err
	}

	analyzer := analysis.NewAnalyzer()
	if len(cfg.Diagnostics.Disable) > 0 {
		analyzer = analyzer.Without(cfg.Diagnostics.Disable...)
	}

	index := analysis.NewIndex()

	files, err := workspace.NewScanner(logger, analyzer, index, cfg).Scan(ctx, abs)
	if err != nil {
		return nil, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	return &project{root: abs, wd: wd, cfg: cfg, filter: filter, index: index, files: files}, nil
}

// own returns the scanned files below the root, leaving out library directories.
func (p *project) own() []*analysis.AnalyzedFile {
	var out []*analysis.AnalyzedFile

	for _, f := range p.files {
		if _, ok := p.rel(f.Path); ok {
			out = append(out, f)
		}
	}

	return out
}

// rel returns the path of uri relative to the working directory when it lies below the root.
func (p *project) rel(uri string) (string, bool) {
	path := workspace.URIToPath(uri)

	if path != p.root && !strings.HasPrefix(path, p.root+string(filepath.Separator)) {
		return path, false
	}

	if rel, err := filepath.Rel(p.wd, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel, true
	}

	return path, true
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}

	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger, nil
}
