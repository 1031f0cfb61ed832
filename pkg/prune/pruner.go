// Package prune detects and removes unused imports from a single Python file.
package prune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/pyprune/pkg/analyzers/imports"
	"github.com/Sumatoshi-tech/pyprune/pkg/analyzers/references"
	"github.com/Sumatoshi-tech/pyprune/pkg/fs"
	"github.com/Sumatoshi-tech/pyprune/pkg/observability"
	"github.com/Sumatoshi-tech/pyprune/pkg/pysyntax"
	"github.com/Sumatoshi-tech/pyprune/pkg/textutil"
)

const (
	spanName = "prune.file"

	// defaultPerm is used when the original file mode cannot be read.
	defaultPerm os.FileMode = 0o644

	// sniffSize bounds how much content is read for language detection.
	sniffSize = 8 << 10
)

// Options configures a Pruner.
type Options struct {
	// DryRun reports findings without writing.
	DryRun bool
	// AtomicWrite rewrites through a temporary file and rename.
	AtomicWrite bool
	// MaxFileSize skips files larger than this many bytes. Zero disables the limit.
	MaxFileSize uint64
	// Extensions are accepted without a warning. Empty means pysyntax.DefaultExtensions.
	Extensions []string
}

// NewPrunerParams holds the collaborators of a Pruner. Only FS is required.
type NewPrunerParams struct {
	FS      fs.FS
	Parser  *pysyntax.Parser
	Auditor *imports.Auditor
	Logger  *slog.Logger
	Metrics *observability.PruneMetrics
	Tracer  trace.Tracer
	Options Options
}

// Pruner sequences read, parse, collect, audit and rewrite for one file.
type Pruner struct {
	fs      fs.FS
	parser  *pysyntax.Parser
	auditor *imports.Auditor
	logger  *slog.Logger
	metrics *observability.PruneMetrics
	tracer  trace.Tracer
	opts    Options
}

// NewPruner creates a Pruner, filling unset collaborators with defaults.
func NewPruner(params NewPrunerParams) *Pruner {
	p := &Pruner{
		fs:      params.FS,
		parser:  params.Parser,
		auditor: params.Auditor,
		logger:  params.Logger,
		metrics: params.Metrics,
		tracer:  params.Tracer,
		opts:    params.Options,
	}

	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}

	if p.parser == nil {
		p.parser = pysyntax.NewParser()
	}

	if p.auditor == nil {
		p.auditor = imports.NewAuditor(imports.DefaultOptions(), p.logger)
	}

	if p.tracer == nil {
		p.tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	if len(p.opts.Extensions) == 0 {
		p.opts.Extensions = pysyntax.DefaultExtensions
	}

	return p
}

// Result is the outcome of detection.
type Result struct {
	Path   string
	Status Status
	// Unused lists unused bindings in source order. Empty unless Status is StatusUnused.
	Unused []imports.Record
	// Source is the content that was analyzed.
	Source []byte
	// Err is the degraded failure behind a status that was not analyzed.
	Err error
}

// Outcome is the result of a full run on one file.
type Outcome struct {
	Result

	// After is the content with unused imports removed. It equals Source
	// when nothing was found.
	After []byte
	// LinesRemoved counts the physical lines dropped, or that would be dropped
	// in a dry run.
	LinesRemoved int
	// Written is true when the file on disk was rewritten.
	Written bool
}

// RewriteResult describes a completed rewrite.
type RewriteResult struct {
	Before       []byte
	After        []byte
	LinesRemoved int
}

// CheckPath validates the target before any analysis. A missing path yields
// ErrPathNotFound. An unexpected extension only logs a warning.
func (p *Pruner) CheckPath(ctx context.Context, path string) error {
	exists, err := p.fs.Exists(path)
	if err != nil {
		return fmt.Errorf("check %s: %w", path, err)
	}

	if !exists {
		p.logger.ErrorContext(ctx, "file does not exist", "path", path)

		return fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}

	if pysyntax.HasExtension(path, p.opts.Extensions) {
		return nil
	}

	attrs := []any{"path", path, "expected", p.opts.Extensions}

	if content, readErr := p.fs.ReadFile(path); readErr == nil {
		if len(content) > sniffSize {
			content = content[:sniffSize]
		}

		if lang := pysyntax.DetectLanguage(path, content); lang != "" {
			attrs = append(attrs, "detected_language", lang)
		}
	}

	p.logger.WarnContext(ctx, "file does not have a .py extension, proceeding anyway", attrs...)

	return nil
}

// Detect reads and analyzes path. Read, size, binary and syntax failures degrade to
// a Result with an empty Unused list and a distinct Status. The returned
// error is reserved for failures that are not properties of the file.
func (p *Pruner) Detect(ctx context.Context, path string) (Result, error) {
	res := Result{Path: path}

	if p.opts.MaxFileSize > 0 {
		if info, err := p.fs.Stat(path); err == nil && info.Size() >= 0 && uint64(info.Size()) > p.opts.MaxFileSize {
			p.logger.WarnContext(ctx, "file exceeds size limit, skipping",
				"path", path, "size", info.Size(), "limit", p.opts.MaxFileSize)

			res.Status = StatusTooLarge
			res.Err = fmt.Errorf("%w: %s: %d bytes", ErrFileTooLarge, path, info.Size())

			return res, nil
		}
	}

	content, err := p.fs.ReadFile(path)
	if err != nil {
		if p.fs.IsNotExist(err) {
			err = fmt.Errorf("%w: %w", ErrPathNotFound, err)
		}

		p.logger.ErrorContext(ctx, "error reading file", "path", path, "error", err)

		res.Status = StatusReadError
		res.Err = fmt.Errorf("%w: %w", ErrRead, err)

		return res, nil
	}

	res.Source = content

	if textutil.IsBinary(content) {
		p.logger.WarnContext(ctx, "file looks binary, skipping", "path", path)

		res.Status = StatusBinary
		res.Err = fmt.Errorf("%w: %s", ErrBinaryFile, path)

		return res, nil
	}

	tree, err := p.parser.Parse(ctx, path, content)
	if err != nil {
		var syntaxErr *pysyntax.SyntaxError
		if !errors.As(err, &syntaxErr) {
			return res, fmt.Errorf("parse %s: %w", path, err)
		}

		p.logger.ErrorContext(ctx, "syntax error in file",
			"path", path, "line", syntaxErr.Line, "column", syntaxErr.Column)

		res.Status = StatusSyntaxError
		res.Err = err

		return res, nil
	}

	names := references.Collect(tree.Root)
	p.logger.DebugContext(ctx, "collected references",
		"path", path, "lines", textutil.CountLines(content), "names", names.Len())

	res.Unused = p.auditor.Audit(ctx, tree, names)

	res.Status = StatusClean
	if len(res.Unused) > 0 {
		res.Status = StatusUnused
	}

	return res, nil
}

// Rewrite re-reads path and writes it back without the lines covered by
// records. The original permissions are kept.
func (p *Pruner) Rewrite(ctx context.Context, path string, records []imports.Record) (RewriteResult, error) {
	before, err := p.fs.ReadFile(path)
	if err != nil {
		return RewriteResult{}, fmt.Errorf("%w: %w", ErrRead, err)
	}

	after, removed := RemoveLines(before, records)

	perm := defaultPerm
	if info, statErr := p.fs.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}

	if p.opts.AtomicWrite {
		err = p.fs.WriteFileAtomic(path, after, perm)
	} else {
		err = p.fs.WriteFile(path, after, perm)
	}

	if err != nil {
		return RewriteResult{Before: before}, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	p.logger.DebugContext(ctx, "rewrote file",
		"path", path, "atomic", p.opts.AtomicWrite, "lines_removed", removed)

	return RewriteResult{Before: before, After: after, LinesRemoved: removed}, nil
}

// Run detects unused imports in path and, unless in dry-run mode, removes
// them. Write failures are logged and reported as StatusWriteError.
func (p *Pruner) Run(ctx context.Context, path string) (Outcome, error) {
	ctx, span := p.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("file.path", path),
		attribute.Bool("prune.dry_run", p.opts.DryRun),
		attribute.Bool("prune.aggressive", p.auditor.Options().Aggressive),
	))
	defer span.End()

	started := time.Now()

	res, err := p.Detect(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "detect failed")

		return Outcome{Result: res}, err
	}

	out := Outcome{Result: res, After: res.Source}

	switch res.Status {
	case StatusClean:
		p.logger.InfoContext(ctx, "No unused imports found.", "path", path)
	case StatusUnused:
		out = p.apply(ctx, out)
	}

	span.SetAttributes(
		attribute.String("prune.status", string(out.Status)),
		attribute.Int("prune.unused", len(out.Unused)),
		attribute.Int("prune.lines_removed", out.LinesRemoved),
	)

	if out.Err != nil {
		span.RecordError(out.Err)
	}

	p.metrics.RecordFile(ctx, observability.FileOutcome{
		Status:       string(out.Status),
		Unused:       len(out.Unused),
		LinesRemoved: writtenLines(out),
		DryRun:       p.opts.DryRun,
		Duration:     time.Since(started),
	})

	return out, nil
}

func (p *Pruner) apply(ctx context.Context, out Outcome) Outcome {
	if p.opts.DryRun {
		out.After, out.LinesRemoved = RemoveLines(out.Source, out.Unused)

		p.logger.InfoContext(ctx, "Dry run: the following import statements would be removed", "path", out.Path)

		for _, rec := range out.Unused {
			p.logger.InfoContext(ctx, "would remove", "line", rec.Line, "name", rec.Name, "statement", rec.Statement)
		}

		return out
	}

	rewritten, err := p.Rewrite(ctx, out.Path, out.Unused)
	if err != nil {
		p.logger.ErrorContext(ctx, "error writing to file", "path", out.Path, "error", err)

		out.Status = StatusWriteError
		out.Err = err

		return out
	}

	out.Source = rewritten.Before
	out.After = rewritten.After
	out.LinesRemoved = rewritten.LinesRemoved
	out.Written = true

	p.logger.InfoContext(ctx, "Removed unused imports", "path", out.Path, "lines_removed", out.LinesRemoved)

	for _, rec := range out.Unused {
		p.logger.InfoContext(ctx, "removed", "line", rec.Line, "name", rec.Name, "statement", rec.Statement)
	}

	return out
}

func writtenLines(out Outcome) int {
	if !out.Written {
		return 0
	}

	return out.LinesRemoved
}
