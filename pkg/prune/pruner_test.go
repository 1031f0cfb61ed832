package prune_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/Sumatoshi-tech/pyprune/pkg/analyzers/imports"
	"github.com/Sumatoshi-tech/pyprune/pkg/fs"
	"github.com/Sumatoshi-tech/pyprune/pkg/observability"
	"github.com/Sumatoshi-tech/pyprune/pkg/prune"
	"github.com/Sumatoshi-tech/pyprune/pkg/pysyntax"
)

var errDisk = errors.New("disk on fire")

func newPruner(fsys fs.FS, logs *bytes.Buffer, opts prune.Options) *prune.Pruner {
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return prune.NewPruner(prune.NewPrunerParams{
		FS:      fsys,
		Logger:  logger,
		Auditor: imports.NewAuditor(imports.DefaultOptions(), logger),
		Options: opts,
	})
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func readSource(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestRun_Scenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		src        string
		wantStatus prune.Status
		wantLines  []int
		wantAfter  string
	}{
		{
			name:       "unused plain import",
			src:        "import os\nprint(\"hi\")\n",
			wantStatus: prune.StatusUnused,
			wantLines:  []int{1},
			wantAfter:  "print(\"hi\")\n",
		},
		{
			name:       "used through attribute chain",
			src:        "import os\nprint(os.getcwd())\n",
			wantStatus: prune.StatusClean,
			wantAfter:  "import os\nprint(os.getcwd())\n",
		},
		{
			name:       "unused alias",
			src:        "import numpy as np\nx = 1\n",
			wantStatus: prune.StatusUnused,
			wantLines:  []int{1},
			wantAfter:  "x = 1\n",
		},
		{
			name:       "no imports",
			src:        "x = 1\n",
			wantStatus: prune.StatusClean,
			wantAfter:  "x = 1\n",
		},
		{
			name:       "shared line reported per name",
			src:        "import os, sys\nx = 1\n",
			wantStatus: prune.StatusUnused,
			wantLines:  []int{1, 1},
			wantAfter:  "x = 1\n",
		},
		{
			name:       "multi-line import removed whole",
			src:        "from json import (\n    dumps,\n    loads,\n)\nx = 1\n",
			wantStatus: prune.StatusUnused,
			wantLines:  []int{1, 1},
			wantAfter:  "x = 1\n",
		},
		{
			name:       "crlf endings kept",
			src:        "import os\r\nimport sys\r\nsys.exit(0)\r\n",
			wantStatus: prune.StatusUnused,
			wantLines:  []int{1},
			wantAfter:  "import sys\r\nsys.exit(0)\r\n",
		},
		{
			name:       "missing final newline kept",
			src:        "x = 1\nimport os",
			wantStatus: prune.StatusUnused,
			wantLines:  []int{2},
			wantAfter:  "x = 1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeSource(t, "mod.py", tt.src)

			var logs bytes.Buffer

			out, err := newPruner(fs.NewFS(), &logs, prune.Options{AtomicWrite: true}).Run(context.Background(), path)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, tt.wantAfter, readSource(t, path))
			assert.Equal(t, tt.wantAfter, string(out.After))

			lines := make([]int, 0, len(out.Unused))
			for _, rec := range out.Unused {
				lines = append(lines, rec.Line)
			}

			if tt.wantLines == nil {
				assert.Empty(t, lines)
				assert.False(t, out.Written)
				assert.Contains(t, logs.String(), "No unused imports found.")
			} else {
				assert.Equal(t, tt.wantLines, lines)
				assert.True(t, out.Written)
				assert.Contains(t, logs.String(), "Removed unused imports")
			}
		})
	}
}

func TestRun_DryRunLeavesFileUntouched(t *testing.T) {
	t.Parallel()

	src := "import os\nimport sys\r\nfrom a import (\n  b,\n)\nx = 1"
	path := writeSource(t, "mod.py", src)

	var logs bytes.Buffer

	out, err := newPruner(fs.NewFS(), &logs, prune.Options{DryRun: true, AtomicWrite: true}).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, prune.StatusUnused, out.Status)
	assert.False(t, out.Written)
	assert.Equal(t, src, readSource(t, path))

	assert.Equal(t, "x = 1", string(out.After))
	assert.Equal(t, 5, out.LinesRemoved)

	assert.Contains(t, logs.String(), "Dry run")
	assert.Contains(t, logs.String(), `msg="would remove" line=1 name=os statement="import os"`)
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	path := writeSource(t, "mod.py", "import os\nimport re\nfrom typing import List\n\ndef f(a: List):\n    return re.compile(a)\n")

	var logs bytes.Buffer

	p := newPruner(fs.NewFS(), &logs, prune.Options{AtomicWrite: true})

	first, err := p.Run(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, prune.StatusUnused, first.Status)

	once := readSource(t, path)

	second, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, prune.StatusClean, second.Status)
	assert.Equal(t, once, readSource(t, path))
}

func TestRun_SyntaxErrorLeavesFileUntouched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{name: "grammar error", src: "import os\ndef broken(:\n    pass\n"},
		{name: "python 2 print", src: "import os\nprint \"hi\"\n"},
		{name: "python 2 exec", src: "import os\nexec \"x = 1\"\n"},
		{name: "unexpected indent", src: "import os\n  x = 1\n"},
		{name: "missing indented block", src: "import os\nif x:\npass\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeSource(t, "bad.py", tt.src)

			var logs bytes.Buffer

			out, err := newPruner(fs.NewFS(), &logs, prune.Options{AtomicWrite: true}).Run(context.Background(), path)
			require.NoError(t, err)

			assert.Equal(t, prune.StatusSyntaxError, out.Status)
			require.ErrorIs(t, out.Err, pysyntax.ErrSyntax)
			assert.Empty(t, out.Unused)
			assert.False(t, out.Written)
			assert.Equal(t, tt.src, readSource(t, path))
			assert.Contains(t, logs.String(), "syntax error in file")
			assert.NotContains(t, logs.String(), "No unused imports found.")
		})
	}
}

func TestRun_NonAtomicKeepsPermissions(t *testing.T) {
	t.Parallel()

	path := writeSource(t, "mod.py", "import os\nx = 1\n")
	require.NoError(t, os.Chmod(path, 0o640))

	var logs bytes.Buffer

	out, err := newPruner(fs.NewFS(), &logs, prune.Options{}).Run(context.Background(), path)
	require.NoError(t, err)
	require.True(t, out.Written)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	assert.Equal(t, "x = 1\n", readSource(t, path))
}

func TestDetect_TooLarge(t *testing.T) {
	t.Parallel()

	path := writeSource(t, "big.py", "import os\nx = 1\n")

	var logs bytes.Buffer

	res, err := newPruner(fs.NewFS(), &logs, prune.Options{MaxFileSize: 4}).Detect(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, prune.StatusTooLarge, res.Status)
	require.ErrorIs(t, res.Err, prune.ErrFileTooLarge)
	assert.Empty(t, res.Unused)
	assert.Contains(t, logs.String(), "size limit")
}

func TestDetect_Binary(t *testing.T) {
	t.Parallel()

	path := writeSource(t, "blob.py", "import os\x00\x01\x02")

	var logs bytes.Buffer

	res, err := newPruner(fs.NewFS(), &logs, prune.Options{}).Detect(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, prune.StatusBinary, res.Status)
	require.ErrorIs(t, res.Err, prune.ErrBinaryFile)
	assert.Empty(t, res.Unused)
}

func TestCheckPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.py")

	var logs bytes.Buffer

	p := newPruner(fs.NewFS(), &logs, prune.Options{})

	err := p.CheckPath(context.Background(), missing)
	require.ErrorIs(t, err, prune.ErrPathNotFound)
	assert.NoFileExists(t, missing)
	assert.Contains(t, logs.String(), "file does not exist")

	ok := writeSource(t, "ok.py", "x = 1\n")
	require.NoError(t, p.CheckPath(context.Background(), ok))
	assert.NotContains(t, logs.String(), "extension")
}

func TestCheckPath_ExtensionWarning(t *testing.T) {
	t.Parallel()

	path := writeSource(t, "script", "#!/usr/bin/env python\nimport os\n")

	var logs bytes.Buffer

	require.NoError(t, newPruner(fs.NewFS(), &logs, prune.Options{}).CheckPath(context.Background(), path))

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "proceeding anyway")
	assert.Contains(t, logs.String(), "detected_language=Python")
}

func TestRun_ReadErrorDegrades(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockFS := fs.NewMockFS(ctrl)

	mockFS.EXPECT().ReadFile("mod.py").Return(nil, errDisk)
	mockFS.EXPECT().IsNotExist(errDisk).Return(false)

	var logs bytes.Buffer

	out, err := newPruner(mockFS, &logs, prune.Options{}).Run(context.Background(), "mod.py")
	require.NoError(t, err)

	assert.Equal(t, prune.StatusReadError, out.Status)
	require.ErrorIs(t, out.Err, prune.ErrRead)
	require.ErrorIs(t, out.Err, errDisk)
	assert.NotErrorIs(t, out.Err, prune.ErrPathNotFound)
	assert.Empty(t, out.Unused)
	assert.Contains(t, logs.String(), "error reading file")
}

func TestDetect_FileRemovedBeforeRead(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockFS := fs.NewMockFS(ctrl)

	mockFS.EXPECT().ReadFile("gone.py").Return(nil, os.ErrNotExist)
	mockFS.EXPECT().IsNotExist(os.ErrNotExist).Return(true)

	res, err := newPruner(mockFS, &bytes.Buffer{}, prune.Options{}).Detect(context.Background(), "gone.py")
	require.NoError(t, err)

	assert.Equal(t, prune.StatusReadError, res.Status)
	require.ErrorIs(t, res.Err, prune.ErrRead)
	require.ErrorIs(t, res.Err, prune.ErrPathNotFound)
}

func TestRun_WriteErrorIsReported(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockFS := fs.NewMockFS(ctrl)

	src := []byte("import os\nx = 1\n")

	mockFS.EXPECT().ReadFile("mod.py").Return(src, nil).Times(2)
	mockFS.EXPECT().Stat("mod.py").Return(nil, errDisk)
	mockFS.EXPECT().WriteFileAtomic("mod.py", []byte("x = 1\n"), os.FileMode(0o644)).Return(errDisk)

	var logs bytes.Buffer

	out, err := newPruner(mockFS, &logs, prune.Options{AtomicWrite: true}).Run(context.Background(), "mod.py")
	require.NoError(t, err)

	assert.Equal(t, prune.StatusWriteError, out.Status)
	require.ErrorIs(t, out.Err, prune.ErrWrite)
	assert.False(t, out.Written)
	assert.Len(t, out.Unused, 1)
	assert.Contains(t, logs.String(), "error writing to file")
}

func TestRun_DryRunNeverWrites(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockFS := fs.NewMockFS(ctrl)

	mockFS.EXPECT().ReadFile("mod.py").Return([]byte("import os\n"), nil)

	var logs bytes.Buffer

	out, err := newPruner(mockFS, &logs, prune.Options{DryRun: true}).Run(context.Background(), "mod.py")
	require.NoError(t, err)

	assert.Equal(t, prune.StatusUnused, out.Status)
	assert.Empty(t, out.After)
}

func TestCheckPath_ExistsFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockFS := fs.NewMockFS(ctrl)

	mockFS.EXPECT().Exists("mod.py").Return(false, errDisk)

	var logs bytes.Buffer

	err := newPruner(mockFS, &logs, prune.Options{}).CheckPath(context.Background(), "mod.py")
	require.ErrorIs(t, err, errDisk)
	assert.NotErrorIs(t, err, prune.ErrPathNotFound)
}

func TestRun_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := observability.NewPruneMetrics(mp.Meter("test"))
	require.NoError(t, err)

	path := writeSource(t, "mod.py", "import os\nimport sys\nx = 1\n")

	p := prune.NewPruner(prune.NewPrunerParams{
		FS:      fs.NewFS(),
		Metrics: metrics,
		Options: prune.Options{AtomicWrite: true},
	})

	_, err = p.Run(context.Background(), path)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := map[string]int64{}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}

	assert.Equal(t, int64(1), totals["pyprune.files.total"])
	assert.Equal(t, int64(2), totals["pyprune.imports.unused.total"])
	assert.Equal(t, int64(2), totals["pyprune.lines.removed.total"])
}

func TestRun_RecordsSpan(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	path := writeSource(t, "mod.py", "import os\n")

	p := prune.NewPruner(prune.NewPrunerParams{
		FS:      fs.NewFS(),
		Auditor: imports.NewAuditor(imports.Options{Aggressive: true}, nil),
		Tracer:  tp.Tracer("test"),
		Options: prune.Options{DryRun: true},
	})

	_, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "prune.file", spans[0].Name())

	attrs := spans[0].Attributes()
	assert.Contains(t, attrs, attribute.String("prune.status", "unused"))
	assert.Contains(t, attrs, attribute.Int("prune.unused", 1))
	assert.Contains(t, attrs, attribute.Bool("prune.dry_run", true))
	assert.Contains(t, attrs, attribute.Bool("prune.aggressive", true))
}
