// Package runlog wires the diagnostics side channel of a training run: a
// rotated structured log file plus an append-only stream of scalar summary
// events. Progress output on stdout stays with the training loops;
// everything here exists for inspecting a run after the fact.
package runlog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New opens a rotated text log at path and returns a structured logger
// writing to it. Closing the returned closer releases the log file.
func New(path string) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "creating log directory")
	}
	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	handler := slog.NewTextHandler(sink, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(handler), sink, nil
}

// LogCPU records the processor a run executes on. The matrix kernels care
// about vector width, so the AVX generations are spelled out.
func LogCPU(log *slog.Logger) {
	log.Info("cpu",
		"brand", cpuid.CPU.BrandName,
		"physical_cores", cpuid.CPU.PhysicalCores,
		"logical_cores", cpuid.CPU.LogicalCores,
		"avx", cpuid.CPU.Supports(cpuid.AVX),
		"avx2", cpuid.CPU.Supports(cpuid.AVX2),
		"avx512", cpuid.CPU.Supports(cpuid.AVX512F),
	)
}
