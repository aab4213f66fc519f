// Package snapshot 将原始表与规范化表登记到 dvc 并提交版本指针（dvc add → git commit → dvc push）。
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/LJTian/NewsHarvest/internal/logger"
)

// ErrMissingFile 待快照的文件不存在或不完整，快照不会执行任何命令
var ErrMissingFile = errors.New("snapshot: missing file")

// CommandRunner 在 dir 下执行外部命令
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w (stderr=%s)", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

type Snapshotter struct {
	dir     string
	message string
	runner  CommandRunner
}

// New runner 为 nil 时使用 os/exec
func New(dir, message string, runner CommandRunner) *Snapshotter {
	if runner == nil {
		runner = execRunner{}
	}
	if message == "" {
		message = "Update datasets"
	}
	return &Snapshotter{dir: dir, message: message, runner: runner}
}

// Publish 先确认所有文件都在本地，再依次执行 dvc add / git commit / dvc push
func (s *Snapshotter) Publish(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: no files to snapshot", ErrMissingFile)
	}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMissingFile, f, err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%w: %s is not a regular file", ErrMissingFile, f)
		}
	}

	steps := []struct {
		name string
		args []string
	}{
		{"dvc", append([]string{"add"}, files...)},
		{"git", []string{"commit", "-am", s.message}},
		{"dvc", []string{"push"}},
	}
	for _, step := range steps {
		logger.Infof("snapshot: %s %s", step.name, strings.Join(step.args, " "))
		if err := s.runner.Run(ctx, s.dir, step.name, step.args...); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	logger.Infof("snapshot: published %d files", len(files))
	return nil
}
