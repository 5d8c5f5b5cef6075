//go:build !windows

package pocketutils

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

type flushCommand []string

func (c flushCommand) String() string { return strings.Join(c, " ") }

var (
	// darwinFlush runs every step; mDNSResponder holds the cache that matters.
	darwinFlush = []flushCommand{
		{"dscacheutil", "-flushcache"},
		{"killall", "-HUP", "mDNSResponder"},
	}
	// linuxFlush stops at the first resolver that accepts the flush.
	linuxFlush = []flushCommand{
		{"resolvectl", "flush-caches"},
		{"systemd-resolve", "--flush-caches"},
		{"nscd", "-i", "hosts"},
	}
)

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// FlushDNS purges the resolver cache on macOS and Linux so lookups made right after
// joining a network do not reuse answers from the previous one.
func FlushDNS(ctx context.Context) error {
	return flushDNS(ctx, runtime.GOOS, runCommand)
}

func flushDNS(ctx context.Context, goos string, run commandRunner) error {
	switch goos {
	case "darwin":
		return flushAll(ctx, run, darwinFlush)
	case "linux":
		return flushFirst(ctx, run, linuxFlush)
	default:
		return nil
	}
}

func flushAll(ctx context.Context, run commandRunner, cmds []flushCommand) error {
	var failed []string
	for _, c := range cmds {
		if err := runFlush(ctx, run, c); err != nil {
			failed = append(failed, err.Error())
		}
	}
	return flushError(failed)
}

func flushFirst(ctx context.Context, run commandRunner, cmds []flushCommand) error {
	var failed []string
	for _, c := range cmds {
		err := runFlush(ctx, run, c)
		if err == nil {
			return nil
		}
		failed = append(failed, err.Error())
		if ctx.Err() != nil {
			break
		}
	}
	return flushError(failed)
}

func runFlush(ctx context.Context, run commandRunner, c flushCommand) error {
	out, err := run(ctx, c[0], c[1:]...)
	if err == nil {
		return nil
	}
	if out = bytes.TrimSpace(out); len(out) > 0 {
		return errors.Errorf("%s: %v: %s", c, err, out)
	}
	return errors.Errorf("%s: %v", c, err)
}

func flushError(failed []string) error {
	if len(failed) == 0 {
		return nil
	}
	return errors.Errorf("flush dns cache: %s", strings.Join(failed, "; "))
}
