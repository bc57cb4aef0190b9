package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"serial-codegen/internal/domain"
	"serial-codegen/internal/domain/model"
)

func TestRun_LogsFailuresAsFatalEvents(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unreadable config", []string{"-config", filepath.Join(t.TempDir(), "absent.yaml"), "-code", "ABCDEF"}, "load config"},
		{"no database", []string{"-config", "", "-code", "ABCDEF"}, "database not configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(context.Background(), tt.args, &stdout, &stderr); got != exitFailure {
				t.Fatalf("expected exit %d, got %d", exitFailure, got)
			}
			out := stderr.String()
			if !strings.Contains(out, `"level":"fatal"`) || !strings.Contains(out, tt.want) {
				t.Errorf("expected a fatal %q event, got %s", tt.want, out)
			}
		})
	}
}

func TestRun_RejectsBadInputBeforeDialing(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing code", []string{"-config", ""}, exitRejected},
		{"malformed code", []string{"-config", "", "-code", "AB-12"}, exitRejected},
		{"no database", []string{"-config", "", "-code", "ABCDEF"}, exitFailure},
		{"bad flag", []string{"-bogus"}, exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(context.Background(), tt.args, &stdout, &stderr); got != tt.want {
				t.Fatalf("expected exit %d, got %d (stderr: %s)", tt.want, got, stderr.String())
			}
			if stdout.Len() != 0 {
				t.Errorf("unexpected stdout %q", stdout.String())
			}
		})
	}
}

func TestReport(t *testing.T) {
	used := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		sn         *model.SerialNumber
		err        error
		want       int
		wantStdout string
		wantStderr string
	}{
		{"ok", &model.SerialNumber{SerialNumber: "ABCDEF", UsedAt: &used}, nil, exitOK, "redeemed ABCDEF at 2026-10-19 10:00:00\n", ""},
		{"not found", nil, domain.ErrCodeNotFound, exitRejected, "", "invalid"},
		{"already used", nil, domain.ErrCodeAlreadyUsed, exitRejected, "", "already been used"},
		{"db failure", nil, errors.New("conn reset"), exitFailure, "", "conn reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := report(&stdout, &stderr, tt.sn, tt.err); got != tt.want {
				t.Fatalf("expected exit %d, got %d", tt.want, got)
			}
			if stdout.String() != tt.wantStdout {
				t.Errorf("stdout: expected %q, got %q", tt.wantStdout, stdout.String())
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr: expected to contain %q, got %q", tt.wantStderr, stderr.String())
			}
		})
	}
}
