// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stockroom/stockroom/internal/config"
	"github.com/stockroom/stockroom/internal/doctor"
	"github.com/stockroom/stockroom/internal/provision"
)

type (
	// stubConfigProvider returns a canned config or error, recording the
	// options it was called with.
	stubConfigProvider struct {
		cfg      *config.Config
		err      error
		lastOpts config.LoadOptions
	}

	// stubProvisionService records the request and returns canned values.
	stubProvisionService struct {
		req    ProvisionRequest
		result *provision.Result
		diags  []Diagnostic
		err    error
	}

	// stubLaunchService records the request and returns canned values.
	stubLaunchService struct {
		req    LaunchRequest
		result LaunchResult
		diags  []Diagnostic
		err    error
	}

	// stubDoctorService records the request and returns canned values.
	stubDoctorService struct {
		req    DoctorRequest
		report *doctor.Report
		diags  []Diagnostic
		err    error
	}
)

func (s *stubConfigProvider) Load(_ context.Context, opts config.LoadOptions) (*config.Config, error) {
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	if s.cfg != nil {
		return s.cfg, nil
	}
	return config.DefaultConfig(), nil
}

func (s *stubProvisionService) Provision(_ context.Context, req ProvisionRequest) (*provision.Result, []Diagnostic, error) {
	s.req = req
	return s.result, s.diags, s.err
}

func (s *stubLaunchService) Launch(_ context.Context, req LaunchRequest) (LaunchResult, []Diagnostic, error) {
	s.req = req
	return s.result, s.diags, s.err
}

func (s *stubDoctorService) Diagnose(_ context.Context, req DoctorRequest) (*doctor.Report, []Diagnostic, error) {
	s.req = req
	if s.report == nil {
		s.report = &doctor.Report{}
	}
	return s.report, s.diags, s.err
}

func TestNewApp_Defaults(t *testing.T) {
	t.Parallel()

	app, err := NewApp(Dependencies{})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}

	if app.Config == nil {
		t.Error("Config should default to the production provider")
	}
	if app.Provisioner == nil {
		t.Error("Provisioner should default to the production service")
	}
	if app.Launcher == nil {
		t.Error("Launcher should default to the production service")
	}
	if app.Doctor == nil {
		t.Error("Doctor should default to the production service")
	}
	if app.Diagnostics == nil {
		t.Error("Diagnostics should default to the production renderer")
	}
	if app.stdout == nil || app.stderr == nil {
		t.Error("stdout/stderr should default to the process streams")
	}
}

func TestNewApp_InjectedDependencies(t *testing.T) {
	t.Parallel()

	provider := &stubConfigProvider{}
	provisioner := &stubProvisionService{}
	launcher := &stubLaunchService{}
	doc := &stubDoctorService{}
	var stdout, stderr bytes.Buffer

	app, err := NewApp(Dependencies{
		Config:      provider,
		Provisioner: provisioner,
		Launcher:    launcher,
		Doctor:      doc,
		Stdout:      &stdout,
		Stderr:      &stderr,
	})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}

	if app.Config != ConfigProvider(provider) {
		t.Error("injected ConfigProvider was replaced")
	}
	if app.Provisioner != ProvisionService(provisioner) {
		t.Error("injected ProvisionService was replaced")
	}
	if app.Launcher != LaunchService(launcher) {
		t.Error("injected LaunchService was replaced")
	}
	if app.Doctor != DoctorService(doc) {
		t.Error("injected DoctorService was replaced")
	}
	if app.stdout != io.Writer(&stdout) || app.stderr != io.Writer(&stderr) {
		t.Error("injected writers were replaced")
	}
}

func TestLoadConfigWithFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		provider     *stubConfigProvider
		configPath   string
		wantDiags    int
		wantSeverity Severity
		wantPath     string
	}{
		{
			name:      "successful load returns no diagnostics",
			provider:  &stubConfigProvider{},
			wantDiags: 0,
		},
		{
			name:         "explicit path failure is an error",
			provider:     &stubConfigProvider{err: errors.New("parse failed")},
			configPath:   "/etc/stockroom/config.cue",
			wantDiags:    1,
			wantSeverity: SeverityError,
			wantPath:     "/etc/stockroom/config.cue",
		},
		{
			name:         "missing default config dir is a warning",
			provider:     &stubConfigProvider{err: os.ErrNotExist},
			wantDiags:    1,
			wantSeverity: SeverityWarning,
		},
		{
			name:         "malformed default config is an error",
			provider:     &stubConfigProvider{err: errors.New("cue: invalid value")},
			wantDiags:    1,
			wantSeverity: SeverityError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, diags := loadConfigWithFallback(context.Background(), tt.provider, tt.configPath)

			if cfg == nil {
				t.Fatal("config should never be nil, even on failure")
			}
			if len(diags) != tt.wantDiags {
				t.Fatalf("got %d diagnostics, want %d: %v", len(diags), tt.wantDiags, diags)
			}
			if tt.wantDiags == 0 {
				return
			}
			if diags[0].Severity != tt.wantSeverity {
				t.Errorf("severity = %d, want %d", diags[0].Severity, tt.wantSeverity)
			}
			if diags[0].Path != tt.wantPath {
				t.Errorf("path = %q, want %q", diags[0].Path, tt.wantPath)
			}
			if diags[0].Cause == nil {
				t.Error("failure diagnostics should carry the cause")
			}
		})
	}
}

func TestLoadConfigWithFallback_PassesExplicitPath(t *testing.T) {
	t.Parallel()

	provider := &stubConfigProvider{}
	loadConfigWithFallback(context.Background(), provider, "/tmp/custom.cue")

	if got := string(provider.lastOpts.ConfigFilePath); got != "/tmp/custom.cue" {
		t.Errorf("provider received path %q, want %q", got, "/tmp/custom.cue")
	}
}

func TestDefaultDiagnosticRenderer_Render(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		diags []Diagnostic
		want  []string
	}{
		{
			name:  "no diagnostics produce no output",
			diags: nil,
			want:  nil,
		},
		{
			name: "warning without path",
			diags: []Diagnostic{
				{Severity: SeverityWarning, Message: "config missing, using defaults"},
			},
			want: []string{"warning", "config missing, using defaults"},
		},
		{
			name: "error with path",
			diags: []Diagnostic{
				{Severity: SeverityError, Message: "cannot parse config", Path: "/home/x/config.cue"},
			},
			want: []string{"error", "cannot parse config", "(/home/x/config.cue)"},
		},
		{
			name: "multiple diagnostics render in order",
			diags: []Diagnostic{
				{Severity: SeverityWarning, Message: "first"},
				{Severity: SeverityError, Message: "second"},
			},
			want: []string{"first", "second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			renderer := &defaultDiagnosticRenderer{}
			renderer.Render(context.Background(), tt.diags, &buf)

			out := buf.String()
			if len(tt.want) == 0 && out != "" {
				t.Fatalf("expected no output, got %q", out)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output %q should contain %q", out, want)
				}
			}

			if len(tt.diags) > 0 && strings.Count(out, "\n") != len(tt.diags) {
				t.Errorf("expected one line per diagnostic, got %q", out)
			}
		})
	}
}
