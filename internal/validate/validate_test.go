// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
package validate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name           string
		value          string
		allowedSchemes []string
		wantErr        bool
	}{
		{"valid https", "https://consultaprocesos.ramajudicial.gov.co:448/api/v2", []string{"http", "https"}, false},
		{"valid http", "http://127.0.0.1:8080", []string{"http", "https"}, false},
		{"empty url", "", []string{"http"}, true},
		{"no host", "http://", []string{"http"}, true},
		{"invalid scheme", "ftp://example.com", []string{"http", "https"}, true},
		{"no scheme", "example.com", []string{"http"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("api.baseUrl", tt.value, tt.allowedSchemes)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_ListenAddr(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{":8080", false},
		{"127.0.0.1:9000", false},
		{"8080", true},
		{":0", true},
		{":70000", true},
		{":http", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v := New()
			v.ListenAddr("serve.listen", tt.value)
			if tt.wantErr == v.IsValid() {
				t.Errorf("ListenAddr(%q) valid=%v, wantErr=%v", tt.value, v.IsValid(), tt.wantErr)
			}
		})
	}
}

func TestValidator_RangeAndDurations(t *testing.T) {
	v := New()
	v.Range("radicado.minLength", 15, 1, 30)
	v.FloatRange("telemetry.samplingRate", 0.5, 0, 1)
	v.MinDuration("api.timeout", 30*time.Second, time.Second)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}

	v.Range("radicado.minLength", 0, 1, 30)
	v.FloatRange("telemetry.samplingRate", 1.5, 0, 1)
	v.MinDuration("api.timeout", 0, time.Second)
	if got := len(v.Errors()); got != 3 {
		t.Fatalf("expected 3 errors, got %d", got)
	}
}

func TestValidator_Directory(t *testing.T) {
	root := t.TempDir()

	v := New()
	created := filepath.Join(root, "output")
	v.Directory("output.dir", created, false)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	if info, err := os.Stat(created); err != nil || !info.IsDir() {
		t.Fatalf("expected directory to be created: %v", err)
	}

	v = New()
	v.Directory("backup.dir", filepath.Join(root, "missing"), true)
	if v.IsValid() {
		t.Fatal("expected error for missing directory")
	}

	file := filepath.Join(root, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	v = New()
	v.Directory("output.dir", file, false)
	if v.IsValid() {
		t.Fatal("expected error for file path")
	}
}

func TestValidator_File(t *testing.T) {
	root := t.TempDir()
	xlsx := filepath.Join(root, "PROCESOS.xlsx")
	if err := os.WriteFile(xlsx, []byte("PK"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"existing workbook", xlsx, false},
		{"missing", filepath.Join(root, "nope.xlsx"), true},
		{"directory", root, true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.File("input.path", tt.path, []string{".xlsx", ".xlsm"})
			if tt.wantErr == v.IsValid() {
				t.Errorf("File(%q) valid=%v, wantErr=%v", tt.path, v.IsValid(), tt.wantErr)
			}
		})
	}

	csv := filepath.Join(root, "procesos.csv")
	if err := os.WriteFile(csv, []byte("rad"), 0o600); err != nil {
		t.Fatal(err)
	}
	v := New()
	v.File("input.path", csv, []string{".xlsx"})
	if v.IsValid() {
		t.Fatal("expected extension error")
	}
}

func TestValidator_EachOneOf(t *testing.T) {
	allowed := []string{"txt", "csv", "json", "xlsx"}

	v := New()
	v.EachOneOf("output.formats", []string{"txt", "json"}, allowed)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}

	v.EachOneOf("output.formats", []string{"pdf"}, allowed)
	v.EachOneOf("output.formats", nil, allowed)
	if got := len(v.Errors()); got != 2 {
		t.Fatalf("expected 2 errors, got %d", got)
	}
}

func TestValidationError_Aggregates(t *testing.T) {
	v := New()
	v.NotEmpty("input.sheet", " ")
	v.Positive("workers", 0)
	v.NonNegative("rateLimit.burst", -1)

	err := v.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(verr.Errors()))
	}
	if !strings.Contains(err.Error(), "workers") || strings.Count(err.Error(), ";") != 2 {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{
		"DEBUG":   LogLevelDebug,
		"info":    LogLevelInfo,
		"WARNING": LogLevelWarn,
		"error":   LogLevelError,
	} {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseLogLevel("verbose"); !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("expected ErrInvalidLogLevel, got %v", err)
	}
}
