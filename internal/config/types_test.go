package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lvmpool.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", noEnv)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Exec.Timeout != 60*time.Second {
		t.Errorf("Expected exec timeout 60s, got %s", cfg.Exec.Timeout)
	}
	if cfg.Pools.ListConcurrency != 1 {
		t.Errorf("Expected list concurrency 1, got %d", cfg.Pools.ListConcurrency)
	}
	if cfg.LVM.DevDir != "/dev" {
		t.Errorf("Expected dev dir /dev, got %q", cfg.LVM.DevDir)
	}
	if cfg.LVM.Binary != "" {
		t.Errorf("Expected no lvm binary, got %q", cfg.LVM.Binary)
	}
	if cfg.Volumes.AllowUnsupported {
		t.Error("Expected allow_unsupported to default to false")
	}
	if cfg.Libvirt.Enabled {
		t.Error("Expected libvirt to be disabled by default")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected log level info, got %q", cfg.Log.Level)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeConfig(t, `lvm:
  binary: lvm
  dev_dir: /dev/
exec:
  timeout: 30s
pools:
  list_concurrency: 4
volumes:
  allow_unsupported: true
log:
  level: DEBUG
  json: true
server:
  listen: 0.0.0.0:9000
libvirt:
  enabled: true
  timeout: 2s
`)

	cfg, err := load(path, noEnv)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.LVM.Binary != "lvm" {
		t.Errorf("Expected binary lvm, got %q", cfg.LVM.Binary)
	}
	if cfg.LVM.DevDir != "/dev" {
		t.Errorf("Expected trailing slash trimmed, got %q", cfg.LVM.DevDir)
	}
	if cfg.Exec.Timeout != 30*time.Second {
		t.Errorf("Expected timeout 30s, got %s", cfg.Exec.Timeout)
	}
	if cfg.Pools.ListConcurrency != 4 {
		t.Errorf("Expected list concurrency 4, got %d", cfg.Pools.ListConcurrency)
	}
	if !cfg.Volumes.AllowUnsupported {
		t.Error("Expected allow_unsupported true")
	}
	if cfg.Log.Level != "debug" || !cfg.Log.JSON {
		t.Errorf("Expected debug JSON logging, got %+v", cfg.Log)
	}
	if cfg.Server.Listen != "0.0.0.0:9000" {
		t.Errorf("Expected listen 0.0.0.0:9000, got %q", cfg.Server.Listen)
	}
	if !cfg.Libvirt.Enabled || cfg.Libvirt.Timeout != 2*time.Second {
		t.Errorf("Unexpected libvirt config %+v", cfg.Libvirt)
	}
	if cfg.Libvirt.Socket != DefaultLibvirtSocket {
		t.Errorf("Expected default libvirt socket, got %q", cfg.Libvirt.Socket)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `exec:
  timeout: 30s
log:
  level: warn
`)

	cfg, err := load(path, envMap(map[string]string{
		"LVMPOOL_EXEC_TIMEOUT":           "5s",
		"LVMPOOL_LOG_LEVEL":              "error",
		"LVMPOOL_POOLS_LIST_CONCURRENCY": "2",
		"LVMPOOL_LIBVIRT_ENABLED":        "true",
		"LVMPOOL_LVM_BINARY":             "/usr/sbin/lvm",
	}))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Exec.Timeout != 5*time.Second {
		t.Errorf("Expected env timeout 5s, got %s", cfg.Exec.Timeout)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Expected env log level error, got %q", cfg.Log.Level)
	}
	if cfg.Pools.ListConcurrency != 2 {
		t.Errorf("Expected env list concurrency 2, got %d", cfg.Pools.ListConcurrency)
	}
	if !cfg.Libvirt.Enabled {
		t.Error("Expected env to enable libvirt")
	}
	if cfg.LVM.Binary != "/usr/sbin/lvm" {
		t.Errorf("Expected env binary, got %q", cfg.LVM.Binary)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown key",
			yaml:    "lvm:\n  bianry: lvm\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "zero timeout",
			yaml:    "exec:\n  timeout: 0s\n",
			wantErr: "exec.timeout",
		},
		{
			name:    "bad concurrency",
			yaml:    "pools:\n  list_concurrency: 0\n",
			wantErr: "pools.list_concurrency",
		},
		{
			name:    "bad log level",
			yaml:    "log:\n  level: verbose\n",
			wantErr: "log.level",
		},
		{
			name:    "relative dev dir",
			yaml:    "lvm:\n  dev_dir: dev\n",
			wantErr: "lvm.dev_dir",
		},
		{
			name:    "binary with arguments",
			yaml:    "lvm:\n  binary: lvm --debug\n",
			wantErr: "lvm.binary",
		},
		{
			name:    "bad listen",
			yaml:    "server:\n  listen: localhost\n",
			wantErr: "server.listen",
		},
		{
			name:    "bad env bool",
			env:     map[string]string{"LVMPOOL_LOG_JSON": "maybe"},
			wantErr: "LVMPOOL_LOG_JSON",
		},
		{
			name:    "bad env duration",
			env:     map[string]string{"LVMPOOL_EXEC_TIMEOUT": "60"},
			wantErr: "LVMPOOL_EXEC_TIMEOUT",
		},
		{
			name:    "bad env int",
			env:     map[string]string{"LVMPOOL_POOLS_LIST_CONCURRENCY": "many"},
			wantErr: "LVMPOOL_POOLS_LIST_CONCURRENCY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.yaml != "" {
				path = writeConfig(t, tt.yaml)
			}
			_, err := load(path, envMap(tt.env))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.yaml"), noEnv)
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected read error, got %v", err)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := load(writeConfig(t, ""), noEnv)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Exec.Timeout != DefaultExecTimeout {
		t.Errorf("Expected default timeout for empty file, got %s", cfg.Exec.Timeout)
	}
}

func TestValidate_LibvirtOnlyCheckedWhenEnabled(t *testing.T) {
	cfg := Default()
	cfg.Libvirt.Socket = ""
	cfg.Libvirt.Timeout = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected disabled libvirt to skip validation, got %v", err)
	}

	cfg.Libvirt.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for enabled libvirt without socket")
	}
}
