package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/mxl/types-publisher/pkg/registry"
)

// isolate keeps the test from picking up a types-publisher.yaml in the
// developer's working directory or home directory.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func writeConfig(t *testing.T, lines ...string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "types-publisher.yaml")
	if err := os.WriteFile(configFile, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}
	return configFile
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	s, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.Registry != registry.DefaultRegistryURL {
		t.Errorf("Registry = %q, want default", s.Registry)
	}
	if s.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q, want %q", s.DataDir, DefaultDataDir)
	}
	if s.LogsDir != DefaultLogsDir {
		t.Errorf("LogsDir = %q, want %q", s.LogsDir, DefaultLogsDir)
	}
	if s.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", s.Concurrency, DefaultConcurrency)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)
	configFile := writeConfig(t,
		"registry: https://mirror.example.com/npm/",
		"dataDir: definitions",
		"concurrency: 4",
	)

	s, err := Load(configFile, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.Registry != "https://mirror.example.com/npm/" {
		t.Errorf("Registry = %q", s.Registry)
	}
	if s.DataDir != "definitions" {
		t.Errorf("DataDir = %q", s.DataDir)
	}
	if s.LogsDir != DefaultLogsDir {
		t.Errorf("LogsDir = %q, want default preserved", s.LogsDir)
	}
	if s.Concurrency != 4 {
		t.Errorf("Concurrency = %d", s.Concurrency)
	}
}

func TestLoad_ConfigFileInWorkingDirectory(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("types-publisher.yaml", []byte("dataDir: from-cwd\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.DataDir != "from-cwd" {
		t.Errorf("DataDir = %q, want value from discovered config", s.DataDir)
	}
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	if err == nil {
		t.Error("an explicitly named config file must exist")
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	isolate(t)
	t.Setenv("TYPES_PUBLISHER_DATADIR", "env-data")
	t.Setenv("TYPES_PUBLISHER_CONCURRENCY", "2")

	s, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.DataDir != "env-data" {
		t.Errorf("DataDir = %q, want env value", s.DataDir)
	}
	if s.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want env value", s.Concurrency)
	}
}

func TestLoad_FlagsWinOverEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("TYPES_PUBLISHER_LOGSDIR", "env-logs")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("registry", registry.DefaultRegistryURL, "")
	flags.String("data", DefaultDataDir, "")
	flags.String("logs", DefaultLogsDir, "")
	flags.Int("concurrency", DefaultConcurrency, "")
	if err := flags.Parse([]string{"--logs", "flag-logs", "--concurrency", "3"}); err != nil {
		t.Fatal(err)
	}

	s, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.LogsDir != "flag-logs" {
		t.Errorf("LogsDir = %q, want flag value", s.LogsDir)
	}
	if s.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want flag value", s.Concurrency)
	}
	if s.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q, want default for unchanged flag", s.DataDir)
	}
}

func TestLoad_RegistryTrailingSlash(t *testing.T) {
	isolate(t)
	t.Setenv("TYPES_PUBLISHER_REGISTRY", "https://registry.example.com")

	s, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Registry != "https://registry.example.com/" {
		t.Errorf("Registry = %q, want trailing slash appended", s.Registry)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		config []string
	}{
		{"zero concurrency", []string{"concurrency: 0"}},
		{"negative concurrency", []string{"concurrency: -1"}},
		{"relative registry URL", []string{"registry: registry.example.com"}},
		{"empty dataDir", []string{`dataDir: ""`}},
		{"empty logsDir", []string{`logsDir: ""`}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			isolate(t)
			configFile := writeConfig(t, test.config...)
			if _, err := Load(configFile, nil); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
