package asap3_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nasa-jpl/asap3"
	"github.com/nasa-jpl/asap3/wire"
)

func TestLoadConfigUsesDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := asap3.LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("LoadConfig with missing file returned error: %v", err)
	}
	if cfg.Host != asap3.DefaultHost || cfg.Port != asap3.DefaultPort {
		t.Fatalf("got %+v, want default host/port", cfg)
	}
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asap3.yml")
	content := "Host: 10.1.2.3\nPort: 5555\nScanRate: 250\nParameters:\n  - Name: temp1\n    Type: FLOAT64\n    Min: -10\n    Max: 50\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := asap3.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Host != "10.1.2.3" || cfg.Port != 5555 || cfg.ScanRate != 250 {
		t.Fatalf("got %+v, want overridden values", cfg)
	}
	if len(cfg.Parameters) != 1 || cfg.Parameters[0].Name != "temp1" {
		t.Fatalf("parameters = %+v", cfg.Parameters)
	}

	params := cfg.ToParameters()
	if params[0].Type != wire.Float64 {
		t.Fatalf("parameter Type=%v, want FLOAT64", params[0].Type)
	}
	if params[0].Limits.Min != -10 || params[0].Limits.Max != 50 {
		t.Fatalf("parameter limits = %+v", params[0].Limits)
	}
	if !params[0].Exist {
		t.Fatal("ToParameters must default Exist to true")
	}
}

func TestWriteDefaultProducesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asap3.yml")
	if err := asap3.WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}
	cfg, err := asap3.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig of written default failed: %v", err)
	}
	if cfg.Host != asap3.DefaultHost {
		t.Fatalf("got host %q after round trip, want %q", cfg.Host, asap3.DefaultHost)
	}
}
