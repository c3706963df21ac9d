package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"

	"geo3hgc/internal/testutil"
)

func TestLoadConfigDefault(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")
	if AppConfig.HGC.BaseRes != 8 {
		t.Fatalf("unexpected base res: %d", AppConfig.HGC.BaseRes)
	}
	if AppConfig.OnInvalid != "throw" {
		t.Fatalf("unexpected on_invalid: %s", AppConfig.OnInvalid)
	}
}

func TestLoadConfigOverride(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("highvolume")
	if AppConfig.HGC.Volume != 100000 {
		t.Fatalf("expected volume 100000, got %d", AppConfig.HGC.Volume)
	}
	if AppConfig.HGC.MaxLeavesPerBatch != 2048 {
		t.Fatalf("expected overridden max leaves, got %d", AppConfig.HGC.MaxLeavesPerBatch)
	}
	if AppConfig.Simulator.NumNodes != 500 {
		t.Fatalf("expected overridden num nodes, got %d", AppConfig.Simulator.NumNodes)
	}
}

func TestLoadConfigSandbox(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	if err := os.Mkdir(sb.Path("config"), 0700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	data := []byte("hgc:\n  base_res: 6\n  volume: 7\non_invalid: mark\n")
	if err := sb.WriteFile("config/default.yaml", data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")

	if AppConfig.HGC.BaseRes != 6 {
		t.Fatalf("expected base res 6, got %d", AppConfig.HGC.BaseRes)
	}
	if AppConfig.OnInvalid != "mark" {
		t.Fatalf("expected on_invalid mark, got %s", AppConfig.OnInvalid)
	}
}
