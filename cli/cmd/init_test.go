package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
)

func TestInitRun(t *testing.T) {
	tests := []struct {
		name    string
		force   bool
		exists  bool
		wantErr error
	}{
		{name: "create_new_config"},
		{name: "overwrite_existing_with_force", force: true, exists: true},
		{name: "fail_without_force", exists: true, wantErr: ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			confPath := filepath.Join(dir, "config.yaml")

			if tt.exists {
				writeFile(t, dir, "config.yaml", "existing content")
			}

			args := []string{"-D", "CC=clang", "--max-depth", "42", "init"}
			if tt.force {
				args = append(args, "--force")
			}

			res := run(t, dir, args...)

			if tt.wantErr != nil {
				if !errors.Is(res.err, tt.wantErr) || !errors.Is(res.err, ErrWriteConfig) {
					t.Fatalf("Init.Run() error = %v, want %v", res.err, tt.wantErr)
				}

				return
			}

			if res.err != nil {
				t.Fatalf("Init.Run() error = %v", res.err)
			}

			data, err := os.ReadFile(confPath)
			if err != nil {
				t.Fatal(err)
			}

			var doc struct {
				Config struct {
					MaxDepth int               `yaml:"max-depth"`
					Set      map[string]string `yaml:"set"`
					File     []string          `yaml:"file"`
				} `yaml:"config"`
			}

			if err := yaml.Unmarshal(data, &doc); err != nil {
				t.Fatalf("generated config is not valid YAML: %v\n%s", err, data)
			}

			if doc.Config.MaxDepth != 42 {
				t.Errorf("max-depth = %d, want 42", doc.Config.MaxDepth)
			}

			if doc.Config.Set["CC"] != "clang" {
				t.Errorf("set = %v, want CC=clang", doc.Config.Set)
			}

			if doc.Config.File != nil {
				t.Errorf("expected unset file flag to be omitted, got %v", doc.Config.File)
			}
		})
	}
}
