package gitlab

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/repobee/repobee-sub000/internal/config"
	"github.com/repobee/repobee-sub000/internal/hook"
	"github.com/repobee/repobee-sub000/internal/platform"
)

func loadConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestSelectPlatform_RequiresToken(t *testing.T) {
	cfg := config.Default()
	cfg.BaseURL = t.TempDir()

	_, err := selectPlatform(context.Background(), hook.Args{
		"config": cfg,
		"token":  "",
		"org":    "course",
	})
	if err == nil {
		t.Fatal("selectPlatform without token should fail")
	}
	if !platform.IsFatal(err) {
		t.Errorf("err = %v, want a fatal credential error", err)
	}
}

func TestSelectPlatform_SectionOverridesBaseURL(t *testing.T) {
	coreDir := t.TempDir()
	sectionDir := t.TempDir()
	cfg := loadConfig(t, `
[repobee]
base_url = "`+coreDir+`"
token = "secret"
org = "course"

[gitlab]
base_url = "`+sectionDir+`"
`)

	ret, err := selectPlatform(context.Background(), hook.Args{
		"config": cfg,
		"token":  cfg.Token,
		"org":    cfg.Org,
	})
	if err != nil {
		t.Fatalf("selectPlatform() error = %v", err)
	}
	api, ok := ret.(platform.API)
	if !ok {
		t.Fatalf("selectPlatform() returned %T, want platform.API", ret)
	}
	if api.Name() != Name {
		t.Errorf("Name() = %q, want %q", api.Name(), Name)
	}

	// Writes must land under the section's base_url, not the core one.
	ctx := context.Background()
	if _, err := api.CreateRepo(ctx, "team-a-lab1", "", true); err != nil {
		t.Fatalf("CreateRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(sectionDir, "course", "platform.json")); err != nil {
		t.Errorf("expected state under section base_url: %v", err)
	}
	if _, err := os.Stat(filepath.Join(coreDir, "course", "platform.json")); err == nil {
		t.Error("state written under core base_url, want section override")
	}
}

func TestSelectPlatform_SectionPathValidated(t *testing.T) {
	cfg := loadConfig(t, `
[repobee]
base_url = "`+t.TempDir()+`"
token = "secret"
org = "course"

[gitlab]
base_url = "./gitlab-data"
`)

	_, err := selectPlatform(context.Background(), hook.Args{
		"config": cfg,
		"token":  cfg.Token,
		"org":    cfg.Org,
	})
	if err == nil || !strings.Contains(err.Error(), "absolute") {
		t.Errorf("err = %v, want relative section base_url rejected", err)
	}
}

func TestSelectPlatform_SectionTildeExpanded(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg := loadConfig(t, `
[repobee]
base_url = "`+t.TempDir()+`"
token = "secret"
org = "course"

[gitlab]
base_url = "~/gitlab-data"
`)

	ret, err := selectPlatform(context.Background(), hook.Args{
		"config": cfg,
		"token":  cfg.Token,
		"org":    cfg.Org,
	})
	if err != nil {
		t.Fatalf("selectPlatform() error = %v", err)
	}
	api := ret.(platform.API)
	if _, err := api.CreateRepo(context.Background(), "team-a-lab1", "", true); err != nil {
		t.Fatalf("CreateRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "gitlab-data", "course", "platform.json")); err != nil {
		t.Errorf("~ in the section base_url should expand to the home directory: %v", err)
	}
	if _, err := os.Stat("~"); err == nil {
		t.Error("a literal ~ directory was created in the working directory")
	}
}

func TestCheckConfig(t *testing.T) {
	tests := []struct {
		name   string
		toml   string
		status hook.Status
	}{
		{
			name:   "clean section",
			toml:   "[gitlab]\nbase_url = \"/srv/gitlab\"\n",
			status: hook.StatusSuccess,
		},
		{
			name:   "empty base_url",
			toml:   "[gitlab]\nbase_url = \"\"\n",
			status: hook.StatusError,
		},
		{
			name:   "relative base_url",
			toml:   "[gitlab]\nbase_url = \"./gitlab\"\n",
			status: hook.StatusError,
		},
		{
			name:   "token in plugin section",
			toml:   "[gitlab]\ntoken = \"secret\"\n",
			status: hook.StatusWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t, tt.toml)
			ret, err := checkConfig(context.Background(), hook.Args{"config": cfg})
			if err != nil {
				t.Fatalf("checkConfig() error = %v", err)
			}
			res, ok := ret.(*hook.Result)
			if !ok {
				t.Fatalf("checkConfig() returned %T, want *hook.Result", ret)
			}
			if res.Status != tt.status {
				t.Errorf("Status = %v, want %v (msg: %s)", res.Status, tt.status, res.Msg)
			}
		})
	}
}

func TestInit_RegistersAgainstSpecs(t *testing.T) {
	m, err := Init(config.Default())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	reg := hook.NewRegistry(hook.Specs()...)
	if err := reg.Register(m.Name, m.Hooks); err != nil {
		t.Errorf("Register() error = %v, manifest hooks must match the spec table", err)
	}
}
