package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/repobee/repobee-sub000/internal/log"
	"github.com/repobee/repobee-sub000/internal/output"
	"github.com/repobee/repobee-sub000/internal/platform"
)

// testEnv is one isolated command environment: its own platform
// directory, config file, and plugin state file.
type testEnv struct {
	platformDir string
	configPath  string
	stateFile   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	base := t.TempDir()
	env := &testEnv{
		platformDir: filepath.Join(base, "platform"),
		configPath:  filepath.Join(base, "config.toml"),
		stateFile:   filepath.Join(base, "plugins.json"),
	}
	env.writeConfig(t, `
[repobee]
base_url = "`+env.platformDir+`"
org = "course"
token = "secret"
state_file = "`+env.stateFile+`"
`)
	return env
}

func (e *testEnv) writeConfig(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(e.configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// run executes one full command line against the test environment and
// returns captured stdout and stderr.
func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	args = append([]string{"-c", e.configPath}, args...)
	opts := parseGlobals(args)

	var stdout, stderr bytes.Buffer
	ctx := context.Background()
	ctx = log.WithLogger(ctx, log.New(&stderr, opts.verbose, opts.quiet))
	ctx = output.WithPrinter(ctx, &stdout)

	root, err := buildRoot(ctx, opts)
	if err != nil {
		return stdout.String(), stderr.String(), err
	}
	root.SetContext(ctx)
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err = root.Execute()
	return stdout.String(), stderr.String(), err
}

// api opens the local platform backing the environment for state
// assertions.
func (e *testEnv) api(t *testing.T) platform.API {
	t.Helper()
	api, err := platform.NewLocal(e.platformDir, "course")
	if err != nil {
		t.Fatal(err)
	}
	return api
}

func (e *testEnv) writeRoster(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "students.txt")
	if err := os.WriteFile(path, []byte(lines), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReposSetup(t *testing.T) {
	env := newTestEnv(t)
	roster := env.writeRoster(t, "alice\nbob carol\n")

	stdout, _, err := env.run(t, "repos", "setup", "-a", "lab1", "--students-file", roster)
	if err != nil {
		t.Fatalf("repos setup error = %v", err)
	}
	if !strings.Contains(stdout, "SUCCESS") {
		t.Errorf("stdout = %q, want SUCCESS rows", stdout)
	}

	ctx := context.Background()
	api := env.api(t)
	for _, name := range []string{"alice-lab1", "bob-carol-lab1"} {
		if _, err := api.GetRepo(ctx, name); err != nil {
			t.Errorf("repo %q should exist: %v", name, err)
		}
	}
	team, err := api.GetTeam(ctx, "bob-carol")
	if err != nil {
		t.Fatalf("team bob-carol should exist: %v", err)
	}
	if len(team.Members) != 2 {
		t.Errorf("Members = %v, want bob and carol", team.Members)
	}
}

func TestReposSetup_RerunWarnsExisting(t *testing.T) {
	env := newTestEnv(t)

	if _, _, err := env.run(t, "repos", "setup", "-a", "lab1", "--students", "alice"); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := env.run(t, "repos", "setup", "-a", "lab1", "--students", "alice")
	if err != nil {
		t.Fatalf("second setup must not fail: %v", err)
	}
	if !strings.Contains(stdout, "WARNING") || !strings.Contains(stdout, "already exists") {
		t.Errorf("stdout = %q, want an already-exists WARNING", stdout)
	}
}

func TestReposSetup_MissingAssignments(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "repos", "setup", "--students", "alice")
	if err == nil || !strings.Contains(err.Error(), "assignments") {
		t.Errorf("err = %v, want missing required argument %q", err, "assignments")
	}
}

func TestReposSetup_AssignmentsFromConfig(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig(t, `
[repobee]
base_url = "`+env.platformDir+`"
org = "course"
token = "secret"
state_file = "`+env.stateFile+`"
assignments = "lab1 lab2"
`)

	if _, _, err := env.run(t, "repos", "setup", "--students", "alice"); err != nil {
		t.Fatalf("setup with configured assignments error = %v", err)
	}
	api := env.api(t)
	for _, name := range []string{"alice-lab1", "alice-lab2"} {
		if _, err := api.GetRepo(context.Background(), name); err != nil {
			t.Errorf("repo %q should exist: %v", name, err)
		}
	}
}

func TestReposClone(t *testing.T) {
	env := newTestEnv(t)
	target := t.TempDir()

	if _, _, err := env.run(t, "repos", "setup", "-a", "lab1", "--students", "alice"); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := env.run(t, "repos", "clone", "-a", "lab1", "--students", "alice", "--target-dir", target)
	if err != nil {
		t.Fatalf("repos clone error = %v", err)
	}
	if !strings.Contains(stdout, "cloned alice-lab1") {
		t.Errorf("stdout = %q, want cloned repo row", stdout)
	}
	if _, err := os.Stat(filepath.Join(target, "alice-lab1", ".repobee.json")); err != nil {
		t.Errorf("clone should materialize the repo directory: %v", err)
	}

	// Cloning again reports per-unit errors but does not fail.
	stdout, _, err = env.run(t, "repos", "clone", "-a", "lab1", "--students", "alice", "--target-dir", target)
	if err != nil {
		t.Fatalf("second clone must not be fatal: %v", err)
	}
	if !strings.Contains(stdout, "ERROR") {
		t.Errorf("stdout = %q, want ERROR row for existing directory", stdout)
	}
}

func TestReposUpdate_OpensIssueOnFailure(t *testing.T) {
	env := newTestEnv(t)
	issueFile := filepath.Join(t.TempDir(), "issue.md")
	if err := os.WriteFile(issueFile, []byte("Update failed\nPlease contact a TA.\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, _, err := env.run(t, "repos", "setup", "-a", "lab1", "--students", "alice"); err != nil {
		t.Fatal(err)
	}

	// bob-lab1 exists but the bob team does not, so the update fails
	// and the issue lands on the repo.
	api := env.api(t)
	repo, err := api.CreateRepo(ctx, "bob-lab1", "", true)
	if err != nil {
		t.Fatal(err)
	}

	stdout, _, err := env.run(t, "repos", "update", "-a", "lab1", "--students", "alice,bob", "--issue", issueFile)
	if err != nil {
		t.Fatalf("repos update error = %v", err)
	}
	if !strings.Contains(stdout, "updated alice-lab1") {
		t.Errorf("stdout = %q, want updated row for the healthy unit", stdout)
	}
	if !strings.Contains(stdout, "ERROR") {
		t.Errorf("stdout = %q, want ERROR row for bob/lab1", stdout)
	}

	issues, err := api.ListIssues(ctx, repo, platform.IssueOpen)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 || issues[0].Title != "Update failed" {
		t.Errorf("issues = %+v, want the failure issue opened on bob-lab1", issues)
	}
}

func TestIssuesLifecycle(t *testing.T) {
	env := newTestEnv(t)
	issueFile := filepath.Join(t.TempDir(), "issue.md")
	if err := os.WriteFile(issueFile, []byte("Late submission\nThe deadline has passed.\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := env.run(t, "repos", "setup", "-a", "lab1", "--students", "alice"); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := env.run(t, "issues", "open", "-a", "lab1", "--students", "alice", "-i", issueFile)
	if err != nil {
		t.Fatalf("issues open error = %v", err)
	}
	if !strings.Contains(stdout, "opened #1 on alice-lab1") {
		t.Errorf("stdout = %q, want opened row", stdout)
	}

	stdout, _, err = env.run(t, "issues", "list", "-a", "lab1", "--students", "alice")
	if err != nil {
		t.Fatalf("issues list error = %v", err)
	}
	if !strings.Contains(stdout, "Late submission") {
		t.Errorf("stdout = %q, want the open issue listed", stdout)
	}

	stdout, _, err = env.run(t, "issues", "close", "-a", "lab1", "--students", "alice", "-r", "^Late")
	if err != nil {
		t.Fatalf("issues close error = %v", err)
	}
	if !strings.Contains(stdout, "closed 1 issue(s)") {
		t.Errorf("stdout = %q, want closed row", stdout)
	}

	stdout, _, err = env.run(t, "issues", "list", "-a", "lab1", "--students", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(stdout, "Late submission") {
		t.Errorf("stdout = %q, closed issue should be hidden without --all", stdout)
	}

	stdout, _, err = env.run(t, "issues", "list", "-a", "lab1", "--students", "alice", "--all")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "Late submission") || !strings.Contains(stdout, "closed") {
		t.Errorf("stdout = %q, want closed issue with --all", stdout)
	}
}

func TestReposSetup_PlatformOverrideFlags(t *testing.T) {
	env := newTestEnv(t)
	otherDir := t.TempDir()

	_, _, err := env.run(t, "repos", "setup", "-a", "lab1", "--students", "alice",
		"--base-url", otherDir, "--org-name", "other-course")
	if err != nil {
		t.Fatalf("setup with overrides error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(otherDir, "other-course", "platform.json")); err != nil {
		t.Errorf("state should live under the overridden base_url and org: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.platformDir, "course", "platform.json")); err == nil {
		t.Error("configured platform dir written despite the overrides")
	}
}

func TestTeamsCreate(t *testing.T) {
	env := newTestEnv(t)
	roster := env.writeRoster(t, "dave eve\n")

	stdout, _, err := env.run(t, "teams", "create", "--students-file", roster)
	if err != nil {
		t.Fatalf("teams create error = %v", err)
	}
	if !strings.Contains(stdout, "dave-eve") {
		t.Errorf("stdout = %q, want the created team", stdout)
	}
	team, err := env.api(t).GetTeam(context.Background(), "dave-eve")
	if err != nil {
		t.Fatal(err)
	}
	if len(team.Members) != 2 {
		t.Errorf("Members = %v", team.Members)
	}
}

func TestConfigShow_RedactsToken(t *testing.T) {
	env := newTestEnv(t)
	stdout, _, err := env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if strings.Contains(stdout, "secret") {
		t.Errorf("stdout = %q, token must be redacted", stdout)
	}
	if !strings.Contains(stdout, env.platformDir) {
		t.Errorf("stdout = %q, want base_url shown", stdout)
	}
}

func TestConfigVerify(t *testing.T) {
	env := newTestEnv(t)
	stdout, _, err := env.run(t, "config", "verify")
	if err != nil {
		t.Fatalf("config verify error = %v", err)
	}
	if !strings.Contains(stdout, "platform access verified") {
		t.Errorf("stdout = %q, want verified row", stdout)
	}
}

func TestPluginActivate_TogglesAndPersists(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := env.run(t, "plugin", "activate", "gitlab")
	if err != nil {
		t.Fatalf("plugin activate error = %v", err)
	}
	if !strings.Contains(stdout, "active plugins: gitlab") {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, _, err = env.run(t, "plugin", "list")
	if err != nil {
		t.Fatal(err)
	}
	gitlabRow := ""
	for _, line := range strings.Split(stdout, "\n") {
		if strings.Contains(line, "gitlab") {
			gitlabRow = line
		}
	}
	if gitlabRow == "" || strings.Contains(gitlabRow, "inactive") {
		t.Errorf("plugin list row = %q, want gitlab active", gitlabRow)
	}

	// Toggling again deactivates.
	stdout, _, err = env.run(t, "plugin", "activate", "gitlab")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "active plugins: none") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestPluginActivate_MultipleNames(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := env.run(t, "plugin", "activate", "gitlab", "tamanager")
	if err != nil {
		t.Fatalf("plugin activate error = %v", err)
	}
	if !strings.Contains(stdout, "active plugins: gitlab, tamanager") {
		t.Errorf("stdout = %q, want both plugins activated", stdout)
	}
}

func TestPluginActivate_UnknownName(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "plugin", "activate", "ghost")
	if err == nil || !strings.Contains(err.Error(), "unknown plugin") {
		t.Errorf("err = %v, want unknown plugin error", err)
	}
}

func TestTransientPluginOverridesPlatform(t *testing.T) {
	env := newTestEnv(t)
	gitlabDir := t.TempDir()
	env.writeConfig(t, `
[repobee]
base_url = "`+env.platformDir+`"
org = "course"
token = "secret"
state_file = "`+env.stateFile+`"

[gitlab]
base_url = "`+gitlabDir+`"
`)

	if _, _, err := env.run(t, "-p", "gitlab", "repos", "setup", "-a", "lab1", "--students", "alice"); err != nil {
		t.Fatalf("setup with gitlab plugin error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(gitlabDir, "course", "platform.json")); err != nil {
		t.Errorf("state should live under the gitlab base_url: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.platformDir, "course", "platform.json")); err == nil {
		t.Error("core platform dir written despite gitlab override")
	}
}

func TestUnknownTransientPluginWarnsAndSuggests(t *testing.T) {
	env := newTestEnv(t)
	_, stderr, err := env.run(t, "-p", "gitlb", "repos", "setup", "-a", "lab1", "--students", "alice")
	if err != nil {
		t.Fatalf("unknown plugin must not be fatal without --strict: %v", err)
	}
	if !strings.Contains(stderr, "gitlb") || !strings.Contains(stderr, "gitlab") {
		t.Errorf("stderr = %q, want a skip warning with suggestion", stderr)
	}
}

func TestUnknownTransientPluginStrict(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, "--strict", "-p", "gitlb", "repos", "setup", "-a", "lab1", "--students", "alice")
	if err == nil {
		t.Error("--strict with unknown plugin should be fatal")
	}
}

func TestTamanagerExtension(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := env.run(t, "-p", "tamanager", "repos", "setup",
		"-a", "lab1", "--students", "alice", "--tamanager-ta", "head-ta")
	if err != nil {
		t.Fatalf("setup with tamanager error = %v", err)
	}
	if !strings.Contains(stdout, "granted tas read access to alice-lab1") {
		t.Errorf("stdout = %q, want post_setup result", stdout)
	}
	if !strings.Contains(stdout, "enrolled head-ta") {
		t.Errorf("stdout = %q, want extension callback result", stdout)
	}

	team, err := env.api(t).GetTeam(context.Background(), "tas")
	if err != nil {
		t.Fatal(err)
	}
	if len(team.Members) != 1 || team.Members[0] != "head-ta" {
		t.Errorf("Members = %v, want [head-ta]", team.Members)
	}

	// The extension flag is rejected when the plugin is not active.
	_, _, err = env.run(t, "repos", "setup", "-a", "lab1", "--students", "bob", "--tamanager-ta", "x")
	if err == nil {
		t.Error("tamanager flag without the plugin should be an unknown flag error")
	}
}

func TestTamanagerCategory(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.run(t, "-p", "tamanager", "repos", "setup",
		"-a", "lab1", "--students", "alice", "--tamanager-ta", "head-ta"); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := env.run(t, "-p", "tamanager", "tamanager", "show")
	if err != nil {
		t.Fatalf("tamanager show error = %v", err)
	}
	if !strings.Contains(stdout, "head-ta") {
		t.Errorf("stdout = %q, want the TA roster", stdout)
	}
}

func TestNoPluginsUsesHostDefaults(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.run(t, "plugin", "activate", "gitlab"); err != nil {
		t.Fatal(err)
	}

	// gitlab is persisted, but --no-plugins forces the local default.
	if _, _, err := env.run(t, "--no-plugins", "repos", "setup", "-a", "lab1", "--students", "alice"); err != nil {
		t.Fatalf("setup with --no-plugins error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.platformDir, "course", "platform.json")); err != nil {
		t.Errorf("host default platform should have been used: %v", err)
	}
}

func TestParseGlobals_ShorthandSpellings(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		plugs  []string
		config string
	}{
		{"separate value", []string{"-p", "gitlab", "-c", "/tmp/a.toml"}, []string{"gitlab"}, "/tmp/a.toml"},
		{"equals value", []string{"-p=gitlab,tamanager", "-c=/tmp/b.toml"}, []string{"gitlab", "tamanager"}, "/tmp/b.toml"},
		{"attached value", []string{"-pgitlab", "-c/tmp/c.toml"}, []string{"gitlab"}, "/tmp/c.toml"},
		{"long equals", []string{"--plug=gitlab", "--config-file=/tmp/d.toml"}, []string{"gitlab"}, "/tmp/d.toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := parseGlobals(tt.args)
			if len(opts.plugs) != len(tt.plugs) {
				t.Fatalf("plugs = %v, want %v", opts.plugs, tt.plugs)
			}
			for i := range tt.plugs {
				if opts.plugs[i] != tt.plugs[i] {
					t.Errorf("plugs = %v, want %v", opts.plugs, tt.plugs)
				}
			}
			if opts.configFile != tt.config {
				t.Errorf("configFile = %q, want %q", opts.configFile, tt.config)
			}
		})
	}
}

// The equals spelling must actually activate the plugin end to end,
// not just parse.
func TestTransientPluginEqualsSpelling(t *testing.T) {
	env := newTestEnv(t)
	gitlabDir := t.TempDir()
	env.writeConfig(t, `
[repobee]
base_url = "`+env.platformDir+`"
org = "course"
token = "secret"
state_file = "`+env.stateFile+`"

[gitlab]
base_url = "`+gitlabDir+`"
`)

	if _, _, err := env.run(t, "-p=gitlab", "repos", "setup", "-a", "lab1", "--students", "alice"); err != nil {
		t.Fatalf("setup with -p=gitlab error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(gitlabDir, "course", "platform.json")); err != nil {
		t.Errorf("-p=gitlab should activate the gitlab backend: %v", err)
	}
}

func TestParseGlobals(t *testing.T) {
	opts := parseGlobals([]string{"-p", "gitlab,tamanager", "--plug=javac", "--no-plugins", "--strict", "--traceback", "-c", "/tmp/cfg.toml", "-v"})
	if len(opts.plugs) != 3 {
		t.Errorf("plugs = %v, want 3 entries", opts.plugs)
	}
	if !opts.noPlugins || !opts.strict || !opts.traceback || !opts.verbose || opts.quiet {
		t.Errorf("flags parsed wrong: %+v", opts)
	}
	if opts.configFile != "/tmp/cfg.toml" {
		t.Errorf("configFile = %q", opts.configFile)
	}
}
