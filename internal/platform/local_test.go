package platform

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(t.TempDir(), "course-2026")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return l
}

func TestNewLocal_RequiresConfiguration(t *testing.T) {
	if _, err := NewLocal("", "org"); KindOf(err) != KindBadCredentials {
		t.Errorf("NewLocal(no dir) kind = %v, want KindBadCredentials", KindOf(err))
	}
	if _, err := NewLocal(t.TempDir(), ""); KindOf(err) != KindBadCredentials {
		t.Errorf("NewLocal(no org) kind = %v, want KindBadCredentials", KindOf(err))
	}
}

func TestLocal_TeamLifecycle(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)

	if _, err := l.GetTeam(ctx, "team-a"); !IsNotFound(err) {
		t.Fatalf("GetTeam(missing) = %v, want not-found", err)
	}

	team, err := l.CreateTeam(ctx, "team-a")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	if _, err := l.CreateTeam(ctx, "team-a"); !IsConflict(err) {
		t.Errorf("CreateTeam(duplicate) = %v, want conflict", err)
	}

	team, err = l.AssignMembers(ctx, team, []string{"carol", "alice", "alice"})
	if err != nil {
		t.Fatalf("AssignMembers: %v", err)
	}
	if len(team.Members) != 2 {
		t.Errorf("Members = %v, want deduplicated pair", team.Members)
	}
	if team.Members[0] != "alice" || team.Members[1] != "carol" {
		t.Errorf("Members = %v, want sorted [alice carol]", team.Members)
	}

	// State must survive a fresh handle (it lives on disk).
	l2 := l.WithName("local")
	got, err := l2.GetTeam(ctx, "team-a")
	if err != nil {
		t.Fatalf("GetTeam after reload: %v", err)
	}
	if len(got.Members) != 2 {
		t.Errorf("reloaded Members = %v, want 2 entries", got.Members)
	}
}

func TestLocal_RepoLifecycle(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)

	repo, err := l.CreateRepo(ctx, "team-a-task-1", "task 1 for team-a", true)
	if err != nil {
		t.Fatalf("CreateRepo: %v", err)
	}
	if repo.URL == "" {
		t.Error("CreateRepo returned empty URL")
	}

	if _, err := l.CreateRepo(ctx, "team-a-task-1", "", true); !IsConflict(err) {
		t.Errorf("CreateRepo(duplicate) = %v, want conflict", err)
	}

	team, err := l.CreateTeam(ctx, "team-a")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if err := l.AssignRepo(ctx, team, repo, PermissionPush); err != nil {
		t.Fatalf("AssignRepo: %v", err)
	}
	if err := l.AssignRepo(ctx, Team{Name: "ghost"}, repo, PermissionPush); !IsNotFound(err) {
		t.Errorf("AssignRepo(missing team) = %v, want not-found", err)
	}
}

func TestLocal_IssueLifecycle(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)

	repo, err := l.CreateRepo(ctx, "repo", "", false)
	if err != nil {
		t.Fatalf("CreateRepo: %v", err)
	}

	first, err := l.OpenIssue(ctx, repo, "Late submission", "please fix")
	if err != nil {
		t.Fatalf("OpenIssue: %v", err)
	}
	if first.Number != 1 {
		t.Errorf("first issue number = %d, want 1", first.Number)
	}
	second, err := l.OpenIssue(ctx, repo, "Missing tests", "")
	if err != nil {
		t.Fatalf("OpenIssue: %v", err)
	}
	if second.Number != 2 {
		t.Errorf("second issue number = %d, want 2", second.Number)
	}

	if err := l.CloseIssue(ctx, repo, first.Number); err != nil {
		t.Fatalf("CloseIssue: %v", err)
	}
	if err := l.CloseIssue(ctx, repo, 99); !IsNotFound(err) {
		t.Errorf("CloseIssue(missing) = %v, want not-found", err)
	}

	open, err := l.ListIssues(ctx, repo, IssueOpen)
	if err != nil {
		t.Fatalf("ListIssues(open): %v", err)
	}
	if len(open) != 1 || open[0].Number != 2 {
		t.Errorf("open issues = %v, want only #2", open)
	}

	all, err := l.ListIssues(ctx, repo, IssueAll)
	if err != nil {
		t.Fatalf("ListIssues(all): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all issues = %d, want 2", len(all))
	}
}

func TestLocal_ConcurrentWritesAllPersist(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)
	renamed := l.WithName("gitlab")

	// Half the writers go through a renamed handle: both views address
	// the same store and must serialize against each other.
	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			api := API(l)
			if i%2 == 1 {
				api = renamed
			}
			_, errs[i] = api.CreateRepo(ctx, fmt.Sprintf("repo-%d", i), "", true)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("CreateRepo(repo-%d): %v", i, err)
		}
	}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("repo-%d", i)
		if _, err := l.GetRepo(ctx, name); err != nil {
			t.Errorf("repo %q reported created but not persisted: %v", name, err)
		}
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"platform error keeps its kind", NewError("op", KindUnavailable, "down"), KindUnavailable},
		{"plain error is internal", context.Canceled, KindInternal},
		{"nil is internal", nil, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}

	if !IsFatal(NewError("op", KindBadCredentials, "bad token")) {
		t.Error("bad credentials should be fatal")
	}
	if !IsRetryable(NewError("op", KindUnavailable, "503")) {
		t.Error("unavailable should be retryable")
	}
	if IsFatal(NewError("op", KindNotFound, "missing")) {
		t.Error("not-found should not be fatal")
	}
}
