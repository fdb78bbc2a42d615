package platform

import (
	"context"
	"time"
)

// Permission is the access level a team holds on a repository.
type Permission string

const (
	PermissionPull  Permission = "pull"
	PermissionPush  Permission = "push"
	PermissionAdmin Permission = "admin"
)

// IssueState filters issue listings.
type IssueState string

const (
	IssueOpen   IssueState = "open"
	IssueClosed IssueState = "closed"
	IssueAll    IssueState = "all"
)

// Team is an opaque handle for a member team on the platform.
type Team struct {
	Name    string
	Members []string
}

// Repo is an opaque handle for a repository on the platform.
type Repo struct {
	Name        string
	Description string
	Private     bool
	URL         string
}

// Issue is an opaque handle for an issue on a repository.
type Issue struct {
	Number    int
	Title     string
	Body      string
	Author    string
	State     IssueState
	CreatedAt time.Time
}

// API is the platform capability contract. Implementations report all
// remote failures as *PlatformError so that callers can classify them
// (transient, partial-failure, configuration) without knowing the
// backing service.
type API interface {
	// Name identifies the backing platform, e.g. "local" or "gitlab".
	Name() string

	// VerifyAccess checks connectivity and credentials.
	VerifyAccess(ctx context.Context) error

	// GetTeam looks up a team by name.
	GetTeam(ctx context.Context, name string) (Team, error)

	// CreateTeam creates a team. Fails with a conflict error if the
	// team already exists.
	CreateTeam(ctx context.Context, name string) (Team, error)

	// AssignMembers adds members to a team. Adding an existing
	// member is a no-op.
	AssignMembers(ctx context.Context, team Team, members []string) (Team, error)

	// GetRepo looks up a repository by name.
	GetRepo(ctx context.Context, name string) (Repo, error)

	// CreateRepo creates a repository. Fails with a conflict error
	// if the repository already exists.
	CreateRepo(ctx context.Context, name, description string, private bool) (Repo, error)

	// AssignRepo grants a team the given permission on a repository.
	AssignRepo(ctx context.Context, team Team, repo Repo, permission Permission) error

	// OpenIssue opens an issue on a repository.
	OpenIssue(ctx context.Context, repo Repo, title, body string) (Issue, error)

	// CloseIssue closes an issue by number.
	CloseIssue(ctx context.Context, repo Repo, number int) error

	// ListIssues lists issues on a repository filtered by state.
	ListIssues(ctx context.Context, repo Repo, state IssueState) ([]Issue, error)
}
