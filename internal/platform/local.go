package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/repobee/repobee-sub000/internal/log"
)

// Local is the filesystem-backed platform implementation. It stores
// one organization's teams, repositories and issues in a JSON document
// under the base directory. It is the host default for the
// select_platform hook and the deterministic backend for tests.
type Local struct {
	root string // base directory (derived from base_url)
	org  string
	name string

	// mu serializes the load-modify-save cycle of every operation.
	// One handle is shared by the parallel unit runner, and WithName
	// copies share the pointer, so all views of one store serialize.
	mu *sync.Mutex
}

// NewLocal creates a local platform for one organization rooted at
// dir. The org subdirectory is created on first write.
func NewLocal(dir, org string) (*Local, error) {
	if dir == "" {
		return nil, NewError("local.new", KindBadCredentials, "base_url is not configured")
	}
	if org == "" {
		return nil, NewError("local.new", KindBadCredentials, "org is not configured")
	}
	dir = strings.TrimPrefix(dir, "file://")
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve platform dir: %w", err)
	}
	return &Local{root: abs, org: org, name: "local", mu: &sync.Mutex{}}, nil
}

// WithName returns a copy reporting a different platform name. Used by
// bindings that reuse the local backend under their own identity.
func (l *Local) WithName(name string) *Local {
	cp := *l
	cp.name = name
	return &cp
}

// Name returns the platform name.
func (l *Local) Name() string { return l.name }

// localTeam and friends are the on-disk document shapes.
type localTeam struct {
	Members []string `json:"members"`
}

type localIssue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

type localRepo struct {
	Description string                `json:"description"`
	Private     bool                  `json:"private"`
	NextIssue   int                   `json:"next_issue"`
	Issues      []localIssue          `json:"issues"`
	Teams       map[string]Permission `json:"teams"`
}

type localState struct {
	Teams map[string]*localTeam `json:"teams"`
	Repos map[string]*localRepo `json:"repos"`
}

func (l *Local) statePath() string {
	return filepath.Join(l.root, l.org, "platform.json")
}

// load reads the organization state, returning an empty state if the
// document does not exist yet.
func (l *Local) load() (*localState, error) {
	data, err := os.ReadFile(l.statePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &localState{
				Teams: make(map[string]*localTeam),
				Repos: make(map[string]*localRepo),
			}, nil
		}
		return nil, &PlatformError{Op: "local.load", Kind: KindUnavailable, Msg: "read state", Err: err}
	}
	var st localState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, &PlatformError{Op: "local.load", Kind: KindInternal, Msg: "parse state", Err: err}
	}
	if st.Teams == nil {
		st.Teams = make(map[string]*localTeam)
	}
	if st.Repos == nil {
		st.Repos = make(map[string]*localRepo)
	}
	return &st, nil
}

// save writes the state atomically: temp file then rename.
func (l *Local) save(st *localState) error {
	path := l.statePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &PlatformError{Op: "local.save", Kind: KindUnavailable, Msg: "create org directory", Err: err}
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal platform state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "platform-*.tmp")
	if err != nil {
		return &PlatformError{Op: "local.save", Kind: KindUnavailable, Msg: "write state", Err: err}
	}
	_, werr := tmp.Write(data)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(tmp.Name())
		return &PlatformError{Op: "local.save", Kind: KindUnavailable, Msg: "write state", Err: werr}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &PlatformError{Op: "local.save", Kind: KindUnavailable, Msg: "save state", Err: err}
	}
	return nil
}

// VerifyAccess checks that the base directory exists and is writable.
func (l *Local) VerifyAccess(ctx context.Context) error {
	log.FromContext(ctx).Platform("verify", l.root, l.org)
	if info, err := os.Stat(l.root); err == nil && !info.IsDir() {
		return NewError("local.verify", KindBadCredentials, "base_url %q is not a directory", l.root)
	}
	if err := os.MkdirAll(filepath.Join(l.root, l.org), 0755); err != nil {
		return &PlatformError{Op: "local.verify", Kind: KindUnauthorized, Msg: "org directory not writable", Err: err}
	}
	return nil
}

func (l *Local) GetTeam(ctx context.Context, name string) (Team, error) {
	log.FromContext(ctx).Platform("get-team", name)
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := l.load()
	if err != nil {
		return Team{}, err
	}
	t, ok := st.Teams[name]
	if !ok {
		return Team{}, NewError("local.get-team", KindNotFound, "team %q does not exist", name)
	}
	return Team{Name: name, Members: slices.Clone(t.Members)}, nil
}

func (l *Local) CreateTeam(ctx context.Context, name string) (Team, error) {
	log.FromContext(ctx).Platform("create-team", name)
	if name == "" {
		return Team{}, NewError("local.create-team", KindInternal, "team name is empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := l.load()
	if err != nil {
		return Team{}, err
	}
	if _, ok := st.Teams[name]; ok {
		return Team{}, NewError("local.create-team", KindConflict, "team %q already exists", name)
	}
	st.Teams[name] = &localTeam{}
	if err := l.save(st); err != nil {
		return Team{}, err
	}
	return Team{Name: name}, nil
}

func (l *Local) AssignMembers(ctx context.Context, team Team, members []string) (Team, error) {
	log.FromContext(ctx).Platform("assign-members", team.Name)
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := l.load()
	if err != nil {
		return Team{}, err
	}
	t, ok := st.Teams[team.Name]
	if !ok {
		return Team{}, NewError("local.assign-members", KindNotFound, "team %q does not exist", team.Name)
	}
	for _, m := range members {
		if m != "" && !slices.Contains(t.Members, m) {
			t.Members = append(t.Members, m)
		}
	}
	slices.Sort(t.Members)
	if err := l.save(st); err != nil {
		return Team{}, err
	}
	return Team{Name: team.Name, Members: slices.Clone(t.Members)}, nil
}

func (l *Local) repoHandle(name string, r *localRepo) Repo {
	return Repo{
		Name:        name,
		Description: r.Description,
		Private:     r.Private,
		URL:         filepath.Join(l.root, l.org, name),
	}
}

func (l *Local) GetRepo(ctx context.Context, name string) (Repo, error) {
	log.FromContext(ctx).Platform("get-repo", name)
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := l.load()
	if err != nil {
		return Repo{}, err
	}
	r, ok := st.Repos[name]
	if !ok {
		return Repo{}, NewError("local.get-repo", KindNotFound, "repo %q does not exist", name)
	}
	return l.repoHandle(name, r), nil
}

func (l *Local) CreateRepo(ctx context.Context, name, description string, private bool) (Repo, error) {
	log.FromContext(ctx).Platform("create-repo", name)
	if name == "" {
		return Repo{}, NewError("local.create-repo", KindInternal, "repo name is empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := l.load()
	if err != nil {
		return Repo{}, err
	}
	if _, ok := st.Repos[name]; ok {
		return Repo{}, NewError("local.create-repo", KindConflict, "repo %q already exists", name)
	}
	st.Repos[name] = &localRepo{
		Description: description,
		Private:     private,
		NextIssue:   1,
		Teams:       make(map[string]Permission),
	}
	if err := l.save(st); err != nil {
		return Repo{}, err
	}
	return l.repoHandle(name, st.Repos[name]), nil
}

func (l *Local) AssignRepo(ctx context.Context, team Team, repo Repo, permission Permission) error {
	log.FromContext(ctx).Platform("assign-repo", team.Name, repo.Name, string(permission))
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := l.load()
	if err != nil {
		return err
	}
	if _, ok := st.Teams[team.Name]; !ok {
		return NewError("local.assign-repo", KindNotFound, "team %q does not exist", team.Name)
	}
	r, ok := st.Repos[repo.Name]
	if !ok {
		return NewError("local.assign-repo", KindNotFound, "repo %q does not exist", repo.Name)
	}
	if r.Teams == nil {
		r.Teams = make(map[string]Permission)
	}
	r.Teams[team.Name] = permission
	return l.save(st)
}

func (l *Local) OpenIssue(ctx context.Context, repo Repo, title, body string) (Issue, error) {
	log.FromContext(ctx).Platform("open-issue", repo.Name, title)
	if title == "" {
		return Issue{}, NewError("local.open-issue", KindInternal, "issue title is empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := l.load()
	if err != nil {
		return Issue{}, err
	}
	r, ok := st.Repos[repo.Name]
	if !ok {
		return Issue{}, NewError("local.open-issue", KindNotFound, "repo %q does not exist", repo.Name)
	}
	if r.NextIssue == 0 {
		r.NextIssue = 1
	}
	issue := localIssue{
		Number:    r.NextIssue,
		Title:     title,
		Body:      body,
		State:     string(IssueOpen),
		CreatedAt: time.Now().UTC(),
	}
	r.NextIssue++
	r.Issues = append(r.Issues, issue)
	if err := l.save(st); err != nil {
		return Issue{}, err
	}
	return toIssue(issue), nil
}

func (l *Local) CloseIssue(ctx context.Context, repo Repo, number int) error {
	log.FromContext(ctx).Platform("close-issue", repo.Name, fmt.Sprint(number))
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := l.load()
	if err != nil {
		return err
	}
	r, ok := st.Repos[repo.Name]
	if !ok {
		return NewError("local.close-issue", KindNotFound, "repo %q does not exist", repo.Name)
	}
	for i := range r.Issues {
		if r.Issues[i].Number == number {
			r.Issues[i].State = string(IssueClosed)
			return l.save(st)
		}
	}
	return NewError("local.close-issue", KindNotFound, "issue #%d does not exist in %q", number, repo.Name)
}

func (l *Local) ListIssues(ctx context.Context, repo Repo, state IssueState) ([]Issue, error) {
	log.FromContext(ctx).Platform("list-issues", repo.Name, string(state))
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := l.load()
	if err != nil {
		return nil, err
	}
	r, ok := st.Repos[repo.Name]
	if !ok {
		return nil, NewError("local.list-issues", KindNotFound, "repo %q does not exist", repo.Name)
	}
	var issues []Issue
	for _, is := range r.Issues {
		if state != IssueAll && state != "" && is.State != string(state) {
			continue
		}
		issues = append(issues, toIssue(is))
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].Number < issues[j].Number })
	return issues, nil
}

func toIssue(is localIssue) Issue {
	return Issue{
		Number:    is.Number,
		Title:     is.Title,
		Body:      is.Body,
		Author:    is.Author,
		State:     IssueState(is.State),
		CreatedAt: is.CreatedAt,
	}
}
