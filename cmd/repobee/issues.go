package main

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/repobee/repobee-sub000/internal/command"
	"github.com/repobee/repobee-sub000/internal/hook"
	"github.com/repobee/repobee-sub000/internal/output"
	"github.com/repobee/repobee-sub000/internal/platform"
	"github.com/repobee/repobee-sub000/internal/ui"
)

// issueContent is the parsed form of an issue file.
type issueContent struct {
	Title string
	Body  string
}

// issueFromFile converts an issue file path: the first line is the
// title, the remainder is the body.
func issueFromFile(raw string) (any, error) {
	data, err := os.ReadFile(raw)
	if err != nil {
		return nil, fmt.Errorf("read issue file: %w", err)
	}
	title, body, _ := strings.Cut(string(data), "\n")
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("issue file has no title line")
	}
	return issueContent{Title: title, Body: strings.TrimSpace(body)}, nil
}

// compileRegex converts a regular expression argument.
func compileRegex(raw string) (any, error) {
	return regexp.Compile(raw)
}

func newIssuesCategory() *command.Category {
	return &command.Category{
		Name: "issues",
		Help: "Manage issues on student repositories",
		Actions: []*command.Action{
			{
				Name: "open",
				Help: "Open an issue in every matching repository",
				Args: append(append(studentArgs(), platformArgs()...),
					assignmentsArg(),
					command.Argument{Name: "issue", Short: "i", Kind: command.Option, Required: true, Help: "Issue file (first line title, rest body)", Convert: issueFromFile},
				),
				Body: issuesOpen,
			},
			{
				Name: "close",
				Help: "Close issues whose title matches a regex",
				Args: append(append(studentArgs(), platformArgs()...),
					assignmentsArg(),
					command.Argument{Name: "title-regex", Short: "r", Kind: command.Option, Required: true, Help: "Close issues whose title matches this regex", Convert: compileRegex},
				),
				Body: issuesClose,
			},
			{
				Name: "list",
				Help: "List issues per repository",
				Args: append(append(studentArgs(), platformArgs()...),
					assignmentsArg(),
					command.Argument{Name: "all", Kind: command.Flag, Help: "Include closed issues"},
					command.Argument{Name: "show-body", Kind: command.Flag, Help: "Print issue bodies"},
				),
				Body: issuesList,
			},
		},
	}
}

// issuesOpen opens the same issue on every unit's repository.
func issuesOpen(ctx context.Context, inv *command.Invocation) ([]*hook.Result, error) {
	api, units, err := issueUnits(ctx, inv)
	if err != nil {
		return nil, err
	}
	content := inv.Values.Value("issue").(issueContent)

	return runUnits(ctx, units, func(ctx context.Context, u unit) ([]*hook.Result, error) {
		repo, err := unitRepo(ctx, inv, api, u)
		if err != nil {
			if platform.IsFatal(err) {
				return nil, err
			}
			return []*hook.Result{hook.Error(u.String(), err.Error())}, nil
		}
		issue, err := api.OpenIssue(ctx, repo, content.Title, content.Body)
		if err != nil {
			if platform.IsFatal(err) {
				return nil, err
			}
			return []*hook.Result{hook.Error(u.String(), err.Error())}, nil
		}
		return []*hook.Result{hook.Success(u.String(), fmt.Sprintf("opened #%d on %s", issue.Number, repo.Name))}, nil
	})
}

// issuesClose closes every open issue whose title matches the regex.
func issuesClose(ctx context.Context, inv *command.Invocation) ([]*hook.Result, error) {
	api, units, err := issueUnits(ctx, inv)
	if err != nil {
		return nil, err
	}
	re := inv.Values.Value("title-regex").(*regexp.Regexp)

	return runUnits(ctx, units, func(ctx context.Context, u unit) ([]*hook.Result, error) {
		repo, err := unitRepo(ctx, inv, api, u)
		if err != nil {
			if platform.IsFatal(err) {
				return nil, err
			}
			return []*hook.Result{hook.Error(u.String(), err.Error())}, nil
		}
		issues, err := api.ListIssues(ctx, repo, platform.IssueOpen)
		if err != nil {
			return []*hook.Result{hook.Error(u.String(), err.Error())}, nil
		}

		closed := 0
		for _, issue := range issues {
			if !re.MatchString(issue.Title) {
				continue
			}
			if err := api.CloseIssue(ctx, repo, issue.Number); err != nil {
				return []*hook.Result{hook.Error(u.String(), err.Error())}, nil
			}
			closed++
		}
		return []*hook.Result{hook.Success(u.String(), fmt.Sprintf("closed %d issue(s) on %s", closed, repo.Name))}, nil
	})
}

// issuesList prints a table of issues per repository. Listing writes
// to stdout directly instead of returning Results.
func issuesList(ctx context.Context, inv *command.Invocation) ([]*hook.Result, error) {
	api, units, err := issueUnits(ctx, inv)
	if err != nil {
		return nil, err
	}
	state := platform.IssueOpen
	if inv.Values.Bool("all") {
		state = platform.IssueAll
	}
	showBody := inv.Values.Bool("show-body")

	printer := output.FromContext(ctx)
	var rows [][]string
	var errResults []*hook.Result
	for _, u := range units {
		repo, err := unitRepo(ctx, inv, api, u)
		if err != nil {
			if platform.IsFatal(err) {
				return nil, err
			}
			errResults = append(errResults, hook.Error(u.String(), err.Error()))
			continue
		}
		issues, err := api.ListIssues(ctx, repo, state)
		if err != nil {
			errResults = append(errResults, hook.Error(u.String(), err.Error()))
			continue
		}
		for _, issue := range issues {
			rows = append(rows, []string{repo.Name, "#" + strconv.Itoa(issue.Number), string(issue.State), issue.Title})
			if showBody && issue.Body != "" {
				rows = append(rows, []string{"", "", "", issue.Body})
			}
		}
	}

	if len(rows) == 0 {
		printer.Println("no issues found")
	} else {
		printer.Print(ui.RenderTable([]string{"REPO", "ISSUE", "STATE", "TITLE"}, rows))
	}
	return errResults, nil
}

// issueUnits resolves the platform and the unit list shared by all
// issues actions.
func issueUnits(ctx context.Context, inv *command.Invocation) (platform.API, []unit, error) {
	api, err := inv.Platform(ctx)
	if err != nil {
		return nil, nil, err
	}
	teams, err := loadRoster(inv)
	if err != nil {
		return nil, nil, err
	}
	return api, expandUnits(teams, inv.Values.Strings("assignments")), nil
}

// unitRepo resolves and fetches the repository of one unit.
func unitRepo(ctx context.Context, inv *command.Invocation, api platform.API, u unit) (platform.Repo, error) {
	name, err := unitRepoName(ctx, inv, u)
	if err != nil {
		return platform.Repo{}, err
	}
	return api.GetRepo(ctx, name)
}
