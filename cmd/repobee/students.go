package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/repobee/repobee-sub000/internal/command"
	"github.com/repobee/repobee-sub000/internal/platform"
)

// studentArgs are the roster arguments shared by every command that
// operates per team.
func studentArgs() []command.Argument {
	return []command.Argument{
		{
			Name:    "students",
			Kind:    command.Option,
			Help:    "Student usernames, one single-member team per student (space or comma separated)",
			Convert: command.SplitList,
		},
		{
			Name: "students-file",
			Kind: command.Option,
			Help: "Roster file: one team per line, members space separated",
		},
	}
}

// assignmentsArg declares the assignment list argument.
func assignmentsArg() command.Argument {
	return command.Argument{
		Name:         "assignments",
		Short:        "a",
		Kind:         command.Option,
		Help:         "Assignment names (space or comma separated)",
		Required:     true,
		Configurable: true,
		Convert:      command.SplitList,
	}
}

// platformArgs let one invocation target a different platform or
// credentials than the configured ones. They are read during platform
// selection, so they must be declared on every action that calls
// Invocation.Platform.
func platformArgs() []command.Argument {
	return []command.Argument{
		{Name: "base-url", Kind: command.Option, Help: "Platform base URL, overrides the configured one"},
		{Name: "org-name", Kind: command.Option, Help: "Course organization, overrides the configured one"},
		{Name: "token", Kind: command.Option, Help: "Platform access token for this invocation"},
		{Name: "user", Kind: command.Option, Help: "Platform username"},
	}
}

// loadRoster resolves the student teams for an invocation: --students
// builds one team per student, --students-file parses a roster file,
// and the configured students_file is the fallback.
func loadRoster(inv *command.Invocation) ([]platform.Team, error) {
	if students := inv.Values.Strings("students"); len(students) > 0 {
		teams := make([]platform.Team, len(students))
		for i, s := range students {
			teams[i] = platform.Team{Name: s, Members: []string{s}}
		}
		return teams, nil
	}

	path := inv.Values.String("students-file")
	if path == "" {
		path = inv.Config.StudentsFile
	}
	if path == "" {
		return nil, fmt.Errorf("no students given: use --students, --students-file or students_file in the config file")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return parseRoster(f)
}

// parseRoster reads team definitions, one team per line with members
// separated by spaces. The team name joins the sorted members with a
// dash, so the same set of students always maps to the same team.
// Blank lines and #-comments are skipped.
func parseRoster(r io.Reader) ([]platform.Team, error) {
	var teams []platform.Team
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		members := strings.Fields(text)
		name := teamName(members)
		if seen[name] {
			return nil, fmt.Errorf("roster line %d: team %q appears twice", line, name)
		}
		seen[name] = true
		teams = append(teams, platform.Team{Name: name, Members: members})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("roster is empty")
	}
	return teams, nil
}

// teamName derives the canonical team name from its members.
func teamName(members []string) string {
	sorted := slices.Clone(members)
	slices.Sort(sorted)
	return strings.Join(sorted, "-")
}
