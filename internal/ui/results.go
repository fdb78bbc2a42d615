package ui

import (
	"charm.land/lipgloss/v2"

	"github.com/repobee/repobee-sub000/internal/hook"
)

// statusOrder groups results for display: successes first, then
// warnings, then errors.
var statusOrder = []hook.Status{hook.StatusSuccess, hook.StatusWarning, hook.StatusError}

func statusStyle(s hook.Status) lipgloss.Style {
	switch s {
	case hook.StatusWarning:
		return warningStyle
	case hook.StatusError:
		return failureStyle
	default:
		return successStyle
	}
}

// RenderResults formats hook results as a table grouped by status.
// An empty result set renders to an empty string.
func RenderResults(results []*hook.Result) string {
	if len(results) == 0 {
		return ""
	}

	var rows [][]string
	for _, status := range statusOrder {
		for _, r := range results {
			if r.Status != status {
				continue
			}
			rows = append(rows, []string{
				r.Name,
				statusStyle(status).Render(string(status)),
				r.Msg,
			})
		}
	}

	return RenderTable([]string{"NAME", "STATUS", "MESSAGE"}, rows)
}
