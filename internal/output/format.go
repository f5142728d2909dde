// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/service"
)

const (
	// Separator is the separator line around section headings.
	Separator = "------------"

	// RemovableMark follows a project the current user may remove.
	RemovableMark = "[owner]"

	unnamedTask   = "Unnamed Task"
	noDescription = "No description"
	unassigned    = "Unassigned"
	untitled      = "(untitled)"
)

// FormatProject formats a project line for the project list.
// Format: "{ID:>4}  {NAME}  ({OWNER})[ [owner]]\n"
func FormatProject(w io.Writer, project service.Project, removable bool) {
	r := lipgloss.NewRenderer(w)
	line := fmt.Sprintf("%4d  %s  (%s)", project.ProjectID(), oneLine(project.Name, untitled), oneLine(project.Owner, "?"))
	if removable {
		line += " " + r.NewStyle().Bold(true).Render(RemovableMark)
	}
	fmt.Fprintln(w, line)
}

// FormatProjects formats the project list. removable may be nil.
func FormatProjects(w io.Writer, projects []service.Project, removable func(service.Project) bool) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "no projects")
		return
	}
	for _, p := range projects {
		FormatProject(w, p, removable != nil && removable(p))
	}
}

// FormatSectionHeader formats a section heading between separators.
func FormatSectionHeader(w io.Writer, title string) {
	r := lipgloss.NewRenderer(w)
	fmt.Fprintln(w, Separator)
	fmt.Fprintln(w, r.NewStyle().Bold(true).Render(title))
	fmt.Fprintln(w, Separator)
}

// FormatBoard formats a project's task board: a heading, then one section
// per status in board order.
func FormatBoard(w io.Writer, project service.Project) {
	fmt.Fprintf(w, "%s (#%d)\n", oneLine(project.Name, untitled), project.ProjectID())
	if desc := strings.TrimSpace(project.Description); desc != "" {
		fmt.Fprintln(w, oneLine(desc, ""))
	}
	fmt.Fprintf(w, "owner: %s\n", oneLine(project.Owner, "?"))

	for _, status := range service.Statuses {
		tasks := project.Partition(status)
		FormatSectionHeader(w, fmt.Sprintf("%s (%d)", status.Label(), len(tasks)))
		for _, t := range tasks {
			FormatTask(w, t)
		}
	}
}

// FormatTask formats a task as an indented entry.
// Format: "    {ID}  {NAME}  [{ASSIGNEES}]\n          {DESCRIPTION}\n"
func FormatTask(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "    %s  %s  [%s]\n", task.ID, oneLine(task.Name, unnamedTask), assignees(task.AssignedTo))
	fmt.Fprintf(w, "    %s  %s\n", strings.Repeat(" ", len(task.ID)), oneLine(task.Description, noDescription))
}

// FormatUsers formats the user list.
// Format: "{ID:>4}  {NAME}\n"
func FormatUsers(w io.Writer, users []service.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "no users")
		return
	}
	for _, u := range users {
		fmt.Fprintf(w, "%4d  %s\n", u.ID, oneLine(u.Name, untitled))
	}
}

// FormatIdentity formats the current identity.
func FormatIdentity(w io.Writer, id service.Identity) {
	fmt.Fprintf(w, "%s (id %d)\n", id.Name, id.ID)
}

func assignees(names []string) string {
	var kept []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		return unassigned
	}
	return strings.Join(kept, ", ")
}

// oneLine replaces newlines with spaces; blank text becomes placeholder.
func oneLine(text, placeholder string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	if strings.TrimSpace(text) == "" {
		return placeholder
	}
	return text
}
