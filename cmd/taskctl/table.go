package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/example/task-manager/client"
	"github.com/example/task-manager/domain/task"
)

const tableCellMaxWidth = 50
const tableCellEllipsis = "..."

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	blockedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

func statusStyle(s task.Status) lipgloss.Style {
	switch s {
	case task.StatusCompleted:
		return doneStyle
	case task.StatusBlocked:
		return blockedStyle
	case task.StatusInProgress:
		return progressStyle
	default:
		return pendingStyle
	}
}

func formatTaskTable(tasks []task.Task) string {
	if len(tasks) == 0 {
		return "No tasks found.\n"
	}

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = doneStyle.Render("x")
		}
		rows = append(rows, []string{
			mutedStyle.Render(t.ID),
			done,
			statusStyle(t.Status).Render(string(t.Status)),
			formatDue(t.DueDate),
			truncateTableCell(t.Title),
		})
	}
	return formatTable([]string{"ID", "DONE", "STATUS", "DUE", "TITLE"}, rows)
}

func formatActivityTable(entries []client.ActivityEntry) string {
	if len(entries) == 0 {
		return "No activity yet.\n"
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			mutedStyle.Render(e.Timestamp.Local().Format(time.DateTime)),
			e.Type,
			truncateTableCell(e.Message),
		})
	}
	return formatTable([]string{"WHEN", "TYPE", "MESSAGE"}, rows)
}

func formatTaskDetail(t task.Task) string {
	var b strings.Builder
	field := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label+":")), value)
	}
	field("ID", t.ID)
	field("Title", t.Title)
	if t.Description != "" {
		field("Description", t.Description)
	}
	field("Status", statusStyle(t.Status).Render(string(t.Status)))
	field("Completed", fmt.Sprintf("%t", t.Completed))
	field("Due", formatDue(t.DueDate))
	field("Created", t.CreatedAt.Local().Format(time.DateTime))
	field("Updated", t.UpdatedAt.Local().Format(time.DateTime))
	return b.String()
}

func formatDue(d *time.Time) string {
	if d == nil {
		return "-"
	}
	return d.UTC().Format(time.DateOnly)
}

// formatTable aligns columns by their rendered width, so styled cells line up.
func formatTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = lipgloss.Width(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var builder strings.Builder
	writeRow := func(row []string, style *lipgloss.Style) {
		for i, cell := range row {
			padding := widths[i] - lipgloss.Width(cell)
			if style != nil {
				cell = style.Render(cell)
			}
			builder.WriteString(cell)
			if i == len(row)-1 {
				builder.WriteByte('\n')
				continue
			}
			builder.WriteString(strings.Repeat(" ", padding+2))
		}
	}

	writeRow(headers, &headerStyle)
	for _, row := range rows {
		writeRow(row, nil)
	}
	return builder.String()
}

func truncateTableCell(value string) string {
	value = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(value)
	runes := []rune(value)
	if len(runes) <= tableCellMaxWidth {
		return value
	}
	return string(runes[:tableCellMaxWidth-len(tableCellEllipsis)]) + tableCellEllipsis
}
