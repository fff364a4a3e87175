package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/iudanet/notifsync/internal/models"
)

// maxSubjectWidth обрезает длинные URI в таблице
const maxSubjectWidth = 48

func newTable(tty bool) table.Writer {
	t := table.NewWriter()
	if tty {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleLight)
		t.Style().Options.SeparateRows = false
	}
	t.Style().Format.Footer = text.FormatDefault
	t.Style().Title.Format = text.FormatDefault
	return t
}

func renderLimits(limits []LimitStatus, tty bool) string {
	t := newTable(tty)
	t.SetTitle("Rate Limits")
	t.AppendHeader(table.Row{"Class", "Capacity", "Window", "Queue", "Tokens"})
	for _, l := range limits {
		t.AppendRow(table.Row{l.Class, l.Capacity, l.Window, l.MaxQueueSize, l.Tokens})
	}
	return t.Render() + "\n"
}

func renderItems(items []models.Item, offset int, tty bool) string {
	t := newTable(tty)
	t.AppendHeader(table.Row{"#", "Indexed", "Reason", "Author", "Subject", "Read"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, WidthMax: maxSubjectWidth, WidthMaxEnforcer: text.Trim},
	})

	for i, item := range items {
		read := ""
		if item.IsRead {
			read = "✓"
		}
		t.AppendRow(table.Row{
			offset + i + 1,
			item.IndexedAt.Local().Format(time.DateTime),
			string(item.Reason),
			authorLabel(item.Author),
			subjectOf(item),
			read,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d item(s)", len(items)), ""})

	return t.Render() + "\n"
}

func authorLabel(a models.Author) string {
	switch {
	case a.Handle != "" && a.DisplayName != "":
		return fmt.Sprintf("%s (@%s)", a.DisplayName, a.Handle)
	case a.Handle != "":
		return "@" + a.Handle
	default:
		return a.DID
	}
}

func subjectOf(item models.Item) string {
	if item.ReasonSubject != "" {
		return item.ReasonSubject
	}
	return item.URI
}

// describeItem is the one-line form used by watch.
func describeItem(item models.Item) string {
	var b strings.Builder
	b.WriteString(string(item.Reason))
	b.WriteString(" from ")
	b.WriteString(authorLabel(item.Author))
	if item.ReasonSubject != "" {
		b.WriteString(" on ")
		b.WriteString(item.ReasonSubject)
	}
	return b.String()
}
