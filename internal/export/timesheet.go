package export

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/Dan9191/worklog-service/internal/models"
)

// Period bounds a timesheet. Nil ends are open.
type Period struct {
	From *time.Time
	To   *time.Time
}

type userSheet struct {
	id       uuid.UUID
	username string
	cents    int64
	entries  []models.WorkLogEntry
}

// Timesheet builds an XML document of entries grouped by user, with
// per-user and grand totals. Users are ordered by username and entries
// keep their input order.
func Timesheet(period Period, entries []models.WorkLogEntry, generatedAt time.Time) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("timesheet")
	if period.From != nil {
		root.CreateAttr("from", period.From.Format(models.DateLayout))
	}
	if period.To != nil {
		root.CreateAttr("to", period.To.Format(models.DateLayout))
	}
	root.CreateAttr("generatedAt", generatedAt.UTC().Format(time.RFC3339))

	var total int64
	for _, sheet := range groupByUser(entries) {
		total += sheet.cents

		u := root.CreateElement("user")
		u.CreateAttr("id", sheet.id.String())
		u.CreateAttr("username", sheet.username)
		u.CreateAttr("totalHours", formatCents(sheet.cents))

		for _, e := range sheet.entries {
			el := u.CreateElement("entry")
			el.CreateAttr("id", e.ID.String())
			el.CreateAttr("date", e.WorkDate)
			el.CreateAttr("projectId", e.ProjectID.String())
			el.CreateAttr("project", e.ProjectName)
			el.CreateAttr("hours", formatCents(toCents(e.Hours)))
			if e.Notes != nil && *e.Notes != "" {
				el.CreateElement("notes").SetText(*e.Notes)
			}
		}
	}
	root.CreateAttr("totalHours", formatCents(total))

	doc.Indent(2)
	return doc
}

// WriteTimesheet renders the timesheet to w
func WriteTimesheet(w io.Writer, period Period, entries []models.WorkLogEntry, generatedAt time.Time) error {
	if _, err := Timesheet(period, entries, generatedAt).WriteTo(w); err != nil {
		return fmt.Errorf("failed to write timesheet: %w", err)
	}
	return nil
}

func groupByUser(entries []models.WorkLogEntry) []*userSheet {
	byID := make(map[uuid.UUID]*userSheet)
	var sheets []*userSheet
	for _, e := range entries {
		sheet, ok := byID[e.UserID]
		if !ok {
			sheet = &userSheet{id: e.UserID, username: e.Username}
			byID[e.UserID] = sheet
			sheets = append(sheets, sheet)
		}
		sheet.cents += toCents(e.Hours)
		sheet.entries = append(sheet.entries, e)
	}
	sort.SliceStable(sheets, func(i, j int) bool {
		return sheets[i].username < sheets[j].username
	})
	return sheets
}

// Hours are summed in hundredths so totals do not drift.
func toCents(hours float64) int64 {
	return int64(math.Round(hours * 100))
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
