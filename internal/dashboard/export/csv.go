// Package export serialises dashboard and action data for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/atlas-qms/atlas-qms/internal/actions"
	"github.com/atlas-qms/atlas-qms/internal/dashboard"
)

// WriteOverviewCSV serialises the per-service breakdown to CSV.
func WriteOverviewCSV(w io.Writer, overview dashboard.Overview) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Service", "Total", "Open", "Late", "Closed", "Completion Rate"}); err != nil {
		return err
	}
	for _, svc := range overview.Services {
		if err := writer.Write([]string{
			svc.Name,
			strconv.Itoa(svc.Total),
			strconv.Itoa(svc.Open),
			strconv.Itoa(svc.Late),
			strconv.Itoa(svc.Closed),
			formatFloat(svc.CompletionRate),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteActionsCSV emits one row per action for offline review.
func WriteActionsCSV(w io.Writer, items []actions.Action) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"ID", "Title", "Kind", "Status", "Progress", "Pilot", "Due Date", "Completed At", "Validated At"}); err != nil {
		return err
	}
	for _, a := range items {
		if err := writer.Write([]string{
			a.ID.String(),
			a.Title,
			string(a.Kind),
			string(a.Status),
			strconv.Itoa(a.Progress),
			a.PilotID.String(),
			formatDate(a.DueDate),
			formatDate(a.CompletedAt),
			formatDate(a.ValidatedAt),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
