package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/myscheduling/seedload/modules/staffing/domain"
	"github.com/myscheduling/seedload/modules/staffing/reconcile"
)

const (
	outputText = "text"
	outputJSON = "json"

	statusCommitted  = "committed"
	statusDryRun     = "dry_run"
	statusRolledBack = "rolled_back"
)

type loadSummary struct {
	Status string            `json:"status"`
	Input  string            `json:"input"`
	Sheet  string            `json:"sheet,omitempty"`
	Error  string            `json:"error,omitempty"`
	Report *reconcile.Report `json:"report,omitempty"`
}

func writeJSONLine(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return withCode(exitUsage, fmt.Errorf("json encode: %w", err))
	}
	return nil
}

func printCounts(w io.Writer, c domain.Counts) {
	fmt.Fprintf(w, "Employees: %d, Projects: %d, WBS: %d, Assignments: %d, Actual rows: %d, Hours: %s\n",
		c.Employees, c.Projects, c.WBS, c.Assignments, c.Facts, c.Hours.String())
}

func printReportTable(w io.Writer, status string, r *reconcile.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("run %s (%s)", r.RunID, status))
	t.AppendHeader(table.Row{"Entity", "Built", "Written", "Existing", "Skipped"})
	t.AppendRows([]table.Row{
		{"users", r.Built.Employees, r.UsersUpserted, "", ""},
		{"manager links", r.Built.Employees, r.ManagersLinked, "", r.UnresolvedManagers},
		{"projects", r.Built.Projects, r.ProjectsUpserted, "", ""},
		{"wbs", r.Built.WBS, r.WBSUpserted, "", ""},
		{"assignments", r.Built.Assignments, r.AssignmentsInserted, r.AssignmentsExisting, r.AssignmentsUnresolved},
		{"actual hours", r.Built.Facts, r.FactsInserted, r.FactsDuplicate, r.FactsUnresolved},
	})
	t.AppendFooter(table.Row{"duration", r.Duration.String(), "", "", ""})
	t.SetCaption("%d employees loaded as roots (no manager)", r.Roots)
	t.Render()
}
