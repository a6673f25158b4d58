package handlers

import (
	"context"
	"fmt"

	"property-desk/api"
	"property-desk/app"
	"property-desk/engine"
)

var workSummaryColumns = []engine.Column{
	{Name: "employee_number", Type: engine.Text},
	{Name: "first_name", Type: engine.Text},
	{Name: "last_name", Type: engine.Text},
	{Name: "total_work_records", Type: engine.Integer},
	{Name: "total_duration", Type: engine.Duration},
	{Name: "total_pay", Type: engine.Money},
}

type WorkSummary struct {
	api.Base
}

func NewWorkSummary(ctx context.Context, a *app.App) api.Endpoint {
	h := &WorkSummary{Base: api.NewBase(a.Deps(), api.Info{
		Name:        "WorkSummary",
		Summary:     "Summarizes hours worked and pay per employee for a date range.",
		Description: "Counts work records and totals their duration and pay for every employee within the range. Employees without work in the range are listed with zero totals.",
		Params: []engine.Param{
			{Name: "start_date", Label: "Start date (YYYY-MM-DD or YYYY-MM-DD HH:MM)", Type: engine.Timestamp, Required: true, Format: "timestamp"},
			{Name: "end_date", Label: "End date (YYYY-MM-DD or YYYY-MM-DD HH:MM)", Type: engine.Timestamp, Required: true, Format: "timestamp"},
		},
		Example: "start_date = 2025-01-05, end_date = 2025-01-23",
	})}
	h.Compile(ctx, h.Name(), `
		SELECT e.employee_number, e.first_name, e.last_name,
			COUNT(w.id) AS total_work_records,
			COALESCE(SUM(w.duration_seconds), 0) AS total_duration,
			COALESCE(SUM(w.duration_seconds), 0) * e.hourly_wage / 3600.0 AS total_pay
		FROM employees e
		LEFT JOIN work_records w ON w.employee_id = e.id
			AND w.start_time >= :start_date
			AND w.end_time <= :end_date
		GROUP BY e.id, e.employee_number, e.first_name, e.last_name, e.hourly_wage
		ORDER BY e.employee_number`)
	return h
}

func (h *WorkSummary) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		if _, err := span(values, "start_date", "end_date"); err != nil {
			return api.Result{}, err
		}
		rows, err := h.Query(ctx, h.Name(), values.Args(h.Info.Params))
		if err != nil {
			return api.Result{}, err
		}
		found, err := engine.ScanRows(rows, workSummaryColumns)
		if err != nil {
			return api.Result{}, err
		}
		start, _ := values.Lookup("start_date")
		end, _ := values.Lookup("end_date")
		return tableResult(fmt.Sprintf("Work summary from %s to %s.", start, end), workSummaryColumns, found), nil
	})
}
