package handlers

import (
	"context"
	"fmt"
	"time"

	"property-desk/api"
	"property-desk/app"
	"property-desk/database"
	"property-desk/engine"

	"github.com/jmoiron/sqlx"
)

const timestampLayout = "2006-01-02 15:04:05"

var workColumns = []engine.Column{
	{Name: "id", Type: engine.Integer},
	{Name: "service_number", Type: engine.Integer},
	{Name: "start_time", Type: engine.Timestamp},
	{Name: "end_time", Type: engine.Timestamp},
	{Name: "duration_seconds", Type: engine.Duration},
}

var workListColumns = []engine.Column{
	{Name: "id", Type: engine.Integer},
	{Name: "service_number", Type: engine.Integer},
	{Name: "service_name", Type: engine.Text},
	{Name: "start_time", Type: engine.Timestamp},
	{Name: "end_time", Type: engine.Timestamp},
	{Name: "duration_seconds", Type: engine.Duration},
}

var employeeNumberParam = engine.Param{
	Name: "employee_number", Label: "Employee number", Required: true, Format: "employeenumber",
}

// span returns the seconds between two normalized timestamps, rejecting
// ranges that do not move forward.
func span(values engine.FieldValues, from, to string) (int64, error) {
	rawStart, _ := values.Lookup(from)
	rawEnd, _ := values.Lookup(to)
	start, err := time.Parse(timestampLayout, fmt.Sprint(rawStart))
	if err != nil {
		return 0, &engine.ValidationError{Field: from, Message: fmt.Sprintf("%s is not a valid timestamp", from)}
	}
	end, err := time.Parse(timestampLayout, fmt.Sprint(rawEnd))
	if err != nil {
		return 0, &engine.ValidationError{Field: to, Message: fmt.Sprintf("%s is not a valid timestamp", to)}
	}
	if !end.After(start) {
		return 0, &engine.ValidationError{Field: to, Message: fmt.Sprintf("%s must be after %s", to, from)}
	}
	return int64(end.Sub(start) / time.Second), nil
}

// ==================== LOG ====================

type LogWork struct {
	api.Base
	db *database.DB
}

func NewLogWork(ctx context.Context, a *app.App) api.Endpoint {
	h := &LogWork{db: a.DB, Base: api.NewBase(a.Deps(), api.Info{
		Name:        "LogWork",
		Summary:     "Records time an employee spent on a service.",
		Description: "Creates a work record for an employee and service. A service still marked Scheduled moves to In Progress.",
		Params: []engine.Param{
			employeeNumberParam,
			serviceNumberParam,
			{Name: "start_time", Label: "Start time (YYYY-MM-DD HH:MM)", Type: engine.Timestamp, Required: true, Format: "timestamp"},
			{Name: "end_time", Label: "End time (YYYY-MM-DD HH:MM)", Type: engine.Timestamp, Required: true, Format: "timestamp"},
		},
		Example: "employee_number = E0001, service_number = 1, start_time = 2025-01-05 08:00, end_time = 2025-01-05 10:30",
	})}
	h.Compile(ctx, h.Name()+".record", `
		INSERT INTO work_records (employee_id, service_number, start_time, end_time, duration_seconds)
		VALUES (:employee_id, :service_number, :start_time, :end_time, :duration_seconds)
		RETURNING `+selectList(workColumns, ""))
	h.Compile(ctx, h.Name()+".start", `
		UPDATE recurring_services SET order_status = 'In Progress'
		WHERE service_number = :service_number AND order_status = 'Scheduled'`)
	return h
}

func (h *LogWork) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		duration, err := span(values, "start_time", "end_time")
		if err != nil {
			return api.Result{}, err
		}
		employee, _ := values.Lookup("employee_number")
		service, _ := values.Lookup("service_number")

		var logged []engine.Row
		err = engine.RunInTx(ctx, h.db, h.Name(), func(ctx context.Context, tx *sqlx.Tx) error {
			repo := database.NewRepository(tx)
			employeeID, err := repo.EmployeeID(ctx, fmt.Sprint(employee))
			if err != nil {
				return err
			}
			status, err := repo.ServiceStatus(ctx, service.(int64))
			if err != nil {
				return err
			}

			record, err := h.Stmt(ctx, tx, h.Name()+".record")
			if err != nil {
				return err
			}
			args := values.Args(h.Info.Params)
			args["employee_id"] = employeeID
			args["duration_seconds"] = duration
			if logged, err = queryRows(ctx, record, args, workColumns); err != nil {
				return err
			}

			if status != "Scheduled" {
				return nil
			}
			start, err := h.Stmt(ctx, tx, h.Name()+".start")
			if err != nil {
				return err
			}
			_, err = start.ExecContext(ctx, map[string]any{"service_number": service})
			return err
		})
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(fmt.Sprintf("Logged %s for employee %s on service %v.", engine.FormatInterval(duration), employee, service),
			workColumns, logged), nil
	})
}

// ==================== LIST ====================

type ListWorkRecords struct {
	api.Base
	db *database.DB
}

func NewListWorkRecords(ctx context.Context, a *app.App) api.Endpoint {
	h := &ListWorkRecords{db: a.DB, Base: api.NewBase(a.Deps(), api.Info{
		Name:        "ListWorkRecords",
		Summary:     "Lists an employee's work records.",
		Description: "Retrieves the work records of one employee, optionally limited to records starting at or after 'from' and ending at or before 'to'.",
		Params: []engine.Param{
			employeeNumberParam,
			{Name: "from", Label: "From (YYYY-MM-DD [HH:MM], blank for no limit)", Type: engine.Timestamp, Format: "timestamp"},
			{Name: "to", Label: "To (YYYY-MM-DD [HH:MM], blank for no limit)", Type: engine.Timestamp, Format: "timestamp"},
		},
		Example: "employee_number = E0001, from = 2025-01-01, to = 2025-02-01",
	})}
	h.Compile(ctx, h.Name(), `
		SELECT w.id, w.service_number, s.service_name, w.start_time, w.end_time, w.duration_seconds
		FROM work_records w
		JOIN employees e ON e.id = w.employee_id
		JOIN recurring_services s ON s.service_number = w.service_number
		WHERE e.employee_number = :employee_number
		  AND (NOT :from_set OR w.start_time >= :from)
		  AND (NOT :to_set OR w.end_time <= :to)
		ORDER BY w.start_time, w.id`)
	return h
}

func (h *ListWorkRecords) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		rows, err := h.Query(ctx, h.Name(), values.Args(h.Info.Params))
		if err != nil {
			return api.Result{}, err
		}
		found, err := engine.ScanRows(rows, workListColumns)
		if err != nil {
			return api.Result{}, err
		}
		if len(found) == 0 {
			employee, _ := values.Lookup("employee_number")
			if _, err := database.NewRepository(h.db).EmployeeID(ctx, fmt.Sprint(employee)); err != nil {
				return api.Result{}, err
			}
		}
		return tableResult(listMessage(found, "work record"), workListColumns, found), nil
	})
}
