package handlers

import (
	"context"
	"fmt"
	"strings"

	"property-desk/api"
	"property-desk/app"
	"property-desk/database"
	"property-desk/engine"

	"github.com/jmoiron/sqlx"
)

var employeeColumns = []engine.Column{
	{Name: "employee_number", Type: engine.Text},
	{Name: "first_name", Type: engine.Text},
	{Name: "last_name", Type: engine.Text},
	{Name: "phone_number", Type: engine.Text},
	{Name: "email", Type: engine.Text},
	{Name: "hire_date", Type: engine.Date},
	{Name: "hourly_wage", Type: engine.Money},
	{Name: "deactivated_date", Type: engine.Date},
}

// ==================== LIST ====================

type ListEmployees struct {
	api.Base
}

func NewListEmployees(ctx context.Context, a *app.App) api.Endpoint {
	h := &ListEmployees{Base: api.NewBase(a.Deps(), api.Info{
		Name:        "ListEmployees",
		Summary:     "Lists employees with optional filters.",
		Description: "Retrieves employee records. An employee is active while it has no deactivated date. Name filters ignore case.",
		Params: []engine.Param{
			{Name: "active", Label: "Active filter (true/false, blank for all)", Type: engine.Boolean},
			{Name: "employee_number", Label: "Employee number filter (blank for all)", Format: "employeenumber"},
			{Name: "first_name", Label: "First name filter (blank for all)"},
			{Name: "last_name", Label: "Last name filter (blank for all)"},
		},
		Example: "active = true, last_name = Lee",
	})}
	h.Compile(ctx, h.Name(), `
		SELECT `+selectList(employeeColumns, "")+`
		FROM employees
		WHERE (NOT :active_set OR (deactivated_date IS NULL) = :active)
		  AND (NOT :employee_number_set OR employee_number = :employee_number)
		  AND (NOT :first_name_set OR LOWER(first_name) = LOWER(:first_name))
		  AND (NOT :last_name_set OR LOWER(last_name) = LOWER(:last_name))
		ORDER BY employee_number`)
	return h
}

func (h *ListEmployees) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		rows, err := h.Query(ctx, h.Name(), values.Args(h.Info.Params))
		if err != nil {
			return api.Result{}, err
		}
		found, err := engine.ScanRows(rows, employeeColumns)
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(listMessage(found, "employee"), employeeColumns, found), nil
	})
}

// ==================== CREATE ====================

type CreateEmployee struct {
	api.Base
	db *database.DB
}

func NewCreateEmployee(ctx context.Context, a *app.App) api.Endpoint {
	h := &CreateEmployee{db: a.DB, Base: api.NewBase(a.Deps(), api.Info{
		Name:        "CreateEmployee",
		Summary:     "Hires a new employee with the next employee number.",
		Description: "Creates an employee record. The employee number is generated as E followed by four digits.",
		Params: []engine.Param{
			{Name: "first_name", Label: "Employee's first name", Required: true},
			{Name: "last_name", Label: "Employee's last name", Required: true},
			{Name: "phone_number", Label: "Employee's phone number (XXX-XXX-XXXX)", Required: true, Format: "phone"},
			{Name: "email", Label: "Employee's email", Required: true, Format: "email"},
			{Name: "hire_date", Label: "Hire date (YYYY-MM-DD)", Type: engine.Date, Required: true, Format: "dateformat"},
			{Name: "hourly_wage", Label: "Hourly wage", Type: engine.Money, Required: true},
		},
		Example: "first_name = Ana, last_name = Lee, phone_number = 555-000-1111, email = ana@example.com, hire_date = 2025-01-06, hourly_wage = 24.50",
	})}
	h.Compile(ctx, h.Name(), `
		INSERT INTO employees (employee_number, first_name, last_name, phone_number, email, hire_date, hourly_wage)
		VALUES (:employee_number, :first_name, :last_name, :phone_number, :email, :hire_date, :hourly_wage)
		RETURNING `+selectList(employeeColumns, ""))
	return h
}

func (h *CreateEmployee) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}

		var created []engine.Row
		err = engine.RunInTx(ctx, h.db, h.Name(), func(ctx context.Context, tx *sqlx.Tx) error {
			number, err := database.NewRepository(tx).NextEmployeeNumber(ctx)
			if err != nil {
				return err
			}
			stmt, err := h.Stmt(ctx, tx, h.Name())
			if err != nil {
				return err
			}
			args := values.Args(h.Info.Params)
			args["employee_number"] = number
			created, err = queryRows(ctx, stmt, args, employeeColumns)
			return err
		})
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(fmt.Sprintf("Employee %s created.", created[0].String("employee_number")), employeeColumns, created), nil
	})
}

// ==================== EDIT ====================

var (
	employeeLocator = engine.Param{
		Name: "employee_number", Label: "Employee number (blank to search by name)", Format: "employeenumber",
	}
	employeeNameLocator = []engine.Param{
		{Name: "current_first_name", Label: "Employee's current first name", Required: true},
		{Name: "current_last_name", Label: "Employee's current last name", Required: true},
	}
	editEmployeeFields = []engine.Param{
		{Name: "first_name", Label: "New first name (blank to keep)"},
		{Name: "last_name", Label: "New last name (blank to keep)"},
		{Name: "phone_number", Label: "New phone number (blank to keep)", Format: "phone"},
		{Name: "email", Label: "New email (blank to keep)", Format: "email"},
		{Name: "hourly_wage", Label: "New hourly wage (blank to keep)", Type: engine.Money},
		{Name: "hire_date", Label: "New hire date (blank to keep)", Type: engine.Date, Format: "dateformat"},
		{Name: "deactivated_date", Label: "Deactivated date (blank to keep)", Type: engine.Date, Format: "dateformat"},
	}
)

type EditEmployee struct {
	api.Base
	db *database.DB
}

func NewEditEmployee(ctx context.Context, a *app.App) api.Endpoint {
	params := append([]engine.Param{employeeLocator}, employeeNameLocator...)
	h := &EditEmployee{db: a.DB, Base: api.NewBase(a.Deps(), api.Info{
		Name:        "EditEmployee",
		Summary:     "Edits an employee found by number or by name.",
		Description: "Locates one employee by employee number, or by first and last name when the number is left blank, then updates the fields that are given.",
		Params:      append(params, editEmployeeFields...),
		Example:     "employee_number = E0001, hourly_wage = 26.00",
	})}
	h.Compile(ctx, h.Name(), `
		UPDATE employees SET
			`+engine.PreserveAssignments(editEmployeeFields...)+`
		WHERE employee_number = :employee_number
		RETURNING `+selectList(employeeColumns, ""))
	return h
}

func (h *EditEmployee) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		locator, err := p.Collect(ctx, []engine.Param{employeeLocator})
		if err != nil {
			return api.Result{}, err
		}
		number, byNumber := locator.Lookup("employee_number")

		var names engine.FieldValues
		if !byNumber {
			if names, err = p.Collect(ctx, employeeNameLocator); err != nil {
				return api.Result{}, err
			}
		}

		values, err := p.Collect(ctx, editEmployeeFields)
		if err != nil {
			return api.Result{}, err
		}
		cs, err := engine.Merge(h.Name(), nil, editEmployeeFields, values)
		if err != nil {
			return api.Result{}, err
		}

		var updated []engine.Row
		err = engine.RunInTx(ctx, h.db, h.Name(), func(ctx context.Context, tx *sqlx.Tx) error {
			if !byNumber {
				first, _ := names.Lookup("current_first_name")
				last, _ := names.Lookup("current_last_name")
				resolved, err := resolveEmployeeByName(ctx, database.NewRepository(tx), fmt.Sprint(first), fmt.Sprint(last))
				if err != nil {
					return err
				}
				number = resolved
			}
			stmt, err := h.Stmt(ctx, tx, h.Name())
			if err != nil {
				return err
			}
			args := cs.Args(editEmployeeFields)
			args["employee_number"] = number
			updated, err = queryRows(ctx, stmt, args, employeeColumns)
			if err != nil {
				return err
			}
			if len(updated) == 0 {
				return &engine.NotFoundError{Entity: "employee", Key: fmt.Sprint(number)}
			}
			return nil
		})
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(fmt.Sprintf("Employee %s updated.", updated[0].String("employee_number")), employeeColumns, updated), nil
	})
}

func resolveEmployeeByName(ctx context.Context, repo *database.Repository, first, last string) (string, error) {
	numbers, err := repo.EmployeeNumbersByName(ctx, first, last)
	if err != nil {
		return "", err
	}
	switch len(numbers) {
	case 0:
		return "", &engine.NotFoundError{Entity: "employee", Key: first + " " + last}
	case 1:
		return numbers[0], nil
	default:
		return "", &engine.ValidationError{
			Field:   "employee_number",
			Message: fmt.Sprintf("%s %s matches employees %s; enter the employee number instead", first, last, strings.Join(numbers, ", ")),
		}
	}
}
