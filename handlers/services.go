package handlers

import (
	"context"
	"fmt"

	"property-desk/api"
	"property-desk/app"
	"property-desk/database"
	"property-desk/engine"

	"github.com/jmoiron/sqlx"
)

var serviceColumns = []engine.Column{
	{Name: "service_number", Type: engine.Integer},
	{Name: "service_name", Type: engine.Text},
	{Name: "allocated_seconds", Type: engine.Duration},
	{Name: "price", Type: engine.Money},
	{Name: "order_status", Type: engine.Text},
}

var serviceListColumns = []engine.Column{
	{Name: "service_number", Type: engine.Integer},
	{Name: "service_type", Type: engine.Text},
	{Name: "service_name", Type: engine.Text},
	{Name: "allocated_seconds", Type: engine.Duration},
	{Name: "price", Type: engine.Money},
	{Name: "order_status", Type: engine.Text},
}

var serviceNumberParam = engine.Param{
	Name: "service_number", Label: "Service number", Type: engine.Integer, Required: true,
}

// ==================== ASSIGN ====================

type AssignRecurringService struct {
	api.Base
	db *database.DB
}

func NewAssignRecurringService(ctx context.Context, a *app.App) api.Endpoint {
	h := &AssignRecurringService{db: a.DB, Base: api.NewBase(a.Deps(), api.Info{
		Name:        "AssignRecurringService",
		Summary:     "Assigns a recurring service to a property.",
		Description: "Creates a recurring service for a property. The property and service type are checked before anything is written.",
		Params: []engine.Param{
			propertyNumberParam,
			{Name: "service_type_code", Label: "Service type code", Required: true},
			{Name: "service_name", Label: "Service name", Required: true},
			{Name: "allocated_man_hours", Label: "Allocated man hours (HH:MM:SS)", Type: engine.Duration, Required: true, Format: "interval"},
			{Name: "price", Label: "Price", Type: engine.Money, Required: true},
		},
		Example: "property_number = P001, service_type_code = L, service_name = Lawn Mowing, allocated_man_hours = 01:00:00, price = 50.00",
	})}
	h.Compile(ctx, h.Name(), `
		INSERT INTO recurring_services (property_id, service_type_id, service_name, allocated_seconds, price)
		VALUES (:property_id, :service_type_id, :service_name, :allocated_man_hours, :price)
		RETURNING `+selectList(serviceColumns, ""))
	return h
}

func (h *AssignRecurringService) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		property, _ := values.Lookup("property_number")
		code, _ := values.Lookup("service_type_code")

		var created []engine.Row
		err = engine.RunInTx(ctx, h.db, h.Name(), func(ctx context.Context, tx *sqlx.Tx) error {
			repo := database.NewRepository(tx)
			propertyID, err := repo.PropertyID(ctx, fmt.Sprint(property))
			if err != nil {
				return err
			}
			typeID, err := repo.ServiceTypeID(ctx, fmt.Sprint(code))
			if err != nil {
				return err
			}
			stmt, err := h.Stmt(ctx, tx, h.Name())
			if err != nil {
				return err
			}
			args := values.Args(h.Info.Params)
			args["property_id"] = propertyID
			args["service_type_id"] = typeID
			created, err = queryRows(ctx, stmt, args, serviceColumns)
			return err
		})
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(fmt.Sprintf("Service %s assigned to property %s.", created[0].String("service_number"), property),
			serviceColumns, created), nil
	})
}

// ==================== UPDATE ====================

// The service type is entered as a code and resolved to its id before the update runs.
var updateServiceFields = []engine.Param{
	{Name: "service_name", Label: "New service name (blank to keep)"},
	{Name: "allocated_man_hours", Label: "New allocated man hours (HH:MM:SS, blank to keep)", Type: engine.Duration, Format: "interval", Column: "allocated_seconds"},
	{Name: "price", Label: "New price (blank to keep)", Type: engine.Money},
	{Name: "service_type_code", Label: "New service type code (blank to keep)", Column: "service_type_id"},
	{Name: "order_status", Label: "New order status (blank to keep)", Format: "orderstatus"},
}

type UpdateService struct {
	api.Base
	db *database.DB
}

func NewUpdateService(ctx context.Context, a *app.App) api.Endpoint {
	h := &UpdateService{db: a.DB, Base: api.NewBase(a.Deps(), api.Info{
		Name:        "UpdateService",
		Summary:     "Updates details of an existing recurring service.",
		Description: "Updates specific details of a recurring service. Fields left blank keep their current value.",
		Params:      append([]engine.Param{serviceNumberParam}, updateServiceFields...),
		Example:     "service_number = 1, service_name = Advanced Lawn Mowing, allocated_man_hours = 02:00:00, price = 100.00",
	})}
	h.Compile(ctx, h.Name(), `
		UPDATE recurring_services SET
			`+engine.PreserveAssignments(updateServiceFields...)+`
		WHERE service_number = :service_number
		RETURNING `+selectList(serviceColumns, ""))
	return h
}

func (h *UpdateService) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		number, _ := values.Lookup("service_number")

		cs, err := engine.Merge(h.Name(), map[string]any{"service_number": number}, h.Info.Params, values)
		if err != nil {
			return api.Result{}, err
		}

		var updated []engine.Row
		err = engine.RunInTx(ctx, h.db, h.Name(), func(ctx context.Context, tx *sqlx.Tx) error {
			args := cs.Args(h.Info.Params)
			if cs.Has("service_type_code") {
				typeID, err := database.NewRepository(tx).ServiceTypeID(ctx, fmt.Sprint(args["service_type_code"]))
				if err != nil {
					return err
				}
				args["service_type_code"] = typeID
			}
			stmt, err := h.Stmt(ctx, tx, h.Name())
			if err != nil {
				return err
			}
			updated, err = queryRows(ctx, stmt, args, serviceColumns)
			if err != nil {
				return err
			}
			if len(updated) == 0 {
				return &engine.NotFoundError{Entity: "service", Key: fmt.Sprint(number)}
			}
			return nil
		})
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(fmt.Sprintf("Service %v updated.", number), serviceColumns, updated), nil
	})
}

// ==================== LIST ====================

type ListServices struct {
	api.Base
	db *database.DB
}

func NewListServices(ctx context.Context, a *app.App) api.Endpoint {
	h := &ListServices{db: a.DB, Base: api.NewBase(a.Deps(), api.Info{
		Name:        "ListServices",
		Summary:     "Lists the recurring services of a property.",
		Description: "Retrieves every recurring service assigned to a property, with its type and order status.",
		Params:      []engine.Param{propertyNumberParam},
		Example:     "property_number = P001",
	})}
	h.Compile(ctx, h.Name(), `
		SELECT s.service_number, st.code AS service_type, s.service_name,
			s.allocated_seconds, s.price, s.order_status
		FROM recurring_services s
		JOIN properties p ON p.id = s.property_id
		JOIN service_types st ON st.id = s.service_type_id
		WHERE p.property_number = :property_number
		ORDER BY s.service_number`)
	return h
}

func (h *ListServices) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		rows, err := h.Query(ctx, h.Name(), values.Args(h.Info.Params))
		if err != nil {
			return api.Result{}, err
		}
		found, err := engine.ScanRows(rows, serviceListColumns)
		if err != nil {
			return api.Result{}, err
		}
		if len(found) == 0 {
			property, _ := values.Lookup("property_number")
			if _, err := database.NewRepository(h.db).PropertyID(ctx, fmt.Sprint(property)); err != nil {
				return api.Result{}, err
			}
		}
		return tableResult(listMessage(found, "service"), serviceListColumns, found), nil
	})
}
