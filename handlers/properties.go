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

var propertyColumns = []engine.Column{
	{Name: "property_number", Type: engine.Text},
	{Name: "property_type", Type: engine.Text},
	{Name: "street_address", Type: engine.Text},
	{Name: "street_address2", Type: engine.Text},
	{Name: "city", Type: engine.Text},
	{Name: "state", Type: engine.Text},
	{Name: "zipcode", Type: engine.Text},
	{Name: "active_status", Type: engine.Boolean},
}

var propertyDetailColumns = append(append([]engine.Column(nil), propertyColumns...),
	engine.Column{Name: "account_number", Type: engine.Text},
	engine.Column{Name: "first_name", Type: engine.Text},
	engine.Column{Name: "last_name", Type: engine.Text},
	engine.Column{Name: "phone_number", Type: engine.Text},
)

var propertyNumberParam = engine.Param{
	Name: "property_number", Label: "Property number", Required: true, Format: "propertynumber",
}

const propertyTypeFormat = "oneof=Residential Commercial"

// ==================== LIST ====================

type ListProperties struct {
	api.Base
}

func NewListProperties(ctx context.Context, a *app.App) api.Endpoint {
	h := &ListProperties{Base: api.NewBase(a.Deps(), api.Info{
		Name:        "ListProperties",
		Summary:     "Lists properties, optionally filtered by active status and city.",
		Description: "Retrieves property records. Both filters are optional; the city match ignores case.",
		Params: []engine.Param{
			{Name: "active_status", Label: "Active status filter (true/false, blank for all)", Type: engine.Boolean},
			{Name: "city", Label: "City filter (blank for all)"},
		},
		Example: "active_status = true, city = Seattle",
	})}
	h.Compile(ctx, h.Name(), `
		SELECT `+selectList(propertyColumns, "")+`
		FROM properties
		WHERE (NOT :active_status_set OR active_status = :active_status)
		  AND (NOT :city_set OR LOWER(city) = LOWER(:city))
		ORDER BY property_number`)
	return h
}

func (h *ListProperties) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		rows, err := h.Query(ctx, h.Name(), values.Args(h.Info.Params))
		if err != nil {
			return api.Result{}, err
		}
		found, err := engine.ScanRows(rows, propertyColumns)
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(listMessage(found, "property"), propertyColumns, found), nil
	})
}

// ==================== DETAIL ====================

type DetailProperty struct {
	api.Base
}

func NewDetailProperty(ctx context.Context, a *app.App) api.Endpoint {
	h := &DetailProperty{Base: api.NewBase(a.Deps(), api.Info{
		Name:        "DetailProperty",
		Summary:     "Shows a property together with its owning client.",
		Description: "Retrieves one property by number, joined with the client that owns it.",
		Params:      []engine.Param{propertyNumberParam},
		Example:     "property_number = P001",
	})}
	h.Compile(ctx, h.Name(), `
		SELECT `+selectList(propertyColumns, "p.")+`,
			c.account_number, c.first_name, c.last_name, c.phone_number
		FROM properties p
		JOIN clients c ON c.id = p.client_id
		WHERE p.property_number = :property_number`)
	return h
}

func (h *DetailProperty) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		rows, err := h.Query(ctx, h.Name(), values.Args(h.Info.Params))
		if err != nil {
			return api.Result{}, err
		}
		found, err := engine.ScanRows(rows, propertyDetailColumns)
		if err != nil {
			return api.Result{}, err
		}
		if len(found) == 0 {
			number, _ := values.Lookup("property_number")
			return api.Result{}, &engine.NotFoundError{Entity: "property", Key: fmt.Sprint(number)}
		}
		return tableResult("Property found.", propertyDetailColumns, found), nil
	})
}

// ==================== CREATE ====================

type CreateProperty struct {
	api.Base
	db *database.DB
}

func NewCreateProperty(ctx context.Context, a *app.App) api.Endpoint {
	h := &CreateProperty{db: a.DB, Base: api.NewBase(a.Deps(), api.Info{
		Name:        "CreateProperty",
		Summary:     "Adds a property to an existing client.",
		Description: "Creates a property owned by the client with the given account number. The property number is generated as P followed by three digits.",
		Params: []engine.Param{
			accountNumberParam,
			{Name: "property_type", Label: "Property type (Residential/Commercial)", Required: true, Format: propertyTypeFormat},
			{Name: "street_address", Label: "Street address", Required: true},
			{Name: "street_address2", Label: "Street address line 2 (optional)"},
			{Name: "city", Label: "City", Required: true},
			{Name: "state", Label: "State (two letters)", Required: true, Format: "statecode"},
			{Name: "zipcode", Label: "Zip code", Required: true, Format: "zipcode"},
		},
		Example: "account_number = C0001, property_type = Residential, street_address = 18115 Campus Way NE, city = Bothell, state = WA, zipcode = 98011",
	})}
	h.Compile(ctx, h.Name(), `
		INSERT INTO properties (property_number, client_id, property_type, street_address, street_address2, city, state, zipcode)
		VALUES (:property_number, :client_id, :property_type, :street_address, :street_address2, :city, :state, :zipcode)
		RETURNING `+selectList(propertyColumns, ""))
	return h
}

func (h *CreateProperty) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		account, _ := values.Lookup("account_number")

		var created []engine.Row
		err = engine.RunInTx(ctx, h.db, h.Name(), func(ctx context.Context, tx *sqlx.Tx) error {
			repo := database.NewRepository(tx)
			clientID, err := repo.ClientID(ctx, fmt.Sprint(account))
			if err != nil {
				return err
			}
			number, err := repo.NextPropertyNumber(ctx)
			if err != nil {
				return err
			}
			stmt, err := h.Stmt(ctx, tx, h.Name())
			if err != nil {
				return err
			}
			args := values.Args(h.Info.Params)
			args["client_id"] = clientID
			args["property_number"] = number
			created, err = queryRows(ctx, stmt, args, propertyColumns)
			return err
		})
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(fmt.Sprintf("Property %s created for client %s.", created[0].String("property_number"), account),
			propertyColumns, created), nil
	})
}

// ==================== UPDATE ====================

var updatePropertyFields = []engine.Param{
	{Name: "property_type", Label: "New property type (blank to keep)", Format: propertyTypeFormat},
	{Name: "street_address", Label: "New street address (blank to keep)"},
	{Name: "street_address2", Label: "New street address line 2 (blank to keep)"},
	{Name: "city", Label: "New city (blank to keep)"},
	{Name: "state", Label: "New state (blank to keep)", Format: "statecode"},
	{Name: "zipcode", Label: "New zip code (blank to keep)", Format: "zipcode"},
	{Name: "active_status", Label: "New active status (true/false, blank to keep)", Type: engine.Boolean},
}

type UpdateProperty struct {
	api.Base
	db *database.DB
}

func NewUpdateProperty(ctx context.Context, a *app.App) api.Endpoint {
	h := &UpdateProperty{db: a.DB, Base: api.NewBase(a.Deps(), api.Info{
		Name:        "UpdateProperty",
		Summary:     "Updates an existing property's details.",
		Description: "Updates specific details of a property. Fields left blank keep their current value.",
		Params:      append([]engine.Param{propertyNumberParam}, updatePropertyFields...),
		Example:     "property_number = P001, city = Kirkland, zipcode = 98033",
	})}
	h.Compile(ctx, h.Name(), `
		UPDATE properties SET
			`+engine.PreserveAssignments(updatePropertyFields...)+`
		WHERE property_number = :property_number
		RETURNING `+selectList(propertyColumns, ""))
	return h
}

func (h *UpdateProperty) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		number, _ := values.Lookup("property_number")

		cs, err := engine.Merge(h.Name(), map[string]any{"property_number": number}, h.Info.Params, values)
		if err != nil {
			return api.Result{}, err
		}

		var updated []engine.Row
		err = engine.RunInTx(ctx, h.db, h.Name(), func(ctx context.Context, tx *sqlx.Tx) error {
			stmt, err := h.Stmt(ctx, tx, h.Name())
			if err != nil {
				return err
			}
			updated, err = queryRows(ctx, stmt, cs.Args(h.Info.Params), propertyColumns)
			if err != nil {
				return err
			}
			if len(updated) == 0 {
				return &engine.NotFoundError{Entity: "property", Key: fmt.Sprint(number)}
			}
			return nil
		})
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(fmt.Sprintf("Property %s updated.", number), propertyColumns, updated), nil
	})
}

// ==================== CLIENT PROPERTIES ====================

type UpdateClientProperties struct {
	api.Base
	db *database.DB
}

func NewUpdateClientProperties(ctx context.Context, a *app.App) api.Endpoint {
	h := &UpdateClientProperties{db: a.DB, Base: api.NewBase(a.Deps(), api.Info{
		Name:        "UpdateClientProperties",
		Summary:     "Sets the active status of every property a client owns.",
		Description: "Updates active_status for all properties belonging to a client and lists the updated properties.",
		Params: []engine.Param{
			accountNumberParam,
			{Name: "active_status", Label: "New active status (true/false)", Type: engine.Boolean, Required: true},
		},
		Example: "account_number = C0002, active_status = false",
	})}
	h.Compile(ctx, h.Name(), `
		UPDATE properties SET active_status = :active_status
		WHERE client_id = :client_id
		RETURNING `+selectList(propertyColumns, ""))
	return h
}

func (h *UpdateClientProperties) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		account, _ := values.Lookup("account_number")

		var updated []engine.Row
		err = engine.RunInTx(ctx, h.db, h.Name(), func(ctx context.Context, tx *sqlx.Tx) error {
			clientID, err := database.NewRepository(tx).ClientID(ctx, fmt.Sprint(account))
			if err != nil {
				return err
			}
			stmt, err := h.Stmt(ctx, tx, h.Name())
			if err != nil {
				return err
			}
			args := values.Args(h.Info.Params)
			args["client_id"] = clientID
			updated, err = queryRows(ctx, stmt, args, propertyColumns)
			return err
		})
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(fmt.Sprintf("%d properties of client %s updated.", len(updated), account),
			propertyColumns, updated), nil
	})
}
