package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"property-desk/api"
	"property-desk/app"
	"property-desk/database"
	"property-desk/engine"

	"github.com/jmoiron/sqlx"
)

var clientColumns = []engine.Column{
	{Name: "account_number", Type: engine.Text},
	{Name: "first_name", Type: engine.Text},
	{Name: "last_name", Type: engine.Text},
	{Name: "phone_number", Type: engine.Text},
	{Name: "email", Type: engine.Text},
	{Name: "active_status", Type: engine.Boolean},
}

var accountNumberParam = engine.Param{
	Name: "account_number", Label: "Client account number", Required: true, Format: "accountnumber",
}

// ==================== LIST ====================

type ListClients struct {
	api.Base
}

func NewListClients(ctx context.Context, a *app.App) api.Endpoint {
	h := &ListClients{Base: api.NewBase(a.Deps(), api.Info{
		Name:        "ListClients",
		Summary:     "Lists clients, optionally filtered by active status.",
		Description: "Retrieves client records ordered by name. Leave the filter blank to list every client.",
		Params: []engine.Param{
			{Name: "active_status", Label: "Active status filter (true/false, blank for all)", Type: engine.Boolean},
		},
		Example: "active_status = true",
	})}
	h.Compile(ctx, h.Name(), `
		SELECT `+selectList(clientColumns, "")+`
		FROM clients
		WHERE (NOT :active_status_set OR active_status = :active_status)
		ORDER BY last_name, first_name, account_number`)
	return h
}

func (h *ListClients) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		rows, err := h.Query(ctx, h.Name(), values.Args(h.Info.Params))
		if err != nil {
			return api.Result{}, err
		}
		found, err := engine.ScanRows(rows, clientColumns)
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(listMessage(found, "client"), clientColumns, found), nil
	})
}

// ==================== RETRIEVE ====================

type RetrieveClient struct {
	api.Base
}

func NewRetrieveClient(ctx context.Context, a *app.App) api.Endpoint {
	h := &RetrieveClient{Base: api.NewBase(a.Deps(), api.Info{
		Name:        "RetrieveClient",
		Summary:     "Shows one client by account number.",
		Description: "Retrieves a single client record by its account number.",
		Params:      []engine.Param{accountNumberParam},
		Example:     "account_number = C0001",
	})}
	h.Compile(ctx, h.Name(), `
		SELECT `+selectList(clientColumns, "")+`
		FROM clients
		WHERE account_number = :account_number`)
	return h
}

func (h *RetrieveClient) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		rows, err := h.Query(ctx, h.Name(), values.Args(h.Info.Params))
		if err != nil {
			return api.Result{}, err
		}
		found, err := engine.ScanRows(rows, clientColumns)
		if err != nil {
			return api.Result{}, err
		}
		if len(found) == 0 {
			account, _ := values.Lookup("account_number")
			return api.Result{}, &engine.NotFoundError{Entity: "client", Key: fmt.Sprint(account)}
		}
		return tableResult("Client found.", clientColumns, found), nil
	})
}

// ==================== CREATE ====================

type CreateClient struct {
	api.Base
	db *database.DB
}

func NewCreateClient(ctx context.Context, a *app.App) api.Endpoint {
	h := &CreateClient{db: a.DB, Base: api.NewBase(a.Deps(), api.Info{
		Name:        "CreateClient",
		Summary:     "Creates a new client with the next account number.",
		Description: "Creates a client record. The account number is generated as C followed by four digits.",
		Params: []engine.Param{
			{Name: "first_name", Label: "Client's first name", Required: true},
			{Name: "last_name", Label: "Client's last name", Required: true},
			{Name: "phone_number", Label: "Client's phone number (XXX-XXX-XXXX)", Required: true, Format: "phone"},
			{Name: "email", Label: "Client's email", Format: "email"},
			{Name: "active_status", Label: "Active status (true/false, default true)", Type: engine.Boolean},
		},
		Example: "first_name = John, last_name = Doe, phone_number = 555-123-4567, email = john@example.com",
	})}
	h.Compile(ctx, h.Name(), `
		INSERT INTO clients (account_number, first_name, last_name, phone_number, email, active_status)
		VALUES (:account_number, :first_name, :last_name, :phone_number, :email, :active_status)
		RETURNING `+selectList(clientColumns, ""))
	return h
}

func (h *CreateClient) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		withDefault(values, "active_status", true)

		var created []engine.Row
		err = engine.RunInTx(ctx, h.db, h.Name(), func(ctx context.Context, tx *sqlx.Tx) error {
			account, err := database.NewRepository(tx).NextAccountNumber(ctx)
			if err != nil {
				return err
			}
			stmt, err := h.Stmt(ctx, tx, h.Name())
			if err != nil {
				return err
			}
			args := values.Args(h.Info.Params)
			args["account_number"] = account
			created, err = queryRows(ctx, stmt, args, clientColumns)
			return err
		})
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(fmt.Sprintf("Client %s created.", created[0].String("account_number")), clientColumns, created), nil
	})
}

// ==================== UPDATE ====================

var updateClientFields = []engine.Param{
	{Name: "first_name", Label: "New first name (blank to keep)"},
	{Name: "last_name", Label: "New last name (blank to keep)"},
	{Name: "phone_number", Label: "New phone number (blank to keep)", Format: "phone"},
	{Name: "email", Label: "New email (blank to keep)", Format: "email"},
	{Name: "active_status", Label: "New active status (true/false, blank to keep)", Type: engine.Boolean},
}

type UpdateClient struct {
	api.Base
	db *database.DB
}

func NewUpdateClient(ctx context.Context, a *app.App) api.Endpoint {
	h := &UpdateClient{db: a.DB, Base: api.NewBase(a.Deps(), api.Info{
		Name:        "UpdateClient",
		Summary:     "Updates an existing client's information.",
		Description: "Updates specific details of an existing client. Fields left blank keep their current value.",
		Params:      append([]engine.Param{accountNumberParam}, updateClientFields...),
		Example:     "account_number = C0001, phone_number = 555-999-0000",
	})}
	h.Compile(ctx, h.Name(), `
		UPDATE clients SET
			`+engine.PreserveAssignments(updateClientFields...)+`
		WHERE account_number = :account_number
		RETURNING `+selectList(clientColumns, ""))
	return h
}

func (h *UpdateClient) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		account, _ := values.Lookup("account_number")

		cs, err := engine.Merge(h.Name(), map[string]any{"account_number": account}, h.Info.Params, values)
		if err != nil {
			return api.Result{}, err
		}

		var updated []engine.Row
		err = engine.RunInTx(ctx, h.db, h.Name(), func(ctx context.Context, tx *sqlx.Tx) error {
			stmt, err := h.Stmt(ctx, tx, h.Name())
			if err != nil {
				return err
			}
			updated, err = queryRows(ctx, stmt, cs.Args(h.Info.Params), clientColumns)
			if err != nil {
				return err
			}
			if len(updated) == 0 {
				return &engine.NotFoundError{Entity: "client", Key: fmt.Sprint(account)}
			}
			return nil
		})
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(fmt.Sprintf("Client %s updated.", account), clientColumns, updated), nil
	})
}

// ==================== DEACTIVATE ====================

type DeactivateClient struct {
	api.Base
	db *database.DB
}

func NewDeactivateClient(ctx context.Context, a *app.App) api.Endpoint {
	h := &DeactivateClient{db: a.DB, Base: api.NewBase(a.Deps(), api.Info{
		Name:        "DeactivateClient",
		Summary:     "Deactivates a client and all of its properties.",
		Description: "Marks the client inactive and every property it owns inactive, as one change.",
		Params:      []engine.Param{accountNumberParam},
		Example:     "account_number = C0002",
	})}
	h.Compile(ctx, h.Name()+".client", `
		UPDATE clients SET active_status = :active_status
		WHERE account_number = :account_number
		RETURNING id`)
	h.Compile(ctx, h.Name()+".properties", `
		UPDATE properties SET active_status = :active_status
		WHERE client_id = :client_id
		RETURNING `+selectList(propertyColumns, ""))
	return h
}

func (h *DeactivateClient) Execute(ctx context.Context, prompt api.PromptSource, out api.Renderer) api.Result {
	return h.Run(ctx, prompt, out, func(ctx context.Context, p *api.Prompter) (api.Result, error) {
		values, err := p.Collect(ctx, h.Info.Params)
		if err != nil {
			return api.Result{}, err
		}
		account, _ := values.Lookup("account_number")

		var properties []engine.Row
		err = engine.RunInTx(ctx, h.db, h.Name(), func(ctx context.Context, tx *sqlx.Tx) error {
			client, err := h.Stmt(ctx, tx, h.Name()+".client")
			if err != nil {
				return err
			}
			var clientID int64
			err = client.GetContext(ctx, &clientID, map[string]any{"account_number": account, "active_status": false})
			if errors.Is(err, sql.ErrNoRows) {
				return &engine.NotFoundError{Entity: "client", Key: fmt.Sprint(account)}
			}
			if err != nil {
				return err
			}

			stmt, err := h.Stmt(ctx, tx, h.Name()+".properties")
			if err != nil {
				return err
			}
			properties, err = queryRows(ctx, stmt, map[string]any{"client_id": clientID, "active_status": false}, propertyColumns)
			return err
		})
		if err != nil {
			return api.Result{}, err
		}
		return tableResult(
			fmt.Sprintf("Client %s deactivated along with %d properties.", account, len(properties)),
			propertyColumns, properties), nil
	})
}
