package handlers

import (
	"context"
	"fmt"
	"strings"

	"property-desk/api"
	"property-desk/app"
	"property-desk/engine"

	"github.com/jmoiron/sqlx"
)

type constructor func(ctx context.Context, a *app.App) api.Endpoint

// catalogue maps endpoint names, as used in the menu layout, to constructors.
var catalogue = map[string]constructor{
	"ListClients":            NewListClients,
	"RetrieveClient":         NewRetrieveClient,
	"CreateClient":           NewCreateClient,
	"UpdateClient":           NewUpdateClient,
	"DeactivateClient":       NewDeactivateClient,
	"ListProperties":         NewListProperties,
	"DetailProperty":         NewDetailProperty,
	"CreateProperty":         NewCreateProperty,
	"UpdateProperty":         NewUpdateProperty,
	"UpdateClientProperties": NewUpdateClientProperties,
	"ListEmployees":          NewListEmployees,
	"CreateEmployee":         NewCreateEmployee,
	"EditEmployee":           NewEditEmployee,
	"AssignRecurringService": NewAssignRecurringService,
	"UpdateService":          NewUpdateService,
	"ListServices":           NewListServices,
	"LogWork":                NewLogWork,
	"ListWorkRecords":        NewListWorkRecords,
	"WorkSummary":            NewWorkSummary,
}

// Names returns every endpoint name the catalogue can build.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	return names
}

// Register builds every endpoint named in layout, compiling its templates,
// and returns the populated registry. Endpoints whose templates fail to
// compile are still registered and report themselves unavailable.
func Register(ctx context.Context, a *app.App, layout *api.Layout) (*api.Registry, error) {
	reg := api.NewRegistry(layout.Names()...)
	for _, c := range layout.Categories {
		for _, name := range c.Endpoints {
			build, ok := catalogue[name]
			if !ok {
				return nil, fmt.Errorf("layout names unknown endpoint %s", name)
			}
			if err := reg.Register(c.Name, build(ctx, a)); err != nil {
				return nil, err
			}
		}
	}
	a.Logger.Debug("Endpoints registered",
		"endpoints", reg.Len(),
		"templates", a.Templates.Len(),
	)
	return reg, nil
}

// queryRows runs stmt and scans every returned row.
func queryRows(ctx context.Context, stmt *sqlx.NamedStmt, args map[string]any, projection []engine.Column) ([]engine.Row, error) {
	rows, err := stmt.QueryxContext(ctx, args)
	if err != nil {
		return nil, err
	}
	return engine.ScanRows(rows, projection)
}

func tableResult(message string, projection []engine.Column, rows []engine.Row) api.Result {
	columns := make([]string, len(projection))
	for i, c := range projection {
		columns[i] = c.Name
	}
	return api.Result{Message: message, Columns: columns, Rows: rows}
}

func listMessage(rows []engine.Row, noun string) string {
	switch len(rows) {
	case 0:
		return fmt.Sprintf("No %ss found.", noun)
	case 1:
		return fmt.Sprintf("1 %s found.", noun)
	default:
		return fmt.Sprintf("%d %ss found.", len(rows), noun)
	}
}

// withDefault specifies name as v when the caller left it blank.
func withDefault(values engine.FieldValues, name string, v any) {
	if !values[name].Specified() {
		values[name] = engine.Set(v)
	}
}

// selectList renders the projection as a select list, each name prefixed with prefix.
func selectList(projection []engine.Column, prefix string) string {
	cols := make([]string, len(projection))
	for i, c := range projection {
		cols[i] = prefix + c.Name
	}
	return strings.Join(cols, ", ")
}
