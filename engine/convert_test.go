package engine_test

import (
	"testing"

	"property-desk/engine"
	"property-desk/validator"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clientParams = []engine.Param{
	{Name: "account_number", Type: engine.Text, Required: true, Format: "accountnumber"},
	{Name: "first_name", Type: engine.Text},
	{Name: "phone_number", Type: engine.Text, Format: "phone"},
	{Name: "active_status", Type: engine.Boolean},
	{Name: "price", Type: engine.Money},
	{Name: "allocated_man_hours", Type: engine.Duration, Format: "interval"},
	{Name: "hire_date", Type: engine.Date, Format: "dateformat"},
	{Name: "start_time", Type: engine.Timestamp, Format: "timestamp"},
}

func TestParse(t *testing.T) {
	v := validator.New()

	tests := []struct {
		name      string
		raw       map[string]string
		wantField string
		check     func(t *testing.T, values engine.FieldValues)
	}{
		{
			name: "Blank optional fields are unspecified",
			raw:  map[string]string{"account_number": " C0001 ", "first_name": "   "},
			check: func(t *testing.T, values engine.FieldValues) {
				got, ok := values.Lookup("account_number")
				require.True(t, ok)
				assert.Equal(t, "C0001", got)
				assert.False(t, values["first_name"].Specified())
				assert.False(t, values["price"].Specified())
			},
		},
		{
			name: "Typed conversions",
			raw: map[string]string{
				"account_number":      "C0001",
				"active_status":       "FALSE",
				"price":               "$1,250.5",
				"allocated_man_hours": "02:15:30",
				"hire_date":           "2024-03-01",
				"start_time":          "2025-01-05 08:30",
			},
			check: func(t *testing.T, values engine.FieldValues) {
				active, _ := values.Lookup("active_status")
				assert.Equal(t, false, active)
				price, _ := values.Lookup("price")
				assert.True(t, decimal.RequireFromString("1250.50").Equal(price.(decimal.Decimal)))
				secs, _ := values.Lookup("allocated_man_hours")
				assert.Equal(t, int64(2*3600+15*60+30), secs)
				date, _ := values.Lookup("hire_date")
				assert.Equal(t, "2024-03-01", date)
				ts, _ := values.Lookup("start_time")
				assert.Equal(t, "2025-01-05 08:30:00", ts)
			},
		},
		{
			name:      "Missing required field",
			raw:       map[string]string{"first_name": "John"},
			wantField: "account_number",
		},
		{
			name:      "Bad phone format",
			raw:       map[string]string{"account_number": "C0001", "phone_number": "5551234567"},
			wantField: "phone_number",
		},
		{
			name:      "Bad boolean",
			raw:       map[string]string{"account_number": "C0001", "active_status": "yes"},
			wantField: "active_status",
		},
		{
			name:      "Negative money",
			raw:       map[string]string{"account_number": "C0001", "price": "-3"},
			wantField: "price",
		},
		{
			name:      "Impossible date",
			raw:       map[string]string{"account_number": "C0001", "hire_date": "2024-02-30"},
			wantField: "hire_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := engine.Parse(v, clientParams, tt.raw)

			if tt.wantField != "" {
				require.Error(t, err)
				var verr *engine.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
				assert.Nil(t, values)
				return
			}

			require.NoError(t, err)
			tt.check(t, values)
		})
	}
}

func TestInterval(t *testing.T) {
	secs, err := engine.ParseInterval("100:00:01")
	require.NoError(t, err)
	assert.Equal(t, int64(360001), secs)
	assert.Equal(t, "100:00:01", engine.FormatInterval(secs))

	_, err = engine.ParseInterval("1:60:00")
	assert.Error(t, err)
	_, err = engine.ParseInterval("90")
	assert.Error(t, err)
}
