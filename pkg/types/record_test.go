// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{in: "5000.00", want: NewAmount(5000, 0)},
		{in: "5000", want: NewAmount(5000, 0)},
		{in: "12.5", want: NewAmount(12, 50)},
		{in: "0.07", want: NewAmount(0, 7)},
		{in: ".25", want: NewAmount(0, 25)},
		{in: " 42.10 ", want: NewAmount(42, 10)},
		{in: "", wantErr: true},
		{in: "1.234", wantErr: true},
		{in: "12.", wantErr: true},
		{in: "1,000", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "99999999999999999.00", wantErr: true},
		{in: "92233720368547758.07", wantErr: true},
		{in: "92233720368547757.99", want: Amount(9223372036854775799)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmountFormatting(t *testing.T) {
	tests := []struct {
		amount  Amount
		plain   string
		display string
	}{
		{NewAmount(5000, 0), "5000.00", "$5,000.00"},
		{NewAmount(0, 5), "0.05", "$0.05"},
		{NewAmount(999, 99), "999.99", "$999.99"},
		{NewAmount(1234567, 89), "1234567.89", "$1,234,567.89"},
		{Amount(-150), "-1.50", "-$1.50"},
	}
	for _, tt := range tests {
		t.Run(tt.plain, func(t *testing.T) {
			assert.Equal(t, tt.plain, tt.amount.String())
			assert.Equal(t, tt.display, tt.amount.Display())
		})
	}
}

func TestAmountJSON(t *testing.T) {
	rec := struct {
		Amount *Amount `json:"amount"`
	}{}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"2500.50"}`), &rec))
	require.NotNil(t, rec.Amount)
	assert.Equal(t, int64(250050), rec.Amount.Cents())

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"2500.50"}`, string(data))
}
