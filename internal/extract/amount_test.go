// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/dnr-scraper/pkg/types"
)

func TestFindAmount(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    types.Amount
		wantRaw string
		wantOK  bool
	}{
		{
			name:    "settlement label",
			text:    "Settlement: $5,000.00",
			want:    types.NewAmount(5000, 0),
			wantRaw: "5,000.00",
			wantOK:  true,
		},
		{
			name:    "administrative penalty phrase without dollar sign",
			text:    "Respondent shall pay an administrative penalty of 10,500.00 within 30 days.",
			want:    types.NewAmount(10500, 0),
			wantRaw: "10,500.00",
			wantOK:  true,
		},
		{
			name:    "phrase wins over earlier figure",
			text:    "Costs of $125.00 were incurred. A civil penalty of $2,250.50 is assessed.",
			want:    types.NewAmount(2250, 50),
			wantRaw: "2,250.50",
			wantOK:  true,
		},
		{
			name:    "phrase split across lines",
			text:    "assessed an administrative penalty\nin the amount of\n$3,000",
			want:    types.NewAmount(3000, 0),
			wantRaw: "3,000",
			wantOK:  true,
		},
		{
			name:   "shall pay needs a dollar sign",
			text:   "shall pay 30 days after the date of this order",
			wantOK: false,
		},
		{
			name:    "whole dollars",
			text:    "a penalty of $750",
			want:    types.NewAmount(750, 0),
			wantRaw: "750",
			wantOK:  true,
		},
		{
			name:    "space after dollar sign",
			text:    "Total due $ 1,200.00",
			want:    types.NewAmount(1200, 0),
			wantRaw: "1,200.00",
			wantOK:  true,
		},
		{
			name:    "trailing comma not part of figure",
			text:    "the sum of $4,000, payable",
			want:    types.NewAmount(4000, 0),
			wantRaw: "4,000",
			wantOK:  true,
		},
		{
			name:    "non-monetary penalty does not shadow the payment",
			text:    "Failure to comply carries a penalty of 30 days suspension. Respondent shall pay $5,000.00 to the Department.",
			want:    types.NewAmount(5000, 0),
			wantRaw: "5,000.00",
			wantOK:  true,
		},
		{
			name:    "bare phrase figure loses to a dollar figure",
			text:    "An administrative penalty of 1,000 hours of community service. Settlement: $2,500.00",
			want:    types.NewAmount(2500, 0),
			wantRaw: "2,500.00",
			wantOK:  true,
		},
		{
			name:   "figure too large for cents",
			text:   "Settlement: $99,999,999,999,999,999.00",
			wantOK: false,
		},
		{
			name:   "no money",
			text:   "Order No. 2024-AQ-15 issued on 3/14/2024.",
			wantOK: false,
		},
		{
			name:   "empty",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindAmount(tt.text)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.want, got.Amount)
			assert.Equal(t, tt.wantRaw, got.Raw)
		})
	}
}

func TestCompilePhrasesRequireDollar(t *testing.T) {
	res := compilePhrases([]PenaltyPhrase{
		{Phrase: "shall pay", RequireDollar: true},
		{Phrase: "civil penalty of"},
	})
	require.Len(t, res, 2)

	assert.Nil(t, res[0].bare)
	assert.False(t, res[0].dollar.MatchString("shall pay 500"))
	assert.True(t, res[0].dollar.MatchString("SHALL  PAY $500"))

	require.NotNil(t, res[1].bare)
	assert.True(t, res[1].dollar.MatchString("civil penalty of $500"))
	assert.True(t, res[1].bare.MatchString("Civil Penalty of 1,500"))
	assert.True(t, res[1].bare.MatchString("civil penalty of 500.00"))
	assert.False(t, res[1].bare.MatchString("civil penalty of 30 days"))
	assert.False(t, res[1].bare.MatchString("civil penalty of 2024"))
}
