package instrument

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	got := All()
	require.Len(t, got, 30)
	assert.Equal(t, AC, got[0])
	assert.Equal(t, WLCON, got[len(got)-1])

	// Mutating the copy must not affect the catalog.
	got[0] = "XXX"
	assert.Equal(t, AC, All()[0])
}

func TestInstrument_NameAndSymbol(t *testing.T) {
	tests := []struct {
		inst   Instrument
		name   string
		symbol string
	}{
		{AC, "AC", "AC.PS"},
		{BDO, "BDO", "BDO.PS"},
		{WLCON, "WLCON", "WLCON.PS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.inst.Name())
			assert.Equal(t, tt.symbol, tt.inst.Symbol())
			assert.Equal(t, tt.name, tt.inst.String())
			assert.True(t, tt.inst.Valid())
		})
	}

	assert.False(t, Instrument("AAPL").Valid())
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Instrument
		wantErr bool
	}{
		{"AC", AC, false},
		{"ac", AC, false},
		{" jfc ", JFC, false},
		{"SM.PS", SM, false},
		{"sm.ps", SM, false},
		{"AAPL", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_Default(t *testing.T) {
	got, err := Catalog(nil)
	require.NoError(t, err)
	assert.Equal(t, All(), got)
}

func TestCatalog_SubsetKeepsOrder(t *testing.T) {
	got, err := Catalog([]string{"TEL", "ac", "BDO.PS"})
	require.NoError(t, err)
	assert.Equal(t, []Instrument{TEL, AC, BDO}, got)
}

func TestCatalog_Errors(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		msg   string
	}{
		{"unknown", []string{"AC", "AAPL", "MSFT"}, "unknown instruments: AAPL, MSFT"},
		{"duplicate", []string{"AC", "ac"}, "instrument AC listed more than once"},
		{"blank only", []string{" ", ""}, "no instruments configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Catalog(tt.names)
			require.Error(t, err)
			assert.EqualError(t, err, tt.msg)
		})
	}
}
