package solver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayloadEmpty(t *testing.T) {
	p := BuildPayload(RunParams{})

	assert.Nil(t, p.Filters)
	assert.Nil(t, p.Varios)
	assert.Nil(t, p.Reagents)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b), "empty sections are omitted, not sent empty")
}

func TestBuildPayloadZones(t *testing.T) {
	all := []string{"NORTE", "SUR", "CENTRO"}

	// Everything selected means no zone filter at all.
	p := BuildPayload(RunParams{ZonesSelected: all, ZonesAll: all})
	assert.Nil(t, p.Filters)

	// A proper subset is forwarded.
	p = BuildPayload(RunParams{ZonesSelected: []string{"NORTE"}, ZonesAll: all})
	require.NotNil(t, p.Filters)
	assert.Equal(t, []string{"NORTE"}, p.Filters.Zones)

	// Nothing selected sends nothing.
	p = BuildPayload(RunParams{ZonesAll: all})
	assert.Nil(t, p.Filters)
}

func TestBuildPayloadNumbers(t *testing.T) {
	p := BuildPayload(RunParams{
		LotTmsMin: "0",
		LotRecMin: "85",
		ReagMin:   "4",
		ReagMax:   " 8 ",
	})

	require.NotNil(t, p.Filters)
	assert.Equal(t, 0.0, *p.Filters.LotTmsMin, "explicit zero is sent, not dropped")
	assert.Equal(t, 85.0, *p.Filters.LotRecMin)
	require.NotNil(t, p.Reagents)
	assert.Equal(t, 4.0, *p.Reagents.ReagMin)
	assert.Equal(t, 8.0, *p.Reagents.ReagMax)

	// Blank and malformed inputs drop the key.
	p = BuildPayload(RunParams{LotTmsMin: "", LotRecMin: "abc", ReagMin: "  "})
	assert.Nil(t, p.Filters)
	assert.Nil(t, p.Reagents)
}

func TestBuildPayloadVarGTries(t *testing.T) {
	p := BuildPayload(RunParams{VarGTries: "20,24"})
	require.NotNil(t, p.Varios)
	assert.Equal(t, [][2]float64{{20, 24}}, p.Varios.VarGTries)

	// Only the first semicolon-separated pair counts.
	p = BuildPayload(RunParams{VarGTries: "18, 22; 25,30"})
	require.NotNil(t, p.Varios)
	assert.Equal(t, [][2]float64{{18, 22}}, p.Varios.VarGTries)

	for _, bad := range []string{"", "  ", "20", "a,b", ";20,24"} {
		p = BuildPayload(RunParams{VarGTries: bad})
		assert.Nil(t, p.Varios, "input %q", bad)
	}
}

func TestPayloadWireShape(t *testing.T) {
	p := BuildPayload(RunParams{
		ZonesSelected: []string{"NORTE"},
		ZonesAll:      []string{"NORTE", "SUR"},
		LotRecMin:     "85",
		VarGTries:     "20,24",
		ReagMin:       "4",
		ReagMax:       "8",
	})

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"filters": {"zones": ["NORTE"], "lot_rec_min": 85},
		"varios": {"var_g_tries": [[20, 24]]},
		"reagents": {"reag_min": 4, "reag_max": 8}
	}`, string(b))
}
