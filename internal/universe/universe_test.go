package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorlag/internal/contracts"
)

const sampleYAML = `
sectors:
  CHEMICALS_1: [DOW, HUN, CE, WLK, LYB, OLN]
  AIRLINES: [dal, ual, " AAL ", LUV]
`

func TestParse_Valid(t *testing.T) {
	u, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"AIRLINES", "CHEMICALS_1"}, u.SectorNames())

	tickers, err := u.Tickers("AIRLINES")
	require.NoError(t, err)
	// Normalized to upper case and trimmed
	assert.Equal(t, []string{"DAL", "UAL", "AAL", "LUV"}, tickers)
}

func TestParse_UnknownKeyRejected(t *testing.T) {
	_, err := Parse([]byte("sectrs:\n  A: [X]\n"))
	assert.Error(t, err)
}

func TestParse_EmptySector(t *testing.T) {
	_, err := Parse([]byte("sectors:\n  EMPTY: []\n"))
	require.Error(t, err)

	var verr contracts.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sectors.EMPTY", verr.Field)
}

func TestParse_DuplicateTicker(t *testing.T) {
	_, err := Parse([]byte("sectors:\n  DUP: [DOW, dow]\n"))
	require.Error(t, err)

	var verr contracts.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "DOW")
}

func TestParse_NoSectors(t *testing.T) {
	_, err := Parse([]byte("sectors: {}\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrEmptyUniverse)
}

func TestTickers_UnknownSector(t *testing.T) {
	u, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	_, err = u.Tickers("BANKS")
	assert.ErrorIs(t, err, contracts.ErrEmptyUniverse)
}

func TestAllTickers_DeduplicatesAcrossSectors(t *testing.T) {
	u, err := Parse([]byte("sectors:\n  A: [XOM, CVX]\n  B: [CVX, COP]\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"COP", "CVX", "XOM"}, u.AllTickers())
}
