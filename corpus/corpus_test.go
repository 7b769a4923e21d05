package corpus

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/debateforge/core"
)

const sampleYAML = `
products:
  - name: BaseCamp Lantern
    category: portable power
    target_user: weekend campers
    price_band: "30-50"
    channel: outdoor retail
    functional: [led light, battery powered]
    materials: [abs]
    pain_points: [dark campsite]
  - name: PowerBrick
    category: portable power
    target_user: urban commuters
    price_band: "25-45"
    channel: online marketplace
    functional: [usb output]
  - name: Trail Mug
    category: camp kitchen
    target_user: thru hikers
    price_band: "15"
    channel: outdoor retail
    functional: [insulated]
`

func TestLoad(t *testing.T) {
	products, err := Load(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, "BaseCamp Lantern", products[0].Name)
	assert.Equal(t, core.PriceBand{Low: 30, High: 50}, products[0].PriceBand)
	// A single number is a fixed price point.
	assert.Equal(t, core.PriceBand{Low: 15, High: 15}, products[2].PriceBand)
}

func TestLoadRejectsBadPriceBand(t *testing.T) {
	_, err := Load(strings.NewReader(`
products:
  - name: Broken
    category: x
    price_band: "80-40"
    functional: [y]
`))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	err := Validate([]core.KnownProduct{{Name: "NoCategory", AttributeSet: core.AttributeSet{Channel: "retail"}}})
	var verr *core.VectorizationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "NoCategory", verr.Subject)

	err = Validate([]core.KnownProduct{{Name: "Bare", Category: "x"}})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "no attributes", verr.Reason)
}

func TestFilterCategory(t *testing.T) {
	products, err := Load(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	power := FilterCategory(products, "portable power")
	require.Len(t, power, 2)
	assert.Equal(t, "BaseCamp Lantern", power[0].Name)

	assert.Empty(t, FilterCategory(products, "nonexistent"))
}

func TestCategoriesSorted(t *testing.T) {
	products, err := Load(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"camp kitchen", "portable power"}, Categories(products))
}

func TestRichestCategory(t *testing.T) {
	products, err := Load(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "portable power", RichestCategory(products))

	// Ties break lexicographically.
	tied := []core.KnownProduct{
		{Name: "a", Category: "zebra", AttributeSet: core.AttributeSet{Channel: "x"}},
		{Name: "b", Category: "alpha", AttributeSet: core.AttributeSet{Channel: "x"}},
	}
	assert.Equal(t, "alpha", RichestCategory(tied))
}
