package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Substitution(t *testing.T) {
	reg := NewRegistry()

	out, err := reg.Render(KeyPositionStatusHasChanged, map[string]string{
		"FROM": "Pending",
		"TO":   "Completed",
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Position status has changed from Pending to Completed.", out)
}

func TestRender_UnboundPlaceholdersAreStripped(t *testing.T) {
	reg := NewRegistry()
	reg.Override(1, "partial", "Hello {{NAME}}, ref {{MISSING}} end")

	out, err := reg.Render("partial", map[string]string{"NAME": "Ann"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ann, ref  end", out)
}

func TestRender_ResellerOverride(t *testing.T) {
	reg := NewRegistry()
	reg.Override(5, KeyNewPositionAdded, "Custom text for {{RESELLER_ID}}")

	out, err := reg.Render(KeyNewPositionAdded, map[string]string{"RESELLER_ID": "5"}, 5)
	require.NoError(t, err)
	assert.Equal(t, "Custom text for 5", out)

	// Other resellers keep the built-in template.
	out, err = reg.Render(KeyNewPositionAdded, map[string]string{"RESELLER_ID": "6"}, 6)
	require.NoError(t, err)
	assert.Equal(t, "New return position added for reseller 6.", out)
}

func TestRender_UnknownKey(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Render("no-such-template", nil, 1)
	assert.Error(t, err)
}

func TestSubstitute_TrimsResult(t *testing.T) {
	out := substitute("  {{GONE}} text {{GONE}}  ", nil)
	assert.Equal(t, "text", out)
}
