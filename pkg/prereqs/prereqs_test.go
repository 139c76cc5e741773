package prereqs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckMissingRequiredTool(t *testing.T) {
	results, err := Check([]Tool{
		{Name: "definitely-not-a-real-binary-xyz", Required: true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "definitely-not-a-real-binary-xyz")
	require.Len(t, results, 1)
	assert.False(t, results[0].Found)
}

func TestCheckMissingOptionalTool(t *testing.T) {
	results, err := Check([]Tool{
		{Name: "definitely-not-a-real-binary-xyz", Required: false},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Found)
}

func TestCheckFindsCommonTool(t *testing.T) {
	// sh is present on any platform these tests run on
	results, err := Check([]Tool{{Name: "sh", Required: true}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Found)
	assert.NotEmpty(t, results[0].Path)
}

func TestTeardownToolsRequiresTerraform(t *testing.T) {
	tools := TeardownTools()
	var required []string
	for _, tool := range tools {
		if tool.Required {
			required = append(required, tool.Name)
		}
	}
	assert.Equal(t, []string{"terraform"}, required)
}
