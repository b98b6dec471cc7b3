package system

import (
	"context"
	"testing"

	"github.com/specialistvlad/cmdgraph/internal/app"
	"github.com/specialistvlad/cmdgraph/internal/test/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test for: updating a dynamic parameter changes later iterations of an
// updatable graph and leaves a frozen one untouched.
func TestHCLFeatures_ParamUpdate(t *testing.T) {
	recipe := func(updatable string) string {
		return `
			graph {
				updatable  = ` + updatable + `
				iterations = 3
			}

			buffer "acc" {
				size = 2
			}

			param "step" {
				value = 1
			}

			node "bump" {
				kernel = "inc"
				args {
					dst    = buffer.acc
					amount = param.step
				}
			}

			update {
				after_iteration = 1
				param           = "step"
				value           = 10
			}
		`
	}

	testCases := []struct {
		name      string
		updatable string
		want      string
	}{
		{name: "updatable graph sees the new value", updatable: "true", want: "acc = [21, 21]\n"},
		{name: "frozen graph keeps the finalize value", updatable: "false", want: "acc = [3, 3]\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := harness.WriteRecipe(t, map[string]string{"main.hcl": recipe(tc.updatable)})
			testApp, out, _ := harness.SetupAppTest(t, app.Config{RecipePath: dir}, nil)

			require.NoError(t, testApp.Run(context.Background()))
			assert.Equal(t, tc.want, out.String())
		})
	}
}

// Test for: an omitted optional kernel argument uses its default.
func TestHCLFeatures_OptionalArgumentDefault(t *testing.T) {
	hcl := `
		buffer "x" {
			init = [1, 2]
		}
		buffer "y" {
			init = [1, 2]
		}

		node "default_amount" {
			kernel = "dec"
			args {
				dst = buffer.x
			}
		}
		node "explicit_amount" {
			kernel = "dec"
			args {
				dst    = buffer.y
				amount = 5
			}
		}
	`
	dir := harness.WriteRecipe(t, map[string]string{"main.hcl": hcl})
	testApp, out, _ := harness.SetupAppTest(t, app.Config{RecipePath: dir}, nil)

	require.NoError(t, testApp.Run(context.Background()))
	assert.Equal(t, "x = [0, 1]\ny = [-4, -3]\n", out.String())
}
