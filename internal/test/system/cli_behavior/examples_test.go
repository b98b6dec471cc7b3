package system

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/cmdgraph/internal/app"
	"github.com/specialistvlad/cmdgraph/internal/test/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test for: the recipes shipped under examples/ load and produce their
// documented results.
func TestCLI_ShippedExamples(t *testing.T) {
	root := filepath.Join("..", "..", "..", "..", "examples")

	testCases := []struct {
		dir  string
		want string
	}{
		{dir: "dot_product", want: "dotp = [840]\n"},
		{dir: "diamond", want: "a = [1, 1, 1]\nb = [0, 0, 0]\nc = [-2, -2, -2]\n"},
		{dir: "whole_graph_update", want: "a = [1, 1, 1]\nb = [3, 3, 3]\na2 = [1, 1, 1]\nb2 = [3, 3, 3]\n"},
		{dir: "dynamic_node", want: "x = [0, 1, 2, 3]\n"},
		{dir: "dynamic_param", want: "acc = [21, 21]\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.dir, func(t *testing.T) {
			testApp, out, _ := harness.SetupAppTest(t, app.Config{RecipePath: filepath.Join(root, tc.dir)}, nil)

			require.NoError(t, testApp.Run(context.Background()))
			assert.Contains(t, out.String(), tc.want)
		})
	}
}
