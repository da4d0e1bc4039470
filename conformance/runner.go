package conformance

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utlx-lang/udm/udm"
)

// Run executes one case as a subtest.
func Run(t *testing.T, c Case) {
	t.Run(c.Name, func(t *testing.T) {
		root, err := udm.Parse(c.Input)
		if c.Error != "" {
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.Error)
			return
		}
		require.NoError(t, err)

		if c.Serialized != "" {
			got := udm.SerializeWithOptions(root, udm.Options{})
			assert.Equal(t, c.Serialized, got)

			reparsed, err := udm.Parse(got)
			require.NoError(t, err, "serialized form must re-parse")
			assert.True(t, udm.Equal(root, reparsed), "round-trip must preserve the tree")
		}

		if len(c.Paths) > 0 {
			got := udm.GetAllPaths(root, true)
			assert.Empty(t, cmp.Diff(c.Paths, got))
		}

		for _, chk := range c.Checks {
			v, err := udm.Resolve(root, chk.Path)
			require.NoError(t, err, "path %q", chk.Path)
			if chk.Absent {
				assert.Nil(t, v, "path %q should be absent", chk.Path)
				continue
			}
			s, ok := udm.GetScalarValue(root, chk.Path)
			require.True(t, ok, "path %q should resolve to a scalar", chk.Path)
			assert.Equal(t, chk.Scalar, s, "path %q", chk.Path)
		}
	})
}

// RunDir loads and executes every case under dir.
func RunDir(t *testing.T, dir string) {
	cases, err := LoadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, cases, "no cases under %s", dir)
	for _, c := range cases {
		Run(t, c)
	}
}
