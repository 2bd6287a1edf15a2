package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNewer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		remote   string
		current  string
		expected bool
	}{
		{name: "equal versions", remote: "v2.2.4", current: "v2.2.4", expected: false},
		{name: "newer minor", remote: "v2.3.0", current: "v2.2.4", expected: true},
		{name: "older patch", remote: "v2.2.3", current: "v2.2.4", expected: false},
		{name: "missing component counts as zero", remote: "v2.2", current: "v2.2.0", expected: false},
		{name: "missing component on current", remote: "v2.2.1", current: "v2.2", expected: true},
		{name: "four components", remote: "1.2.3.4", current: "1.2.3", expected: true},
		{name: "four components equal with trailing zero", remote: "1.2.3.0", current: "1.2.3", expected: false},
		{name: "numeric not lexical", remote: "v2.10.0", current: "v2.9.9", expected: true},
		{name: "without v prefix", remote: "9.9.9", current: "v2.2.4", expected: true},
		{name: "empty remote", remote: "", current: "v2.2.4", expected: false},
		{name: "pre-release suffix zeroes the component", remote: "v2.2.4-beta", current: "v2.2.3", expected: false},
		{name: "pre-release suffix against lower minor", remote: "v2.2.4-beta", current: "v2.1.9", expected: true},
		{name: "non-numeric component", remote: "v2.x.1", current: "v2.0.0", expected: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsNewer(tt.remote, tt.current))
		})
	}
}

func TestCompare_TotalOrder(t *testing.T) {
	t.Parallel()

	versions := []string{"v1.0", "v1.0.1", "v2.2", "v2.2.4", "v2.3.0", "v10.0.0"}
	for i := range versions {
		for j := range versions {
			got := Compare(versions[i], versions[j])
			switch {
			case i < j:
				assert.Equal(t, -1, got, "%s vs %s", versions[i], versions[j])
			case i > j:
				assert.Equal(t, 1, got, "%s vs %s", versions[i], versions[j])
			default:
				assert.Equal(t, 0, got)
			}
		}
	}
}

func TestCompare_ConsistentAcrossForms(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Compare("v2.2.4-beta", "v2.2"))
	assert.Equal(t, 0, Compare("v2.2", "v2.2.0"))
	assert.Equal(t, 0, Compare("v2.2.4-beta", "v2.2.0"))

	versions := []string{"v2.2.4-beta", "v2.2", "v2.2.0", "2.2.0.0", "v2.2.3", "1.2.3.4", "v1.2.3", "v2.2.4", "v2.2.4.1", "v10.0"}
	for _, a := range versions {
		for _, b := range versions {
			assert.Equal(t, -Compare(b, a), Compare(a, b), "%s vs %s", a, b)
			for _, c := range versions {
				if Compare(a, b) <= 0 && Compare(b, c) <= 0 {
					assert.LessOrEqual(t, Compare(a, c), 0, "%s <= %s <= %s", a, b, c)
				}
			}
		}
	}
}
