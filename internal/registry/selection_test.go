package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSample() *Group {
	cur := NewCursor()
	g := cur.PushDescribe("g")
	g.AddCase("a", func(rec *AssertRecorder) error { return nil })
	g.AddCase("b", func(rec *AssertRecorder) error { return nil })
	cur.Pop()
	return cur.Root()
}

func caseNames(g *Group) []string {
	var names []string
	for _, child := range g.Children {
		if child.Group != nil {
			names = append(names, caseNames(child.Group)...)
		} else if child.Case != nil {
			names = append(names, child.Case.Name)
		}
	}
	return names
}

func TestSelect_FilterRunsOnlyMatching(t *testing.T) {
	root := buildSample()

	selected, err := Select(root, "/a$", "")
	require.NoError(t, err)

	names := caseNames(selected)
	assert.Equal(t, []string{"a"}, names)

	// the sibling group under root should record "b" as pruned
	require.Len(t, selected.Children, 1)
	assert.Contains(t, selected.Children[0].Group.PrunedNames, "b")
}

func TestSelect_EmptyFilterEqualsDotStar(t *testing.T) {
	root := buildSample()

	withDotStar, err := Select(root, ".*", "")
	require.NoError(t, err)
	withEmpty, err := Select(root, "", "")
	require.NoError(t, err)

	assert.Equal(t, caseNames(withDotStar), caseNames(withEmpty))
}

func TestSelect_SkipEliminatesMatching(t *testing.T) {
	root := buildSample()

	selected, err := Select(root, "", "/b$")
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, caseNames(selected))
}

func TestSelect_AllEliminatedPrunesGroupButReturnsEmptyRoot(t *testing.T) {
	root := buildSample()

	selected, err := Select(root, "nonexistent", "")
	require.NoError(t, err)

	assert.Empty(t, caseNames(selected))
	assert.Contains(t, selected.PrunedNames, "g")
}
