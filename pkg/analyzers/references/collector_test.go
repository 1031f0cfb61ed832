package references_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pyprune/pkg/analyzers/references"
	"github.com/Sumatoshi-tech/pyprune/pkg/pysyntax"
	"github.com/Sumatoshi-tech/pyprune/pkg/pysyntax/node"
)

func chain(names ...string) *node.Node {
	curr := node.New(node.KindIdentifier, names[0])

	for _, name := range names[1:] {
		attr := node.New(node.KindAttribute, name)
		attr.AddChild(curr)
		curr = attr
	}

	return curr
}

func TestDottedChain(t *testing.T) {
	t.Parallel()

	got, ok := references.DottedChain(chain("os", "path", "join"))
	require.True(t, ok)
	assert.Equal(t, "os.path.join", got)

	call := node.New(node.KindOther, "")
	call.AddChild(chain("factory"))

	attr := node.New(node.KindAttribute, "value")
	attr.AddChild(call)

	_, ok = references.DottedChain(attr)
	assert.False(t, ok, "chains rooted at a call have no dotted name")

	_, ok = references.DottedChain(node.New(node.KindAttribute, "dangling"))
	assert.False(t, ok)
}

func TestCollect_HandBuiltTree(t *testing.T) {
	t.Parallel()

	root := node.New(node.KindModule, "")
	root.AddChild(chain("os", "path", "join"))
	root.AddChild(node.New(node.KindIdentifier, "x"))

	names := references.Collect(root)

	assert.Equal(t, []string{"os", "os.path", "os.path.join", "x"}, names.Sorted())
	assert.Equal(t, 4, names.Len())
}

func TestCollect_FromSource(t *testing.T) {
	t.Parallel()

	src := `import os
import numpy as np

x = 5

def run(arg=np.zeros):
    return os.path.join(arg, "os.sep")

class Runner(Base):
    @staticmethod
    def go():
        return [str(i) for i in items]
`

	tree, err := pysyntax.NewParser().Parse(context.Background(), "sample.py", []byte(src))
	require.NoError(t, err)

	names := references.Collect(tree.Root)

	for _, want := range []string{"x", "np", "np.zeros", "os", "os.path", "os.path.join", "arg", "Base", "staticmethod", "str", "i", "items"} {
		assert.True(t, names.Has(want), "expected %q to be referenced", want)
	}

	for _, unwanted := range []string{"numpy", "run", "Runner", "go", "os.sep", "join", "path"} {
		assert.False(t, names.Has(unwanted), "did not expect %q to be referenced", unwanted)
	}
}

func TestNameSet_ExactMatchOnly(t *testing.T) {
	t.Parallel()

	names := make(references.NameSet)
	names.Add("os.path")

	assert.True(t, names.Has("os.path"))
	assert.False(t, names.Has("os"))
	assert.False(t, names.Has("os.path.join"))
}
