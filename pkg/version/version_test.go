package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/pyprune/pkg/version"
)

func TestString(t *testing.T) {
	t.Parallel()

	got := version.String()

	assert.Contains(t, got, "pyprune ")
	assert.Contains(t, got, "(commit: "+version.Commit+", built: "+version.Date+")")
}
