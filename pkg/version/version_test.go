package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/specscope/pkg/version"
)

func TestString(t *testing.T) {
	t.Parallel()

	s := version.String()

	assert.Contains(t, s, "specscope "+version.Version)
	assert.Contains(t, s, "built "+version.Date)
}
