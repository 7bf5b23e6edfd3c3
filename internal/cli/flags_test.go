package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/service"
)

func TestFormatFlag(t *testing.T) {
	var f formatFlag
	assert.Equal(t, "detailed", f.String())

	assert.NoError(t, f.Set("JSON"))
	assert.Equal(t, domain.FormatJSON, f.value)
	assert.Error(t, f.Set("yaml"))
	assert.Equal(t, "format", f.Type())
}

func TestPolicyFlag(t *testing.T) {
	var p policyFlag
	assert.Equal(t, "discover", p.String())

	assert.NoError(t, p.Set("drop"))
	assert.Equal(t, service.PolicyDrop, p.value)
	assert.Error(t, p.Set("never"))
}
