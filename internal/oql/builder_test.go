package oql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/itopnl/internal/domain"
)

func eq(field, value string) domain.Predicate {
	return domain.Predicate{Field: field, Operator: domain.OpEqual, Value: value, Confidence: domain.ConfidenceHigh}
}

func TestBuild_NoPredicates(t *testing.T) {
	q, err := NewBuilder().Build("UserRequest", nil)

	require.NoError(t, err)
	assert.Equal(t, "SELECT UserRequest", q)
}

func TestBuild_SinglePredicate(t *testing.T) {
	q, err := NewBuilder().Build("UserRequest", []domain.Predicate{eq("priority", "1")})

	require.NoError(t, err)
	assert.Equal(t, "SELECT UserRequest WHERE priority = '1'", q)
}

func TestBuild_MergesEqualitiesOnSameFieldIntoIn(t *testing.T) {
	q, err := NewBuilder().Build("UserRequest", []domain.Predicate{eq("priority", "1"), eq("priority", "2")})

	require.NoError(t, err)
	assert.Equal(t, "SELECT UserRequest WHERE priority IN ('1','2')", q)
}

func TestBuild_DeduplicatesInMembers(t *testing.T) {
	q, err := NewBuilder().Build("UserRequest", []domain.Predicate{
		{Field: "status", Operator: domain.OpIn, Values: []string{"new", "assigned"}},
		eq("status", "new"),
	})

	require.NoError(t, err)
	assert.Equal(t, "SELECT UserRequest WHERE status IN ('new','assigned')", q)
}

func TestBuild_DuplicateEqualitiesCollapseToOne(t *testing.T) {
	q, err := NewBuilder().Build("UserRequest", []domain.Predicate{eq("priority", "2"), eq("priority", "2")})

	require.NoError(t, err)
	assert.Equal(t, "SELECT UserRequest WHERE priority = '2'", q)
}

func TestBuild_MixedOperatorsAreAnded(t *testing.T) {
	q, err := NewBuilder().Build("UserRequest", []domain.Predicate{
		eq("priority", "1"),
		{Field: "start_date", Operator: domain.OpGreaterEqual, Value: "2024-01-08 00:00:00"},
		{Field: "team_name", Operator: domain.OpLike, Value: "%network%"},
		{Field: "start_date", Operator: domain.OpLess, Value: "2024-02-01 00:00:00"},
	})

	require.NoError(t, err)
	assert.Equal(t, "SELECT UserRequest WHERE priority = '1' AND "+
		"start_date >= '2024-01-08 00:00:00' AND start_date < '2024-02-01 00:00:00' AND "+
		"team_name LIKE '%network%'", q)
}

func TestBuild_EscapesQuotesAndBackslashes(t *testing.T) {
	q, err := NewBuilder().Build("Organization", []domain.Predicate{
		{Field: "name", Operator: domain.OpLike, Value: `%O'Brien\Co%`},
	})

	require.NoError(t, err)
	assert.Equal(t, `SELECT Organization WHERE name LIKE '%O\'Brien\\Co%'`, q)
}

func TestBuild_IsNull(t *testing.T) {
	q, err := NewBuilder().Build("UserRequest", []domain.Predicate{{Field: "agent_id", Operator: domain.OpIsNull}})

	require.NoError(t, err)
	assert.Equal(t, "SELECT UserRequest WHERE ISNULL(agent_id)", q)
}

func TestBuild_RejectsInvalidIdentifiers(t *testing.T) {
	_, err := NewBuilder().Build("User Request; DROP", nil)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = NewBuilder().Build("UserRequest", []domain.Predicate{eq("status' OR '1'='1", "x")})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestBuild_RefusesUnverifiedUnlessAllowed(t *testing.T) {
	pred := eq("status", "active")
	pred.NeedsValueDiscovery = true

	_, err := NewBuilder().Build("FunctionalCI", []domain.Predicate{pred})
	assert.ErrorIs(t, err, ErrUnverifiedPredicate)

	q, err := NewBuilder(WithUnverified()).Build("FunctionalCI", []domain.Predicate{pred})
	require.NoError(t, err)
	assert.Equal(t, "SELECT FunctionalCI WHERE status = 'active'", q)
}

func TestBuild_EmptyInList(t *testing.T) {
	_, err := NewBuilder().Build("PC", []domain.Predicate{{Field: "status", Operator: domain.OpIn}})

	assert.ErrorIs(t, err, ErrEmptyInList)
}

func TestBuildAll_PreservesOrder(t *testing.T) {
	qs, err := NewBuilder().BuildAll("UserRequest", [][]domain.Predicate{
		{eq("status", "closed")},
		{{Field: "status", Operator: domain.OpNotEqual, Value: "closed"}},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{
		"SELECT UserRequest WHERE status = 'closed'",
		"SELECT UserRequest WHERE status != 'closed'",
	}, qs)
}
