package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQuery_Basic(t *testing.T) {
	opts := NewListQueryOptions("stores",
		WithColumns("id", "name"),
		WithLimit(10),
		WithOffset(5),
	)
	query, args := BuildListQuery(opts)
	assert.Equal(t, `SELECT "id", "name" FROM "stores" LIMIT $1 OFFSET $2`, query)
	assert.Equal(t, []any{10, 5}, args)
}

func TestBuildListQuery_Conditions(t *testing.T) {
	opts := NewListQueryOptions("stores",
		WithColumns("id"),
		WithCondition(WhereCond("state", Equal, "CA")),
		WithCondition(WhereCond("name", ILike, "%video%")),
		WithOrderBy("created_at", "desc"),
		WithLimit(50),
	)
	query, args := BuildListQuery(opts)
	assert.Equal(t,
		`SELECT "id" FROM "stores" WHERE "state" = $1 AND "name" ILIKE $2 ORDER BY "created_at" DESC LIMIT $3`,
		query)
	assert.Equal(t, []any{"CA", "%video%", 50}, args)
}

func TestBuildListQuery_RawConditionRepeatedPlaceholder(t *testing.T) {
	opts := NewListQueryOptions("stores",
		WithColumns("id"),
		WithCondition(WhereCond("verified", Equal, true)),
		WithCondition(WhereRawCond("(name ILIKE $1 OR city ILIKE $1 OR address ILIKE $1)", "%video%")),
	)
	query, args := BuildListQuery(opts)
	assert.Equal(t,
		`SELECT "id" FROM "stores" WHERE "verified" = $1 AND (name ILIKE $2 OR city ILIKE $2 OR address ILIKE $2)`,
		query)
	require.Len(t, args, 2)
	assert.Equal(t, true, args[0])
	assert.Equal(t, "%video%", args[1])
}

func TestBuildListQuery_CountOnly(t *testing.T) {
	opts := NewListQueryOptions("jobs",
		WithCondition(WhereCond("status", Equal, "running")),
		WithCountOnly(),
	)
	query, args := BuildListQuery(opts)
	assert.Equal(t, `SELECT COUNT(*) FROM "jobs" WHERE "status" = $1`, query)
	assert.Equal(t, []any{"running"}, args)
}

func TestWhereCond_PanicsOnCustom(t *testing.T) {
	assert.Panics(t, func() {
		WhereCond("field", Custom, nil)
	})
}
