package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperror "gocatalog/internal/errors"
	"gocatalog/internal/query"
)

func TestBuildSort_DefaultWhenEmpty(t *testing.T) {
	for _, tokens := range [][]string{nil, {}, {"", "   "}} {
		spec, err := query.BuildSort(tokens, query.ProductSortFields)
		require.NoError(t, err)
		assert.Equal(t, query.SortSpec{{Field: "id", Direction: query.ASC}}, spec)
	}
}

func TestBuildSort_ParsesDirections(t *testing.T) {
	spec, err := query.BuildSort([]string{"price,desc", "name", "createdAt,DESC", "owner.email,asc", "id,sideways"}, query.ProductSortFields)
	require.NoError(t, err)

	assert.Equal(t, query.SortSpec{
		{Field: "price", Direction: query.DESC},
		{Field: "name", Direction: query.ASC},
		{Field: "createdAt", Direction: query.DESC},
		{Field: "owner.email", Direction: query.ASC},
		{Field: "id", Direction: query.ASC},
	}, spec)
}

func TestBuildSort_SplitsOnFirstCommaOnly(t *testing.T) {
	spec, err := query.BuildSort([]string{"name,desc,extra"}, query.ProductSortFields)
	require.NoError(t, err)
	assert.Equal(t, query.ASC, spec[0].Direction)
}

func TestBuildSort_UnknownFieldFailsWhole(t *testing.T) {
	spec, err := query.BuildSort([]string{"price,desc", "unknownField"}, query.ProductSortFields)

	assert.Nil(t, spec)
	require.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Equal(t, "unknownField", apperror.FieldOf(err))
}

func TestBuildSort_WhitelistIsTotal(t *testing.T) {
	for field := range query.ProductSortFields {
		spec, err := query.BuildSort([]string{field}, query.ProductSortFields)
		require.NoError(t, err, field)
		assert.Equal(t, field, spec[0].Field)
	}

	for _, field := range []string{"password_hash", "p.id; DROP TABLE products", "owner", "Price"} {
		_, err := query.BuildSort([]string{field}, query.ProductSortFields)
		assert.Error(t, err, field)
	}
}

func TestBuildSort_KeepsDuplicates(t *testing.T) {
	spec, err := query.BuildSort([]string{"name", "name,desc"}, query.ProductSortFields)
	require.NoError(t, err)
	assert.Len(t, spec, 2)
	assert.True(t, spec.Has("name"))
	assert.False(t, spec.Has("id"))
}
