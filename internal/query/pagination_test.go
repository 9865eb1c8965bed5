package query_test

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperror "gocatalog/internal/errors"
	"gocatalog/internal/query"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) FindPage(ctx context.Context, filter query.FilterSpec, sort query.SortSpec, offset, limit int) ([]int, int64, error) {
	args := m.Called(ctx, filter, sort, offset, limit)
	return args.Get(0).([]int), args.Get(1).(int64), args.Error(2)
}

func (m *MockSource) FindSlice(ctx context.Context, filter query.FilterSpec, sort query.SortSpec, offset, limit int) ([]int, error) {
	args := m.Called(ctx, filter, sort, offset, limit)
	return args.Get(0).([]int), args.Error(1)
}

func request(page, size int) query.Request {
	return query.Request{Sort: query.SortSpec{{Field: "id", Direction: query.ASC}}, Page: query.PageRequest{Page: page, Size: size}}
}

func TestPageRequest_Validate(t *testing.T) {
	_, err := query.NewPageRequest(-1, 10)
	assert.Equal(t, "page", apperror.FieldOf(err))

	_, err = query.NewPageRequest(0, 0)
	assert.Equal(t, "size", apperror.FieldOf(err))

	_, err = query.NewPageRequest(0, 101)
	assert.Equal(t, "size", apperror.FieldOf(err))

	pr, err := query.NewPageRequest(3, 100)
	require.NoError(t, err)
	assert.Equal(t, 300, pr.Offset())

	_, err = query.NewPageRequest(92233720368547759, 100)
	assert.Equal(t, "page", apperror.FieldOf(err))

	_, err = query.NewPageRequest(math.MaxInt, 1)
	assert.Equal(t, "page", apperror.FieldOf(err))

	pr, err = query.NewPageRequest((math.MaxInt-100)/100, 100)
	require.NoError(t, err)
	assert.Positive(t, pr.Offset())
}

func TestUncounted_TwoItemsNoNext(t *testing.T) {
	src := new(MockSource)
	req := request(0, 2)
	src.On("FindSlice", mock.Anything, req.Filter, req.Sort, 0, 3).Return([]int{1, 2}, nil).Once()

	res, err := query.Uncounted[int]{}.Execute(context.Background(), src, req)
	require.NoError(t, err)

	slice, ok := res.(*query.Slice[int])
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, slice.Items)
	assert.False(t, slice.HasNext)
	assert.True(t, slice.First)
	src.AssertNotCalled(t, "FindPage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	src.AssertExpectations(t)
}

func TestUncounted_ThreeItemsHasNext(t *testing.T) {
	src := new(MockSource)
	req := request(0, 2)
	src.On("FindSlice", mock.Anything, req.Filter, req.Sort, 0, 3).Return([]int{1, 2, 3}, nil).Once()

	res, err := query.Uncounted[int]{}.Execute(context.Background(), src, req)
	require.NoError(t, err)

	slice := res.(*query.Slice[int])
	assert.Equal(t, []int{1, 2}, slice.Items)
	assert.True(t, slice.HasNext)
	src.AssertExpectations(t)
}

func TestUncounted_OffsetAndEmptyPage(t *testing.T) {
	src := new(MockSource)
	req := request(4, 5)
	src.On("FindSlice", mock.Anything, req.Filter, req.Sort, 20, 6).Return([]int(nil), nil).Once()

	res, err := query.Uncounted[int]{}.Execute(context.Background(), src, req)
	require.NoError(t, err)

	slice := res.(*query.Slice[int])
	assert.NotNil(t, slice.Items)
	assert.Empty(t, slice.Items)
	assert.False(t, slice.First)
	assert.False(t, slice.HasNext)
}

func TestCounted_ComputesTotals(t *testing.T) {
	src := new(MockSource)
	req := request(1, 2)
	src.On("FindPage", mock.Anything, req.Filter, req.Sort, 2, 2).Return([]int{3, 4}, int64(5), nil).Once()

	res, err := query.Counted[int]{}.Execute(context.Background(), src, req)
	require.NoError(t, err)

	page, ok := res.(*query.Page[int])
	require.True(t, ok)
	assert.Equal(t, int64(5), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.First)
	assert.False(t, page.Last)
	src.AssertNotCalled(t, "FindSlice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCounted_EmptyCollection(t *testing.T) {
	src := new(MockSource)
	req := request(0, 10)
	src.On("FindPage", mock.Anything, req.Filter, req.Sort, 0, 10).Return([]int{}, int64(0), nil).Once()

	res, err := query.Counted[int]{}.Execute(context.Background(), src, req)
	require.NoError(t, err)

	page := res.(*query.Page[int])
	assert.Equal(t, 0, page.TotalPages)
	assert.True(t, page.First)
	assert.True(t, page.Last)
}

func TestStrategies_ValidateBeforeExecuting(t *testing.T) {
	src := new(MockSource)

	for _, s := range []query.Strategy[int]{query.Counted[int]{}, query.Uncounted[int]{}} {
		_, err := s.Execute(context.Background(), src, request(0, 101))
		assert.IsType(t, &apperror.ValidationError{}, err)

		_, err = s.Execute(context.Background(), src, request(-1, 10))
		assert.IsType(t, &apperror.ValidationError{}, err)
	}

	src.AssertNotCalled(t, "FindPage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	src.AssertNotCalled(t, "FindSlice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStrategies_PropagateSourceErrors(t *testing.T) {
	src := new(MockSource)
	boom := errors.New("db fora")
	src.On("FindPage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]int(nil), int64(0), boom)
	src.On("FindSlice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]int(nil), boom)

	_, err := query.Counted[int]{}.Execute(context.Background(), src, request(0, 10))
	assert.ErrorIs(t, err, boom)

	_, err = query.Uncounted[int]{}.Execute(context.Background(), src, request(0, 10))
	assert.ErrorIs(t, err, boom)
}

func TestStrategyForAndParseMode(t *testing.T) {
	s, err := query.StrategyFor[int](query.ModeUncounted)
	require.NoError(t, err)
	assert.IsType(t, query.Uncounted[int]{}, s)

	s, err = query.StrategyFor[int](query.ModeCounted)
	require.NoError(t, err)
	assert.IsType(t, query.Counted[int]{}, s)

	_, err = query.StrategyFor[int]("scroll")
	assert.Equal(t, "mode", apperror.FieldOf(err))

	m, err := query.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, query.ModeCounted, m)

	m, err = query.ParseMode("UNCOUNTED")
	require.NoError(t, err)
	assert.Equal(t, query.ModeUncounted, m)

	_, err = query.ParseMode("x")
	assert.Error(t, err)
}

func TestMapResult_PreservesVariant(t *testing.T) {
	page := query.NewPage([]int{1, 2}, query.PageRequest{Page: 0, Size: 2}, 3)
	mapped := query.MapResult[int, string](page, strconv.Itoa)

	p, ok := mapped.(*query.Page[string])
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, p.Items)
	assert.Equal(t, int64(3), p.TotalItems)
	assert.Equal(t, 2, p.TotalPages)

	slice := &query.Slice[int]{Items: []int{7}, Page: 1, Size: 1, HasNext: true}
	mappedSlice := query.MapResult[int, string](slice, strconv.Itoa)

	s, ok := mappedSlice.(*query.Slice[string])
	require.True(t, ok)
	assert.Equal(t, []string{"7"}, s.Elements())
	assert.True(t, s.HasNext)
	assert.Equal(t, 1, s.Page)
}
