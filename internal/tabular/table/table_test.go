package table

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) Table {
	t.Helper()
	tb, err := FromRecords([][]string{
		{"id", "name", "score", "age"},
		{"1", "ana", "10.5", "30"},
		{"2", "", "NA", "41"},
		{"3", "budi", "7", ""},
	})
	require.NoError(t, err)
	return tb
}

func TestInferKind(t *testing.T) {
	cases := []struct {
		name   string
		values []string
		want   Kind
	}{
		{name: "ints", values: []string{"1", "-2", "30"}, want: KindInt},
		{name: "ints with gap", values: []string{"1", "", "3"}, want: KindFloat},
		{name: "floats", values: []string{"1.5", "2", "3e2"}, want: KindFloat},
		{name: "all missing", values: []string{"", "NA", "null"}, want: KindFloat},
		{name: "no rows", values: nil, want: KindFloat},
		{name: "text", values: []string{"1", "x"}, want: KindString},
		{name: "text with gap", values: []string{"a", "None"}, want: KindString},
		{name: "int past int64", values: []string{"1", "99999999999999999999"}, want: KindString},
		{name: "negative int past int64", values: []string{"1.5", "-99999999999999999999"}, want: KindString},
		{name: "big float", values: []string{"1", "99999999999999999999.0"}, want: KindFloat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InferKind(tc.values))
		})
	}
}

func TestFromRecordsKeepsHugeIntegers(t *testing.T) {
	tb, err := FromRecords([][]string{{"id"}, {"99999999999999999999"}, {"1"}})
	require.NoError(t, err)

	assert.Equal(t, []Column{{Name: "id", Kind: KindString}}, tb.Columns())
	assert.Equal(t, [][]string{{"id"}, {"99999999999999999999"}, {"1"}}, tb.Records())
}

func TestFromRecords(t *testing.T) {
	tb := sample(t)

	assert.Equal(t, 3, tb.Rows())
	assert.Equal(t, []Column{
		{Name: "id", Kind: KindInt},
		{Name: "name", Kind: KindString},
		{Name: "score", Kind: KindFloat},
		{Name: "age", Kind: KindFloat},
	}, tb.Columns())

	assert.Equal(t, [][]string{
		{"id", "name", "score", "age"},
		{"1", "ana", "10.5", "30"},
		{"2", "", "", "41"},
		{"3", "budi", "7", ""},
	}, tb.Records())

	c := tb.Cell(1, 1)
	assert.True(t, c.Missing)
	assert.Nil(t, c.Value())
	assert.Equal(t, 1, tb.Cell(0, 0).Value())
	assert.Equal(t, 10.5, tb.Cell(0, 2).Value())
}

func TestFromRecordsErrors(t *testing.T) {
	_, err := FromRecords(nil)
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = FromRecords([][]string{{}})
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = FromRecords([][]string{{"a", "b"}, {"1"}})
	assert.Error(t, err)
}

func TestFromRecordsHeaderOnly(t *testing.T) {
	tb, err := FromRecords([][]string{{"a", "b"}})
	require.NoError(t, err)

	assert.Equal(t, 0, tb.Rows())
	assert.Equal(t, []string{"a", "b"}, tb.Names())
	assert.Equal(t, [][]string{{"a", "b"}}, tb.Records())
}

func TestFromRecordsDuplicateHeader(t *testing.T) {
	tb, err := FromRecords([][]string{{"a", "a", "", "a"}, {"1", "2", "3", "4"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "a.2"}, tb.Names())
}

func TestHead(t *testing.T) {
	tb := sample(t)

	assert.Equal(t, 2, tb.Head(2).Rows())
	assert.Equal(t, "2", tb.Head(2).Cell(1, 0).String())
	assert.True(t, tb.Head(10).Equal(tb))
	assert.Equal(t, 0, tb.Head(0).Rows())
	assert.Equal(t, tb.Names(), tb.Head(0).Names())
}

func TestSelect(t *testing.T) {
	tb := sample(t)

	got, err := tb.Select([]string{"age", "id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "id"}, got.Names())
	assert.Equal(t, 3, got.Rows())

	empty, err := tb.Select(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Width())
	assert.Equal(t, 3, empty.Rows())
	assert.Equal(t, [][]string{{}, {}, {}, {}}, empty.Records())

	_, err = tb.Select([]string{"nope"})
	assert.True(t, errors.Is(err, ErrUnknownColumn))
}

func TestSubsetRowsColumnless(t *testing.T) {
	got, err := Empty(4).SubsetRows([]int{0, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Rows())
	assert.Equal(t, 0, got.Width())
}

func TestWithFloats(t *testing.T) {
	tb := sample(t)

	got, err := tb.WithFloats("score", []float64{10.5, 8.75, 7})
	require.NoError(t, err)
	assert.Equal(t, "8.75", got.Cell(1, 2).String())
	assert.Equal(t, tb.Names(), got.Names())
	assert.True(t, tb.Cell(1, 2).Missing, "source table must not change")

	got, err = tb.WithFloats("age", []float64{30, 41, math.NaN()})
	require.NoError(t, err)
	assert.True(t, got.Cell(2, 3).Missing)

	_, err = tb.WithFloats("score", []float64{1})
	assert.Error(t, err)
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", Cell{Kind: KindInt, Missing: true}.String())
	assert.Equal(t, "-12", Cell{Kind: KindInt, Int: -12}.String())
	assert.Equal(t, "0.1", Cell{Kind: KindFloat, Float: 0.1}.String())
	assert.Equal(t, "3", Cell{Kind: KindFloat, Float: 3}.String())
	assert.Equal(t, "x y", Cell{Kind: KindString, Text: "x y"}.String())

	n, ok := Cell{Kind: KindString, Text: "5"}.Number()
	assert.False(t, ok)
	assert.Zero(t, n)
}
