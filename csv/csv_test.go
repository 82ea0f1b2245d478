package csv_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PavelKisliak/bitserializer-go/csv"
)

func TestStringReader_QuotedFieldWithEmbeddedCommaAndCRLF(t *testing.T) {
	input := "Name,Desc\r\nA,\"has, comma\r\nand newline\"\r\n"

	r, err := csv.NewStringReader(input, true, ',')
	require.NoError(t, err)
	require.Equal(t, 2, r.GetHeadersCount())

	ok, err := r.ParseNextRow()
	require.NoError(t, err)
	require.True(t, ok)

	name, err := r.ReadNextValue()
	require.NoError(t, err)
	assert.Equal(t, "A", name)

	desc, err := r.ReadNextValue()
	require.NoError(t, err)
	assert.Equal(t, "has, comma\r\nand newline", desc)

	ok, err = r.ParseNextRow()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, r.IsEnd())
}

func TestWriter_QuotedFieldWithEmbeddedCommaAndCRLFRoundTrips(t *testing.T) {
	input := "Name,Desc\r\nA,\"has, comma\r\nand newline\"\r\n"

	r, err := csv.NewStringReader(input, true, ',')
	require.NoError(t, err)
	ok, err := r.ParseNextRow()
	require.NoError(t, err)
	require.True(t, ok)

	w, err := csv.NewStringWriter(true, ',')
	require.NoError(t, err)
	require.NoError(t, w.WriteValue("Name", must(r.ReadValue("Name"))))
	require.NoError(t, w.WriteValue("Desc", must(r.ReadValue("Desc"))))
	require.NoError(t, w.NextLine())

	assert.Equal(t, input, string(w.Bytes()))
}

func must(v string, ok bool) string {
	if !ok {
		panic("value not found")
	}
	return v
}

func TestReadValue_FastPathAndFallbackScan(t *testing.T) {
	r, err := csv.NewStringReader("A,B,C\r\n1,2,3\r\n", true, ',')
	require.NoError(t, err)
	ok, err := r.ParseNextRow()
	require.NoError(t, err)
	require.True(t, ok)

	// Reading "A" hits the fast path (the cursor is on column 0); reading
	// "C" next, while the cursor is on "B", forces the header-index
	// fallback lookup.
	v, ok := r.ReadValue("A")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	v, ok = r.ReadValue("C")
	require.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestReadNextValue_FailsPastLastColumn(t *testing.T) {
	r, err := csv.NewStringReader("A,B\r\n1,2\r\n", true, ',')
	require.NoError(t, err)
	_, err = r.ParseNextRow()
	require.NoError(t, err)

	_, err = r.ReadNextValue()
	require.NoError(t, err)
	_, err = r.ReadNextValue()
	require.NoError(t, err)
	_, err = r.ReadNextValue()
	assert.Error(t, err)
}

func TestColumnCountMismatchIsParseError(t *testing.T) {
	r, err := csv.NewStringReader("A,B\r\n1,2,3\r\n", true, ',')
	require.NoError(t, err)
	_, err = r.ParseNextRow()
	assert.Error(t, err)
}

func TestEmptyInputWithHeaderFailsConstruction(t *testing.T) {
	_, err := csv.NewStringReader("", true, ',')
	assert.ErrorIs(t, err, csv.ErrEmptyHeaderInput)
}

func TestInvalidSeparatorRejectedAtConstruction(t *testing.T) {
	_, err := csv.NewStringReader("a,b\n", false, '#')
	assert.ErrorIs(t, err, csv.ErrInvalidSeparator)
}

func TestStreamReader_DecodesUTF8Stream(t *testing.T) {
	input := "Name,Age\r\nAda,36\r\nLinus,54\r\n"
	r, err := csv.NewStreamReader(strings.NewReader(input), true, ',')
	require.NoError(t, err)
	require.Equal(t, 2, r.GetHeadersCount())

	var got [][]string
	for {
		ok, err := r.ParseNextRow()
		require.NoError(t, err)
		if !ok {
			break
		}
		row := make([]string, 0, 2)
		for i := 0; i < 2; i++ {
			v, err := r.ReadNextValue()
			require.NoError(t, err)
			row = append(row, v)
		}
		got = append(got, row)
	}
	assert.Equal(t, [][]string{{"Ada", "36"}, {"Linus", "54"}}, got)
}

func TestWriter_RejectsRowWidthChange(t *testing.T) {
	w, err := csv.NewStringWriter(false, ',')
	require.NoError(t, err)
	require.NoError(t, w.WriteNextValue("a"))
	require.NoError(t, w.WriteNextValue("b"))
	require.NoError(t, w.NextLine())

	require.NoError(t, w.WriteNextValue("c"))
	err = w.NextLine()
	assert.Error(t, err)
}

func TestLoneTrailingCRAtEOFIsTolerated(t *testing.T) {
	r, err := csv.NewStringReader("a,b\r", false, ',')
	require.NoError(t, err)
	ok, err := r.ParseNextRow()
	require.NoError(t, err)
	require.True(t, ok)
	a, _ := r.ReadNextValue()
	b, _ := r.ReadNextValue()
	assert.Equal(t, "a", a)
	assert.Equal(t, "b", b)
}

func TestSeekToHeader(t *testing.T) {
	r, err := csv.NewStringReader("A,B,C\r\n1,2,3\r\n", true, ',')
	require.NoError(t, err)
	_, err = r.ParseNextRow()
	require.NoError(t, err)

	name, ok := r.SeekToHeader(2)
	require.True(t, ok)
	assert.Equal(t, "C", name)

	v, err := r.ReadNextValue()
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}
