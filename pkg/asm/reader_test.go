package asm

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderStripsCommentsAndBlanks(t *testing.T) {
	src := "// header\n\n   @R0   // load\n\t(LOOP)\nD=M;JGT//trailing\n   \n"
	rd, err := NewReader(strings.NewReader(src))
	require.NoError(t, err)

	var got []string
	var lines []int
	for rd.HasMore() {
		rd.Advance()
		got = append(got, rd.Text())
		lines = append(lines, rd.Line())
	}
	assert.Equal(t, []string{"@R0", "(LOOP)", "D=M;JGT"}, got)
	assert.Equal(t, []int{3, 4, 5}, lines)

	assert.Panics(t, rd.Advance)

	rd.Reset()
	require.True(t, rd.HasMore())
	rd.Advance()
	assert.Equal(t, "@R0", rd.Text())
}

func TestReaderClassify(t *testing.T) {
	tests := []struct {
		line   string
		kind   CommandKind
		symbol string
	}{
		{"@17", Address, "17"},
		{"@sum", Address, "sum"},
		{"(END)", Label, "END"},
		{"(Main.loop$if)", Label, "Main.loop$if"},
		{"D=A", Compute, ""},
		{"0;JMP", Compute, ""},
		{"(broken", Compute, ""},
	}
	for _, tc := range tests {
		rd, err := NewReader(strings.NewReader(tc.line))
		require.NoError(t, err)
		rd.Advance()
		assert.Equal(t, tc.kind, rd.Kind(), tc.line)

		sym, err := rd.Symbol()
		if tc.kind == Compute {
			assert.True(t, errors.Is(err, ErrWrongCommand), tc.line)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.symbol, sym)
	}
}

func TestReaderDecompose(t *testing.T) {
	tests := []struct {
		line             string
		dest, comp, jump string
	}{
		{"D=A", "D", "A", "null"},
		{"0;JMP", "null", "0", "JMP"},
		{"AMD=M+1;JNE", "AMD", "M+1", "JNE"},
		{"M", "null", "M", "null"},
	}
	for _, tc := range tests {
		rd, err := NewReader(strings.NewReader(tc.line))
		require.NoError(t, err)
		rd.Advance()
		dest, comp, jump, err := rd.Decompose()
		require.NoError(t, err)
		assert.Equal(t, []string{tc.dest, tc.comp, tc.jump}, []string{dest, comp, jump}, tc.line)
	}

	rd, err := NewReader(strings.NewReader("@5"))
	require.NoError(t, err)
	rd.Advance()
	_, _, _, err = rd.Decompose()
	assert.True(t, errors.Is(err, ErrWrongCommand))
}
