package hack

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestBijection(t *testing.T) {
	tests := []struct {
		mnemonic string
		bits     uint16
	}{
		{"null", 0b000},
		{"M", 0b001},
		{"D", 0b010},
		{"MD", 0b011},
		{"A", 0b100},
		{"AM", 0b101},
		{"AD", 0b110},
		{"AMD", 0b111},
	}
	seen := make(map[uint16]string)
	for _, tc := range tests {
		d, err := ParseDest(tc.mnemonic)
		require.NoError(t, err, tc.mnemonic)
		assert.Equal(t, tc.bits, d.Bits(), tc.mnemonic)
		assert.Equal(t, tc.mnemonic, d.String())

		assert.Equal(t, strings.Contains(tc.mnemonic, "A") && tc.mnemonic != Null, d.Bits()&0b100 != 0, "A bit of %s", tc.mnemonic)
		assert.Equal(t, strings.Contains(tc.mnemonic, "D"), d.Bits()&0b010 != 0, "D bit of %s", tc.mnemonic)
		assert.Equal(t, strings.Contains(tc.mnemonic, "M"), d.Bits()&0b001 != 0, "M bit of %s", tc.mnemonic)

		_, dup := seen[d.Bits()]
		assert.False(t, dup, "bits %03b used twice", d.Bits())
		seen[d.Bits()] = tc.mnemonic
	}
	assert.Len(t, seen, 8)
}

func TestCompEncoding(t *testing.T) {
	tests := []struct {
		mnemonic string
		bits     uint16
	}{
		{"0", 0b0101010},
		{"1", 0b0111111},
		{"-1", 0b0111010},
		{"D", 0b0001100},
		{"A", 0b0110000},
		{"M", 0b1110000},
		{"!D", 0b0001101},
		{"!M", 0b1110001},
		{"-A", 0b0110011},
		{"D+1", 0b0011111},
		{"M+1", 0b1110111},
		{"A-1", 0b0110010},
		{"D+M", 0b1000010},
		{"D-A", 0b0010011},
		{"M-D", 0b1000111},
		{"D&A", 0b0000000},
		{"D|M", 0b1010101},
	}
	for _, tc := range tests {
		c, err := ParseComp(tc.mnemonic)
		require.NoError(t, err, tc.mnemonic)
		assert.Equal(t, tc.bits, c.Bits(), "comp %s", tc.mnemonic)
		assert.Equal(t, tc.mnemonic, c.String())
	}
}

func TestCompAllDistinct(t *testing.T) {
	seen := make(map[uint16]Comp)
	for c := Comp(0); c < compCount; c++ {
		prev, dup := seen[c.Bits()]
		require.False(t, dup, "%s and %s share bits", c, prev)
		seen[c.Bits()] = c
		assert.Equal(t, strings.Contains(c.String(), "M"), c.UsesMemory(), c.String())
	}
	assert.Len(t, seen, 28)
}

func TestJumpEncoding(t *testing.T) {
	for i, m := range []string{"null", "JGT", "JEQ", "JGE", "JLT", "JNE", "JLE", "JMP"} {
		j, err := ParseJump(m)
		require.NoError(t, err)
		assert.Equal(t, uint16(i), j.Bits(), m)
		assert.Equal(t, m, j.String())
	}

	assert.True(t, JumpJGT.Taken(1))
	assert.False(t, JumpJGT.Taken(0))
	assert.True(t, JumpJLE.Taken(-3))
	assert.True(t, JumpJNE.Taken(1))
	assert.False(t, JumpNull.Taken(0))
}

func TestUnknownMnemonic(t *testing.T) {
	tests := []struct {
		parse func(string) error
		field Field
		text  string
	}{
		{func(s string) error { _, err := ParseDest(s); return err }, FieldDest, "DM"},
		{func(s string) error { _, err := ParseDest(s); return err }, FieldDest, "m"},
		{func(s string) error { _, err := ParseComp(s); return err }, FieldComp, "M+D"},
		{func(s string) error { _, err := ParseComp(s); return err }, FieldComp, "d+1"},
		{func(s string) error { _, err := ParseJump(s); return err }, FieldJump, "jmp"},
		{func(s string) error { _, err := ParseJump(s); return err }, FieldJump, ""},
	}
	for _, tc := range tests {
		err := tc.parse(tc.text)
		require.Error(t, err, tc.text)
		assert.True(t, errors.Is(err, ErrUnknownMnemonic))

		var me *MnemonicError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, tc.field, me.Field)
		assert.Equal(t, tc.text, me.Mnemonic)
		assert.Contains(t, err.Error(), string(tc.field))
	}
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "1110110000010000", Format(EncodeCompute(DestD, CompA, JumpNull)))
	assert.Equal(t, "1110001100000001", Format(EncodeCompute(DestNull, CompD, JumpJGT)))
	assert.Equal(t, "1111110111011000", Format(EncodeCompute(DestMD, CompMPlusOne, JumpNull)))
	assert.Equal(t, "1110101010000111", Format(EncodeCompute(DestNull, CompZero, JumpJMP)))

	w, err := EncodeAddress(16)
	require.NoError(t, err)
	assert.Equal(t, "0000000000010000", Format(w))

	_, err = EncodeAddress(MaxAddress + 1)
	assert.Error(t, err)
	_, err = EncodeAddress(-1)
	assert.Error(t, err)
}

func TestDecodeRoundTrip(t *testing.T) {
	for c := Comp(0); c < compCount; c++ {
		for d := DestNull; d <= DestAMD; d++ {
			for j := JumpNull; j <= JumpJMP; j++ {
				in, err := Decode(EncodeCompute(d, c, j))
				require.NoError(t, err)
				assert.Equal(t, Instruction{Dest: d, Comp: c, Jump: j}, in)
			}
		}
	}

	in, err := Decode(12345)
	require.NoError(t, err)
	assert.Equal(t, "@12345", in.String())

	_, err = Decode(0b1110_0000_0100_0000)
	assert.True(t, errors.Is(err, ErrUnknownMnemonic))

	_, err = Decode(0b1000_0000_0000_0000)
	assert.Error(t, err)
}

func TestDisassemble(t *testing.T) {
	src := strings.Join([]string{
		"0000000000000011",
		"1110110000010000",
		"",
		"1110001100000001",
		"1111110111011000",
		"1110101010000111",
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, Disassemble(strings.NewReader(src), &out))
	assert.Equal(t, "@3\nD=A\nD;JGT\nMD=M+1\n0;JMP\n", out.String())

	err := Disassemble(strings.NewReader("0101\n"), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}
