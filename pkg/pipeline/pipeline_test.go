package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackvm/pkg/config"
	"hackvm/pkg/cpu"
	"hackvm/pkg/hack"
	"hackvm/pkg/vm"
)

const sysVM = `// entry point
function Sys.init 0
push constant 6
push constant 7
call Main.mul 2
pop static 0
label END
goto END
`

const mainVM = `// x * y by repeated addition
function Main.mul 1
push constant 0
pop local 0
label LOOP
push argument 1
if-goto BODY
push local 0
return
label BODY
push local 0
push argument 0
add
pop local 0
push argument 1
push constant 1
sub
pop argument 1
goto LOOP
`

func writeProgram(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Mul")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, code := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(code), 0o644))
	}
	return dir
}

func TestBuildDirectory(t *testing.T) {
	dir := writeProgram(t, map[string]string{"Sys.vm": sysVM, "Main.vm": mainVM})

	res, err := Build(dir, config.Default())
	require.NoError(t, err)
	assert.True(t, res.Bootstrap, "Sys.vm enables bootstrap in auto mode")
	assert.Equal(t, filepath.Join(dir, "Mul.asm"), res.AsmPath)
	assert.Equal(t, filepath.Join(dir, "Mul.hack"), res.HackPath)
	assert.Equal(t, []string{filepath.Join(dir, "Main.vm"), filepath.Join(dir, "Sys.vm")}, res.Sources)

	code, err := os.ReadFile(res.AsmPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(code), "@256\n"))

	f, err := os.Open(res.HackPath)
	require.NoError(t, err)
	defer f.Close()
	words, err := hack.ReadProgram(f)
	require.NoError(t, err)
	assert.Len(t, words, res.Words)

	c := cpu.NewCPU()
	require.NoError(t, c.Load(words))
	c.RunCycles(100000)
	require.True(t, c.Halted)
	assert.Equal(t, uint16(42), c.RAM[16])
}

func TestBuildOutDirAndNoBootstrap(t *testing.T) {
	dir := writeProgram(t, map[string]string{"Add.vm": "push constant 2\npush constant 3\nadd\n"})
	out := filepath.Join(t.TempDir(), "out")

	cfg := config.Default()
	cfg.OutDir = out
	cfg.Annotate = true
	res, err := Build(filepath.Join(dir, "Add.vm"), cfg)
	require.NoError(t, err)
	assert.False(t, res.Bootstrap)
	assert.Equal(t, filepath.Join(out, "Add.asm"), res.AsmPath)

	code, err := os.ReadFile(res.AsmPath)
	require.NoError(t, err)
	assert.Contains(t, string(code), "// Add: push constant 2\n")
}

func TestBootstrapAlways(t *testing.T) {
	dir := writeProgram(t, map[string]string{"Main.vm": "function Main.main 0\nreturn\n"})
	cfg := config.Default()
	cfg.Bootstrap = config.BootstrapAlways
	res, err := Translate(dir, cfg)
	require.NoError(t, err)
	assert.True(t, res.Bootstrap)
}

func TestTranslateErrorNamesFileAndLine(t *testing.T) {
	dir := writeProgram(t, map[string]string{"Bad.vm": "push constant 1\n\npop constant 1\n"})
	_, err := Build(dir, config.Default())
	require.Error(t, err)
	assert.True(t, errors.Is(err, vm.ErrMalformedCommand))
	assert.Contains(t, err.Error(), "Bad.vm:3")
}

func TestAssembleError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.asm")
	require.NoError(t, os.WriteFile(path, []byte("@1\nD=Q\n"), 0o644))

	_, err := Assemble(path, filepath.Join(dir, "bad.hack"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, hack.ErrUnknownMnemonic))
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadProgramFormats(t *testing.T) {
	dir := writeProgram(t, map[string]string{"Sys.vm": sysVM, "Main.vm": mainVM})
	cfg := config.Default()

	fromDir, err := LoadProgram(dir, cfg)
	require.NoError(t, err)

	res, err := Build(dir, cfg)
	require.NoError(t, err)

	fromAsm, err := LoadProgram(res.AsmPath, cfg)
	require.NoError(t, err)
	fromHack, err := LoadProgram(res.HackPath, cfg)
	require.NoError(t, err)

	assert.Equal(t, fromDir, fromAsm)
	assert.Equal(t, fromDir, fromHack)
}

func TestMissingInput(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "nope"), config.Default())
	assert.Error(t, err)
}
