// Command console runs a Hack program headless and prints the final machine
// state.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"hackvm/pkg/config"
	"hackvm/pkg/cpu"
	"hackvm/pkg/pipeline"
)

type options struct {
	configPath string
	restore    string
	save       string
	screenshot string
	key        uint16
	stack      int
}

func parseArgs(args []string) (*options, *config.Config, []string, error) {
	fs := pflag.NewFlagSet("console", pflag.ContinueOnError)
	opts := &options{}
	flags := config.Default()
	fs.StringVar(&opts.configPath, "config", "", "path to a TOML or YAML config file")
	fs.StringVar(&opts.restore, "restore", "", "resume from a snapshot instead of loading a program")
	fs.StringVar(&opts.save, "save", "", "write a snapshot after running")
	fs.StringVar(&opts.screenshot, "screenshot", "", "save the screen as PNG after running")
	fs.Uint16Var(&opts.key, "key", 0, "key code held in KBD while running")
	fs.IntVar(&opts.stack, "stack", 8, "number of stack words to print")
	flags.AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, err
	}

	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, nil, nil, err
		}
		cfg = loaded
	}
	cfg.Override(fs, flags)
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	return opts, cfg, fs.Args(), nil
}

func load(opts *options, cfg *config.Config, args []string) (*cpu.CPU, error) {
	vm := cpu.NewCPU()
	if opts.restore != "" {
		return vm, vm.RestoreFromFile(opts.restore)
	}
	if len(args) != 1 {
		return nil, errors.New("usage: console [flags] FILE.hack|FILE.asm|FILE.vm|DIR")
	}
	words, err := pipeline.LoadProgram(args[0], cfg)
	if err != nil {
		return nil, err
	}
	logrus.Infof("loaded %d instructions from %s", len(words), args[0])
	return vm, vm.Load(words)
}

func printState(w io.Writer, vm *cpu.CPU, depth int) {
	fmt.Fprintf(w, "halted=%t cycles=%d PC=%d A=%d D=%d\n", vm.Halted, vm.Cycles, vm.PC, vm.A, int16(vm.D))
	fmt.Fprintf(w, "SP=%d LCL=%d ARG=%d THIS=%d THAT=%d\n",
		vm.RAM[cpu.RegSP], vm.RAM[cpu.RegLCL], vm.RAM[cpu.RegARG], vm.RAM[cpu.RegTHIS], vm.RAM[cpu.RegTHAT])
	sp := int(vm.SP())
	for i := 1; i <= depth && sp-i >= 0; i++ {
		addr := sp - i
		fmt.Fprintf(w, "  [%5d] %6d\n", addr, int16(vm.RAM[addr]))
	}
}

func run(args []string, out io.Writer) error {
	opts, cfg, rest, err := parseArgs(args)
	if err != nil {
		return err
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	vm, err := load(opts, cfg, rest)
	if err != nil {
		return err
	}
	if opts.key != 0 {
		vm.PushKey(opts.key)
	}
	if n := vm.RunCycles(cfg.Cycles); !vm.Halted {
		logrus.Warnf("stopped after %d cycles without halting", n)
	}
	printState(out, vm, opts.stack)

	if opts.save != "" {
		if err := vm.HibernateToFile(opts.save); err != nil {
			return err
		}
	}
	if opts.screenshot != "" {
		return vm.SaveScreenshot(opts.screenshot, 1)
	}
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
