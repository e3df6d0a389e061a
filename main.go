//go:build !js

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"hackvm/pkg/config"
	"hackvm/pkg/cpu"
	"hackvm/pkg/hack"
	"hackvm/pkg/pipeline"
	"hackvm/pkg/utils"
)

var (
	configPath string
	// flags receives command-line values; cfg is the merged result.
	flags = config.Default()
	cfg   *config.Config
)

func newRootCommand() *cobra.Command {
	configPath = ""
	flags = config.Default()
	root := &cobra.Command{
		Use:   "hackvm",
		Short: "Translate VM code to Hack assembly, assemble it, and run it",
		Long: `hackvm lowers the stack-based VM language to Hack assembly and assembles
Hack assembly into 16-bit binary text. Programs can be run on the built-in
Hack emulator.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to a TOML or YAML config file")
	flags.AddFlags(pf)

	root.AddCommand(
		translateCommand(),
		assembleCommand(),
		buildCommand(),
		disasmCommand(),
		runCommand(),
	)
	return root
}

// setup merges config file and flags, then configures logging.
func setup(cmd *cobra.Command, _ []string) error {
	c := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		c = loaded
	}
	c.Override(cmd.Flags(), flags)
	if err := c.Validate(); err != nil {
		return err
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "log level %q", c.LogLevel)
	}
	logrus.SetLevel(level)
	cfg = c
	return nil
}

func translateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "translate FILE.vm|DIR",
		Short: "Translate VM sources into one .asm file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			res, err := pipeline.Translate(args[0], cfg)
			if err != nil {
				return err
			}
			fmt.Println(res.AsmPath)
			return nil
		},
	}
}

func assembleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assemble FILE.asm",
		Short: "Assemble a .asm file into a .hack file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			hackPath := utils.ReplaceExt(args[0], utils.HackExt)
			if cfg.OutDir != "" {
				hackPath = filepath.Join(cfg.OutDir, filepath.Base(hackPath))
			}
			n, err := pipeline.Assemble(args[0], hackPath)
			if err != nil {
				return err
			}
			fmt.Printf("assembled %d instructions -> %s\n", n, hackPath)
			return nil
		},
	}
}

func buildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build FILE.vm|DIR",
		Short: "Translate and assemble VM sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			res, err := pipeline.Build(args[0], cfg)
			if err != nil {
				return err
			}
			fmt.Printf("built %d file(s) -> %s, %s (%d instructions)\n",
				len(res.Sources), res.AsmPath, res.HackPath, res.Words)
			return nil
		},
	}
}

func disasmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm FILE.hack",
		Short: "Print the assembly for a .hack file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "opening program")
			}
			defer f.Close()
			return errors.Wrapf(hack.Disassemble(f, os.Stdout), "%s", args[0])
		},
	}
}

func runCommand() *cobra.Command {
	var (
		snapshot   string
		screenshot string
		scale      int
	)
	cmd := &cobra.Command{
		Use:   "run FILE.hack|FILE.asm|FILE.vm|DIR",
		Short: "Run a program on the Hack emulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			words, err := pipeline.LoadProgram(args[0], cfg)
			if err != nil {
				return err
			}
			vm := cpu.NewCPU()
			if err := vm.Load(words); err != nil {
				return err
			}
			n := vm.RunCycles(cfg.Cycles)
			if !vm.Halted {
				logrus.Warnf("stopped after %d cycles without halting", n)
			}
			fmt.Printf("run complete (%s): cycles=%d halted=%t PC=%d SP=%d top=%d\n",
				args[0], n, vm.Halted, vm.PC, vm.SP(), int16(vm.StackTop()))

			if snapshot != "" {
				if err := vm.HibernateToFile(snapshot); err != nil {
					return err
				}
			}
			if screenshot != "" {
				if err := vm.SaveScreenshot(screenshot, scale); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "write the final machine state to this ZIP file")
	cmd.Flags().StringVar(&screenshot, "screenshot", "", "save the screen to this PNG file")
	cmd.Flags().IntVar(&scale, "scale", 1, "screenshot scale factor")
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if logrus.IsLevelEnabled(logrus.TraceLevel) {
			fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
