// Package pipeline runs the translator and the assembler over files on disk.
package pipeline

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hackvm/pkg/asm"
	"hackvm/pkg/config"
	"hackvm/pkg/hack"
	"hackvm/pkg/utils"
	"hackvm/pkg/vm"
)

// Result describes the files one run read and produced.
type Result struct {
	Sources   []string
	Bootstrap bool
	AsmPath   string
	HackPath  string
	Words     int
}

// Translate writes the assembly for the .vm file or directory at path.
func Translate(path string, cfg *config.Config) (*Result, error) {
	res, err := plan(path, cfg)
	if err != nil {
		return nil, err
	}
	err = writeFile(res.AsmPath, func(w io.Writer) error {
		return translateTo(w, res, cfg)
	})
	if err != nil {
		return nil, err
	}
	logrus.Infof("translated %d file(s) -> %s", len(res.Sources), res.AsmPath)
	return res, nil
}

// Assemble reads asmPath and writes its binary to hackPath, returning the
// instruction count.
func Assemble(asmPath, hackPath string) (int, error) {
	prog, err := assembleFile(asmPath)
	if err != nil {
		return 0, err
	}
	if err := writeFile(hackPath, func(w io.Writer) error {
		_, err := prog.WriteTo(w)
		return err
	}); err != nil {
		return 0, err
	}
	logrus.Infof("assembled %d instruction(s) -> %s", len(prog.Words), hackPath)
	return len(prog.Words), nil
}

// Build translates path, then assembles the result.
func Build(path string, cfg *config.Config) (*Result, error) {
	res, err := Translate(path, cfg)
	if err != nil {
		return nil, err
	}
	if res.Words, err = Assemble(res.AsmPath, res.HackPath); err != nil {
		return nil, err
	}
	return res, nil
}

// LoadProgram returns the machine words for path without writing anything:
// .hack files are read, .asm files assembled, and VM sources translated and
// assembled in memory.
func LoadProgram(path string, cfg *config.Config) ([]uint16, error) {
	switch filepath.Ext(path) {
	case utils.HackExt:
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "opening program")
		}
		defer f.Close()
		words, err := hack.ReadProgram(f)
		return words, errors.Wrapf(err, "%s", path)
	case utils.AsmExt:
		prog, err := assembleFile(path)
		if err != nil {
			return nil, err
		}
		return prog.Words, nil
	}

	res, err := plan(path, cfg)
	if err != nil {
		return nil, err
	}
	var code bytes.Buffer
	if err := translateTo(&code, res, cfg); err != nil {
		return nil, err
	}
	prog, err := asm.NewAssembler().Assemble(&code)
	if err != nil {
		return nil, errors.Wrapf(err, "assembling %s", path)
	}
	return prog.Words, nil
}

func plan(path string, cfg *config.Config) (*Result, error) {
	files, err := utils.DiscoverSources(path)
	if err != nil {
		return nil, err
	}
	asmPath, hackPath, err := utils.OutputPaths(path, cfg.OutDir)
	if err != nil {
		return nil, err
	}
	return &Result{
		Sources:   files,
		Bootstrap: cfg.UseBootstrap(utils.HasSysInit(files)),
		AsmPath:   asmPath,
		HackPath:  hackPath,
	}, nil
}

func translateTo(w io.Writer, res *Result, cfg *config.Config) (err error) {
	sources := make([]vm.Source, 0, len(res.Sources))
	var opened []*os.File
	defer func() {
		for _, f := range opened {
			if cerr := f.Close(); cerr != nil {
				err = multierror.Append(err, cerr)
			}
		}
	}()
	for _, name := range res.Sources {
		f, err := os.Open(name)
		if err != nil {
			return errors.Wrap(err, "opening source")
		}
		opened = append(opened, f)
		sources = append(sources, vm.Source{Name: name, R: f})
	}
	logrus.Debugf("pipeline: bootstrap=%v sources=%v", res.Bootstrap, res.Sources)
	return vm.Translate(w, sources, vm.Options{Bootstrap: res.Bootstrap, Annotate: cfg.Annotate})
}

func assembleFile(path string) (*asm.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening assembly")
	}
	defer f.Close()
	prog, err := asm.NewAssembler().Assemble(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return prog, nil
}

// writeFile creates path and hands write a buffered writer. Write, flush and
// close failures are all reported.
func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	bw := bufio.NewWriter(f)

	var result *multierror.Error
	if err := write(bw); err != nil {
		result = multierror.Append(result, err)
	}
	if err := bw.Flush(); err != nil {
		result = multierror.Append(result, errors.Wrapf(err, "flushing %s", path))
	}
	if err := f.Close(); err != nil {
		result = multierror.Append(result, errors.Wrapf(err, "closing %s", path))
	}
	if result != nil && len(result.Errors) == 1 {
		return result.Errors[0]
	}
	return result.ErrorOrNil()
}
