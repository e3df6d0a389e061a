package main

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"hackvm/pkg/config"
	"hackvm/pkg/cpu"
	"hackvm/pkg/pipeline"
)

// Hack key codes for keys without a printable character.
const (
	KeyNewline   = 128
	KeyBackspace = 129
	KeyLeft      = 130
	KeyUp        = 131
	KeyRight     = 132
	KeyDown      = 133
	KeyHome      = 134
	KeyEnd       = 135
	KeyPageUp    = 136
	KeyPageDown  = 137
	KeyInsert    = 138
	KeyDelete    = 139
	KeyEscape    = 140
	KeyF1        = 141
)

var specialKeys = map[ebiten.Key]uint16{
	ebiten.KeyEnter:     KeyNewline,
	ebiten.KeyBackspace: KeyBackspace,
	ebiten.KeyLeft:      KeyLeft,
	ebiten.KeyUp:        KeyUp,
	ebiten.KeyRight:     KeyRight,
	ebiten.KeyDown:      KeyDown,
	ebiten.KeyHome:      KeyHome,
	ebiten.KeyEnd:       KeyEnd,
	ebiten.KeyPageUp:    KeyPageUp,
	ebiten.KeyPageDown:  KeyPageDown,
	ebiten.KeyInsert:    KeyInsert,
	ebiten.KeyDelete:    KeyDelete,
	ebiten.KeyEscape:    KeyEscape,
}

func init() {
	fkeys := []ebiten.Key{
		ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3, ebiten.KeyF4, ebiten.KeyF5, ebiten.KeyF6,
		ebiten.KeyF7, ebiten.KeyF8, ebiten.KeyF9, ebiten.KeyF10, ebiten.KeyF11, ebiten.KeyF12,
	}
	for i, k := range fkeys {
		specialKeys[k] = uint16(KeyF1 + i)
	}
}

// hackKey maps a held key to its Hack code, or 0 when it has none.
func hackKey(k ebiten.Key) uint16 {
	return specialKeys[k]
}

type Game struct {
	vm             *cpu.CPU
	cyclesPerFrame int
	held           uint16
	screenImg      *ebiten.Image // reused 512×256 canvas
}

// pollKeyboard keeps KBD equal to the key currently held down.
func (g *Game) pollKeyboard() {
	pressed := inpututil.AppendPressedKeys(nil)
	if len(pressed) == 0 {
		g.held = 0
	}
	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 128 {
			g.held = uint16(r)
		}
	}
	for _, k := range pressed {
		if code := hackKey(k); code != 0 {
			g.held = code
		}
	}
	g.vm.PushKey(g.held)
}

// stepFrame runs the CPU for one frame's worth of cycles.
func (g *Game) stepFrame() int {
	return g.vm.RunCycles(g.cyclesPerFrame)
}

func (g *Game) Update() error {
	g.pollKeyboard()
	g.stepFrame()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screenImg == nil {
		g.screenImg = ebiten.NewImage(cpu.ScreenWidth, cpu.ScreenHeight)
	}
	g.screenImg.WritePixels(g.vm.GetFramebufferRGBA())
	screen.DrawImage(g.screenImg, nil)

	if g.vm.Halted {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("HALTED after %d cycles", g.vm.Cycles), 4, cpu.ScreenHeight-16)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cpu.ScreenWidth, cpu.ScreenHeight
}

func main() {
	fs := pflag.NewFlagSet("desktop", pflag.ExitOnError)
	cyclesPerFrame := fs.Int("cycles-per-frame", 50000, "CPU cycles executed per frame")
	scale := fs.Int("scale", 2, "window scale")
	cfg := config.Default()
	cfg.AddFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: desktop [flags] FILE.hack|FILE.asm|FILE.vm|DIR")
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatal(err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	words, err := pipeline.LoadProgram(fs.Arg(0), cfg)
	if err != nil {
		logrus.Fatalf("loading program: %v", err)
	}
	vm := cpu.NewCPU()
	if err := vm.Load(words); err != nil {
		logrus.Fatal(err)
	}
	logrus.Infof("loaded %d instructions from %s", len(words), fs.Arg(0))

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cpu.ScreenWidth*(*scale), cpu.ScreenHeight*(*scale))
	ebiten.SetWindowTitle("Hack - " + fs.Arg(0))

	game := &Game{vm: vm, cyclesPerFrame: *cyclesPerFrame}
	if err := ebiten.RunGame(game); err != nil {
		logrus.Fatal(err)
	}
}
