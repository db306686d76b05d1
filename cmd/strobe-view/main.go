// Command strobe-view renders a preset in a window with a synthetic
// audio feed, for iterating on scripts without an offline render cycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"strobe/audio"
	"strobe/effects"
	"strobe/preset"
	"strobe/render"
)

const (
	fftSize = 1024
	bands   = 32
	rate    = 44100
	freq    = 220
)

type game struct {
	scheduler *render.Scheduler
	analyzer  *audio.Analyzer
	frame     *ebiten.Image
	overlay   *ebiten.Image
	pix       []byte

	left  []float64
	right []float64
	time  float64

	paused    bool
	beatFlash *gween.Tween
	flash     float32

	lastErr string
}

func newGame(doc *preset.Document, w, h, workers int) (*game, error) {
	analyzer, err := audio.NewAnalyzer(fftSize, bands)
	if err != nil {
		return nil, err
	}

	s := render.NewScheduler(w, h, doc.Root)
	s.SetWorkers(workers)

	g := &game{
		scheduler: s,
		analyzer:  analyzer,
		frame:     ebiten.NewImage(w, h),
		pix:       make([]byte, w*h*4),
		left:      make([]float64, fftSize),
		right:     make([]float64, fftSize),
	}
	s.OnNodeError = func(node string, err error) {
		g.lastErr = fmt.Sprintf("%s: %v", node, err)
	}
	return g, nil
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	const delta = 1.0 / 60
	if g.beatFlash != nil {
		v, done := g.beatFlash.Update(delta)
		g.flash = v
		if done {
			g.beatFlash = nil
		}
	}
	if g.paused {
		return nil
	}
	g.time += delta

	synthTone(g.left, g.right, g.time)
	features, err := g.analyzer.Analyze(g.left, g.right)
	if err != nil {
		return err
	}
	if features.Beat {
		g.beatFlash = gween.New(1, 0, 0.25, ease.OutQuad)
	}

	buf, err := g.scheduler.Frame(context.Background(), delta, features.Beat, features)
	if err != nil {
		return err
	}
	g.blit(buf)
	return nil
}

// blit converts the packed frame to RGBA bytes and uploads it
func (g *game) blit(buf *render.ImageBuffer) {
	for i, p := range buf.Pix {
		g.pix[i*4+0] = byte(p >> 16)
		g.pix[i*4+1] = byte(p >> 8)
		g.pix[i*4+2] = byte(p)
		g.pix[i*4+3] = 0xFF
	}
	g.frame.WritePixels(g.pix)
}

func (g *game) Draw(screen *ebiten.Image) {
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	fw, fh := g.scheduler.Size()

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(sw)/float64(fw), float64(sh)/float64(fh))
	screen.DrawImage(g.frame, op)

	if g.flash > 0 {
		if g.overlay == nil || g.overlay.Bounds().Dx() != sw || g.overlay.Bounds().Dy() != sh {
			g.overlay = ebiten.NewImage(sw, sh)
		}
		a := uint8(g.flash * 90)
		g.overlay.Fill(color.RGBA{a, a, a, a})
		screen.DrawImage(g.overlay, nil)
	}

	status := fmt.Sprintf("TPS %.0f  t=%.1fs  [space] pause", ebiten.ActualTPS(), g.time)
	if g.paused {
		status += "  PAUSED"
	}
	if g.lastErr != "" {
		status += "\nlast error: " + g.lastErr
	}
	ebitenutil.DebugPrint(screen, status)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	return outsideW, outsideH
}

// synthTone fills one analysis block with a pulsing test tone
func synthTone(left, right []float64, t float64) {
	pulse := 0.2 + 0.8*math.Pow(math.Abs(math.Sin(t*math.Pi)), 8)
	for i := range left {
		phase := 2 * math.Pi * freq * (t + float64(i)/rate)
		v := math.Sin(phase) * pulse
		left[i] = v
		right[i] = v * 0.8
	}
}

func main() {
	presetPath := flag.String("preset", "", "Preset file to render")
	size := flag.String("size", "320x240", "Render size as WxH")
	scale := flag.Int("scale", 2, "Window scale factor")
	workers := flag.Int("workers", 0, "Point-phase workers, 0 = one per CPU")
	flag.Parse()

	var w, h int
	if _, err := fmt.Sscanf(*size, "%dx%d", &w, &h); err != nil || w < 1 || h < 1 {
		log.Fatalf("Bad -size %q, want WxH", *size)
	}

	doc, err := loadPreset(*presetPath)
	if err != nil {
		log.Fatalf("Failed to load preset: %v", err)
	}

	g, err := newGame(doc, w, h, *workers)
	if err != nil {
		log.Fatalf("Failed to set up: %v", err)
	}

	ebiten.SetWindowSize(w**scale, h**scale)
	ebiten.SetWindowTitle("strobe")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatalf("Window closed with error: %v", err)
	}
}

// loadPreset reads a preset file, or builds the demo chain when no path
// is given
func loadPreset(path string) (*preset.Document, error) {
	if path == "" {
		return demoPreset()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return preset.Load(data, effects.NewRegistry())
}

// demoPreset is a spinning tunnel with beat-reactive direction flips
func demoPreset() (*preset.Document, error) {
	doc := preset.NewDocument()

	fade := effects.NewFadeout()
	fade.Step = 12
	doc.Root.Append(fade)

	tr := effects.NewTransform()
	tr.SetSubpixel(true)
	tr.SetBoundary(effects.BoundaryWrap)
	sections := map[effects.SectionKind]string{
		effects.SectionInit: "speed = 0.02",
		effects.SectionBeat: "speed = -speed",
		effects.SectionPoint: "d = d*0.96; r = r + speed + getspec(0, d)*0.05; " +
			"x = cos(r)*d; y = sin(r)*d",
	}
	for k, src := range sections {
		if err := tr.SetSection(k, src); err != nil {
			return nil, err
		}
	}
	doc.Root.Append(tr)

	return doc, nil
}
