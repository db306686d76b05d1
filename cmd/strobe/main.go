package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"strobe/audio"
	"strobe/effects"
	"strobe/preset"
	"strobe/render"
	"strobe/vm"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	presetPath := flag.String("preset", "", "Preset file to render")
	frames := flag.Int("frames", -1, "Number of frames to render (overrides config)")
	size := flag.String("size", "", "Frame size as WxH (overrides config)")
	out := flag.String("out", "", "PNG output path; %d in the name writes every frame")
	workers := flag.Int("workers", -1, "Point-phase workers, 0 = one per CPU (overrides config)")
	seed := flag.Int64("seed", 0, "Deterministic rand() seed (overrides config)")

	// Inspection flags
	evalExpr := flag.String("eval", "", "Evaluate a script and print its variables (e.g., \"x = sin(1)\")")
	dump := flag.String("dump", "", "Dump a preset's effect tree")
	disasm := flag.String("disasm", "", "Compile a script and print its bytecode")
	funcs := flag.Bool("funcs", false, "List builtin script functions")

	flag.Parse()

	if *funcs {
		listFuncs()
		return
	}
	if *evalExpr != "" {
		evalScript(*evalExpr, *seed)
		return
	}
	if *disasm != "" {
		disasmScript(*disasm)
		return
	}
	if *dump != "" {
		dumpPreset(*dump)
		return
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *frames >= 0 {
		cfg.Frames = *frames
	}
	if *size != "" {
		w, h, err := parseSize(*size)
		if err != nil {
			log.Fatalf("Bad -size: %v", err)
		}
		cfg.Width, cfg.Height = w, h
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Bad settings: %v", err)
	}

	doc, err := loadOrDefaultPreset(*presetPath)
	if err != nil {
		log.Fatalf("Failed to load preset: %v", err)
	}

	if err := renderRun(cfg, doc, *out); err != nil {
		log.Fatalf("Render failed: %v", err)
	}
}

// loadOrDefaultPreset loads a preset file, or builds a small demo chain
// when no path is given
func loadOrDefaultPreset(path string) (*preset.Document, error) {
	if path == "" {
		return demoPreset(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return preset.Load(data, effects.NewRegistry())
}

// demoPreset is a spinning-tunnel chain with beat-reactive trails
func demoPreset() *preset.Document {
	doc := preset.NewDocument()

	fade := effects.NewFadeout()
	fade.Step = 12
	doc.Root.Append(fade)

	tr := effects.NewTransform()
	tr.SetSubpixel(true)
	tr.SetBoundary(effects.BoundaryWrap)
	must(tr.SetSection(effects.SectionInit, "speed = 0.02"))
	must(tr.SetSection(effects.SectionBeat, "speed = -speed"))
	must(tr.SetSection(effects.SectionPoint,
		"d = d*0.96; r = r + speed + getspec(0, d)*0.05; x = cos(r)*d; y = sin(r)*d"))
	doc.Root.Append(tr)

	return doc
}

func must(err error) {
	if err != nil {
		log.Fatalf("demo preset: %v", err)
	}
}

// renderRun drives the scheduler for cfg.Frames frames against a
// synthetic test tone, optionally writing PNG output
func renderRun(cfg Config, doc *preset.Document, out string) error {
	log.Printf("Preset root: %d effects", doc.Root.Len())
	log.Printf("Frames: %d at %dx%d", cfg.Frames, cfg.Width, cfg.Height)

	if cfg.Seed != 0 {
		seedTransforms(doc.Root, cfg.Seed)
	}

	s := render.NewScheduler(cfg.Width, cfg.Height, doc.Root)
	s.SetWorkers(cfg.Workers)
	s.OnNodeError = func(node string, err error) {
		log.Printf("effect %s degraded: %v", node, err)
	}

	analyzer, err := audio.NewAnalyzer(cfg.Audio.FFTSize, cfg.Audio.Bands)
	if err != nil {
		return fmt.Errorf("analyzer: %w", err)
	}

	delta := 1 / cfg.FPS
	left := make([]float64, cfg.Audio.FFTSize)
	right := make([]float64, cfg.Audio.FFTSize)

	ctx := context.Background()
	var last *render.ImageBuffer
	for frame := 0; frame < cfg.Frames; frame++ {
		synthTone(left, right, cfg.Audio, float64(frame)*delta)
		features, err := analyzer.Analyze(left, right)
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}

		buf, err := s.Frame(ctx, delta, features.Beat, features)
		if err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		last = buf

		if out != "" && strings.Contains(out, "%") {
			if err := writePNG(fmt.Sprintf(out, frame), buf); err != nil {
				return err
			}
		}
	}

	if out != "" && !strings.Contains(out, "%") && last != nil {
		if err := writePNG(out, last); err != nil {
			return err
		}
		log.Printf("Wrote %s", out)
	}
	return nil
}

// seedTransforms reseeds every transform in the tree so rand() streams
// are reproducible run to run. Each node gets a distinct offset so
// sibling transforms don't share a stream.
func seedTransforms(list *effects.List, seed int64) {
	var n int64
	var walk func(*effects.List)
	walk = func(l *effects.List) {
		for _, child := range l.Children() {
			switch node := child.(type) {
			case *effects.List:
				walk(node)
			case *effects.Transform:
				node.SetSeed(seed + n)
				n++
			}
		}
	}
	walk(list)
}

// synthTone fills one analysis block with a test tone whose loudness
// pulses about once a second, giving the beat detector something to find
func synthTone(left, right []float64, ac AudioConfig, t float64) {
	pulse := 0.2 + 0.8*math.Pow(math.Abs(math.Sin(t*math.Pi)), 8)
	for i := range left {
		phase := 2 * math.Pi * ac.Freq * (t + float64(i)/ac.Rate)
		v := math.Sin(phase) * pulse
		left[i] = v
		right[i] = v * 0.8
	}
}

// writePNG converts the packed buffer to NRGBA and writes it out
func writePNG(path string, buf *render.ImageBuffer) error {
	img := image.NewNRGBA(image.Rect(0, 0, buf.W, buf.H))
	for y := 0; y < buf.H; y++ {
		row := buf.Row(y)
		for x, p := range row {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(p >> 16)
			img.Pix[i+1] = uint8(p >> 8)
			img.Pix[i+2] = uint8(p)
			img.Pix[i+3] = 0xFF
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// evalScript compiles and runs a script once, printing final variables
func evalScript(source string, seed int64) {
	binds := vm.NewBindings()
	prog, err := vm.Compile(source, binds)
	if err != nil {
		log.Fatalf("Compile error: %v", err)
	}

	machine := vm.NewVM()
	if seed != 0 {
		machine = vm.NewSeededVM(seed)
	}
	if err := machine.Execute(prog, binds); err != nil {
		log.Fatalf("Runtime error: %v", err)
	}

	for _, name := range binds.SortedNames() {
		slot, _ := binds.Lookup(name)
		fmt.Printf("%s = %g\n", name, binds.Get(slot))
	}
}

// listFuncs prints the builtin function table with arities. if(c,a,b)
// is listed separately because the compiler lowers it to jumps rather
// than a call.
func listFuncs() {
	for _, name := range vm.FuncNames() {
		_, arity, ok := vm.LookupFunc(name)
		if !ok {
			continue
		}
		fmt.Printf("%s/%d\n", name, arity)
	}
	fmt.Println("if/3")
}

// disasmScript compiles a script and prints its bytecode listing
func disasmScript(source string) {
	binds := vm.NewBindings()
	prog, err := vm.Compile(source, binds)
	if err != nil {
		log.Fatalf("Compile error: %v", err)
	}
	fmt.Print(prog.Disassemble())
}

// dumpPreset loads a preset file and prints its effect tree
func dumpPreset(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read preset: %v", err)
	}
	doc, err := preset.Load(data, effects.NewRegistry())
	if err != nil {
		log.Fatalf("Failed to parse preset: %v", err)
	}

	fmt.Printf("version: %s\n", strings.TrimSuffix(doc.Version, "\x1a"))
	dumpList(doc.Root, 0)
}

// dumpList prints one list level of the effect tree
func dumpList(list *effects.List, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%slist (blend=%s, %d children)\n", indent, list.Blend(), list.Len())
	for _, child := range list.Children() {
		if inner, ok := child.(*effects.List); ok {
			dumpList(inner, depth+1)
			continue
		}
		id := child.RecordID()
		state := ""
		if !child.Enabled() {
			state = " [disabled]"
		}
		fmt.Printf("%s  %s (index=%d)%s\n", indent, child.Name(), id.Index, state)
	}
}

// parseSize parses "WxH"
func parseSize(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("want WxH, got %q", s)
	}
	return w, h, nil
}
