// Command jpegcore encodes images to JPEG Baseline and inspects the
// encoder backends from the command line.
//
// Usage:
//
//	jpegcore enc [options] <input>     PNG/JPEG/GIF → JPEG Baseline (use "-" for stdin)
//	jpegcore backends                  List compiled and usable backends
//	jpegcore selftest                  Verify every usable backend against the portable one
//	jpegcore trace <a.trace> [b.trace] Summarise a group trace, or diff two
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cocosip/jpegcore/internal/trace"
	"github.com/cocosip/jpegcore/jpeg/backend"
	"github.com/cocosip/jpegcore/jpeg/baseline"
	"github.com/cocosip/jpegcore/jpeg/entropy"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "jpegcore: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "enc":
		return runEnc(args[1:], stdin, stdout, stderr)
	case "backends":
		return runBackends(args[1:], stdout)
	case "selftest":
		return runSelftest(args[1:], stdout)
	case "trace":
		return runTrace(args[1:], stdout)
	case "-h", "-help", "--help", "help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage:
  jpegcore enc [options] <input>       Encode PNG/JPEG/GIF to JPEG Baseline
  jpegcore backends                    List compiled and usable backends
  jpegcore selftest                    Verify usable backends against the portable one
  jpegcore trace <a.trace> [b.trace]   Summarise a group trace, or diff two

Use "-" as input to read from stdin, "-o -" to write to stdout.
The %s environment variable selects the backend when -backend is not given.
`, backend.EnvVar)
}

// --- enc ---

func runEnc(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("enc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	quality := fs.Int("q", baseline.DefaultQuality, "quality 1-100")
	backendName := fs.String("backend", "", "backend name (default: widest usable)")
	selfCheck := fs.Bool("selfcheck", false, "verify the backend before encoding")
	restart := fs.Int("restart", 0, "restart interval in MCUs (0=none)")
	grayAsColor := fs.Bool("gray_as_color", false, "write grayscale input as a 3-component frame")
	tracePath := fs.String("trace", "", "write the scan's group trace to this file")
	traceCodec := fs.String("trace_codec", "zstd", "trace compression: none/zstd/s2/lz4")
	output := fs.String("o", "", `output path (default: <input>.jpg, "-" for stdout)`)
	verbose := fs.Bool("v", false, "print the backend selection")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("enc: missing input file\nUsage: jpegcore enc [options] <input>")
	}
	inputPath := fs.Arg(0)

	var in io.Reader = stdin
	if inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	img, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("enc: decode %s: %w", inputPath, err)
	}
	pixels, width, height, components := interleave(img)

	selOpts := []backend.Option{backend.WithEnv(), backend.WithName(*backendName)}
	if *selfCheck {
		selOpts = append(selOpts, backend.WithSelfCheck())
	}
	sel := backend.Select(selOpts...)
	if sel.Fallback {
		fmt.Fprintf(stderr, "jpegcore: using %s backend: %s\n", sel.Backend.Name(), sel.Reason)
	}
	if *verbose {
		fmt.Fprintf(stderr, "backend: %s (magnitude: %s)\n", sel.Backend.Name(), entropy.DefaultMagnitudeName)
	}

	opts := []baseline.Option{
		baseline.WithBackend(sel.Backend),
		baseline.WithRestartInterval(*restart),
	}
	if *grayAsColor {
		opts = append(opts, baseline.WithGrayAsColor())
	}
	var rec *trace.Recorder
	if *tracePath != "" {
		codec, err := trace.ParseCodec(*traceCodec)
		if err != nil {
			return err
		}
		rec = trace.NewRecorder(codec)
		opts = append(opts, baseline.WithObserver(rec))
	}

	data, err := baseline.Encode(pixels, width, height, components, *quality, opts...)
	if err != nil {
		return fmt.Errorf("enc: %w", err)
	}

	outPath := *output
	if outPath == "" {
		if inputPath == "-" {
			outPath = "-"
		} else {
			outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".jpg"
		}
	}
	if outPath == "-" {
		if _, err := stdout.Write(data); err != nil {
			return err
		}
	} else if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}

	if rec != nil {
		f, err := os.Create(*tracePath)
		if err != nil {
			return err
		}
		if _, err := rec.WriteTo(f); err != nil {
			f.Close()
			return fmt.Errorf("enc: write trace: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	if *verbose {
		fmt.Fprintf(stderr, "%dx%dx%d -> %d bytes\n", width, height, components, len(data))
	}
	return nil
}

// interleave converts img to 8-bit gray or interleaved RGB samples.
// Translucent pixels keep their unpremultiplied color.
func interleave(img image.Image) (pixels []byte, width, height, components int) {
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()

	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		pixels = make([]byte, 0, width*height)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				pixels = append(pixels, color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
			}
		}
		return pixels, width, height, 1
	}

	pixels = make([]byte, 0, width*height*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// Alpha is dropped; the stored color channels are used as is.
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pixels = append(pixels, c.R, c.G, c.B)
		}
	}
	return pixels, width, height, 3
}

// --- backends ---

func runBackends(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("backends", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	available := backend.Available()
	for _, name := range backend.Registered() {
		status := "unsupported"
		if slices.Contains(available, name) {
			status = "available"
		}
		fmt.Fprintf(stdout, "%-10s %s\n", name, status)
	}

	sel := backend.Select(backend.WithEnv())
	fmt.Fprintf(stdout, "selected:  %s\n", sel.Backend.Name())
	if sel.Fallback {
		fmt.Fprintf(stdout, "fallback:  %s\n", sel.Reason)
	}
	fmt.Fprintf(stdout, "magnitude: %s\n", entropy.DefaultMagnitudeName)
	return nil
}

// --- selftest ---

func runSelftest(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("selftest", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	corpus := backend.DefaultCorpus()
	failed := 0
	for _, name := range backend.Available() {
		b, err := backend.Lookup(name)
		if err != nil {
			return err
		}
		if err := backend.Verify(b, corpus); err != nil {
			fmt.Fprintf(stdout, "FAIL %s: %v\n", name, err)
			failed++
			continue
		}
		fmt.Fprintf(stdout, "ok   %s\n", name)
	}
	if failed > 0 {
		return fmt.Errorf("selftest: %d backend(s) differ from %s", failed, backend.NamePortable)
	}
	return nil
}

// --- trace ---

func runTrace(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return fmt.Errorf("trace: want one or two trace files\nUsage: jpegcore trace <a.trace> [b.trace]")
	}

	a, err := readTrace(fs.Arg(0))
	if err != nil {
		return err
	}
	if fs.NArg() == 1 {
		bitCount := 0
		for _, g := range a.Groups {
			bitCount += int(g.Len)
		}
		fmt.Fprintf(stdout, "codec:  %s\ngroups: %d\nbits:   %d\n", a.Codec, len(a.Groups), bitCount)
		return nil
	}

	b, err := readTrace(fs.Arg(1))
	if err != nil {
		return err
	}
	i := trace.FirstDivergence(a.Groups, b.Groups)
	if i < 0 {
		fmt.Fprintf(stdout, "identical (%d groups)\n", len(a.Groups))
		return nil
	}
	fmt.Fprintf(stdout, "first divergence at group %d: %s vs %s\n", i, groupAt(a.Groups, i), groupAt(b.Groups, i))
	return fmt.Errorf("trace: traces differ")
}

func readTrace(path string) (*trace.Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := trace.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func groupAt(groups []entropy.BitGroup, i int) string {
	if i >= len(groups) {
		return "<end>"
	}
	g := groups[i]
	return fmt.Sprintf("%0*b/%d", max(int(g.Len), 1), g.Bits, g.Len)
}
