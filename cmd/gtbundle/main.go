// Command-line interface for packing rendered ground-truth frames into archives.
// Provides check, pack, view, inspect and demo commands over an input directory.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/janelia-flyem/gtbundle/archive"
	"github.com/janelia-flyem/gtbundle/capture"
	"github.com/janelia-flyem/gtbundle/colorize"
	"github.com/janelia-flyem/gtbundle/config"
	"github.com/janelia-flyem/gtbundle/gt"
	"github.com/janelia-flyem/gtbundle/modality"
)

const Version = "0.1.0"

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Directory holding raw frame files and archives.
	inputDir = flag.String("input", "", "")

	// Path to a TOML configuration file.  Leave unset for defaults.
	configFile = flag.String("config", "", "")

	// Number of logical CPUs to use.
	useCPU = flag.Int("numcpu", 0, "")
)

const helpMessage = `
gtbundle packs per-frame rendering ground truth into compressed archives

Usage: gtbundle [options] <command>

      -input      =string   Directory with <modality>NNNN raw files (required for most commands).
      -config     =string   TOML configuration file.  Leave unset for defaults.
      -numcpu     =number   Number of logical CPUs to use.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	about
	help
	check
	pack    [workers=N]
	view    <frame> [output dir]
	inspect <archive path>
	demo    [frames=N] [size=WxH]
`

var usage = func() {
	fmt.Print(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}
	if *runVerbose {
		gt.SetLogMode(gt.DebugMode)
	}

	numCPU := runtime.NumCPU()
	if *useCPU != 0 {
		numCPU = *useCPU
	}
	runtime.GOMAXPROCS(numCPU)

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	cfg.Logging.SetLogger()

	// Capture ctrl+c and other interrupts so a pack stops between frames.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = DoCommand(ctx, gt.Command(flag.Args()), cfg, numCPU)
	gt.Shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// describe prefixes an error with the frame it concerns, if known.
func describe(err error) string {
	if frame := gt.FrameOf(err); frame != gt.NoFrame {
		return fmt.Sprintf("frame %04d: %v", frame, err)
	}
	return err.Error()
}

// DoCommand serves as a switchboard for commands.
func DoCommand(ctx context.Context, cmd gt.Command, cfg *config.Config, numCPU int) error {
	if len(cmd) == 0 {
		return fmt.Errorf("blank command")
	}
	switch cmd.Name() {
	case "about":
		fmt.Print(about())
		return nil
	case "inspect":
		return DoInspect(cmd)
	}
	if *inputDir == "" {
		return gt.NewConfigError("the %q command requires -input", cmd.Name())
	}
	dir, err := filepath.Abs(*inputDir)
	if err != nil {
		return gt.NewConfigError("input directory: %v", err)
	}
	switch cmd.Name() {
	case "check":
		return DoCheck(dir, cfg)
	case "pack":
		return DoPack(ctx, cmd, dir, cfg, numCPU)
	case "view":
		return DoView(cmd, dir, cfg)
	case "demo":
		return DoDemo(cmd, dir, cfg)
	default:
		return fmt.Errorf("unknown command %q; try 'gtbundle help'", cmd.Name())
	}
}

func about() string {
	text := "\nCompile-time version information for this gtbundle executable:\n\n"
	writeLine := func(name, version string) {
		text += fmt.Sprintf("%-15s   %s\n", name, version)
	}
	writeLine("Name", "Version")
	writeLine("gtbundle", Version)
	writeLine("Archive schema", archive.SchemaVersion.String())
	writeLine("Go", runtime.Version())
	return text
}

// DoCheck performs the "check" command, verifying every frame has all enabled modalities.
func DoCheck(dir string, cfg *config.Config) error {
	frames, err := capture.Scan(dir, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("%d frames (%04d-%04d) with %v in %s\n", len(frames), frames[0], frames[len(frames)-1],
		cfg.Modalities(), dir)
	return nil
}

// DoPack performs the "pack" command, archiving every frame found in the input directory.
func DoPack(ctx context.Context, cmd gt.Command, dir string, cfg *config.Config, numCPU int) error {
	workers, err := cmd.IntParameter(gt.KeyWorkers, numCPU)
	if err != nil {
		return err
	}
	paths, err := capture.Pack(ctx, dir, cfg, workers)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d archives to %s\n", len(paths), dir)
	return nil
}

// DoView performs the "view" command, writing color visualizations of a frame's raw files.
func DoView(cmd gt.Command, dir string, cfg *config.Config) error {
	var frameStr, outDir string
	cmd.CommandArgs(&frameStr, &outDir)
	if frameStr == "" {
		return fmt.Errorf("view command must be followed by a frame number")
	}
	frame, err := strconv.Atoi(frameStr)
	if err != nil || frame < 0 {
		return fmt.Errorf("bad frame number %q", frameStr)
	}
	if outDir == "" {
		outDir = dir
	}
	b, _, err := capture.ReadFrame(dir, frame, cfg.Modalities())
	if err != nil {
		return err
	}
	far := cfg.Far(0)
	views := map[string]*colorize.RGB{
		"image": colorize.FromColorImage(b.Image),
		"depth": colorize.Depth(b.Depth, far),
	}
	if b.Label != nil {
		views["label"] = colorize.Label(b.Label)
	}
	if b.Normal != nil {
		views["normal"] = colorize.Normal(b.Normal)
	}
	if b.Flow != nil {
		views["flow_forward"] = colorize.ForwardFlow(b.Flow)
		views["flow_backward"] = colorize.BackwardFlow(b.Flow)
	}
	for name, img := range views {
		path := filepath.Join(outDir, fmt.Sprintf("view_%s%04d.png", name, frame))
		if err := colorize.WritePNG(path, img); err != nil {
			return gt.NewPersistError(frame, path, err)
		}
		gt.Debugf("Wrote %s\n", path)
	}
	valid := modality.DepthMask(b.Depth, far).Count()
	fmt.Printf("Frame %04d: %d views in %s, %d of %d depth samples valid\n", frame, len(views), outDir,
		valid, b.Depth.NumPixels())
	return nil
}

// DoInspect performs the "inspect" command, listing the arrays of an archive.
func DoInspect(cmd gt.Command) error {
	var path string
	cmd.CommandArgs(&path)
	if path == "" {
		return fmt.Errorf("inspect command must be followed by the path to an archive")
	}
	a, err := archive.Open(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", a.Path)
	for _, key := range a.Keys() {
		arr, err := a.Array(key)
		if err != nil {
			return err
		}
		fmt.Printf("  %-10s %-8s %v\n", key, arr.Type, arr.Shape)
	}
	return nil
}

// DoDemo performs the "demo" command, capturing frames from a synthetic scene into
// the input directory.
func DoDemo(cmd gt.Command, dir string, cfg *config.Config) error {
	n, err := cmd.IntParameter(gt.KeyFrames, 3)
	if err != nil {
		return err
	}
	if n < 1 {
		return errors.New("demo needs at least one frame")
	}
	size, err := cmd.SizeParameter(gt.KeySize, gt.Size{Width: 64, Height: 48})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	host := capture.NewSyntheticHost(dir, size)
	frames := make([]int, n)
	for i := range frames {
		frames[i] = i + 1
	}
	if err := capture.Run(host, cfg, frames, host.Render); err != nil {
		return err
	}
	fmt.Printf("Captured %d synthetic %s frames into %s\n", n, size, dir)
	return nil
}
