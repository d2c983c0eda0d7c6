// wirecast - software wireframe renderer
// Renders YAML scene files and glTF models to images, frame sequences or an
// interactive terminal view.
//
// Viewer controls:
//
//	Mouse drag  - Rotate (yaw/pitch)
//	Scroll      - Zoom in/out
//	W/S         - Pitch up/down
//	A/D         - Yaw left/right
//	Q/E         - Roll left/right
//	Space       - Apply random impulse
//	R           - Reset rotation and zoom
//	X           - Toggle anti-aliasing
//	G           - Toggle gamma
//	N           - Toggle near clipping
//	+/-         - Adjust zoom
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/models"
	"github.com/taigrr/wirecast/pkg/pipeline"
	"github.com/taigrr/wirecast/pkg/scene"
	"github.com/taigrr/wirecast/pkg/scenefile"
)

var (
	outPath   = flag.String("o", "out.ppm", "Output image (.ppm .png .bmp .tiff .webp .tga .jpg)")
	width     = flag.Int("w", scenefile.DefaultWidth, "Framebuffer width")
	height    = flag.Int("h", scenefile.DefaultHeight, "Framebuffer height")
	bgColor   = flag.String("bg", "0,0,0", "Background color (R,G,B, #rrggbb or a name)")
	bgImage   = flag.String("bgimage", "", "Background image drawn under rendered output")
	antiAlias = flag.Bool("aa", false, "Anti-alias lines and points")
	gamma     = flag.Bool("gamma", true, "Gamma encode colors")
	nearClip  = flag.Bool("nearclip", true, "Clip against the near plane")
	cull      = flag.Bool("cull", true, "Skip models outside the view volume")
	ssaa      = flag.Int("ssaa", 1, "Supersample factor, downscaled on export")
	frames    = flag.Int("frames", 0, "Render an N-frame turntable instead of one image")
	view      = flag.Bool("view", false, "Interactive terminal viewer")
	targetFPS = flag.Int("fps", 30, "Viewer target FPS")
	debug     = flag.Bool("debug", false, "Log every pipeline stage to stderr")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "wirecast - software wireframe renderer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: wirecast [options] <scene.yaml|model.glb|model.gltf>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nViewer controls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Rotate\n")
		fmt.Fprintf(os.Stderr, "  Scroll, +/- - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Pitch and yaw\n")
		fmt.Fprintf(os.Stderr, "  Q/E         - Roll left/right\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  X/G/N       - Toggle anti-aliasing, gamma, near clipping\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// job is everything one invocation renders.
type job struct {
	scene    *scene.Scene
	settings scenefile.Settings
	logger   *slog.Logger
	// fitAspect matches the camera aspect to the output size.
	fitAspect bool
	// backdrop is the scaled background image, loaded on first use.
	backdrop *framebuffer.FrameBuffer
}

func run(input string) error {
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	j, err := load(input, logger)
	if err != nil {
		return err
	}
	if err := applyFlags(j); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *view:
		return runViewer(ctx, j)
	case *frames > 0:
		return renderFrames(ctx, j, *frames)
	default:
		return renderImage(j)
	}
}

// load reads a scene file, or wraps a glTF model in a scene that centers it
// two units wide, three units in front of the default camera.
func load(input string, logger *slog.Logger) (*job, error) {
	switch ext := strings.ToLower(filepath.Ext(input)); ext {
	case ".yaml", ".yml":
		s, set, err := scenefile.Load(input, logger)
		if err != nil {
			return nil, fmt.Errorf("load scene: %w", err)
		}
		return &job{scene: s, settings: set, logger: logger}, nil
	case ".glb", ".gltf":
		loader := models.NewGLTFLoader()
		loader.Logger = logger
		tree, err := loader.Load(input)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		holder := scene.NewPosition("model", nil)
		holder.Matrix = math3d.Translate(math3d.V3(0, 0, -3))
		if lo, hi, ok := models.PositionBounds(tree); ok {
			tree.Matrix = models.FitMatrix(lo, hi, 2).Mul(tree.Matrix)
		}
		if err := holder.AddNested(tree); err != nil {
			return nil, err
		}
		s := scene.New(filepath.Base(input), nil)
		s.AddPosition(holder)

		set, err := scenefile.RenderSpec{}.Settings()
		if err != nil {
			return nil, err
		}
		logger.Info("loaded model", "path", input, "positions", countPositions(tree))
		return &job{scene: s, settings: set, logger: logger, fitAspect: true}, nil
	default:
		return nil, fmt.Errorf("unsupported input %q (use .yaml, .glb or .gltf)", ext)
	}
}

// applyFlags overrides scene settings with the flags given on the command
// line. Flags left at their defaults do not override a scene file.
func applyFlags(j *job) error {
	set := &j.settings
	var err error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			set.Output = *outPath
		case "w":
			set.Width = *width
		case "h":
			set.Height = *height
		case "bg":
			var c framebuffer.Color
			if c, err = framebuffer.ParseColor(*bgColor); err == nil {
				set.Background = c
			}
		case "bgimage":
			set.BackgroundImage = *bgImage
		case "aa":
			set.Pipeline.AntiAlias = *antiAlias
		case "gamma":
			set.Pipeline.Gamma = *gamma
		case "nearclip":
			set.Pipeline.NearClip = *nearClip
		case "cull":
			set.Pipeline.Cull = *cull
		}
	})
	if err != nil {
		return fmt.Errorf("-bg: %w", err)
	}
	if set.Output == "" {
		set.Output = *outPath
	}
	if set.Width < 1 || set.Height < 1 {
		return fmt.Errorf("invalid size %dx%d", set.Width, set.Height)
	}
	if *ssaa < 1 {
		return fmt.Errorf("-ssaa must be at least 1, got %d", *ssaa)
	}

	if j.fitAspect {
		if err := j.scene.Camera.SetAspect(float64(set.Width) / float64(set.Height)); err != nil {
			return err
		}
	}

	set.Pipeline.Logger = j.logger
	if *debug {
		set.Pipeline.Debug = pipeline.AllDebug()
		j.scene.Debug = true
	}
	return nil
}

func countPositions(p *scene.Position) int {
	n := 1
	for _, c := range p.Nested {
		n += countPositions(c)
	}
	return n
}
