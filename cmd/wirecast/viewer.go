package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/wirecast/pkg/animate"
	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/pipeline"
)

const (
	torqueStrength = 3.0
	zoomStep       = 0.5
	minDistance    = 0.5
	maxDistance    = 50.0
)

// runViewer renders the scene into the terminal until Esc or ctrl+c. The
// subject is recentered under a pivot driven by spring rotation and a
// spring dolly.
func runViewer(ctx context.Context, j *job) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Any-event mouse tracking with SGR extended coordinates.
	fmt.Fprint(os.Stdout, "\x1b[?1003h")
	fmt.Fprint(os.Stdout, "\x1b[?1006h")

	defer func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()

	pivot, center := turntable(j.scene)
	distance := 3.0
	if center.Z < -minDistance {
		distance = -center.Z
	}
	recenter := math3d.Translate(center.Negate())

	cfg := j.settings.Pipeline
	cfg.Logger = nil // records would scribble over the alt screen
	r := pipeline.New(cfg)
	rotation := animate.NewRotationState(*targetFPS)
	dolly := animate.NewDolly(*targetFPS, distance)

	fb, err := viewerFrame(j, width, height)
	if err != nil {
		return err
	}

	var inputTorque struct{ pitch, yaw, roll float64 }
	var mouseDown bool
	var lastMouseX, lastMouseY int

	ticker := time.NewTicker(time.Second / time.Duration(max(*targetFPS, 1)))
	defer ticker.Stop()
	lastFrame := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-term.Events():
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				if fb, err = viewerFrame(j, width, height); err != nil {
					return err
				}

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape", "ctrl+c"):
					return nil
				case ev.MatchString("w", "up"):
					inputTorque.pitch = -torqueStrength
				case ev.MatchString("s", "down"):
					inputTorque.pitch = torqueStrength
				case ev.MatchString("a", "left"):
					inputTorque.yaw = -torqueStrength
				case ev.MatchString("d", "right"):
					inputTorque.yaw = torqueStrength
				case ev.MatchString("q"):
					inputTorque.roll = -torqueStrength
				case ev.MatchString("e"):
					inputTorque.roll = torqueStrength
				case ev.MatchString("space"):
					rotation.ApplyImpulse(
						(rand.Float64()-0.5)*0.3,
						(rand.Float64()-0.5)*0.3,
						(rand.Float64()-0.5)*0.3,
					)
				case ev.MatchString("r"):
					rotation.Reset()
					dolly.Target = distance
				case ev.MatchString("+", "="):
					dolly.Zoom(-zoomStep, minDistance)
				case ev.MatchString("-", "_"):
					dolly.Zoom(zoomStep, minDistance)
					dolly.Target = math.Min(dolly.Target, maxDistance)
				case ev.MatchString("x"):
					cfg.AntiAlias = !cfg.AntiAlias
					r.SetConfig(cfg)
				case ev.MatchString("g"):
					cfg.Gamma = !cfg.Gamma
					r.SetConfig(cfg)
				case ev.MatchString("n"):
					cfg.NearClip = !cfg.NearClip
					r.SetConfig(cfg)
				}

			case uv.KeyReleaseEvent:
				switch {
				case ev.MatchString("w", "up", "s", "down"):
					inputTorque.pitch = 0
				case ev.MatchString("a", "left", "d", "right"):
					inputTorque.yaw = 0
				case ev.MatchString("q", "e"):
					inputTorque.roll = 0
				}

			case uv.MouseClickEvent:
				mouseDown = true
				lastMouseX, lastMouseY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false

			case uv.MouseMotionEvent:
				if mouseDown {
					dx := ev.X - lastMouseX
					dy := ev.Y - lastMouseY
					rotation.ApplyImpulse(float64(dy)*0.03, float64(dx)*0.03, 0)
					lastMouseX, lastMouseY = ev.X, ev.Y
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					dolly.Zoom(-zoomStep, minDistance)
				case uv.MouseWheelDown:
					dolly.Zoom(zoomStep, minDistance)
					dolly.Target = math.Min(dolly.Target, maxDistance)
				}
			}

		case now := <-ticker.C:
			dt := min(now.Sub(lastFrame).Seconds(), 0.1)
			lastFrame = now

			// Key release events are unreliable, so held torque decays.
			rotation.ApplyImpulse(inputTorque.pitch*dt, inputTorque.yaw*dt, inputTorque.roll*dt)
			inputTorque.pitch *= 0.9
			inputTorque.yaw *= 0.9
			inputTorque.roll *= 0.9

			rotation.Update()
			dolly.Update()
			pivot.Matrix = dolly.Matrix().Mul(rotation.Matrix()).Mul(recenter)

			fb.ClearBackground()
			if err := r.RenderToFrameBuffer(j.scene, fb); err != nil {
				return err
			}
			term.Clear()
			fb.Draw(term, term.Bounds())
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}

// viewerFrame allocates a framebuffer two pixels tall per terminal row and
// matches the camera aspect to it.
func viewerFrame(j *job, width, height int) (*framebuffer.FrameBuffer, error) {
	fb, err := framebuffer.New(max(width, 1), max(height*2, 2), j.settings.Background)
	if err != nil {
		return nil, err
	}
	if err := j.scene.Camera.SetAspect(float64(fb.Width()) / float64(fb.Height())); err != nil {
		return nil, err
	}
	return fb, nil
}
