package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/taigrr/wirecast/pkg/animate"
	"github.com/taigrr/wirecast/pkg/framebuffer"
	"github.com/taigrr/wirecast/pkg/imageio"
	"github.com/taigrr/wirecast/pkg/math3d"
	"github.com/taigrr/wirecast/pkg/models"
	"github.com/taigrr/wirecast/pkg/pipeline"
	"github.com/taigrr/wirecast/pkg/scene"
)

// renderImage renders one frame to -o.
func renderImage(j *job) error {
	r := pipeline.New(j.settings.Pipeline)
	fb, err := renderFrame(r, j)
	if err != nil {
		return err
	}
	out := j.settings.Output
	if err := imageio.Save(out, fb, &imageio.Options{Downsample: *ssaa}); err != nil {
		return err
	}
	st := r.Stats()
	j.logger.Info("wrote image",
		"path", out,
		"width", j.settings.Width,
		"height", j.settings.Height,
		"models", st.Models,
		"culled", st.Culled,
		"accepted", st.Accepted,
		"clipped", st.Clipped,
		"pixels", st.Pixels,
	)
	return nil
}

// renderFrames renders a turntable of n frames, turning every top-level
// position about the center of the scene.
func renderFrames(ctx context.Context, j *job, n int) error {
	orbit, err := animate.NewOrbit(n)
	if err != nil {
		return err
	}
	pivot, center := turntable(j.scene)
	base := math3d.Translate(center.Negate())

	r := pipeline.New(j.settings.Pipeline)
	bar := progressbar.Default(int64(n), "rendering")
	defer bar.Close()

	for i := range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		orbit.Apply(pivot, base, i)
		pivot.Matrix = math3d.Translate(center).Mul(pivot.Matrix)

		fb, err := renderFrame(r, j)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		path := framePath(j.settings.Output, i)
		if err := imageio.Save(path, fb, &imageio.Options{Downsample: *ssaa}); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		j.logger.Debug("wrote frame", "path", path, "pixels", r.Stats().Pixels)
		bar.Add(1)
	}
	return nil
}

func renderFrame(r *pipeline.Renderer, j *job) (*framebuffer.FrameBuffer, error) {
	fb, err := newFrame(j)
	if err != nil {
		return nil, err
	}
	if err := r.RenderToFrameBuffer(j.scene, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// newFrame allocates the supersampled framebuffer, seeded with the
// background image when there is one.
func newFrame(j *job) (*framebuffer.FrameBuffer, error) {
	set := j.settings
	w, h := set.Width*(*ssaa), set.Height*(*ssaa)
	if set.BackgroundImage == "" {
		return framebuffer.New(w, h, set.Background)
	}
	if j.backdrop == nil {
		bg, err := imageio.LoadBackground(set.BackgroundImage, w, h)
		if err != nil {
			return nil, fmt.Errorf("background image: %w", err)
		}
		j.logger.Debug("loaded background image", "path", set.BackgroundImage, "width", w, "height", h)
		j.backdrop = bg
	}
	fb := j.backdrop.Clone()
	fb.SetBackground(set.Background)
	return fb, nil
}

// turntable moves the scene's top-level positions under one pivot and
// returns it with the center of the scene's bounds.
func turntable(s *scene.Scene) (*scene.Position, math3d.Vec3) {
	pivot := scene.NewPosition("turntable", nil)
	pivot.Nested = s.Positions
	s.Positions = []*scene.Position{pivot}

	lo, hi, ok := models.PositionBounds(pivot)
	if !ok {
		return pivot, math3d.Zero3()
	}
	return pivot, lo.Add(hi).Scale(0.5)
}

// framePath turns out.png into out_0007.png.
func framePath(out string, i int) string {
	ext := filepath.Ext(out)
	return fmt.Sprintf("%s_%04d%s", strings.TrimSuffix(out, ext), i, ext)
}
