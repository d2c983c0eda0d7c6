package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taigrr/wirecast/pkg/scene"
)

// stageLog is a logger that is either on or off for one stage.
type stageLog struct {
	log *slog.Logger
	on  bool
}

func (s stageLog) debug(msg string, args ...any) {
	if s.on {
		s.log.Debug(msg, args...)
	}
}

func (s stageLog) enabled() bool {
	return s.on && s.log.Enabled(context.Background(), slog.LevelDebug)
}

// dump logs the vertex, color and primitive lists of m after stage.
func (s stageLog) dump(stage string, m *scene.Model) {
	if !s.enabled() {
		return
	}
	s.log.Debug("stage output",
		"stage", stage,
		"model", m.Name,
		"vertices", listString(m.Vertices),
		"colors", listString(m.Colors),
		"primitives", listString(m.Primitives),
	)
}

func listString[T fmt.Stringer](xs []T) string {
	var sb strings.Builder
	for i, x := range xs {
		fmt.Fprintf(&sb, "\n  %d: %v", i, x)
	}
	return sb.String()
}
