package diff

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"newsdiff/internal/ports"
)

const documentTemplate = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <link rel="stylesheet" href="css/styles.css">
  </head>
  <body>
  <p>
  %s
  </p>
  </body>
</html>`

// Renderer turns an (old, new) text pair into a cropped diff image via the
// external rendering engine.
type Renderer struct {
	engine ports.RenderEngine
	logger *slog.Logger
}

// NewRenderer wires the external engine.
func NewRenderer(engine ports.RenderEngine, logger *slog.Logger) *Renderer {
	return &Renderer{engine: engine, logger: logger}
}

// Render produces the diff image for the pair. ok is false when there is
// nothing to show: empty input, texts identical after whitespace
// normalization, or a merged diff that carries no insertion/deletion markers.
// A rendering-engine failure is returned as an error; callers treat it the
// same as nothing-to-show for this field this run.
func (r *Renderer) Render(ctx context.Context, oldText, newText string) (image []byte, ok bool, err error) {
	oldText = strings.Join(strings.Fields(oldText), " ")
	newText = strings.Join(strings.Fields(newText), " ")
	if oldText == "" || newText == "" || oldText == newText {
		return nil, false, nil
	}

	fragment := MarkupFragment(Merge(WordDiff(oldText, newText)))
	if !strings.Contains(fragment, "<ins") && !strings.Contains(fragment, "<del") {
		return nil, false, nil
	}

	if r.logger != nil {
		r.logger.Debug("rendering diff", "fragment", fragment)
	}

	image, err = r.engine.RenderFragment(ctx, fmt.Sprintf(documentTemplate, fragment))
	if err != nil {
		return nil, false, fmt.Errorf("render fragment: %w", err)
	}

	return image, true, nil
}
