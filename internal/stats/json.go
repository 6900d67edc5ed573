package stats

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/verte-zerg/squeezestats/internal/model"
)

// RenderJSON writes res as indented JSON followed by a newline.
func RenderJSON(w io.Writer, res model.StatisticsResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
