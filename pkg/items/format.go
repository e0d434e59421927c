package items

import (
	"time"

	"github.com/ghostwire/ghostbot/pkg/manifest"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const objectiveDateLayout = "2006-01-02"

// FormatObjectiveValue renders progress according to the objective's declared
// value style. Date styles hold a Unix timestamp in seconds.
func FormatObjectiveValue(def *manifest.ObjectiveDefinition, progress ObjectiveProgress) string {
	style := def.InProgressValueStyle
	if progress.Complete {
		style = def.CompletedValueStyle
	}

	if style == manifest.ValueStyleDateTime {
		return time.Unix(progress.Progress, 0).UTC().Format(objectiveDateLayout)
	}
	return FormatNumber(progress.Progress)
}

// FormatNumber renders n with thousands separators.
func FormatNumber(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}
