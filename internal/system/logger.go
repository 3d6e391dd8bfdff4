package system

import (
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// Logger is the shared application logger for CLI and server output.
// It prints to stderr with timestamps enabled; stdout stays reserved for
// command results so output can be piped.
var Logger = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
	Prefix:          "chatdeck",
})

// SetLevel sets the logger level from a name such as "debug" or "warn".
// Unknown names leave the level unchanged and return false.
func SetLevel(name string) bool {
	lvl, err := clog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return false
	}
	Logger.SetLevel(lvl)
	return true
}
