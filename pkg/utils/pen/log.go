package pen

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"
)

// InitLog configures the process-wide logger. Unknown levels fall back to info.
func InitLog(level string) {
	styles := log.DefaultStyles()
	log.SetFormatter(log.TextFormatter)
	log.SetStyles(styles)
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.TimeOnly)

	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// Loader starts a spinner on stderr so it never mixes with chat output.
func Loader(suffix string) *spinner.Spinner {
	return loader(os.Stderr, suffix)
}

func loader(w io.Writer, suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 120*time.Millisecond, spinner.WithWriter(w))
	s.Prefix = suffix
	s.FinalMSG = ""
	s.Start()
	return s
}

func Complete(s *spinner.Spinner, msg string) {
	s.Stop()
	log.Info(msg)
}

func Fail(s *spinner.Spinner, msg string, err error) {
	s.Stop()
	log.Error(msg, "err", err)
}
