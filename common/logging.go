// Package common provides the global logging infrastructure for the query
// engine. Error-level messages are routed to stderr and everything else to
// stdout, so containerized deployments can treat the two streams
// differently without parsing log content downstream.
package common

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
)

// OutputSplitter routes formatted log lines to stderr or stdout based on
// their level, so orchestrators can handle error output separately.
type OutputSplitter struct{}

func (splitter *OutputSplitter) Write(p []byte) (n int, err error) {
	if bytes.Contains(p, []byte("level=error")) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// Logger is the process-wide logger instance. Components should prefer an
// injected *logrus.Logger from NewLogger; Logger exists for call sites that
// have no constructor-injected logger available (package init, CLI glue).
var Logger = logrus.New()

func init() {
	Logger.SetOutput(&OutputSplitter{})
}
