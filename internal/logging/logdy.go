package logging

import (
	"fmt"
	"io"
	"strconv"

	"github.com/logdyhq/logdy-core/logdy"
	"github.com/rs/zerolog/log"
)

// teeWriter forwards each log line into the embedded Logdy UI.
type teeWriter struct {
	ui logdy.Logdy
}

func (w *teeWriter) Write(p []byte) (int, error) {
	w.ui.LogString(string(p))
	return len(p), nil
}

// StartLogdy starts the embedded Logdy web UI and returns a writer that
// tees log output into it, plus the UI URL.
func StartLogdy(host string, port int) (io.Writer, string, error) {
	portStr := strconv.Itoa(port)
	ui := logdy.InitializeLogdy(logdy.Config{
		ServerIp:   host,
		ServerPort: portStr,
	}, nil)

	url := fmt.Sprintf("http://%s:%s", host, portStr)
	log.Info().Str("url", url).Msg("Logdy UI available")
	return &teeWriter{ui: ui}, url, nil
}
