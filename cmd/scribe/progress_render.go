package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/schollz/progressbar/v3"

	"scribe/internal/notifications"
)

// progressRenderer consumes hub events and draws them for a human: a live
// bar on terminals, plain log lines everywhere else. JSON mode stays silent
// so stdout carries only the final document.
type progressRenderer struct {
	out    io.Writer
	tty    bool
	silent bool

	bar *progressbar.ProgressBar
}

func newProgressRenderer(out io.Writer, silent bool) *progressRenderer {
	return &progressRenderer{
		out:    out,
		tty:    shouldColorize(out),
		silent: silent,
	}
}

// consume drains events until the channel closes, then signals done.
func (r *progressRenderer) consume(events <-chan notifications.Notification, done chan<- struct{}) {
	defer close(done)
	for event := range events {
		r.render(event)
	}
	r.finish()
}

func (r *progressRenderer) render(event notifications.Notification) {
	if r.silent {
		return
	}
	description := strings.TrimSpace(event.Description)
	if description == "" {
		description = event.ID
	}

	if !r.tty {
		fmt.Fprintf(r.out, "[%3d%%] %s\n", event.Value, description)
		return
	}

	if r.bar == nil {
		r.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionClearOnFinish(),
		)
	}
	r.bar.Describe(description)
	_ = r.bar.Set(event.Value)

	if event.Type == notifications.TypeError {
		_ = r.bar.Clear()
		r.bar = nil
		fmt.Fprintf(r.out, "%s\n", description)
	}
}

func (r *progressRenderer) finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
		fmt.Fprintln(r.out)
	}
}
