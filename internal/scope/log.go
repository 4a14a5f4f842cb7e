package scope

import "log"

// LogRenderer stands in for the window when running headless: the title and status
// lines go to the log, samples are dropped.
type LogRenderer struct {
	log   *log.Logger
	title string
	info  string
}

func NewLogRenderer(l *log.Logger) *LogRenderer {
	return &LogRenderer{log: l}
}

func (r *LogRenderer) Draw([]int16) {}

func (r *LogRenderer) SetTitle(title string) {
	if title == r.title {
		return
	}
	r.title = title
	r.log.Printf("[SCOPE] %s", title)
}

func (r *LogRenderer) SetInfo(info string) {
	r.info = info
	r.log.Printf("[SCOPE] %s", info)
}
