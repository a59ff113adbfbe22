package runner

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
)

// Progress draws a single-line progress bar, redrawn in place with a carriage
// return.
type Progress struct {
	w     io.Writer
	bar   progress.Model
	total int
}

func NewProgress(w io.Writer, total int) *Progress {
	return &Progress{
		w:     w,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		total: total,
	}
}

func (p *Progress) Update(done int) {
	pct := 1.0
	if p.total > 0 {
		pct = float64(done) / float64(p.total)
	}
	fmt.Fprintf(p.w, "\r%s %d/%d", p.bar.ViewAs(pct), done, p.total)
}

func (p *Progress) Finish() {
	fmt.Fprintln(p.w)
}
