package main

import (
	"fmt"
	"io"
	"log"

	"github.com/fatih/color"

	"seekr/internal/probe"
	"seekr/internal/scan"
)

// Printer renders probe outcomes for the terminal. Found profiles are
// always printed; misses and failures only in verbose mode.
type Printer struct {
	noColor bool
	verbose bool

	logger *log.Logger
	stream *log.Logger // optional plain-text copy (file output)
}

func NewPrinter(stdout io.Writer, noColor, verbose bool, file io.Writer) *Printer {
	p := &Printer{
		noColor: noColor,
		verbose: verbose,
		logger:  log.New(stdout, "", 0),
	}
	if file != nil {
		p.stream = log.New(file, "", 0)
	}
	return p
}

func (p *Printer) Header(handle string, total int) {
	if p.noColor {
		p.logger.Printf("Scanning %d platforms for %q", total, handle)
	} else {
		p.logger.Printf("Scanning %d platforms for %s", total, color.HiCyanString("%q", handle))
	}
	if p.stream != nil {
		p.stream.Printf("Scanning %d platforms for %q", total, handle)
	}
}

func (p *Printer) Result(outcome probe.Outcome) {
	// File output is always plain.
	if p.stream != nil {
		if outcome.Found {
			p.stream.Printf("[+] %s: %s", outcome.Site, outcome.URL)
		} else if p.verbose {
			p.stream.Printf("[%s] %s: %s", marker(outcome), outcome.Site, detail(outcome))
		}
	}

	if outcome.Found {
		if p.noColor {
			p.logger.Printf("[+] %s: %s", outcome.Site, outcome.URL)
		} else {
			p.logger.Printf("[%s] %s: %s",
				color.HiGreenString("+"), color.HiWhiteString(outcome.Site), outcome.URL)
		}
		return
	}

	if !p.verbose {
		return
	}

	if p.noColor {
		p.logger.Printf("[%s] %s: %s", marker(outcome), outcome.Site, detail(outcome))
		return
	}

	switch outcome.State {
	case probe.StatusNotFound:
		p.logger.Printf("[%s] %s: %s",
			color.HiRedString("-"), outcome.Site, color.HiYellowString("Not Found"))
	default:
		p.logger.Printf("[%s] %s: %s: %s",
			color.HiRedString("!"), outcome.Site,
			color.HiMagentaString(string(outcome.State)), color.HiRedString(detail(outcome)))
	}
}

func (p *Printer) Summary(summary scan.Summary) {
	line := func(l *log.Logger, found string) {
		l.Printf("Checked %d platforms, found %s", summary.Total, found)
	}
	if p.stream != nil {
		line(p.stream, plural(summary.FoundCount))
	}
	if p.noColor {
		line(p.logger, plural(summary.FoundCount))
		return
	}
	line(p.logger, color.HiGreenString(plural(summary.FoundCount)))
}

func marker(outcome probe.Outcome) string {
	if outcome.State == probe.StatusNotFound {
		return "-"
	}
	return "!"
}

func detail(outcome probe.Outcome) string {
	if outcome.Reason != "" {
		return outcome.Reason
	}
	if outcome.State == probe.StatusNotFound {
		return "Not Found"
	}
	return string(outcome.State)
}

func plural(count int) string {
	if count == 1 {
		return "1 profile"
	}
	return fmt.Sprintf("%d profiles", count)
}
