package report

import (
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TextWriter outputs the plain text report, one answer per paragraph.
//
// Design decision: Counts go through an x/text message.Printer so large
// numbers get locale grouping ("12,345") while the layout itself stays
// plain ASCII that pipes cleanly into files and graders.
type TextWriter struct {
	baseWriter

	printer *message.Printer
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithLanguage formats numbers for tag instead of English.
func WithLanguage(tag language.Tag) TextWriterOption {
	return func(w *TextWriter) {
		w.printer = message.NewPrinter(tag)
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in the report.txt layout.
func (w *TextWriter) Write(s *Summary) (int, error) {
	var sb strings.Builder

	w.writeTopWords(&sb, s)
	w.writePages(&sb, s)
	w.writeSubdomains(&sb, s)

	return io.WriteString(w.output, sb.String())
}

func (w *TextWriter) writeTopWords(sb *strings.Builder, s *Summary) {
	sb.WriteString(w.printer.Sprintf("TOP %d COMMON WORDS:\n", len(s.TopWords)))
	for _, wc := range s.TopWords {
		sb.WriteString(w.printer.Sprintf("\t%s: %d\n", wc.Word, wc.Count))
	}
}

func (w *TextWriter) writePages(sb *strings.Builder, s *Summary) {
	sb.WriteString(w.printer.Sprintf("\nNumber of unique pages: %d\n", s.UniquePages))

	if !s.HasPages() {
		sb.WriteString("\nNo pages were crawled.\n")
		return
	}
	sb.WriteString(w.printer.Sprintf("\nThe longest page in terms of number of words is %s with %d words.\n",
		s.Longest.URL, s.Longest.Words))
}

func (w *TextWriter) writeSubdomains(sb *strings.Builder, s *Summary) {
	domain := s.Domain
	if domain == "" {
		domain = "crawled"
	}

	sb.WriteString(w.printer.Sprintf("\nThe number of %s subdomains is %d.\n", domain, len(s.Subdomains)))
	sb.WriteString(w.printer.Sprintf("\n%s subdomains:\n", domain))
	for _, sub := range s.Subdomains {
		sb.WriteString(w.printer.Sprintf("\t%s, %d\n", sub.Subdomain, sub.Pages))
	}
}
