package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// maxChartSlices bounds the subdomain pie chart; the rest is folded into
// an "other" slice.
const maxChartSlices = 10

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides type-safe tables, lists and mermaid charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(s *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writeTopWords(md, s)
	w.writeSubdomains(md, s)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the page figures.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("Crawl Report")
	md.PlainText("")

	longest := "-"
	if s.HasPages() {
		longest = "`" + truncateString(s.Longest.URL, 80) + "` (" + strconv.Itoa(s.Longest.Words) + " words)"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Unique Pages", strconv.Itoa(s.UniquePages)},
			{"Longest Page", longest},
			{"Subdomains", strconv.Itoa(len(s.Subdomains))},
		},
	})
	md.PlainText("")

	if !s.HasPages() {
		md.Note("No pages were crawled.")
		md.PlainText("")
	}
}

// writeTopWords writes the most common words as a ranked table.
func (w *MarkdownWriter) writeTopWords(md *markdown.Markdown, s *Summary) {
	md.H2("Top " + strconv.Itoa(len(s.TopWords)) + " Common Words")
	md.PlainText("")

	if len(s.TopWords) == 0 {
		md.PlainText("No words recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(s.TopWords))
	for i, wc := range s.TopWords {
		rows[i] = []string{strconv.Itoa(i + 1), wc.Word, strconv.Itoa(wc.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Word", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSubdomains writes the subdomain table and its chart.
func (w *MarkdownWriter) writeSubdomains(md *markdown.Markdown, s *Summary) {
	title := "Subdomains"
	if s.Domain != "" {
		title = s.Domain + " Subdomains"
	}
	md.H2(title)
	md.PlainText("")

	if len(s.Subdomains) == 0 {
		md.PlainText("No subdomains found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(s.Subdomains))
	for i, sub := range s.Subdomains {
		rows[i] = []string{sub.Subdomain, strconv.Itoa(sub.Pages)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Subdomain", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, s)
}

// writePieChart writes a mermaid pie chart of pages per subdomain.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Pages per Subdomain"),
		piechart.WithShowData(true),
	)

	for _, sub := range largestSubdomains(s.Subdomains, maxChartSlices) {
		chart.LabelAndIntValue(sub.Subdomain, uint64(sub.Pages)) //nolint:gosec // page counts are never negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by ucicrawl*")
}

// largestSubdomains returns the n subdomains with the most pages, folding the
// remainder into a single "other" entry.
func largestSubdomains(subs []SubdomainCount, n int) []SubdomainCount {
	if len(subs) <= n {
		return subs
	}
	sorted := make([]SubdomainCount, len(subs))
	copy(sorted, subs)
	sortByPages(sorted)

	out := make([]SubdomainCount, 0, n+1)
	out = append(out, sorted[:n]...)
	other := SubdomainCount{Subdomain: "other"}
	for _, sub := range sorted[n:] {
		other.Pages += sub.Pages
	}
	return append(out, other)
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
