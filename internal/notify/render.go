// Package notify renders shaped reports as HTML email and sends them over
// SMTP.
package notify

import (
	"strings"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"github.com/querydesk/querydesk/internal/report"
)

// DefaultIntro opens every report email.
const DefaultIntro = "Please find below the latest report:"

const (
	tableStyle = "border-collapse:collapse;font-family:Arial,sans-serif;font-size:13px"
	cellStyle  = "border:1px solid #999;padding:4px 8px"
	headStyle  = cellStyle + ";background:#f0f0f0;text-align:left"
	totalStyle = cellStyle + ";font-weight:bold"
)

// ReportTable renders t as a bordered table with inline styles, which is
// what mail clients honour. The Grand Total row is bold.
func ReportTable(t report.Table) gomponents.Node {
	headers := make([]gomponents.Node, 0, len(t.Columns))
	for _, c := range t.Columns {
		headers = append(headers, html.Th(html.Style(headStyle), gomponents.Text(c)))
	}

	rows := make([]gomponents.Node, 0, len(t.Rows))
	for _, row := range t.Rows {
		style := cellStyle
		if isTotalRow(row) {
			style = totalStyle
		}
		cells := make([]gomponents.Node, 0, len(row))
		for _, v := range row {
			cells = append(cells, html.Td(html.Style(style), gomponents.Text(report.FormatCell(v))))
		}
		rows = append(rows, html.Tr(gomponents.Group(cells)))
	}

	return html.Table(
		html.Style(tableStyle),
		gomponents.Attr("border", "1"),
		html.THead(html.Tr(gomponents.Group(headers))),
		html.TBody(gomponents.Group(rows)),
	)
}

// ReportEmail is the full email body: an intro paragraph and the table.
func ReportEmail(title, intro string, t report.Table) gomponents.Node {
	if intro == "" {
		intro = DefaultIntro
	}
	var body gomponents.Node = ReportTable(t)
	if len(t.Rows) == 0 {
		body = html.P(html.Em(gomponents.Text("The query returned no rows.")))
	}
	return html.HTML(
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.TitleEl(gomponents.Text(title)),
		),
		html.Body(
			html.P(gomponents.Text(intro)),
			body,
		),
	)
}

// RenderReport renders the email body to a string.
func RenderReport(title, intro string, t report.Table) (string, error) {
	var sb strings.Builder
	if err := ReportEmail(title, intro, t).Render(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func isTotalRow(row []any) bool {
	for _, v := range row {
		if s, ok := v.(string); ok && s == report.GrandTotalLabel {
			return true
		}
	}
	return false
}
