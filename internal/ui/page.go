// Package ui serves the browser dashboard: a question form and the answer
// rendered as SQL plus a report table.
package ui

import (
	"fmt"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"github.com/querydesk/querydesk/internal/models"
	"github.com/querydesk/querydesk/internal/notify"
	"github.com/querydesk/querydesk/internal/report"
	"github.com/querydesk/querydesk/internal/service"
)

const pageStyle = `body{font-family:Arial,sans-serif;margin:2em auto;max-width:960px;color:#222}
textarea{width:100%;font-size:14px}
pre{background:#f6f6f6;padding:8px;overflow-x:auto}
.error{color:#a00;border:1px solid #a00;padding:8px;background:#fff4f4}
.meta{color:#666;font-size:12px}`

// formState is what the form shows after a post.
type formState struct {
	Question string
	Profile  string
	HasKey   bool
}

// result is the outcome of one question as shown on the page.
type result struct {
	SQL     string
	Table   *report.Table
	Applied []string
	Profile string
	Error   string
	Notice  string
}

func page(title string, profiles []service.Profile, form formState, res *result) gomponents.Node {
	var ans gomponents.Node = gomponents.Group(nil)
	if res != nil {
		ans = answer(res)
	}
	return html.Doctype(
		html.HTML(
			html.Lang("en"),
			html.Head(
				html.Meta(html.Charset("utf-8")),
				html.TitleEl(gomponents.Text(title)),
				html.StyleEl(gomponents.Raw(pageStyle)),
			),
			html.Body(
				html.H1(gomponents.Text(title)),
				askForm(profiles, form),
				ans,
			),
		),
	)
}

func askForm(profiles []service.Profile, form formState) gomponents.Node {
	options := []gomponents.Node{
		html.Option(html.Value(""), gomponents.Text("auto (route by keywords)")),
	}
	for _, p := range profiles {
		options = append(options, html.Option(
			html.Value(p.Name),
			gomponents.If(p.Name == form.Profile, html.Selected()),
			gomponents.Text(p.Name),
		))
	}

	return html.Form(
		html.Method("post"), html.Action("/ui/ask"),
		html.P(
			html.Label(html.For("question"), gomponents.Text("Question")),
			html.Textarea(html.ID("question"), html.Name("question"), html.Rows("3"), html.Required(),
				gomponents.Text(form.Question)),
		),
		html.P(
			html.Label(html.For("profile"), gomponents.Text("Report profile ")),
			html.Select(html.ID("profile"), html.Name("profile"), gomponents.Group(options)),
		),
		gomponents.If(!form.HasKey, html.P(
			html.Label(html.For("api_key"), gomponents.Text("API key ")),
			html.Input(html.Type("password"), html.ID("api_key"), html.Name("api_key")),
		)),
		html.P(
			html.Label(html.Input(html.Type("checkbox"), html.Name("dry_run"), html.Value("true")),
				gomponents.Text(" only show the SQL")),
		),
		html.Button(html.Type("submit"), gomponents.Text("Ask")),
	)
}

func answer(res *result) gomponents.Node {
	nodes := []gomponents.Node{}
	if res.Profile != "" {
		nodes = append(nodes, html.P(html.Class("meta"), gomponents.Text("profile: "+res.Profile)))
	}
	if res.SQL != "" {
		nodes = append(nodes, html.H2(gomponents.Text("SQL")), html.Pre(html.Code(gomponents.Text(res.SQL))))
	}
	if res.Error != "" {
		nodes = append(nodes, html.Div(html.Class("error"), gomponents.Text(res.Error)))
	}
	if res.Notice != "" {
		nodes = append(nodes, html.P(html.Em(gomponents.Text(res.Notice))))
	}
	if res.Table != nil {
		nodes = append(nodes, html.H2(gomponents.Text("Result")))
		if len(res.Table.Rows) == 0 {
			nodes = append(nodes, html.P(html.Em(gomponents.Text("The query returned no rows."))))
		} else {
			nodes = append(nodes, notify.ReportTable(*res.Table))
		}
		meta := fmt.Sprintf("%d rows", len(res.Table.Rows))
		if len(res.Applied) > 0 {
			meta += fmt.Sprintf(" · shaped: %v", res.Applied)
		}
		nodes = append(nodes, html.P(html.Class("meta"), gomponents.Text(meta)))
	}
	return html.Section(html.ID("answer"), gomponents.Group(nodes))
}

// fromResponse converts a pipeline response into what the page shows.
func fromResponse(resp *models.AskResponse) *result {
	res := &result{SQL: resp.GeneratedSQL, Profile: resp.Profile, Error: resp.Error}
	switch resp.Status {
	case models.StatusDryRun:
		res.Notice = "Dry run: the query was not executed."
	case models.StatusSuccess:
		if resp.Result != nil {
			t := report.Table{Columns: resp.Result.Columns, Rows: resp.Result.Rows}
			res.Table = &t
			res.Applied = resp.Result.Metadata.Applied
		}
	}
	return res
}
