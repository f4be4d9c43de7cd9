package listview

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"text/tabwriter"
)

var tableTemplate = template.Must(template.New("table").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"dec": func(i int) int { return i - 1 },
}).Parse(`
<form class="list-search" method="get">
  <input type="search" name="q" value="{{.Query}}" placeholder="Search" aria-label="Search">
  <button type="submit">Search</button>
</form>
{{if .Rows}}
<table class="list-table">
  <thead><tr>
  {{range .Headers}}{{if .Sortable}}<th class="sortable{{if .Active}} sorted-{{.Dir}}{{end}}"><a href="{{.Href}}">{{.Label}}</a></th>{{else}}<th>{{.Label}}</th>{{end}}
  {{end}}<th class="actions"></th>
  </tr></thead>
  <tbody>
  {{range .Rows}}<tr data-id="{{.ID}}">
    {{range .Cells}}<td>{{.HTML}}</td>{{end}}
    <td class="actions">{{range .Actions}}<a class="action action-{{.Name}}" href="{{.Href}}">{{.Label}}</a> {{end}}</td>
  </tr>
  {{end}}
  </tbody>
</table>
{{if .Page.ShowPagination}}
<nav class="pagination">
  <span>{{.Page.StartRow}}–{{.Page.EndRow}} of {{.Page.Total}}</span>
  {{$p := .Params}}{{$cur := .Page.Page}}
  {{if .Page.HasPrev}}<a href="{{$p.PageURL (dec $cur)}}">Prev</a>{{end}}
  {{range .Page.PageNumbers}}{{if eq . $cur}}<strong>{{.}}</strong>{{else}}<a href="{{$p.PageURL .}}">{{.}}</a>{{end}} {{end}}
  {{if .Page.HasNext}}<a href="{{$p.PageURL (inc $cur)}}">Next</a>{{end}}
</nav>
{{end}}
{{else}}
<p class="empty">{{.Empty}}</p>
{{end}}
`))

// RenderHTML writes the table fragment for v.
func RenderHTML(w io.Writer, v TableView) error {
	return tableTemplate.Execute(w, v)
}

// RenderText writes v as aligned columns for terminals.
func RenderText(w io.Writer, v TableView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	labels := make([]string, len(v.Headers))
	for i, h := range v.Headers {
		labels[i] = strings.ToUpper(h.Label)
	}
	fmt.Fprintln(tw, strings.Join(labels, "\t"))
	for _, r := range v.Rows {
		cells := make([]string, len(r.Cells))
		for i, c := range r.Cells {
			cells[i] = c.Text
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(v.Rows) == 0 {
		_, err := fmt.Fprintln(w, v.Empty)
		return err
	}
	_, err := fmt.Fprintf(w, "%d–%d of %d\n", v.Page.StartRow(), v.Page.EndRow(), v.Page.Total)
	return err
}
