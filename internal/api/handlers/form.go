package handlers

import (
	"html/template"
	"io"

	"github.com/isdelr/userexport/internal/export"
)

// badTokenMessage is shown when the submitted form carried a stale or forged token.
const badTokenMessage = "There was a problem with your submission: the session token did not match. Please try again."

var formTemplate = template.Must(template.New("userexport").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Export users</title>
</head>
<body>
{{if .Warning}}<span style="color: red;">{{.Warning}}</span><br />
{{end}}<form id="userexport-form" class="mw-userexport-form" method="post" action="{{.Action}}">
<fieldset>
<legend>Export user data</legend>
<p>Choose the fields to include in the CSV file.</p>
{{range .Fields}}<div>
<input type="checkbox" id="{{.Name}}" name="{{.Name}}" value="1"{{if .Checked}} checked{{end}}>
<label for="{{.Name}}">{{.Name}}</label>
</div>
{{end}}<input type="hidden" name="token" value="{{.Token}}">
<input type="hidden" name="exportusers" value="1">
<button type="submit" name="wpsubmit" value="1">Export</button>
</fieldset>
</form>
</body>
</html>
`))

// FormField is one checkbox on the selection form.
type FormField struct {
	Name    string
	Checked bool
}

// FormPage is the data rendered into the selection form.
type FormPage struct {
	Action  string
	Warning string
	Token   string
	Fields  []FormField
}

// NewFormPage builds the form description for catalog with the given
// checkbox state.
func NewFormPage(catalog *export.Catalog, state map[string]bool, action, token, warning string) FormPage {
	page := FormPage{Action: action, Token: token, Warning: warning}
	for _, spec := range catalog.AllFields() {
		page.Fields = append(page.Fields, FormField{Name: spec.Name, Checked: state[spec.Name]})
	}
	return page
}

// Render writes the page as HTML.
func (p FormPage) Render(w io.Writer) error {
	return formTemplate.Execute(w, p)
}
