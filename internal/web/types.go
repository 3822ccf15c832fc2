package web

import (
	"html/template"

	"gnotes/internal/data"
)

type ViewData struct {
	Title           string
	ContentTemplate string
	ContentHTML     template.HTML
	User            string
	Reason          string
	Message         string
	Redirect        string
	Notes           []data.Note
	NotesJSON       template.JS
	Links           []LinkRow
	RenderedHTML    template.HTML
}

// LinkRow is one entry on the links and public directory pages.
type LinkRow struct {
	ID     string
	URL    string
	Note   string
	Owner  string
	Render bool
	Public bool
}
