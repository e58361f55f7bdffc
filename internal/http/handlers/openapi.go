package handlers

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"
)

// OpenAPIPath is where the router serves the API description.
const OpenAPIPath = "/v1/openapi.json"

//go:embed openapi.json
var openAPISpec []byte

var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>{{.Title}} Docs</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
  </head>
  <body style="margin:0">
    <redoc spec-url="{{.SpecURL}}"></redoc>
    <script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
  </body>
</html>`))

// docsPage is rendered once from the embedded description.
var docsPage = renderDocs(openAPISpec, OpenAPIPath)

func renderDocs(spec []byte, specURL string) []byte {
	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
	}
	title := "API"
	if err := json.Unmarshal(spec, &doc); err == nil && doc.Info.Title != "" {
		title = doc.Info.Title
	}
	var buf bytes.Buffer
	if err := docsTemplate.Execute(&buf, struct{ Title, SpecURL string }{title, specURL}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func (a *App) OpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(docsPage)
}
