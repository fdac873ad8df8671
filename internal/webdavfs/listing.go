package webdavfs

import (
	"html/template"
	"net/http"
	"path"
	"sort"
	"strings"
)

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<title>{{.Path}}</title>
<h1>{{.Path}}</h1>
<pre>
{{- range .Entries}}
<a href="{{.Href}}">{{.Name}}</a>
{{- end}}
</pre>
`))

type listingEntry struct {
	Name string
	Href string
}

type listingData struct {
	Path    string
	Entries []listingEntry
}

// serveDirectoryListing writes a minimal HTML index for dirPath if it
// resolves to a directory, returning false (without writing anything) if
// it doesn't so the caller can fall through to the protocol engine.
func (fs *FS) serveDirectoryListing(w http.ResponseWriter, r *http.Request) bool {
	dirPath := clean(r.URL.Path)
	children, err := fs.children(r.Context(), dirPath)
	if err != nil || (dirPath != "/" && len(children) == 0) {
		if ok, derr := fs.isDir(r.Context(), dirPath); derr != nil || !ok {
			return false
		}
	}

	sort.Slice(children, func(i, j int) bool { return children[i].Name() < children[j].Name() })

	data := listingData{Path: dirPath}
	if dirPath != "/" {
		data.Entries = append(data.Entries, listingEntry{Name: "..", Href: path.Dir(dirPath)})
	}
	for _, c := range children {
		name := c.Name()
		href := strings.TrimSuffix(dirPath, "/") + "/" + name
		if c.IsDir() {
			name += "/"
			href += "/"
		}
		data.Entries = append(data.Entries, listingEntry{Name: name, Href: href})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = listingTemplate.Execute(w, data)
	return true
}
