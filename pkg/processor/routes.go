package processor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

// APIVersion is the served API version. Paths are mounted under
// /api/<version>.
const APIVersion = "v1"

// Routes exposes a set of processors as an HTTP API: per-processor execute
// and signature endpoints under /api/v1, an info endpoint describing the
// deployment, and a root redirect to it.
type Routes struct {
	processors []*Processor
	rootPath   string
}

// NewRoutes builds the route collection. rootPath is the external prefix
// the server is reachable under and only affects the paths advertised by
// the info endpoint; pass "" when serving from the root.
func NewRoutes(rootPath string, processors ...*Processor) *Routes {
	if rootPath == "" {
		rootPath = "/"
	}
	return &Routes{processors: processors, rootPath: rootPath}
}

// Processors returns the registered processors in registration order.
func (rt *Routes) Processors() []*Processor {
	return rt.processors
}

// Handler builds the router. Unknown paths and disallowed methods get the
// same JSON status envelope the endpoints themselves use.
func (rt *Routes) Handler() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/api/"+APIVersion+"/info", http.StatusTemporaryRedirect)
	})

	r.Route("/api/"+APIVersion, func(api chi.Router) {
		api.Head("/info", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		api.Get("/info", rt.handleInfo)

		for _, p := range rt.processors {
			api.Handle(p.ExecutePath(), p.ExecuteHandler())
			api.Handle(p.SignaturePath(), p.SignatureHandler())
		}
	})

	return r
}

func (rt *Routes) executePath(p *Processor) string {
	return strings.TrimRight(rt.rootPath, "/") + p.ExecutePath()
}

func (rt *Routes) signaturePath(p *Processor) string {
	return strings.TrimRight(rt.rootPath, "/") + p.SignaturePath()
}

// handleInfo renders the deployment description, negotiated on the Accept
// header: plaintext, HTML, and markdown renderings for humans, JSON for
// everything else.
func (rt *Routes) handleInfo(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, "text/plain"):
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(rt.infoPlaintext()))
	case strings.Contains(accept, "text/html"):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(rt.infoHTML()))
	case strings.Contains(accept, "text/markdown"):
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(rt.infoMarkdown()))
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(rt.infoJSON())
	}
}

type processorInfo struct {
	Name              string   `json:"name"`
	Namespace         string   `json:"namespace"`
	ID                string   `json:"id"`
	AvailableVersions []string `json:"available_versions"`
	LatestVersion     string   `json:"latest_version"`
	ExecutePath       string   `json:"execute_path"`
	SignaturePath     string   `json:"signature_path"`
}

func (rt *Routes) infoJSON() map[string]any {
	infos := make([]processorInfo, 0, len(rt.processors))
	for _, p := range rt.processors {
		infos = append(infos, processorInfo{
			Name:              p.Name(),
			Namespace:         p.Namespace(),
			ID:                p.ID(),
			AvailableVersions: []string{p.Version()},
			LatestVersion:     p.Version(),
			ExecutePath:       rt.executePath(p),
			SignaturePath:     rt.signaturePath(p),
		})
	}
	return map[string]any{
		"api_versions": []string{APIVersion},
		"processors":   infos,
	}
}

func (rt *Routes) infoPlaintext() string {
	paths := make([]string, 0, len(rt.processors))
	for _, p := range rt.processors {
		paths = append(paths, rt.executePath(p))
	}
	return strings.Join(paths, "\n")
}

func (rt *Routes) infoHTML() string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8" />` +
		"<title>Processor Routes</title>" +
		"<style>" +
		"body { font-family: Arial, sans-serif; margin: 20px; }" +
		"table { width: 100%; border-collapse: collapse; margin-top: 20px; }" +
		"th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }" +
		"th { background-color: #f4f4f4; }" +
		"</style>" +
		"</head><body>" +
		"<h2>Processor Routes</h2>" +
		"<table>" +
		"<tr><th>Processor ID</th><th>Simple Path (HEAD, POST)</th><th>Signature Path (GET, POST)</th></tr>")

	for _, p := range rt.processors {
		execute := rt.executePath(p)
		sig := rt.signaturePath(p)
		fmt.Fprintf(&b,
			`<tr><td>%s</td><td><a href=".%s">%s</a></td><td><a href=".%s">%s</a></td></tr>`,
			p.ID(), execute, execute, sig, sig)
	}

	b.WriteString("</table></body></html>")
	return b.String()
}

func (rt *Routes) infoMarkdown() string {
	var b strings.Builder
	b.WriteString("# Processors\n")

	byNamespace := make(map[string][]*Processor)
	namespaces := make([]string, 0)
	for _, p := range rt.processors {
		if _, ok := byNamespace[p.Namespace()]; !ok {
			namespaces = append(namespaces, p.Namespace())
		}
		byNamespace[p.Namespace()] = append(byNamespace[p.Namespace()], p)
	}
	for _, ns := range namespaces {
		fmt.Fprintf(&b, "- %s\n", ns)
		for _, p := range byNamespace[ns] {
			fmt.Fprintf(&b, "\t- [%s](#%s)\n", p.Name(), p.ID())
		}
	}

	for _, p := range rt.processors {
		fmt.Fprintf(&b, "## %s\n\n", p.ID())

		if desc, ok := p.appDetails["description"].(string); ok {
			fmt.Fprintf(&b, "%s\n\n", desc)
		}

		b.WriteString("### Configuration\n")
		fmt.Fprintf(&b,
			"\n| Direction | Supported |\n"+
				"| --------- |-----------|\n"+
				"| Input     | %s       |\n"+
				"| Response  | %s       |\n",
			yesNo(p.sig.SupportsInput()), yesNo(p.sig.SupportsResponse()))

		b.WriteString("\n\n### Parameters\n\n")
		writeSchemaTable(&b, p.paramsSchema)
	}

	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No "
}

func writeSchemaTable(b *strings.Builder, schema map[string]any) {
	if desc, ok := schema["description"].(string); ok && desc != "" {
		fmt.Fprintf(b, "%s\n\n", desc)
	}
	properties, ok := schema["properties"].(map[string]any)
	if !ok || len(properties) == 0 {
		return
	}

	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	b.WriteString("| Parameters | Description | Type |Required | Defaults | Examples |\n" +
		"|-|-|-|-|-|-|\n")
	for _, name := range names {
		details, _ := properties[name].(map[string]any)
		defaultText := ""
		if d, ok := details["default"]; ok {
			defaultText = fmt.Sprintf("`%v`", d)
		}
		fmt.Fprintf(b, "| `%s` | %v |%v |%v |%s |%v |\n",
			name,
			orEmpty(details["description"]),
			orEmpty(details["type"]),
			orEmpty(details["required"]),
			defaultText,
			orEmpty(details["examples"]))
	}
	b.WriteString("\n\n")
}

func orEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
