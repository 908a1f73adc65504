//go:build integration

package integration

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// notebookFixture is one notebook the fake Kaggle API serves. A ListOnly
// fixture appears in the listing but /kernels/pull answers 404 for it, as
// happens when a notebook is deleted between listing and fetch.
type notebookFixture struct {
	Ref      string // owner/slug
	Title    string
	Source   string // raw .ipynb document
	Metadata string // kernel metadata JSON, empty for none
	ListOnly bool
}

// fakeKaggle serves /kernels/list and /kernels/pull for a fixed notebook set.
func fakeKaggle(t *testing.T, notebooks []notebookFixture) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/kernels/list", func(w http.ResponseWriter, r *http.Request) {
		type entry struct {
			Ref   string `json:"ref"`
			Title string `json:"title"`
		}
		out := []entry{}
		if r.URL.Query().Get("page") == "1" {
			for _, nb := range notebooks {
				out = append(out, entry{Ref: nb.Ref, Title: nb.Title})
			}
		}
		json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("/kernels/pull", func(w http.ResponseWriter, r *http.Request) {
		slug := r.URL.Query().Get("kernelSlug")
		for _, nb := range notebooks {
			if nb.ListOnly || !strings.HasSuffix(nb.Ref, "/"+slug) {
				continue
			}
			resp := map[string]any{
				"blob": map[string]any{
					"kernelType": "notebook",
					"language":   "python",
					"slug":       slug,
					"source":     nb.Source,
				},
			}
			if nb.Metadata != "" {
				resp["metadata"] = json.RawMessage(nb.Metadata)
			}
			json.NewEncoder(w).Encode(resp)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"NotFound"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// fakeGitHub is an in-memory GitHub API covering the endpoints the sync
// loop uses. State is inspectable after a run.
type fakeGitHub struct {
	t     *testing.T
	login string

	mu          sync.Mutex
	repos       map[string]bool              // name -> private
	files       map[string]map[string][]byte // repo -> path -> content
	creates     int
	failCreates int // next N creates answer 502
	Server      *httptest.Server
}

func newFakeGitHub(t *testing.T, login string) *fakeGitHub {
	t.Helper()
	g := &fakeGitHub{
		t:     t,
		login: login,
		repos: map[string]bool{},
		files: map[string]map[string][]byte{},
	}
	g.Server = httptest.NewServer(http.HandlerFunc(g.handle))
	t.Cleanup(g.Server.Close)
	return g
}

func (g *fakeGitHub) handle(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/user":
		fmt.Fprintf(w, `{"login":%q}`, g.login)

	case r.Method == http.MethodPost && r.URL.Path == "/user/repos":
		if g.failCreates > 0 {
			g.failCreates--
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"message":"Server Error"}`)
			return
		}
		var body struct {
			Name    string `json:"name"`
			Private bool   `json:"private"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		g.repos[body.Name] = body.Private
		g.creates++
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"name":%q,"owner":{"login":%q},"html_url":"https://github.com/%s/%s"}`,
			body.Name, g.login, g.login, body.Name)

	case r.Method == http.MethodGet && len(parts) == 3 && parts[0] == "repos":
		name := parts[2]
		if _, ok := g.repos[name]; !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
			return
		}
		fmt.Fprintf(w, `{"name":%q,"owner":{"login":%q}}`, name, g.login)

	case len(parts) >= 5 && parts[0] == "repos" && parts[3] == "contents":
		name := parts[2]
		path := strings.Join(parts[4:], "/")
		switch r.Method {
		case http.MethodGet:
			if _, ok := g.files[name][path]; !ok {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message":"Not Found"}`)
				return
			}
			fmt.Fprintf(w, `{"type":"file","name":%q,"sha":"sha-%s"}`, path, path)
		case http.MethodPut:
			var body struct {
				Message string `json:"message"`
				Content string `json:"content"`
				SHA     string `json:"sha"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			content, err := base64.StdEncoding.DecodeString(body.Content)
			if err != nil {
				http.Error(w, "content is not base64", http.StatusBadRequest)
				return
			}
			if g.files[name] == nil {
				g.files[name] = map[string][]byte{}
			}
			g.files[name][path] = content
			fmt.Fprintf(w, `{"content":{"name":%q}}`, path)
		default:
			g.t.Errorf("fake github: unhandled %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	default:
		g.t.Errorf("fake github: unhandled %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func (g *fakeGitHub) repoExists(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.repos[name]
	return ok
}

// seedRepo registers an existing repository without any files.
func (g *fakeGitHub) seedRepo(name string, private bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.repos[name] = private
}

func (g *fakeGitHub) fileContent(repo, path string) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.files[repo][path]
}

func (g *fakeGitHub) createCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.creates
}

func (g *fakeGitHub) pushCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, files := range g.files {
		n += len(files)
	}
	return n
}

// writeTestConfig stores a config file in a temp dir and returns its path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}
