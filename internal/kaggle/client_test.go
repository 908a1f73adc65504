package kaggle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/pintyy/kaggle-sync/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("tester", "secret", Options{BaseURL: srv.URL, PageSize: 2})
}

func TestListNotebooks_Paging(t *testing.T) {
	pages := map[string]string{
		"1": `[{"ref":"tester/first","title":"First"},{"ref":"tester/second","title":"Second"}]`,
		"2": `[{"ref":"tester/third","title":"Third"}]`,
	}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/kernels/list" {
			t.Errorf("path = %q, want /kernels/list", r.URL.Path)
		}
		if user, _, ok := r.BasicAuth(); !ok || user != "tester" {
			t.Errorf("basic auth user = %q, want tester", user)
		}
		if got := r.URL.Query().Get("user"); got != "tester" {
			t.Errorf("user param = %q, want tester", got)
		}
		if got := r.URL.Query().Get("pageSize"); got != "2" {
			t.Errorf("pageSize param = %q, want 2", got)
		}
		fmt.Fprint(w, pages[r.URL.Query().Get("page")])
	}))

	refs, err := client.ListNotebooks(context.Background(), "tester")
	if err != nil {
		t.Fatalf("ListNotebooks() error = %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("got %d refs, want 3", len(refs))
	}
	want := domain.NotebookRef{Owner: "tester", Slug: "third", Title: "Third"}
	if refs[2] != want {
		t.Errorf("refs[2] = %+v, want %+v", refs[2], want)
	}
}

func TestListNotebooks_Empty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))

	refs, err := client.ListNotebooks(context.Background(), "tester")
	if err != nil {
		t.Fatalf("ListNotebooks() error = %v, want nil for an empty account", err)
	}
	if len(refs) != 0 {
		t.Errorf("got %d refs, want 0", len(refs))
	}
}

func TestListNotebooks_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
		class  string
	}{
		{http.StatusUnauthorized, domain.IsAuth, "auth"},
		{http.StatusForbidden, domain.IsAuth, "auth"},
		{http.StatusNotFound, domain.IsNotFound, "not found"},
		{http.StatusTooManyRequests, domain.IsTransient, "transient"},
		{http.StatusInternalServerError, domain.IsTransient, "transient"},
		{http.StatusServiceUnavailable, domain.IsTransient, "transient"},
		{http.StatusBadRequest, domain.IsPermanent, "permanent"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			_, err := client.ListNotebooks(context.Background(), "tester")
			if err == nil {
				t.Fatalf("ListNotebooks() succeeded on status %d", tt.status)
			}
			if !tt.check(err) {
				t.Errorf("status %d classified as %v, want %s", tt.status, err, tt.class)
			}
		})
	}
}

func TestFetchBundle(t *testing.T) {
	notebook := `{"cells":[{"cell_type":"code","outputs":[{"text":"42"}]}]}`
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/kernels/pull" {
			t.Errorf("path = %q, want /kernels/pull", r.URL.Path)
		}
		if got := r.URL.Query().Get("userName"); got != "tester" {
			t.Errorf("userName param = %q, want tester", got)
		}
		if got := r.URL.Query().Get("kernelSlug"); got != "titanic-eda" {
			t.Errorf("kernelSlug param = %q, want titanic-eda", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"metadata": map[string]any{"id": "tester/titanic-eda", "language": "python"},
			"blob":     map[string]any{"kernelType": "notebook", "slug": "titanic-eda", "source": notebook},
		})
	}))

	dir := t.TempDir()
	ref := domain.NotebookRef{Owner: "tester", Slug: "titanic-eda", Title: "Titanic EDA"}

	bundle, err := client.FetchBundle(context.Background(), ref, dir)
	if err != nil {
		t.Fatalf("FetchBundle() error = %v", err)
	}

	data, err := os.ReadFile(bundle.NotebookPath)
	if err != nil {
		t.Fatalf("reading staged notebook: %v", err)
	}
	if string(data) != notebook {
		t.Errorf("staged notebook = %q, want %q", data, notebook)
	}

	if bundle.MetadataPath == "" {
		t.Fatal("MetadataPath empty, want staged kernel-metadata.json")
	}
	meta, err := os.ReadFile(bundle.MetadataPath)
	if err != nil {
		t.Fatalf("reading staged metadata: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(meta, &decoded); err != nil {
		t.Fatalf("staged metadata is not JSON: %v", err)
	}
	if decoded["id"] != "tester/titanic-eda" {
		t.Errorf("metadata id = %v, want tester/titanic-eda", decoded["id"])
	}

	if bundle.Bytes <= int64(len(notebook)) {
		t.Errorf("Bytes = %d, want more than the notebook alone (%d)", bundle.Bytes, len(notebook))
	}
}

func TestFetchBundle_Deleted(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	ref := domain.NotebookRef{Owner: "tester", Slug: "gone"}
	_, err := client.FetchBundle(context.Background(), ref, t.TempDir())
	if err == nil {
		t.Fatal("FetchBundle() succeeded for a deleted notebook")
	}
	if !domain.IsPermanent(err) {
		t.Errorf("deleted notebook classified as %v, want permanent", err)
	}
	if domain.IsTransient(err) {
		t.Error("deleted notebook classified transient, would be retried pointlessly")
	}
}

func TestFetchBundle_NoMetadata(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"metadata":null,"blob":{"slug":"plain","source":"{}"}}`)
	}))

	ref := domain.NotebookRef{Owner: "tester", Slug: "plain"}
	bundle, err := client.FetchBundle(context.Background(), ref, t.TempDir())
	if err != nil {
		t.Fatalf("FetchBundle() error = %v", err)
	}
	if bundle.MetadataPath != "" {
		t.Errorf("MetadataPath = %q, want empty when the API returns none", bundle.MetadataPath)
	}
}

func TestFetchBundle_EmptySource(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"blob":{"slug":"empty","source":""}}`)
	}))

	ref := domain.NotebookRef{Owner: "tester", Slug: "empty"}
	_, err := client.FetchBundle(context.Background(), ref, t.TempDir())
	if err == nil {
		t.Fatal("FetchBundle() succeeded for a notebook with no source")
	}
	if !domain.IsPermanent(err) {
		t.Errorf("empty source classified as %v, want permanent", err)
	}
}
