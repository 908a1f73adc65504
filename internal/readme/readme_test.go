package readme

import (
	"strings"
	"testing"

	"github.com/pintyy/kaggle-sync/internal/domain"
)

func TestRender(t *testing.T) {
	ref := domain.NotebookRef{
		Owner: "ayse",
		Slug:  "veri-analizi-calismasi",
		Title: "Veri Analizi Çalışması",
	}

	got, err := Render(ref)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	wants := []string{
		"# Veri Analizi Çalışması",
		"Kaggle notebook: Veri Analizi Çalışması",
		"## Kaynak / Source",
		"**Kaggle URL:** https://www.kaggle.com/code/ayse/veri-analizi-calismasi",
		"This notebook was automatically synced from Kaggle.",
		"Bu notebook Kaggle'dan otomatik olarak senkronize edilmiştir.",
	}
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("Render() missing %q\nfull output:\n%s", want, got)
		}
	}
}

func TestRender_Deterministic(t *testing.T) {
	ref := domain.NotebookRef{Owner: "bob", Slug: "mnist", Title: "MNIST"}

	first, err := Render(ref)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	second, err := Render(ref)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if first != second {
		t.Error("Render() output differs between calls for the same ref")
	}
}
