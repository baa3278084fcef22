// Package integration exercises the recommendation path over on-disk SQLite
// datasets resolved through the loader, the way the server serves a request.
package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wikimedia/research-mwaddlink/internal/classifier"
	"github.com/wikimedia/research-mwaddlink/internal/dataset"
	"github.com/wikimedia/research-mwaddlink/internal/linker"
)

const testWikiID = "testwiki"

// writeDatasets lays out a data directory for one wiki: the four dataset
// files, their checksum sidecars, and a model file.
func writeDatasets(t *testing.T) string {
	t.Helper()
	dataDir := t.TempDir()
	wikiDir := filepath.Join(dataDir, testWikiID)
	if err := os.MkdirAll(wikiDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(wikiDir, testWikiID+".linkmodel.bin"), []byte("model"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(wikiDir, testWikiID+".linkmodel.bin.checksum"), []byte("sum-model\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	write := func(name string, entries map[string]interface{}) {
		path := filepath.Join(wikiDir, testWikiID+"."+name+".sqlite")
		store, err := dataset.CreateSQLiteStore(path, name)
		if err != nil {
			t.Fatal(err)
		}
		defer store.Close()
		for k, v := range entries {
			if err := store.Put(ctx, k, v); err != nil {
				t.Fatal(err)
			}
		}
		if err := os.WriteFile(path+".checksum", []byte("sum-"+name+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(dataset.DatasetAnchors, map[string]interface{}{
		"glacier":   dataset.CandidateMap{"Glacier": 40},
		"ice sheet": dataset.CandidateMap{"Ice sheet": 25},
	})
	write(dataset.DatasetPageIDs, map[string]interface{}{
		"Glacier":   int64(11),
		"Ice sheet": int64(12),
	})
	write(dataset.DatasetRedirects, nil)
	write(dataset.DatasetEmbeddings, map[string]interface{}{
		"Glacier": []float32{0.1, 0.2, 0.3},
	})
	return dataDir
}

func TestIntegration_RecommendOverSQLite(t *testing.T) {
	dataDir := writeDatasets(t)
	loader := dataset.NewLoader(dataset.BackendSQLite, dataDir, testWikiID, nil, nil)
	defer loader.Close()

	if _, err := loader.ModelPath(); err != nil {
		t.Fatalf("model path: %v", err)
	}

	stores := make(map[string]dataset.Store)
	for _, name := range []string{
		dataset.DatasetAnchors, dataset.DatasetPageIDs,
		dataset.DatasetRedirects, dataset.DatasetEmbeddings,
	} {
		store, err := loader.Open(name)
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		stores[name] = store
	}

	lk := linker.New(
		stores[dataset.DatasetAnchors],
		stores[dataset.DatasetPageIDs],
		stores[dataset.DatasetRedirects],
		stores[dataset.DatasetEmbeddings],
		classifier.NewMockClassifier(0.9), nil)

	ctx := context.Background()
	resp, err := lk.Run(ctx, &linker.Request{
		Wikitext:     "A glacier feeds the valley. The ice sheet above it is retreating.",
		PageTitle:    "Valley",
		LanguageCode: "en",
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(resp.Links) != 2 {
		t.Fatalf("links = %+v", resp.Links)
	}
	got := map[string]bool{}
	for _, l := range resp.Links {
		got[l.LinkTarget] = true
	}
	if !got["Glacier"] || !got["Ice sheet"] {
		t.Errorf("targets = %v", got)
	}

	counts := loader.QueryCounts()
	if counts[dataset.DatasetAnchors] == 0 {
		t.Errorf("no anchor queries recorded: %v", counts)
	}

	sums := loader.Checksums(ctx)
	for _, name := range []string{
		dataset.DatasetAnchors, dataset.DatasetPageIDs,
		dataset.DatasetRedirects, dataset.DatasetEmbeddings, dataset.DatasetModel,
	} {
		if sums[name] != "sum-"+name {
			t.Errorf("checksum %s = %q", name, sums[name])
		}
	}
}

func TestIntegration_ModelUnavailableListsValidWikis(t *testing.T) {
	dataDir := writeDatasets(t)
	loader := dataset.NewLoader(dataset.BackendSQLite, dataDir, "otherwiki", nil, nil)
	defer loader.Close()

	_, err := loader.ModelPath()
	var unavailable *dataset.ErrModelUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v", err)
	}
	if len(unavailable.Valid) != 1 || unavailable.Valid[0] != testWikiID {
		t.Errorf("valid wikis = %v", unavailable.Valid)
	}
}
