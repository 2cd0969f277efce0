package syncer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"favsync/internal/config"
	"favsync/internal/history"
	"favsync/internal/logging"
	"favsync/internal/services"
	"favsync/internal/services/jellyfin"
	"favsync/internal/syncer"
	"favsync/internal/testsupport"
)

type catalogFixture struct {
	favorites []map[string]any
	children  map[string][]map[string]any
	images    map[string][]byte
}

func (f *catalogFixture) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Users/test-user/Items", func(w http.ResponseWriter, r *http.Request) {
		items := f.favorites
		if parent := r.URL.Query().Get("parentId"); parent != "" {
			items = f.children[parent]
		}
		if err := json.NewEncoder(w).Encode(map[string]any{"Items": items}); err != nil {
			t.Errorf("encode items: %v", err)
		}
	})
	mux.HandleFunc("/Items/", func(w http.ResponseWriter, r *http.Request) {
		id, isPrimary := strings.CutSuffix(strings.TrimPrefix(r.URL.Path, "/Items/"), "/Images/Primary")
		if !isPrimary {
			http.NotFound(w, r)
			return
		}
		image, ok := f.images[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(image)
	})
	return mux
}

func audioItem(id, title, album, albumID, path string, index int) map[string]any {
	return map[string]any{
		"Id":             id,
		"Name":           title,
		"Type":           "Audio",
		"Artists":        []string{"Artist"},
		"Album":          album,
		"AlbumId":        albumID,
		"ProductionYear": 2020,
		"IndexNumber":    index,
		"Path":           path,
	}
}

type writingRunner struct {
	mu    sync.Mutex
	calls int
}

func (w *writingRunner) Transcode(ctx context.Context, sourcePath, destPath string) error {
	w.mu.Lock()
	w.calls++
	w.mu.Unlock()
	return os.WriteFile(destPath, []byte("audio"), 0o644)
}

func newSyncer(t *testing.T, cfg *config.Config, runner *writingRunner, store *history.Store) *syncer.Syncer {
	t.Helper()
	testsupport.WithStubbedBinaries(t, map[string]string{"ffmpeg": ""})
	client := jellyfin.NewClient(cfg)
	return syncer.New(cfg, client, runner, store, nil, logging.NewNop())
}

func TestRunSyncsMissingTracksAndCovers(t *testing.T) {
	fixture := &catalogFixture{
		favorites: []map[string]any{
			audioItem("t1", "Opener", "Debut", "album-a", "/media/a/01.flac", 1),
			{"Id": "album-b", "Name": "Second", "Type": "MusicAlbum"},
		},
		children: map[string][]map[string]any{
			"album-b": {
				audioItem("t2", "Deep Cut", "Second", "album-b", "/media/b/07.flac", 7),
			},
		},
		images: map[string][]byte{
			"album-a": []byte("jpeg-a"),
			"album-b": []byte("jpeg-b"),
		},
	}
	server := httptest.NewServer(fixture.handler(t))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithJellyfin(server.URL), testsupport.WithHistoryDisabled())
	runner := &writingRunner{}
	s := newSyncer(t, cfg, runner, nil)

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Favorited != 2 || report.Transcoded != 2 || report.Deleted != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Covers != 2 {
		t.Fatalf("expected 2 covers, got %d", report.Covers)
	}
	if report.Failed() != 0 {
		t.Fatalf("unexpected failures in %+v", report)
	}

	want := []string{
		filepath.Join(cfg.Sync.Root, "Artist - Debut [2020]", "01 Opener.mp3"),
		filepath.Join(cfg.Sync.Root, "Artist - Debut [2020]", "cover.jpg"),
		filepath.Join(cfg.Sync.Root, "Artist - Second [2020]", "07 Deep Cut.mp3"),
		filepath.Join(cfg.Sync.Root, "Artist - Second [2020]", "cover.jpg"),
	}
	for _, path := range want {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s: %v", path, err)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	fixture := &catalogFixture{
		favorites: []map[string]any{
			audioItem("t1", "Opener", "Debut", "album-a", "/media/a/01.flac", 1),
		},
		images: map[string][]byte{"album-a": []byte("jpeg-a")},
	}
	server := httptest.NewServer(fixture.handler(t))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithJellyfin(server.URL), testsupport.WithHistoryDisabled())
	runner := &writingRunner{}
	s := newSyncer(t, cfg, runner, nil)

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Transcoded != 0 || report.Skipped != 1 || report.Deleted != 0 || report.Covers != 0 {
		t.Fatalf("second run should be a no-op, got %+v", report)
	}
	if runner.calls != 1 {
		t.Fatalf("expected a single conversion across both runs, got %d", runner.calls)
	}
}

func TestRunDeletesStaleFiles(t *testing.T) {
	fixture := &catalogFixture{
		favorites: []map[string]any{
			audioItem("t1", "Opener", "Debut", "album-a", "/media/a/01.flac", 1),
		},
	}
	server := httptest.NewServer(fixture.handler(t))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithJellyfin(server.URL), testsupport.WithHistoryDisabled())
	staleDir := filepath.Join(cfg.Sync.Root, "Unloved - Album [1999]")
	stale := filepath.Join(staleDir, "01 Unloved.mp3")
	testsupport.WriteFile(t, stale, "old")

	runner := &writingRunner{}
	s := newSyncer(t, cfg, runner, nil)
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Deleted != 1 {
		t.Fatalf("expected one deletion, got %+v", report)
	}
	if _, err := os.Stat(staleDir); !os.IsNotExist(err) {
		t.Fatalf("stale album directory should be pruned, stat: %v", err)
	}
}

func TestRunAbortsWhenCatalogUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithJellyfin(server.URL), testsupport.WithHistoryDisabled())
	runner := &writingRunner{}
	s := newSyncer(t, cfg, runner, nil)

	_, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected fatal error")
	}
	if !services.IsFatal(err) {
		t.Fatalf("catalog outage must be fatal, got %v", err)
	}
	if runner.calls != 0 {
		t.Fatalf("no conversion may run after a fatal resolve, got %d", runner.calls)
	}
	entries, readErr := os.ReadDir(cfg.Sync.Root)
	if readErr == nil && len(entries) != 0 {
		t.Fatalf("no filesystem mutation may happen after a fatal resolve, found %v", entries)
	}
}

func TestRunFailsWhileAnotherInstanceHoldsTheLock(t *testing.T) {
	fixture := &catalogFixture{
		favorites: []map[string]any{
			audioItem("t1", "Opener", "Debut", "album-a", "/media/a/01.flac", 1),
		},
	}
	server := httptest.NewServer(fixture.handler(t))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithJellyfin(server.URL), testsupport.WithHistoryDisabled())
	if err := os.MkdirAll(cfg.Sync.Root, 0o755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}
	held := flock.New(cfg.Sync.Root + ".lock")
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("seed lock: locked=%v err=%v", locked, err)
	}
	defer held.Unlock()

	runner := &writingRunner{}
	s := newSyncer(t, cfg, runner, nil)
	_, err = s.Run(context.Background())
	if err == nil {
		t.Fatal("expected lock contention error")
	}
	if !services.IsFatal(err) {
		t.Fatalf("lock contention must be fatal, got %v", err)
	}
	if runner.calls != 0 {
		t.Fatalf("no conversion may run under contention, got %d", runner.calls)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	fixture := &catalogFixture{
		favorites: []map[string]any{
			audioItem("t1", "Opener", "Debut", "album-a", "/media/a/01.flac", 1),
		},
	}
	server := httptest.NewServer(fixture.handler(t))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithJellyfin(server.URL))
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()

	runner := &writingRunner{}
	s := newSyncer(t, cfg, runner, store)
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.RunID == "" {
		t.Fatal("expected recorded run ID")
	}

	records, err := store.ListRecent(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 1 || records[0].ID != report.RunID {
		t.Fatalf("unexpected history %+v", records)
	}
	if records[0].Status != history.StatusCompleted || records[0].Transcoded != 1 {
		t.Fatalf("unexpected record %+v", records[0])
	}
}
