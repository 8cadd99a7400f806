package scan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/vmunix/omm/internal/events"
	"github.com/vmunix/omm/internal/media"
	"github.com/vmunix/omm/internal/probe"
	"github.com/vmunix/omm/internal/scan/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newScanner(t *testing.T, prober Prober, bus *events.Bus, opts Options) *Scanner {
	t.Helper()
	s, err := New(prober, bus, testLogger(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// writeMedia creates a small stand-in media file under root.
func writeMedia(t *testing.T, root, rel string, size int) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func compliantInfo() *probe.Info {
	return &probe.Info{
		Codec:         "hevc",
		Width:         1920,
		Height:        1080,
		BitDepth:      10,
		FPS:           23.976,
		DurationS:     1200,
		BitrateKbps:   3000,
		AudioCodec:    "aac",
		AudioChannels: 6,
		AudioLangs:    []string{"eng"},
		SubtitleLangs: []string{"eng"},
	}
}

func TestScan_ClassifiesLibrary(t *testing.T) {
	root := t.TempDir()
	writeMedia(t, root, "Movies/The Matrix (1999)/The.Matrix.1999.1080p.mkv", 64)
	writeMedia(t, root, "TV/Breaking Bad/Season 1/Breaking.Bad.S01E01.mkv", 64)
	writeMedia(t, root, "TV/Breaking Bad/Season 1/Breaking.Bad.S01E02.mkv", 64)

	ctrl := gomock.NewController(t)
	prober := mocks.NewMockProber(ctrl)
	prober.EXPECT().Probe(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(compliantInfo(), nil).Times(3)

	s := newScanner(t, prober, nil, Options{Workers: 2, MinFileSize: 1})
	records, err := s.Scan(context.Background(), root, media.DefaultStandards())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	movie := records[0]
	if movie.Category != media.CategoryMovie {
		t.Errorf("movie category = %s, want movie", movie.Category)
	}
	if movie.Status != media.StatusCompliant {
		t.Errorf("movie status = %s, want compliant: %v", movie.Status, movie.Issues)
	}
	if movie.Tier != media.Tier1080p {
		t.Errorf("movie tier = %s, want 1080p", movie.Tier)
	}

	ep := records[1]
	if ep.Category != media.CategoryShow {
		t.Fatalf("episode category = %s, want show", ep.Category)
	}
	if ep.ShowName != "Breaking Bad" {
		t.Errorf("show name = %q, want Breaking Bad", ep.ShowName)
	}
	if ep.Season == nil || *ep.Season != 1 {
		t.Errorf("season = %v, want 1", ep.Season)
	}
	if ep.Episode == nil || *ep.Episode != 1 {
		t.Errorf("episode = %v, want 1", ep.Episode)
	}
	if records[2].Episode == nil || *records[2].Episode != 2 {
		t.Errorf("second episode = %v, want 2", records[2].Episode)
	}
}

func TestScan_ProbeFailureKeepsScanning(t *testing.T) {
	root := t.TempDir()
	writeMedia(t, root, "Movies/Bad Movie (2001)/Bad.Movie.2001.mkv", 64)
	writeMedia(t, root, "Movies/Good Movie (2002)/Good.Movie.2002.mkv", 64)

	ctrl := gomock.NewController(t)
	prober := mocks.NewMockProber(ctrl)
	prober.EXPECT().Probe(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, path string, _ int64) (*probe.Info, error) {
			if strings.Contains(path, "Bad.Movie") {
				return nil, errors.New("ffprobe: Invalid data found when processing input")
			}
			return compliantInfo(), nil
		}).Times(2)

	s := newScanner(t, prober, nil, Options{Workers: 2, MinFileSize: 1})
	records, err := s.Scan(context.Background(), root, media.DefaultStandards())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	broken := records[0]
	if broken.Status != media.StatusError {
		t.Fatalf("status = %s, want error", broken.Status)
	}
	if !strings.Contains(broken.ErrorMessage, "Invalid data") {
		t.Errorf("error message = %q", broken.ErrorMessage)
	}
	if broken.Category != media.CategoryMovie {
		t.Errorf("category = %s; path detection should survive a failed probe", broken.Category)
	}
	if records[1].Status != media.StatusCompliant {
		t.Errorf("good record status = %s, want compliant", records[1].Status)
	}
}

func TestScan_FiltersNonMediaAndSmallFiles(t *testing.T) {
	root := t.TempDir()
	kept := writeMedia(t, root, "Movies/Heat (1995)/Heat.1995.mkv", 200)
	writeMedia(t, root, "Movies/Heat (1995)/sample.mkv", 10)
	writeMedia(t, root, "Movies/Heat (1995)/notes.txt", 200)
	writeMedia(t, root, "encoded/Heat.1995.encoded.mkv", 200)
	writeMedia(t, root, ".stversions/Heat.1995.mkv", 200)

	ctrl := gomock.NewController(t)
	prober := mocks.NewMockProber(ctrl)
	prober.EXPECT().Probe(gomock.Any(), kept, int64(200)).Return(compliantInfo(), nil)

	s := newScanner(t, prober, nil, Options{Workers: 2, MinFileSize: 100})
	records, err := s.Scan(context.Background(), root, media.DefaultStandards())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Path != kept {
		t.Errorf("scanned %s, want %s", records[0].Path, kept)
	}
}

func TestScan_AssociatesExtrasWithShow(t *testing.T) {
	root := t.TempDir()
	writeMedia(t, root, "TV/Breaking Bad/Season 1/Breaking.Bad.S01E01.mkv", 64)
	writeMedia(t, root, "TV/Breaking.Bad.US/Extras/Deleted.Scenes.mkv", 64)

	ctrl := gomock.NewController(t)
	prober := mocks.NewMockProber(ctrl)
	prober.EXPECT().Probe(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(compliantInfo(), nil).Times(2)

	s := newScanner(t, prober, nil, Options{Workers: 1, MinFileSize: 1})
	records, err := s.Scan(context.Background(), root, media.DefaultStandards())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	extra := records[1]
	if extra.Category != media.CategoryExtra {
		t.Fatalf("category = %s, want extra", extra.Category)
	}
	// "Breaking Bad US" from the extras folder should snap to the show
	// name the episodes established.
	if extra.ShowName != "Breaking Bad" {
		t.Errorf("extra show name = %q, want Breaking Bad", extra.ShowName)
	}
	if extra.Season != nil {
		t.Errorf("extra season = %v, want nil", extra.Season)
	}
}

func TestScan_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeMedia(t, root, "Movies/Heat (1995)/Heat.1995.mkv", 64)

	ctrl := gomock.NewController(t)
	prober := mocks.NewMockProber(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newScanner(t, prober, nil, Options{Workers: 1, MinFileSize: 1})
	_, err := s.Scan(ctx, root, media.DefaultStandards())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestScan_PublishesLifecycleEvents(t *testing.T) {
	root := t.TempDir()
	writeMedia(t, root, "Movies/Heat (1995)/Heat.1995.mkv", 64)

	ctrl := gomock.NewController(t)
	prober := mocks.NewMockProber(ctrl)
	prober.EXPECT().Probe(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(compliantInfo(), nil)

	bus := events.NewBus(nil, testLogger())
	defer bus.Close()
	ch := bus.SubscribeAll(16)

	s := newScanner(t, prober, bus, Options{Workers: 1, MinFileSize: 1})
	if _, err := s.Scan(context.Background(), root, media.DefaultStandards()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	start := recvEvent(t, ch)
	msg, ok := start.(*events.LogMessage)
	if !ok {
		t.Fatalf("event type %T, want *events.LogMessage", start)
	}
	if msg.EntityType() != events.EntityScan || msg.EntityID() != root {
		t.Errorf("entity = %s/%s, want scan/%s", msg.EntityType(), msg.EntityID(), root)
	}
	if !strings.Contains(msg.Message, "Scanning 1 media files") {
		t.Errorf("start message = %q", msg.Message)
	}

	done := recvEvent(t, ch)
	if m, ok := done.(*events.LogMessage); !ok || !strings.Contains(m.Message, "Scan complete") {
		t.Errorf("completion event = %#v", done)
	}
}

func recvEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}
