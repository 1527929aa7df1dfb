package catalog

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"dam/internal/filesystem"
	"dam/internal/identity"
	"dam/internal/launcher"
	"dam/internal/media"

	"github.com/gofrs/flock"
)

var march5 = time.Date(2024, time.March, 5, 12, 0, 0, 0, time.Local)

// fixedInspector reports every file as created at created.
func fixedInspector(created time.Time) identity.Inspector {
	return identity.InspectorFunc(func(path string) (identity.Info, error) {
		return identity.Info{Name: filepath.Base(path), Created: created}, nil
	})
}

type fakeThumbnailer struct {
	calls []string
	data  []byte
	err   error
}

func (f *fakeThumbnailer) Generate(path string) ([]byte, error) {
	f.calls = append(f.calls, path)
	return f.data, f.err
}

type fakeLauncher struct {
	launched []string
	err      error
}

func (f *fakeLauncher) Launch(path string) error {
	f.launched = append(f.launched, path)
	return f.err
}

func testOptions(thumbs *fakeThumbnailer, extra ...Option) []Option {
	opts := []Option{
		WithInspector(fixedInspector(march5)),
		WithThumbnailer(thumbs),
		WithLauncher(&fakeLauncher{}),
		WithRetryConfig(filesystem.NoRetry()),
	}
	return append(opts, extra...)
}

// setupCatalog initializes a catalog in a fresh directory.
func setupCatalog(t *testing.T, opts ...Option) (*Catalog, string) {
	t.Helper()
	root := t.TempDir()
	c, err := Init(context.Background(), root, opts...)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, c.Root()
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("content of "+filepath.Base(path)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestInitCreatesSingleMarker(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	c, err := Init(ctx, root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	entries, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("new catalog has %d entries, want 0", len(entries))
	}
	info, err := c.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	if names := dirNames(t, root); len(names) != 1 || names[0] != MarkerName {
		t.Errorf("root contains %v, want only %s", names, MarkerName)
	}

	_, err = Init(ctx, root)
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second Init error = %v, want ErrAlreadyInitialized", err)
	}

	again, err := Load(ctx, root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer again.Close()
	info2, err := again.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info2.CatalogID != info.CatalogID || info2.Entries != 0 {
		t.Errorf("second Init altered the store: %+v, was %+v", info2, info)
	}
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	state, err := Check(ctx, root)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if state.Status != StatusEmpty || state.Catalog != nil {
		t.Errorf("Check(empty) = %+v, want StatusEmpty", state)
	}
	if exists(filepath.Join(root, MarkerName)) {
		t.Fatal("Check created the marker")
	}

	c, err := Init(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Close()

	state, err = Check(ctx, root)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if state.Status != StatusInitialized || state.Catalog == nil {
		t.Fatalf("Check(initialized) = %+v, want StatusInitialized", state)
	}
	_ = state.Catalog.Close()

	if state.Status.String() != "initialized" || StatusEmpty.String() != "empty" {
		t.Error("unexpected Status strings")
	}
}

func TestRootWithURISyntax(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("'?' is not valid in Windows file names")
	}
	ctx := context.Background()
	for _, name := range []string{"trip?2024", "notes#1", "100%"} {
		t.Run(name, func(t *testing.T) {
			root := filepath.Join(t.TempDir(), name)
			if err := os.Mkdir(root, 0o755); err != nil {
				t.Fatal(err)
			}

			c, err := Init(ctx, root, testOptions(&fakeThumbnailer{})...)
			if err != nil {
				t.Fatalf("Init: %v", err)
			}
			_ = c.Close()

			if names := dirNames(t, root); len(names) != 1 || names[0] != MarkerName {
				t.Errorf("root contents = %v, want only %s", names, MarkerName)
			}

			state, err := Check(ctx, root)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if state.Status != StatusInitialized || state.Catalog == nil {
				t.Fatalf("Check = %+v, want StatusInitialized", state)
			}
			_ = state.Catalog.Close()
		})
	}
}

func TestLoadNotInitialized(t *testing.T) {
	_, err := Load(context.Background(), t.TempDir())
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Load(empty) error = %v, want ErrNotInitialized", err)
	}
}

func TestLoadCorruptMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, MarkerName), []byte("not a database at all, just text"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(context.Background(), root)
	if !errors.Is(err, ErrStore) {
		t.Errorf("Load(corrupt) error = %v, want ErrStore", err)
	}
}

func TestRootMustBeDirectory(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, file)

	tests := []struct {
		name string
		root string
	}{
		{"missing", filepath.Join(t.TempDir(), "missing")},
		{"regular file", file},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Init(ctx, tt.root); !errors.Is(err, ErrIO) {
				t.Errorf("Init error = %v, want ErrIO", err)
			}
			if _, err := Check(ctx, tt.root); !errors.Is(err, ErrIO) {
				t.Errorf("Check error = %v, want ErrIO", err)
			}
		})
	}
}

func TestScanRelocatesByCreationDate(t *testing.T) {
	ctx := context.Background()
	thumbs := &fakeThumbnailer{data: []byte{0xff, 0xd8}}
	c, root := setupCatalog(t, testOptions(thumbs)...)
	writeFile(t, filepath.Join(root, "photo.jpg"))

	result, err := c.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Files != 1 || result.Moved != 1 || result.Thumbnails != 1 {
		t.Errorf("ScanResult = %+v", result)
	}

	want := filepath.Join(root, "2024", "Mar_05", "photo.jpg")
	if !exists(want) {
		t.Errorf("%s does not exist", want)
	}
	if exists(filepath.Join(root, "photo.jpg")) {
		t.Error("original file still present")
	}

	entries, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Path != want || e.Name != "photo.jpg" || !e.Created.Equal(march5) || !e.HasThumbnail {
		t.Errorf("entry = %+v", e)
	}

	wantID, err := identity.Compute("2024/Mar_05/photo.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != wantID {
		t.Errorf("ID = %v, want %v", e.ID, wantID)
	}
}

func TestScanTwiceKeepsSingleRecord(t *testing.T) {
	ctx := context.Background()
	thumbs := &fakeThumbnailer{data: []byte{1, 2, 3}}
	c, root := setupCatalog(t, testOptions(thumbs)...)
	writeFile(t, filepath.Join(root, "photo.jpg"))

	if _, err := c.Scan(ctx); err != nil {
		t.Fatal(err)
	}
	first, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}

	result, err := c.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if result.Files != 1 || result.Moved != 0 {
		t.Errorf("second ScanResult = %+v, want 1 file, 0 moved", result)
	}

	second, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 1 {
		t.Fatalf("List() returned %d entries after rescan, want 1", len(second))
	}
	a, b := first[0], second[0]
	if a.ID != b.ID || a.Name != b.Name || a.Path != b.Path || !a.Created.Equal(b.Created) {
		t.Errorf("entry changed across scans: %+v -> %+v", a, b)
	}
	if len(thumbs.calls) != 1 {
		t.Errorf("thumbnailer called %d times, want 1", len(thumbs.calls))
	}
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	c, root := setupCatalog(t, testOptions(&fakeThumbnailer{})...)
	writeFile(t, filepath.Join(root, "photo.jpg"))
	if _, err := c.Scan(ctx); err != nil {
		t.Fatal(err)
	}

	e, err := c.Find(ctx, "oto")
	if err != nil {
		t.Fatalf("Find(oto): %v", err)
	}
	if e.Name != "photo.jpg" {
		t.Errorf("Find(oto) = %+v", e)
	}

	if _, err := c.Find(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(zzz) error = %v, want ErrNotFound", err)
	}
}

func TestScanAbortsOnNonTextPath(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("filesystem requires valid UTF-8 names")
	}
	ctx := context.Background()
	c, root := setupCatalog(t, testOptions(&fakeThumbnailer{})...)

	writeFile(t, filepath.Join(root, "a.jpg"))
	bad := filepath.Join(root, "bad\xff.jpg")
	if err := os.WriteFile(bad, []byte("x"), 0o644); err != nil {
		t.Skipf("cannot create non-UTF-8 file name: %v", err)
	}

	_, err := c.Scan(ctx)
	if !errors.Is(err, ErrIdentity) {
		t.Fatalf("Scan error = %v, want ErrIdentity", err)
	}

	if !exists(bad) {
		t.Error("file with non-text name was moved")
	}
	entries, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name != "a.jpg" {
			t.Errorf("unexpected record %+v", e)
		}
	}
}

func TestScanDegradesOnThumbnailFailure(t *testing.T) {
	ctx := context.Background()
	thumbs := &fakeThumbnailer{err: media.ErrDecode}
	c, root := setupCatalog(t, testOptions(thumbs)...)
	writeFile(t, filepath.Join(root, "broken.jpg"))

	result, err := c.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Files != 1 || result.ThumbnailFailures != 1 || result.Thumbnails != 0 {
		t.Errorf("ScanResult = %+v", result)
	}

	e, err := c.Find(ctx, "broken")
	if err != nil {
		t.Fatal(err)
	}
	if e.HasThumbnail {
		t.Error("entry has a thumbnail after decode failure")
	}
}

func TestScanThumbnailSelection(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		enabled   bool
		wantCalls int
	}{
		{name: "image", file: "a.png", enabled: true, wantCalls: 1},
		{name: "video", file: "a.mp4", enabled: true, wantCalls: 1},
		{name: "document", file: "a.pdf", enabled: true, wantCalls: 0},
		{name: "disabled", file: "a.png", enabled: false, wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thumbs := &fakeThumbnailer{data: []byte{1}}
			c, root := setupCatalog(t, testOptions(thumbs, WithThumbnails(tt.enabled))...)
			writeFile(t, filepath.Join(root, tt.file))

			if _, err := c.Scan(context.Background()); err != nil {
				t.Fatal(err)
			}
			if len(thumbs.calls) != tt.wantCalls {
				t.Errorf("thumbnailer called %d times, want %d", len(thumbs.calls), tt.wantCalls)
			}
		})
	}
}

func TestScanStoresDecodableThumbnail(t *testing.T) {
	ctx := context.Background()
	c, root := setupCatalog(t,
		WithInspector(fixedInspector(march5)),
		WithThumbnailer(media.NewThumbnailGenerator(media.DefaultOptions())),
	)

	img := image.NewRGBA(image.Rect(0, 0, 1200, 800))
	for y := 0; y < 800; y++ {
		for x := 0; x < 1200; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sunset.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Scan(ctx); err != nil {
		t.Fatal(err)
	}

	_, data, err := c.Thumbnail(ctx, "sunset")
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stored thumbnail does not decode: %v", err)
	}
	if cfg.Width > 600 || cfg.Height > 400 {
		t.Errorf("thumbnail is %dx%d, want within 600x400", cfg.Width, cfg.Height)
	}
}

func TestThumbnailMissing(t *testing.T) {
	ctx := context.Background()
	c, root := setupCatalog(t, testOptions(&fakeThumbnailer{})...)
	writeFile(t, filepath.Join(root, "notes.txt"))
	if _, err := c.Scan(ctx); err != nil {
		t.Fatal(err)
	}

	if _, _, err := c.Thumbnail(ctx, "notes"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Thumbnail(notes) error = %v, want ErrNotFound", err)
	}
}

func TestScanPrunesEmptySourceDirectory(t *testing.T) {
	ctx := context.Background()
	c, root := setupCatalog(t, testOptions(&fakeThumbnailer{})...)
	writeFile(t, filepath.Join(root, "inbox", "a.jpg"))
	writeFile(t, filepath.Join(root, "keep", "b.jpg"))
	writeFile(t, filepath.Join(root, "keep", ".keep"))

	if _, err := c.Scan(ctx); err != nil {
		t.Fatal(err)
	}

	if exists(filepath.Join(root, "inbox")) {
		t.Error("empty source directory was not removed")
	}
	if !exists(filepath.Join(root, "keep", ".keep")) {
		t.Error("non-empty source directory was removed")
	}
	if !exists(filepath.Join(root, MarkerName)) {
		t.Error("marker removed")
	}
}

func TestScanLeavesHiddenEntries(t *testing.T) {
	ctx := context.Background()
	c, root := setupCatalog(t, testOptions(&fakeThumbnailer{})...)
	writeFile(t, filepath.Join(root, ".dam.toml"))
	writeFile(t, filepath.Join(root, ".cache", "x.jpg"))

	result, err := c.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if result.Files != 0 {
		t.Errorf("Files = %d, want 0", result.Files)
	}
	if !exists(filepath.Join(root, ".cache", "x.jpg")) {
		t.Error("hidden file moved")
	}
}

func TestScanRefusesToOverwrite(t *testing.T) {
	ctx := context.Background()
	c, root := setupCatalog(t, testOptions(&fakeThumbnailer{})...)
	writeFile(t, filepath.Join(root, "a", "photo.jpg"))
	writeFile(t, filepath.Join(root, "b", "photo.jpg"))

	_, err := c.Scan(ctx)
	if !errors.Is(err, ErrIO) || !errors.Is(err, os.ErrExist) {
		t.Fatalf("Scan error = %v, want ErrIO wrapping ErrExist", err)
	}
	if !exists(filepath.Join(root, "b", "photo.jpg")) {
		t.Error("conflicting file was moved")
	}
	data, err := os.ReadFile(filepath.Join(root, "2024", "Mar_05", "photo.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content of photo.jpg" {
		t.Errorf("destination content = %q", data)
	}
}

func TestScanBusy(t *testing.T) {
	c, root := setupCatalog(t, testOptions(&fakeThumbnailer{})...)

	lock := flock.New(filepath.Join(root, MarkerName))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock = %v, %v", locked, err)
	}
	defer lock.Unlock()

	if _, err := c.Scan(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("Scan error = %v, want ErrBusy", err)
	}
}

func TestScanCanceled(t *testing.T) {
	c, root := setupCatalog(t, testOptions(&fakeThumbnailer{})...)
	writeFile(t, filepath.Join(root, "a.jpg"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Scan(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Scan error = %v, want context.Canceled", err)
	}
	if !exists(filepath.Join(root, "a.jpg")) {
		t.Error("file moved by canceled scan")
	}
}

func TestScanListingFailure(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced")
	}
	c, root := setupCatalog(t, testOptions(&fakeThumbnailer{})...)
	writeFile(t, filepath.Join(root, "a.jpg"))
	locked := filepath.Join(root, "locked")
	if err := os.Mkdir(locked, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	if _, err := c.Scan(context.Background()); !errors.Is(err, ErrIO) {
		t.Fatalf("Scan error = %v, want ErrIO", err)
	}
	if !exists(filepath.Join(root, "a.jpg")) {
		t.Error("file moved although listing failed")
	}
}

func TestScanWithFileInspector(t *testing.T) {
	ctx := context.Background()
	c, root := setupCatalog(t,
		WithThumbnailer(&fakeThumbnailer{}),
		WithRetryConfig(filesystem.NoRetry()),
	)
	writeFile(t, filepath.Join(root, "doc.pdf"))

	if _, err := c.Scan(ctx); err != nil {
		t.Fatal(err)
	}
	e, err := c.Find(ctx, "doc")
	if err != nil {
		t.Fatal(err)
	}
	if want := CanonicalPath(root, e.Created, "doc.pdf"); e.Path != want {
		t.Errorf("Path = %s, want %s", e.Path, want)
	}
	if !exists(e.Path) {
		t.Errorf("%s does not exist", e.Path)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	l := &fakeLauncher{}
	c, root := setupCatalog(t, testOptions(&fakeThumbnailer{}, WithLauncher(l))...)
	writeFile(t, filepath.Join(root, "photo.jpg"))
	if _, err := c.Scan(ctx); err != nil {
		t.Fatal(err)
	}

	e, err := c.Open(ctx, "photo")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(l.launched) != 1 || l.launched[0] != e.Path {
		t.Errorf("launched %v, want [%s]", l.launched, e.Path)
	}

	if _, err := c.Open(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open(zzz) error = %v, want ErrNotFound", err)
	}
	if len(l.launched) != 1 {
		t.Error("launcher called for a missing entry")
	}
}

func TestOpenLaunchFailure(t *testing.T) {
	ctx := context.Background()
	l := &fakeLauncher{err: errors.New("no display")}
	c, root := setupCatalog(t, testOptions(&fakeThumbnailer{}, WithLauncher(l))...)
	writeFile(t, filepath.Join(root, "photo.jpg"))
	if _, err := c.Scan(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Open(ctx, "photo"); !errors.Is(err, ErrLaunch) {
		t.Fatalf("Open error = %v, want ErrLaunch", err)
	}
	// The catalog stays usable.
	if _, err := c.Find(ctx, "photo"); err != nil {
		t.Errorf("Find after launch failure: %v", err)
	}
}

func TestOpenWithSystemLauncher(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX true command")
	}
	ctx := context.Background()
	c, root := setupCatalog(t, testOptions(&fakeThumbnailer{}, WithLauncher(launcher.System{Opener: "true"}))...)
	writeFile(t, filepath.Join(root, "photo.jpg"))
	if _, err := c.Scan(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Open(ctx, "photo"); err != nil {
		t.Errorf("Open: %v", err)
	}
}

func TestInfo(t *testing.T) {
	ctx := context.Background()
	c, root := setupCatalog(t, testOptions(&fakeThumbnailer{})...)
	writeFile(t, filepath.Join(root, "a.jpg"))
	writeFile(t, filepath.Join(root, "b.mp4"))
	if _, err := c.Scan(ctx); err != nil {
		t.Fatal(err)
	}

	info, err := c.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.Root != root || info.Entries != 2 || info.CatalogID == "" || info.SizeBytes == 0 {
		t.Errorf("Info() = %+v", info)
	}
	if info.LastScanAt.IsZero() {
		t.Error("LastScanAt not recorded after scan")
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.Canceled, "canceled"},
		{ErrIdentity, "identity"},
		{ErrStore, "store"},
		{ErrIO, "io"},
		{ErrBusy, "io"},
	}
	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.want {
			t.Errorf("errorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
