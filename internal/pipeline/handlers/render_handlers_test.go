package handlers

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clipforge/pipeline/internal/captions"
	"github.com/clipforge/pipeline/internal/config"
	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/internal/pipeline"
	"github.com/clipforge/pipeline/internal/render"
	"github.com/google/uuid"
)

// fakeStorage keeps uploaded keys in memory and materializes downloads as
// small local files.
type fakeStorage struct {
	mu        sync.Mutex
	downloads []string
	uploads   map[string]string
	presigned []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string]string)}
}

func (f *fakeStorage) Upload(ctx context.Context, key, mimeType string, size int64, body io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[key] = mimeType
	return nil
}

func (f *fakeStorage) UploadFile(ctx context.Context, key, mimeType, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[key] = path
	return nil
}

func (f *fakeStorage) Download(ctx context.Context, key, destPath string) error {
	f.mu.Lock()
	f.downloads = append(f.downloads, key)
	f.mu.Unlock()
	return os.WriteFile(destPath, []byte("video"), 0o644)
}

func (f *fakeStorage) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeStorage) Exists(ctx context.Context, key string) (bool, error) { return true, nil }
func (f *fakeStorage) Remove(ctx context.Context, key string) error         { return nil }

func (f *fakeStorage) PresignUpload(ctx context.Context, key, mimeType string, size int64, expires time.Duration) (string, error) {
	return "https://storage.test/upload/" + key, nil
}

func (f *fakeStorage) PresignDownload(ctx context.Context, key string, expires time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presigned = append(f.presigned, key)
	return "https://storage.test/" + key, nil
}

// fakeRunner records every ffmpeg-shaped call and writes placeholder output
// files so the handlers can stat them.
type fakeRunner struct {
	info       *render.VideoInfo
	cuts       int
	concats    int
	crossfades int
	reframes   []*render.FramePlan
	watermarks []string
	thumbnails int
}

func (f *fakeRunner) TempDir(prefix string) (string, func(), error) {
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return "", nil, err
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}

func (f *fakeRunner) Probe(ctx context.Context, path string) (*render.VideoInfo, error) {
	info := *f.info
	return &info, nil
}

func (f *fakeRunner) CutSegment(ctx context.Context, in, out string, start, duration float64) error {
	f.cuts++
	return os.WriteFile(out, []byte("cut"), 0o644)
}

func (f *fakeRunner) Concat(ctx context.Context, parts []string, out string) error {
	f.concats++
	return os.WriteFile(out, []byte("concat"), 0o644)
}

func (f *fakeRunner) CrossfadeConcat(ctx context.Context, parts []string, durations []float64, fade float64, out string) error {
	f.crossfades++
	return os.WriteFile(out, []byte("crossfade"), 0o644)
}

func (f *fakeRunner) Reframe(ctx context.Context, in, out string, plan *render.FramePlan) error {
	f.reframes = append(f.reframes, plan)
	return os.WriteFile(out, []byte("reframed"), 0o644)
}

func (f *fakeRunner) Watermark(ctx context.Context, in, out, text string) error {
	f.watermarks = append(f.watermarks, text)
	return os.WriteFile(out, []byte("watermarked"), 0o644)
}

func (f *fakeRunner) Thumbnail(ctx context.Context, in, out string, at float64) error {
	f.thumbnails++
	return os.WriteFile(out, []byte("thumb"), 0o644)
}

type fakeCaptionRenderer struct {
	calls    int
	degraded bool
}

func (f *fakeCaptionRenderer) Render(ctx context.Context, in, out, workDir string, words []models.Word, style captions.Style, duration float64, width, height int) (bool, error) {
	f.calls++
	if err := os.WriteFile(out, []byte("captioned"), 0o644); err != nil {
		return false, err
	}
	return f.degraded, nil
}

type fakeTranscriber struct {
	words    []models.Word
	language string
	urls     []string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, mediaURL, language string) ([]models.Word, string, error) {
	f.urls = append(f.urls, mediaURL)
	return f.words, f.language, nil
}

func seedSourceAsset(repo *fakeRepo, projectID uuid.UUID) *models.Asset {
	asset := &models.Asset{
		AssetID:    uuid.New(),
		ProjectID:  projectID,
		Kind:       models.AssetOriginal,
		StorageKey: "projects/" + projectID.String() + "/source/raw.mp4",
		Duration:   120,
		Width:      1920,
		Height:     1080,
		MimeType:   "video/mp4",
	}
	repo.assets[projectID] = append(repo.assets[projectID], asset)
	return asset
}

func renderDeps(repo *fakeRepo, storage *fakeStorage, runner *fakeRunner, caps *fakeCaptionRenderer) *Deps {
	return &Deps{
		Cfg:      &config.Config{},
		Projects: repo,
		Storage:  storage,
		Credits:  &fakeCredits{},
		Runner:   runner,
		Captions: caps,
		Logger:   nopLogger{},
	}
}

// TestTranscriptionStoresWords presigns the source for the provider and
// saves the resulting transcript with its detected language.
func TestTranscriptionStoresWords(t *testing.T) {
	repo := newFakeRepo()
	project := seedProject(repo, models.PipelineClip, models.PhaseImporting)
	asset := seedSourceAsset(repo, project.ProjectID)
	storage := newFakeStorage()
	transcriber := &fakeTranscriber{
		words:    []models.Word{{Text: "hello", Start: 0, End: 0.4}, {Text: "world", Start: 0.4, End: 0.9}},
		language: "en",
	}
	h := NewTranscriptionHandler(&Deps{
		Projects:    repo,
		Storage:     storage,
		Transcriber: transcriber,
		Logger:      nopLogger{},
	})

	err := h.Handle(context.Background(), &models.PipelineJob{
		Kind:      models.PipelineClip,
		ProjectID: project.ProjectID,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	transcript := repo.transcripts[project.ProjectID]
	if transcript == nil || len(transcript.Words) != 2 || transcript.Language != "en" {
		t.Fatalf("transcript = %+v, want 2 words in en", transcript)
	}
	if len(transcriber.urls) != 1 || transcriber.urls[0] != "https://storage.test/"+asset.StorageKey {
		t.Fatalf("provider got urls %v, want presigned source", transcriber.urls)
	}
	if repo.projects[project.ProjectID].Phase != models.PhaseTranscribing {
		t.Fatalf("phase = %s, want TRANSCRIBING", repo.projects[project.ProjectID].Phase)
	}
}

// TestTranscriptionSilentSourceIsPermanent treats an empty word list as an
// input failure rather than retrying.
func TestTranscriptionSilentSourceIsPermanent(t *testing.T) {
	repo := newFakeRepo()
	project := seedProject(repo, models.PipelineClip, models.PhaseImporting)
	seedSourceAsset(repo, project.ProjectID)
	h := NewTranscriptionHandler(&Deps{
		Projects:    repo,
		Storage:     newFakeStorage(),
		Transcriber: &fakeTranscriber{language: "en"},
		Logger:      nopLogger{},
	})

	err := h.Handle(context.Background(), &models.PipelineJob{
		Kind:      models.PipelineClip,
		ProjectID: project.ProjectID,
	})
	if err != pipeline.ErrNoTranscript {
		t.Fatalf("err = %v, want ErrNoTranscript", err)
	}
	if !pipeline.IsPermanent(err) {
		t.Fatal("empty transcript should be permanent")
	}
}

// TestClipExportRendersMomentEndToEnd walks a free-tier multi-segment export
// through cutting, reframing, captioning, watermarking and artifact upload.
func TestClipExportRendersMomentEndToEnd(t *testing.T) {
	repo := newFakeRepo()
	project := seedProject(repo, models.PipelineClip, models.PhaseReady)
	seedSourceAsset(repo, project.ProjectID)
	moment := &models.Moment{
		MomentID:  uuid.New(),
		ProjectID: project.ProjectID,
		Start:     0,
		End:       30,
		Segments:  models.SegmentList{{Start: 0, End: 10}, {Start: 20, End: 30}},
	}
	repo.momentsByID[moment.MomentID] = moment
	repo.transcripts[project.ProjectID] = &models.Transcript{
		ProjectID: project.ProjectID,
		Words:     models.WordList{{Text: "hello", Start: 1, End: 1.5}, {Text: "again", Start: 21, End: 21.5}},
	}
	export := &models.Export{
		ExportID:  uuid.New(),
		ProjectID: project.ProjectID,
		MomentID:  moment.MomentID,
		Status:    models.ExportPending,
		Options: models.ExportOptions{
			AspectRatio:   "9:16",
			Captions:      true,
			CaptionStyle:  "bold",
			IncludeSRT:    true,
			GenerateThumb: true,
		},
	}
	repo.exports[export.ExportID] = export

	storage := newFakeStorage()
	runner := &fakeRunner{info: &render.VideoInfo{Width: 1920, Height: 1080, Duration: 20}}
	caps := &fakeCaptionRenderer{}
	h := NewClipExportHandler(renderDeps(repo, storage, runner, caps))

	payload, _ := json.Marshal(models.ExportPayload{ExportID: export.ExportID})
	err := h.Handle(context.Background(), &models.PipelineJob{
		Kind:      models.PipelineClip,
		ProjectID: project.ProjectID,
		Payload:   payload,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	stored := repo.exports[export.ExportID]
	if stored.Status != models.ExportCompleted {
		t.Fatalf("status = %s, want COMPLETED", stored.Status)
	}
	for _, artifact := range []string{"video", "thumbnail", "srt"} {
		if _, ok := stored.Artifacts[artifact]; !ok {
			t.Fatalf("artifacts = %v, missing %s", stored.Artifacts, artifact)
		}
	}
	if runner.cuts != 2 || runner.concats != 1 {
		t.Fatalf("cuts = %d concats = %d, want 2/1", runner.cuts, runner.concats)
	}
	if len(runner.reframes) != 1 || runner.reframes[0].OutW != 1080 || runner.reframes[0].OutH != 1920 {
		t.Fatalf("reframes = %+v, want one 1080x1920 plan", runner.reframes)
	}
	if caps.calls != 1 {
		t.Fatalf("caption renders = %d, want 1", caps.calls)
	}
	if len(runner.watermarks) != 1 {
		t.Fatalf("watermarks = %v, free tier export must be watermarked", runner.watermarks)
	}
	if stored.Metrics["duration"] != 20.0 {
		t.Fatalf("metrics duration = %v, want 20", stored.Metrics["duration"])
	}
	proxyKey := "projects/" + project.ProjectID.String() + "/moments/" + moment.MomentID.String() + "/proxy.mp4"
	if _, ok := storage.uploads[proxyKey]; !ok {
		t.Fatalf("uploads = %v, stitched base should be kept as moment proxy", storage.uploads)
	}
	if moment.ProxyKey != proxyKey {
		t.Fatalf("moment proxy = %q, want %q", moment.ProxyKey, proxyKey)
	}
}

// TestClipExportKeepsOriginalAspect leaves the stitched clip untouched when
// the requested ratio is original.
func TestClipExportKeepsOriginalAspect(t *testing.T) {
	repo := newFakeRepo()
	project := seedProject(repo, models.PipelineClip, models.PhaseReady)
	project.Tier = models.TierPro
	seedSourceAsset(repo, project.ProjectID)
	moment := &models.Moment{MomentID: uuid.New(), ProjectID: project.ProjectID, Start: 5, End: 35}
	repo.momentsByID[moment.MomentID] = moment
	export := &models.Export{
		ExportID:  uuid.New(),
		ProjectID: project.ProjectID,
		MomentID:  moment.MomentID,
		Status:    models.ExportPending,
		Options:   models.ExportOptions{AspectRatio: "original"},
	}
	repo.exports[export.ExportID] = export

	runner := &fakeRunner{info: &render.VideoInfo{Width: 1920, Height: 1080, Duration: 30}}
	h := NewClipExportHandler(renderDeps(repo, newFakeStorage(), runner, &fakeCaptionRenderer{}))

	payload, _ := json.Marshal(models.ExportPayload{ExportID: export.ExportID})
	if err := h.Handle(context.Background(), &models.PipelineJob{
		Kind:      models.PipelineClip,
		ProjectID: project.ProjectID,
		Payload:   payload,
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(runner.reframes) != 0 {
		t.Fatalf("reframes = %d, original ratio must not reframe", len(runner.reframes))
	}
	if len(runner.watermarks) != 0 {
		t.Fatalf("watermarks = %v, paid tier must not be watermarked", runner.watermarks)
	}
	if repo.exports[export.ExportID].Status != models.ExportCompleted {
		t.Fatalf("status = %s, want COMPLETED", repo.exports[export.ExportID].Status)
	}
}

// TestClipExportReusesMomentProxy skips the source download and the cuts
// when the moment already has a stitched proxy.
func TestClipExportReusesMomentProxy(t *testing.T) {
	repo := newFakeRepo()
	project := seedProject(repo, models.PipelineClip, models.PhaseReady)
	project.Tier = models.TierPro
	seedSourceAsset(repo, project.ProjectID)
	proxyKey := "projects/" + project.ProjectID.String() + "/moments/abc/proxy.mp4"
	moment := &models.Moment{
		MomentID:  uuid.New(),
		ProjectID: project.ProjectID,
		Start:     5,
		End:       35,
		ProxyKey:  proxyKey,
	}
	repo.momentsByID[moment.MomentID] = moment
	export := &models.Export{
		ExportID:  uuid.New(),
		ProjectID: project.ProjectID,
		MomentID:  moment.MomentID,
		Status:    models.ExportPending,
		Options:   models.ExportOptions{AspectRatio: "original"},
	}
	repo.exports[export.ExportID] = export

	storage := newFakeStorage()
	runner := &fakeRunner{info: &render.VideoInfo{Width: 1080, Height: 1920, Duration: 30}}
	h := NewClipExportHandler(renderDeps(repo, storage, runner, &fakeCaptionRenderer{}))

	payload, _ := json.Marshal(models.ExportPayload{ExportID: export.ExportID})
	if err := h.Handle(context.Background(), &models.PipelineJob{
		Kind:      models.PipelineClip,
		ProjectID: project.ProjectID,
		Payload:   payload,
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if runner.cuts != 0 || runner.concats != 0 {
		t.Fatalf("cuts = %d concats = %d, proxy render must not cut", runner.cuts, runner.concats)
	}
	if len(storage.downloads) != 1 || storage.downloads[0] != proxyKey {
		t.Fatalf("downloads = %v, want only the proxy", storage.downloads)
	}
	if repo.exports[export.ExportID].Status != models.ExportCompleted {
		t.Fatalf("status = %s, want COMPLETED", repo.exports[export.ExportID].Status)
	}
}

// TestCaptionExportCreatesAssetAndFinishes burns captions over the source,
// records the CAPTIONED asset and moves the caption project to READY.
func TestCaptionExportCreatesAssetAndFinishes(t *testing.T) {
	repo := newFakeRepo()
	project := seedProject(repo, models.PipelineCaption, models.PhaseTranscribing)
	seedSourceAsset(repo, project.ProjectID)
	repo.transcripts[project.ProjectID] = &models.Transcript{
		ProjectID: project.ProjectID,
		Words:     models.WordList{{Text: "hi", Start: 0, End: 0.3}},
	}
	storage := newFakeStorage()
	runner := &fakeRunner{info: &render.VideoInfo{Width: 1280, Height: 720, Duration: 90}}
	caps := &fakeCaptionRenderer{}
	h := NewCaptionExportHandler(renderDeps(repo, storage, runner, caps))

	err := h.Handle(context.Background(), &models.PipelineJob{
		Kind:      models.PipelineCaption,
		ProjectID: project.ProjectID,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	if caps.calls != 1 {
		t.Fatalf("caption renders = %d, want 1", caps.calls)
	}
	if len(runner.watermarks) != 1 {
		t.Fatal("free tier caption export must be watermarked")
	}
	asset, errAsset := repo.GetAssetByKind(context.Background(), project.ProjectID, models.AssetCaptioned)
	if errAsset != nil {
		t.Fatalf("captioned asset not recorded: %v", errAsset)
	}
	wantKey := "projects/" + project.ProjectID.String() + "/captioned.mp4"
	if asset.StorageKey != wantKey {
		t.Fatalf("asset key = %s, want %s", asset.StorageKey, wantKey)
	}
	if _, ok := storage.uploads[wantKey]; !ok {
		t.Fatalf("uploads = %v, missing captioned video", storage.uploads)
	}
	if repo.projects[project.ProjectID].Phase != models.PhaseReady {
		t.Fatalf("phase = %s, want READY", repo.projects[project.ProjectID].Phase)
	}
}

// TestReframeProducesVerticalAsset converts a landscape source to the
// default 9:16 and records the REFRAMED asset with the output dimensions.
func TestReframeProducesVerticalAsset(t *testing.T) {
	repo := newFakeRepo()
	project := seedProject(repo, models.PipelineReframe, models.PhaseImporting)
	project.Tier = models.TierPro
	seedSourceAsset(repo, project.ProjectID)
	storage := newFakeStorage()
	runner := &fakeRunner{info: &render.VideoInfo{Width: 1920, Height: 1080, Duration: 60}}
	h := NewReframeHandler(renderDeps(repo, storage, runner, &fakeCaptionRenderer{}))

	err := h.Handle(context.Background(), &models.PipelineJob{
		Kind:      models.PipelineReframe,
		ProjectID: project.ProjectID,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(runner.reframes) != 1 {
		t.Fatalf("reframes = %d, want 1", len(runner.reframes))
	}
	asset, errAsset := repo.GetAssetByKind(context.Background(), project.ProjectID, models.AssetReframed)
	if errAsset != nil {
		t.Fatalf("reframed asset not recorded: %v", errAsset)
	}
	if asset.Width != 1080 || asset.Height != 1920 {
		t.Fatalf("asset dims = %dx%d, want 1080x1920", asset.Width, asset.Height)
	}
	if len(runner.watermarks) != 0 {
		t.Fatal("paid tier reframe must not be watermarked")
	}
	if repo.projects[project.ProjectID].Phase != models.PhaseReady {
		t.Fatalf("phase = %s, want READY", repo.projects[project.ProjectID].Phase)
	}
}
