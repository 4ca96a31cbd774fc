package relay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(store *fakeStore, admins ...int64) *Pipeline {
	quota := NewQuotaPolicy(50*mib, 2000*mib)
	links := NewLinkIssuer(store, "https://dl.example.com", false, 24*time.Hour, time.UTC, false)
	isAdmin := func(id int64) bool {
		for _, a := range admins {
			if a == id {
				return true
			}
		}
		return false
	}
	return NewPipeline(store, quota, links, isAdmin, nil)
}

func writingDownloader(content string) Downloader {
	return func(_ context.Context, localPath string, progress ProgressFunc) error {
		if err := os.WriteFile(localPath, []byte(content), 0o600); err != nil {
			return err
		}
		if progress != nil {
			progress(int64(len(content)), int64(len(content)))
		}
		return nil
	}
}

func TestRelayDone(t *testing.T) {
	store := newFakeStore()
	store.defaultPutSize = 4096 // store-reported size, not the artifact's
	p := newTestPipeline(store)

	req := Request{
		RequesterID:  42,
		ContentID:    "abc123",
		FileName:     "report.pdf",
		DeclaredSize: 10 * mib,
		MediaKind:    "document",
	}

	var progressCalls int
	res := p.Relay(context.Background(), req, writingDownloader("payload"), Events{
		Progress: func(done, total int64) { progressCalls++ },
	})

	require.Equal(t, StateDone, res.State)
	require.NotNil(t, res.Object)
	assert.Equal(t, "abc123/report.pdf", res.Object.Key)
	// Authoritative size comes from the store requery, not the download.
	assert.Equal(t, int64(4096), res.Object.Size)
	assert.Equal(t, "https://dl.example.com/abc123/report.pdf", res.Link.URL)
	assert.NotEmpty(t, res.Link.ExpireDate)
	assert.Equal(t, 1, store.putCalls)
	assert.Equal(t, 1, progressCalls)
}

func TestRelayUnsupportedMedia(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store)

	res := p.Relay(context.Background(), Request{MediaKind: "sticker"}, nil, Events{})

	assert.ErrorIs(t, res.Err, ErrUnsupportedMedia)
	assert.Zero(t, store.putCalls)
	assert.Zero(t, store.listCalls, "rejected before any store access")
}

func TestRelayQuotaRejected(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store)

	req := Request{
		RequesterID:  7,
		ContentID:    "abc123",
		FileName:     "huge.bin",
		DeclaredSize: 60 * mib, // over the 50 MiB general limit
		MediaKind:    "document",
	}
	res := p.Relay(context.Background(), req, nil, Events{})

	assert.Equal(t, StateQuotaRejected, res.State)
	assert.Equal(t, 50*mib, res.MaxAllowed)
	assert.ErrorIs(t, res.Err, ErrQuotaExceeded)
	assert.Zero(t, store.putCalls, "no store write on quota rejection")
	assert.Zero(t, store.count())
}

func TestRelayPrivilegedQuota(t *testing.T) {
	store := newFakeStore()
	store.defaultPutSize = 60 * mib
	p := newTestPipeline(store)

	req := Request{
		RequesterID:  7,
		IsVIP:        true,
		ContentID:    "abc123",
		FileName:     "huge.bin",
		DeclaredSize: 60 * mib,
		MediaKind:    "video",
	}
	res := p.Relay(context.Background(), req, writingDownloader("x"), Events{})
	assert.Equal(t, StateDone, res.State)
}

func TestRelayDuplicateFound(t *testing.T) {
	store := newFakeStore()
	uploaded := time.Now().Add(-time.Hour)
	store.add("abc123/report.pdf", 10*mib, uploaded)
	p := newTestPipeline(store)

	req := Request{
		RequesterID:  42,
		ContentID:    "abc123",
		FileName:     "report.pdf",
		DeclaredSize: 10 * mib,
		MediaKind:    "document",
	}
	res := p.Relay(context.Background(), req, nil, Events{})

	require.Equal(t, StateDuplicateFound, res.State)
	require.NotNil(t, res.Object)
	assert.Equal(t, "abc123/report.pdf", res.Object.Key)
	assert.Equal(t, "https://dl.example.com/abc123/report.pdf", res.Link.URL)
	assert.Zero(t, store.putCalls, "no new store write on dedup hit")
	assert.Equal(t, 1, store.count())
}

func TestRelaySizeMismatchUploadsFresh(t *testing.T) {
	store := newFakeStore()
	store.add("abc123/report.pdf", 10*mib, time.Now().Add(-time.Hour))
	store.defaultPutSize = 11 * mib
	p := newTestPipeline(store)

	req := Request{
		RequesterID:  42,
		ContentID:    "abc123",
		FileName:     "report-v2.pdf",
		DeclaredSize: 11 * mib,
		MediaKind:    "document",
	}
	res := p.Relay(context.Background(), req, writingDownloader("v2"), Events{})

	require.Equal(t, StateDone, res.State)
	assert.Equal(t, 1, store.putCalls)

	// The stale object is left alone for the sweeper; both now share the
	// content-id prefix.
	objects, err := store.List(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Len(t, objects, 2)
}

func TestRelayDownloadFailedCleansScratch(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store)

	var scratchPath string
	failing := func(_ context.Context, localPath string, _ ProgressFunc) error {
		scratchPath = localPath
		// Simulate a partial artifact left by a broken transfer
		_ = os.WriteFile(localPath, []byte("partial"), 0o600)
		return errors.New("connection reset")
	}

	req := Request{
		ContentID:    "abc123",
		FileName:     "report.pdf",
		DeclaredSize: mib,
		MediaKind:    "document",
	}
	res := p.Relay(context.Background(), req, failing, Events{})

	assert.Equal(t, StateDownloadFailed, res.State)
	assert.ErrorContains(t, res.Err, "download")
	assert.Zero(t, store.putCalls)

	require.NotEmpty(t, scratchPath)
	_, err := os.Stat(filepath.Dir(scratchPath))
	assert.True(t, os.IsNotExist(err), "scratch dir must be removed")
}

func TestRelayUploadFailedCleansScratch(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("store unavailable")
	p := newTestPipeline(store)

	var scratchPath string
	dl := func(_ context.Context, localPath string, _ ProgressFunc) error {
		scratchPath = localPath
		return os.WriteFile(localPath, []byte("payload"), 0o600)
	}

	var uploadStarted bool
	req := Request{
		ContentID:    "abc123",
		FileName:     "report.pdf",
		DeclaredSize: mib,
		MediaKind:    "document",
	}
	res := p.Relay(context.Background(), req, dl, Events{
		UploadStarted: func() { uploadStarted = true },
	})

	assert.Equal(t, StateUploadFailed, res.State)
	assert.True(t, uploadStarted)
	assert.Zero(t, store.count())

	_, err := os.Stat(filepath.Dir(scratchPath))
	assert.True(t, os.IsNotExist(err), "scratch dir must be removed")
}

func TestRelayDedupIdempotence(t *testing.T) {
	store := newFakeStore()
	store.defaultPutSize = 10 * mib
	p := newTestPipeline(store)

	req := Request{
		ContentID:    "abc123",
		FileName:     "report.pdf",
		DeclaredSize: 10 * mib,
		MediaKind:    "document",
	}

	first := p.Relay(context.Background(), req, writingDownloader("payload"), Events{})
	require.Equal(t, StateDone, first.State)

	second := p.Relay(context.Background(), req, nil, Events{})
	require.Equal(t, StateDuplicateFound, second.State)
	assert.Equal(t, first.Object.Key, second.Object.Key)
	assert.Equal(t, 1, store.putCalls)
	assert.Equal(t, 1, store.count())
}

func TestListAll(t *testing.T) {
	store := newFakeStore()
	store.add("abc123/a.bin", 10, time.Now())
	store.add("def456/b.bin", 20, time.Now())
	p := newTestPipeline(store, 1)

	listings, err := p.ListAll(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "https://dl.example.com/abc123/a.bin", listings[0].Link.URL)
}

func TestListAllEmpty(t *testing.T) {
	p := newTestPipeline(newFakeStore(), 1)
	listings, err := p.ListAll(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestListAllAccessDenied(t *testing.T) {
	store := newFakeStore()
	store.add("abc123/a.bin", 10, time.Now())
	p := newTestPipeline(store, 1)

	_, err := p.ListAll(context.Background(), 2)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Zero(t, store.listCalls, "enumeration never executed for non-admins")
}

func TestDeleteAll(t *testing.T) {
	store := newFakeStore()
	store.add("a/1", 1, time.Now())
	store.add("b/2", 1, time.Now())
	store.add("c/3", 1, time.Now())
	p := newTestPipeline(store, 1)

	count, err := p.DeleteAll(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Zero(t, store.count())

	_, err = p.DeleteAll(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStoreEmpty)
}

func TestDeleteAllAccessDenied(t *testing.T) {
	store := newFakeStore()
	store.add("a/1", 1, time.Now())
	p := newTestPipeline(store, 1)

	_, err := p.DeleteAll(context.Background(), 99)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Equal(t, 1, store.count())
}

func TestDeleteByPrefix(t *testing.T) {
	store := newFakeStore()
	store.add("abc123/a.bin", 1, time.Now())
	store.add("abc123/b.bin", 1, time.Now())
	store.add("def456/c.bin", 1, time.Now())
	p := newTestPipeline(store, 1)

	count, err := p.DeleteByPrefix(context.Background(), 1, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, store.count())
}

func TestDeleteByPrefixNotFound(t *testing.T) {
	p := newTestPipeline(newFakeStore(), 1)
	_, err := p.DeleteByPrefix(context.Background(), 1, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteByPrefixAccessDenied(t *testing.T) {
	p := newTestPipeline(newFakeStore(), 1)
	_, err := p.DeleteByPrefix(context.Background(), 2, "abc123")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestRelayCancelledContext(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store)

	ctx, cancel := context.WithCancel(context.Background())
	dl := func(ctx context.Context, localPath string, _ ProgressFunc) error {
		cancel()
		return ctx.Err()
	}

	req := Request{
		ContentID:    "abc123",
		FileName:     "report.pdf",
		DeclaredSize: mib,
		MediaKind:    "document",
	}
	res := p.Relay(ctx, req, dl, Events{})

	assert.Equal(t, StateDownloadFailed, res.State)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Zero(t, store.putCalls)
}
