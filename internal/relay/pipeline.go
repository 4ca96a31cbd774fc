package relay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// State is a transfer pipeline state.
type State string

// Pipeline states. Duplicate, quota-rejected, both failure states, and
// done are terminal.
const (
	StateChecking       State = "CHECKING"
	StateDuplicateFound State = "DUPLICATE_FOUND"
	StateQuotaRejected  State = "QUOTA_REJECTED"
	StateDownloading    State = "DOWNLOADING"
	StateDownloadFailed State = "DOWNLOAD_FAILED"
	StateUploading      State = "UPLOADING"
	StateUploadFailed   State = "UPLOAD_FAILED"
	StateDone           State = "DONE"
)

// supportedMedia is the set of media kinds the relay accepts.
var supportedMedia = map[string]bool{
	"document":   true,
	"video":      true,
	"photo":      true,
	"animation":  true,
	"audio":      true,
	"voice":      true,
	"video_note": true,
}

// SupportedMediaKind reports whether the relay accepts the given media kind.
func SupportedMediaKind(kind string) bool {
	return supportedMedia[kind]
}

// Request is one inbound file event. It is consumed synchronously by Relay
// and never persisted.
type Request struct {
	RequesterID  int64
	IsAdmin      bool
	IsVIP        bool
	ContentID    string // transport-supplied stable media identifier
	FileName     string
	DeclaredSize int64
	MediaKind    string
}

// ProgressFunc receives transfer progress at chunk boundaries.
type ProgressFunc func(done, total int64)

// Downloader streams the transport-side file into localPath, invoking
// progress as bytes arrive. Implemented by the transport collaborator.
type Downloader func(ctx context.Context, localPath string, progress ProgressFunc) error

// Events carries optional transfer lifecycle callbacks. Either field may
// be nil.
type Events struct {
	Progress      ProgressFunc
	UploadStarted func()
}

// Result is the terminal outcome of one transfer.
type Result struct {
	State      State
	Object     *Object // set for DUPLICATE_FOUND and DONE
	Link       Link    // set for DUPLICATE_FOUND and DONE
	MaxAllowed int64   // set for QUOTA_REJECTED
	Err        error   // underlying cause for failure states; logged, not user-facing
}

// Listing pairs a stored object with its issued link, for admin listings.
type Listing struct {
	Object Object
	Link   Link
}

// Pipeline orchestrates download -> quota check -> dedup check -> upload ->
// link issuance, and exposes the admin bulk operations.
type Pipeline struct {
	store   ObjectStore
	quota   *QuotaPolicy
	dedup   *DedupResolver
	links   *LinkIssuer
	isAdmin func(int64) bool
	metrics *Metrics
}

// NewPipeline creates a transfer pipeline. metrics may be nil.
func NewPipeline(store ObjectStore, quota *QuotaPolicy, links *LinkIssuer, isAdmin func(int64) bool, metrics *Metrics) *Pipeline {
	return &Pipeline{
		store:   store,
		quota:   quota,
		dedup:   NewDedupResolver(store),
		links:   links,
		isAdmin: isAdmin,
		metrics: metrics,
	}
}

// Relay runs one transfer to a terminal state. Dedup and quota checks happen
// strictly before any bytes move. The local scratch artifact is removed on
// every exit path, including cancellation through ctx.
func (p *Pipeline) Relay(ctx context.Context, req Request, download Downloader, ev Events) Result {
	res := p.relay(ctx, req, download, ev)
	if p.metrics != nil {
		p.metrics.TransfersTotal.WithLabelValues(string(res.State)).Inc()
	}
	return res
}

func (p *Pipeline) relay(ctx context.Context, req Request, download Downloader, ev Events) Result {
	if !supportedMedia[req.MediaKind] {
		return Result{State: StateChecking, Err: ErrUnsupportedMedia}
	}

	// CHECKING: dedup before quota, so an already-relayed file answers even
	// when it no longer fits the requester's current tier limit.
	existing, err := p.dedup.FindExisting(ctx, req.ContentID)
	if err != nil {
		return Result{State: StateUploadFailed, Err: err}
	}
	if existing != nil && existing.Size == req.DeclaredSize {
		link, err := p.links.Issue(ctx, *existing, time.Now())
		if err != nil {
			return Result{State: StateUploadFailed, Err: err}
		}
		if p.metrics != nil {
			p.metrics.DedupHits.Inc()
		}
		return Result{State: StateDuplicateFound, Object: existing, Link: link}
	}

	limit := p.quota.MaxAllowedSize(req.IsAdmin, req.IsVIP)
	if req.DeclaredSize > limit {
		return Result{State: StateQuotaRejected, MaxAllowed: limit, Err: ErrQuotaExceeded}
	}

	// DOWNLOADING: the scratch directory is owned by this request alone and
	// removed on every exit path below.
	scratchDir := filepath.Join(os.TempDir(), "file2link-"+uuid.NewString())
	if err := os.MkdirAll(scratchDir, 0o700); err != nil {
		return Result{State: StateDownloadFailed, Err: fmt.Errorf("scratch dir: %w", err)}
	}
	defer os.RemoveAll(scratchDir)

	localPath := filepath.Join(scratchDir, filepath.Base(req.FileName))
	if err := download(ctx, localPath, ev.Progress); err != nil {
		return Result{State: StateDownloadFailed, Err: fmt.Errorf("download: %w", err)}
	}

	// UPLOADING
	if ev.UploadStarted != nil {
		ev.UploadStarted()
	}
	key := ObjectKey(req.ContentID, filepath.Base(req.FileName))
	if err := p.store.Put(ctx, key, localPath); err != nil {
		return Result{State: StateUploadFailed, Err: fmt.Errorf("upload %q: %w", key, err)}
	}

	// Re-query the store for the authoritative size and timestamp; the
	// store, not the local artifact, is the source of truth.
	stored, err := p.dedup.FindExisting(ctx, key)
	if err != nil {
		return Result{State: StateUploadFailed, Err: err}
	}
	if stored == nil {
		return Result{State: StateUploadFailed, Err: fmt.Errorf("uploaded object %q not found", key)}
	}

	link, err := p.links.Issue(ctx, *stored, time.Now())
	if err != nil {
		return Result{State: StateUploadFailed, Err: err}
	}

	if p.metrics != nil {
		p.metrics.BytesUploaded.Add(float64(stored.Size))
	}
	log.Info().Int64("user", req.RequesterID).Str("key", key).Int64("size", stored.Size).Msg("uploaded an object")
	return Result{State: StateDone, Object: stored, Link: link}
}

// ListAll enumerates all current objects with their links. Authorized
// requesters only; the listing never runs for anyone else. An empty store
// returns an empty slice.
func (p *Pipeline) ListAll(ctx context.Context, requesterID int64) ([]Listing, error) {
	if !p.isAdmin(requesterID) {
		return nil, ErrAccessDenied
	}

	objects, err := p.store.List(ctx, "")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	listings := make([]Listing, 0, len(objects))
	for _, obj := range objects {
		link, err := p.links.Issue(ctx, obj, now)
		if err != nil {
			return nil, err
		}
		listings = append(listings, Listing{Object: obj, Link: link})
	}
	return listings, nil
}

// DeleteAll removes every object and returns the count deleted.
// Returns ErrStoreEmpty when there is nothing to delete.
func (p *Pipeline) DeleteAll(ctx context.Context, requesterID int64) (int, error) {
	if !p.isAdmin(requesterID) {
		return 0, ErrAccessDenied
	}

	deleted, err := p.store.DeleteAll(ctx)
	if err != nil {
		return deleted, err
	}
	if deleted == 0 {
		return 0, ErrStoreEmpty
	}

	if p.metrics != nil {
		p.metrics.AdminDeletions.Add(float64(deleted))
	}
	log.Info().Int64("user", requesterID).Int("count", deleted).Msg("deleted all objects")
	return deleted, nil
}

// DeleteByPrefix removes all objects whose key starts with prefix and
// returns the count deleted. Returns ErrNotFound when nothing matches.
// Per-object failures are logged and skipped.
func (p *Pipeline) DeleteByPrefix(ctx context.Context, requesterID int64, prefix string) (int, error) {
	if !p.isAdmin(requesterID) {
		return 0, ErrAccessDenied
	}

	objects, err := p.store.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if len(objects) == 0 {
		return 0, ErrNotFound
	}

	deleted := 0
	for _, obj := range objects {
		if err := p.store.Delete(ctx, obj.Key); err != nil {
			log.Error().Err(err).Str("key", obj.Key).Msg("couldn't delete object")
			continue
		}
		deleted++
	}

	if p.metrics != nil && deleted > 0 {
		p.metrics.AdminDeletions.Add(float64(deleted))
	}
	log.Info().Int64("user", requesterID).Str("prefix", prefix).Int("count", deleted).Msg("deleted objects by prefix")
	return deleted, nil
}
