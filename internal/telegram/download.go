package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/hamid0740/File2Link-Bot/internal/relay"
)

// downloadChunkSize is the copy buffer size; progress fires at each chunk
// boundary.
const downloadChunkSize = 64 * 1024

// downloader returns a relay.Downloader that streams the Telegram file into
// the pipeline's scratch path.
func (b *Bot) downloader(f *inboundFile) relay.Downloader {
	return func(ctx context.Context, localPath string, progress relay.ProgressFunc) error {
		fileURL, err := b.api.GetFileDirectURL(f.fileID)
		if err != nil {
			return fmt.Errorf("resolve file url: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
		if err != nil {
			return err
		}
		resp, err := b.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("file download: unexpected status %s", resp.Status)
		}

		total := f.size
		if resp.ContentLength > 0 {
			total = resp.ContentLength
		}

		out, err := os.Create(localPath)
		if err != nil {
			return err
		}
		defer out.Close()

		var done int64
		buf := make([]byte, downloadChunkSize)
		for {
			n, rerr := resp.Body.Read(buf)
			if n > 0 {
				if _, werr := out.Write(buf[:n]); werr != nil {
					return werr
				}
				done += int64(n)
				if progress != nil {
					progress(done, total)
				}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				return rerr
			}
		}

		// Guarantee a 100% notification even when the advertised total
		// didn't match what arrived.
		if progress != nil && done != total {
			progress(done, done)
		}
		return out.Sync()
	}
}
