package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// inboundFile describes the media item attached to a message in
// transport-neutral terms.
type inboundFile struct {
	kind      string // relay media kind
	contentID string // Telegram file_unique_id, stable per media item
	fileID    string // download handle, not stable across bots
	size      int64
	name      string
}

// extractFile pulls the media item out of a message, or nil if the message
// carries none. Photos use the largest size variant.
func extractFile(m *tgbotapi.Message) *inboundFile {
	switch {
	case m.Document != nil:
		d := m.Document
		return &inboundFile{kind: "document", contentID: d.FileUniqueID, fileID: d.FileID, size: int64(d.FileSize), name: d.FileName}
	case m.Video != nil:
		v := m.Video
		return &inboundFile{kind: "video", contentID: v.FileUniqueID, fileID: v.FileID, size: int64(v.FileSize), name: v.FileName}
	case len(m.Photo) > 0:
		p := m.Photo[len(m.Photo)-1]
		return &inboundFile{kind: "photo", contentID: p.FileUniqueID, fileID: p.FileID, size: int64(p.FileSize)}
	case m.Animation != nil:
		a := m.Animation
		return &inboundFile{kind: "animation", contentID: a.FileUniqueID, fileID: a.FileID, size: int64(a.FileSize), name: a.FileName}
	case m.Audio != nil:
		a := m.Audio
		return &inboundFile{kind: "audio", contentID: a.FileUniqueID, fileID: a.FileID, size: int64(a.FileSize), name: a.FileName}
	case m.Voice != nil:
		v := m.Voice
		return &inboundFile{kind: "voice", contentID: v.FileUniqueID, fileID: v.FileID, size: int64(v.FileSize)}
	case m.VideoNote != nil:
		v := m.VideoNote
		return &inboundFile{kind: "video_note", contentID: v.FileUniqueID, fileID: v.FileID, size: int64(v.FileSize)}
	}
	return nil
}

// defaultExtensions names the fallback file extension per media kind, for
// items the transport delivers without a filename.
var defaultExtensions = map[string]string{
	"photo":      ".jpg",
	"video":      ".mp4",
	"animation":  ".mp4",
	"audio":      ".mp3",
	"voice":      ".ogg",
	"video_note": ".mp4",
	"document":   "",
}

// fileName returns the name to store the file under, synthesizing one from
// the kind and content id when the transport supplied none.
func (f *inboundFile) fileName() string {
	if f.name != "" {
		return f.name
	}
	return fmt.Sprintf("%s_%s%s", f.kind, f.contentID, defaultExtensions[f.kind])
}
