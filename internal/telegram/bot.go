// Package telegram adapts the Telegram Bot API to the relay engine: it
// turns incoming messages into transfer requests and admin operations, and
// renders the engine's outcomes as chat replies.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/hamid0740/File2Link-Bot/internal/config"
	"github.com/hamid0740/File2Link-Bot/internal/relay"
	"github.com/hamid0740/File2Link-Bot/pkg/bytesize"
)

// Bot wires the Telegram transport to the relay engine.
type Bot struct {
	api        *tgbotapi.BotAPI
	httpClient *http.Client
	cfg        *config.Config
	msgs       config.Messages
	pipeline   *relay.Pipeline
	sweeper    *relay.Sweeper
}

// New connects to the Bot API and builds the adapter.
func New(cfg *config.Config, msgs config.Messages, pipeline *relay.Pipeline, sweeper *relay.Sweeper) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("connect bot api: %w", err)
	}
	log.Info().Str("username", api.Self.UserName).Msg("authorized on telegram")

	return &Bot{
		api:        api,
		httpClient: &http.Client{},
		cfg:        cfg,
		msgs:       msgs,
		pipeline:   pipeline,
		sweeper:    sweeper,
	}, nil
}

// Run sweeps once, then serves updates until ctx is cancelled. Each update
// is handled in its own goroutine; transfers from different requesters are
// independent and share nothing but the store.
func (b *Bot) Run(ctx context.Context) error {
	b.sweep(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			m := update.Message
			if m == nil || m.From == nil || !m.Chat.IsPrivate() {
				continue
			}
			go b.handle(ctx, m)
		}
	}
}

func (b *Bot) handle(ctx context.Context, m *tgbotapi.Message) {
	switch {
	case m.IsCommand():
		b.handleCommand(ctx, m)
	case extractFile(m) != nil:
		b.handleFile(ctx, m)
		b.sweep(ctx)
	case m.Text != "":
		// Plain text that isn't a command gets no reply.
	default:
		b.reply(m, b.msgs.NotFileError)
		b.sweep(ctx)
	}
}

func (b *Bot) handleCommand(ctx context.Context, m *tgbotapi.Message) {
	switch m.Command() {
	case "start":
		user := m.From
		log.Info().Int64("id", user.ID).Str("username", user.UserName).
			Str("name", strings.TrimSpace(user.FirstName+" "+user.LastName)).
			Msg("started the bot")
		b.reply(m, b.msgs.StartMsg)
		b.sweep(ctx)
	case "help":
		general := bytesize.Format(b.cfg.GeneralLimitBytes())
		privileged := bytesize.Format(b.cfg.PrivilegedLimitBytes())
		b.replyOpts(m, fmt.Sprintf(b.msgs.HelpMsg, general, privileged), "", true)
		b.sweep(ctx)
	case "list":
		b.sweep(ctx)
		b.handleList(ctx, m)
	case "delall":
		b.handleDeleteAll(ctx, m)
	case "delete", "del":
		b.handleDelete(ctx, m)
		b.sweep(ctx)
	}
}

func (b *Bot) handleList(ctx context.Context, m *tgbotapi.Message) {
	listings, err := b.pipeline.ListAll(ctx, m.From.ID)
	switch {
	case errors.Is(err, relay.ErrAccessDenied):
		b.reply(m, b.msgs.NoAccess)
	case err != nil:
		log.Error().Err(err).Msg("couldn't list objects")
		b.reply(m, b.msgs.ListEmpty)
	case len(listings) == 0:
		b.reply(m, b.msgs.ListEmpty)
	default:
		b.replyOpts(m, formatListing(b.msgs.ListTitle, listings), tgbotapi.ModeHTML, true)
	}
}

// formatListing renders the admin listing as numbered HTML links.
func formatListing(title string, listings []relay.Listing) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n")
	for i, l := range listings {
		fmt.Fprintf(&sb, "\n%d) <a href='%s'>%s</a>", i+1, l.Link.URL, html.EscapeString(l.Object.Key))
	}
	return sb.String()
}

func (b *Bot) handleDeleteAll(ctx context.Context, m *tgbotapi.Message) {
	count, err := b.pipeline.DeleteAll(ctx, m.From.ID)
	switch {
	case errors.Is(err, relay.ErrAccessDenied):
		b.reply(m, b.msgs.NoAccess)
	case errors.Is(err, relay.ErrStoreEmpty):
		b.reply(m, b.msgs.DelAllAlready)
	case err != nil:
		log.Error().Err(err).Msg("couldn't delete all objects")
		b.reply(m, b.msgs.FileUploadError)
	default:
		b.reply(m, fmt.Sprintf(b.msgs.DelAllSuccess, count))
	}
}

func (b *Bot) handleDelete(ctx context.Context, m *tgbotapi.Message) {
	if !b.cfg.IsAdmin(m.From.ID) {
		b.reply(m, b.msgs.NoAccess)
		return
	}
	prefix := strings.TrimSpace(m.CommandArguments())
	if prefix == "" {
		b.reply(m, b.msgs.DelCmdError)
		return
	}

	_, err := b.pipeline.DeleteByPrefix(ctx, m.From.ID, prefix)
	switch {
	case errors.Is(err, relay.ErrNotFound):
		b.reply(m, b.msgs.DelObjNotFound)
	case err != nil:
		log.Error().Err(err).Str("prefix", prefix).Msg("couldn't delete objects")
		b.reply(m, b.msgs.FileUploadError)
	default:
		b.reply(m, b.msgs.DelObjSuccess)
	}
}

func (b *Bot) handleFile(ctx context.Context, m *tgbotapi.Message) {
	file := extractFile(m)
	tempMsg := b.reply(m, b.msgs.FileCheckTempMsg)

	req := relay.Request{
		RequesterID:  m.From.ID,
		IsAdmin:      b.cfg.IsAdmin(m.From.ID),
		IsVIP:        b.cfg.IsPrivileged(m.From.ID),
		ContentID:    file.contentID,
		FileName:     file.fileName(),
		DeclaredSize: file.size,
		MediaKind:    file.kind,
	}

	throttle := relay.NewThrottle(b.cfg.NotifyInterval())
	events := relay.Events{
		Progress: func(done, total int64) {
			if tempMsg == nil || !throttle.ShouldNotify(done >= total) {
				return
			}
			info := relay.FormatProgress(done, total)
			bar := relay.RenderBar(done, total, b.msgs.ProgressFullBar, b.msgs.ProgressEmptyBar)
			b.edit(tempMsg, fmt.Sprintf(b.msgs.FileDownloadTempMsg, info, bar))
		},
		UploadStarted: func() {
			if tempMsg != nil {
				b.edit(tempMsg, b.msgs.FileUploadTempMsg)
			}
		},
	}

	res := b.pipeline.Relay(ctx, req, b.downloader(file), events)

	// Every terminal state removes the transient indicator.
	b.deleteMsg(tempMsg)

	switch res.State {
	case relay.StateDuplicateFound:
		b.replyOpts(m, fmt.Sprintf(b.msgs.FileUploadAlready,
			bytesize.Format(res.Object.Size), res.Link.URL, res.Link.ExpireDate, res.Link.ExpireTime), "", true)
	case relay.StateDone:
		b.replyOpts(m, fmt.Sprintf(b.msgs.FileUploadSuccess,
			bytesize.Format(res.Object.Size), res.Link.URL, res.Link.ExpireDate, res.Link.ExpireTime), "", true)
	case relay.StateQuotaRejected:
		b.reply(m, fmt.Sprintf(b.msgs.FileSizeError, bytesize.Format(res.MaxAllowed)))
	case relay.StateDownloadFailed:
		log.Error().Err(res.Err).Int64("user", m.From.ID).Msg("couldn't download file")
		b.reply(m, b.msgs.FileDownloadError)
	case relay.StateUploadFailed:
		log.Error().Err(res.Err).Int64("user", m.From.ID).Msg("couldn't upload object")
		b.reply(m, b.msgs.FileUploadError)
	default:
		if errors.Is(res.Err, relay.ErrUnsupportedMedia) {
			b.reply(m, b.msgs.FileNotSupport)
		}
	}
}

func (b *Bot) sweep(ctx context.Context) {
	if _, err := b.sweeper.Sweep(ctx, time.Now()); err != nil {
		log.Error().Err(err).Msg("retention sweep failed")
	}
}

// reply sends a quoted reply and returns the sent message, or nil when
// sending failed.
func (b *Bot) reply(m *tgbotapi.Message, text string) *tgbotapi.Message {
	return b.replyOpts(m, text, "", false)
}

func (b *Bot) replyOpts(m *tgbotapi.Message, text, parseMode string, noPreview bool) *tgbotapi.Message {
	msg := tgbotapi.NewMessage(m.Chat.ID, text)
	msg.ReplyToMessageID = m.MessageID
	msg.ParseMode = parseMode
	msg.DisableWebPagePreview = noPreview

	sent, err := b.api.Send(msg)
	if err != nil {
		log.Error().Err(err).Int64("chat", m.Chat.ID).Msg("couldn't send reply")
		return nil
	}
	return &sent
}

func (b *Bot) edit(m *tgbotapi.Message, text string) {
	edit := tgbotapi.NewEditMessageText(m.Chat.ID, m.MessageID, text)
	if _, err := b.api.Send(edit); err != nil {
		log.Debug().Err(err).Msg("couldn't edit progress message")
	}
}

func (b *Bot) deleteMsg(m *tgbotapi.Message) {
	if m == nil {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID)); err != nil {
		log.Debug().Err(err).Msg("couldn't delete temp message")
	}
}
