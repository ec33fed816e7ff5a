// Package delivery gets a save file off the host and into the user's hands.
//
// Hosts differ in what they allow: some download object URLs, Safari wants a
// data: URL popup, touch hosts may offer a share sheet, and popups may be
// blocked. The chain picks the first strategy the host's capabilities allow
// and degrades to copying the payload to the clipboard, so the user always
// ends up with either a file or the data plus instructions naming the file.
package delivery

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	applog "fiquest/internal/log"
)

// Strategy identifies a delivery mechanism.
type Strategy string

const (
	StrategyBlobDownload    Strategy = "blob-download"
	StrategySafariPopup     Strategy = "safari-popup"
	StrategyNativeShare     Strategy = "native-share"
	StrategyMobileClipboard Strategy = "mobile-clipboard"
	StrategyGenericPopup    Strategy = "generic-popup"
	StrategyClipboard       Strategy = "clipboard"
)

const (
	// RevokeDelay lets the download start before its object URL is released.
	RevokeDelay = 100 * time.Millisecond
	// InstructionDelay lets a popup render before instructions cover it.
	InstructionDelay = 500 * time.Millisecond
)

const (
	ShareTitle = "FIQuest Save File"
	ShareText  = "Your FIQuest game data"
)

// ShareRequest is a file offered to the host's share surface.
type ShareRequest struct {
	Title       string
	Text        string
	Filename    string
	ContentType string
	Data        []byte
}

// Host is the set of side-effecting primitives the chain drives. Any of them
// may fail; the chain never lets a failure escape.
type Host interface {
	CreateObjectURL(data []byte, contentType string) (string, error)
	RevokeObjectURL(url string)
	ClickDownload(url, filename string) error
	// OpenWindow opens url in a new browsing context and reports whether a
	// window was actually opened (false when a popup blocker intervened).
	OpenWindow(url string) bool
	Share(ctx context.Context, req ShareRequest) error
	WriteClipboard(ctx context.Context, text string) error
	LegacyCopy(text string) error
	Alert(message string)
}

// ErrUnsupported is returned by hosts that lack a primitive.
var ErrUnsupported = errors.New("not supported by host")

// Result reports how the payload was delivered.
type Result struct {
	// Selected is the strategy chosen from the capabilities.
	Selected Strategy
	// Strategy is the one that ended up handling the payload; it differs from
	// Selected when the chain fell back to the clipboard.
	Strategy Strategy
	// Succeeded is false only when the clipboard fallback itself failed.
	Succeeded bool
	// Message is what the user was told.
	Message  string
	Filename string
}

// FellBack reports whether the selected strategy had to give way to the
// clipboard.
func (r Result) FellBack() bool {
	return r.Strategy == StrategyClipboard && r.Selected != StrategyClipboard && r.Selected != StrategyMobileClipboard
}

// Applicable lists every strategy caps allow, in priority order, always
// ending with the clipboard.
func Applicable(caps Capabilities) []Strategy {
	var out []Strategy
	if caps.HasBlobDownload {
		out = append(out, StrategyBlobDownload)
	}
	if caps.Family == FamilySafari {
		out = append(out, StrategySafariPopup)
	}
	if caps.IsTouchHost {
		if caps.HasShare {
			out = append(out, StrategyNativeShare)
		} else {
			out = append(out, StrategyMobileClipboard)
		}
	} else {
		out = append(out, StrategyGenericPopup)
	}
	return append(out, StrategyClipboard)
}

// Select returns the first applicable strategy.
func Select(caps Capabilities) Strategy {
	return Applicable(caps)[0]
}

// Chain delivers payloads through a Host.
type Chain struct {
	host      Host
	caps      Capabilities
	scheduler Scheduler
	logger    *slog.Logger
}

type Option func(*Chain)

func WithScheduler(s Scheduler) Option {
	return func(c *Chain) { c.scheduler = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Chain) { c.logger = l }
}

func NewChain(host Host, caps Capabilities, opts ...Option) *Chain {
	c := &Chain{host: host, caps: caps, scheduler: RealScheduler{}}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = applog.OrDefault(c.logger).With(applog.FieldComponent, applog.ComponentDelivery)
	return c
}

// Capabilities returns the descriptor the chain selects strategies from.
func (c *Chain) Capabilities() Capabilities {
	return c.caps
}

// Deliver hands payload to the user as filename. It never fails outright:
// every error degrades to the clipboard. Delayed follow-ups (URL release,
// instructions) are cancelled if ctx ends first.
func (c *Chain) Deliver(ctx context.Context, payload, filename, contentType string) Result {
	selected := Select(c.caps)

	var res Result
	switch selected {
	case StrategyBlobDownload:
		res = c.blobDownload(ctx, payload, filename, contentType)
	case StrategySafariPopup:
		res = c.popup(ctx, payload, filename, contentType, true)
	case StrategyNativeShare:
		res = c.share(ctx, payload, filename, contentType)
	case StrategyMobileClipboard:
		res = c.clipboard(ctx, payload, filename, mobileClipboardMessage(filename))
	case StrategyGenericPopup:
		res = c.popup(ctx, payload, filename, contentType, false)
	default:
		res = c.clipboard(ctx, payload, filename, downloadFailedMessage(filename))
	}
	res.Selected = selected
	res.Filename = filename

	level := slog.LevelInfo
	if !res.Succeeded {
		level = slog.LevelWarn
	}
	c.logger.Log(ctx, level, "save file delivered",
		applog.NewFields().WithDelivery(string(res.Strategy), filename, res.Succeeded).ToSlice()...)
	return res
}

func (c *Chain) blobDownload(ctx context.Context, payload, filename, contentType string) Result {
	url, err := c.host.CreateObjectURL([]byte(payload), contentType)
	if err != nil {
		c.logger.Warn("object URL unavailable", applog.FieldError, err)
		return c.clipboard(ctx, payload, filename, downloadFailedMessage(filename))
	}
	if err := c.host.ClickDownload(url, filename); err != nil {
		c.host.RevokeObjectURL(url)
		c.logger.Warn("download trigger failed", applog.FieldError, err)
		return c.clipboard(ctx, payload, filename, downloadFailedMessage(filename))
	}
	c.later(ctx, RevokeDelay, func() { c.host.RevokeObjectURL(url) })
	return Result{Strategy: StrategyBlobDownload, Succeeded: true, Message: SaveInstructions(c.caps.Platform, filename)}
}

func (c *Chain) popup(ctx context.Context, payload, filename, contentType string, safari bool) Result {
	strategy := StrategyGenericPopup
	if safari {
		strategy = StrategySafariPopup
	}

	if !c.host.OpenWindow(DataURL(payload, contentType)) {
		msg := popupBlockedMessage(filename)
		if safari {
			msg = safariPopupBlockedMessage(filename)
		}
		return c.clipboard(ctx, payload, filename, msg)
	}

	if !safari {
		msg := desktopPopupMessage(filename)
		c.host.Alert(msg)
		return Result{Strategy: strategy, Succeeded: true, Message: msg}
	}

	msg := safariDesktopMessage(filename)
	if c.caps.IsTouchHost {
		msg = safariTouchMessage(filename)
	}
	c.later(ctx, InstructionDelay, func() { c.host.Alert(msg) })
	return Result{Strategy: strategy, Succeeded: true, Message: msg}
}

func (c *Chain) share(ctx context.Context, payload, filename, contentType string) Result {
	err := c.host.Share(ctx, ShareRequest{
		Title:       ShareTitle,
		Text:        ShareText,
		Filename:    filename,
		ContentType: contentType,
		Data:        []byte(payload),
	})
	if err != nil {
		c.logger.Info("share declined", applog.FieldError, err)
		return c.clipboard(ctx, payload, filename, shareFailedMessage(filename))
	}
	return Result{Strategy: StrategyNativeShare, Succeeded: true, Message: SaveInstructions(c.caps.Platform, filename)}
}

// clipboard is the terminal fallback. Its own failure is logged and
// reported through Succeeded; there is nothing left to fall back to.
func (c *Chain) clipboard(ctx context.Context, payload, filename, msg string) Result {
	var err error
	if c.caps.HasClipboard {
		err = c.host.WriteClipboard(ctx, payload)
	} else {
		err = c.host.LegacyCopy(payload)
	}
	if err != nil {
		c.logger.Error("clipboard copy failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeDelivery,
			applog.FieldFilename, filename)
	}
	c.host.Alert(msg)
	return Result{Strategy: StrategyClipboard, Succeeded: err == nil, Message: msg}
}

// later runs f after d unless ctx ends first. Once f has run, ctx no longer
// holds a reference to the task.
func (c *Chain) later(ctx context.Context, d time.Duration, f func()) {
	var (
		mu      sync.Mutex
		ran     bool
		release func() bool
	)
	task := c.scheduler.AfterFunc(d, func() {
		mu.Lock()
		ran = true
		r := release
		mu.Unlock()
		if r != nil {
			r()
		}
		f()
	})

	r := context.AfterFunc(ctx, func() { task.Stop() })
	mu.Lock()
	release = r
	done := ran
	mu.Unlock()
	if done {
		r()
	}
}
