package delivery

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	uaChromeDesktop = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaSafariMac     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_2) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15"
	uaSafariIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1"
	uaAndroid       = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Mobile Safari/537.36"
	uaFirefox       = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

type fakeHost struct {
	objectURLErr error
	clickErr     error
	popupOpens   bool
	shareErr     error
	clipboardErr error
	legacyErr    error

	calls     []string
	alerts    []string
	clipboard string
	revoked   []string
	openedURL string
	shared    *ShareRequest
}

func (h *fakeHost) CreateObjectURL([]byte, string) (string, error) {
	h.calls = append(h.calls, "create")
	if h.objectURLErr != nil {
		return "", h.objectURLErr
	}
	return "blob:test/1", nil
}

func (h *fakeHost) RevokeObjectURL(url string) {
	h.calls = append(h.calls, "revoke")
	h.revoked = append(h.revoked, url)
}

func (h *fakeHost) ClickDownload(string, string) error {
	h.calls = append(h.calls, "click")
	return h.clickErr
}

func (h *fakeHost) OpenWindow(url string) bool {
	h.calls = append(h.calls, "open")
	h.openedURL = url
	return h.popupOpens
}

func (h *fakeHost) Share(_ context.Context, req ShareRequest) error {
	h.calls = append(h.calls, "share")
	h.shared = &req
	return h.shareErr
}

func (h *fakeHost) WriteClipboard(_ context.Context, text string) error {
	h.calls = append(h.calls, "clipboard")
	if h.clipboardErr == nil {
		h.clipboard = text
	}
	return h.clipboardErr
}

func (h *fakeHost) LegacyCopy(text string) error {
	h.calls = append(h.calls, "legacy")
	if h.legacyErr == nil {
		h.clipboard = text
	}
	return h.legacyErr
}

func (h *fakeHost) Alert(message string) {
	h.alerts = append(h.alerts, message)
}

type fakeTask struct {
	delay     time.Duration
	f         func()
	stopped   atomic.Bool
	stopCalls atomic.Int32
}

func (t *fakeTask) Stop() bool {
	t.stopCalls.Add(1)
	return !t.stopped.Swap(true)
}

// inlineScheduler runs every task before AfterFunc returns.
type inlineScheduler struct {
	task *fakeTask
}

func (s *inlineScheduler) AfterFunc(d time.Duration, f func()) Task {
	s.task = &fakeTask{delay: d, f: f}
	s.task.stopped.Store(true)
	f()
	return s.task
}

type fakeScheduler struct {
	tasks []*fakeTask
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Task {
	t := &fakeTask{delay: d, f: f}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *fakeScheduler) runAll() {
	for _, t := range s.tasks {
		if !t.stopped.Swap(true) {
			t.f()
		}
	}
}

func newTestChain(h *fakeHost, caps Capabilities) (*Chain, *fakeScheduler) {
	s := &fakeScheduler{}
	return NewChain(h, caps, WithScheduler(s)), s
}

func TestClassifyUserAgent(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want Platform
	}{
		{"chrome desktop", uaChromeDesktop, Platform{Family: FamilyOther}},
		{"safari mac", uaSafariMac, Platform{Family: FamilySafari}},
		{"safari iphone", uaSafariIPhone, Platform{Family: FamilySafari, IsTouchHost: true, IsIOS: true}},
		{"android claims safari", uaAndroid, Platform{Family: FamilyOther, IsTouchHost: true}},
		{"firefox", uaFirefox, Platform{Family: FamilyOther}},
		{"empty", "", Platform{Family: FamilyOther}},
		{"chrome word anywhere disqualifies", "Safari/1 CHROME", Platform{Family: FamilyOther}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyUserAgent(tt.ua))
		})
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		want Strategy
	}{
		{"blob wins over safari", Capabilities{HasBlobDownload: true, Platform: Platform{Family: FamilySafari}}, StrategyBlobDownload},
		{"safari without blob", Capabilities{Platform: Platform{Family: FamilySafari, IsTouchHost: true}, HasShare: true}, StrategySafariPopup},
		{"touch with share", Capabilities{Platform: Platform{IsTouchHost: true}, HasShare: true}, StrategyNativeShare},
		{"touch without share", Capabilities{Platform: Platform{IsTouchHost: true}}, StrategyMobileClipboard},
		{"desktop without blob", Capabilities{}, StrategyGenericPopup},
		{"desktop share is ignored", Capabilities{HasShare: true}, StrategyGenericPopup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.caps))
			all := Applicable(tt.caps)
			assert.Equal(t, StrategyClipboard, all[len(all)-1])
		})
	}
}

func TestDeliver_BlobDownload(t *testing.T) {
	h := &fakeHost{}
	c, s := newTestChain(h, Capabilities{HasBlobDownload: true})

	res := c.Deliver(context.Background(), "{}", "fiquest_ada_031425.json", "application/json")

	assert.Equal(t, StrategyBlobDownload, res.Strategy)
	assert.True(t, res.Succeeded)
	assert.Equal(t, []string{"create", "click"}, h.calls)
	assert.Contains(t, res.Message, "Desktop Instructions:")
	assert.True(t, strings.HasSuffix(res.Message, "3. Filename: fiquest_ada_031425.json"))
	assert.Empty(t, h.alerts, "instructions are returned, not alerted")

	require.Len(t, s.tasks, 1)
	assert.Equal(t, RevokeDelay, s.tasks[0].delay)
	s.runAll()
	assert.Equal(t, []string{"blob:test/1"}, h.revoked)
}

func TestDeliver_BlobFailureFallsBackToClipboard(t *testing.T) {
	h := &fakeHost{clickErr: errors.New("no anchor support")}
	c, _ := newTestChain(h, Capabilities{HasBlobDownload: true, HasClipboard: true})

	res := c.Deliver(context.Background(), "payload", "save.json", "application/json")

	assert.Equal(t, StrategyBlobDownload, res.Selected)
	assert.Equal(t, StrategyClipboard, res.Strategy)
	assert.True(t, res.FellBack())
	assert.True(t, res.Succeeded)
	assert.Equal(t, "payload", h.clipboard)
	assert.Contains(t, h.calls, "revoke")
	assert.Contains(t, res.Message, "save.json")
}

func TestDeliver_SafariPopup(t *testing.T) {
	t.Run("desktop instructions after delay", func(t *testing.T) {
		h := &fakeHost{popupOpens: true}
		c, s := newTestChain(h, Capabilities{Platform: Platform{Family: FamilySafari}})

		res := c.Deliver(context.Background(), `{"a":"b c"}`, "f.json", "application/json")

		assert.Equal(t, StrategySafariPopup, res.Strategy)
		assert.True(t, res.Succeeded)
		assert.Equal(t, "data:application/json;charset=utf-8,%7B%22a%22%3A%22b%20c%22%7D", h.openedURL)
		assert.Empty(t, h.alerts, "instructions wait for the popup to render")

		require.Len(t, s.tasks, 1)
		assert.Equal(t, InstructionDelay, s.tasks[0].delay)
		s.runAll()
		require.Len(t, h.alerts, 1)
		assert.Contains(t, h.alerts[0], "Cmd+S (Mac) or Ctrl+S (PC)")
		assert.Contains(t, h.alerts[0], "f.json")
	})

	t.Run("touch instructions", func(t *testing.T) {
		h := &fakeHost{popupOpens: true}
		c, _ := newTestChain(h, Capabilities{Platform: Platform{Family: FamilySafari, IsTouchHost: true}})

		res := c.Deliver(context.Background(), "x", "f.json", "application/json")
		assert.Contains(t, res.Message, "Tap and hold the content")
	})

	t.Run("blocked popup copies to clipboard", func(t *testing.T) {
		h := &fakeHost{}
		c, _ := newTestChain(h, Capabilities{Platform: Platform{Family: FamilySafari}})

		res := c.Deliver(context.Background(), "x", "f.json", "application/json")
		assert.Equal(t, StrategyClipboard, res.Strategy)
		assert.Equal(t, []string{"open", "legacy"}, h.calls)
		assert.True(t, strings.HasPrefix(res.Message, "Popup blocked. Your FIQuest data has been copied to clipboard."))
	})

	t.Run("cancelled context drops pending instructions", func(t *testing.T) {
		h := &fakeHost{popupOpens: true}
		c, s := newTestChain(h, Capabilities{Platform: Platform{Family: FamilySafari}})

		ctx, cancel := context.WithCancel(context.Background())
		c.Deliver(ctx, "x", "f.json", "application/json")
		cancel()

		require.Eventually(t, func() bool { return s.tasks[0].stopped.Load() }, time.Second, time.Millisecond)
	})
}

func TestDeliver_FinishedTaskLetsGoOfContext(t *testing.T) {
	caps := Capabilities{HasBlobDownload: true}

	t.Run("task runs after scheduling", func(t *testing.T) {
		h := &fakeHost{}
		c, s := newTestChain(h, caps)

		ctx, cancel := context.WithCancel(context.Background())
		c.Deliver(ctx, "{}", "f.json", "application/json")
		s.runAll()
		cancel()

		require.Len(t, s.tasks, 1)
		assert.Equal(t, []string{"blob:test/1"}, h.revoked)
		assert.Never(t, func() bool { return s.tasks[0].stopCalls.Load() > 0 }, 50*time.Millisecond, time.Millisecond)
	})

	t.Run("task runs while scheduling", func(t *testing.T) {
		h := &fakeHost{}
		s := &inlineScheduler{}
		c := NewChain(h, caps, WithScheduler(s))

		ctx, cancel := context.WithCancel(context.Background())
		c.Deliver(ctx, "{}", "f.json", "application/json")
		cancel()

		require.NotNil(t, s.task)
		assert.Equal(t, []string{"blob:test/1"}, h.revoked)
		assert.Never(t, func() bool { return s.task.stopCalls.Load() > 0 }, 50*time.Millisecond, time.Millisecond)
	})
}

func TestDeliver_NativeShare(t *testing.T) {
	caps := Capabilities{Platform: Platform{IsTouchHost: true}, HasShare: true, HasClipboard: true}

	t.Run("shared", func(t *testing.T) {
		h := &fakeHost{}
		c, _ := newTestChain(h, caps)

		res := c.Deliver(context.Background(), "data", "f.json", "application/json")
		assert.Equal(t, StrategyNativeShare, res.Strategy)
		assert.True(t, res.Succeeded)
		require.NotNil(t, h.shared)
		assert.Equal(t, ShareTitle, h.shared.Title)
		assert.Equal(t, ShareText, h.shared.Text)
		assert.Equal(t, "f.json", h.shared.Filename)
		assert.Equal(t, []byte("data"), h.shared.Data)
		assert.Contains(t, res.Message, "Android Instructions:")
		assert.Contains(t, res.Message, "3. Filename: f.json")
	})

	t.Run("user cancelled", func(t *testing.T) {
		h := &fakeHost{shareErr: context.Canceled}
		c, _ := newTestChain(h, caps)

		res := c.Deliver(context.Background(), "data", "f.json", "application/json")
		assert.Equal(t, StrategyClipboard, res.Strategy)
		assert.Equal(t, "data", h.clipboard)
		assert.True(t, strings.HasPrefix(res.Message, "Unable to share file."))
	})
}

func TestDeliver_MobileWithoutShare(t *testing.T) {
	h := &fakeHost{}
	c, _ := newTestChain(h, Capabilities{Platform: Platform{IsTouchHost: true}})

	res := c.Deliver(context.Background(), "data", "f.json", "application/json")
	assert.Equal(t, StrategyMobileClipboard, res.Selected)
	assert.Equal(t, StrategyClipboard, res.Strategy)
	assert.False(t, res.FellBack())
	assert.Contains(t, res.Message, "Open Notes or Files app")
	assert.Contains(t, res.Message, "Paste and save as: f.json")
}

func TestDeliver_GenericPopup(t *testing.T) {
	h := &fakeHost{popupOpens: true}
	c, s := newTestChain(h, Capabilities{})

	res := c.Deliver(context.Background(), "data", "f.csv", "text/csv")
	assert.Equal(t, StrategyGenericPopup, res.Strategy)
	assert.True(t, res.Succeeded)
	assert.Empty(t, s.tasks)
	require.Len(t, h.alerts, 1)
	assert.Contains(t, h.alerts[0], "Press Ctrl+S (or Cmd+S on Mac)")
	assert.True(t, strings.HasPrefix(h.openedURL, "data:text/csv;charset=utf-8,"))
}

// No blob support, not Safari, no share, popup blocked: the clipboard is the
// only thing left and Succeeded tracks whether it worked.
func TestDeliver_ExhaustedChainEndsOnClipboard(t *testing.T) {
	tests := []struct {
		name string
		host *fakeHost
		caps Capabilities
		want bool
	}{
		{"modern clipboard works", &fakeHost{}, Capabilities{HasClipboard: true}, true},
		{"modern clipboard denied", &fakeHost{clipboardErr: errors.New("permission denied")}, Capabilities{HasClipboard: true}, false},
		{"legacy copy works", &fakeHost{}, Capabilities{}, true},
		{"legacy copy fails", &fakeHost{legacyErr: errors.New("execCommand failed")}, Capabilities{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestChain(tt.host, tt.caps)

			res := c.Deliver(context.Background(), "data", "fiquest_ada_010125.json", "application/json")
			assert.Equal(t, StrategyGenericPopup, res.Selected)
			assert.Equal(t, StrategyClipboard, res.Strategy)
			assert.Equal(t, tt.want, res.Succeeded)
			assert.Contains(t, res.Message, "fiquest_ada_010125.json")
			require.Len(t, tt.host.alerts, 1, "user is told what to do even when the copy failed")
		})
	}
}

func TestSaveInstructions(t *testing.T) {
	assert.Contains(t, SaveInstructions(ClassifyUserAgent(uaSafariIPhone), "f.json"), "iOS Instructions:")
	assert.Contains(t, SaveInstructions(ClassifyUserAgent(uaAndroid), "f.json"), "Android Instructions:")
	assert.Contains(t, SaveInstructions(ClassifyUserAgent(uaSafariMac), "f.json"), "Safari Instructions:")

	desktop := SaveInstructions(ClassifyUserAgent(uaChromeDesktop), "f.json")
	assert.True(t, strings.HasPrefix(desktop, "Your FIQuest save file has been prepared.\n\nDesktop Instructions:"))
	assert.True(t, strings.HasSuffix(desktop, "3. Filename: f.json"))
}

func TestDataURLEncoding(t *testing.T) {
	assert.Equal(t, "data:text/plain;charset=utf-8,a-_.!~*'()%20%2B%2F%3F%26%3D%C3%A9", DataURL("a-_.!~*'() +/?&=é", "text/plain"))
}
