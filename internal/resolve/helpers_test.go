package resolve

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mj1618/desktop-replay/internal/config"
	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform/snapshot"
)

const mailDesktop = `
frontmost: 300
clipboard: "previous"
apps:
  - name: Finder
    pid: 100
    bundle_id: com.apple.finder
    windows:
      - title: Downloads
        frame: {x: 0, y: 0, w: 400, h: 300}
  - name: Mail
    pid: 300
    bundle_id: com.apple.mail
    menu_bar:
      children:
        - role: AXMenuBarItem
          title: File
          actions: [AXPress]
          children:
            - role: AXMenu
              children:
                - role: AXMenuItem
                  title: "New Message…"
                  frame: {x: 10, y: 25, w: 150, h: 20}
                  actions: [AXPress]
    windows:
      - title: Inbox (12) - me@example.com
        main: true
        frame: {x: 100, y: 100, w: 800, h: 600}
        children:
          - role: AXGroup
            frame: {x: 100, y: 100, w: 800, h: 60}
            children:
              - role: AXButton
                title: Compose
                frame: {x: 110, y: 110, w: 80, h: 30}
                actions: [AXPress]
              - role: AXTextField
                description: Search
                focused: true
                frame: {x: 600, y: 110, w: 200, h: 30}
          - role: AXGroup
            frame: {x: 300, y: 300, w: 200, h: 100}
            children:
              - role: AXButton
                title: Reply
                frame: {x: 310, y: 310, w: 60, h: 30}
                actions: [AXPress]
          - role: AXButton
            title: Archive
            frame: {x: 600, y: 320, w: 40, h: 40}
            actions: [AXPress]
          - role: AXButton
            title: Send
            frame: {x: 360, y: 520, w: 80, h: 40}
            actions: [AXPress]
`

const chromeDesktop = `
frontmost: 400
apps:
  - name: Google Chrome
    pid: 400
    bundle_id: com.google.Chrome
    windows:
      - title: Checkout - Google Chrome
        main: true
        frame: {x: 0, y: 0, w: 1000, h: 800}
        children:
          - role: AXWebArea
            frame: {x: 0, y: 80, w: 1000, h: 720}
            children:
              - role: AXButton
                title: Submit (3)
                frame: {x: 450, y: 400, w: 100, h: 40}
                actions: [AXPress]
`

const editorDesktop = `
frontmost: 500
apps:
  - name: Editor
    pid: 500
    windows:
      - title: Untitled
        main: true
        frame: {x: 0, y: 0, w: 1000, h: 800}
        children:
          - role: AXGroup
            frame: {x: 0, y: 650, w: 1000, h: 100}
            children:
              - role: AXButton
                title: Save
                frame: {x: 100, y: 700, w: 60, h: 24}
              - role: AXButton
                title: Save
                frame: {x: 800, y: 700, w: 60, h: 24}
                actions: [AXPress]
              - role: AXButton
                title: Save As
                frame: {x: 900, y: 700, w: 80, h: 24}
                actions: [AXPress]
`

func newDesktop(t *testing.T, fixture string, opts ...snapshot.Option) *snapshot.Desktop {
	t.Helper()
	d, err := snapshot.Parse([]byte(fixture))
	require.NoError(t, err)
	for _, o := range opts {
		o(d)
	}
	return d
}

func newEngine(t *testing.T, d *snapshot.Desktop, mutate ...func(*config.Config)) *Engine {
	t.Helper()
	cfg := config.Default().NoDelays()
	for _, m := range mutate {
		m(cfg)
	}
	e, err := New(d.Provider(), cfg, WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	return e
}

func execOpts(attempts int) Options {
	return Options{Execute: true, SafeClick: true, MaxAttempts: attempts}
}

func rect(x, y, w, h float64) *model.Rect {
	return &model.Rect{X: x, Y: y, W: w, H: h}
}

func steppingClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

// mailStep is a recording of the Send button made with the Mail window at
// the screen origin.
func mailStep() *model.RecordedSignature {
	return &model.RecordedSignature{
		Role:        "AXButton",
		Title:       "Send",
		BestLabel:   "send",
		AppName:     "Mail",
		WindowTitle: "Inbox (3) - me@example.com",
		WindowFrame: rect(0, 0, 800, 600),
		ClickFrac:   &model.Fraction{FX: 0.375, FY: 440.0 / 600.0},
	}
}
