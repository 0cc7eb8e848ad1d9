package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
)

const mailFixture = `
frontmost: 200
clipboard: "previous"
apps:
  - name: Finder
    pid: 100
    bundle_id: com.apple.finder
    windows:
      - title: Downloads
        frame: {x: 0, y: 0, w: 400, h: 300}
  - name: Mail
    pid: 200
    bundle_id: com.apple.mail
    menu_bar:
      children:
        - role: AXMenuBarItem
          title: File
          actions: [AXPress]
    windows:
      - title: Inbox
        main: true
        frame: {x: 0, y: 0, w: 800, h: 600}
        children:
          - role: AXGroup
            frame: {x: 0, y: 0, w: 800, h: 100}
            children:
              - role: AXButton
                title: Compose
                frame: {x: 10, y: 10, w: 80, h: 30}
                actions: [AXPress]
              - role: AXTextField
                description: Search
                focused: true
                frame: {x: 100, y: 10, w: 200, h: 30}
`

func loadMail(t *testing.T, opts ...Option) *Desktop {
	t.Helper()
	d, err := Parse([]byte(mailFixture))
	require.NoError(t, err)
	for _, o := range opts {
		o(d)
	}
	return d
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("apps:\n  - name: X\n    pid: 0\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("apps:\n  - {name: A, pid: 1}\n  - {name: B, pid: 1}\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("frontmost: 9\napps:\n  - {name: A, pid: 1}\n"))
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mailFixture), 0o644))
	d, err := Load(path)
	require.NoError(t, err)
	front, err := d.Frontmost()
	require.NoError(t, err)
	assert.Equal(t, "Mail", front.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestElementAt_DeepestTopmost(t *testing.T) {
	d := loadMail(t)
	n, err := d.ElementAt(20, 20)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "AXButton", platform.Role(d, n))
	assert.Equal(t, "Compose", platform.StringAttr(d, n, platform.AttrTitle))

	n, err = d.ElementAt(400, 400)
	require.NoError(t, err)
	assert.Equal(t, "AXWindow", platform.Role(d, n))

	n, err = d.ElementAt(2000, 2000)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestElementAt_FrontmostFirst(t *testing.T) {
	d := loadMail(t)
	n, _ := d.ElementAt(5, 200)
	assert.Equal(t, "Inbox", platform.StringAttr(d, n, platform.AttrTitle))

	require.NoError(t, d.Activate(100))
	n, _ = d.ElementAt(5, 200)
	assert.Equal(t, "Downloads", platform.StringAttr(d, n, platform.AttrTitle))
}

func TestTreeNavigation(t *testing.T) {
	d := loadMail(t)
	root, err := d.ApplicationNode(200)
	require.NoError(t, err)
	assert.Equal(t, "AXApplication", platform.Role(d, root))
	assert.Nil(t, d.Parent(root))

	windows := platform.NodesAttr(d, root, platform.AttrWindows)
	require.Len(t, windows, 1)
	assert.Equal(t, root, d.Parent(windows[0]))

	menuBar := platform.NodeAttr(d, root, platform.AttrMenuBar)
	require.NotNil(t, menuBar)
	assert.Equal(t, "AXMenuBar", platform.Role(d, menuBar))

	focused := platform.NodeAttr(d, root, platform.AttrFocusedElement)
	require.NotNil(t, focused)
	assert.Equal(t, "AXTextField", platform.Role(d, focused))
	assert.Equal(t, windows[0], platform.NodeAttr(d, focused, platform.AttrWindow))

	enabled, ok := platform.BoolAttr(d, focused, platform.AttrEnabled)
	assert.True(t, ok)
	assert.True(t, enabled)

	frame, ok := platform.Frame(d, focused)
	assert.True(t, ok)
	assert.Equal(t, model.Rect{X: 100, Y: 10, W: 200, H: 30}, frame)
}

func TestPerformAndEvents(t *testing.T) {
	d := loadMail(t)
	button, _ := d.ElementAt(20, 20)
	require.NoError(t, d.Perform(button, model.ActionPress))

	field, _ := d.ElementAt(150, 20)
	assert.Error(t, d.Perform(field, model.ActionPress))

	require.NoError(t, d.Click(1, 2, platform.MouseRight, 1))
	require.NoError(t, d.KeyCombo([]string{"cmd", "v"}))

	events := d.Events()
	require.Len(t, events, 3)
	assert.Equal(t, EventPerform, events[0].Kind)
	assert.Equal(t, "Compose", events[0].Title)
	assert.Equal(t, platform.MouseRight, events[1].Button)
	assert.Len(t, d.EventsOf(EventKeys), 1)

	d.Reset()
	assert.Empty(t, d.Events())
}

func TestSetValue(t *testing.T) {
	d := loadMail(t)
	field, _ := d.ElementAt(150, 20)
	require.NoError(t, d.SetValue(field, platform.AttrValue, "hello"))
	assert.Equal(t, "hello", platform.StringAttr(d, field, platform.AttrValue))

	button, _ := d.ElementAt(20, 20)
	assert.Error(t, d.SetValue(button, platform.AttrValue, "x"))

	ro := New(Fixture{Apps: []FixtureApp{{Name: "A", PID: 1}}}, WithReadOnlyValues())
	assert.True(t, ro.readOnly)
}

func TestActivate_StuckFocus(t *testing.T) {
	d := loadMail(t, WithStuckFocus())
	require.NoError(t, d.Activate(100))
	front, _ := d.Frontmost()
	assert.Equal(t, 200, front.PID)
	assert.Len(t, d.EventsOf(EventActivate), 1)

	assert.Error(t, d.Activate(999))
}

func TestClipboard(t *testing.T) {
	d := loadMail(t)
	got, err := d.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "previous", got)
	require.NoError(t, d.WriteText("next"))
	got, _ = d.ReadText()
	assert.Equal(t, "next", got)
}

func TestWindowsAndApps(t *testing.T) {
	d := loadMail(t)
	apps, err := d.RunningApps()
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	wins, err := d.Windows(200)
	require.NoError(t, err)
	require.Len(t, wins, 1)
	assert.True(t, wins[0].Focused)
	assert.Equal(t, "Mail", wins[0].App)

	wins, _ = d.Windows(100)
	assert.False(t, wins[0].Focused)

	_, err = d.Windows(5)
	assert.Error(t, err)
}

func TestReadTree(t *testing.T) {
	d := loadMail(t)
	root, _ := d.ApplicationNode(200)
	win := platform.NodesAttr(d, root, platform.AttrWindows)[0]

	full := platform.ReadTree(d, win, 0)
	assert.Equal(t, "Inbox", full.Title)
	require.Len(t, full.Children, 1)
	assert.Len(t, full.Children[0].Children, 2)

	shallow := platform.ReadTree(d, win, 1)
	require.Len(t, shallow.Children, 1)
	assert.Empty(t, shallow.Children[0].Children)
}

func TestProvider(t *testing.T) {
	d := loadMail(t)
	assert.NoError(t, d.Provider().Validate())
}
