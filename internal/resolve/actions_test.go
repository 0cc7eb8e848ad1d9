package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
	"github.com/mj1618/desktop-replay/internal/platform/snapshot"
)

func TestParseKeyCombo(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"cmd+shift+T", []string{"cmd", "shift", "t"}},
		{"Command + Option+a", []string{"cmd", "alt", "a"}},
		{"control+c", []string{"ctrl", "c"}},
		{"Return", []string{"enter"}},
		{"+", nil},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseKeyCombo(tt.in), tt.in)
	}
}

func TestBypass_TypeSetsValue(t *testing.T) {
	d := newDesktop(t, mailDesktop)
	e := newEngine(t, d)

	res, err := e.ResolveAndExecute(context.Background(), &model.RecordedSignature{Action: "type", Text: "quarterly report"}, execOpts(3))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, MethodSetValue, res.Method)
	assert.Equal(t, StageBypass, res.Stage)
	assert.Equal(t, 1, res.Attempts)

	sets := d.EventsOf(snapshot.EventSetValue)
	require.Len(t, sets, 1)
	assert.Equal(t, "quarterly report", sets[0].Text)
	assert.Equal(t, "AXTextField", sets[0].Role)
}

func TestBypass_TypePastesWhenValueIsReadOnly(t *testing.T) {
	d := newDesktop(t, mailDesktop, snapshot.WithReadOnlyValues())
	e := newEngine(t, d)

	res, err := e.ResolveAndExecute(context.Background(), &model.RecordedSignature{Action: "type", Text: "hello"}, execOpts(3))
	require.NoError(t, err)
	assert.Equal(t, MethodPaste, res.Method)

	keys := d.EventsOf(snapshot.EventKeys)
	require.Len(t, keys, 1)
	assert.Equal(t, []string{"cmd", "v"}, keys[0].Keys)

	clip, err := d.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "previous", clip, "clipboard is restored")
}

func TestBypass_TypeWithoutText(t *testing.T) {
	e := newEngine(t, newDesktop(t, mailDesktop))
	res, err := e.ResolveAndExecute(context.Background(), &model.RecordedSignature{Action: "type"}, execOpts(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStep))
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
}

func TestBypass_Key(t *testing.T) {
	d := newDesktop(t, mailDesktop)
	e := newEngine(t, d)

	res, err := e.ResolveAndExecute(context.Background(), &model.RecordedSignature{Action: "key", Key: "cmd+shift+T"}, execOpts(3))
	require.NoError(t, err)
	assert.Equal(t, MethodKey, res.Method)

	res, err = e.ResolveAndExecute(context.Background(), &model.RecordedSignature{Action: "key", Key: "Return"}, execOpts(3))
	require.NoError(t, err)
	assert.True(t, res.Success)

	keys := d.EventsOf(snapshot.EventKeys)
	require.Len(t, keys, 2)
	assert.Equal(t, []string{"cmd", "shift", "t"}, keys[0].Keys)
	assert.Equal(t, []string{"enter"}, keys[1].Keys)
}

func TestBypass_EmptyKey(t *testing.T) {
	d := newDesktop(t, mailDesktop)
	e := newEngine(t, d)

	res, err := e.ResolveAndExecute(context.Background(), &model.RecordedSignature{Action: "key"}, execOpts(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStep))
	assert.Equal(t, StageBypass, StageOf(err))
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, d.Events())
}

func TestBypass_ValidateOnlyDoesNotAct(t *testing.T) {
	d := newDesktop(t, mailDesktop)
	e := newEngine(t, d)

	res, err := e.ResolveAndExecute(context.Background(), &model.RecordedSignature{Action: "key", Key: "cmd+n"}, Options{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.Executed)
	assert.Empty(t, d.Events())
}

func TestBypass_MenuItemPressed(t *testing.T) {
	d := newDesktop(t, mailDesktop)
	e := newEngine(t, d)
	rec := &model.RecordedSignature{Role: "AXMenuItem", Title: "New Message..."}

	res, err := e.ResolveAndExecute(context.Background(), rec, execOpts(3))
	require.NoError(t, err)
	assert.Equal(t, MethodMenuPress, res.Method)
	assert.Equal(t, StageBypass, res.Stage)
	assert.Equal(t, "menu", res.Source)

	performed := d.EventsOf(snapshot.EventPerform)
	require.Len(t, performed, 1)
	assert.Equal(t, "New Message…", performed[0].Title)
}

func TestBypass_MenuItemClickedWhenPressFails(t *testing.T) {
	d := newDesktop(t, mailDesktop, snapshot.WithFailingActions())
	e := newEngine(t, d)
	rec := &model.RecordedSignature{Role: "AXMenuItem", BestLabel: "new message…"}

	res, err := e.ResolveAndExecute(context.Background(), rec, execOpts(3))
	require.NoError(t, err)
	assert.Equal(t, MethodMenuClick, res.Method)

	clicks := d.EventsOf(snapshot.EventClick)
	require.Len(t, clicks, 1)
	assert.Equal(t, model.Point{X: 85, Y: 35}, clicks[0].Point)
	assert.Equal(t, platform.MouseLeft, clicks[0].Button)
}

func TestBypass_MenuItemMissing(t *testing.T) {
	e := newEngine(t, newDesktop(t, mailDesktop))
	_, err := e.ResolveAndExecute(context.Background(), &model.RecordedSignature{Role: "AXMenuItem", Title: "Print"}, execOpts(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoElement))
}

func TestBypass_RightClick(t *testing.T) {
	d := newDesktop(t, mailDesktop)
	e := newEngine(t, d)
	rec := &model.RecordedSignature{Button: "right", Coordinates: []float64{400, 540}}

	res, err := e.ResolveAndExecute(context.Background(), rec, execOpts(3))
	require.NoError(t, err)
	assert.Equal(t, MethodRightClick, res.Method)
	assert.Equal(t, StageBypass, res.Stage)
	require.NotNil(t, res.Element)
	assert.Equal(t, "Send", res.Element.Title)

	clicks := d.EventsOf(snapshot.EventClick)
	require.Len(t, clicks, 1)
	assert.Equal(t, platform.MouseRight, clicks[0].Button)
	assert.Equal(t, model.Point{X: 400, Y: 540}, clicks[0].Point)
}

func TestBypass_RightClickNeedsCoordinates(t *testing.T) {
	e := newEngine(t, newDesktop(t, mailDesktop))
	_, err := e.ResolveAndExecute(context.Background(), &model.RecordedSignature{Button: "right"}, execOpts(3))
	assert.True(t, errors.Is(err, ErrInvalidStep))
}

func TestBypass_OpenActivatesRunningApp(t *testing.T) {
	d := newDesktop(t, mailDesktop)
	e := newEngine(t, d)

	res, err := e.ResolveAndExecute(context.Background(), &model.RecordedSignature{Action: "open", AppName: "Finder"}, execOpts(3))
	require.NoError(t, err)
	assert.Equal(t, MethodActivate, res.Method)
	require.NotNil(t, res.App)
	assert.Equal(t, 100, res.App.PID)

	acts := d.EventsOf(snapshot.EventActivate)
	require.Len(t, acts, 1)
	assert.Equal(t, 100, acts[0].PID)

	front, err := d.Frontmost()
	require.NoError(t, err)
	assert.Equal(t, "Finder", front.Name)
}

func TestBypass_OpenUnknownApp(t *testing.T) {
	e := newEngine(t, newDesktop(t, mailDesktop))
	res, err := e.ResolveAndExecute(context.Background(), &model.RecordedSignature{Action: "open", AppName: "Xcode"}, execOpts(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAppNotFound))
	assert.Equal(t, StageBypass, res.Stage)
	assert.Equal(t, 1, res.Attempts)
}
