package resolve

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
)

// Target is the live application and window a step is replayed against.
type Target struct {
	App         model.App
	AppNode     platform.Node
	Window      platform.Node
	WindowTitle string
	WindowFrame *model.Rect
	Strategy    string
}

const chromeBundle = "com.google.Chrome"

// browserBundles maps browser bundle identifiers to the recorded names that
// refer to them.
var browserBundles = map[string][]string{
	chromeBundle:              {"chrome", "google chrome", "gmail"},
	"com.apple.Safari":        {"safari"},
	"org.mozilla.firefox":     {"firefox"},
	"com.microsoft.edgemac":   {"edge"},
	"com.operasoftware.Opera": {"opera"},
	"com.brave.Browser":       {"brave"},
}

var browserNames = map[string]bool{
	"chrome": true, "google chrome": true, "gmail": true, "safari": true,
	"firefox": true, "edge": true, "opera": true, "brave": true,
}

func isChromeFamily(name string) bool {
	switch model.CleanText(name) {
	case "chrome", "google chrome", "gmail":
		return true
	}
	return false
}

// CanonicalApp folds a recorded application name. Chrome window titles and
// the chrome/gmail aliases all become "google chrome".
func CanonicalApp(name string) string {
	c := model.CleanText(name)
	if strings.Contains(c, " - google chrome") || isChromeFamily(c) {
		return "google chrome"
	}
	return c
}

var (
	countRe    = regexp.MustCompile(`\(\d[\d,]*\)`)
	emailRe    = regexp.MustCompile(`[^\s@]+@[^\s@]+`)
	clockRe    = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s?[AP]M\b`)
	chromeRe   = regexp.MustCompile(`(?i)\s*-\s*Google Chrome\b.*$`)
	dashRe     = regexp.MustCompile(`\s+-\s+`)
	multiSpace = regexp.MustCompile(`\s{2,}`)
	simpleNum  = regexp.MustCompile(`\(\d+\)`)
	anyEmail   = regexp.MustCompile(`\S+@\S+`)
	spaceRun   = regexp.MustCompile(`\s+`)
)

// StripDynamic removes volatile title content: unread counts, email
// addresses, clock times and the Chrome window suffix.
func StripDynamic(title string) string {
	t := strings.NewReplacer("\u00a0", " ", "\u202f", " ").Replace(title)
	t = countRe.ReplaceAllString(t, "")
	t = emailRe.ReplaceAllString(t, "")
	t = clockRe.ReplaceAllString(t, "")
	t = chromeRe.ReplaceAllString(t, "")
	t = dashRe.ReplaceAllString(t, " - ")
	t = multiSpace.ReplaceAllString(t, " ")
	return model.CleanText(t)
}

// TitlesEqual compares window titles after StripDynamic; failing that, the
// last two " - " segments must agree.
func TitlesEqual(recorded, live string) bool {
	if recorded == "" && live == "" {
		return true
	}
	if recorded == "" || live == "" {
		return false
	}
	r, l := StripDynamic(recorded), StripDynamic(live)
	if r == l {
		return true
	}
	rp, lp := titleSegments(r), titleSegments(l)
	if len(rp) == 0 || len(lp) == 0 {
		return false
	}
	return lastSegments(rp, 2) == lastSegments(lp, 2)
}

func titleSegments(t string) []string {
	var out []string
	for _, p := range strings.Split(t, " - ") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func lastSegments(parts []string, n int) string {
	if len(parts) > n {
		parts = parts[len(parts)-n:]
	}
	return strings.Join(parts, " - ")
}

// AppMatches reports whether a live application (and optionally its window
// title) is the recorded application: exact after cleaning, the title's
// trailing " - " segment, the same with counts and emails removed, or a
// shared alias group.
func AppMatches(recorded, live, liveTitle string, aliases map[string][]string) bool {
	if recorded == "" || live == "" {
		return false
	}
	rc, lc := model.CleanText(recorded), model.CleanText(live)
	if rc == lc {
		return true
	}
	if strings.Contains(liveTitle, " - ") {
		parts := strings.Split(liveTitle, " - ")
		cand := model.CleanText(parts[len(parts)-1])
		if strings.Contains(cand, rc) || strings.Contains(rc, cand) {
			return true
		}
	}
	if liveTitle != "" {
		t := simpleNum.ReplaceAllString(liveTitle, "")
		t = anyEmail.ReplaceAllString(t, "")
		t = strings.TrimSpace(spaceRun.ReplaceAllString(t, " "))
		if strings.Contains(t, " - ") {
			parts := strings.Split(t, " - ")
			if strings.Contains(model.CleanText(parts[len(parts)-1]), rc) {
				return true
			}
		}
	}
	for key, group := range aliases {
		inGroup := func(s string) bool {
			for _, g := range group {
				if s == g {
					return true
				}
			}
			return false
		}
		if (inGroup(rc) && inGroup(lc)) || (rc == key && inGroup(lc)) || (lc == key && inGroup(rc)) {
			return true
		}
	}
	return false
}

// appStrategy is one way of locating the recorded application.
type appStrategy struct {
	name string
	fn   func(q *appQuery) (*Target, bool)
}

// appQuery is the live state one resolution works from.
type appQuery struct {
	e        *Engine
	recApp   string
	recTitle string
	apps     []model.App
	front    model.App
	hasFront bool
}

// primaryStrategies locate the recorded application; the chosen process is
// then checked against the deny list.
var primaryStrategies = []appStrategy{
	{"frontmost_match", func(q *appQuery) (*Target, bool) {
		if !q.hasFront {
			return nil, false
		}
		rec := q.recApp
		if rec == "" {
			rec = q.front.Name
		}
		title := q.e.mainWindowTitle(q.front.PID)
		ok := AppMatches(rec, q.front.Name, title, q.e.cfg.AppAliases)
		if !ok && isChromeFamily(q.recApp) && strings.Contains(strings.ToLower(q.front.Name), "chrome") {
			ok = true
		}
		if !ok {
			return nil, false
		}
		return q.e.targetFor(q.front, q.recTitle), true
	}},
	{"browser_bundle", func(q *appQuery) (*Target, bool) {
		rc := model.CleanText(q.recApp)
		if !browserNames[rc] {
			return nil, false
		}
		for _, a := range q.apps {
			if _, ok := browserBundles[a.BundleID]; !ok {
				continue
			}
			if (isChromeFamily(rc) && a.BundleID == chromeBundle) || strings.Contains(model.CleanText(a.Name), rc) {
				return q.e.targetFor(a, q.recTitle), true
			}
		}
		return nil, false
	}},
	{"running_app", func(q *appQuery) (*Target, bool) {
		if q.recApp == "" {
			return nil, false
		}
		for _, a := range q.apps {
			if q.e.cfg.IsDenied(a.Name) {
				continue
			}
			if AppMatches(q.recApp, a.Name, "", q.e.cfg.AppAliases) {
				return q.e.targetFor(a, q.recTitle), true
			}
		}
		return nil, false
	}},
	{"window_title", func(q *appQuery) (*Target, bool) {
		if q.recTitle == "" {
			return nil, false
		}
		rec := q.recApp
		if rec == "" {
			rec = "unknown"
		}
		for _, a := range q.apps {
			for _, w := range q.e.windowNodes(a.PID) {
				t := platform.StringAttr(q.e.p.Reader, w, platform.AttrTitle)
				if t != "" && (t == q.recTitle || AppMatches(rec, a.Name, t, q.e.cfg.AppAliases)) {
					return q.e.targetWithWindow(a, w), true
				}
			}
		}
		return nil, false
	}},
}

// fallbackStrategies run when no primary strategy produced an allowed process.
var fallbackStrategies = []appStrategy{
	{"frontmost_browser", func(q *appQuery) (*Target, bool) {
		if !q.hasFront {
			return nil, false
		}
		names, isBrowser := browserBundles[q.front.BundleID]
		if !isBrowser {
			return nil, false
		}
		if q.recApp != "" {
			rl := strings.ToLower(q.recApp)
			match := false
			for _, n := range names {
				if strings.Contains(rl, n) {
					match = true
					break
				}
			}
			if !match {
				return nil, false
			}
		}
		return q.e.targetFor(q.front, ""), true
	}},
	{"browser_finder", func(q *appQuery) (*Target, bool) {
		want := chromeBundle
		rl := strings.ToLower(q.recApp)
		switch {
		case strings.Contains(rl, "safari"):
			want = "com.apple.Safari"
		case strings.Contains(rl, "firefox"):
			want = "org.mozilla.firefox"
		}
		for _, a := range q.apps {
			if a.BundleID == want {
				return q.e.targetFor(a, ""), true
			}
		}
		return nil, false
	}},
	{"frontmost", func(q *appQuery) (*Target, bool) {
		if !q.hasFront || q.e.cfg.IsDenied(q.front.Name) {
			return nil, false
		}
		return q.e.targetFor(q.front, ""), true
	}},
}

// ResolveTarget finds the live application and window for rec.
func (e *Engine) ResolveTarget(rec *model.RecordedSignature, log *slog.Logger) (*Target, error) {
	apps, err := e.p.Apps.RunningApps()
	if err != nil {
		return nil, &Error{Stage: StageApp, Code: ErrAppNotFound, Message: "listing applications", Cause: err}
	}
	q := &appQuery{e: e, recApp: strings.TrimSpace(rec.AppLabel()), recTitle: strings.TrimSpace(rec.WindowTitle), apps: apps}
	if isChromeFamily(q.recApp) || strings.Contains(q.recApp, " - Google Chrome") {
		q.recApp = "Google Chrome"
	}
	if front, err := e.p.Apps.Frontmost(); err == nil {
		q.front, q.hasFront = front, true
	}

	var chosen *Target
	for _, s := range primaryStrategies {
		if t, ok := s.fn(q); ok {
			t.Strategy = s.name
			chosen = t
			break
		}
	}
	if chosen != nil && e.cfg.IsDenied(chosen.App.Name) {
		log.Debug("app: rejected system process", slog.String("app", chosen.App.Name))
		chosen = nil
	}
	if chosen == nil {
		for _, s := range fallbackStrategies {
			if t, ok := s.fn(q); ok {
				t.Strategy = s.name
				chosen = t
				break
			}
		}
	}
	if chosen == nil {
		return nil, stageErr(StageApp, ErrAppNotFound, fmt.Sprintf("no running application matches %q", q.recApp))
	}
	if chosen.Window == nil {
		e.logger.Warn("window not resolved, continuing with process only",
			slog.String("app", chosen.App.Name), slog.Int("pid", chosen.App.PID))
	}
	log.Debug("app: resolved",
		slog.String("strategy", chosen.Strategy),
		slog.String("app", chosen.App.Name),
		slog.Int("pid", chosen.App.PID),
		slog.String("window", chosen.WindowTitle),
	)
	return chosen, nil
}

func (e *Engine) windowNodes(pid int) []platform.Node {
	root, err := e.p.Apps.ApplicationNode(pid)
	if err != nil || root == nil {
		return nil
	}
	return platform.NodesAttr(e.p.Reader, root, platform.AttrWindows)
}

// pickWindow prefers an exact title, then the main or focused window, then
// the first one.
func (e *Engine) pickWindow(pid int, title string) platform.Node {
	wins := e.windowNodes(pid)
	r := e.p.Reader
	if title != "" {
		for _, w := range wins {
			if platform.StringAttr(r, w, platform.AttrTitle) == title {
				return w
			}
		}
	}
	for _, w := range wins {
		main, _ := platform.BoolAttr(r, w, platform.AttrMain)
		focused, _ := platform.BoolAttr(r, w, platform.AttrFocused)
		if main || focused {
			return w
		}
	}
	if len(wins) > 0 {
		return wins[0]
	}
	return nil
}

func (e *Engine) mainWindowTitle(pid int) string {
	if w := e.pickWindow(pid, ""); w != nil {
		return platform.StringAttr(e.p.Reader, w, platform.AttrTitle)
	}
	return ""
}

func (e *Engine) targetFor(a model.App, title string) *Target {
	return e.targetWithWindow(a, e.pickWindow(a.PID, title))
}

func (e *Engine) targetWithWindow(a model.App, w platform.Node) *Target {
	t := &Target{App: a, Window: w}
	t.AppNode, _ = e.p.Apps.ApplicationNode(a.PID)
	if w != nil {
		t.WindowTitle = platform.StringAttr(e.p.Reader, w, platform.AttrTitle)
		if f, ok := platform.Frame(e.p.Reader, w); ok {
			t.WindowFrame = &f
		}
	}
	return t
}

// Identity is the outcome of checking a resolved target against the recording.
type Identity struct {
	AppOK     bool `yaml:"app_ok"    json:"app_ok"`
	WindowOK  bool `yaml:"window_ok" json:"window_ok"`
	Trusted   bool `yaml:"trusted"   json:"trusted"`
	Frontmost bool `yaml:"frontmost" json:"frontmost"`
}

// CheckIdentity validates the target. An application mismatch is tolerated
// because the process was already resolved; a window title mismatch is
// advisory. Only a trusted application relaxes label comparison.
func (e *Engine) CheckIdentity(rec *model.RecordedSignature, t *Target, log *slog.Logger) Identity {
	live := t.App.Name
	recApp := rec.App
	if recApp == "" {
		recApp = rec.AppName
	}
	var id Identity
	matchAgainst := recApp
	if matchAgainst == "" {
		matchAgainst = live
	}
	liveCanon := model.CleanText(live)
	id.AppOK = AppMatches(matchAgainst, live, t.WindowTitle, e.cfg.AppAliases) ||
		(recApp != "" && liveCanon != "" && CanonicalApp(recApp) == liveCanon)
	id.WindowOK = TitlesEqual(rec.WindowTitle, t.WindowTitle)
	if id.AppOK && rec.WindowTitle != "" && e.cfg.IsGenericTitle(rec.WindowTitle) {
		id.WindowOK = true
	}
	id.Trusted = id.AppOK && e.cfg.IsTrusted(liveCanon)
	if !id.AppOK {
		log.Debug("identity: app name mismatch ignored, pid verified",
			slog.String("recorded", recApp), slog.String("live", live))
		id.AppOK = true
	}
	if !id.WindowOK {
		log.Debug("identity: window title mismatch",
			slog.String("recorded", StripDynamic(rec.WindowTitle)), slog.String("live", StripDynamic(t.WindowTitle)))
	}
	if front, err := e.p.Apps.Frontmost(); err == nil {
		id.Frontmost = front.PID == t.App.PID
	}
	log.Debug("identity",
		slog.Bool("app_ok", id.AppOK),
		slog.Bool("window_ok", id.WindowOK),
		slog.Bool("trusted", id.Trusted),
		slog.Bool("frontmost", id.Frontmost),
	)
	return id
}
