package model

// App is a running application as reported by the application directory.
type App struct {
	Name     string `yaml:"name"                json:"name"`
	PID      int    `yaml:"pid"                 json:"pid"`
	BundleID string `yaml:"bundle_id,omitempty" json:"bundle_id,omitempty"`
}

// Window represents an application window.
type Window struct {
	App     string `yaml:"app"               json:"app"`
	PID     int    `yaml:"pid"               json:"pid"`
	Title   string `yaml:"title"             json:"title"`
	Frame   *Rect  `yaml:"frame,omitempty"   json:"frame,omitempty"`
	Main    bool   `yaml:"main,omitempty"    json:"main,omitempty"`
	Focused bool   `yaml:"focused,omitempty" json:"focused,omitempty"`
}
