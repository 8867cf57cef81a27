// Package globals mirrors the values a conversational host injects into an
// embedded widget and lets callers observe them without polling.
//
// A Store starts from the host's initial globals. Every SetGlobalsEvent is
// delivered to the listeners registered with Subscribe; a listener caches a
// deep copy of its key's value and then signals its owner, so Snapshot
// returns a fresh value after every change even when the host reuses and
// mutates the same object.
package globals

type Key string

const (
	KeyTheme                Key = "theme"
	KeyUserAgent            Key = "userAgent"
	KeyLocale               Key = "locale"
	KeyMaxHeight            Key = "maxHeight"
	KeyDisplayMode          Key = "displayMode"
	KeySafeArea             Key = "safeArea"
	KeyToolInput            Key = "toolInput"
	KeyToolOutput           Key = "toolOutput"
	KeyToolResponseMetadata Key = "toolResponseMetadata"
	KeyWidgetState          Key = "widgetState"
)

// SetGlobalsEventType is the name of the browser event the host fires.
const SetGlobalsEventType = "openai:set_globals"

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	DisplayModeInline     = "inline"
	DisplayModePIP        = "pip"
	DisplayModeFullscreen = "fullscreen"
)

// Globals is a partial set of host values keyed by name. Values are decoded
// JSON: nil, bool, float64, string, []interface{} or map[string]interface{}.
type Globals map[Key]interface{}

type SetGlobalsEvent struct {
	Globals Globals `json:"globals"`
}
