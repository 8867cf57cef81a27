package widget

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"deezer-search-widget/pkg/globals"
	"deezer-search-widget/pkg/models"
)

// View is everything the results template needs for one render.
type View struct {
	Query       string
	Total       *int
	Results     []models.Track
	Error       string
	Theme       string
	DisplayMode string
	MaxHeight   float64
	HasHeight   bool
	Embedded    bool
}

// toolOutput accepts both shapes hosts hand to widgets: the structured
// content itself, or a tool result wrapping it.
type toolOutput struct {
	Result *struct {
		StructuredContent *models.ToolOutput `json:"structuredContent"`
	} `json:"result"`
	models.ToolOutput
}

// NewView reads the current globals snapshot into a View.
func NewView(store *globals.Store) View {
	v := View{
		Theme:       store.Theme(),
		DisplayMode: store.DisplayMode(),
		Embedded:    store.Hosted(),
	}
	v.MaxHeight, v.HasHeight = store.MaxHeight()
	if result := SearchResultFrom(store.ToolOutput()); result != nil {
		v.Query = result.Query
		v.Total = result.Total
		v.Results = result.Results
		v.Error = result.Error
	}
	return v
}

// SearchResultFrom decodes a tool output global. It returns nil when the
// output carries no search data.
func SearchResultFrom(output interface{}) *models.ToolOutput {
	if output == nil {
		return nil
	}
	raw, err := json.Marshal(output)
	if err != nil {
		return nil
	}

	var out toolOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	if out.Result != nil && out.Result.StructuredContent != nil {
		return out.Result.StructuredContent
	}
	if out.Query != "" || out.Results != nil || out.Error != "" {
		return &models.ToolOutput{
			Query:   out.Query,
			Results: out.Results,
			Total:   out.Total,
			Error:   out.Error,
		}
	}
	return nil
}

func (v View) HasResults() bool {
	return len(v.Results) > 0
}

func (v View) HasError() bool {
	return v.Error != ""
}

func (v View) Fullscreen() bool {
	return v.DisplayMode == globals.DisplayModeFullscreen
}

// Truncated reports whether upstream matched more tracks than were returned.
func (v View) Truncated() bool {
	return v.HasResults() && v.Total != nil && len(v.Results) < *v.Total
}

// ContainerStyle sizes the widget to the host's constraints.
func (v View) ContainerStyle() template.CSS {
	var parts []string
	if v.HasHeight {
		height := strconv.FormatFloat(v.MaxHeight, 'f', -1, 64)
		parts = append(parts, fmt.Sprintf("max-height: %vpx", height))
		if v.Fullscreen() {
			parts = append(parts, fmt.Sprintf("height: %vpx", height))
		}
	}
	if v.Fullscreen() {
		parts = append(parts, "overflow: auto")
	}
	return template.CSS(strings.Join(parts, "; "))
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatCount groups digits in threes, e.g. 1234567 becomes 1,234,567.
func FormatCount(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.Itoa(n)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + b.String()
}
