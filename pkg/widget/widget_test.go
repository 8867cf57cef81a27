package widget

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"deezer-search-widget/pkg/globals"
	"deezer-search-widget/pkg/models"

	"github.com/stretchr/testify/require"
)

func testTracks() []models.Track {
	return []models.Track{
		{
			ID:             1109731,
			Title:          "Lose Yourself",
			Link:           "https://www.deezer.com/track/1109731",
			Duration:       326,
			ExplicitLyrics: true,
			Preview:        "https://cdns-preview-1.dzcdn.net/stream/lose-yourself.mp3",
			Artist:         models.Artist{ID: 13, Name: "Eminem", Link: "https://www.deezer.com/artist/13"},
			Album:          models.Album{ID: 119606, Title: "Curtain Call", CoverMedium: "https://e-cdns-images.dzcdn.net/cover.jpg"},
		},
		{
			ID:       916424,
			Title:    "Without Me",
			Link:     "https://www.deezer.com/track/916424",
			Duration: 290,
			Artist:   models.Artist{ID: 13, Name: "Eminem", Link: "https://www.deezer.com/artist/13"},
			Album:    models.Album{ID: 103248, Title: "The Eminem Show"},
		},
	}
}

func intPtr(i int) *int {
	return &i
}

func TestWidget_FormatDuration(t *testing.T) {
	require.Equal(t, "0:00", FormatDuration(0))
	require.Equal(t, "0:09", FormatDuration(9))
	require.Equal(t, "5:26", FormatDuration(326))
	require.Equal(t, "61:01", FormatDuration(3661))
}

func TestWidget_FormatCount(t *testing.T) {
	require.Equal(t, "0", FormatCount(0))
	require.Equal(t, "999", FormatCount(999))
	require.Equal(t, "1,000", FormatCount(1000))
	require.Equal(t, "1,234,567", FormatCount(1234567))
	require.Equal(t, "-12,345", FormatCount(-12345))
}

func TestWidget_SearchResultFrom_ShouldReturnNilWithoutSearchData(t *testing.T) {
	require.Nil(t, SearchResultFrom(nil))
	require.Nil(t, SearchResultFrom(map[string]interface{}{"unrelated": true}))
}

func TestWidget_SearchResultFrom_ShouldUnwrapStructuredContent(t *testing.T) {
	result := SearchResultFrom(map[string]interface{}{
		"result": map[string]interface{}{
			"structuredContent": map[string]interface{}{
				"query":   "eminem",
				"total":   float64(300),
				"results": []interface{}{map[string]interface{}{"id": float64(1), "title": "Stan"}},
			},
		},
	})
	require.NotNil(t, result)
	require.Equal(t, "eminem", result.Query)
	require.Equal(t, 300, *result.Total)
	require.Equal(t, "Stan", result.Results[0].Title)
}

func TestWidget_SearchResultFrom_ShouldAcceptUnwrappedContent(t *testing.T) {
	result := SearchResultFrom(map[string]interface{}{"query": "eminem", "error": "Deezer API error: Bad Gateway"})
	require.NotNil(t, result)
	require.Equal(t, "eminem", result.Query)
	require.Equal(t, "Deezer API error: Bad Gateway", result.Error)
	require.Nil(t, result.Total)
}

func TestWidget_NewView_ShouldReadGlobals(t *testing.T) {
	store := globals.NewStore(globals.Globals{
		globals.KeyTheme:       globals.ThemeDark,
		globals.KeyDisplayMode: globals.DisplayModeFullscreen,
		globals.KeyMaxHeight:   float64(600),
		globals.KeyToolOutput:  map[string]interface{}{"query": "daft punk", "total": float64(2)},
	})

	v := NewView(store)
	require.True(t, v.Embedded)
	require.Equal(t, globals.ThemeDark, v.Theme)
	require.True(t, v.Fullscreen())
	require.Equal(t, "daft punk", v.Query)
	require.Equal(t, 2, *v.Total)
	require.Equal(t, "max-height: 600px; height: 600px; overflow: auto", string(v.ContainerStyle()))
}

func TestWidget_NewView_ShouldBeEmptyWithoutHost(t *testing.T) {
	var store globals.Store

	v := NewView(&store)
	require.False(t, v.Embedded)
	require.False(t, v.HasResults())
	require.False(t, v.HasError())
	require.Equal(t, "", string(v.ContainerStyle()))
}

func TestWidget_Render_ShouldShowEmptyStateWithoutResults(t *testing.T) {
	renderer, err := NewRenderer("")
	require.Nil(t, err)

	html, err := renderer.RenderString(View{})
	require.Nil(t, err)
	require.Contains(t, html, "No search results yet")
	require.Contains(t, html, "Use ChatGPT to search for music!")
	require.Contains(t, html, `aria-label="Enter fullscreen"`)
	require.NotContains(t, html, `class="results"`)
}

func TestWidget_Render_ShouldShowResultList(t *testing.T) {
	renderer, err := NewRenderer("")
	require.Nil(t, err)

	html, err := renderer.RenderString(View{
		Query:    "eminem",
		Total:    intPtr(1234),
		Results:  testTracks(),
		Embedded: true,
	})
	require.Nil(t, err)
	require.NotContains(t, html, "No search results yet")
	require.NotContains(t, html, "Use ChatGPT to search for music!")
	require.Contains(t, html, "1,234 results found")
	require.Contains(t, html, "Lose Yourself")
	require.Contains(t, html, "Without Me")
	require.Contains(t, html, "5:26")
	require.Contains(t, html, "4:50")
	require.Contains(t, html, `<span class="explicit">E</span>`)
	require.Equal(t, 1, strings.Count(html, "<audio"))
	require.Contains(t, html, "Showing 2 of 1234 results")
}

func TestWidget_Render_ShouldOmitFooterWhenAllResultsShown(t *testing.T) {
	renderer, err := NewRenderer("")
	require.Nil(t, err)

	html, err := renderer.RenderString(View{Query: "eminem", Total: intPtr(2), Results: testTracks()})
	require.Nil(t, err)
	require.NotContains(t, html, "Showing")
}

func TestWidget_Render_ShouldShowErrorInsteadOfEmptyState(t *testing.T) {
	renderer, err := NewRenderer("")
	require.Nil(t, err)

	html, err := renderer.RenderString(View{Query: "eminem", Error: "Deezer API error: Bad Gateway"})
	require.Nil(t, err)
	require.Contains(t, html, "Deezer API error: Bad Gateway")
	require.NotContains(t, html, "No search results yet")
}

func TestWidget_Render_ShouldEscapeUpstreamText(t *testing.T) {
	renderer, err := NewRenderer("")
	require.Nil(t, err)

	tracks := testTracks()
	tracks[0].Title = "<script>alert(1)</script>"

	html, err := renderer.RenderString(View{Results: tracks})
	require.Nil(t, err)
	require.NotContains(t, html, "<script>alert(1)</script>")
	require.Contains(t, html, "&lt;script&gt;")
}

func TestWidget_Render_ShouldHideFullscreenButtonInFullscreen(t *testing.T) {
	renderer, err := NewRenderer("")
	require.Nil(t, err)

	html, err := renderer.RenderString(View{DisplayMode: globals.DisplayModeFullscreen, MaxHeight: 500, HasHeight: true})
	require.Nil(t, err)
	require.NotContains(t, html, "Enter fullscreen")
	require.Contains(t, html, "max-height: 500px")
}

func TestWidget_Page_ShouldWrapShellInHtml(t *testing.T) {
	renderer, err := NewRenderer("")
	require.Nil(t, err)

	page, err := renderer.Page("https://widget.example.com/", View{})
	require.Nil(t, err)
	require.True(t, strings.HasPrefix(page, "<html>"))
	require.True(t, strings.HasSuffix(page, "</html>"))
	require.Contains(t, page, `id="deezer-root"`)
	require.Contains(t, page, "No search results yet")
	require.Contains(t, page, "openai:set_globals")
}

func TestWidget_NewRenderer_ShouldFailWithoutTemplatesInDir(t *testing.T) {
	dir, err := ioutil.TempDir("", "widget")
	require.Nil(t, err)
	defer os.RemoveAll(dir)

	_, err = NewRenderer(dir)
	require.NotNil(t, err)
}

func TestWidget_Watch_ShouldReloadChangedTemplates(t *testing.T) {
	dir, err := ioutil.TempDir("", "widget")
	require.Nil(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "results.html.tmpl")
	require.Nil(t, ioutil.WriteFile(path, []byte(`{{define "results"}}v1{{end}}`), 0o644))

	renderer, err := NewRenderer(dir)
	require.Nil(t, err)

	html, err := renderer.RenderString(View{})
	require.Nil(t, err)
	require.Equal(t, "v1", html)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- renderer.Watch(ctx) }()
	defer func() {
		cancel()
		require.Nil(t, <-done)
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.Nil(t, ioutil.WriteFile(path, []byte(`{{define "results"}}v2{{end}}`), 0o644))

	require.Eventually(t, func() bool {
		html, err := renderer.RenderString(View{})
		return err == nil && html == "v2"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWidget_Watch_ShouldFailWithoutDir(t *testing.T) {
	renderer, err := NewRenderer("")
	require.Nil(t, err)
	require.NotNil(t, renderer.Watch(context.Background()))
}
