package widget

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sync"

	"deezer-search-widget/pkg/globals"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html.tmpl
var embedded embed.FS

const templatePattern = "*.html.tmpl"

// Shell is the data for the standalone widget page.
type Shell struct {
	Title     string
	BaseURL   string
	EventType string
	Keys      []globals.Key
	Content   template.HTML
}

// Renderer executes the widget templates. Templates come from the embedded
// set unless Dir is given, in which case Watch reloads them on change.
type Renderer struct {
	dir  string
	mu   sync.RWMutex
	tmpl *template.Template
}

func NewRenderer(dir string) (*Renderer, error) {
	r := &Renderer{dir: dir}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) Reload() error {
	tmpl, err := r.parse()
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.tmpl = tmpl
	r.mu.Unlock()
	return nil
}

func (r *Renderer) parse() (*template.Template, error) {
	base := template.New("widget").Funcs(template.FuncMap{
		"duration": FormatDuration,
		"count":    FormatCount,
	})
	if r.dir == "" {
		return base.ParseFS(embedded, "templates/"+templatePattern)
	}
	matches, err := filepath.Glob(filepath.Join(r.dir, templatePattern))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no templates matching %v in %v", templatePattern, r.dir)
	}
	return base.ParseFiles(matches...)
}

// Render writes the results fragment for v.
func (r *Renderer) Render(w io.Writer, v View) error {
	return r.execute(w, "results", v)
}

// RenderString is Render into a string, for transports that frame HTML.
func (r *Renderer) RenderString(v View) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderShell writes the full widget page with v as its initial content.
func (r *Renderer) RenderShell(w io.Writer, baseURL string, v View) error {
	content, err := r.RenderString(v)
	if err != nil {
		return err
	}
	return r.execute(w, "shell", Shell{
		Title:     "Deezer Search",
		BaseURL:   baseURL,
		EventType: globals.SetGlobalsEventType,
		Keys: []globals.Key{
			globals.KeyTheme,
			globals.KeyDisplayMode,
			globals.KeyMaxHeight,
			globals.KeyToolOutput,
		},
		Content: template.HTML(content),
	})
}

// Page renders the shell as a complete html document, the form hosts
// expect for a widget template resource.
func (r *Renderer) Page(baseURL string, v View) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("<html>")
	if err := r.RenderShell(&buf, baseURL, v); err != nil {
		return "", err
	}
	buf.WriteString("</html>")
	return buf.String(), nil
}

func (r *Renderer) execute(w io.Writer, name string, data interface{}) error {
	r.mu.RLock()
	tmpl := r.tmpl
	r.mu.RUnlock()

	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("error rendering %v: %w", name, err)
	}
	return nil
}

// Watch reloads templates from the override directory whenever a file in it
// changes. A failed reload keeps the previous templates. It blocks until ctx
// is done.
func (r *Renderer) Watch(ctx context.Context) error {
	if r.dir == "" {
		return errors.New("no template directory to watch")
	}
	if _, err := os.Stat(r.dir); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logrus.WithError(err).Error("Error closing template watcher")
		}
	}()

	if err := watcher.Add(r.dir); err != nil {
		return fmt.Errorf("failed to watch %v: %w", r.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := r.Reload(); err != nil {
				logrus.WithError(err).WithField("file", event.Name).Error("Error reloading widget templates")
				continue
			}
			logrus.WithField("file", event.Name).Info("Reloaded widget templates")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logrus.WithError(err).Error("Template watcher error")
		}
	}
}
