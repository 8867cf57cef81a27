package api

import (
	"context"
	"fmt"
	"time"

	"deezer-search-widget/pkg/config"
	"deezer-search-widget/pkg/mcp"
	"deezer-search-widget/pkg/models"
	"deezer-search-widget/pkg/service"
	"deezer-search-widget/pkg/widget"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

const widgetMimeType = "text/html+skybridge"

var now = time.Now

type contentWidget struct {
	ID           string
	Title        string
	TemplateURI  string
	Invoking     string
	Invoked      string
	Description  string
	WidgetDomain string
}

func deezerWidget(cfg *config.Config) contentWidget {
	return contentWidget{
		ID:           "deezer_search",
		Title:        "Deezer Search",
		TemplateURI:  "ui://widget/deezer-template.html",
		Invoking:     "Searching Deezer...",
		Invoked:      "Search completed",
		Description:  "Search for tracks on Deezer",
		WidgetDomain: cfg.WidgetDomain,
	}
}

func widgetMeta(w contentWidget) sdk.Meta {
	return sdk.Meta{
		"openai/outputTemplate":          w.TemplateURI,
		"openai/toolInvocation/invoking": w.Invoking,
		"openai/toolInvocation/invoked":  w.Invoked,
		"openai/widgetAccessible":        false,
		"openai/resultCanProduceWidget":  true,
	}
}

const searchDescription = "Search for music tracks on Deezer. Supports basic search (e.g., 'eminem') and advanced search with filters " +
	"(e.g., 'artist:\"aloe blacc\" track:\"i need a dollar\"'). You can filter by artist, album, track, label, " +
	"duration (dur_min, dur_max), and BPM (bpm_min, bpm_max)."

func searchInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": `Search query. Can be a simple text search or advanced search with filters like artist:"name" album:"title" track:"song" dur_min:300 bpm_max:200`,
			},
			"strict": map[string]interface{}{
				"type":        "boolean",
				"description": "Disable fuzzy search mode for exact matches",
			},
			"order": map[string]interface{}{
				"type":        "string",
				"enum":        orderNames(),
				"description": "Sort order for results",
			},
		},
		"required":             []string{"query"},
		"additionalProperties": false,
	}
}

func registerDeezerWidget(server *mcp.Server, cfg *config.Config, searcher service.Searcher, renderer *widget.Renderer) {
	w := deezerWidget(cfg)

	server.AddResource(&sdk.Resource{
		URI:         w.TemplateURI,
		Name:        "deezer-widget",
		Title:       w.Title,
		Description: w.Description,
		MIMEType:    widgetMimeType,
		Meta: sdk.Meta{
			"openai/widgetDescription":   w.Description,
			"openai/widgetPrefersBorder": true,
		},
	}, widgetTemplate(cfg, w, renderer))

	sdk.AddTool(server.Server, &sdk.Tool{
		Name:        w.ID,
		Title:       w.Title,
		Description: searchDescription,
		InputSchema: searchInputSchema(),
		Meta:        widgetMeta(w),
	}, searchDeezer(searcher, w))
}

func widgetTemplate(cfg *config.Config, w contentWidget, renderer *widget.Renderer) sdk.ResourceHandler {
	return func(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
		html, err := renderer.Page(cfg.BaseURL, widget.View{Embedded: true})
		if err != nil {
			logrus.WithError(err).Error("Error rendering widget template")
			return nil, err
		}
		return &sdk.ReadResourceResult{Contents: []*sdk.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: widgetMimeType,
			Text:     html,
			Meta: sdk.Meta{
				"openai/widgetDescription":   w.Description,
				"openai/widgetPrefersBorder": true,
				"openai/widgetDomain":        w.WidgetDomain,
				"openai/widgetCSP": map[string]interface{}{
					"connect_domains":  []string{cfg.BaseURL},
					"resource_domains": []string{cfg.BaseURL, "https://*.dzcdn.net"},
				},
			},
		}}}, nil
	}
}

// searchArguments has already been checked against searchInputSchema when
// the handler runs.
type searchArguments struct {
	Query  string             `json:"query"`
	Strict *bool              `json:"strict,omitempty"`
	Order  models.SearchOrder `json:"order,omitempty"`
}

func searchDeezer(searcher service.Searcher, w contentWidget) sdk.ToolHandlerFor[searchArguments, any] {
	return func(ctx context.Context, req *sdk.CallToolRequest, args searchArguments) (*sdk.CallToolResult, any, error) {
		strict := args.Strict != nil && *args.Strict
		timestamp := now().UTC().Format(time.RFC3339Nano)

		results, err := searcher.Search(ctx, args.Query, strict, args.Order)
		if err != nil {
			logrus.WithError(err).WithField("query", args.Query).Error("Error searching Deezer")
			return &sdk.CallToolResult{
				Content: []sdk.Content{&sdk.TextContent{Text: fmt.Sprintf("Error searching Deezer: %v", err)}},
				Meta:    widgetMeta(w),
			}, models.SearchFailure{
				Query:     args.Query,
				Error:     err.Error(),
				Timestamp: timestamp,
			}, nil
		}

		tracks := results.Data
		if tracks == nil {
			tracks = []models.Track{}
		}
		return &sdk.CallToolResult{
			Content: []sdk.Content{&sdk.TextContent{Text: fmt.Sprintf(`Found %d tracks for "%v"`, results.Total, args.Query)}},
			Meta:    widgetMeta(w),
		}, models.SearchResult{
			Query:     args.Query,
			Strict:    args.Strict,
			Order:     args.Order,
			Results:   tracks,
			Total:     results.Total,
			Timestamp: timestamp,
		}, nil
	}
}

func orderNames() []string {
	names := make([]string, 0, len(models.SearchOrders))
	for _, o := range models.SearchOrders {
		names = append(names, string(o))
	}
	return names
}
