package models

type Artist struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Link          string `json:"link"`
	Picture       string `json:"picture"`
	PictureSmall  string `json:"picture_small"`
	PictureMedium string `json:"picture_medium"`
	PictureBig    string `json:"picture_big"`
	PictureXL     string `json:"picture_xl"`
}

type Album struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Cover       string `json:"cover"`
	CoverSmall  string `json:"cover_small"`
	CoverMedium string `json:"cover_medium"`
	CoverBig    string `json:"cover_big"`
	CoverXL     string `json:"cover_xl"`
}

// Track mirrors a track object from the Deezer search endpoint.
type Track struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	TitleShort     string `json:"title_short"`
	TitleVersion   string `json:"title_version,omitempty"`
	Link           string `json:"link"`
	Duration       int    `json:"duration"`
	Rank           int64  `json:"rank"`
	ExplicitLyrics bool   `json:"explicit_lyrics"`
	Preview        string `json:"preview"`
	Artist         Artist `json:"artist"`
	Album          Album  `json:"album"`
}

// UpstreamError is the error object Deezer embeds in a 200 response.
type UpstreamError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type SearchResponse struct {
	Data  []Track        `json:"data"`
	Total int            `json:"total"`
	Next  string         `json:"next,omitempty"`
	Error *UpstreamError `json:"error,omitempty"`
}

// SearchResult is the structured content of a successful search. Results
// is always present, even when nothing matched.
type SearchResult struct {
	Query     string      `json:"query"`
	Strict    *bool       `json:"strict,omitempty"`
	Order     SearchOrder `json:"order,omitempty"`
	Results   []Track     `json:"results"`
	Total     int         `json:"total"`
	Timestamp string      `json:"timestamp"`
}

// SearchFailure is the structured content of a search the upstream refused.
type SearchFailure struct {
	Query     string `json:"query"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// ToolOutput is the widget's view of either payload.
type ToolOutput struct {
	Query   string  `json:"query"`
	Results []Track `json:"results"`
	Total   *int    `json:"total"`
	Error   string  `json:"error"`
}
