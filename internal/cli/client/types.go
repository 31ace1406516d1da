package client

// Document mirrors the API document representation.
type Document struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags,omitempty"`
	Chapter     string   `json:"chapter,omitempty"`
	Section     string   `json:"section,omitempty"`
	Type        string   `json:"type,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
	Status      string   `json:"status"`
	Size        int      `json:"size"`
	IngestedAt  string   `json:"ingested_at"`
	UpdatedAt   string   `json:"updated_at"`
}
