package api

import "time"

// CreateLinkRequest is the request for shortening a URL.
type CreateLinkRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"url" maxLength:"2048"`
	}
}

// LinkBody describes one stored link.
type LinkBody struct {
	Code      string    `doc:"The short code"                     example:"Ab3xY9z"                              json:"code"`
	ShortURL  string    `doc:"The full short link"                example:"http://localhost:8080/Ab3xY9z"        json:"short_url"`
	LongURL   string    `doc:"The URL the short link redirects to" example:"https://example.com/very/long/path" json:"long_url"`
	CreatedAt time.Time `doc:"When the link was first stored"      json:"created_at"`
	Reused    bool      `doc:"True when the URL had already been shortened" json:"reused"`
}

// CreateLinkResponse is 201 for a new link and 200 when an existing one is reused.
type CreateLinkResponse struct {
	Status   int
	Location string `doc:"The short link" header:"Location"`
	Body     LinkBody
}

// GetLinkRequest looks a link up by its code.
type GetLinkRequest struct {
	Code string `doc:"The short code" example:"Ab3xY9z" maxLength:"32" minLength:"1" path:"code" pattern:"^[0-9A-Za-z]+$"`
}

// GetLinkResponse returns the stored link.
type GetLinkResponse struct {
	Body LinkBody
}
