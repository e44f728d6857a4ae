package types

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultSlideWidth and DefaultSlideHeight are the nominal canvas every
	// slide reports, whatever the source dimensions were.
	DefaultSlideWidth  = 1920
	DefaultSlideHeight = 1080

	DefaultSlideInterval = 5000 // ms
)

type Slide struct {
	PageNumber int    `json:"page_number"`
	Image      string `json:"image"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Title      string `json:"title,omitempty"`
}

// Presentation is the code-addressable bundle of slides derived from one upload.
type Presentation struct {
	ID              string    `json:"id"`
	ScreenCode      string    `json:"screen_code"`
	UserID          string    `json:"user_id"`
	FileName        string    `json:"file_name"`
	FileSize        int64     `json:"file_size"`
	FileType        string    `json:"file_type"`
	Slides          []Slide   `json:"slides,omitempty"`
	TotalSlides     int       `json:"total_slides"`
	AutoPlay        bool      `json:"auto_play"`
	SlideIntervalMS int       `json:"slide_interval_ms"`
	ArchiveKey      string    `json:"archive_key,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Expired reports whether the retention window has passed at now.
func (p *Presentation) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Title is the file name without its extension.
func (p *Presentation) Title() string {
	return strings.TrimSuffix(p.FileName, filepath.Ext(p.FileName))
}

// SlideView is a slide as the slideshow player consumes it.
type SlideView struct {
	ID    int    `json:"id"`
	Image string `json:"image"`
	Title string `json:"title"`
}

// PresentationView is the resolve payload handed to viewers.
type PresentationView struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	ScreenCode    string      `json:"screenCode"`
	Slides        []SlideView `json:"slides"`
	TotalSlides   int         `json:"totalSlides"`
	CreatedAt     string      `json:"createdAt"`
	ExpiresAt     string      `json:"expiresAt"`
	AutoPlay      bool        `json:"autoPlay"`
	SlideInterval int         `json:"slideInterval"`
}

// View converts a stored presentation to the player payload, applying the
// fixed playback defaults where the presentation does not override them.
func (p *Presentation) View() *PresentationView {
	interval := p.SlideIntervalMS
	if interval <= 0 {
		interval = DefaultSlideInterval
	}

	slides := make([]SlideView, 0, len(p.Slides))
	for _, s := range p.Slides {
		title := s.Title
		if title == "" {
			title = "Slide " + strconv.Itoa(s.PageNumber)
		}
		slides = append(slides, SlideView{ID: s.PageNumber, Image: s.Image, Title: title})
	}

	return &PresentationView{
		ID:            p.ID,
		Title:         p.Title(),
		ScreenCode:    p.ScreenCode,
		Slides:        slides,
		TotalSlides:   p.TotalSlides,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:     p.ExpiresAt.UTC().Format(time.RFC3339),
		AutoPlay:      p.AutoPlay,
		SlideInterval: interval,
	}
}
