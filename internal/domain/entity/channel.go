package entity

import "fmt"

// MediaKind distinguishes still images from video clips in the carousel.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// IsValid reports whether k is a known media kind.
func (k MediaKind) IsValid() bool {
	return k == MediaImage || k == MediaVideo
}

// MediaChannel is one entry of the media carousel.
type MediaChannel struct {
	ID     string    `yaml:"id"`
	Kind   MediaKind `yaml:"type"`
	Src    string    `yaml:"src"`
	Title  string    `yaml:"title"`
	Number int       `yaml:"channel"`
}

// Label renders the broadcast-style indicator, e.g. "CH 03".
func (m MediaChannel) Label() string {
	return fmt.Sprintf("CH %02d", m.Number)
}

// Validate checks that a channel can be displayed.
func (m MediaChannel) Validate() error {
	if m.ID == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if !m.Kind.IsValid() {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("must be image or video, got %q", m.Kind)}
	}
	if m.Src == "" {
		return &ValidationError{Field: "src", Message: "src is required"}
	}
	if m.Number <= 0 {
		return &ValidationError{Field: "channel", Message: "channel number must be positive"}
	}
	return nil
}

// defaultMedia is the stock lineup, in channel order.
var defaultMedia = []struct{ file, title string }{
	{"Gemini_Generated_Image_2742nu2742nu2742.png", "When Even Robots Miss the Office"},
	{"Gemini_Generated_Image_7luxtc7luxtc7lux.png", "Employers Looking at AI"},
	{"Gemini_Generated_Image_fsuw0pfsuw0pfsuw.png", "The New Developer Workflow"},
	{"Gemini_Generated_Image_i89kfdi89kfdi89k.png", "Post-Labor Aesthetic"},
	{"Gemini_Generated_Image_p6o0ovp6o0ovp6o0.png", "Training Data Realization"},
	{"Gemini_Generated_Image_riwp0wriwp0wriwp.png", "The Automation Paradox"},
	{"Gemini_Generated_Image_si2dcssi2dcssi2d.png", "Sigma Robot Grindset"},
	{"Gemini_Generated_Image_wduf1kwduf1kwduf.png", "The Great Replacement"},
	{"Gemini_Generated_Image_x9yz0rx9yz0rx9yz.png", "Robot Living Its Best Life"},
	{"Gemini_Generated_Image_z33f80z33f80z33f.png", "Contemplating the Post-Labor Future"},
}

// DefaultMediaChannels returns the stock carousel lineup.
func DefaultMediaChannels() []MediaChannel {
	out := make([]MediaChannel, len(defaultMedia))
	for i, m := range defaultMedia {
		n := i + 1
		out[i] = MediaChannel{
			ID:     fmt.Sprintf("%d", n),
			Kind:   MediaImage,
			Src:    "/images/memes/" + m.file,
			Title:  m.title,
			Number: n,
		}
	}
	return out
}
