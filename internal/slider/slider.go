package slider

import (
	"strings"
	"time"
)

// Slider is a homepage hero slide. Styling is merged in from the key-value
// store and is never persisted with the row.
type Slider struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Subtitle   *string   `json:"subtitle"`
	ImageURL   string    `json:"imageUrl"`
	ButtonText *string   `json:"buttonText"`
	ButtonLink *string   `json:"buttonLink"`
	Order      int       `json:"order"`
	IsActive   bool      `json:"isActive"`
	Styling    *Styling  `json:"styling,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Styling is the call-to-action button look.
type Styling struct {
	ButtonStyle string `json:"buttonStyle"`
	ButtonSize  string `json:"buttonSize"`
	ButtonClass string `json:"buttonClass"`
}

var (
	buttonStyles = map[string]bool{"default": true, "destructive": true, "outline": true, "secondary": true, "ghost": true, "link": true}
	buttonSizes  = map[string]bool{"default": true, "sm": true, "lg": true, "icon": true}
)

type Input struct {
	Title       string  `json:"title"`
	Subtitle    *string `json:"subtitle"`
	ImageURL    string  `json:"imageUrl"`
	ButtonText  *string `json:"buttonText"`
	ButtonLink  *string `json:"buttonLink"`
	Order       *int    `json:"order"`
	IsActive    *bool   `json:"isActive"`
	ButtonStyle *string `json:"buttonStyle"`
	ButtonSize  *string `json:"buttonSize"`
	ButtonClass *string `json:"buttonClass"`
}

func (in Input) Validate() map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		errs["title"] = "Title is required"
	}
	if strings.TrimSpace(in.ImageURL) == "" {
		errs["imageUrl"] = "Image URL is required"
	}
	if in.ButtonStyle != nil && *in.ButtonStyle != "" && !buttonStyles[*in.ButtonStyle] {
		errs["buttonStyle"] = "Unknown button style"
	}
	if in.ButtonSize != nil && *in.ButtonSize != "" && !buttonSizes[*in.ButtonSize] {
		errs["buttonSize"] = "Unknown button size"
	}
	return errs
}

// styling returns the styling carried by the input, or nil when none of the
// fields were sent.
func (in Input) styling() *Styling {
	if in.ButtonStyle == nil && in.ButtonSize == nil && in.ButtonClass == nil {
		return nil
	}
	st := &Styling{ButtonStyle: "default", ButtonSize: "default"}
	if in.ButtonStyle != nil && *in.ButtonStyle != "" {
		st.ButtonStyle = *in.ButtonStyle
	}
	if in.ButtonSize != nil && *in.ButtonSize != "" {
		st.ButtonSize = *in.ButtonSize
	}
	if in.ButtonClass != nil {
		st.ButtonClass = *in.ButtonClass
	}
	return st
}

// Position assigns a display order to one slider.
type Position struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}
