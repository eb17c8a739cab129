package entity

type PointerType string

const (
	PointerDown  PointerType = "down"
	PointerMove  PointerType = "move"
	PointerUp    PointerType = "up"
	PointerLeave PointerType = "leave"
)

type PointerEvent struct {
	Type PointerType `json:"type" binding:"required,oneof=down move up leave"`
	X    float64     `json:"x"`
	Y    float64     `json:"y"`
}

// Texts holds the text content; free mode uses Text only, banner mode Top and Bottom.
type Texts struct {
	Text   string `json:"text"`
	Top    string `json:"top"`
	Bottom string `json:"bottom"`
}

type SessionSnapshot struct {
	ID       string    `json:"id"`
	Mode     Mode      `json:"mode"`
	HasImage bool      `json:"has_image"`
	Width    int       `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
	Texts    Texts     `json:"texts"`
	Style    TextStyle `json:"style"`
	Anchor   *Point    `json:"anchor,omitempty"`
	Dragging bool      `json:"dragging"`
	Revision uint64    `json:"revision"`
	Notice   string    `json:"notice,omitempty"`
}

type CreateSessionRequest struct {
	Mode Mode `json:"mode"`
}

type ModeRequest struct {
	Mode Mode `json:"mode" binding:"required,oneof=free banner"`
}

type ImageURLRequest struct {
	URL string `json:"url" binding:"required,url"`
}
