// Package notification contains the public domain models for the
// notification dispatcher: the persisted notification record and the
// platform-neutral push message built from it.
package notification

// Record is the notification document as written by the app into the
// notifications collection. Outcome fields are written back by the dispatcher.
type Record struct {
	FCMToken string            `firestore:"fcmToken,omitempty" json:"fcmToken,omitempty"`
	Title    string            `firestore:"title,omitempty" json:"title,omitempty"`
	Body     string            `firestore:"body,omitempty" json:"body,omitempty"`
	Type     string            `firestore:"type,omitempty" json:"type,omitempty"`
	Data     map[string]string `firestore:"data,omitempty" json:"data,omitempty"`
	UserID   string            `firestore:"userId,omitempty" json:"userId,omitempty"`
}

// Content is the user-visible part of a push message.
type Content struct {
	Title string
	Body  string
}

// AndroidConfig carries the Android-specific delivery options.
type AndroidConfig struct {
	Priority string
	Sound    string
	Icon     string
	Color    string
}

// Message is a single-device push message, independent of the delivery SDK.
type Message struct {
	Token   string
	Content Content
	Data    map[string]string
	Android AndroidConfig
}

// Presentation holds the fixed fallbacks and Android hints applied when
// building a Message.
type Presentation struct {
	DefaultTitle string
	Sound        string
	Icon         string
	Color        string
}

const (
	DefaultTitle = "ReUsa Honduras"
	DefaultType  = "general"
	DefaultSound = "default"
	DefaultIcon  = "@mipmap/ic_launcher"
	DefaultColor = "#4CAF50"

	PriorityHigh = "high"
)

// DefaultPresentation returns the presentation used when nothing is configured.
func DefaultPresentation() Presentation {
	return Presentation{
		DefaultTitle: DefaultTitle,
		Sound:        DefaultSound,
		Icon:         DefaultIcon,
		Color:        DefaultColor,
	}
}

// BuildMessage maps a record onto a push message.
// Entries of r.Data are copied after the default "type" key and so override it.
func BuildMessage(r Record, p Presentation) Message {
	title := r.Title
	if title == "" {
		title = p.DefaultTitle
	}

	msgType := r.Type
	if msgType == "" {
		msgType = DefaultType
	}
	data := make(map[string]string, len(r.Data)+1)
	data["type"] = msgType
	for k, v := range r.Data {
		data[k] = v
	}

	return Message{
		Token:   r.FCMToken,
		Content: Content{Title: title, Body: r.Body},
		Data:    data,
		Android: AndroidConfig{
			Priority: PriorityHigh,
			Sound:    p.Sound,
			Icon:     p.Icon,
			Color:    p.Color,
		},
	}
}
