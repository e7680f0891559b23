package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/rs/zerolog/log"
)

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: {{.Color}}; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { padding: 20px; background: #f9f9f9; border: 1px solid #ddd; border-top: none; }
        .item { padding: 8px; background: white; margin: 5px 0; border-radius: 3px; }
        .footer { padding: 15px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h2>{{.Heading}}</h2></div>
        <div class="content">
            <p>{{.Message}}</p>
            {{range .Items}}<div class="item">{{.}}</div>{{end}}
            {{if .Link}}<p><a href="{{.Link}}">Open the deck</a></p>{{end}}
        </div>
        <div class="footer"><p>Deck Generator</p></div>
    </div>
</body>
</html>`))

type emailView struct {
	Color   string
	Heading string
	Message string
	Items   []string
	Link    string
}

// Notifier emails requesters when their generation finishes
type Notifier struct {
	mailer  Mailer
	baseURL string
}

// NewNotifier creates a new notifier; deck links are built from baseURL
func NewNotifier(mailer Mailer, baseURL string) *Notifier {
	return &Notifier{mailer: mailer, baseURL: strings.TrimRight(baseURL, "/")}
}

// DeckReady announces a finished deck with its slide titles
func (n *Notifier) DeckReady(ctx context.Context, to, jobID string, d *deck.FinalDeck) error {
	items := make([]string, 0, len(d.Slides))
	for _, s := range d.Slides {
		items = append(items, fmt.Sprintf("%d. %s", s.SlideNumber, s.Title))
	}
	return n.send(ctx, to, "Your deck is ready: "+d.Title, emailView{
		Color:   "#2563EB",
		Heading: d.Title,
		Message: fmt.Sprintf("%d slides, data quality score %d/100.", len(d.Slides), d.Metadata.QualityScore),
		Items:   items,
		Link:    n.baseURL + "/decks/" + jobID,
	}, jobID)
}

// GenerationFailed reports a generation that will not be retried
func (n *Notifier) GenerationFailed(ctx context.Context, to, jobID string, cause error) error {
	return n.send(ctx, to, "Deck generation failed", emailView{
		Color:   "#DC2626",
		Heading: "Deck generation failed",
		Message: "Generation " + jobID + " stopped with an error.",
		Items:   []string{cause.Error()},
	}, jobID)
}

func (n *Notifier) send(ctx context.Context, to, subject string, view emailView, jobID string) error {
	if n.mailer == nil || to == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, view); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}
	if err := n.mailer.Send(ctx, Message{To: to, Subject: subject, HTML: buf.String()}); err != nil {
		return err
	}
	log.Info().Str("job_id", jobID).Str("provider", n.mailer.Name()).Msg("📧 Notification sent")
	return nil
}
