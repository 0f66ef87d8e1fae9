package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"yt-notes/internal/models"
	"yt-notes/shared/config"
)

type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

// SendNote delivers a generated note as an HTML email.
func (s *Sender) SendNote(note *models.GeneratedNote, videoURL string) error {
	if note == nil {
		return fmt.Errorf("note cannot be nil")
	}

	subject := fmt.Sprintf("Study Notes: %s", note.VideoTitle)

	body, err := s.generateEmailBody(note, videoURL)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	return s.sendViaSMTP(subject, htmlBody)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

type noteEmailData struct {
	Note     *models.GeneratedNote
	VideoURL string
}

func (s *Sender) generateEmailBody(note *models.GeneratedNote, videoURL string) (string, error) {
	tmpl, err := template.New("note").Parse(noteTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, noteEmailData{Note: note, VideoURL: videoURL}); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const noteTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  body { font-family: -apple-system, Helvetica, Arial, sans-serif; color: #1a1a1a; max-width: 680px; margin: 0 auto; padding: 16px; }
  h1 { font-size: 20px; }
  h2 { font-size: 16px; color: #444; margin-top: 24px; }
  .channel { color: #666; font-size: 14px; }
  .summary { line-height: 1.5; }
  .ts-time { font-weight: bold; font-family: monospace; }
  a { color: #0b57d0; }
</style>
</head>
<body>
  <h1>{{.Note.VideoTitle}}</h1>
  <p class="channel">{{.Note.ChannelName}} &middot; <a href="{{.VideoURL}}">Watch on YouTube</a></p>

  <h2>Summary</h2>
  <p class="summary">{{.Note.Summary}}</p>

  <h2>Key Points</h2>
  <ul>
    {{range .Note.KeyPoints}}<li>{{.}}</li>
    {{end}}
  </ul>

  <h2>Timestamps</h2>
  <ul>
    {{range .Note.Timestamps}}<li><span class="ts-time">{{.Time}}</span> {{.Description}}</li>
    {{end}}
  </ul>
</body>
</html>`
