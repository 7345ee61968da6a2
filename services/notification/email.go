package notification

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"time"

	"go.uber.org/zap"
)

var customerTmpl = template.Must(template.New("customer").Parse(`<div style="font-family:system-ui,Segoe UI,Roboto,Arial,sans-serif;line-height:1.5">
  <p>Hi there,</p>
  <p>Your appointment with Blueridge AI Agency is confirmed.</p>
  <ul>
    <li><strong>Topic:</strong> {{.Title}}</li>
    <li><strong>When:</strong> {{.When}} to {{.Until}} ({{.Zone}})</li>
    {{if .Location}}<li><strong>Location:</strong> {{.Location}}</li>{{end}}
  </ul>
  <p>Need to reschedule? Reply to this email and we'll help.</p>
  <p>Blueridge AI Agency</p>
</div>`))

var ownerTmpl = template.Must(template.New("owner").Parse(`<div style="font-family:system-ui,Segoe UI,Roboto,Arial,sans-serif;line-height:1.5">
  <p>New booking received.</p>
  <ul>
    <li><strong>Client:</strong> {{.CustomerName}} &lt;{{.CustomerEmail}}&gt;</li>
    <li><strong>Topic:</strong> {{.Title}}</li>
    <li><strong>When:</strong> {{.When}} to {{.Until}} ({{.Zone}})</li>
  </ul>
  {{if .Description}}<pre style="white-space:pre-wrap">{{.Description}}</pre>{{end}}
</div>`))

const (
	longWhen  = "Monday, January 2, 2006 at 3:04 PM"
	shortWhen = "3:04 PM"
)

// DefaultEmailService renders booking emails and hands them to a Mailer.
type DefaultEmailService struct {
	mailer Mailer
	from   string
	loc    *time.Location
	logger *zap.Logger
}

// NewEmailService returns a service sending as from. A nil mailer leaves
// the service unconfigured.
func NewEmailService(mailer Mailer, from string, loc *time.Location, logger *zap.Logger) *DefaultEmailService {
	if loc == nil {
		loc = time.UTC
	}
	return &DefaultEmailService{mailer: mailer, from: from, loc: loc, logger: logger}
}

func (s *DefaultEmailService) Configured() bool {
	if s == nil || s.mailer == nil {
		return false
	}
	if m, ok := s.mailer.(*SMTPMailer); ok {
		return m.Configured()
	}
	return true
}

func (s *DefaultEmailService) SendBookingConfirmation(ctx context.Context, in BookingEmail) error {
	if in.To == "" {
		return errors.New("missing recipient")
	}
	html, err := render(customerTmpl, map[string]string{
		"Title":    in.Title,
		"When":     in.Start.In(s.loc).Format(longWhen),
		"Until":    in.End.In(s.loc).Format(shortWhen),
		"Zone":     in.Start.In(s.loc).Format("MST"),
		"Location": in.Location,
	})
	if err != nil {
		return err
	}
	msg := Message{From: s.from, To: []string{in.To}, Subject: "Confirmed: " + in.Title, HTML: html}
	if in.ICS != "" {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename:    "invite.ics",
			ContentType: `text/calendar; charset="utf-8"; method=REQUEST`,
			Data:        []byte(in.ICS),
		})
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return err
	}
	s.logger.Debug("Booking confirmation sent", zap.String("to", in.To))
	return nil
}

func (s *DefaultEmailService) SendOwnerNotification(ctx context.Context, in OwnerEmail) error {
	if in.To == "" {
		return errors.New("missing recipient")
	}
	html, err := render(ownerTmpl, map[string]string{
		"CustomerName":  in.CustomerName,
		"CustomerEmail": in.CustomerEmail,
		"Title":         in.Title,
		"Description":   in.Description,
		"When":          in.Start.In(s.loc).Format(longWhen),
		"Until":         in.End.In(s.loc).Format(shortWhen),
		"Zone":          in.Start.In(s.loc).Format("MST"),
	})
	if err != nil {
		return err
	}
	msg := Message{From: s.from, To: []string{in.To}, Subject: "New booking: " + in.Title, HTML: html}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return err
	}
	s.logger.Debug("Owner notification sent", zap.String("to", in.To))
	return nil
}

func render(t *template.Template, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
