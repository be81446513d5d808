package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/harentsoaR/medbook-api/pkg/logging"
)

// ErrEmailDelivery wraps every provider failure so handlers can answer 502.
var ErrEmailDelivery = errors.New("email delivery failed")

// EmailMessage is a single outgoing e-mail.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// EmailSender delivers e-mail through some provider.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// Sender identity shared by every provider.
type Sender struct {
	Email string
	Name  string
}

// sendGridClient is the part of *sendgrid.Client we call.
type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridSender struct {
	client sendGridClient
	from   Sender
	logger *logging.Logger
}

func NewSendGridSender(apiKey string, from Sender, logger *logging.Logger) *SendGridSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{client: sendgrid.NewSendClient(apiKey), from: from, logger: logger}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	text := msg.Text
	if text == "" {
		text = msg.Subject
	}
	html := msg.HTML
	if html == "" {
		html = template.HTMLEscapeString(text)
	}
	message := mail.NewSingleEmail(
		mail.NewEmail(s.from.Name, s.from.Email),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		text, html,
	)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return fmt.Errorf("%w: sendgrid: %v", ErrEmailDelivery, err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected message", "status", resp.StatusCode, "to", msg.To)
		return fmt.Errorf("%w: sendgrid status %d", ErrEmailDelivery, resp.StatusCode)
	}
	s.logger.Info("email sent", "provider", "sendgrid", "to", msg.To, "subject", msg.Subject)
	return nil
}

// SESAPI is the part of *sesv2.Client we call.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESSender struct {
	client SESAPI
	from   Sender
	logger *logging.Logger
}

func NewSESSender(client SESAPI, from Sender, logger *logging.Logger) *SESSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &SESSender{client: client, from: from, logger: logger}
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	body := &sestypes.Body{}
	if msg.Text != "" {
		body.Text = utf8Content(msg.Text)
	}
	if msg.HTML != "" {
		body.Html = utf8Content(msg.HTML)
	}
	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.from.Name, s.from.Email)),
		Destination:      &sestypes.Destination{ToAddresses: []string{msg.To}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{Subject: utf8Content(msg.Subject), Body: body},
		},
	})
	if err != nil {
		s.logger.Error("ses send failed", "error", err, "to", msg.To)
		return fmt.Errorf("%w: ses: %v", ErrEmailDelivery, err)
	}
	s.logger.Info("email sent", "provider", "ses", "to", msg.To, "message_id", aws.ToString(out.MessageId))
	return nil
}

func utf8Content(s string) *sestypes.Content {
	return &sestypes.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

// LogEmailSender only logs. Used when no provider is configured.
type LogEmailSender struct {
	logger *logging.Logger
}

func NewLogEmailSender(logger *logging.Logger) *LogEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogEmailSender{logger: logger}
}

func (s *LogEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("email not sent, no provider configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

// AppointmentEmail is the payload of an appointment request e-mail pair.
type AppointmentEmail struct {
	PatientEmail string `json:"to" binding:"required,email"`
	PatientName  string `json:"patientName" binding:"required"`
	ClinicName   string `json:"clinicName" binding:"required"`
	ClinicEmail  string `json:"clinicEmail" binding:"required,email"`
	Date         string `json:"appointmentDate" binding:"required"`
	Time         string `json:"appointmentTime" binding:"required"`
	Reason       string `json:"reason"`
	Notes        string `json:"notes"`
}

var (
	clinicRequestTmpl = template.Must(template.New("clinic").Parse(`<h2>New Appointment Request</h2>
<p><strong>Patient Name:</strong> {{.PatientName}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.Time}}</p>
<p><strong>Reason for Visit:</strong> {{.Reason}}</p>
{{if .Notes}}<p><strong>Additional Notes:</strong> {{.Notes}}</p>{{end}}`))

	patientRequestTmpl = template.Must(template.New("patient").Parse(`<h2>Appointment Request Confirmation</h2>
<p>Dear {{.PatientName}},</p>
<p>Your appointment request has been sent to {{.ClinicName}}.</p>
<ul>
<li>Date: {{.Date}}</li>
<li>Time: {{.Time}}</li>
<li>Reason: {{.Reason}}</li>
</ul>
<p>You will receive a confirmation once the clinic approves your appointment.</p>`))
)

// SendAppointmentRequest mails the clinic, then the patient. It stops at the
// first failure.
func SendAppointmentRequest(ctx context.Context, sender EmailSender, e AppointmentEmail) error {
	clinicHTML, err := render(clinicRequestTmpl, e)
	if err != nil {
		return err
	}
	patientHTML, err := render(patientRequestTmpl, e)
	if err != nil {
		return err
	}

	if err := sender.Send(ctx, EmailMessage{
		To:      e.ClinicEmail,
		ToName:  e.ClinicName,
		Subject: "New Appointment Request from " + e.PatientName,
		Text:    fmt.Sprintf("%s requested an appointment on %s at %s.", e.PatientName, e.Date, e.Time),
		HTML:    clinicHTML,
	}); err != nil {
		return err
	}
	return sender.Send(ctx, EmailMessage{
		To:      e.PatientEmail,
		ToName:  e.PatientName,
		Subject: "Appointment Request Confirmation - " + e.ClinicName,
		Text:    fmt.Sprintf("Your appointment request with %s on %s at %s was sent.", e.ClinicName, e.Date, e.Time),
		HTML:    patientHTML,
	})
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("services: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
