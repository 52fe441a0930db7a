package email

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendSchoolAdminCredentials(ctx context.Context, to Recipient, schoolName, username, password, loginURL string) error
	SendPasswordReset(ctx context.Context, to Recipient, token string) error
	SendWelcomeEmail(ctx context.Context, to Recipient) error
}

// Recipient is the addressee of one email.
type Recipient struct {
	Name  string
	Email string
}

// Message is a rendered email ready for a Sender.
type Message struct {
	To      Recipient
	Subject string
	HTML    string
	Text    string
}

// Sender hands a rendered message to a transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Delivery is the outcome of one send, handed to a Recorder.
type Delivery struct {
	Recipient string
	Subject   string
	Content   string
	Sent      bool
	Error     string
	SentAt    time.Time
}

// Recorder persists deliveries. Failures to record are logged, never returned.
type Recorder interface {
	RecordDelivery(ctx context.Context, d Delivery) error
}

// Config holds sender identity and links embedded in templates.
type Config struct {
	SendGridAPIKey string
	FromName       string
	FromAddress    string
	FrontendURL    string
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config   Config
	sender   Sender
	recorder Recorder
	logger   zerolog.Logger
}

// NewEmailService picks SendGrid when an API key is configured, otherwise
// messages are only logged.
func NewEmailService(config Config, recorder Recorder, logger zerolog.Logger) *EmailServiceImpl {
	var sender Sender
	if config.SendGridAPIKey == "" {
		sender = NewLogSender(logger)
	} else {
		sender = NewSendGridSender(config.SendGridAPIKey, config.FromName, config.FromAddress)
	}
	return NewEmailServiceWithSender(config, sender, recorder, logger)
}

// NewEmailServiceWithSender uses the given transport.
func NewEmailServiceWithSender(config Config, sender Sender, recorder Recorder, logger zerolog.Logger) *EmailServiceImpl {
	return &EmailServiceImpl{
		config:   config,
		sender:   sender,
		recorder: recorder,
		logger:   logger,
	}
}

var credentialsTemplate = template.Must(template.New("credentials").Parse(`<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #333;">{{.School}} is approved</h2>
		<p>Hello {{.Name}},</p>
		<p>Your school has been approved on SchoolSphere. Sign in with the administrator account below and change the password after your first login.</p>
		<p>Username: <strong>{{.Username}}</strong><br>Password: <strong>{{.Password}}</strong></p>
		<p><a href="{{.URL}}">{{.URL}}</a></p>
		<p>Best regards,<br>The SchoolSphere Team</p>
	</div>
</body>
</html>`))

var resetTemplate = template.Must(template.New("reset").Parse(`<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #333;">Reset your password</h2>
		<p>Hello {{.Name}},</p>
		<p>We received a request to reset your password. The link below is valid for 24 hours.</p>
		<div style="text-align: center; margin: 30px 0;">
			<a href="{{.URL}}" style="background-color: #4a86e8; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Reset Password</a>
		</div>
		<p>Alternatively, use this code: <strong>{{.Token}}</strong></p>
		<p>If you did not ask for a reset, you can ignore this email.</p>
		<p>Best regards,<br>The SchoolSphere Team</p>
	</div>
</body>
</html>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #333;">Welcome to SchoolSphere!</h2>
		<p>Hello {{.Name}},</p>
		<p>Your account is ready. You can now sign in at <a href="{{.URL}}">{{.URL}}</a>.</p>
		<p>Best regards,<br>The SchoolSphere Team</p>
	</div>
</body>
</html>`))

// SendSchoolAdminCredentials mails the generated school admin login.
func (s *EmailServiceImpl) SendSchoolAdminCredentials(ctx context.Context, to Recipient, schoolName, username, password, loginURL string) error {
	if loginURL == "" {
		loginURL = s.config.FrontendURL
	}
	data := map[string]string{
		"School":   schoolName,
		"Name":     to.Name,
		"Username": username,
		"Password": password,
		"URL":      loginURL,
	}
	text := fmt.Sprintf("%s is approved. Username: %s Password: %s Login: %s", schoolName, username, password, loginURL)
	return s.send(ctx, to, fmt.Sprintf("%s - SchoolSphere administrator account", schoolName), credentialsTemplate, data, text)
}

// SendPasswordReset mails a reset link carrying token.
func (s *EmailServiceImpl) SendPasswordReset(ctx context.Context, to Recipient, token string) error {
	url := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.config.FrontendURL, "/"), token)
	data := map[string]string{"Name": to.Name, "URL": url, "Token": token}
	text := fmt.Sprintf("Reset your password: %s (code %s). The link expires in 24 hours.", url, token)
	return s.send(ctx, to, "Reset your SchoolSphere password", resetTemplate, data, text)
}

// SendWelcomeEmail greets a newly registered user.
func (s *EmailServiceImpl) SendWelcomeEmail(ctx context.Context, to Recipient) error {
	data := map[string]string{"Name": to.Name, "URL": s.config.FrontendURL}
	text := fmt.Sprintf("Welcome to SchoolSphere, %s. Sign in at %s.", to.Name, s.config.FrontendURL)
	return s.send(ctx, to, "Welcome to SchoolSphere", welcomeTemplate, data, text)
}

func (s *EmailServiceImpl) send(ctx context.Context, to Recipient, subject string, tpl *template.Template, data any, text string) error {
	var body strings.Builder
	if err := tpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render %s email: %w", tpl.Name(), err)
	}

	msg := Message{To: to, Subject: subject, HTML: body.String(), Text: text}
	sendErr := s.sender.Send(ctx, msg)

	d := Delivery{Recipient: to.Email, Subject: subject, Content: text, Sent: sendErr == nil}
	if sendErr != nil {
		d.Error = sendErr.Error()
		s.logger.Error().Err(sendErr).Str("to", to.Email).Str("template", tpl.Name()).Msg("Failed to send email")
	} else {
		d.SentAt = time.Now().UTC()
	}
	if s.recorder != nil {
		if err := s.recorder.RecordDelivery(ctx, d); err != nil {
			s.logger.Warn().Err(err).Str("to", to.Email).Msg("Failed to record email delivery")
		}
	}

	if sendErr != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrEmailDelivery, sendErr)
	}
	return nil
}

// SendGridSender posts messages to the SendGrid v3 mail API.
type SendGridSender struct {
	apiKey string
	from   *sgmail.Email
	host   string
	call   func(rest.Request) (*rest.Response, error)
}

func NewSendGridSender(apiKey, fromName, fromAddress string) *SendGridSender {
	return &SendGridSender{
		apiKey: apiKey,
		from:   sgmail.NewEmail(fromName, fromAddress),
		host:   "https://api.sendgrid.com",
		call:   sendgrid.API,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Email))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.Subject = msg.Subject
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text), sgmail.NewContent("text/html", msg.HTML))

	req := sendgrid.GetRequest(s.apiKey, "/v3/mail/send", s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := s.call(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. It is used
// when no provider is configured, typically in development.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Warn().
		Str("toEmail", msg.To.Email).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("Email provider not configured - email not sent")
	return nil
}
