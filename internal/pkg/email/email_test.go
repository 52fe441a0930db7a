package email

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
)

type captureSender struct {
	sent []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	c.sent = append(c.sent, msg)
	return c.err
}

type captureRecorder struct {
	deliveries []Delivery
}

func (c *captureRecorder) RecordDelivery(_ context.Context, d Delivery) error {
	c.deliveries = append(c.deliveries, d)
	return nil
}

func testConfig() Config {
	return Config{FromName: "SchoolSphere", FromAddress: "no-reply@test", FrontendURL: "http://app.test/"}
}

func TestSendSchoolAdminCredentials(t *testing.T) {
	sender := &captureSender{}
	recorder := &captureRecorder{}
	svc := NewEmailServiceWithSender(testConfig(), sender, recorder, zerolog.Nop())

	err := svc.SendSchoolAdminCredentials(context.Background(), Recipient{Name: "Ada", Email: "ada@school.test"},
		"Green Valley", "admin_green_valley", "s3cretPass12", "")
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "ada@school.test", msg.To.Email)
	assert.Contains(t, msg.Subject, "Green Valley")
	assert.Contains(t, msg.HTML, "admin_green_valley")
	assert.Contains(t, msg.HTML, "s3cretPass12")

	require.Len(t, recorder.deliveries, 1)
	assert.True(t, recorder.deliveries[0].Sent)
	assert.False(t, recorder.deliveries[0].SentAt.IsZero())
}

func TestSendPasswordResetBuildsLink(t *testing.T) {
	sender := &captureSender{}
	svc := NewEmailServiceWithSender(testConfig(), sender, nil, zerolog.Nop())

	require.NoError(t, svc.SendPasswordReset(context.Background(), Recipient{Email: "u@test"}, "tok-1"))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].HTML, "http://app.test/reset-password?token=tok-1")
}

func TestSendFailureIsRecorded(t *testing.T) {
	sender := &captureSender{err: errors.New("boom")}
	recorder := &captureRecorder{}
	svc := NewEmailServiceWithSender(testConfig(), sender, recorder, zerolog.Nop())

	err := svc.SendWelcomeEmail(context.Background(), Recipient{Name: "Bo", Email: "bo@test"})
	assert.ErrorIs(t, err, apperrors.ErrEmailDelivery)

	require.Len(t, recorder.deliveries, 1)
	assert.False(t, recorder.deliveries[0].Sent)
	assert.Equal(t, "boom", recorder.deliveries[0].Error)
}

func TestNewEmailServiceWithoutKeyLogsOnly(t *testing.T) {
	svc := NewEmailService(testConfig(), nil, zerolog.Nop())
	_, ok := svc.sender.(*LogSender)
	assert.True(t, ok)
	assert.NoError(t, svc.SendWelcomeEmail(context.Background(), Recipient{Email: "x@test"}))
}

func TestSendGridSender(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"accepted", http.StatusAccepted, false},
		{"rejected", http.StatusUnauthorized, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got rest.Request
			s := NewSendGridSender("key", "SchoolSphere", "no-reply@test")
			s.call = func(req rest.Request) (*rest.Response, error) {
				got = req
				return &rest.Response{StatusCode: tt.status}, nil
			}

			err := s.Send(context.Background(), Message{To: Recipient{Email: "a@test"}, Subject: "Hi", HTML: "<p>Hi</p>", Text: "Hi"})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, rest.Method(http.MethodPost), got.Method)
			assert.Equal(t, "https://api.sendgrid.com/v3/mail/send", got.BaseURL)
			assert.Contains(t, string(got.Body), `"subject":"Hi"`)
		})
	}
}
