package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	templates "github.com/idltd/CCTV-Log/templates/html"
)

// SendGridMailer delivers letters by email. FromEmail should be the
// user's own address so the operator can reply directly.
type SendGridMailer struct {
	FromName  string
	FromEmail string
}

// Send emails the letter to the operator's privacy contact
func (m SendGridMailer) Send(ctx context.Context, to, subject, body string) error {
	from := mail.NewEmail(m.FromName, m.FromEmail)
	recipient := mail.NewEmail("", to)
	htmlContent := templates.RenderLetterEmail(subject, body)
	message := mail.NewSingleEmail(from, subject, recipient, body, htmlContent)

	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("mail delivery failed with status %d", response.StatusCode)
	}
	return nil
}
