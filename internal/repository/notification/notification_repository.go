package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"maternityCare/business/alerts"
	"maternityCare/domain"
	"maternityCare/pkg/logger"

	"github.com/pobyzaarif/goshortcute"
)

type MailjetConfig struct {
	MailjetBaseURL           string
	MailjetBasicAuthUsername string
	MailjetBasicAuthPassword string
	MailjetSenderEmail       string
	MailjetSenderName        string
	CareTeamEmail            string
	CareTeamName             string
}

type MailjetRepository struct {
	mailjetConfig MailjetConfig
	client        *http.Client
}

var _ alerts.Notifier = (*MailjetRepository)(nil)

func NewMailjetRepository(cfg MailjetConfig) *MailjetRepository {
	return &MailjetRepository{
		mailjetConfig: cfg,
		client:        &http.Client{Timeout: 5 * time.Second},
	}
}

type payloadSendEmail struct {
	Messages []Messages `json:"Messages"`
}

type From struct {
	Email string `json:"Email"`
	Name  string `json:"Name"`
}

type To struct {
	Email string `json:"Email"`
	Name  string `json:"Name"`
}

type Messages struct {
	From     From   `json:"From"`
	To       []To   `json:"To"`
	Subject  string `json:"Subject"`
	TextPart string `json:"TextPart"`
}

// NotifyCareTeam e-mails the on-call care team about a new alert. The body
// carries ids and severity only, never chat content.
func (r *MailjetRepository) NotifyCareTeam(ctx context.Context, alert domain.AlertRecord) error {
	if r.mailjetConfig.CareTeamEmail == "" {
		logger.Debug("care team e-mail not configured, skipping alert notification", "alert_id", alert.ID)
		return nil
	}

	subject := fmt.Sprintf("[severity %d] %s alert awaiting review", alert.Severity, alert.AlertType)
	text := fmt.Sprintf(
		"A new %s alert needs review.\nAlert: %s\nUser: %s\nSeverity: %d\nRaised: %s\n",
		alert.AlertType, alert.ID, alert.UserID, alert.Severity, alert.CreatedAt.UTC().Format(time.RFC3339),
	)

	return r.SendEmail(ctx, r.mailjetConfig.CareTeamName, r.mailjetConfig.CareTeamEmail, subject, text)
}

func (r *MailjetRepository) SendEmail(ctx context.Context, toName, toEmail, subject, message string) (err error) {
	url := r.mailjetConfig.MailjetBaseURL + "/v3.1/send"
	method := http.MethodPost

	messageBody := Messages{
		To: []To{{
			Email: toEmail,
			Name:  toName,
		}},
		From: From{
			Email: r.mailjetConfig.MailjetSenderEmail,
			Name:  r.mailjetConfig.MailjetSenderName,
		},
		Subject:  subject,
		TextPart: message,
	}

	payload := payloadSendEmail{
		Messages: []Messages{messageBody},
	}

	payloadByte, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal json payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payloadByte))
	if err != nil {
		return err
	}

	buildBasicAuth := goshortcute.StringtoBase64Encode(r.mailjetConfig.MailjetBasicAuthUsername + ":" + r.mailjetConfig.MailjetBasicAuthPassword)
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Basic "+buildBasicAuth)

	res, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	logger.Warn("mailjet rejected message", "status", res.StatusCode, "body", string(bodyBytes))

	return fmt.Errorf("mailer service return negative response %v", res.StatusCode)
}
