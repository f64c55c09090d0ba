// Package notify provides completion-notification sinks. Sinks are
// best-effort collaborators: the submission workflow logs their failures and
// never propagates them.
package notify

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/nlwealth/advisorforms/internal/models"
)

// sectionTitles maps section tags to their display names for messages.
var sectionTitles = map[models.Section]string{
	models.SectionRiskTolerance:    "Risk Tolerance Assessment",
	models.SectionClientUpdate:     "Client Information Update",
	models.SectionInvestmentPolicy: "Investment Policy Statement",
}

// SectionTitle returns the display name for a section tag.
func SectionTitle(s models.Section) string {
	if t, ok := sectionTitles[s]; ok {
		return t
	}
	return string(s)
}

// LogSink writes completion events to the process log. It is the default
// sink when no mail transport is configured.
type LogSink struct{}

func (LogSink) NotifyCompletion(client *models.Client, section models.Section) error {
	log.Printf("notify: questionnaire completed: %s by client %s (%s)", SectionTitle(section), client.Name, client.ClientNumber)
	return nil
}

// SMTPSink emails the advisory team when a client completes a questionnaire.
type SMTPSink struct {
	Addr string // host:port of the SMTP relay
	From string
	To   string
}

func (s SMTPSink) NotifyCompletion(client *models.Client, section models.Section) error {
	subject := "Questionnaire Completed: " + SectionTitle(section)
	body := fmt.Sprintf(
		"Client %s (%s) has completed the %s questionnaire.\r\n\r\nLog in to the admin dashboard to view the submission.\r\n",
		client.Name, client.ClientNumber, SectionTitle(section),
	)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", s.From, s.To, subject, body)
	return smtp.SendMail(s.Addr, nil, s.From, []string{s.To}, []byte(msg))
}
