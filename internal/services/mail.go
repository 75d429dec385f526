package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"os"
	"strings"
)

type MailService struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool
}

func NewMailService() *MailService {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")

	enabled := host != "" && port != "" && user != "" && pass != "" && from != ""
	if !enabled {
		log.Println("MailService disabled: missing SMTP environment variables")
	}

	return &MailService{
		Host:     host,
		Port:     port,
		Username: user,
		Password: pass,
		From:     from,
		Enabled:  enabled,
	}
}

var notificationTmpl = template.Must(template.New("notification").Parse(`
<p>Hi {{.Name}},</p>
<p>{{.Message}}</p>
<p>Log in to TutorLink to see the details.</p>
`))

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

		mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: TutorLink <%s>\r\n"+
			"Subject: %s\r\n"+
			"%s\r\n%s", strings.Join(to, ","), s.From, subject, mime, body))

		if err := smtp.SendMail(addr, auth, s.From, to, msg); err != nil {
			log.Printf("Failed to send email to %v: %v", to, err)
		}
	}()
}

// SendNotificationEmail mirrors an in-app notification to the recipient's
// inbox, best effort.
func (s *MailService) SendNotificationEmail(email, name, message string) {
	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, map[string]string{"Name": name, "Message": message}); err != nil {
		log.Printf("Error rendering notification email: %v", err)
		return
	}
	s.sendAsync([]string{email}, "[TutorLink] "+message, buf.String())
}
