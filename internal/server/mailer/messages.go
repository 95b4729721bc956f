package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// VerificationMessage renders the account-verification mail. The link
// points at the frontend, which forwards the token to the API.
func VerificationMessage(to, frontendURL, token string) (Message, error) {
	link := frontendURL + "/auth/verify?token=" + url.QueryEscape(token)

	body, err := render("verification.html", map[string]string{"VerificationURL": link})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      to,
		Subject: "Kindly verify your Fortis account",
		Body:    body,
	}, nil
}

// PasswordResetMessage renders the password-reset mail.
func PasswordResetMessage(to, frontendURL, token string) (Message, error) {
	link := frontendURL + "/auth/reset-password?token=" + url.QueryEscape(token)

	body, err := render("password-reset.html", map[string]string{"ResetURL": link})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      to,
		Subject: "Password reset request",
		Body:    body,
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}
