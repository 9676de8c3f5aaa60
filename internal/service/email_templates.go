package service

import "fmt"

func welcomeEmailTemplate(username, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("Willkommen bei %s", appName)
	body := fmt.Sprintf(`Hallo %s,

dein Konto ist angelegt. Du kannst dich ab sofort anmelden:
%s/login

Bei Fragen antworte einfach auf diese E-Mail.

Viele Grüße
%s`, username, appURL, appName)

	return subject, body
}

func registrationNoticeTemplate(username, email, appName string) (string, string) {
	subject := fmt.Sprintf("Neue Registrierung bei %s", appName)
	body := fmt.Sprintf(`Ein neues Konto wurde registriert.

Benutzername: %s
E-Mail: %s

Die Rolle ist "user". Freigaben für interne Galerien vergibst du in der Benutzerverwaltung.`, username, email)

	return subject, body
}
