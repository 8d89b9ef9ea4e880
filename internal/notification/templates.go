package notification

import "fmt"

const (
	KindRequestCreated    = "request_created"
	KindDecision          = "decision"
	KindTemporaryPassword = "temporary_password"
)

func requestCreatedMessage(employeeName, when string) (string, string) {
	subject := "Nuova Richiesta di Smart Working"
	body := fmt.Sprintf(`Una nuova richiesta di smart working è stata creata.

Dipendente: %s
Data: %s

Accedi al sistema per revisione e approvazione.`, employeeName, when)
	return subject, body
}

func decisionMessage(when string, approved bool, decidedBy string) (string, string) {
	if approved {
		return "Richiesta approvata",
			fmt.Sprintf("La tua richiesta di smart working per il %s è stata approvata da %s.", when, decidedBy)
	}
	return "Richiesta rifiutata",
		fmt.Sprintf("La tua richiesta di smart working per il %s è stata rifiutata da %s.", when, decidedBy)
}

func temporaryPasswordMessage(username, temporaryPassword string) (string, string) {
	subject := "Password temporanea SmartWork"
	body := fmt.Sprintf(`Hai richiesto il ripristino password.

Nome utente: %s
Password temporanea: %s

Effettua l'accesso e cambia la password al più presto.`, username, temporaryPassword)
	return subject, body
}
