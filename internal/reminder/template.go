package reminder

import (
	"fmt"
)

// WhatsappTemplate pre-renders the outbound reminder message. The rendered
// string is stored in the notification metadata so the frontend (or the
// delivery channel) can send it verbatim.
func WhatsappTemplate(studentName, batchName, dueAmount, dueDate string) string {
	return fmt.Sprintf(
		"Hello %s, this is a fee reminder for %s. Amount due: %s. Due date: %s. "+
			"Please pay at the earliest. Thank you.",
		studentName, batchName, dueAmount, dueDate,
	)
}
