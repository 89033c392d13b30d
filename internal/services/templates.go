package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/ariss/internal/models"
)

func roleLabel(role models.Role) string {
	switch role {
	case models.RoleBackOffice:
		return "back office"
	default:
		return string(role)
	}
}

func otpMessage(email, phone, code string, ttl time.Duration) Message {
	return Message{
		Email:   email,
		Phone:   phone,
		Subject: "Your ARISS verification code",
		Body: fmt.Sprintf("Your one-time code is %s.\nIt expires in %d minutes. Do not share it with anyone.",
			code, int(ttl.Minutes())),
	}
}

func registrationPendingMessage(name, email, phone string, role models.Role) Message {
	return Message{
		Email:   email,
		Phone:   phone,
		Subject: "ARISS registration received",
		Body: fmt.Sprintf("Hello %s,\nYour %s account has been created and is pending approval. We will notify you once it is approved.",
			name, roleLabel(role)),
	}
}

func approvedMessage(name, email, phone string, role models.Role) Message {
	return Message{
		Email:   email,
		Phone:   phone,
		Subject: "ARISS account approved",
		Body: fmt.Sprintf("Hello %s,\nYour %s account has been approved. You can now sign in.",
			name, roleLabel(role)),
	}
}

func rmaStatusMessage(rma models.RMA) Message {
	var line string
	switch rma.Status {
	case models.RMAStatusAccepted:
		line = "has been accepted. Please ship the item to our service centre."
	case models.RMAStatusRejected:
		line = "has been rejected."
	case models.RMAStatusResolved:
		line = "has been resolved."
	default:
		line = "has been received."
	}

	body := fmt.Sprintf("Hello %s,\nYour return request for %s (serial %s) %s",
		rma.Name, rma.ProductName, rma.SerialNumber, line)
	if r := strings.TrimSpace(rma.Remarks); r != "" {
		body += "\nRemarks: " + r
	}

	return Message{
		Email:   rma.Email,
		Phone:   rma.Phone,
		Subject: "ARISS RMA " + strings.ToLower(string(rma.Status)),
		Body:    body,
	}
}
