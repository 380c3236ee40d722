package notify

import (
	"fmt"
	"strings"
	"time"
)

// Payload is the channel-agnostic content of one notification. EMAIL uses
// Subject/Body/HTML, SMS uses Message, WEBHOOK posts the whole payload as
// JSON.
type Payload struct {
	Subject string                 `json:"subject,omitempty"`
	Body    string                 `json:"body,omitempty"`
	HTML    bool                   `json:"html,omitempty"`
	Message string                 `json:"message,omitempty"`
	Kind    string                 `json:"type,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Change is one record-type difference included in change alerts.
type Change struct {
	Type     string `json:"type"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// PreChangePayload announces a pending DNS change to the domain owner.
func PreChangePayload(domain, initiatedBy string, scheduled time.Time, changes []Change) Payload {
	var b strings.Builder
	fmt.Fprintf(&b, "DNS Alert: %s\n%s\n\n", domain, strings.Repeat("=", 50))
	b.WriteString("A DNS change has been requested for your domain.\n\n")
	fmt.Fprintf(&b, "Scheduled Time: %s\n", scheduled.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Initiated By: %s\n\n", initiatedBy)
	writeChanges(&b, changes)

	return Payload{
		Subject: fmt.Sprintf("[ACTION REQUIRED] DNS change pending for %s", domain),
		Body:    b.String(),
		Kind:    "pre_change",
	}
}

// PostChangePayload confirms an applied DNS change.
func PostChangePayload(domain, initiatedBy string, applied time.Time, changes []Change) Payload {
	var b strings.Builder
	fmt.Fprintf(&b, "DNS Alert: %s\n%s\n\n", domain, strings.Repeat("=", 50))
	b.WriteString("DNS changes have been applied to your domain.\n\n")
	fmt.Fprintf(&b, "Applied Time: %s\n", applied.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Initiated By: %s\n\n", initiatedBy)
	writeChanges(&b, changes)

	return Payload{
		Subject: fmt.Sprintf("[COMPLETED] DNS change applied for %s", domain),
		Body:    b.String(),
		Kind:    "post_change",
	}
}

// UnexpectedChangePayload alerts the owner that records changed outside any
// known operation.
func UnexpectedChangePayload(domain string, detected time.Time, changes []Change) Payload {
	var b strings.Builder
	fmt.Fprintf(&b, "DNS Alert: %s\n%s\n\n", domain, strings.Repeat("=", 50))
	b.WriteString("UNEXPECTED DNS changes detected!\n\n")
	fmt.Fprintf(&b, "Detected Time: %s\n\n", detected.Format("2006-01-02 15:04:05"))
	writeChanges(&b, changes)

	return Payload{
		Subject: fmt.Sprintf("[SECURITY ALERT] Unexpected DNS change detected for %s", domain),
		Body:    b.String(),
		Kind:    "unexpected",
	}
}

func writeChanges(b *strings.Builder, changes []Change) {
	b.WriteString("Changes:\n")
	for _, c := range changes {
		old := c.OldValue
		if old == "" {
			old = "N/A"
		}
		newVal := c.NewValue
		if newVal == "" {
			newVal = "N/A"
		}
		fmt.Fprintf(b, "  - %s: %s -> %s\n", c.Type, old, newVal)
	}
}
