package reminder

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/rezkam/awe/internal/domain"
)

// Subjects of generated notifications.
const (
	subjectReminder = "AWE-Reminder for '%s' for '%s'"
	subjectDue      = "AWE-Due of '%s' for '%s'"
	subjectReview   = "AWE-Task Review Required: '%s' for '%s'"
	subjectNewTask  = "AWE-New Task Assigned: %s"
	subjectStatus   = "Task Status Updated: %s"

	// SubjectScheduledMessage is the subject of free-form scheduled messages.
	SubjectScheduledMessage = "Scheduled Message"
)

var bodies = template.Must(template.New("reminder").Parse(`
{{- define "details" -}}
- Task Name: {{.Task.Name}}
- Task ID: {{.Task.ID}}
- Criticality: {{.Task.Criticality}}
- Status: {{.Task.Status}}
{{- with .Task.Reviewer}}
- Reviewer: {{.}}{{end}}
{{- end -}}

{{- define "reminder" -}}
Hello {{.Task.AssignedTo}},

'{{.Task.Name}}' for '{{.Task.CustomerName}}' is due on {{.Due}}.

{{template "details" .}}

Please complete the task before the due date.

Regards,
AWE Team
{{- end -}}

{{- define "due" -}}
Hello {{.Task.AssignedTo}},

'{{.Task.Name}}' for '{{.Task.CustomerName}}' is due today.

{{template "details" .}}

Please complete the task today. Ignore this message if it is already done.

Regards,
AWE Team
{{- end -}}

{{- define "review" -}}
Hello {{with .Task.Reviewer}}{{.}}{{else}}{{$.Recipient}}{{end}},

You are the reviewer of '{{.Task.Name}}' for '{{.Task.CustomerName}}'.

- Task Name: {{.Task.Name}}
- Task ID: {{.Task.ID}}
- Criticality: {{.Task.Criticality}}
- Assigned To: {{.Task.AssignedTo}}
- Due Date: {{.Due}}
- Status: {{.Task.Status}}

You will be asked to review it once the assignee completes it.

Regards,
AWE Team
{{- end -}}

{{- define "assigned" -}}
Dear {{.Task.AssignedTo}},

'{{.Task.Name}}' for '{{.Task.CustomerName}}' has been assigned to you.

{{template "details" .}}
- Due Date: {{.Due}}

Regards,
AWE Team
{{- end -}}

{{- define "status" -}}
Hello {{.Task.AssignedTo}},

The status of '{{.Task.Name}}' for '{{.Task.CustomerName}}' changed from {{.Previous}} to {{.Task.Status}}.

- Task ID: {{.Task.ID}}
- Due Date: {{.Due}}

Regards,
AWE Team
{{- end -}}
`))

type bodyData struct {
	Task      *domain.Task
	Recipient string
	Due       string
	Previous  domain.TaskStatus
}

func render(name string, data bodyData) (string, error) {
	var buf bytes.Buffer
	if err := bodies.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s message: %w", name, err)
	}
	return buf.String(), nil
}

// DefaultBody is the short body used when no template applies.
func DefaultBody(task *domain.Task) string {
	return fmt.Sprintf("%s for %s", task.Name, task.CustomerName)
}

// Subject returns the subject line of a notification kind.
func Subject(kind domain.ReminderKind, task *domain.Task) string {
	switch kind {
	case domain.ReminderKindReminder:
		return fmt.Sprintf(subjectReminder, task.Name, task.CustomerName)
	case domain.ReminderKindDue:
		return fmt.Sprintf(subjectDue, task.Name, task.CustomerName)
	case domain.ReminderKindReview:
		return fmt.Sprintf(subjectReview, task.Name, task.CustomerName)
	default:
		return SubjectScheduledMessage
	}
}

// Message is a rendered notification ready for a sink.
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// AssignedMessage is the immediate notice sent to an assignee.
func AssignedMessage(task *domain.Task, recipient string) (Message, error) {
	body, err := render("assigned", bodyData{Task: task, Recipient: recipient, Due: task.DueDate.Format(domain.DateLayout)})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Recipient: recipient,
		Subject:   fmt.Sprintf(subjectNewTask, task.Name),
		Body:      body,
	}, nil
}

// StatusChangedMessage tells recipient that task moved from previous to its current status.
func StatusChangedMessage(task *domain.Task, previous domain.TaskStatus, recipient string) (Message, error) {
	body, err := render("status", bodyData{
		Task:      task,
		Recipient: recipient,
		Due:       task.DueDate.Format(domain.DateLayout),
		Previous:  previous,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Recipient: recipient,
		Subject:   fmt.Sprintf(subjectStatus, task.Name),
		Body:      body,
	}, nil
}
