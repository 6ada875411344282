package mailer

import (
	"bytes"
	"fmt"
	"text/template"
)

type entry struct {
	subject *template.Template
	body    *template.Template
}

// Templates renders named notices from text templates.
type Templates struct {
	entries map[string]entry
}

// NewTemplates returns an empty registry.
func NewTemplates() *Templates {
	return &Templates{entries: make(map[string]entry)}
}

// Register parses and stores a subject/body pair under name.
func (t *Templates) Register(name, subject, body string) error {
	subj, err := template.New(name + ".subject").Option("missingkey=zero").Parse(subject)
	if err != nil {
		return fmt.Errorf("mailer: parse %s subject: %w", name, err)
	}
	b, err := template.New(name + ".body").Option("missingkey=zero").Parse(body)
	if err != nil {
		return fmt.Errorf("mailer: parse %s body: %w", name, err)
	}
	t.entries[name] = entry{subject: subj, body: b}
	return nil
}

// MustRegister is Register for static templates.
func (t *Templates) MustRegister(name, subject, body string) *Templates {
	if err := t.Register(name, subject, body); err != nil {
		panic(err)
	}
	return t
}

// Render executes the named template against data.
func (t *Templates) Render(name, to string, data map[string]any) (Message, error) {
	e, ok := t.entries[name]
	if !ok {
		return Message{}, fmt.Errorf("mailer: unknown template %q", name)
	}
	var subject, body bytes.Buffer
	if err := e.subject.Execute(&subject, data); err != nil {
		return Message{}, fmt.Errorf("mailer: render %s subject: %w", name, err)
	}
	if err := e.body.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("mailer: render %s body: %w", name, err)
	}
	return Message{To: to, Subject: subject.String(), Body: body.String()}, nil
}
