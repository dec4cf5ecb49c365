package campaign

import (
	"bytes"
	"os"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"whatsapp-broadcaster/internal/contacts"
)

// Message is the campaign body. It supports the <nick_name> and <name>
// placeholders and, when the file contains "{{", Go template fields
// ({{.Name}}, {{.Nickname}}, {{.Number}} and any extra sheet column).
type Message struct {
	tmpl    *template.Template
	Content string
}

func LoadMessage(filePath string) (*Message, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read message file")
	}
	return ParseMessage(string(content))
}

func ParseMessage(content string) (*Message, error) {
	content = strings.TrimRight(content, "\r\n")
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("message file is empty")
	}

	m := &Message{Content: content}
	if strings.Contains(content, "{{") {
		tmpl, err := template.New("message").Option("missingkey=error").Parse(content)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse message template")
		}
		m.tmpl = tmpl
	}
	return m, nil
}

// Render produces the text for one contact. Template fields are expanded
// before the placeholders, so contact values are never parsed as template.
func (m *Message) Render(c contacts.Contact) (string, error) {
	text := m.Content
	if m.tmpl != nil {
		data := make(map[string]interface{}, len(c.Fields)+3)
		for key, value := range c.Fields {
			data[key] = value
		}
		data["Name"] = c.Name
		data["Nickname"] = c.Nickname
		data["Number"] = c.Number

		var buf bytes.Buffer
		if err := m.tmpl.Execute(&buf, data); err != nil {
			return "", errors.Wrap(err, "failed to render message")
		}
		text = buf.String()
	}

	return strings.NewReplacer(
		"<nick_name>", c.Nickname,
		"<name>", c.Name,
	).Replace(text), nil
}
