package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/fs"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestConsoleServiceMock(t *testing.T) {
	conf := &core.Config{AppName: "Ecole", FrontendBaseURL: "http://localhost:5000"}
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, nopLogger{})
	svc := NewConsoleServiceMock(conf)

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Jane Doe", Address: "jane@ecole.com"}},
			Subject:      "Your account has been created",
			TemplateName: "welcome",
			TemplateData: map[string]interface{}{
				"FirstName":          "Jane",
				"Email":              "jane@ecole.com",
				"Role":               "professor",
				"MustChangePassword": true,
			},
		},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "dropped"},
		&core.EmailMessage{To: []mail.Address{{Address: "bob@ecole.com"}}, Subject: "plain", BodyStr: "Hi Bob"},
	)

	sent := svc.Sent()
	require.Len(t, sent, 2)

	welcome := sent[0]
	assert.Contains(t, welcome.TextContent, "Hello Jane,")
	assert.Contains(t, welcome.TextContent, `the role "professor"`)
	assert.Contains(t, welcome.TextContent, "choose a new password")
	assert.Contains(t, welcome.HTMLContent, "<strong>professor</strong>")
	assert.Contains(t, welcome.HTMLContent, `href="http://localhost:5000"`)

	assert.Equal(t, "Hi Bob", sent[1].TextContent)
	assert.Empty(t, sent[1].HTMLContent)
}

func TestConsoleFormat(t *testing.T) {
	conf := &core.Config{AppName: "Ecole"}
	svc := NewConsoleServiceMock(conf)

	out, err := svc.format(core.EmailMessage{
		To:          []mail.Address{{Name: "Jane", Address: "jane@ecole.com"}},
		Subject:     "Hello",
		TextContent: "plain body",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Subject: [Ecole] Hello\r\n")
	assert.Contains(t, out, `To: "Jane" <jane@ecole.com>`)
	assert.Contains(t, out, "plain body")
	assert.NotContains(t, out, "text/html")
}
