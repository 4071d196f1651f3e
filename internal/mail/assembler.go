// Package mail assembles the raw outbound email for an authorized invoice:
// a multipart/mixed message with a plain-text greeting, the signed source
// document, and the rendered summary as base64 attachments. The message is
// built byte-exact because the transport sends it raw, without any
// server-side composition.
package mail

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"sri-notifier/internal/types"
)

// Content types selected by attachment kind.
const (
	ContentTypeXML = "application/xml"
	ContentTypePDF = "application/pdf"
)

// base64LineLength is the RFC 2045 maximum encoded line length.
const base64LineLength = 76

// Attachment is one binary part of the outbound message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message describes the outbound email before assembly.
type Message struct {
	From        string
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Assembler builds raw multipart messages. The clock is injectable so tests
// can pin the boundary token.
type Assembler struct {
	now func() time.Time
}

// NewAssembler creates an Assembler using the wall clock.
func NewAssembler() *Assembler {
	return &Assembler{now: time.Now}
}

// NewAssemblerWithClock creates an Assembler with a fixed clock for tests.
func NewAssemblerWithClock(now func() time.Time) *Assembler {
	return &Assembler{now: now}
}

// Assemble renders the message into raw RFC 5322 bytes: headers, a 7bit
// plain-text part, one base64 attachment part per attachment, and the
// closing boundary delimiter. The boundary token is derived from the current
// time, distinguishing concurrent messages without any shared state.
func (a *Assembler) Assemble(msg Message) []byte {
	boundary := fmt.Sprintf("sri-notifier-%d", a.now().UnixNano())

	lines := []string{
		fmt.Sprintf("From: %s", msg.From),
		fmt.Sprintf("To: %s", msg.To),
		fmt.Sprintf("Subject: %s", msg.Subject),
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q", boundary),
		"",
		fmt.Sprintf("--%s", boundary),
		`Content-Type: text/plain; charset="UTF-8"`,
		"Content-Transfer-Encoding: 7bit",
		"",
		msg.Body,
		"",
	}

	for _, att := range msg.Attachments {
		lines = append(lines,
			fmt.Sprintf("--%s", boundary),
			fmt.Sprintf("Content-Type: %s; name=%q", att.ContentType, att.Filename),
			"Content-Transfer-Encoding: base64",
			fmt.Sprintf("Content-Disposition: attachment; filename=%q", att.Filename),
			"",
		)
		lines = append(lines, encodeWrapped(att.Data)...)
		lines = append(lines, "")
	}

	lines = append(lines, fmt.Sprintf("--%s--", boundary), "")

	return []byte(strings.Join(lines, "\r\n"))
}

// encodeWrapped base64-encodes data and folds it into RFC 2045 sized lines.
func encodeWrapped(data []byte) []string {
	encoded := base64.StdEncoding.EncodeToString(data)
	if encoded == "" {
		return []string{""}
	}

	lines := make([]string, 0, len(encoded)/base64LineLength+1)
	for len(encoded) > base64LineLength {
		lines = append(lines, encoded[:base64LineLength])
		encoded = encoded[base64LineLength:]
	}
	return append(lines, encoded)
}

// DefaultSubject is the environment-sensitive subject used when the inbound
// payload carries none.
func DefaultSubject(env types.Environment) string {
	return fmt.Sprintf("Invoice authorized — %s", env.Label())
}

// DefaultBody is the greeting used when the inbound payload carries none.
func DefaultBody(accessKey string) string {
	return fmt.Sprintf(
		"The electronic invoice with access key %s has been authorized.\r\n"+
			"The signed document and a readable summary are attached.",
		accessKey,
	)
}
