package mail

import (
	"bytes"
	"encoding/base64"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sri-notifier/internal/types"
)

var fixedClock = func() time.Time {
	return time.Date(2026, 2, 1, 12, 0, 0, 123456789, time.UTC)
}

func testMessage() Message {
	return Message{
		From:    "billing@facturero.ec",
		To:      "juan.perez@example.com",
		Subject: "Invoice authorized — PRODUCTION",
		Body:    "Your invoice was authorized.",
		Attachments: []Attachment{
			{Filename: "0102.xml", ContentType: ContentTypeXML, Data: []byte("<factura/>")},
			{Filename: "0102.pdf", ContentType: ContentTypePDF, Data: []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xFF}},
		},
	}
}

func TestAssembleHeaders(t *testing.T) {
	raw := string(NewAssemblerWithClock(fixedClock).Assemble(testMessage()))

	assert.Contains(t, raw, "From: billing@facturero.ec\r\n")
	assert.Contains(t, raw, "To: juan.perez@example.com\r\n")
	assert.Contains(t, raw, "Subject: Invoice authorized — PRODUCTION\r\n")
	assert.Contains(t, raw, "MIME-Version: 1.0\r\n")
	assert.Contains(t, raw, `Content-Type: multipart/mixed; boundary="sri-notifier-`)
}

func TestAssembleBoundaryDerivedFromClock(t *testing.T) {
	raw := string(NewAssemblerWithClock(fixedClock).Assemble(testMessage()))
	want := "sri-notifier-" + "1769947200123456789"
	assert.Contains(t, raw, want)
}

func TestAssembleDistinctMessagesDistinctBoundaries(t *testing.T) {
	a := NewAssembler()
	first := extractBoundary(t, a.Assemble(testMessage()))
	time.Sleep(time.Microsecond)
	second := extractBoundary(t, a.Assemble(testMessage()))
	assert.NotEqual(t, first, second)
}

func TestAssembleClosingDelimiter(t *testing.T) {
	raw := NewAssemblerWithClock(fixedClock).Assemble(testMessage())
	boundary := extractBoundary(t, raw)
	assert.True(t, strings.HasSuffix(string(raw), "--"+boundary+"--\r\n"))
}

// The round-trip property: splitting the assembled message by its boundary
// recovers the original body, and base64-decoding each attachment part
// yields byte-identical content.
func TestAssembleRoundTrip(t *testing.T) {
	msg := testMessage()
	raw := NewAssemblerWithClock(fixedClock).Assemble(msg)
	boundary := extractBoundary(t, raw)

	parts := splitParts(t, raw, boundary)
	require.Len(t, parts, 3)

	// Part 1: plain text body.
	assert.Contains(t, parts[0], "Content-Transfer-Encoding: 7bit")
	assert.Contains(t, parts[0], msg.Body)

	// Parts 2..n: attachments, byte-identical after decoding.
	for i, att := range msg.Attachments {
		part := parts[i+1]
		assert.Contains(t, part, "Content-Type: "+att.ContentType+`; name="`+att.Filename+`"`)
		assert.Contains(t, part, `Content-Disposition: attachment; filename="`+att.Filename+`"`)
		assert.Contains(t, part, "Content-Transfer-Encoding: base64")

		decoded, err := base64.StdEncoding.DecodeString(partPayload(part))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(att.Data, decoded),
			"attachment %d not byte-identical after round trip", i)
	}
}

func TestAssembleSingleAttachment(t *testing.T) {
	msg := testMessage()
	msg.Attachments = msg.Attachments[:1]

	raw := NewAssemblerWithClock(fixedClock).Assemble(msg)
	parts := splitParts(t, raw, extractBoundary(t, raw))
	assert.Len(t, parts, 2)
}

func TestAssembleWrapsBase64Lines(t *testing.T) {
	msg := testMessage()
	msg.Attachments = []Attachment{{
		Filename:    "big.pdf",
		ContentType: ContentTypePDF,
		Data:        bytes.Repeat([]byte{0xAB}, 4096),
	}}

	raw := NewAssemblerWithClock(fixedClock).Assemble(msg)
	for _, line := range strings.Split(string(raw), "\r\n") {
		assert.LessOrEqual(t, len(line), 998, "RFC 5322 line length")
		if isBase64Line(line) {
			assert.LessOrEqual(t, len(line), 76)
		}
	}

	// And the payload still decodes to the original bytes.
	parts := splitParts(t, raw, extractBoundary(t, raw))
	decoded, err := base64.StdEncoding.DecodeString(partPayload(parts[1]))
	require.NoError(t, err)
	assert.Equal(t, msg.Attachments[0].Data, decoded)
}

func TestDefaultSubject(t *testing.T) {
	assert.Equal(t, "Invoice authorized — PRODUCTION", DefaultSubject(types.EnvProduction))
	assert.Equal(t, "Invoice authorized — TEST", DefaultSubject(types.EnvTest))
}

func TestDefaultBodyReferencesAccessKey(t *testing.T) {
	body := DefaultBody("0102202601171900421800111001100000000011234567891")
	assert.Contains(t, body, "0102202601171900421800111001100000000011234567891")
}

// --- helpers ---

var boundaryRe = regexp.MustCompile(`boundary="([^"]+)"`)

func extractBoundary(t *testing.T, raw []byte) string {
	t.Helper()
	m := boundaryRe.FindStringSubmatch(string(raw))
	require.Len(t, m, 2, "boundary parameter not found")
	return m[1]
}

// splitParts returns the message parts between boundary delimiters,
// excluding the preamble (headers) and the closing delimiter.
func splitParts(t *testing.T, raw []byte, boundary string) []string {
	t.Helper()
	segments := strings.Split(string(raw), "\r\n--"+boundary)
	require.GreaterOrEqual(t, len(segments), 2)

	var parts []string
	for _, seg := range segments[1:] {
		if strings.HasPrefix(seg, "--") {
			break // closing delimiter
		}
		parts = append(parts, strings.TrimPrefix(seg, "\r\n"))
	}
	return parts
}

// partPayload strips a part's headers and rejoins its folded base64 payload.
func partPayload(part string) string {
	_, payload, _ := strings.Cut(part, "\r\n\r\n")
	return strings.ReplaceAll(strings.TrimSpace(payload), "\r\n", "")
}

func isBase64Line(line string) bool {
	if line == "" || strings.Contains(line, ":") || strings.HasPrefix(line, "--") {
		return false
	}
	for _, r := range line {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '+' || r == '/' || r == '=') {
			return false
		}
	}
	return true
}
