package invoice

import (
	"strings"

	"sri-notifier/internal/types"
)

// recipientFieldName is the infoAdicional field carrying the notification
// address. The match is case-sensitive per the SRI emitter convention:
// "email" or "EMAIL" are different fields.
const recipientFieldName = "Email"

// Recipient returns the notification email address from the document's
// additional-fields section. It fails with recipient_not_found when the
// section is absent, when no field is named "Email", or when the matching
// field is empty or whitespace-only. There is no fallback recipient: a
// document without a usable address cannot be notified.
func Recipient(doc *Document) (string, error) {
	if len(doc.AdditionalFields) == 0 {
		return "", types.NewAppError(types.ErrCodeRecipientNotFound,
			"document has no infoAdicional section", nil)
	}

	for _, f := range doc.AdditionalFields {
		if f.Name != recipientFieldName {
			continue
		}
		addr := strings.TrimSpace(f.Value)
		if addr == "" {
			return "", types.NewAppError(types.ErrCodeRecipientNotFound,
				"Email field in infoAdicional is empty", nil)
		}
		return addr, nil
	}

	return "", types.NewAppError(types.ErrCodeRecipientNotFound,
		"infoAdicional has no Email field", nil)
}
