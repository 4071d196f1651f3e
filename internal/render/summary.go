package render

import (
	"fmt"
	"strings"
	"time"

	"sri-notifier/internal/invoice"
	"sri-notifier/internal/types"
)

// Meta carries the request-level fields shown in the summary header.
type Meta struct {
	AccessKey   string
	Environment types.Environment
	GeneratedAt time.Time
}

const (
	// naSentinel substitutes any absent optional value.
	naSentinel = "N/A"

	// detailWrapWidth is the character width for line-item summary lines.
	detailWrapWidth = 96
	// annexWrapWidth is the character width for the verbatim document annex.
	annexWrapWidth = 106

	// maxDetailItems bounds the line-item listing on page one.
	maxDetailItems = 10

	noDetailPlaceholder = "Detail: not available in document"
)

// Compose builds the paginated summary for an authorized invoice: page one
// carries the header, issuer, buyer/totals and truncated detail sections;
// the following pages carry the complete source document re-wrapped as a
// verbatim annex.
func Compose(doc *invoice.Document, rawDocument []byte, meta Meta) *Summary {
	l := NewLayout()

	l.Emit(Element{X: marginLeft, Style: StyleTitle, Text: "Authorized Electronic Invoice"})
	l.Advance(6)

	emitPair(l, "Access key", orNA(meta.AccessKey))
	emitPair(l, "Environment", meta.Environment.Label())
	emitPair(l, "Generated", meta.GeneratedAt.UTC().Format(time.RFC3339))
	l.Advance(10)

	emitBanner(l, "Issuer")
	issuer := doc.Issuer
	if issuer == nil {
		issuer = &invoice.Issuer{}
	}
	emitPair(l, "Legal name", orNA(issuer.LegalName))
	emitPair(l, "Commercial name", orNA(issuer.CommercialName))
	emitPair(l, "RUC", orNA(issuer.RUC))
	emitPair(l, "Issuance point", issuancePoint(issuer))
	l.Advance(10)

	emitBanner(l, "Buyer and Totals")
	info := doc.Info
	if info == nil {
		info = &invoice.Info{}
	}
	emitPair(l, "Buyer", orNA(info.BuyerName))
	emitPair(l, "Identification", orNA(info.BuyerID))
	emitPair(l, "Issue date", orNA(info.IssueDate))
	emitPair(l, "Currency", orNA(info.Currency))
	emitPair(l, "Subtotal", orNA(info.Subtotal))
	emitPair(l, "Total", orNA(info.Total))
	l.Advance(10)

	emitBanner(l, "Detail")
	if len(doc.Items) == 0 {
		l.Emit(Element{X: marginLeft, Style: StyleBody, Text: noDetailPlaceholder})
	} else {
		items := doc.Items
		if len(items) > maxDetailItems {
			items = items[:maxDetailItems]
		}
		for _, item := range items {
			line := fmt.Sprintf("%s | %s | %s | %s",
				orNA(item.Description), orNA(item.Quantity), orNA(item.UnitPrice), orNA(item.LineTotal))
			for _, wrapped := range Wrap(line, detailWrapWidth) {
				l.Emit(Element{X: marginLeft, Style: StyleBody, Text: wrapped})
			}
		}
	}

	// Verbatim annex: the complete source document, one wrapped block per
	// physical source line, paginated by the cursor.
	l.NewPage()
	emitBanner(l, "Source document")
	for _, line := range WrapLines(string(rawDocument), annexWrapWidth) {
		l.Emit(Element{X: marginLeft, Style: StyleBody, Text: line})
	}

	return l.Result()
}

func emitBanner(l *Layout, title string) {
	l.Emit(Element{X: marginLeft, Style: StyleBanner, Text: title})
}

func emitPair(l *Layout, label, value string) {
	l.Emit(
		Element{X: marginLeft, Style: StyleLabel, Text: label + ":"},
		Element{X: valueColumn, Style: StyleValue, Text: value},
	)
}

// issuancePoint joins establishment, emission point and sequential into the
// conventional ppp-eee-sssssssss form, or N/A when all three are absent.
func issuancePoint(issuer *invoice.Issuer) string {
	if issuer.Establishment == "" && issuer.EmissionPoint == "" && issuer.Sequential == "" {
		return naSentinel
	}
	parts := []string{
		orNA(issuer.Establishment),
		orNA(issuer.EmissionPoint),
		orNA(issuer.Sequential),
	}
	return strings.Join(parts, "-")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return naSentinel
	}
	return s
}
