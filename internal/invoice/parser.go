// Package invoice parses authorized SRI electronic invoice documents
// ("factura") into a typed in-memory model and extracts the notification
// recipient from the additional-fields section.
//
// The parser is deliberately schema-tolerant: every section other than the
// top-level document element is optional, and an invoice wrapped inside an
// authorization envelope (<autorizacion><comprobante>escaped XML
// </comprobante></autorizacion>) is unwrapped and re-parsed. Only a document
// whose top-level structure cannot be recognized fails.
package invoice

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"sri-notifier/internal/types"
)

// Document is the parsed invoice. Optional sections that are absent from the
// source remain nil or empty; rendering substitutes its "N/A" sentinel.
type Document struct {
	Issuer           *Issuer
	Info             *Info
	Items            []LineItem
	AdditionalFields []Field
}

// Issuer holds the tax-authority header fields (infoTributaria).
type Issuer struct {
	LegalName      string
	CommercialName string
	RUC            string
	Establishment  string
	EmissionPoint  string
	Sequential     string
}

// Info holds the buyer and totals fields (infoFactura). Monetary amounts are
// kept as the source's decimal strings; the notifier renders them verbatim
// and never does arithmetic on them.
type Info struct {
	IssueDate string
	BuyerName string
	BuyerID   string
	Currency  string
	Subtotal  string
	Total     string
}

// LineItem is one entry of the detalles section.
type LineItem struct {
	Description string
	Quantity    string
	UnitPrice   string
	LineTotal   string
}

// Field is one name/value pair of the infoAdicional section.
type Field struct {
	Name  string
	Value string
}

// XML mapping structures. Field names follow the SRI schema.

type xmlFactura struct {
	XMLName        xml.Name           `xml:"factura"`
	InfoTributaria *xmlInfoTributaria `xml:"infoTributaria"`
	InfoFactura    *xmlInfoFactura    `xml:"infoFactura"`
	Detalles       []xmlDetalle       `xml:"detalles>detalle"`
	InfoAdicional  *xmlInfoAdicional  `xml:"infoAdicional"`
}

type xmlInfoTributaria struct {
	RazonSocial     string `xml:"razonSocial"`
	NombreComercial string `xml:"nombreComercial"`
	RUC             string `xml:"ruc"`
	Estab           string `xml:"estab"`
	PtoEmi          string `xml:"ptoEmi"`
	Secuencial      string `xml:"secuencial"`
}

type xmlInfoFactura struct {
	FechaEmision            string `xml:"fechaEmision"`
	RazonSocialComprador    string `xml:"razonSocialComprador"`
	IdentificacionComprador string `xml:"identificacionComprador"`
	Moneda                  string `xml:"moneda"`
	TotalSinImpuestos       string `xml:"totalSinImpuestos"`
	ImporteTotal            string `xml:"importeTotal"`
}

type xmlDetalle struct {
	Descripcion             string `xml:"descripcion"`
	Cantidad                string `xml:"cantidad"`
	PrecioUnitario          string `xml:"precioUnitario"`
	PrecioTotalSinImpuesto  string `xml:"precioTotalSinImpuesto"`
}

type xmlInfoAdicional struct {
	Campos []xmlCampoAdicional `xml:"campoAdicional"`
}

type xmlCampoAdicional struct {
	Nombre string `xml:"nombre,attr"`
	Value  string `xml:",chardata"`
}

type xmlAutorizacion struct {
	XMLName     xml.Name `xml:"autorizacion"`
	Comprobante string   `xml:"comprobante"`
}

// maxUnwrapDepth bounds recursion through nested authorization envelopes.
const maxUnwrapDepth = 2

// Parse decodes raw document bytes into a Document. It accepts either a bare
// <factura> document or an <autorizacion> envelope carrying the invoice as
// escaped XML inside <comprobante>. Any other top-level structure fails with
// parse_invoice_failed.
func Parse(raw []byte) (*Document, error) {
	return parse(raw, 0)
}

func parse(raw []byte, depth int) (*Document, error) {
	root, err := rootName(raw)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeParseInvoice, "document is not well-formed XML", err)
	}

	switch root {
	case "factura":
		var f xmlFactura
		if err := xml.Unmarshal(raw, &f); err != nil {
			return nil, types.NewAppError(types.ErrCodeParseInvoice, "factura element could not be decoded", err)
		}
		return fromXML(&f), nil

	case "autorizacion":
		if depth >= maxUnwrapDepth {
			return nil, types.NewAppError(types.ErrCodeParseInvoice, "authorization envelope nested too deeply", nil)
		}
		var a xmlAutorizacion
		if err := xml.Unmarshal(raw, &a); err != nil {
			return nil, types.NewAppError(types.ErrCodeParseInvoice, "autorizacion element could not be decoded", err)
		}
		inner := strings.TrimSpace(a.Comprobante)
		if inner == "" {
			return nil, types.NewAppError(types.ErrCodeParseInvoice, "authorization envelope carries no comprobante", nil)
		}
		return parse([]byte(inner), depth+1)

	default:
		return nil, types.NewAppError(
			types.ErrCodeParseInvoice,
			fmt.Sprintf("unrecognized document root <%s>", root),
			nil,
		)
	}
}

// rootName returns the local name of the first start element.
func rootName(raw []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return "", fmt.Errorf("document contains no elements")
			}
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

// fromXML maps the decoded schema structures onto the Document model.
// Sections that were absent stay nil; repeated <detalle> elements decode into
// the same slice whether the source carried one or many, so the one-element
// case needs no special handling.
func fromXML(f *xmlFactura) *Document {
	doc := &Document{}

	if f.InfoTributaria != nil {
		doc.Issuer = &Issuer{
			LegalName:      strings.TrimSpace(f.InfoTributaria.RazonSocial),
			CommercialName: strings.TrimSpace(f.InfoTributaria.NombreComercial),
			RUC:            strings.TrimSpace(f.InfoTributaria.RUC),
			Establishment:  strings.TrimSpace(f.InfoTributaria.Estab),
			EmissionPoint:  strings.TrimSpace(f.InfoTributaria.PtoEmi),
			Sequential:     strings.TrimSpace(f.InfoTributaria.Secuencial),
		}
	}

	if f.InfoFactura != nil {
		doc.Info = &Info{
			IssueDate: strings.TrimSpace(f.InfoFactura.FechaEmision),
			BuyerName: strings.TrimSpace(f.InfoFactura.RazonSocialComprador),
			BuyerID:   strings.TrimSpace(f.InfoFactura.IdentificacionComprador),
			Currency:  strings.TrimSpace(f.InfoFactura.Moneda),
			Subtotal:  strings.TrimSpace(f.InfoFactura.TotalSinImpuestos),
			Total:     strings.TrimSpace(f.InfoFactura.ImporteTotal),
		}
	}

	for _, d := range f.Detalles {
		doc.Items = append(doc.Items, LineItem{
			Description: strings.TrimSpace(d.Descripcion),
			Quantity:    strings.TrimSpace(d.Cantidad),
			UnitPrice:   strings.TrimSpace(d.PrecioUnitario),
			LineTotal:   strings.TrimSpace(d.PrecioTotalSinImpuesto),
		})
	}

	if f.InfoAdicional != nil {
		for _, c := range f.InfoAdicional.Campos {
			doc.AdditionalFields = append(doc.AdditionalFields, Field{
				Name:  c.Nombre,
				Value: c.Value,
			})
		}
	}

	return doc
}
