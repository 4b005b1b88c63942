// Package request turns an incoming body, structured JSON or flat form, into
// a domain.DocumentRequest. Encodings are only distinguished when choosing a
// Source; everything after that reads fields through the Source interface.
package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/punchamoorthee/estatedocs/internal/domain"
)

// DefaultDocumentType is used when a request names no document type.
const DefaultDocumentType = "real_estate_document"

const maxBodyBytes = 1 << 20

// Source yields raw field values from one request encoding.
type Source interface {
	Lookup(key string) (any, bool)
}

// JSONSource is a decoded structured-object body.
type JSONSource map[string]any

func (s JSONSource) Lookup(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// FormSource is a flat key/value body. Only the first value of a key is used.
type FormSource url.Values

func (s FormSource) Lookup(key string) (any, bool) {
	vs, ok := s[key]
	if !ok || len(vs) == 0 {
		return nil, false
	}
	return vs[0], true
}

// FromHTTP picks the Source for r. A JSON content type, or a missing content
// type with a body that looks like an object, is decoded as JSON. Anything
// else is parsed as a form.
func FromHTTP(r *http.Request) (Source, error) {
	ct := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(ct)

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return decodeJSON(body)
	case mediaType == "":
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			return decodeJSON(trimmed)
		}
		values, err := url.ParseQuery(string(trimmed))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedRequest, err)
		}
		return FormSource(values), nil
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedRequest, err)
		}
		return FormSource(r.PostForm), nil
	default:
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedRequest, err)
		}
		return FormSource(r.PostForm), nil
	}
}

func decodeJSON(body []byte) (Source, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty JSON body", domain.ErrMalformedRequest)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedRequest, err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return JSONSource(m), nil
}

// Normalize fills every DocumentRequest field from src, substituting defaults
// for missing or falsy values. Nothing is validated.
func Normalize(src Source) domain.DocumentRequest {
	return domain.DocumentRequest{
		DocumentType:           Text(src, "document_type", DefaultDocumentType),
		BuyerName:              Text(src, "buyer_name", "Buyer"),
		SellerName:             Text(src, "seller_name", "Seller"),
		ClientName:             Text(src, "client_name", "Client"),
		PropertyAddress:        Text(src, "property_address", "Unknown Address"),
		PurchasePrice:          Text(src, "purchase_price", "0"),
		ClosingDate:            Text(src, "closing_date", "TBD"),
		PartyRole:              Text(src, "party_role", "N/A"),
		PropertyState:          Text(src, "property_state", "Florida"),
		TransactionType:        Text(src, "transaction_type", "Residential Purchase"),
		ClauseInspection:       Flag(src, "clause_inspection"),
		ClauseFinancing:        Flag(src, "clause_financing"),
		ClauseAppraisal:        Flag(src, "clause_appraisal"),
		ClauseHOA:              Flag(src, "clause_hoa"),
		AdditionalInstructions: Text(src, "additional_instructions", ""),
	}
}

// Text returns the display text of key, or def when the value is absent or falsy.
func Text(src Source, key, def string) string {
	v, ok := src.Lookup(key)
	if !ok || !truthy(v) {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return "true"
	case []any, map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return def
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// Flag coerces the value of key by truthiness; absent and empty are false.
func Flag(src Source, key string) bool {
	v, ok := src.Lookup(key)
	return ok && truthy(v)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String() != ""
		}
		return f != 0
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
