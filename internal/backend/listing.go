package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Listing endpoints of the reporting API.
const (
	EndpointPeriods        = "/periodos/disponiveis"
	EndpointIssuanceTypes  = "/tipos/emissao"
	EndpointOperationTypes = "/tipos/operacao"
	EndpointTabs           = "/tipos/abas"
)

// Record is one object of a listing answer, kept as raw JSON per field.
type Record map[string]json.RawMessage

// Field renders the named field as text: strings unquoted, other JSON values in
// their literal form, missing or null fields as "".
func (r Record) Field(name string) string {
	raw, ok := r[name]
	if !ok {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// ListPeriods returns the available reporting periods (fields dtIn, dtFin).
func (c *Client) ListPeriods(ctx context.Context) ([]Record, error) {
	return c.list(ctx, EndpointPeriods)
}

// ListIssuanceTypes returns the issuance types (fields codigo, descricao).
func (c *Client) ListIssuanceTypes(ctx context.Context) ([]Record, error) {
	return c.list(ctx, EndpointIssuanceTypes)
}

// ListOperationTypes returns the operation types (fields codigo, descricao).
func (c *Client) ListOperationTypes(ctx context.Context) ([]Record, error) {
	return c.list(ctx, EndpointOperationTypes)
}

// ListTabs returns the report tabs (fields codigo, descricao).
func (c *Client) ListTabs(ctx context.Context) ([]Record, error) {
	return c.list(ctx, EndpointTabs)
}

func (c *Client) list(ctx context.Context, endpoint string) ([]Record, error) {
	resp, err := c.Fetch(ctx, http.MethodGet, endpoint, nil, 0)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: resp.Text()}
	}
	var records []Record
	if err := json.Unmarshal(resp.Body, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedResponse, endpoint, err)
	}
	return records, nil
}
