// Package airtable is a small REST client for the Airtable records API.
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	commonhttp "shop-concierge/internal/common/http"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.airtable.com/v0"

// maxPageSize is the largest page the API serves.
const maxPageSize = 100

// Record is one row. Fields are decoded by the caller.
type Record struct {
	ID          string          `json:"id"`
	CreatedTime string          `json:"createdTime,omitempty"`
	Fields      json.RawMessage `json:"fields"`
}

// DecodeFields unmarshals the record's fields into v.
func (r Record) DecodeFields(v interface{}) error {
	if len(r.Fields) == 0 {
		return nil
	}
	return json.Unmarshal(r.Fields, v)
}

// ListParams narrows a list call. MaxRecords caps the total across pages.
type ListParams struct {
	FilterByFormula string
	MaxRecords      int
	PageSize        int
	Fields          []string
	View            string
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

type Client struct {
	http    *commonhttp.Client
	baseURL string
	baseID  string
	token   string
}

func NewClient(httpClient *commonhttp.Client, baseURL, baseID, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		baseID:  baseID,
		token:   token,
	}
}

func (c *Client) tableURL(table string, recordID ...string) string {
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(table))
	if len(recordID) > 0 && recordID[0] != "" {
		u += "/" + url.PathEscape(recordID[0])
	}
	return u
}

func (c *Client) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.token}
}

// List pages through table until the offset runs out or MaxRecords is hit.
func (c *Client) List(ctx context.Context, table string, p ListParams) ([]Record, error) {
	q := url.Values{}
	if p.FilterByFormula != "" {
		q.Set("filterByFormula", p.FilterByFormula)
	}
	if p.MaxRecords > 0 {
		q.Set("maxRecords", strconv.Itoa(p.MaxRecords))
	}
	pageSize := p.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	q.Set("pageSize", strconv.Itoa(pageSize))
	for _, f := range p.Fields {
		q.Add("fields[]", f)
	}
	if p.View != "" {
		q.Set("view", p.View)
	}

	var out []Record
	for {
		var page listResponse
		if err := c.http.DoJSON(ctx, http.MethodGet, c.tableURL(table)+"?"+q.Encode(), c.headers(), nil, &page); err != nil {
			return nil, fmt.Errorf("airtable list %s: %w", table, err)
		}
		out = append(out, page.Records...)

		if p.MaxRecords > 0 && len(out) >= p.MaxRecords {
			return out[:p.MaxRecords], nil
		}
		if page.Offset == "" {
			return out, nil
		}
		q.Set("offset", page.Offset)
	}
}

// Create inserts one record and returns it as stored.
func (c *Client) Create(ctx context.Context, table string, fields interface{}) (Record, error) {
	var rec Record
	body := map[string]interface{}{"fields": fields, "typecast": true}
	if err := c.http.DoJSON(ctx, http.MethodPost, c.tableURL(table), c.headers(), body, &rec); err != nil {
		return Record{}, fmt.Errorf("airtable create %s: %w", table, err)
	}
	return rec, nil
}

// Update patches the given fields of one record.
func (c *Client) Update(ctx context.Context, table, recordID string, fields interface{}) (Record, error) {
	var rec Record
	body := map[string]interface{}{"fields": fields, "typecast": true}
	if err := c.http.DoJSON(ctx, http.MethodPatch, c.tableURL(table, recordID), c.headers(), body, &rec); err != nil {
		return Record{}, fmt.Errorf("airtable update %s/%s: %w", table, recordID, err)
	}
	return rec, nil
}

// Delete removes one record.
func (c *Client) Delete(ctx context.Context, table, recordID string) error {
	if err := c.http.DoJSON(ctx, http.MethodDelete, c.tableURL(table, recordID), c.headers(), nil, nil); err != nil {
		return fmt.Errorf("airtable delete %s/%s: %w", table, recordID, err)
	}
	return nil
}
