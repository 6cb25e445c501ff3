package api

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Page is one page of list results.
//
// TotalPages is always ceil(Total / PerPage); the items slice carries at
// most PerPage entries per the server's contract.
type Page struct {
	Items      []Record `json:"items"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
	Total      int      `json:"total"`
	TotalPages int      `json:"total_pages"`
}

// decodePage decodes a list response. The console API answers either a
// bare JSON array or a {data: [...], page, per_page, total} envelope;
// this is the single place that shape check lives, shared by every
// resource client.
func decodePage(body []byte) (*Page, error) {
	root := gjson.ParseBytes(body)

	var itemsRaw string
	page := &Page{Page: 1}

	switch {
	case root.IsArray():
		itemsRaw = root.Raw
	case root.Get("data").IsArray():
		itemsRaw = root.Get("data").Raw
		page.Page = intOr(root.Get("page"), 1)
		page.PerPage = intOr(root.Get("per_page"), 0)
		page.Total = intOr(root.Get("total"), 0)
	default:
		return nil, &Error{Message: "unexpected list response shape"}
	}

	if err := json.Unmarshal([]byte(itemsRaw), &page.Items); err != nil {
		return nil, &Error{Message: "decode list items: " + err.Error()}
	}

	if page.PerPage == 0 {
		page.PerPage = len(page.Items)
	}
	if page.Total == 0 {
		page.Total = len(page.Items)
	}
	if page.PerPage > 0 {
		page.TotalPages = (page.Total + page.PerPage - 1) / page.PerPage
	}

	return page, nil
}

// decodeRecord decodes a single-record response, unwrapping a
// {data: {...}} envelope when present.
func decodeRecord(body []byte) (Record, error) {
	if len(body) == 0 {
		return nil, nil
	}

	root := gjson.ParseBytes(body)
	raw := root.Raw
	if data := root.Get("data"); data.IsObject() {
		raw = data.Raw
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, &Error{Message: "decode record: " + err.Error()}
	}
	return rec, nil
}

func intOr(r gjson.Result, fallback int) int {
	if !r.Exists() {
		return fallback
	}
	return int(r.Int())
}
