// Package view holds the pure presentation transforms over a market
// snapshot: filter, sort and paginate. Every function is deterministic and
// side-effect free; state lives in a single State record.
package view

import (
	"sort"

	"SigBoard/internal/domain/models"
)

// FilterAll passes every entry through the signal filter.
const FilterAll = "ALL"

// Sort keys.
const (
	SortSymbol = "symbol"
	SortSignal = "signal"
	SortScore  = "score"
	SortChange = "change"
)

// State is the immutable view configuration applied to a snapshot.
type State struct {
	Filter string
	Sort   string
	Page   int
	Size   int
}

// Page is the result of applying a State to a snapshot.
type Page struct {
	Rows       []models.Row `json:"rows"`
	Total      int          `json:"total"`
	Filtered   int          `json:"filtered"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
}

// Rows materializes a snapshot into rows ordered by symbol. Map iteration
// order is random, so every transform starts from this deterministic order.
func Rows(snap models.Snapshot) []models.Row {
	rows := make([]models.Row, 0, len(snap.Entries))
	for symbol, entry := range snap.Entries {
		rows = append(rows, models.Row{Symbol: symbol, Entry: entry})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })
	return rows
}

// Filter keeps rows whose signal matches exactly. FilterAll keeps everything.
func Filter(rows []models.Row, signal string) []models.Row {
	if signal == "" || signal == FilterAll {
		return rows
	}
	out := make([]models.Row, 0, len(rows))
	for _, r := range rows {
		if string(r.Entry.Signal) == signal {
			out = append(out, r)
		}
	}
	return out
}

// SortBy orders rows by the given key: symbol and signal ascending, score and
// 24h change descending. Ties keep the prior (symbol) order.
func SortBy(rows []models.Row, key string) []models.Row {
	out := make([]models.Row, len(rows))
	copy(out, rows)

	switch key {
	case SortSignal:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Entry.Signal < out[j].Entry.Signal
		})
	case SortScore:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Entry.Score > out[j].Entry.Score
		})
	case SortChange:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Entry.Change24h > out[j].Entry.Change24h
		})
	default: // symbol
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Symbol < out[j].Symbol
		})
	}
	return out
}

// Paginate slices rows for a 1-based page of the given size. A page past the
// end yields an empty slice. Returns the page rows and the total page count.
func Paginate(rows []models.Row, page, size int) ([]models.Row, int) {
	if size <= 0 {
		size = 1
	}
	if page <= 0 {
		page = 1
	}

	totalPages := (len(rows) + size - 1) / size

	start := (page - 1) * size
	if start >= len(rows) {
		return []models.Row{}, totalPages
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], totalPages
}

// Apply runs filter, sort and paginate over a snapshot in that order.
func Apply(snap models.Snapshot, state State) Page {
	all := Rows(snap)
	filtered := Filter(all, state.Filter)
	sorted := SortBy(filtered, state.Sort)
	rows, totalPages := Paginate(sorted, state.Page, state.Size)

	return Page{
		Rows:       rows,
		Total:      len(all),
		Filtered:   len(filtered),
		Page:       state.Page,
		TotalPages: totalPages,
	}
}
