package web

// This file contains shared request parsing used across handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/shipsched/internal/importer"
	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/JonMunkholm/shipsched/internal/store"
	"github.com/go-chi/chi/v5"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// readOnlyKeys are schedule keys the server owns. They are accepted in a
// request body so a fetched schedule can be sent back, and ignored.
var readOnlyKeys = []string{"id", "source_row", "upload_id", "created_at", "updated_at"}

// parseIntParam parses a non-negative integer query parameter with a
// default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// parseIDParam reads the {id} path parameter.
func parseIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid schedule id %q", raw)
	}
	return id, nil
}

// parseScheduleFilter builds a store filter from query parameters:
// status, product_id, ck_code, upload_id, eta_from, eta_to, q, limit and
// offset. Dates accept the same formats as imported cells.
func parseScheduleFilter(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	f := store.Filter{
		CKCode:   strings.TrimSpace(q.Get("ck_code")),
		UploadID: strings.TrimSpace(q.Get("upload_id")),
		Search:   strings.TrimSpace(q.Get("q")),
		Limit:    parseIntParam(r, "limit", store.DefaultQueryLimit),
		Offset:   parseIntParam(r, "offset", 0),
	}

	if raw := q.Get("status"); raw != "" {
		status, err := schedule.ParseStatus(raw)
		if err != nil {
			return store.Filter{}, err
		}
		f.Status = status
	}

	if raw := q.Get("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return store.Filter{}, fmt.Errorf("invalid product_id %q", raw)
		}
		f.ProductID = id
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"eta_from", &f.ETAFrom},
		{"eta_to", &f.ETATo},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		d := importer.ParseDate(raw)
		if d == nil {
			return store.Filter{}, fmt.Errorf("invalid date: %s %q", p.name, raw)
		}
		*p.dst = d
	}

	return f, nil
}

// decodeJSON decodes a JSON object body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("invalid request body: empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// scheduleFromBody builds a schedule from a JSON object of field keys.
// The product is named by "product_id", "product_name" or a "product"
// object; every other key is typed the way an imported cell is.
func scheduleFromBody(w http.ResponseWriter, r *http.Request) (*schedule.Schedule, error) {
	var body map[string]any
	if err := decodeJSON(w, r, &body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.New("invalid request body: expected an object")
	}

	for _, k := range readOnlyKeys {
		delete(body, k)
	}

	var ref schedule.ProductRef
	if raw, ok := body["product"].(map[string]any); ok {
		id, err := jsonInt(raw["id"])
		if err != nil {
			return nil, fmt.Errorf("invalid product id: %w", err)
		}
		ref.ID = id
	}
	delete(body, "product")
	if raw, ok := body["product_id"]; ok {
		id, err := jsonInt(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id: %w", err)
		}
		ref.ID = id
		delete(body, "product_id")
	}
	if raw, ok := body[string(importer.FieldProductName)]; ok {
		name, _ := raw.(string)
		ref.Name = name
		delete(body, string(importer.FieldProductName))
	}

	s := schedule.New(ref)
	if raw, ok := body["status"]; ok {
		text, _ := raw.(string)
		status, err := schedule.ParseStatus(text)
		if err != nil {
			return nil, err
		}
		s.Status = status
		delete(body, "status")
	}

	if err := importer.Assign(s, body); err != nil {
		return nil, err
	}
	return s, nil
}

// jsonInt reads a whole number from a decoded JSON value.
func jsonInt(v any) (int64, error) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%v is not a whole number", x)
		}
		return int64(x), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("unexpected %T", v)
}
