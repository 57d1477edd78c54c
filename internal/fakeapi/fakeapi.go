// Package fakeapi is an in-memory stand-in for the CRM backend, used by tests.
// It implements the REST surface under /api, records every request and can be
// told to fail specific routes.
package fakeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gestionale-natale/crm-client/internal/domain"
	"github.com/go-chi/chi/v5"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Request is a recorded inbound request.
type Request struct {
	Method      string
	Path        string
	Query       map[string][]string
	ContentType string
	Body        []byte
}

// MultipartFile extracts field from a recorded multipart body.
func (r Request) MultipartFile(field string) (string, []byte, error) {
	mediaType, params, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return "", nil, fmt.Errorf("parse content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return "", nil, fmt.Errorf("not a multipart request: %s", mediaType)
	}
	reader := multipart.NewReader(bytes.NewReader(r.Body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return "", nil, fmt.Errorf("field %q not found", field)
		}
		if err != nil {
			return "", nil, err
		}
		if part.FormName() != field {
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return "", nil, err
		}
		return part.FileName(), data, nil
	}
}

type failure struct {
	status      int
	contentType string
	body        string
}

// Backend holds the fake's state.
type Backend struct {
	mu       sync.Mutex
	nextID   int64
	contacts map[int64]*domain.Contact
	settings map[string]any
	failures map[string]failure
	requests []Request
	router   chi.Router
}

// New returns an empty backend with default settings.
func New() *Backend {
	b := &Backend{
		nextID:   1,
		contacts: make(map[int64]*domain.Contact),
		settings: map[string]any{
			"regaloCorrente": "Grappa",
			"annoCorrente":   time.Now().Year(),
			"consegnatari":   []string{"Andrea Gosgnach", "Marco Crasnich"},
		},
		failures: make(map[string]failure),
	}
	b.router = b.routes()
	return b
}

// Serve starts an httptest server; the client base URL is server.URL + "/api".
func (b *Backend) Serve() *httptest.Server {
	return httptest.NewServer(b.router)
}

// Handler exposes the router.
func (b *Backend) Handler() http.Handler { return b.router }

// Seed stores contacts of the given type and returns their ids.
func (b *Backend) Seed(tipo string, contacts ...domain.Contact) []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]int64, 0, len(contacts))
	for _, c := range contacts {
		c := c
		c.Tipo = tipo
		if c.ID == 0 {
			c.ID = b.nextID
		}
		if c.ID >= b.nextID {
			b.nextID = c.ID + 1
		}
		b.contacts[c.ID] = &c
		ids = append(ids, c.ID)
	}
	return ids
}

// Contact returns a copy of the stored contact.
func (b *Backend) Contact(id int64) (domain.Contact, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.contacts[id]
	if !ok {
		return domain.Contact{}, false
	}
	return *c, true
}

// Fail makes every request matching method and path (relative to /api) answer
// with status and a JSON body.
func (b *Backend) Fail(method, path string, status int, body string) {
	b.FailWith(method, path, status, "application/json", body)
}

// FailWith is Fail with an explicit content type.
func (b *Backend) FailWith(method, path string, status int, contentType, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" /api"+path] = failure{status: status, contentType: contentType, body: body}
}

// Requests returns the recorded requests in arrival order.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

func (b *Backend) routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(b.record, b.injectFailures)

		r.Get("/status", b.status)
		r.Get("/settings", b.getSettings)
		r.Post("/settings", b.saveSettings)
		r.Get("/eliminati", b.listTrash)
		r.Delete("/eliminati", b.emptyTrash)
		r.Delete("/eliminati/{id}", b.deletePermanently)
		r.Post("/move-to-eliminati/{tipo}/{id}", b.moveToTrash)
		r.Post("/restore-from-eliminati/{id}", b.restore)
		r.Post("/update-bulk/{tipo}", b.updateBulk)
		r.Post("/import-excel/{tipo}", b.importExcel)
		r.Get("/export-gls", b.exportGLS)
		r.Get("/{tipo}", b.list)
		r.Post("/{tipo}", b.save)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Risorsa non trovata"})
	})
	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.Query(),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		b.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (b *Backend) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		f, ok := b.failures[r.Method+" "+r.URL.Path]
		b.mu.Unlock()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", f.contentType)
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter, id int64) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"success": false,
		"error":   fmt.Sprintf("Contatto con ID %d non trovato", id),
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// snapshot returns contacts matching keep, ordered by id. Caller holds mu.
func (b *Backend) snapshot(keep func(*domain.Contact) bool) []domain.Contact {
	out := make([]domain.Contact, 0, len(b.contacts))
	for _, c := range b.contacts {
		if keep(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) activeOf(tipo string) []domain.Contact {
	return b.snapshot(func(c *domain.Contact) bool { return c.Tipo == tipo && !c.Eliminato })
}

func (b *Backend) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Status{Status: "online", Version: "1.0.0", ExcelSupport: true})
}

func (b *Backend) getSettings(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": b.settings})
}

func (b *Backend) saveSettings(w http.ResponseWriter, r *http.Request) {
	var in map[string]any
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	b.mu.Lock()
	for k, v := range in {
		b.settings[k] = v
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) list(w http.ResponseWriter, r *http.Request) {
	tipo := chi.URLParam(r, "tipo")
	includeTrashed := strings.EqualFold(r.URL.Query().Get("include_eliminati"), "true")

	b.mu.Lock()
	data := b.snapshot(func(c *domain.Contact) bool {
		return c.Tipo == tipo && (includeTrashed || !c.Eliminato)
	})
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// save replaces the active list of tipo: missing ids are trashed, the rest upserted.
func (b *Backend) save(w http.ResponseWriter, r *http.Request) {
	tipo := chi.URLParam(r, "tipo")
	var items []domain.Contact
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	keep := make(map[int64]bool, len(items))
	for _, item := range items {
		if item.ID != 0 {
			keep[item.ID] = true
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, c := range b.contacts {
		if c.Tipo == tipo && !c.Eliminato && !keep[c.ID] {
			c.Eliminato = true
			c.EliminatoIl = now
		}
	}
	for _, item := range items {
		item := item
		item.Tipo = tipo
		item.LastUpdate = now
		if existing, ok := b.contacts[item.ID]; ok && item.ID != 0 {
			item.CreatedAt = existing.CreatedAt
			b.contacts[item.ID] = &item
			continue
		}
		if item.ID == 0 {
			item.ID = b.nextID
		}
		if item.ID >= b.nextID {
			b.nextID = item.ID + 1
		}
		item.CreatedAt = now
		b.contacts[item.ID] = &item
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": b.activeOf(tipo)})
}

func (b *Backend) moveToTrash(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Risorsa non trovata"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.contacts[id]
	if !ok {
		notFound(w, id)
		return
	}
	c.Eliminato = true
	c.EliminatoIl = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) restore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Risorsa non trovata"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.contacts[id]
	if !ok {
		notFound(w, id)
		return
	}
	c.Eliminato = false
	c.EliminatoIl = ""
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) listTrash(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	data := b.snapshot(func(c *domain.Contact) bool { return c.Eliminato })
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func (b *Backend) emptyTrash(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	for id, c := range b.contacts {
		if c.Eliminato {
			delete(b.contacts, id)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) deletePermanently(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Risorsa non trovata"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.contacts[id]; !ok {
		notFound(w, id)
		return
	}
	delete(b.contacts, id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) updateBulk(w http.ResponseWriter, r *http.Request) {
	tipo := chi.URLParam(r, "tipo")
	var in domain.BulkUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || len(in.IDs) == 0 || in.PropertyName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Parametri mancanti (ids, propertyName, propertyValue)",
		})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range in.IDs {
		c, ok := b.contacts[id]
		if !ok || c.Tipo != tipo {
			continue
		}
		if updated, err := setProperty(*c, in.PropertyName, in.PropertyValue); err == nil {
			b.contacts[id] = &updated
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": b.activeOf(tipo)})
}

// setProperty sets one JSON field on c; grappa and gls accept true, 1 or "1".
func setProperty(c domain.Contact, name string, value any) (domain.Contact, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return c, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return c, err
	}
	if name == "grappa" || name == "gls" {
		switch v := value.(type) {
		case bool:
			value = v
		case float64:
			value = v == 1
		case string:
			value = v == "1"
		default:
			value = false
		}
	}
	fields[name] = value
	fields["lastUpdate"] = time.Now().UTC().Format(time.RFC3339)

	raw, err = json.Marshal(fields)
	if err != nil {
		return c, err
	}
	var out domain.Contact
	if err := json.Unmarshal(raw, &out); err != nil {
		return c, err
	}
	return out, nil
}

func (b *Backend) importExcel(w http.ResponseWriter, r *http.Request) {
	tipo := chi.URLParam(r, "tipo")
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Nessun file caricato"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" && ext != ".xls" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Formato file non supportato. Utilizzare .xlsx o .xls",
		})
		return
	}

	b.mu.Lock()
	data := b.activeOf(tipo)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Importazione completata: 0 nuovi record, 0 record aggiornati",
		"data":    data,
	})
}

func (b *Backend) exportGLS(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	rows := b.snapshot(func(c *domain.Contact) bool {
		return c.GLS && !c.Eliminato && (c.Tipo == "clienti" || c.Tipo == "partner")
	})
	b.mu.Unlock()

	if len(rows) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": "Nessun record da esportare per GLS",
		})
		return
	}

	var buf bytes.Buffer
	buf.WriteString("NOME DESTINATARIO;INDIRIZZO;LOCALITA';PROV;CAP\n")
	for _, c := range rows {
		fmt.Fprintf(&buf, "%s;%s;%s;%s;%s\n", c.DisplayName(),
			strings.TrimSpace(c.Indirizzo+" "+c.Civico), c.Localita, c.Provincia, c.CAP)
	}
	w.Header().Set("Content-Type", xlsxMime)
	w.Header().Set("Content-Disposition", `attachment; filename="Spedizioni_GLS.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
