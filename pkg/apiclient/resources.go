package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gestionale-natale/crm-client/internal/domain"
	"github.com/gestionale-natale/crm-client/pkg/httpclient"
)

func resourcePath(parts ...string) string {
	p := ""
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func idString(id int64) string { return strconv.FormatInt(id, 10) }

// LoadData lists the records of resourceType, trashed ones included on request.
func (c *Client) LoadData(ctx context.Context, resourceType string, includeTrashed bool) Result {
	return c.exchange(ctx, call{
		op: "load_data",
		req: httpclient.Request{
			Method: http.MethodGet,
			Path:   resourcePath(resourceType),
			Query:  map[string]string{"include_eliminati": strconv.FormatBool(includeTrashed)},
		},
	})
}

// SaveData posts record (usually the full list) for resourceType.
func (c *Client) SaveData(ctx context.Context, resourceType string, record any) Result {
	return c.exchange(ctx, call{
		op: "save_data",
		req: httpclient.Request{
			Method: http.MethodPost,
			Path:   resourcePath(resourceType),
			Body:   record,
		},
	})
}

// LoadSettings fetches the application settings.
func (c *Client) LoadSettings(ctx context.Context) Result {
	return c.exchange(ctx, call{
		op:  "load_settings",
		req: httpclient.Request{Method: http.MethodGet, Path: "/settings"},
	})
}

// SaveSettings stores the application settings.
func (c *Client) SaveSettings(ctx context.Context, settings any) Result {
	return c.exchange(ctx, call{
		op:  "save_settings",
		req: httpclient.Request{Method: http.MethodPost, Path: "/settings", Body: settings},
	})
}

// MoveToEliminati soft-deletes one record.
func (c *Client) MoveToEliminati(ctx context.Context, resourceType string, id int64) Result {
	return c.exchange(ctx, call{
		op:  "move_to_eliminati",
		req: httpclient.Request{Method: http.MethodPost, Path: resourcePath("move-to-eliminati", resourceType, idString(id))},
	})
}

// RestoreFromEliminati brings a trashed record back.
func (c *Client) RestoreFromEliminati(ctx context.Context, id int64) Result {
	return c.exchange(ctx, call{
		op:  "restore_from_eliminati",
		req: httpclient.Request{Method: http.MethodPost, Path: resourcePath("restore-from-eliminati", idString(id))},
	})
}

// DeleteFromEliminati permanently removes one trashed record.
func (c *Client) DeleteFromEliminati(ctx context.Context, id int64) Result {
	return c.exchange(ctx, call{
		op:  "delete_from_eliminati",
		req: httpclient.Request{Method: http.MethodDelete, Path: resourcePath("eliminati", idString(id))},
	})
}

// EmptyTrash permanently removes every trashed record.
func (c *Client) EmptyTrash(ctx context.Context) Result {
	return c.exchange(ctx, call{
		op:  "empty_trash",
		req: httpclient.Request{Method: http.MethodDelete, Path: "/eliminati"},
	})
}

// LoadTrash lists every trashed record across resource types.
func (c *Client) LoadTrash(ctx context.Context) Result {
	return c.exchange(ctx, call{
		op:  "load_trash",
		req: httpclient.Request{Method: http.MethodGet, Path: "/eliminati"},
	})
}

// UpdateBulk sets propertyName to propertyValue on every id. An empty id list
// is still sent; the backend decides what to do with it.
func (c *Client) UpdateBulk(ctx context.Context, resourceType string, ids []int64, propertyName string, propertyValue any) Result {
	if ids == nil {
		ids = []int64{}
	}
	return c.exchange(ctx, call{
		op: "update_bulk",
		req: httpclient.Request{
			Method: http.MethodPost,
			Path:   resourcePath("update-bulk", resourceType),
			Body: domain.BulkUpdate{
				IDs:           ids,
				PropertyName:  propertyName,
				PropertyValue: propertyValue,
			},
		},
	})
}

// Status reports the backend version and whether Excel support is enabled.
// The backend answers with a bare object, which is wrapped as the data payload.
func (c *Client) Status(ctx context.Context) Result {
	cl := call{
		op:  "status",
		req: httpclient.Request{Method: http.MethodGet, Path: "/status"},
	}
	resp, failed := c.send(ctx, cl)
	if failed != nil {
		return *failed
	}
	body := resp.Body()
	if !json.Valid(body) {
		return c.fail(cl, resp, "decode response: invalid JSON")
	}
	return Result{Success: true, Data: json.RawMessage(body)}
}
