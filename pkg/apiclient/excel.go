package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gestionale-natale/crm-client/pkg/httpclient"
)

// ExportGLSFileName is the name every GLS export is saved under.
const ExportGLSFileName = "Spedizioni_GLS.xlsx"

// Upload is the file handed to ImportExcel.
type Upload struct {
	Name   string
	Reader io.Reader
}

// FileSaver persists a downloaded file.
type FileSaver interface {
	Save(ctx context.Context, name string, data []byte) error
}

// FileSaverFunc adapts a function to FileSaver.
type FileSaverFunc func(ctx context.Context, name string, data []byte) error

func (f FileSaverFunc) Save(ctx context.Context, name string, data []byte) error {
	return f(ctx, name, data)
}

// DirSaver writes files into Dir, creating it when missing.
type DirSaver struct {
	Dir string
}

func (d DirSaver) Save(_ context.Context, name string, data []byte) error {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// ImportExcel uploads file as the multipart field "file". Size and type are
// not checked here; the backend validates them.
func (c *Client) ImportExcel(ctx context.Context, resourceType string, file Upload) Result {
	return c.exchange(ctx, call{
		op:  "import_excel",
		key: messageKey,
		req: httpclient.Request{
			Method: http.MethodPost,
			Path:   resourcePath("import-excel", resourceType),
			File:   &httpclient.FilePart{Field: "file", Name: file.Name, Reader: file.Reader},
		},
	})
}

// ExportGLS downloads the GLS shipment spreadsheet and saves it as
// ExportGLSFileName. The success envelope carries no data.
func (c *Client) ExportGLS(ctx context.Context) Result {
	cl := call{
		op:  "export_gls",
		key: messageKey,
		req: httpclient.Request{Method: http.MethodGet, Path: "/export-gls"},
	}
	resp, failed := c.send(ctx, cl)
	if failed != nil {
		return *failed
	}
	saver := c.saver
	if saver == nil {
		saver = DirSaver{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := saver.Save(ctx, ExportGLSFileName, resp.Body()); err != nil {
		return c.fail(cl, nil, fmt.Sprintf("save %s: %v", ExportGLSFileName, err))
	}
	return Result{Success: true}
}
