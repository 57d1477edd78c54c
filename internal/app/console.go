package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gestionale-natale/crm-client/internal/domain"
	"github.com/gestionale-natale/crm-client/internal/logger"
	"github.com/gestionale-natale/crm-client/internal/storage"
	"github.com/gestionale-natale/crm-client/pkg/apiclient"
	"github.com/gestionale-natale/crm-client/pkg/notify"
)

// Command names accepted by Console.Run.
const (
	CmdList         = "list"
	CmdSave         = "save"
	CmdImport       = "import"
	CmdExportGLS    = "export-gls"
	CmdSettingsGet  = "settings-get"
	CmdSettingsSet  = "settings-set"
	CmdTrashMove    = "trash-move"
	CmdTrashRestore = "trash-restore"
	CmdTrashDelete  = "trash-delete"
	CmdTrashEmpty   = "trash-empty"
	CmdTrashList    = "trash-list"
	CmdBulkUpdate   = "bulk-update"
	CmdStatus       = "status"
)

// Commands lists every command in help order.
var Commands = []string{
	CmdList, CmdSave, CmdImport, CmdExportGLS, CmdSettingsGet, CmdSettingsSet,
	CmdTrashMove, CmdTrashRestore, CmdTrashDelete, CmdTrashEmpty, CmdTrashList,
	CmdBulkUpdate, CmdStatus,
}

// API is the subset of the resource client the console drives.
type API interface {
	LoadData(ctx context.Context, resourceType string, includeTrashed bool) apiclient.Result
	SaveData(ctx context.Context, resourceType string, record any) apiclient.Result
	ImportExcel(ctx context.Context, resourceType string, file apiclient.Upload) apiclient.Result
	ExportGLS(ctx context.Context) apiclient.Result
	LoadSettings(ctx context.Context) apiclient.Result
	SaveSettings(ctx context.Context, settings any) apiclient.Result
	MoveToEliminati(ctx context.Context, resourceType string, id int64) apiclient.Result
	RestoreFromEliminati(ctx context.Context, id int64) apiclient.Result
	DeleteFromEliminati(ctx context.Context, id int64) apiclient.Result
	EmptyTrash(ctx context.Context) apiclient.Result
	LoadTrash(ctx context.Context) apiclient.Result
	UpdateBulk(ctx context.Context, resourceType string, ids []int64, propertyName string, propertyValue any) apiclient.Result
	Status(ctx context.Context) apiclient.Result
}

// Dispatcher delivers notifications; *notify.Fanout implements it.
type Dispatcher interface {
	Notify(ctx context.Context, n notify.Notification) (int, error)
}

// Command is one console invocation.
type Command struct {
	Name           string
	Resource       string
	ID             int64
	IDs            []int64
	IncludeTrashed bool
	// Payload is the JSON record for save or the settings object for settings-set.
	Payload       json.RawMessage
	Property      string
	PropertyValue any
	File          apiclient.Upload
}

// Outcome is what a command produced.
type Outcome struct {
	Result       apiclient.Result
	Notification notify.Notification
	Journal      *storage.Entry
}

// OK reports whether the backend accepted the command.
func (o Outcome) OK() bool { return o.Result.Success }

// Console runs commands against the backend, journals mutations and notifies outcomes.
type Console struct {
	api      API
	journal  storage.Store
	notifier Dispatcher
	log      logger.Logger
}

// NewConsole wires a console. journal and notifier may be nil.
func NewConsole(api API, journal storage.Store, notifier Dispatcher, log logger.Logger) *Console {
	if journal == nil {
		journal, _ = storage.NewStore("none", "", storage.Options{})
	}
	return &Console{
		api:      api,
		journal:  journal,
		notifier: notifier,
		log:      logger.Ensure(log),
	}
}

// Run executes cmd. It never panics on backend failures; they are reported in the Outcome.
func (c *Console) Run(ctx context.Context, cmd Command) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.Name = strings.ToLower(strings.TrimSpace(cmd.Name))

	out, mutation := c.dispatch(ctx, cmd)
	if mutation {
		out.Journal = c.record(cmd, out.Result)
	}
	c.notify(ctx, out.Notification)
	return out
}

func (c *Console) dispatch(ctx context.Context, cmd Command) (Outcome, bool) {
	switch cmd.Name {
	case CmdList:
		res := c.api.LoadData(ctx, cmd.Resource, cmd.IncludeTrashed)
		return listOutcome(cmd.Resource, res), false
	case CmdSave:
		res := c.api.SaveData(ctx, cmd.Resource, cmd.Payload)
		return outcome(cmd, res, "Salvataggio completato", "Errore durante il salvataggio"), true
	case CmdImport:
		res := c.api.ImportExcel(ctx, cmd.Resource, cmd.File)
		return outcome(cmd, res, "Importazione completata", "Errore durante l'importazione"), true
	case CmdExportGLS:
		res := c.api.ExportGLS(ctx)
		return outcome(cmd, res, fmt.Sprintf("File %s esportato", apiclient.ExportGLSFileName), "Errore durante l'esportazione GLS"), false
	case CmdSettingsGet:
		res := c.api.LoadSettings(ctx)
		return outcome(cmd, res, "Impostazioni caricate", "Errore nel caricamento delle impostazioni"), false
	case CmdSettingsSet:
		res := c.api.SaveSettings(ctx, cmd.Payload)
		return outcome(cmd, res, "Impostazioni salvate", "Errore nel salvataggio delle impostazioni"), true
	case CmdTrashMove:
		res := c.api.MoveToEliminati(ctx, cmd.Resource, cmd.ID)
		return outcome(cmd, res, fmt.Sprintf("Record %d spostato negli eliminati", cmd.ID), "Errore nello spostamento negli eliminati"), true
	case CmdTrashRestore:
		res := c.api.RestoreFromEliminati(ctx, cmd.ID)
		return outcome(cmd, res, fmt.Sprintf("Record %d ripristinato", cmd.ID), "Errore nel ripristino"), true
	case CmdTrashDelete:
		res := c.api.DeleteFromEliminati(ctx, cmd.ID)
		return outcome(cmd, res, fmt.Sprintf("Record %d eliminato definitivamente", cmd.ID), "Errore nell'eliminazione definitiva"), true
	case CmdTrashEmpty:
		res := c.api.EmptyTrash(ctx)
		return outcome(cmd, res, "Cestino svuotato", "Errore nello svuotamento del cestino"), true
	case CmdTrashList:
		res := c.api.LoadTrash(ctx)
		return listOutcome("eliminati", res), false
	case CmdBulkUpdate:
		res := c.api.UpdateBulk(ctx, cmd.Resource, cmd.IDs, cmd.Property, cmd.PropertyValue)
		return outcome(cmd, res, fmt.Sprintf("Aggiornati %d record", len(cmd.IDs)), "Errore nell'aggiornamento multiplo"), true
	case CmdStatus:
		res := c.api.Status(ctx)
		return statusOutcome(res), false
	default:
		res := apiclient.Result{Success: false, Error: fmt.Sprintf("comando sconosciuto %q", cmd.Name)}
		return Outcome{
			Result:       res,
			Notification: failureNotification(cmd.Name, cmd.Resource, "Comando non valido", res),
		}, false
	}
}

// listOutcome reproduces the partner page: a count on success, a fixed error message otherwise.
func listOutcome(resource string, res apiclient.Result) Outcome {
	if !res.Success {
		msg := fmt.Sprintf("Errore nel caricamento dei %s", resource)
		return Outcome{Result: res, Notification: failureNotification(CmdList, resource, msg, res)}
	}

	var rows []json.RawMessage
	if res.HasData() {
		if err := res.DecodeData(&rows); err != nil {
			msg := fmt.Sprintf("Errore nel caricamento dei %s", resource)
			n := notify.NewNotification(notify.SeverityError, CmdList, resource, msg)
			n.Detail = err.Error()
			return Outcome{Result: res, Notification: n}
		}
	}
	msg := fmt.Sprintf("Caricati %d %s", len(rows), resource)
	return Outcome{Result: res, Notification: notify.NewNotification(notify.SeveritySuccess, CmdList, resource, msg)}
}

func statusOutcome(res apiclient.Result) Outcome {
	if !res.Success {
		return Outcome{Result: res, Notification: failureNotification(CmdStatus, "", "Backend non raggiungibile", res)}
	}
	var st domain.Status
	if err := res.DecodeData(&st); err != nil {
		n := notify.NewNotification(notify.SeverityWarning, CmdStatus, "", "Stato del backend illeggibile")
		n.Detail = err.Error()
		return Outcome{Result: res, Notification: n}
	}
	msg := fmt.Sprintf("Backend %s (versione %s)", st.Status, st.Version)
	return Outcome{Result: res, Notification: notify.NewNotification(notify.SeverityInfo, CmdStatus, "", msg)}
}

// outcome prefers the server's own message on success, e.g. the import summary.
func outcome(cmd Command, res apiclient.Result, okMsg, failMsg string) Outcome {
	if !res.Success {
		return Outcome{Result: res, Notification: failureNotification(cmd.Name, cmd.Resource, failMsg, res)}
	}
	if res.Message != "" {
		okMsg = res.Message
	}
	return Outcome{Result: res, Notification: notify.NewNotification(notify.SeveritySuccess, cmd.Name, cmd.Resource, okMsg)}
}

func failureNotification(op, resource, msg string, res apiclient.Result) notify.Notification {
	n := notify.NewNotification(notify.SeverityError, op, resource, msg)
	n.Detail = res.Failure()
	return n
}

// record journals a mutation. Journal failures are logged and otherwise ignored.
func (c *Console) record(cmd Command, res apiclient.Result) *storage.Entry {
	ids := cmd.IDs
	if cmd.ID != 0 {
		ids = []int64{cmd.ID}
	}
	entry, err := c.journal.Record(storage.Entry{
		Operation: cmd.Name,
		Resource:  cmd.Resource,
		RecordIDs: ids,
		Success:   res.Success,
		Failure:   res.Failure(),
	})
	if err != nil {
		c.log.ErrorObj("journal write failed", "journal_error", map[string]any{
			"operation": cmd.Name,
			"error":     err.Error(),
		})
		return nil
	}
	return &entry
}

func (c *Console) notify(ctx context.Context, n notify.Notification) {
	if c.notifier == nil {
		return
	}
	delivered, err := c.notifier.Notify(ctx, n)
	if err != nil {
		c.log.WarnObj("notification delivery failed", "notify_error", map[string]any{
			"operation": n.Operation,
			"delivered": delivered,
			"error":     err.Error(),
		})
	}
}

// History returns the most recent journal entries.
func (c *Console) History(limit int) ([]storage.Entry, error) {
	return c.journal.Recent(limit)
}

// Close releases the journal.
func (c *Console) Close() error {
	return c.journal.Close()
}
