package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/invoiceforge/internal/model"
	"github.com/roach88/invoiceforge/internal/testutil"
	"github.com/roach88/invoiceforge/internal/totals"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "invoiceforge", cmd.Use)
	assert.Contains(t, cmd.Long, "history")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"draft", "show"}, {"draft", "set"}, {"draft", "save"}, {"draft", "clear"}, {"draft", "number"},
		{"item", "add"}, {"item", "update"}, {"item", "remove"},
		{"history", "list"}, {"history", "load"}, {"history", "delete"},
		{"sender", "show"}, {"sender", "set"}, {"sender", "bank-add"}, {"sender", "bank-remove"},
		{"client", "list"}, {"client", "add"}, {"client", "delete"},
		{"service", "list"}, {"service", "add"}, {"service", "delete"}, {"service", "use"},
		{"settings", "show"}, {"settings", "set"},
		{"templates"}, {"export"}, {"import"},
	}

	for _, path := range commands {
		name := strings.Join(path, " ")
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %s should exist", name)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("db"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestExportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	exportCmd, _, err := cmd.Find([]string{"export"})
	require.NoError(t, err)

	outputFlag := exportCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	asFlag := exportCmd.Flags().Lookup("as")
	require.NotNil(t, asFlag)
	assert.Equal(t, "pdf", asFlag.DefValue)
}

// cliHarness runs commands against one database from a fresh working
// directory.
type cliHarness struct {
	t     *testing.T
	dir   string
	db    string
	clock *testutil.FakeClock
	stdin string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return &cliHarness{
		t:     t,
		dir:   dir,
		db:    filepath.Join(t.TempDir(), "cli.db"),
		clock: testutil.NewFakeClock(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)),
	}
}

func (h *cliHarness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := newRootCommand(&RootOptions{Clock: h.clock})
	var out, diag bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&diag)
	cmd.SetIn(strings.NewReader(h.stdin))
	if h.db != "" {
		args = append(args, "--db", h.db)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// ok runs a command that must succeed and returns its text output.
func (h *cliHarness) ok(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "output: %s", out)
	return out
}

type jsonResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// json runs a command with --format json and decodes the envelope.
func (h *cliHarness) json(args ...string) (jsonResponse, error) {
	h.t.Helper()
	out, err := h.run(append(args, "--format", "json")...)
	var resp jsonResponse
	require.NoError(h.t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp, err
}

type draftData struct {
	Invoice model.Invoice `json:"invoice"`
	Totals  totals.Totals `json:"totals"`
}

func (h *cliHarness) draft() draftData {
	h.t.Helper()
	resp, err := h.json("draft", "show")
	require.NoError(h.t, err)
	var d draftData
	require.NoError(h.t, json.Unmarshal(resp.Data, &d))
	return d
}

func (h *cliHarness) history() []model.InvoiceRecord {
	h.t.Helper()
	resp, err := h.json("history", "list")
	require.NoError(h.t, err)
	var rows []model.InvoiceRecord
	require.NoError(h.t, json.Unmarshal(resp.Data, &rows))
	return rows
}

func TestInvalidFormat(t *testing.T) {
	h := newCLIHarness(t)
	_, err := h.run("draft", "show", "--format", "xml")
	assert.Error(t, err)
}

func TestDraft_EditSaveAndHistory(t *testing.T) {
	h := newCLIHarness(t)

	h.ok("draft", "set", "--currency", "eur", "--notes", "Thanks for your **business**")
	h.ok("item", "update", "0", "-d", "Design", "-q", "2", "-r", "50", "--tax-rate", "10")
	out := h.ok("item", "add", "-d", "Hosting", "-r", "100", "-u", "flat")
	assert.Contains(t, out, "Hosting")
	assert.Contains(t, out, "EUR 210.00")

	h.ok("draft", "set", "--discount-type", "percentage", "--discount", "10")
	d := h.draft()
	assert.Equal(t, "EUR", d.Invoice.Currency)
	require.Len(t, d.Invoice.LineItems, 2)
	assert.Equal(t, totals.Totals{Subtotal: 200, TaxTotal: 10, DiscountAmount: 20, Total: 190}, d.Totals)

	resp, err := h.json("draft", "save")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	rows := h.history()
	require.Len(t, rows, 1)
	assert.Equal(t, "INV-001", rows[0].Number)
	assert.Equal(t, model.StatusSent, rows[0].Status)
	assert.Equal(t, "Thanks for your **business**", rows[0].Notes)

	next := h.draft()
	assert.Equal(t, "INV-002", next.Invoice.Number)
	assert.Len(t, next.Invoice.LineItems, 1)
	assert.Equal(t, "USD", next.Invoice.Currency)
}

func TestDraft_InvalidFlagChangesNothing(t *testing.T) {
	h := newCLIHarness(t)

	resp, err := h.json("draft", "set", "--notes", "changed", "--currency", "XYZ")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidInput, resp.Error.Code)

	assert.NotEqual(t, "changed", h.draft().Invoice.Notes)
}

func TestDraft_DatesAndReceipt(t *testing.T) {
	h := newCLIHarness(t)

	h.ok("draft", "set", "--type", "receipt", "--paid-date", "2025-03-20",
		"--payment-method", "bank_transfer", "--transaction-ref", "TX-9", "--due-date", "none")
	d := h.draft()
	assert.Equal(t, model.TypeReceipt, d.Invoice.Type)
	require.NotNil(t, d.Invoice.PaidDate)
	assert.Equal(t, 20, d.Invoice.PaidDate.Day())
	assert.Nil(t, d.Invoice.DueDate)

	_, err := h.run("draft", "set", "--issue-date", "someday")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestItemRemove_KeepsLastItem(t *testing.T) {
	h := newCLIHarness(t)

	resp, err := h.json("item", "remove", "0")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidInput, resp.Error.Code)

	h.ok("item", "add", "-d", "Second")
	h.ok("item", "remove", "0")
	items := h.draft().Invoice.LineItems
	require.Len(t, items, 1)
	assert.Equal(t, "Second", items[0].Description)

	_, err = h.run("item", "update", "5", "-d", "x")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	_, err = h.run("item", "update", "first", "-d", "x")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistory_LoadIsCopy(t *testing.T) {
	h := newCLIHarness(t)

	h.ok("draft", "set", "--notes", "original", "--status", "paid")
	h.ok("draft", "save")
	id := h.history()[0].ID

	h.ok("history", "load", jsonID(id))
	d := h.draft()
	assert.Equal(t, "original", d.Invoice.Notes)
	assert.Equal(t, model.StatusDraft, d.Invoice.Status)
	assert.NotEqual(t, id, d.Invoice.ID)

	h.ok("draft", "set", "--notes", "edited")
	rows := h.history()
	require.Len(t, rows, 1)
	assert.Equal(t, "original", rows[0].Notes)
	assert.Equal(t, model.StatusPaid, rows[0].Status)

	resp, err := h.json("history", "list", "--status", "sent")
	require.NoError(t, err)
	var sent []model.InvoiceRecord
	require.NoError(t, json.Unmarshal(resp.Data, &sent))
	assert.Empty(t, sent)
}

func TestHistory_Delete(t *testing.T) {
	h := newCLIHarness(t)

	h.ok("draft", "save")
	id := h.history()[0].ID
	h.ok("history", "delete", jsonID(id))
	assert.Empty(t, h.history())

	resp, err := h.json("history", "delete", jsonID(id))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)

	_, err = h.run("history", "load", "0")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSenderClientAndDraft(t *testing.T) {
	h := newCLIHarness(t)

	h.ok("sender", "set", "--name", "Acme Studio", "--email", "billing@acme.test")
	h.ok("sender", "bank-add", "--bank", "First Bank", "--number", "12345678", "--currency", "eur")

	resp, err := h.json("sender", "show")
	require.NoError(t, err)
	var snd model.Sender
	require.NoError(t, json.Unmarshal(resp.Data, &snd))
	assert.Equal(t, "Acme Studio", snd.BusinessName)
	require.Len(t, snd.BankAccounts, 1)
	assert.Equal(t, "EUR", snd.BankAccounts[0].Currency)
	assert.NotEmpty(t, snd.BankAccounts[0].ID)

	out := h.ok("client", "add", "--name", "Jane Doe", "--email", "jane@example.test")
	assert.Contains(t, out, "Added client Jane Doe")
	assert.Contains(t, h.ok("client", "list"), "jane@example.test")
	assert.Contains(t, h.ok("client", "list", "--email", "nobody@example.test"), "No clients.")

	out = h.ok("draft", "set", "--sender", "--client", "1")
	assert.Contains(t, out, "From: Acme Studio")
	assert.Contains(t, out, "To:   Jane Doe")

	h.ok("client", "delete", "1")
	assert.Equal(t, "Jane Doe", h.draft().Invoice.ClientSnapshot.Name, "snapshot survives deletion")

	h.ok("sender", "bank-remove", snd.BankAccounts[0].ID)
	_, err = h.run("sender", "bank-remove", snd.BankAccounts[0].ID)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = h.run("client", "add", "--email", "x@example.test")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestService_AddAndUse(t *testing.T) {
	h := newCLIHarness(t)

	h.ok("service", "add", "--name", "Audit", "--rate", "800", "--unit", "day", "--category", "Consulting")
	assert.Contains(t, h.ok("service", "list"), "Audit")

	h.ok("service", "use", "1")
	items := h.draft().Invoice.LineItems
	require.Len(t, items, 2)
	assert.Equal(t, "Audit", items[1].Description)
	assert.Equal(t, model.UnitDay, items[1].Unit)

	h.ok("item", "add", "--service", "1", "-q", "3")
	items = h.draft().Invoice.LineItems
	require.Len(t, items, 3)
	assert.Equal(t, 3.0, items[2].Quantity)

	_, err := h.run("service", "use", "42")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	h.ok("service", "delete", "1")
	assert.Contains(t, h.ok("service", "list"), "No services.")
}

func TestSettings_ApplyToNewDrafts(t *testing.T) {
	h := newCLIHarness(t)
	h.ok("draft", "set", "--notes", "started before the change")

	h.ok("settings", "set", "--currency", "gbp", "--number-prefix", "F", "--number-pad", "2", "--tax-rate", "20")
	assert.Contains(t, h.ok("settings", "show"), "GBP")
	assert.Equal(t, "USD", h.draft().Invoice.Currency)

	h.ok("draft", "clear")
	d := h.draft()
	assert.Equal(t, "GBP", d.Invoice.Currency)
	assert.Equal(t, "F-01", d.Invoice.Number)
	assert.Equal(t, 20.0, d.Invoice.LineItems[0].TaxRate)

	resp, err := h.json("settings", "set", "--tax-rate", "150")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidInput, resp.Error.Code)
}

func TestDraftNumber(t *testing.T) {
	h := newCLIHarness(t)

	h.ok("draft", "set", "--number", "CUSTOM")
	h.ok("settings", "set", "--number-year", "--number-prefix", "INV")
	assert.Equal(t, "INV-2025-001\n", h.ok("draft", "number"))
	assert.Equal(t, "INV-2025-001", h.draft().Invoice.Number)
}

func TestTemplates(t *testing.T) {
	h := newCLIHarness(t)
	out := h.ok("templates")
	for _, id := range model.Templates {
		assert.Contains(t, out, string(id))
	}
}

func TestExport(t *testing.T) {
	h := newCLIHarness(t)

	out := h.ok("export")
	assert.Contains(t, out, "Invoice_INV-001.pdf")
	data, err := os.ReadFile(filepath.Join(h.dir, "Invoice_INV-001.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	out = h.ok("export", "--as", "json", "--output", "-")
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Invoice INV-001", doc["title"])

	path := filepath.Join(h.dir, "out", "custom.pdf")
	h.ok("draft", "set", "--template", "bold")
	h.ok("export", "-o", path)
	assert.FileExists(t, path)

	_, err = h.run("export", "--as", "docx")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExport_MissingLogoStillRenders(t *testing.T) {
	h := newCLIHarness(t)
	h.ok("sender", "set", "--name", "Acme")
	h.ok("draft", "set", "--sender")
	h.ok("export", "--logo", filepath.Join(h.dir, "missing.png"))
	assert.FileExists(t, filepath.Join(h.dir, "Invoice_INV-001.pdf"))
}

func TestImport(t *testing.T) {
	h := newCLIHarness(t)

	path := filepath.Join(h.dir, "invoice.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "number": "EXT-7",
  "currency": "CHF",
  "lineItems": [{"description": "Workshop", "quantity": 1, "unit": "day", "rate": 1200}]
}`), 0o644))

	out := h.ok("import", path)
	assert.Contains(t, out, "EXT-7")
	d := h.draft()
	assert.Equal(t, "CHF", d.Invoice.Currency)
	assert.Equal(t, 1200.0, d.Totals.Total)

	h.stdin = `{"currency": "usd", "lineItems": []}`
	resp, err := h.json("import", "-")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidInvoice, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Details)
	assert.Equal(t, "EXT-7", h.draft().Invoice.Number, "rejected document leaves the draft")

	_, err = h.run("import", filepath.Join(h.dir, "nope.json"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStorageUnavailable(t *testing.T) {
	h := newCLIHarness(t)
	h.db = t.TempDir()

	resp, err := h.json("draft", "show")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeStorage, resp.Error.Code)
}

func TestConfigFile(t *testing.T) {
	h := newCLIHarness(t)
	dbPath := filepath.Join(h.dir, "data", "from-config.db")
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "invoiceforge.yaml"),
		[]byte("db_path: "+dbPath+"\n"), 0o644))
	h.db = ""

	h.ok("draft", "set", "--notes", "configured")
	assert.FileExists(t, dbPath)

	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "invoiceforge.yaml"), []byte("log_level: loud\n"), 0o644))
	resp, err := h.json("draft", "show")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
