package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"wealth/internal/core"
	"wealth/internal/log"
)

// Config selects the spreadsheet and the service account used to read it.
// Tab names default to the plural record kind ("Assets", "Incomes",
// "Liabilities").
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	Tabs            map[core.RecordKind]string
}

// valuesReader returns the cell matrix of an A1 range.
type valuesReader interface {
	ReadRange(ctx context.Context, rng string) ([][]interface{}, error)
}

// Client is a read-only record source backed by a Google spreadsheet.
type Client struct {
	values        valuesReader
	spreadsheetID string
	tabs          map[core.RecordKind]string
	logger        *log.Logger
}

// New builds a client authenticated with service-account credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	credentials, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newClient(&serviceReader{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cfg, logger), nil
}

func newClient(values valuesReader, cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	tabs := make(map[core.RecordKind]string, len(core.Kinds()))
	for _, k := range core.Kinds() {
		name := cfg.Tabs[k]
		if name == "" {
			name = defaultTabName(k)
		}
		tabs[k] = name
	}
	return &Client{
		values:        values,
		spreadsheetID: cfg.SpreadsheetID,
		tabs:          tabs,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

func defaultTabName(k core.RecordKind) string {
	p := k.Plural()
	return strings.ToUpper(p[:1]) + p[1:]
}

// FetchAll reads every row of the tab for kind. Rows that cannot be parsed
// are skipped and logged.
func (c *Client) FetchAll(ctx context.Context, kind core.RecordKind) ([]core.Record, error) {
	tab, ok := c.tabs[kind]
	if !ok {
		return nil, core.ErrInvalidKind
	}
	values, err := c.values.ReadRange(ctx, fmt.Sprintf("%s!A:F", tab))
	if err != nil {
		return nil, fmt.Errorf("read %s tab: %w", tab, err)
	}

	records, skipped, err := parseRecords(values, kind, tab)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		c.logger.WarnContext(ctx, "Skipping unparsable sheet row",
			"tab", tab,
			"row", s.row,
			log.FieldError, s.err.Error(),
		)
	}
	return records, nil
}

type serviceReader struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (r *serviceReader) ReadRange(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}
