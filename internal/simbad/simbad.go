// Package simbad resolves astronomical object names against the CDS SIMBAD
// TAP service. A resolved name yields every identifier SIMBAD knows for the
// same object, which widens fuzzy searches to designations a catalog never
// stored.
package simbad

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public SIMBAD TAP endpoint.
const DefaultBaseURL = "https://simbad.cds.unistra.fr/simbad/sim-tap"

const (
	requestTimeout = 30 * time.Second
	retryCount     = 2
	retryWaitTime  = 250 * time.Millisecond
)

// Client queries SIMBAD over TAP. It satisfies the catalog's name resolver
// interface.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

// NewClient builds a SIMBAD client. An empty baseURL selects the public CDS
// service.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(retryWaitTime).
		SetHeader("User-Agent", "astrocat")

	return &Client{http: r, log: logger}
}

// tapResponse is the TAP json format: column metadata plus rows of values.
type tapResponse struct {
	Data [][]interface{} `json:"data"`
}

// AlternateIDs returns every identifier SIMBAD associates with the object
// known by name, including the queried name when SIMBAD recognizes it.
func (c *Client) AlternateIDs(ctx context.Context, name string) ([]string, error) {
	adql := fmt.Sprintf(
		"SELECT id2.id FROM ident AS id1 JOIN ident AS id2 ON id1.oidref = id2.oidref WHERE id1.id = '%s'",
		escapeADQL(name))

	var result tapResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"REQUEST": "doQuery",
			"LANG":    "ADQL",
			"FORMAT":  "json",
			"QUERY":   adql,
		}).
		SetResult(&result).
		Post("/sync")
	if err != nil {
		return nil, fmt.Errorf("querying SIMBAD: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("SIMBAD returned status %d", resp.StatusCode())
	}

	ids := make([]string, 0, len(result.Data))
	for _, row := range result.Data {
		if len(row) == 0 {
			continue
		}
		id, ok := row[0].(string)
		if !ok {
			continue
		}
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}

	c.log.Debug("resolved name", zap.String("name", name), zap.Int("ids", len(ids)))
	return ids, nil
}

// escapeADQL doubles single quotes, the ADQL string escape.
func escapeADQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
