// Package postgrest talks to a hosted PostgREST endpoint (such as Supabase) with
// table-style insert and upsert calls.
package postgrest

import (
	"context"
	"fmt"
	"strings"

	pgrest "github.com/supabase-community/postgrest-go"
)

const (
	restPath = "/rest/v1"
	schema   = "public"

	// returnMinimal asks the service not to echo the written rows back.
	returnMinimal = "minimal"
)

// Client is a handle on one PostgREST endpoint.
type Client struct {
	baseURL string
	rest    *pgrest.Client
}

// NewClient returns a handle for baseURL authenticated with apiKey. Requests use the
// default transport with no timeout of their own.
func NewClient(baseURL, apiKey string) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	rest := pgrest.NewClient(baseURL+restPath, schema, map[string]string{
		"apikey":        apiKey,
		"Authorization": "Bearer " + apiKey,
	})
	if rest.ClientError != nil {
		return nil, fmt.Errorf("failed to create client: %w", rest.ClientError)
	}
	return &Client{baseURL: baseURL, rest: rest}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Insert adds rows to table.
func (c *Client) Insert(ctx context.Context, table string, rows any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := c.rest.From(table).Insert(rows, false, "", returnMinimal, "").Execute()
	if err != nil {
		return fmt.Errorf("insert into %s failed: %w", table, err)
	}
	return nil
}

// Upsert adds rows to table, merging into existing rows that collide on the
// onConflict columns.
func (c *Client) Upsert(ctx context.Context, table string, rows any, onConflict ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := c.rest.From(table).Upsert(rows, strings.Join(onConflict, ","), returnMinimal, "").Execute()
	if err != nil {
		return fmt.Errorf("upsert into %s failed: %w", table, err)
	}
	return nil
}
