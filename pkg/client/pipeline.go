package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jordanlanch/realtycrm/pkg/models"
	"github.com/jordanlanch/realtycrm/pkg/pipeline"
	"github.com/jordanlanch/realtycrm/pkg/querycache"
)

func boardPath(kind pipeline.Kind) string {
	return "/pipeline/" + string(kind)
}

// Board returns the grouped pipeline view of one kind
func (c *Client) Board(ctx context.Context, kind pipeline.Kind) (*models.BoardResponse, error) {
	return get[*models.BoardResponse](ctx, c, boardPath(kind), nil)
}

// ExportURL returns a link to the board workbook that a browser can open
// without an Authorization header
func (c *Client) ExportURL(kind pipeline.Kind) string {
	u := c.baseURL + apiPrefix + boardPath(kind) + "/export"
	if token := c.currentToken(); token != "" {
		u += "?" + url.Values{"token": {token}}.Encode()
	}
	return u
}

// MoveItem moves one card to another column. Cached boards of the kind show
// the move before the server answers; a rejected move puts them back. Either
// way the kind's collection, boards and the activity feed are refetched on
// the next read.
func (c *Client) MoveItem(ctx context.Context, kind pipeline.Kind, id, status string) (*models.MoveResult, error) {
	restore := func() {}
	if to, err := pipeline.NormalizeStatus(kind, status); err == nil {
		restore = querycache.MutatePrefix(c.cache, boardPath(kind), func(b *models.BoardResponse) *models.BoardResponse {
			return moveCard(b, id, to)
		})
	}

	var result models.MoveResult
	path := "/" + kind.Collection() + "/" + url.PathEscape(id) + "/status"
	err := c.write(ctx, http.MethodPatch, path, models.MoveStatusRequest{Status: status}, &result)
	if err != nil {
		restore()
	}

	c.invalidate("/"+kind.Collection(), boardPath(kind), dashboardPath, activitiesPath)
	if kind == pipeline.KindDeal {
		c.invalidate(notificationsPath)
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func cardID(item any) string {
	if m, ok := item.(map[string]any); ok {
		id, _ := m["id"].(string)
		return id
	}
	return ""
}

// moveCard returns a copy of b with the card id moved to the column to. A
// status without a column drops the card from the board, as the server's
// grouping does. The board is returned unchanged when the card is missing.
func moveCard(b *models.BoardResponse, id, to string) *models.BoardResponse {
	if b == nil {
		return b
	}

	target, from, at := -1, -1, -1
	for i, col := range b.Columns {
		if col.ID == to {
			target = i
		}
		for j, item := range col.Items {
			if cardID(item) == id {
				from, at = i, j
			}
		}
	}
	if from < 0 || target == from {
		return b
	}

	out := &models.BoardResponse{Kind: b.Kind, Columns: make([]models.BoardColumn, len(b.Columns))}
	copy(out.Columns, b.Columns)

	src := out.Columns[from]
	card := src.Items[at]
	items := make([]any, 0, len(src.Items)-1)
	items = append(items, src.Items[:at]...)
	src.Items = append(items, src.Items[at+1:]...)
	src.Count = len(src.Items)
	out.Columns[from] = src

	if m, ok := card.(map[string]any); ok {
		moved := make(map[string]any, len(m))
		for k, v := range m {
			moved[k] = v
		}
		moved["status"] = to
		card = moved
	}

	if target < 0 {
		return out
	}

	dst := out.Columns[target]
	dst.Items = append([]any{card}, dst.Items...)
	dst.Count = len(dst.Items)
	out.Columns[target] = dst

	return out
}
