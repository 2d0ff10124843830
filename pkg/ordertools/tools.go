package ordertools

import (
	"context"

	"github.com/harunnryd/strum/pkg/toolserve"
	"github.com/harunnryd/strum/pkg/toolwire"
)

// Register wires the order tool set onto a tool server backed by the
// fulfillment REST API.
func Register(srv *toolserve.Server, client *Client) {
	srv.Register(toolwire.ToolSpec{
		Name:        "getProducts",
		Description: "Get all products from the store, including name, price and description.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}, func(ctx context.Context, args map[string]any) (string, error) {
		return client.Products(ctx)
	})

	srv.Register(toolwire.ToolSpec{
		Name:        "getInventory",
		Description: "Get current inventory levels with guitar details for every product.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}, func(ctx context.Context, args map[string]any) (string, error) {
		return client.Inventory(ctx)
	})

	srv.Register(toolwire.ToolSpec{
		Name:        "getOrders",
		Description: "Get all orders placed in the store, most recent first.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}, func(ctx context.Context, args map[string]any) (string, error) {
		return client.Orders(ctx)
	})

	srv.Register(toolwire.ToolSpec{
		Name:        "purchase",
		Description: "Purchase one or more guitars for a customer. Decrements inventory and records the order.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"customerName": map[string]any{
					"type":        "string",
					"description": "Name of the customer placing the order",
				},
				"items": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"guitarId": map[string]any{"type": "number"},
							"quantity": map[string]any{"type": "number"},
						},
						"required": []string{"guitarId", "quantity"},
					},
				},
			},
			"required": []string{"customerName", "items"},
		},
	}, func(ctx context.Context, args map[string]any) (string, error) {
		return client.Purchase(ctx, args)
	})
}
