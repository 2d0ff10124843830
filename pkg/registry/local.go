package registry

// DefaultLocalTools returns the fixed client-rendered tool set. The caller
// renders a recommendation card from the arguments alone; no server-side
// execution ever happens for these.
func DefaultLocalTools() []Descriptor {
	return []Descriptor{
		{
			Name:        "recommendGuitar",
			Description: "Show a product recommendation card for one guitar from the catalog",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "number",
						"description": "ID of the guitar to recommend",
					},
					"reason": map[string]any{
						"type":        "string",
						"description": "Short explanation of why this guitar fits the customer",
					},
				},
				"required": []string{"id"},
			},
			Kind: KindClientRendered,
		},
	}
}
