package models

type Column struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Position int      `json:"position"`
	Items    []string `json:"items"`
}

func (c Column) Clone() Column {
	items := make([]string, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}
