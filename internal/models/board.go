package models

type Board struct {
	Title   string   `json:"title"`
	Columns []Column `json:"columns"`
}

func NewBoard(title string) *Board {
	return &Board{Title: title, Columns: []Column{}}
}

// AddColumn appends c after the existing columns. Columns are never reordered or removed.
func (b *Board) AddColumn(c Column) {
	b.Columns = append(b.Columns, c)
}

// Clone returns a copy of the board that shares no slices with b.
func (b Board) Clone() Board {
	out := Board{Title: b.Title, Columns: make([]Column, len(b.Columns))}
	for i, c := range b.Columns {
		out.Columns[i] = c.Clone()
	}
	return out
}

// ColumnByID returns the first column with the given id.
func (b Board) ColumnByID(id int) (Column, bool) {
	for _, c := range b.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}
