package derive

import "github.com/diewo77/go-erpdocs/internal/document"

// Selection tracks which source lines, by line number, are picked for
// carrying into a derived document.
type Selection struct {
	order  []int
	picked map[int]bool
}

// NewSelection offers every line of the source for selection. Nothing is
// selected initially.
func NewSelection(source []document.LineItem) *Selection {
	return &Selection{order: lineNumbers(source), picked: map[int]bool{}}
}

// Toggle flips the selection of a line and reports whether it is now
// selected. Unknown line numbers are ignored.
func (s *Selection) Toggle(no int) bool {
	if !s.offered(no) {
		return false
	}
	if s.picked[no] {
		delete(s.picked, no)
		return false
	}
	s.picked[no] = true
	return true
}

// SelectAll replaces the selection with every offered line.
func (s *Selection) SelectAll() {
	s.picked = make(map[int]bool, len(s.order))
	for _, no := range s.order {
		s.picked[no] = true
	}
}

func (s *Selection) SelectNone() {
	s.picked = map[int]bool{}
}

// ToggleAll clears a complete selection and otherwise selects everything.
func (s *Selection) ToggleAll() {
	if len(s.order) > 0 && len(s.picked) == len(s.order) {
		s.SelectNone()
		return
	}
	s.SelectAll()
}

func (s *Selection) IsSelected(no int) bool { return s.picked[no] }

// Selected returns the picked line numbers in source order.
func (s *Selection) Selected() []int {
	out := make([]int, 0, len(s.picked))
	for _, no := range s.order {
		if s.picked[no] {
			out = append(out, no)
		}
	}
	return out
}

func (s *Selection) Len() int { return len(s.picked) }

func (s *Selection) offered(no int) bool {
	for _, o := range s.order {
		if o == no {
			return true
		}
	}
	return false
}

// lineNumbers keys each source line for selection. Persisted sequences are
// used when every line has a distinct one; otherwise all lines fall back to
// their 1-based position so no two keys collide.
func lineNumbers(lines []document.LineItem) []int {
	nos := make([]int, len(lines))
	seen := make(map[int]bool, len(lines))
	bySequence := true
	for i, l := range lines {
		if l.Sequence <= 0 || seen[l.Sequence] {
			bySequence = false
			break
		}
		seen[l.Sequence] = true
		nos[i] = l.Sequence
	}
	if !bySequence {
		for i := range nos {
			nos[i] = i + 1
		}
	}
	return nos
}
