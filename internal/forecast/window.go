package forecast

// window is a fixed-capacity ring of feature rows backed by one slab. Rows
// are reused in place as the window slides so the forecast loop does not
// allocate.
type window struct {
	rows [][]float64
	head int // index of the oldest row
	view [][]float64
}

// newWindow copies the last len(rows) entries of src into a fresh ring.
func newWindow(src [][]float64, size, width int) *window {
	slab := make([]float64, size*width)
	w := &window{
		rows: make([][]float64, size),
		view: make([][]float64, size),
	}
	offset := len(src) - size
	for i := 0; i < size; i++ {
		row := slab[i*width : (i+1)*width : (i+1)*width]
		copy(row, src[offset+i])
		w.rows[i] = row
	}
	return w
}

func (w *window) size() int { return len(w.rows) }

// last returns the newest row.
func (w *window) last() []float64 {
	return w.rows[(w.head+len(w.rows)-1)%len(w.rows)]
}

// advance recycles the oldest row as the new newest row and returns it.
// The caller must fill it before the next call to ordered.
func (w *window) advance() []float64 {
	row := w.rows[w.head]
	w.head = (w.head + 1) % len(w.rows)
	return row
}

// ordered returns the rows oldest first. The returned slice is reused by
// the next call.
func (w *window) ordered() [][]float64 {
	n := len(w.rows)
	for i := 0; i < n; i++ {
		w.view[i] = w.rows[(w.head+i)%n]
	}
	return w.view
}
