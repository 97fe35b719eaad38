package bind_group_provider

// BufferWrite describes a single staged GPU buffer write targeting a binding on a
// BindGroupProvider at a byte offset. Components stage writes on the CPU; the Renderer
// uploads them in one batch per frame.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Size returns the number of bytes the write uploads.
func (w BufferWrite) Size() int {
	return len(w.Data)
}
