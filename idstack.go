package spanz

type idFrame struct {
	next *idFrame
	id   ID
}

// IDStack is the LIFO of active span identifiers for one execution context.
// It also tracks the root identifier of the trace the current nesting
// belongs to: root is set by the push onto an empty stack and cleared by the
// pop that empties it.
type IDStack struct {
	gen   *Generator
	top   *idFrame
	root  ID
	depth int
}

// NewIDStack returns an empty stack minting identifiers from gen.
func NewIDStack(gen *Generator) *IDStack {
	s := &IDStack{gen: gen}
	s.Reset()
	return s
}

// Reset empties the stack.
func (s *IDStack) Reset() {
	s.top = nil
	s.root = NoID
	s.depth = 0
}

// Push mints a new identifier and makes it the top of the stack.
// Pushing onto an empty stack starts a new trace rooted at the new id.
func (s *IDStack) Push() ID {
	f := &idFrame{id: s.gen.Next(), next: s.top}
	s.top = f
	s.depth++
	if s.root == NoID {
		s.root = f.id
	}
	return f.id
}

// Pop removes the top identifier. ok is false when the stack was empty.
func (s *IDStack) Pop() (id ID, ok bool) {
	f := s.top
	if f == nil {
		return NoID, false
	}
	s.top = f.next
	f.next = nil
	s.depth--
	if s.top == nil {
		s.root = NoID
	}
	return f.id, true
}

// Peek returns the top identifier without removing it.
func (s *IDStack) Peek() (ID, bool) {
	if s.top == nil {
		return NoID, false
	}
	return s.top.id, true
}

// Root returns the identifier of the bottom-most frame.
func (s *IDStack) Root() (ID, bool) {
	return s.root, s.root != NoID
}

// Len returns the number of frames on the stack.
func (s *IDStack) Len() int {
	return s.depth
}

// Teardown drops every remaining frame and returns how many there were.
func (s *IDStack) Teardown() int {
	n := 0
	for f := s.top; f != nil; {
		next := f.next
		f.next = nil
		f = next
		n++
	}
	s.Reset()
	return n
}
