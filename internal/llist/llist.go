// Package llist implements a generic doubly linked list, used by the
// plugin registry and the topological sorter to hold ordered sequences of
// plugins without reallocating or shifting elements on removal.
package llist

type (
	// Node is a single element of a List. The zero value is not usable;
	// Nodes are only created via List.PushBack.
	Node[T any] struct {
		Value T

		next, prev *Node[T]
		list       *List[T]
	}

	// List is a doubly linked list of T, supporting O(1) append and O(1)
	// removal given a Node handle, at the cost of O(n) lookup by value.
	//
	// The zero value is an empty list, ready to use.
	List[T any] struct {
		first, last *Node[T]
		length      int
	}
)

// Next returns the following node, or nil if n is the last node in its list.
func (n *Node[T]) Next() *Node[T] {
	if n == nil {
		return nil
	}
	return n.next
}

// Prev returns the preceding node, or nil if n is the first node in its list.
func (n *Node[T]) Prev() *Node[T] {
	if n == nil {
		return nil
	}
	return n.prev
}

// Len returns the number of elements in l.
func (l *List[T]) Len() int { return l.length }

// Front returns the first node, or nil if l is empty.
func (l *List[T]) Front() *Node[T] { return l.first }

// Back returns the last node, or nil if l is empty.
func (l *List[T]) Back() *Node[T] { return l.last }

// PushBack appends value to the end of l, returning the new Node handle.
func (l *List[T]) PushBack(value T) *Node[T] {
	n := &Node[T]{Value: value, prev: l.last, list: l}

	if l.last != nil {
		l.last.next = n
	}
	l.last = n

	if l.first == nil {
		l.first = n
	}

	l.length++

	return n
}

// Remove detaches n from its list and returns the node that followed it
// (or nil, if n was the last node). Calling Remove on a node that does not
// belong to l, or that has already been removed, is a no-op returning nil.
func (l *List[T]) Remove(n *Node[T]) *Node[T] {
	if n == nil || n.list != l {
		return nil
	}

	next := n.next

	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}

	if l.first == n {
		l.first = n.next
	}
	if l.last == n {
		l.last = n.prev
	}

	n.next, n.prev, n.list = nil, nil, nil
	l.length--

	return next
}

// Find returns the first node for which match reports true, or nil if none
// does.
func (l *List[T]) Find(match func(T) bool) *Node[T] {
	for n := l.first; n != nil; n = n.next {
		if match(n.Value) {
			return n
		}
	}
	return nil
}

// Copy returns a shallow copy of l: a new list holding the same values, in
// the same order, as independent nodes.
func (l *List[T]) Copy() *List[T] {
	out := &List[T]{}
	for n := l.first; n != nil; n = n.next {
		out.PushBack(n.Value)
	}
	return out
}

// Each calls fn for every node in l, front to back, stopping early if fn
// returns false. fn must not remove nodes: removing even the node it was
// passed ends the walk early. Use DeleteEach for that.
func (l *List[T]) Each(fn func(*Node[T]) bool) {
	for n := l.first; n != nil; n = n.next {
		if !fn(n) {
			return
		}
	}
}

// DeleteEach walks l front to back, calling fn for each node in turn. fn
// must return the node to resume iteration from — typically n.Next() if it
// kept the node, or the value returned by l.Remove(n) if it deleted it.
// This mirrors the "manual" traversal the list supports in addition to the
// simple read-only one (Each), so callers can delete the current node
// mid-walk without disturbing iteration.
func (l *List[T]) DeleteEach(fn func(*Node[T]) *Node[T]) {
	n := l.first
	for n != nil {
		n = fn(n)
	}
}

// ToSlice returns the values of l, front to back, as a new slice.
func (l *List[T]) ToSlice() []T {
	out := make([]T, 0, l.length)
	for n := l.first; n != nil; n = n.next {
		out = append(out, n.Value)
	}
	return out
}
