// Package ilist implements the intrusive doubly-linked list every wait queue
// in the kernel package is built from: the ready queue, every semaphore's
// waiters, every thread's donors, and the tick-sleep list.
//
// Unlike a generic container, the list stores no values of its own — each
// entry is a *Node embedded in (or carried alongside) the record that owns
// it, and removal given a node is O(1). The reference kernel recovers the
// owner from a link address by pointer offset (list_entry); Go has no
// pointer-offset trick, so Node carries its owner directly via a type
// parameter instead.
package ilist

// Node is the link embedded in an owning record. A Node belongs to at most
// one List at a time, matching the kernel's rule that ready_link and
// donation_link are used for mutually exclusive queue memberships.
type Node[T any] struct {
	prev, next *Node[T]
	list       *List[T]
	owner      T
}

// Owner returns the record this node is embedded in.
func (n *Node[T]) Owner() T { return n.owner }

// NewNode creates a link node carrying owner, ready for insertion into a
// List[T].
func NewNode[T any](owner T) *Node[T] {
	return &Node[T]{owner: owner}
}

// Less reports whether a should precede b in a List's order.
type Less[T any] func(a, b T) bool

// List is a sentinel-headed doubly-linked list of Node[T]. The zero value is
// not usable; construct with New.
type List[T any] struct {
	head, tail *Node[T] // sentinels; head.next/tail.prev are the real ends
}

// New returns an empty list.
func New[T any]() *List[T] {
	l := &List[T]{
		head: &Node[T]{},
		tail: &Node[T]{},
	}
	l.head.next = l.tail
	l.tail.prev = l.head
	return l
}

// Empty reports whether the list has no entries.
func (l *List[T]) Empty() bool {
	return l.head.next == l.tail
}

// Len counts entries by walking the list; the kernel's queues are small
// (bounded by live thread count), so this stays O(n) rather than keeping a
// separate counter to maintain.
func (l *List[T]) Len() int {
	n := 0
	for cur := l.head.next; cur != l.tail; cur = cur.next {
		n++
	}
	return n
}

func (l *List[T]) linkBetween(n, before, after *Node[T]) {
	n.list = l
	n.prev = before
	n.next = after
	before.next = n
	after.prev = n
}

// PushBack appends n to the end of the list.
func (l *List[T]) PushBack(n *Node[T]) {
	l.linkBetween(n, l.tail.prev, l.tail)
}

// PushFront prepends n to the start of the list.
func (l *List[T]) PushFront(n *Node[T]) {
	l.linkBetween(n, l.head, l.head.next)
}

// Front returns the first node, or nil if the list is empty.
func (l *List[T]) Front() *Node[T] {
	if l.Empty() {
		return nil
	}
	return l.head.next
}

// Back returns the last node, or nil if the list is empty.
func (l *List[T]) Back() *Node[T] {
	if l.Empty() {
		return nil
	}
	return l.tail.prev
}

// PopFront removes and returns the first node, or nil if the list is empty.
func (l *List[T]) PopFront() *Node[T] {
	n := l.Front()
	if n == nil {
		return nil
	}
	l.Remove(n)
	return n
}

// Remove unlinks n from whichever list it is on. It is a programmer error to
// remove a node that is not currently linked into l.
func (l *List[T]) Remove(n *Node[T]) {
	if n.list != l {
		panic("ilist: remove of node not on this list")
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
	n.list = nil
}

// InsertOrdered inserts n before the first existing entry e for which
// less(n.Owner(), e.Owner()) holds, or at the back if none does. Ties keep
// existing insertion order (new entries of equal rank go after equals),
// giving FIFO order among entries the comparator treats as equivalent.
func (l *List[T]) InsertOrdered(n *Node[T], less Less[T]) {
	for cur := l.head.next; cur != l.tail; cur = cur.next {
		if less(n.owner, cur.owner) {
			l.linkBetween(n, cur.prev, cur)
			return
		}
	}
	l.PushBack(n)
}

// Sort performs a stable in-place sort using less, for re-establishing order
// after external state (e.g. donated priorities) changed while entries sat
// on the list. Insertion sort: the lists this package sorts are small
// (bounded by runnable/waiting thread counts), so O(n^2) stability beats
// pulling in sort.SliceStable's reflection-based swapper for no benefit.
func (l *List[T]) Sort(less Less[T]) {
	nodes := make([]*Node[T], 0, l.Len())
	for cur := l.head.next; cur != l.tail; cur = cur.next {
		nodes = append(nodes, cur)
	}
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && less(nodes[j].owner, nodes[j-1].owner); j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}

	l.head.next, l.tail.prev = l.tail, l.head
	for _, n := range nodes {
		n.prev, n.next, n.list = nil, nil, nil
		l.PushBack(n)
	}
}

// Iterate calls f for every node from front to back. f must not mutate the
// list; use PopFront/Remove in a separate pass for that.
func (l *List[T]) Iterate(f func(*Node[T])) {
	for cur := l.head.next; cur != l.tail; cur = cur.next {
		f(cur)
	}
}
