package frontier

/*
Frontier Responsibilities
- Maintain BFS ordering
- Remember which URLs were already dispatched
- Knows nothing about:
	- fetching
	- extraction
	- indexing

It is a data structure, not a pipeline executor. It is not safe for
concurrent use: the crawl orchestrator is its single owner.

Invariants:
- The visited set only grows during a crawl.
- A URL is dispatched at most once.
*/
type Frontier struct {
	queue   *FIFOQueue[Entry]
	visited Set[string]
}

func NewFrontier() Frontier {
	return Frontier{
		queue:   NewFIFOQueue[Entry](),
		visited: NewSet[string](),
	}
}

// Push appends an entry to the back of the queue.
// It does not consult the visited set; duplicates are filtered on dispatch.
func (f *Frontier) Push(entry Entry) {
	f.queue.Enqueue(entry)
}

// Pop removes the oldest queued entry.
func (f *Frontier) Pop() (Entry, bool) {
	return f.queue.Dequeue()
}

// MarkVisited records the entry as dispatched. It returns false when the
// URL had already been visited.
func (f *Frontier) MarkVisited(entry Entry) bool {
	return f.visited.Add(entry.Key())
}

func (f *Frontier) IsVisited(key string) bool {
	return f.visited.Contains(key)
}

func (f *Frontier) VisitedCount() int {
	return f.visited.Size()
}

func (f *Frontier) Pending() int {
	return f.queue.Size()
}
