// ABOUTME: Sequence ordered packet queue
// ABOUTME: Min-heap of RTP packets keyed by extended sequence number
package playout

import (
	"container/heap"

	"github.com/pion/rtp"
)

type queued struct {
	ext int64
	pkt *rtp.Packet
}

// packetQueue is a priority queue of packets
type packetQueue struct {
	items []queued
	seen  map[int64]struct{}
}

func newPacketQueue() *packetQueue {
	q := &packetQueue{seen: make(map[int64]struct{})}
	heap.Init(q)
	return q
}

// add queues pkt unless ext is already queued
func (q *packetQueue) add(ext int64, pkt *rtp.Packet) bool {
	if _, dup := q.seen[ext]; dup {
		return false
	}
	q.seen[ext] = struct{}{}
	heap.Push(q, queued{ext: ext, pkt: pkt})
	return true
}

// next removes the lowest sequence number
func (q *packetQueue) next() queued {
	item := heap.Pop(q).(queued)
	delete(q.seen, item.ext)
	return item
}

// Implement heap.Interface
func (q *packetQueue) Len() int { return len(q.items) }

func (q *packetQueue) Less(i, j int) bool {
	return q.items[i].ext < q.items[j].ext
}

func (q *packetQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *packetQueue) Push(x any) {
	q.items = append(q.items, x.(queued))
}

func (q *packetQueue) Pop() any {
	n := len(q.items)
	item := q.items[n-1]
	q.items = q.items[:n-1]
	return item
}
