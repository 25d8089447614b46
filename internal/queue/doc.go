// Package queue implements the bounded ticket buffer shared by producer
// and consumer agents.
//
// # BoundedQueue
//
// BoundedQueue holds at most maxSize tickets and creates exactly
// maxProduced tickets over its lifetime:
//
//	q, err := queue.New(10, 1000)
//	if err != nil {
//	    // capacity < 1 or a negative cap
//	}
//
// # Producers
//
// A producer makes one Put call. Put keeps creating tickets until the
// production cap is reached, waiting whenever the buffer is full:
//
//	produced := q.Put("1", func(depth int) {
//	    log.Printf("producer waiting, %d buffered", depth)
//	})
//
// # Consumers
//
// A consumer calls Get in a loop. ok turns false once the cap has been
// reached and the buffer is drained, and stays false:
//
//	for {
//	    t, ok := q.Get("2", nil)
//	    if !ok {
//	        break
//	    }
//	    handle(t)
//	}
//
// # Synchronisation
//
// One mutex guards the ring, the production counter and the per-consumer
// tally. Producers wait on notFull, consumers on notEmpty; both
// conditions are bound to the mutex in New. Each enqueue broadcasts
// notEmpty, each dequeue signals notFull once. Reaching the cap
// broadcasts both conditions so that every parked agent observes it.
//
// Len, TotalProduced and Done never take the lock; they read counters
// mirrored under it, so status reads stay responsive while an agent is
// inside the critical section.
//
// # Statistics
//
// Stats returns a copy of the per-consumer tally. It is only final after
// every consumer's Get has returned ok == false.
package queue
