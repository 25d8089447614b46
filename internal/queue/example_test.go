package queue_test

import (
	"fmt"

	"github.com/jittakal/ticketbuffer/internal/queue"
)

func Example() {
	q, err := queue.New(3, 3)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	produced := q.Put("1", nil)
	fmt.Printf("Produced: %d, buffered: %d\n", produced, q.Len())

	for {
		t, ok := q.Get("A", nil)
		if !ok {
			fmt.Println("Terminal")
			break
		}
		fmt.Printf("Got ticket %d from producer %s\n", t.Seq, t.ProducerID)
	}
	fmt.Printf("Consumer A took %d\n", q.Stats().Count("A"))

	// Output:
	// Produced: 3, buffered: 3
	// Got ticket 1 from producer 1
	// Got ticket 2 from producer 1
	// Got ticket 3 from producer 1
	// Terminal
	// Consumer A took 3
}
