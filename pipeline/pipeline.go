package pipeline

import (
	"sync"
)

// Channel streams items onto an unbuffered channel and closes it once
// every item has been received.
func Channel[T any](items []T) <-chan T {
	out := make(chan T)
	go func() {
		for _, item := range items {
			out <- item
		}
		close(out)
	}()
	return out
}

// Merge fans in values from all chans. The returned channel is closed once
// every input channel has been drained.
// Adapted from https://blog.golang.org/pipelines
func Merge[T any](chans ...<-chan T) <-chan T {
	var wg sync.WaitGroup
	out := make(chan T)
	output := func(c <-chan T) {
		for n := range c {
			out <- n
		}
		wg.Done()
	}
	wg.Add(len(chans))
	for _, c := range chans {
		go output(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
