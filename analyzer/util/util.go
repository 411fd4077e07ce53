package util

import (
	"sync"
)

type Pass[T any] interface {
	Process(T)
}

type PassFunc[T any] func(T)

func (f PassFunc[T]) Process(item T) {
	f(item)
}

func Process[T any](
	node T,
	passes [][]Pass[T], // sequence of parallelizable passes
	shouldEarlyExit func() bool, // optional
) {
	for _, parallelPasses := range passes {
		wg := sync.WaitGroup{}
		wg.Add(len(parallelPasses))
		for _, pass := range parallelPasses {
			go func(pass Pass[T]) {
				pass.Process(node)
				wg.Done()
			}(pass)
		}

		wg.Wait()

		if shouldEarlyExit != nil && shouldEarlyExit() {
			return
		}
	}
}

func ParallelProcess[T any](
	list []T,
	process func(T),
) {
	wg := sync.WaitGroup{}
	wg.Add(len(list))
	for _, item := range list {
		go func(item T) {
			process(item)
			wg.Done()
		}(item)
	}
	wg.Wait()
}
