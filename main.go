// Public domain.

package main

import "github.com/soniakeys/angiod/internal/iodprog"

func main() {
	iodprog.Main()
}
