// thoughttree runs durable Tree-of-Thoughts beam searches from the
// command line. Searches checkpoint to SQLite, so a crashed or killed
// run can be picked up with `thoughttree resume <search-id>`.
package main

func main() {
	Execute()
}
