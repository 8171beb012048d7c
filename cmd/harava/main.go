// Harava - Resource Reconciliation Sweeps
// List. Qualify. Apply.
package main

func main() {
	Execute()
}
