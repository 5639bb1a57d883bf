// cmd/conciliador/main.go
package main

func main() {
	Execute()
}
