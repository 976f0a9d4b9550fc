// Command ipqsdb is a command-line client for the flat-file IP
// reputation database: it looks up addresses and reports their
// connection type, abuse velocity, and any other fields the file
// carries.
package main

func main() {
	Execute()
}
