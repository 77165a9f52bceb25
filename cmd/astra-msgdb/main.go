package main

import "astra-msgdb/internal/cli"

func main() {
	cli.Execute()
}
