package main

import "ecommerce/admin-api/cmd/admin-api/commands"

func main() {
	commands.Execute()
}
