package main

import (
	"example.com/calendariko/cmd"
)

func main() {
	cmd.Execute()
}
