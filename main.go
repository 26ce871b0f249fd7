package main

import "github.com/fakeyudi/codetrack/cmd"

func main() {
	cmd.Execute()
}
