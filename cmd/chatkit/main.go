package main

import "github.com/user/chatkit/internal/cli"

func main() {
	cli.Execute()
}
