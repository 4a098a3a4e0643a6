package main

import "github.com/yerzhan-k/bizbot-go/cmd"

func main() {
	cmd.Execute()
}
