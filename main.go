package main

import "github.com/chengxue2020/Cat-ports/cmd"

func main() {
	cmd.Execute()
}
