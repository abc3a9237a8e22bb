package main

import "rhystmorgan/likeWallet/liketerm/cmd"

func main() {
	cmd.Execute()
}
