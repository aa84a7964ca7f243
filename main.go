package main

import "github.com/fwhub/fwcache-cli/cmd"

func main() {
	cmd.Execute()
}
