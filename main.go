package main

import "github.com/notargets/ElastAMR/cmd"

func main() {
	cmd.Execute()
}
