// gitbuildnumber publishes git revision, branch, tag and commit count as
// build properties, extracting them once per run.
package main

import "github.com/dantte-lp/gitbuildnumber/cmd/gitbuildnumber/commands"

func main() {
	commands.Execute()
}
