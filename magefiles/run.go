//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Validates the definitions, then runs the testbed.
func (Run) Testbed() error {
	mg.Deps(Build.Definitions)
	fmt.Println("Run testbed...")
	_, err := executeCmd("go", withArgs("run", ".", "run"), withStream())
	return err
}

// Runs the testbed starting from the given group.
func (Run) Group(name string) error {
	_, err := executeCmd("go", withArgs("run", ".", "run", name), withStream())
	return err
}
