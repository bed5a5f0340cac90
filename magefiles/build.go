//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Downloads modules and builds the anima-scenes binary into bin/.
func (Build) Binary() error {
	if _, err := executeCmd("go", withArgs("mod", "download")); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("build", "-o", "bin/anima-scenes", "."), withStream())
	return err
}

// Parses and validates every shipped group definition.
func (Build) Definitions() error {
	_, err := executeCmd("go", withArgs("run", ".", "validate"), withStream())
	return err
}

type Test mg.Namespace

// Runs the unit tests with the race detector.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}
