//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

// Generate regenerates the templ components.
func Generate() error {
	fmt.Println("Generating templates...")
	return sh.RunV("go", "run", "github.com/a-h/templ/cmd/templ@v0.3.960", "generate", "-path", "internal/web/templates")
}

// Build compiles the server into bin/smartmart.
func Build() error {
	fmt.Println("Building...")
	return sh.Run("go", "build", "-o", "bin/smartmart", "./cmd/server")
}

// Run builds and starts the server with the current environment.
func Run() error {
	mg.Deps(Build)
	return sh.RunV("bin/smartmart")
}

// Test runs all tests.
func Test() error {
	fmt.Println("Running Tests...")
	return sh.RunV("go", "test", "./...")
}

// Race runs all tests with the race detector.
func Race() error {
	fmt.Println("Running Tests with -race...")
	return sh.RunV("go", "test", "-race", "./...")
}

// Check runs formatting and vet checks.
func Check() error {
	mg.Deps(Fmt, Vet)
	return nil
}

// Fmt runs go fmt ./...
func Fmt() error {
	return sh.Run("go", "fmt", "./...")
}

// Vet runs go vet ./...
func Vet() error {
	return sh.Run("go", "vet", "./...")
}

// Tidy runs go mod tidy.
func Tidy() error {
	return sh.Run("go", "mod", "tidy")
}

// Clean removes build output.
func Clean() error {
	fmt.Println("Cleaning...")
	return os.RemoveAll("bin")
}
