// Command example is the annotated example module, a direct port of
// original_source/modules/example_module.c: it exists to document the
// module contract (dependency arrays, the void**-equivalent ctx cell,
// and which hooks may block) rather than to do anything useful.
package main

import "fmt"

// Preceeds and Depends mirror example_module.c's declared dependencies
// exactly; its commented-out succeeds/requires/needs/conflicts arrays
// are left undeclared here too, matching "empty dependencies can be
// left out".
var (
	Preceeds = []string{"new", "all"}
	Depends  = []string{"all"}
)

// exampleContext is the Go analogue of struct example_context: hooks
// pass state forward by stashing a pointer to it in *ctx rather than
// using package-level variables.
type exampleContext struct {
	a, b int
}

// VlockStart does something that should happen at vlock's start. An
// error here (a false return) aborts vlock.
func VlockStart(ctx *any) bool {
	*ctx = &exampleContext{a: 23, b: 42}
	return true
}

// VlockSave and VlockSaveAbort are deliberately not implemented: a hook
// a module doesn't need should simply not be exported, exactly as
// example_module.c's commented-out declarations illustrate.

// VlockEnd does something at the end of vlock. Its return value is
// ignored by the lifecycle driver, but it still reports trouble.
func VlockEnd(ctx *any) bool {
	c, ok := (*ctx).(*exampleContext)
	if !ok || c == nil {
		return true
	}

	ok = c.a == 23 && c.b == 42
	if !ok {
		fmt.Println("vlock-example: Whoops!")
	}
	return ok
}
