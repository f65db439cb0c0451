// Package langts adapts the TypeScript tree-sitter grammar to astkit's
// compiler.Frontend / compiler.Node seam: one subpackage per grammar,
// registering itself with cstree on init, and implementing the compiler
// contract astkit's tree manipulation engine actually consumes.
package langts

//#include "parser.h"
//TSLanguage *tree_sitter_typescript();
import "C"
import (
	"unsafe"

	"github.com/synlang/astkit/cstree"
)

func init() {
	ptr := unsafe.Pointer(C.tree_sitter_typescript())
	cstree.RegisterLanguage("typescript", cstree.NewLanguage(ptr))
}
