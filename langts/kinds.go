package langts

import "github.com/synlang/astkit/compiler"

// kindTable maps tree-sitter's TypeScript grammar node types onto astkit's
// closed SyntaxKind variant. It is the one place that knows the grammar's
// vocabulary; everything above langts only ever sees compiler.SyntaxKind.
//
// Container node types that the grammar already uses to group
// variable-length sequences (the top-level program, a class's body, a
// block's statements) map onto the single distinguished KindSyntaxList tag
// instead of their own kind, per compiler.KindSyntaxList's contract.
//
// "export_statement" has no entry here: tree-sitter-typescript models it as
// a wrapper around a declaration field rather than a modifier token, so
// treeWrapper.wrap intercepts it before a Node is ever built from its raw
// type string and synthesizes the KindExportKeyword child astkit's edit
// surface expects instead.
var kindTable = map[string]compiler.SyntaxKind{
	"program":               compiler.KindSyntaxList,
	"class_body":            compiler.KindSyntaxList,
	"statement_block":       compiler.KindSyntaxList,

	"identifier":             compiler.KindIdentifier,
	"type_identifier":        compiler.KindIdentifier,
	"decorator":               compiler.KindDecorator,
	"class_declaration":       compiler.KindClassDeclaration,
	"method_definition":       compiler.KindMethodDeclaration,
	"public_field_definition": compiler.KindPropertyDeclaration,
	"lexical_declaration":     compiler.KindVariableStatement,
	"variable_declarator":     compiler.KindVariableDeclaration,
	"call_expression":         compiler.KindCallExpression,
	"internal_module":         compiler.KindNamespaceDeclaration,
	"required_parameter":      compiler.KindParameter,
	"string":                  compiler.KindStringLiteral,
	"number":                  compiler.KindNumericLiteral,
}

// kindOf resolves a grammar type string, defaulting to KindUnknown for any
// type the table doesn't name — astkit's Factory wraps such a node like any
// other rather than treating it as an error.
func kindOf(tsType string) compiler.SyntaxKind {
	if k, ok := kindTable[tsType]; ok {
		return k
	}
	return compiler.KindUnknown
}
