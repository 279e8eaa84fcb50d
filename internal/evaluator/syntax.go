package evaluator

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// grammars maps language tags to tree-sitter grammars
var grammars = map[string]func() *sitter.Language{
	"java":       java.GetLanguage,
	"javascript": javascript.GetLanguage,
	"python":     python.GetLanguage,
}

// HasSyntaxError parses code with the language's tree-sitter grammar and
// reports whether the tree contains error nodes. ok is false when no grammar
// is available or parsing failed.
func HasSyntaxError(ctx context.Context, language, code string) (bad bool, ok bool) {
	grammar, found := grammars[language]
	if !found {
		return false, false
	}

	// Parsers are not safe for concurrent use
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar())

	tree, err := parser.ParseCtx(ctx, nil, []byte(code))
	if err != nil {
		return false, false
	}
	defer tree.Close()

	return tree.RootNode().HasError(), true
}
