package grammar

import _ "embed"

//go:embed minilang.hcl
var miniLangSource []byte

// MiniLang loads the built-in statement language used when no grammar file
// is configured.
func MiniLang() (*Grammar, error) {
	return LoadSource(miniLangSource, "minilang.hcl")
}
