package session

import (
	"log"
	"strings"

	"github.com/lexcodex/lspboost/booster"
	"github.com/lexcodex/lspboost/persistence"
)

// Descriptor names a known language server configuration.
type Descriptor struct {
	ID         string
	Aliases    []string
	LanguageID string
	Command    string
	Args       []string
}

var descriptors = []Descriptor{
	{ID: "go", LanguageID: "go", Command: "gopls", Args: []string{"serve"}},
	{ID: "rust", Aliases: []string{"rs"}, LanguageID: "rust", Command: "rust-analyzer"},
	{ID: "typescript", Aliases: []string{"ts", "javascript", "js"}, LanguageID: "typescript",
		Command: "typescript-language-server", Args: []string{"--stdio"}},
	{ID: "python", Aliases: []string{"py"}, LanguageID: "python", Command: "pylsp"},
	{ID: "c", Aliases: []string{"cpp", "c++", "clangd"}, LanguageID: "c", Command: "clangd"},
	{ID: "lua", LanguageID: "lua", Command: "lua-language-server"},
}

// Lookup finds a descriptor by id or alias, case-insensitively.
func Lookup(lang string) (Descriptor, bool) {
	key := strings.ToLower(strings.TrimSpace(lang))
	for _, desc := range descriptors {
		if desc.ID == key {
			return desc, true
		}
		for _, alias := range desc.Aliases {
			if alias == key {
				return desc, true
			}
		}
	}
	return Descriptor{}, false
}

// Languages lists the known descriptor IDs.
func Languages() []string {
	ids := make([]string, 0, len(descriptors))
	for _, desc := range descriptors {
		ids = append(ids, desc.ID)
	}
	return ids
}

// NewClient starts a session for the described server.
func (d Descriptor) NewClient(root string, feature *booster.Feature, ledger *persistence.Ledger, logger *log.Logger) (*Client, error) {
	return NewClient(Config{
		Command:    d.Command,
		Args:       d.Args,
		RootDir:    root,
		LanguageID: d.LanguageID,
		Feature:    feature,
		Ledger:     ledger,
		Logger:     logger,
	})
}
