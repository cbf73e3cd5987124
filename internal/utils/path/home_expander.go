package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant = "~"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander rewrites paths such as ~/.config/ghprune/token against the user's home directory.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
	resolveOnce           sync.Once
	homeDirectory         string
}

// NewHomeExpander constructs a HomeExpander. A nil provider uses os.UserHomeDir.
func NewHomeExpander(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{homeDirectoryProvider: provider}
}

// Expand resolves a leading tilde. Paths naming another user (~bob/...) and
// paths without a tilde are returned unchanged, as is everything when the
// home directory cannot be determined.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}

	remainder := strings.TrimPrefix(candidatePath, tildeSymbolConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return candidatePath
	}

	homeDirectory := expander.resolveHomeDirectory()
	if len(homeDirectory) == 0 {
		return candidatePath
	}

	return filepath.Join(homeDirectory, remainder)
}

func (expander *HomeExpander) resolveHomeDirectory() string {
	expander.resolveOnce.Do(func() {
		homeDirectory, lookupError := expander.homeDirectoryProvider()
		if lookupError == nil {
			expander.homeDirectory = homeDirectory
		}
	})
	return expander.homeDirectory
}
