package distribute

import (
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/shiplane-io/shiplane/pkg/helpers"
)

const symbolArchiveSuffix = ".dSYM.zip"

// FindSymbolArchives returns the dSYM archives under root, in walk
// order.
func FindSymbolArchives(fs billy.Filesystem, root string) ([]string, error) {
	var archives []string

	err := helpers.Walk(fs, root, func(path string, info os.FileInfo) error {
		if info.IsDir() {
			return nil
		}

		if strings.HasSuffix(info.Name(), symbolArchiveSuffix) {
			archives = append(archives, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return archives, nil
}
