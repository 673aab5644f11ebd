package assets

import (
	"embed"
	"path"

	"github.com/benbjohnson/hashfs"
)

//go:embed dist
var FS embed.FS

var HashFS = hashfs.NewFS(FS)

// URL returns the cache-busting public path of an asset under dist/.
func URL(name string) string {
	return "/assets/" + HashFS.HashName(path.Join("dist", name))
}
