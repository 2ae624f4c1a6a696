package tts

import (
	"path/filepath"
	"strings"
)

// OutputExt is the converter's container extension.
const OutputExt = ".m4a"

// OutputPath derives "<input without extension>_<voice>.m4a", keeping the
// input's directory. A leading dot is part of the name, so ".notes" keeps
// its whole name.
func OutputPath(inputPath, voice string) string {
	base := inputPath
	name := filepath.Base(inputPath)
	if i := strings.LastIndex(name, "."); i > 0 && strings.TrimLeft(name[:i], ".") != "" {
		base = strings.TrimSuffix(inputPath, name[i:])
	}
	return base + "_" + voice + OutputExt
}
